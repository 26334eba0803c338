package mailer

import (
	"context"
	"fmt"
	"strings"

	"github.com/resend/resend-go/v2"

	"github.com/stadiumcard/stadiumcard-backend/pkg/config"
	"github.com/stadiumcard/stadiumcard-backend/pkg/logger"
)

// Message is a rendered email ready to send.
type Message struct {
	To      []string
	Subject string
	HTML    string
}

// Sender delivers transactional email. All sends in this backend are
// best-effort; callers wrap them in tasks.BestEffort.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type resendSender struct {
	client *resend.Client
	from   string
}

// NewSender returns a Resend-backed sender, or a logging no-op sender when no
// API key is configured (local development).
func NewSender(cfg config.ResendConfig, logg *logger.Logger) Sender {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return &noopSender{logg: logg}
	}
	return &resendSender{
		client: resend.NewClient(apiKey),
		from:   cfg.FromEmail,
	}
}

func (s *resendSender) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return fmt.Errorf("email recipient required")
	}
	_, err := s.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    s.from,
		To:      msg.To,
		Subject: msg.Subject,
		Html:    msg.HTML,
	})
	if err != nil {
		return fmt.Errorf("resend send: %w", err)
	}
	return nil
}

type noopSender struct {
	logg *logger.Logger
}

func (s *noopSender) Send(ctx context.Context, msg Message) error {
	if s.logg != nil {
		ctx = s.logg.WithField(ctx, "subject", msg.Subject)
		s.logg.Info(ctx, "email send skipped (no resend api key)")
	}
	return nil
}
