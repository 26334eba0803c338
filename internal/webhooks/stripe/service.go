package stripewebhook

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/stadiumcard/stadiumcard-backend/internal/mailer"
	"github.com/stadiumcard/stadiumcard-backend/pkg/db/models"
	"github.com/stadiumcard/stadiumcard-backend/pkg/enums"
	pkgerrors "github.com/stadiumcard/stadiumcard-backend/pkg/errors"
	"github.com/stadiumcard/stadiumcard-backend/pkg/logger"
	"github.com/stadiumcard/stadiumcard-backend/pkg/metrics"
	"github.com/stadiumcard/stadiumcard-backend/pkg/tasks"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type profileReader interface {
	FindByID(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
}

const (
	outcomeProcessed = "processed"
	outcomeDuplicate = "duplicate"
	outcomeIgnored   = "ignored"
	outcomeFailed    = "failed"
)

type ServiceParams struct {
	Store             OrderStore
	TransactionRunner txRunner
	Guard             *IdempotencyGuard
	Profiles          profileReader
	Sender            mailer.Sender
	Logger            *logger.Logger
}

// Service turns payment-capture events into the pending→paid order
// transition.
type Service struct {
	store    OrderStore
	txRunner txRunner
	guard    *IdempotencyGuard
	profiles profileReader
	sender   mailer.Sender
	logg     *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order store required")
	}
	if params.TransactionRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	if params.Guard == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "idempotency guard required")
	}
	if params.Profiles == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "profile reader required")
	}
	if params.Sender == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "mail sender required")
	}
	return &Service{
		store:    params.Store,
		txRunner: params.TransactionRunner,
		guard:    params.Guard,
		profiles: params.Profiles,
		sender:   params.Sender,
		logg:     params.Logger,
	}, nil
}

// HandleEvent processes one verified Stripe event. A nil return acknowledges
// the delivery; only errors that merit a Stripe retry propagate.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}
	eventType := string(event.Type)

	if event.Type != stripe.EventTypeCheckoutSessionCompleted {
		metrics.WebhookEvents.WithLabelValues(eventType, outcomeIgnored).Inc()
		return nil
	}

	duplicate, err := s.guard.CheckAndMark(ctx, event.ID)
	if err != nil {
		metrics.WebhookEvents.WithLabelValues(eventType, outcomeFailed).Inc()
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "idempotency check")
	}
	if duplicate {
		metrics.WebhookEvents.WithLabelValues(eventType, outcomeDuplicate).Inc()
		return nil
	}

	if err := s.handleCheckoutCompleted(ctx, event); err != nil {
		// Release the claim so Stripe's retry is not fenced out.
		if delErr := s.guard.Delete(ctx, event.ID); delErr != nil && s.logg != nil {
			s.logg.Error(ctx, "release idempotency key", delErr)
		}
		metrics.WebhookEvents.WithLabelValues(eventType, outcomeFailed).Inc()
		return err
	}

	metrics.WebhookEvents.WithLabelValues(eventType, outcomeProcessed).Inc()
	return nil
}

func (s *Service) handleCheckoutCompleted(ctx context.Context, event *stripe.Event) error {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode checkout session")
	}

	orderID, err := uuid.Parse(session.Metadata["orderId"])
	if err != nil {
		// A session without our metadata was not created by this backend.
		// Acknowledge it; retrying will never make the metadata appear.
		if s.logg != nil {
			ctx = s.logg.WithField(ctx, "stripe_event_id", event.ID)
			s.logg.Warn(ctx, "checkout session missing order metadata")
		}
		return nil
	}

	paymentIntentID := ""
	if session.PaymentIntent != nil {
		paymentIntentID = session.PaymentIntent.ID
	}

	var order *models.Order
	err = s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		loaded, err := s.store.FindOrder(ctx, tx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		// Status guard backs up the Redis fence: a replay that slipped past it
		// still cannot double-apply the transition.
		if loaded.Status != enums.OrderStatusPending {
			if s.logg != nil {
				c := s.logg.WithOrderID(ctx, loaded.ID.String())
				s.logg.Info(c, "order already past pending, ignoring payment capture")
			}
			return nil
		}

		if err := s.store.MarkOrderPaid(ctx, tx, loaded.ID, paymentIntentID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order paid")
		}
		if err := s.store.MarkListingAwaitingShipment(ctx, tx, loaded.ListingID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update listing status")
		}

		loaded.Status = enums.OrderStatusPaid
		order = loaded
		return nil
	})
	if err != nil {
		return err
	}
	if order == nil {
		return nil
	}

	s.notifyParties(ctx, order)
	return nil
}

func (s *Service) notifyParties(ctx context.Context, order *models.Order) {
	title := "card"
	if order.Listing != nil {
		title = order.Listing.Title()
	}
	tasks.BestEffortGroup(ctx, s.logg, "payment-captured",
		func(ctx context.Context) error {
			seller, err := s.profiles.FindByID(ctx, order.SellerID)
			if err != nil {
				return err
			}
			return s.sender.Send(ctx, mailer.ShipNow(seller.Email, title))
		},
		func(ctx context.Context) error {
			buyer, err := s.profiles.FindByID(ctx, order.BuyerID)
			if err != nil {
				return err
			}
			return s.sender.Send(ctx, mailer.OrderConfirmed(buyer.Email, title, order.TotalAmount))
		},
	)
}
