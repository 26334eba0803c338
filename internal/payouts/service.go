package payouts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stadiumcard/stadiumcard-backend/internal/balance"
	"github.com/stadiumcard/stadiumcard-backend/internal/fees"
	"github.com/stadiumcard/stadiumcard-backend/internal/mailer"
	"github.com/stadiumcard/stadiumcard-backend/internal/profiles"
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

// Service runs the withdrawal workflow: validate against a fresh balance,
// create a pending payout, leave settlement to operators.
type Service interface {
	RequestPayout(ctx context.Context, userID uuid.UUID, netAmount int) (*models.Payout, error)
	History(ctx context.Context, userID uuid.UUID) ([]models.Payout, error)
	RegisterBankAccount(ctx context.Context, input RegisterBankAccountInput) (*models.BankAccount, error)
	GetBankAccount(ctx context.Context, userID uuid.UUID) (*models.BankAccount, error)
	FeeTiers() []fees.TierDisplay
	ListPending(ctx context.Context) ([]models.Payout, error)
	MarkPaid(ctx context.Context, payoutID uuid.UUID) (*models.Payout, error)
	Reject(ctx context.Context, payoutID uuid.UUID) (*models.Payout, error)
}

type service struct {
	repo        Repository
	tx          txRunner
	balances    balance.Service
	schedule    *fees.Schedule
	profiles    profileReader
	sender      mailer.Sender
	adminEmails []string
	logg        *logger.Logger
}

// NewService builds a payout service with the required dependencies.
func NewService(repo Repository, tx txRunner, balances balance.Service, schedule *fees.Schedule, profileRepo profileReader, sender mailer.Sender, adminEmails []string, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payouts repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if balances == nil {
		return nil, fmt.Errorf("balance service required")
	}
	if schedule == nil {
		return nil, fmt.Errorf("fee schedule required")
	}
	if profileRepo == nil {
		return nil, fmt.Errorf("profile reader required")
	}
	if sender == nil {
		return nil, fmt.Errorf("mail sender required")
	}
	return &service{
		repo:        repo,
		tx:          tx,
		balances:    balances,
		schedule:    schedule,
		profiles:    profileRepo,
		sender:      sender,
		adminEmails: adminEmails,
		logg:        logg,
	}, nil
}

func (s *service) RequestPayout(ctx context.Context, userID uuid.UUID, netAmount int) (*models.Payout, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if netAmount <= 0 {
		metrics.PayoutRequests.WithLabelValues("rejected").Inc()
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payout amount must be positive")
	}
	if minAmount := s.schedule.MinPayoutAmount(); netAmount < minAmount {
		metrics.PayoutRequests.WithLabelValues("rejected").Inc()
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("payout amount must be at least ¥%d", minAmount))
	}

	var payout *models.Payout
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if _, err := repo.FindBankAccount(ctx, userID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeValidation, "register bank account first")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load bank account")
		}

		fee := s.schedule.FeeFor(netAmount)
		gross := netAmount + fee

		// Fresh read inside the transaction; the gross amount is checked, not
		// the net the seller typed.
		summary, err := s.balances.SummaryTx(ctx, tx, userID)
		if err != nil {
			return err
		}
		if summary.Available < gross {
			return pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("insufficient balance: payout requires ¥%d (¥%d + ¥%d fee) but available balance is ¥%d",
					gross, netAmount, fee, summary.Available)).
				WithDetails(map[string]int{
					"required_gross": gross,
					"available":      summary.Available,
				})
		}

		payout = &models.Payout{
			UserID:       userID,
			Amount:       gross,
			Fee:          fee,
			PayoutAmount: netAmount,
			Status:       enums.PayoutStatusPending,
		}
		if err := repo.CreatePayout(ctx, payout); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payout")
		}
		return nil
	})
	if err != nil {
		metrics.PayoutRequests.WithLabelValues("rejected").Inc()
		return nil, err
	}

	metrics.PayoutRequests.WithLabelValues("created").Inc()
	s.notifyOperators(ctx, userID, payout)
	return payout, nil
}

func (s *service) History(ctx context.Context, userID uuid.UUID) ([]models.Payout, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	payouts, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payouts")
	}
	return payouts, nil
}

// RegisterBankAccount stores the payout destination. The holder name is always
// the profile's verified kana name; whatever the client submitted is ignored
// so a seller cannot direct payouts to someone else's account name.
func (s *service) RegisterBankAccount(ctx context.Context, input RegisterBankAccountInput) (*models.BankAccount, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	accountType, err := enums.ParseBankAccountType(input.AccountType)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid account type")
	}

	profile, err := s.profiles.FindByID(ctx, input.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "profile not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load profile")
	}
	if profile.RealNameKana == nil || profiles.NormalizeKana(*profile.RealNameKana) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "register your real name (kana) before adding a bank account")
	}
	holderName := profiles.NormalizeKana(*profile.RealNameKana)

	account := &models.BankAccount{
		UserID:            input.UserID,
		BankName:          input.BankName,
		BranchName:        input.BranchName,
		AccountType:       accountType,
		AccountNumber:     input.AccountNumber,
		AccountHolderName: holderName,
	}
	if input.BankCode != "" {
		account.BankCode = &input.BankCode
	}
	if input.BranchCode != "" {
		account.BranchCode = &input.BranchCode
	}

	if err := s.repo.UpsertBankAccount(ctx, account); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save bank account")
	}
	return account, nil
}

func (s *service) GetBankAccount(ctx context.Context, userID uuid.UUID) (*models.BankAccount, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	account, err := s.repo.FindBankAccount(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "bank account not registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load bank account")
	}
	return account, nil
}

func (s *service) FeeTiers() []fees.TierDisplay {
	return s.schedule.TiersForDisplay()
}

func (s *service) ListPending(ctx context.Context) ([]models.Payout, error) {
	payouts, err := s.repo.ListByStatus(ctx, enums.PayoutStatusPending)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pending payouts")
	}
	return payouts, nil
}

func (s *service) MarkPaid(ctx context.Context, payoutID uuid.UUID) (*models.Payout, error) {
	return s.settle(ctx, payoutID, enums.PayoutStatusPaid)
}

func (s *service) Reject(ctx context.Context, payoutID uuid.UUID) (*models.Payout, error) {
	return s.settle(ctx, payoutID, enums.PayoutStatusRejected)
}

// settle finalizes a pending payout. Rejection releases the reserved balance
// because the ledger excludes rejected payouts from the withdrawn sum.
func (s *service) settle(ctx context.Context, payoutID uuid.UUID, target enums.PayoutStatus) (*models.Payout, error) {
	if payoutID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payout id required")
	}

	var payout *models.Payout
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		loaded, err := repo.FindPayout(ctx, payoutID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "payout not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payout")
		}
		if loaded.Status != enums.PayoutStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "payout is already processed")
		}

		now := time.Now().UTC()
		if err := repo.UpdatePayout(ctx, payoutID, map[string]any{
			"status":       target,
			"processed_at": now,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payout")
		}

		loaded.Status = target
		loaded.ProcessedAt = &now
		payout = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return payout, nil
}

func (s *service) notifyOperators(ctx context.Context, userID uuid.UUID, payout *models.Payout) {
	if len(s.adminEmails) == 0 {
		return
	}
	tasks.BestEffort(ctx, s.logg, "payout-requested-email", func(ctx context.Context) error {
		sellerEmail := userID.String()
		if profile, err := s.profiles.FindByID(ctx, userID); err == nil {
			sellerEmail = profile.Email
		}
		return s.sender.Send(ctx, mailer.PayoutRequested(
			s.adminEmails, sellerEmail, payout.Amount, payout.Fee, payout.PayoutAmount))
	})
}
