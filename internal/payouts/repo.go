package payouts

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stadiumcard/stadiumcard-backend/pkg/db/models"
	"github.com/stadiumcard/stadiumcard-backend/pkg/enums"
)

// Repository manages persistence for payouts and bank accounts.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreatePayout(ctx context.Context, payout *models.Payout) error
	FindPayout(ctx context.Context, payoutID uuid.UUID) (*models.Payout, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Payout, error)
	ListByStatus(ctx context.Context, status enums.PayoutStatus) ([]models.Payout, error)
	UpdatePayout(ctx context.Context, payoutID uuid.UUID, updates map[string]any) error
	FindBankAccount(ctx context.Context, userID uuid.UUID) (*models.BankAccount, error)
	UpsertBankAccount(ctx context.Context, account *models.BankAccount) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a payout repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreatePayout(ctx context.Context, payout *models.Payout) error {
	return r.db.WithContext(ctx).Create(payout).Error
}

func (r *repository) FindPayout(ctx context.Context, payoutID uuid.UUID) (*models.Payout, error) {
	var payout models.Payout
	if err := r.db.WithContext(ctx).First(&payout, "id = ?", payoutID).Error; err != nil {
		return nil, err
	}
	return &payout, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Payout, error) {
	var payouts []models.Payout
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&payouts).Error; err != nil {
		return nil, err
	}
	return payouts, nil
}

func (r *repository) ListByStatus(ctx context.Context, status enums.PayoutStatus) ([]models.Payout, error) {
	var payouts []models.Payout
	if err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at ASC").
		Find(&payouts).Error; err != nil {
		return nil, err
	}
	return payouts, nil
}

func (r *repository) UpdatePayout(ctx context.Context, payoutID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Payout{}).
		Where("id = ?", payoutID).
		Updates(updates).Error
}

func (r *repository) FindBankAccount(ctx context.Context, userID uuid.UUID) (*models.BankAccount, error) {
	var account models.BankAccount
	if err := r.db.WithContext(ctx).First(&account, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// UpsertBankAccount keeps one payout destination per user.
func (r *repository) UpsertBankAccount(ctx context.Context, account *models.BankAccount) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"bank_name", "bank_code", "branch_name", "branch_code",
				"account_type", "account_number", "account_holder_name", "updated_at",
			}),
		}).
		Create(account).Error
}
