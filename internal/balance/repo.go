package balance

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stadiumcard/stadiumcard-backend/pkg/db/models"
	"github.com/stadiumcard/stadiumcard-backend/pkg/enums"
)

// Repository reads the two ledger sides a balance derives from.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CompletedOrdersBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.Order, error)
	PayoutsExcludingRejected(ctx context.Context, userID uuid.UUID) ([]models.Payout, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a balance repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CompletedOrdersBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.WithContext(ctx).
		Where("seller_id = ? AND status = ?", sellerID, enums.OrderStatusCompleted).
		Order("completed_at DESC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) PayoutsExcludingRejected(ctx context.Context, userID uuid.UUID) ([]models.Payout, error) {
	var payouts []models.Payout
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND status <> ?", userID, enums.PayoutStatusRejected).
		Find(&payouts).Error; err != nil {
		return nil, err
	}
	return payouts, nil
}
