package stripewebhook

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stadiumcard/stadiumcard-backend/pkg/db/models"
	"github.com/stadiumcard/stadiumcard-backend/pkg/enums"
)

// OrderStore is the privileged write surface the webhook needs. The webhook
// acts on behalf of the platform, not a user, so it gets this narrow store
// handed to it explicitly instead of borrowing a user-scoped repository.
type OrderStore interface {
	FindOrder(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (*models.Order, error)
	MarkOrderPaid(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, paymentIntentID string) error
	MarkListingAwaitingShipment(ctx context.Context, tx *gorm.DB, listingID uuid.UUID) error
}

type orderStore struct {
	db *gorm.DB
}

// NewOrderStore returns the gorm-backed privileged store.
func NewOrderStore(db *gorm.DB) OrderStore {
	return &orderStore{db: db}
}

func (s *orderStore) session(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return s.db
}

func (s *orderStore) FindOrder(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := s.session(tx).WithContext(ctx).
		Preload("Listing").
		First(&order, "id = ?", orderID).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *orderStore) MarkOrderPaid(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, paymentIntentID string) error {
	updates := map[string]any{"status": enums.OrderStatusPaid}
	if paymentIntentID != "" {
		updates["payment_intent_id"] = paymentIntentID
	}
	return s.session(tx).WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(updates).Error
}

func (s *orderStore) MarkListingAwaitingShipment(ctx context.Context, tx *gorm.DB, listingID uuid.UUID) error {
	return s.session(tx).WithContext(ctx).
		Model(&models.ListingItem{}).
		Where("id = ?", listingID).
		Update("status", enums.ListingStatusAwaitingShipment).Error
}
