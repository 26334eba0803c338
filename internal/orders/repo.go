package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stadiumcard/stadiumcard-backend/pkg/db/models"
	"github.com/stadiumcard/stadiumcard-backend/pkg/enums"
)

// Repository defines persistence operations for orders and the listings they
// trade.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	FindInFlightByListing(ctx context.Context, listingID uuid.UUID) (*models.Order, error)
	FindListing(ctx context.Context, listingID uuid.UUID) (*models.ListingItem, error)
	UpdateOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) error
	UpdateListingStatus(ctx context.Context, listingID uuid.UUID, status enums.ListingStatus) error
	CompleteOrder(ctx context.Context, listingID uuid.UUID) error
	CreateListing(ctx context.Context, listing *models.ListingItem) error
	ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]models.Order, error)
	ListCompletedBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.Order, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an order repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Preload("Listing").
		First(&order, "id = ?", orderID).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindInFlightByListing(ctx context.Context, listingID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Where("listing_id = ? AND status IN ?", listingID, []enums.OrderStatus{
			enums.OrderStatusPending,
			enums.OrderStatusPaid,
			enums.OrderStatusShipped,
		}).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindListing(ctx context.Context, listingID uuid.UUID) (*models.ListingItem, error) {
	var listing models.ListingItem
	if err := r.db.WithContext(ctx).First(&listing, "id = ?", listingID).Error; err != nil {
		return nil, err
	}
	return &listing, nil
}

func (r *repository) UpdateOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(updates).Error
}

func (r *repository) UpdateListingStatus(ctx context.Context, listingID uuid.UUID, status enums.ListingStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.ListingItem{}).
		Where("id = ?", listingID).
		Update("status", status).Error
}

// CompleteOrder calls the database function that flips the shipped order and
// its listing to their completed states.
func (r *repository) CompleteOrder(ctx context.Context, listingID uuid.UUID) error {
	return r.db.WithContext(ctx).Exec("SELECT complete_order(?)", listingID).Error
}

func (r *repository) CreateListing(ctx context.Context, listing *models.ListingItem) error {
	return r.db.WithContext(ctx).Create(listing).Error
}

func (r *repository) ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.WithContext(ctx).
		Preload("Listing").
		Where("buyer_id = ?", buyerID).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) ListCompletedBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.WithContext(ctx).
		Preload("Listing").
		Where("seller_id = ? AND status = ?", sellerID, enums.OrderStatusCompleted).
		Order("completed_at DESC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}
