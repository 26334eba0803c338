package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/stadiumcard/stadiumcard-backend/pkg/enums"
	"github.com/stadiumcard/stadiumcard-backend/pkg/types"
)

// Order is one purchase attempt against a listing. Amounts are integer yen.
//
// PlatformFee and NetEarnings are written exactly once, when the buyer confirms
// receipt; the balance ledger sums the frozen values and never recomputes them
// from the fee rate in force later.
type Order struct {
	ID                      uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ListingID               uuid.UUID              `gorm:"column:listing_id;type:uuid;not null"`
	BuyerID                 uuid.UUID              `gorm:"column:buyer_id;type:uuid;not null"`
	SellerID                uuid.UUID              `gorm:"column:seller_id;type:uuid;not null"`
	Status                  enums.OrderStatus      `gorm:"column:status;type:text;not null;default:'pending'"`
	TotalAmount             int                    `gorm:"column:total_amount;not null"`
	PlatformFee             int                    `gorm:"column:platform_fee;not null;default:0"`
	NetEarnings             int                    `gorm:"column:net_earnings;not null;default:0"`
	FeeRate                 string                 `gorm:"column:fee_rate"`
	PaymentIntentID         *string                `gorm:"column:payment_intent_id"`
	TrackingNumber          *string                `gorm:"column:tracking_number"`
	Carrier                 *string                `gorm:"column:carrier"`
	ShippingAddressSnapshot *types.ShippingAddress `gorm:"column:shipping_address_snapshot;type:jsonb;serializer:json"`
	ShippedAt               *time.Time             `gorm:"column:shipped_at"`
	CompletedAt             *time.Time             `gorm:"column:completed_at"`
	Listing                 *ListingItem           `gorm:"foreignKey:ListingID"`
	CreatedAt               time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt               time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
