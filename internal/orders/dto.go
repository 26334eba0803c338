package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/stadiumcard/stadiumcard-backend/pkg/db/models"
	"github.com/stadiumcard/stadiumcard-backend/pkg/enums"
	"github.com/stadiumcard/stadiumcard-backend/pkg/types"
)

// CreateOrderInput starts a purchase attempt against a listing.
type CreateOrderInput struct {
	BuyerID   uuid.UUID
	ListingID uuid.UUID
}

// ShipInput records the seller's shipment of a paid order.
type ShipInput struct {
	OrderID        uuid.UUID
	ActorID        uuid.UUID
	TrackingNumber string
	Carrier        string
}

// ReceiveInput confirms the buyer got the item, releasing funds to the seller.
type ReceiveInput struct {
	OrderID uuid.UUID
	ActorID uuid.UUID
}

// OrderResponse is the API shape of an order.
type OrderResponse struct {
	ID              uuid.UUID              `json:"id"`
	ListingID       uuid.UUID              `json:"listing_id"`
	BuyerID         uuid.UUID              `json:"buyer_id"`
	SellerID        uuid.UUID              `json:"seller_id"`
	Status          enums.OrderStatus      `json:"status"`
	TotalAmount     int                    `json:"total_amount"`
	PlatformFee     int                    `json:"platform_fee"`
	NetEarnings     int                    `json:"net_earnings"`
	ItemTitle       string                 `json:"item_title,omitempty"`
	TrackingNumber  *string                `json:"tracking_number,omitempty"`
	Carrier         *string                `json:"carrier,omitempty"`
	ShippingAddress *types.ShippingAddress `json:"shipping_address,omitempty"`
	ShippedAt       *time.Time             `json:"shipped_at,omitempty"`
	CompletedAt     *time.Time             `json:"completed_at,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
}

// ToOrderResponse maps a model to its API shape. The shipping address is only
// included for the two parties who need it.
func ToOrderResponse(order models.Order, includeAddress bool) OrderResponse {
	resp := OrderResponse{
		ID:             order.ID,
		ListingID:      order.ListingID,
		BuyerID:        order.BuyerID,
		SellerID:       order.SellerID,
		Status:         order.Status,
		TotalAmount:    order.TotalAmount,
		PlatformFee:    order.PlatformFee,
		NetEarnings:    order.NetEarnings,
		TrackingNumber: order.TrackingNumber,
		Carrier:        order.Carrier,
		ShippedAt:      order.ShippedAt,
		CompletedAt:    order.CompletedAt,
		CreatedAt:      order.CreatedAt,
	}
	if order.Listing != nil {
		resp.ItemTitle = order.Listing.Title()
	}
	if includeAddress {
		resp.ShippingAddress = order.ShippingAddressSnapshot
	}
	return resp
}

// ToOrderResponses maps a slice of orders without address snapshots.
func ToOrderResponses(orders []models.Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for _, order := range orders {
		out = append(out, ToOrderResponse(order, false))
	}
	return out
}
