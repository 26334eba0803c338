package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stadiumcard/stadiumcard-backend/pkg/enums"
)

// ListingItem is a sellable card. Card metadata travels with the listing so a
// completed purchase can be cloned into a new Draft owned by the buyer.
type ListingItem struct {
	ID               uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SellerID         uuid.UUID           `gorm:"column:seller_id;type:uuid;not null"`
	Status           enums.ListingStatus `gorm:"column:status;type:text;not null;default:'Draft'"`
	Price            int                 `gorm:"column:price;not null;default:0"`
	PlayerName       *string             `gorm:"column:player_name"`
	Team             *string             `gorm:"column:team"`
	Year             *int                `gorm:"column:year"`
	Manufacturer     *string             `gorm:"column:manufacturer"`
	SeriesName       *string             `gorm:"column:series_name"`
	CardNumber       *string             `gorm:"column:card_number"`
	Images           []string            `gorm:"column:images;type:jsonb;serializer:json"`
	GradingService   *string             `gorm:"column:grading_service"`
	ConditionRating  *string             `gorm:"column:condition_rating"`
	ConditionGrading *string             `gorm:"column:condition_grading"`
	OriginOrderID    *uuid.UUID          `gorm:"column:origin_order_id;type:uuid"`
	DeletedAt        gorm.DeletedAt      `gorm:"column:deleted_at;index"`
	CreatedAt        time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// Title returns the display name the notification templates use.
func (l ListingItem) Title() string {
	if l.PlayerName != nil && *l.PlayerName != "" {
		return *l.PlayerName
	}
	if l.SeriesName != nil && *l.SeriesName != "" {
		return *l.SeriesName
	}
	return "card"
}
