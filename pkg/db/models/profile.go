package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile mirrors the identity provider's user record with the marketplace
// fields layered on. RealNameKana is the single source of truth for payout
// KYC matching.
type Profile struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Email        string    `gorm:"column:email;not null"`
	Name         *string   `gorm:"column:name"`
	RealNameKana *string   `gorm:"column:real_name_kana"`
	PostalCode   *string   `gorm:"column:postal_code"`
	AddressLine1 *string   `gorm:"column:address_line1"`
	AddressLine2 *string   `gorm:"column:address_line2"`
	PhoneNumber  *string   `gorm:"column:phone_number"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// DisplayName returns the best available human-readable name.
func (p Profile) DisplayName() string {
	if p.Name != nil && *p.Name != "" {
		return *p.Name
	}
	return p.Email
}
