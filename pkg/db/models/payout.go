package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/stadiumcard/stadiumcard-backend/pkg/enums"
)

// Payout is one withdrawal request. Amount is the gross deduction from the
// seller's balance (PayoutAmount + Fee) and is fixed at request time even if
// the fee schedule changes later.
type Payout struct {
	ID           uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID       uuid.UUID          `gorm:"column:user_id;type:uuid;not null"`
	Amount       int                `gorm:"column:amount;not null"`
	Fee          int                `gorm:"column:fee;not null"`
	PayoutAmount int                `gorm:"column:payout_amount;not null"`
	Status       enums.PayoutStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	ProcessedAt  *time.Time         `gorm:"column:processed_at"`
	CreatedAt    time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
