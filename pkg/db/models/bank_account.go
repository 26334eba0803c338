package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/stadiumcard/stadiumcard-backend/pkg/enums"
)

// BankAccount is the single payout destination per user (upsert on user_id).
// AccountHolderName always holds the profile's registered kana name, never a
// client-submitted value.
type BankAccount struct {
	ID                uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID            uuid.UUID             `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	BankName          string                `gorm:"column:bank_name;not null"`
	BankCode          *string               `gorm:"column:bank_code"`
	BranchName        string                `gorm:"column:branch_name;not null"`
	BranchCode        *string               `gorm:"column:branch_code"`
	AccountType       enums.BankAccountType `gorm:"column:account_type;type:text;not null;default:'ordinary'"`
	AccountNumber     string                `gorm:"column:account_number;not null"`
	AccountHolderName string                `gorm:"column:account_holder_name;not null"`
	CreatedAt         time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
