package payouts

import (
	"time"

	"github.com/google/uuid"

	"github.com/stadiumcard/stadiumcard-backend/pkg/db/models"
	"github.com/stadiumcard/stadiumcard-backend/pkg/enums"
)

// RegisterBankAccountInput carries the payout destination a seller submits.
// AccountHolderName is accepted but never stored as-is; the verified profile
// kana name wins.
type RegisterBankAccountInput struct {
	UserID            uuid.UUID
	BankName          string `validate:"required"`
	BankCode          string
	BranchName        string `validate:"required"`
	BranchCode        string
	AccountType       string `validate:"required"`
	AccountNumber     string `validate:"required,numeric,min=4,max=8"`
	AccountHolderName string
}

// PayoutResponse is the API shape of a payout.
type PayoutResponse struct {
	ID           uuid.UUID          `json:"id"`
	Amount       int                `json:"amount"`
	Fee          int                `json:"fee"`
	PayoutAmount int                `json:"payout_amount"`
	Status       enums.PayoutStatus `json:"status"`
	ProcessedAt  *time.Time         `json:"processed_at,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
}

// ToPayoutResponse maps a model to its API shape.
func ToPayoutResponse(payout models.Payout) PayoutResponse {
	return PayoutResponse{
		ID:           payout.ID,
		Amount:       payout.Amount,
		Fee:          payout.Fee,
		PayoutAmount: payout.PayoutAmount,
		Status:       payout.Status,
		ProcessedAt:  payout.ProcessedAt,
		CreatedAt:    payout.CreatedAt,
	}
}

// ToPayoutResponses maps a slice of payouts.
func ToPayoutResponses(payouts []models.Payout) []PayoutResponse {
	out := make([]PayoutResponse, 0, len(payouts))
	for _, payout := range payouts {
		out = append(out, ToPayoutResponse(payout))
	}
	return out
}

// BankAccountResponse is the API shape of a bank account, with the account
// number masked.
type BankAccountResponse struct {
	BankName          string                `json:"bank_name"`
	BranchName        string                `json:"branch_name"`
	AccountType       enums.BankAccountType `json:"account_type"`
	AccountNumber     string                `json:"account_number"`
	AccountHolderName string                `json:"account_holder_name"`
}

// ToBankAccountResponse masks all but the last three digits of the account
// number.
func ToBankAccountResponse(account models.BankAccount) BankAccountResponse {
	return BankAccountResponse{
		BankName:          account.BankName,
		BranchName:        account.BranchName,
		AccountType:       account.AccountType,
		AccountNumber:     maskAccountNumber(account.AccountNumber),
		AccountHolderName: account.AccountHolderName,
	}
}

func maskAccountNumber(number string) string {
	if len(number) <= 3 {
		return number
	}
	masked := make([]byte, len(number)-3)
	for i := range masked {
		masked[i] = '*'
	}
	return string(masked) + number[len(number)-3:]
}
