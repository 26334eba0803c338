package controllers

import (
	"net/http"

	"github.com/stadiumcard/stadiumcard-backend/api/responses"
	"github.com/stadiumcard/stadiumcard-backend/api/validators"
	"github.com/stadiumcard/stadiumcard-backend/internal/payouts"
	pkgerrors "github.com/stadiumcard/stadiumcard-backend/pkg/errors"
	"github.com/stadiumcard/stadiumcard-backend/pkg/logger"
)

type requestPayoutRequest struct {
	Amount int `json:"amount" validate:"required,gt=0"`
}

type registerBankAccountRequest struct {
	BankName          string `json:"bank_name" validate:"required,max=100"`
	BankCode          string `json:"bank_code" validate:"max=8"`
	BranchName        string `json:"branch_name" validate:"required,max=100"`
	BranchCode        string `json:"branch_code" validate:"max=8"`
	AccountType       string `json:"account_type" validate:"required"`
	AccountNumber     string `json:"account_number" validate:"required,numeric,min=4,max=8"`
	AccountHolderName string `json:"account_holder_name" validate:"max=100"`
}

// RequestPayout creates a pending withdrawal for the requested net amount.
func RequestPayout(svc payouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payouts service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req requestPayoutRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payout, err := svc.RequestPayout(r.Context(), userID, req.Amount)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, payouts.ToPayoutResponse(*payout))
	}
}

// ListPayouts returns the caller's withdrawal history.
func ListPayouts(svc payouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payouts service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.History(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, payouts.ToPayoutResponses(list))
	}
}

// GetWithdrawalFeeTiers returns the display projection of the fee schedule.
func GetWithdrawalFeeTiers(svc payouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payouts service unavailable"))
			return
		}
		responses.WriteSuccess(w, svc.FeeTiers())
	}
}

// RegisterBankAccount upserts the caller's payout destination.
func RegisterBankAccount(svc payouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payouts service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req registerBankAccountRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		account, err := svc.RegisterBankAccount(r.Context(), payouts.RegisterBankAccountInput{
			UserID:            userID,
			BankName:          validators.SanitizeString(req.BankName, 100),
			BankCode:          validators.SanitizeString(req.BankCode, 8),
			BranchName:        validators.SanitizeString(req.BranchName, 100),
			BranchCode:        validators.SanitizeString(req.BranchCode, 8),
			AccountType:       req.AccountType,
			AccountNumber:     validators.SanitizeString(req.AccountNumber, 8),
			AccountHolderName: req.AccountHolderName,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, payouts.ToBankAccountResponse(*account))
	}
}

// GetBankAccount returns the caller's registered payout destination.
func GetBankAccount(svc payouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payouts service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		account, err := svc.GetBankAccount(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, payouts.ToBankAccountResponse(*account))
	}
}

// AdminListPendingPayouts returns payouts awaiting settlement.
func AdminListPendingPayouts(svc payouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payouts service unavailable"))
			return
		}

		list, err := svc.ListPending(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, payouts.ToPayoutResponses(list))
	}
}

// AdminMarkPayoutPaid settles a pending payout after the bank transfer.
func AdminMarkPayoutPaid(svc payouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payouts service unavailable"))
			return
		}

		payoutID, err := validators.ParseUUIDParam(r, "payoutId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payout, err := svc.MarkPaid(r.Context(), payoutID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, payouts.ToPayoutResponse(*payout))
	}
}

// AdminRejectPayout rejects a pending payout, releasing the reserved balance.
func AdminRejectPayout(svc payouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payouts service unavailable"))
			return
		}

		payoutID, err := validators.ParseUUIDParam(r, "payoutId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payout, err := svc.Reject(r.Context(), payoutID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, payouts.ToPayoutResponse(*payout))
	}
}
