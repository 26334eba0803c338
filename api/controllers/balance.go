package controllers

import (
	"net/http"

	"github.com/stadiumcard/stadiumcard-backend/api/responses"
	"github.com/stadiumcard/stadiumcard-backend/internal/balance"
	pkgerrors "github.com/stadiumcard/stadiumcard-backend/pkg/errors"
	"github.com/stadiumcard/stadiumcard-backend/pkg/logger"
)

// GetBalance recomputes and returns the caller's money position.
func GetBalance(svc balance.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "balance service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := svc.Summary(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}
