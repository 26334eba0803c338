package controllers

import (
	"net/http"

	"github.com/stadiumcard/stadiumcard-backend/api/responses"
	"github.com/stadiumcard/stadiumcard-backend/api/validators"
	"github.com/stadiumcard/stadiumcard-backend/internal/profiles"
	pkgerrors "github.com/stadiumcard/stadiumcard-backend/pkg/errors"
	"github.com/stadiumcard/stadiumcard-backend/pkg/logger"
)

type updateKanaRequest struct {
	RealNameKana string `json:"real_name_kana" validate:"required,max=100"`
}

// UpdateRealNameKana stores the caller's legal name in katakana, the KYC
// anchor for payouts.
func UpdateRealNameKana(svc profiles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "profiles service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateKanaRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		stored, err := svc.UpdateRealNameKana(r.Context(), userID, req.RealNameKana)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"real_name_kana": stored})
	}
}
