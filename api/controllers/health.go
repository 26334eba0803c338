package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/stadiumcard/stadiumcard-backend/api/responses"
	"github.com/stadiumcard/stadiumcard-backend/pkg/config"
	pkgerrors "github.com/stadiumcard/stadiumcard-backend/pkg/errors"
	"github.com/stadiumcard/stadiumcard-backend/pkg/logger"
	"github.com/stadiumcard/stadiumcard-backend/pkg/redis"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-StadiumCard-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady verifies the cache dependency before reporting ready.
func HealthReady(cfg *config.Config, pinger redis.Pinger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-StadiumCard-Env", cfg.App.Env)

		if pinger != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := pinger.Ping(ctx); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis unavailable"))
				return
			}
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
