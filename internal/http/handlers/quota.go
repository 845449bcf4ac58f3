package handlers

import (
	"net/http"

	"clipforge/internal/middleware"
)

// QuotaStatus reports how many free generations the caller has left.
func (a *App) QuotaStatus(w http.ResponseWriter, r *http.Request) {
	key := middleware.CallerKeyFromContext(r.Context())
	allowed, remaining, err := a.Quota.Allow(r.Context(), key)
	if err != nil {
		a.Logger.Error().Err(err).Msg("handlers: quota status failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to read quota")
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"allowed":   allowed,
		"remaining": remaining,
		"limit":     a.FreeLimit,
	})
}
