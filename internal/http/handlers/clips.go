package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"clipforge/internal/cliplib"
	"clipforge/internal/middleware"
)

type clipAddRequest struct {
	URL   string `json:"url"`
	Label string `json:"label"`
}

func (a *App) ClipsAdd(w http.ResponseWriter, r *http.Request) {
	var req clipAddRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	clip := cliplib.Clip{URL: req.URL, Label: req.Label}
	owner := middleware.CallerKeyFromContext(r.Context())
	if err := a.Clips.Add(r.Context(), owner, clip); err != nil {
		switch {
		case errors.Is(err, cliplib.ErrEmptyURL), errors.Is(err, cliplib.ErrNotVideo):
			a.error(w, http.StatusBadRequest, "bad_request", err.Error())
		default:
			a.Logger.Error().Err(err).Msg("handlers: add clip failed")
			a.error(w, http.StatusInternalServerError, "internal", "failed to save clip")
		}
		return
	}
	a.json(w, http.StatusCreated, map[string]string{"status": "saved"})
}

func (a *App) ClipsList(w http.ResponseWriter, r *http.Request) {
	owner := middleware.CallerKeyFromContext(r.Context())
	clips, err := a.Clips.List(r.Context(), owner)
	if err != nil {
		a.Logger.Error().Err(err).Msg("handlers: list clips failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to list clips")
		return
	}
	if clips == nil {
		clips = []cliplib.Clip{}
	}
	a.json(w, http.StatusOK, map[string]any{"clips": clips})
}

func (a *App) ClipsRemove(w http.ResponseWriter, r *http.Request) {
	clipID := chi.URLParam(r, "id")
	if clipID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "clip id required")
		return
	}
	owner := middleware.CallerKeyFromContext(r.Context())
	if err := a.Clips.Remove(r.Context(), owner, clipID); err != nil {
		if errors.Is(err, cliplib.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "clip not found")
			return
		}
		a.Logger.Error().Err(err).Msg("handlers: remove clip failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to remove clip")
		return
	}
	a.json(w, http.StatusOK, map[string]string{"status": "removed"})
}

func (a *App) ClipsClear(w http.ResponseWriter, r *http.Request) {
	owner := middleware.CallerKeyFromContext(r.Context())
	if err := a.Clips.Clear(r.Context(), owner); err != nil {
		a.Logger.Error().Err(err).Msg("handlers: clear clips failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to clear clips")
		return
	}
	a.json(w, http.StatusOK, map[string]string{"status": "cleared"})
}
