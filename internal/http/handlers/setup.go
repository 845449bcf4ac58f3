package handlers

import (
	"net/http"
)

type setupResponse struct {
	ProviderConfigured   bool   `json:"provider_configured"`
	TranscribeConfigured bool   `json:"transcribe_configured"`
	DefaultModel         string `json:"default_model"`
	FreeGenerationLimit  int    `json:"free_generation_limit"`
}

// Setup reports whether the server has the credentials and configuration the
// client needs before offering generation.
func (a *App) Setup(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, setupResponse{
		ProviderConfigured:   a.ProviderConfigured,
		TranscribeConfigured: a.TranscribeConfigured,
		DefaultModel:         a.DefaultModel,
		FreeGenerationLimit:  a.FreeLimit,
	})
}
