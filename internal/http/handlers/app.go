// Package handlers implements the HTTP API surface.
package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"clipforge/internal/assemble"
	"clipforge/internal/cliplib"
	"clipforge/internal/generate"
	"clipforge/internal/infra"
	"clipforge/internal/quota"
)

// Generator runs the full prompt-to-video pipeline.
type Generator interface {
	Generate(ctx context.Context, p generate.Params) generate.Result
	GeneratePairedAd(ctx context.Context, p generate.Params) generate.Result
}

// Stitcher assembles and serves local artifacts.
type Stitcher interface {
	Assemble(ctx context.Context, orderedURLs []string, mode assemble.Mode, outputKey string) assemble.Result
	Latest() (key, path string, ok bool)
	ArtifactPath(key string) (string, error)
}

// Transcriber converts uploaded speech audio to text.
type Transcriber interface {
	Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error)
}

// App bundles the dependencies the handlers need.
type App struct {
	Logger      infra.Logger
	Generator   Generator
	Stitcher    Stitcher
	Clips       cliplib.Store
	Quota       quota.Store
	Transcriber Transcriber
	ProxyClient *http.Client

	// StitchMode is the default join mode for stitch requests.
	StitchMode assemble.Mode

	// Setup report inputs.
	ProviderConfigured   bool
	TranscribeConfigured bool
	DefaultModel         string
	FreeLimit            int
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
