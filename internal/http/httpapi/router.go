package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"clipforge/internal/http/handlers"
	"clipforge/internal/infra/geoip"
	appmw "clipforge/internal/middleware"
)

// Options tunes router-level behavior.
type Options struct {
	RateLimitPerMin int
	CountryResolver geoip.CountryResolver
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		appmw.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		appmw.Logger(app.Logger),
		appmw.Caller(opts.CountryResolver),
	)

	r.Get("/api/health", app.Health)
	r.Get("/api/setup", app.Setup)
	r.Get("/api/quota", app.QuotaStatus)

	r.Group(func(r chi.Router) {
		if opts.RateLimitPerMin > 0 {
			r.Use(appmw.RateLimit(opts.RateLimitPerMin, time.Minute))
		}
		r.Post("/api/generate", app.Generate)
		r.Post("/api/speech-to-video", app.SpeechToVideo)
		r.Post("/api/stitch", app.Stitch)
	})

	r.Route("/api/clips", func(r chi.Router) {
		r.Post("/", app.ClipsAdd)
		r.Get("/", app.ClipsList)
		r.Delete("/{id}", app.ClipsRemove)
		r.Delete("/", app.ClipsClear)
	})

	r.Get("/api/stitched", app.LatestStitched)
	r.Get("/api/artifacts/{key}", app.Artifact)
	r.Get("/api/proxy-video", app.ProxyVideo)

	return r
}
