package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// LatestStitched serves the most recently assembled artifact.
func (a *App) LatestStitched(w http.ResponseWriter, r *http.Request) {
	_, path, ok := a.Stitcher.Latest()
	if !ok {
		a.error(w, http.StatusNotFound, "not_found", "nothing has been stitched yet")
		return
	}
	serveVideo(w, r, path)
}

// Artifact serves one assembled artifact by key.
func (a *App) Artifact(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	path, err := a.Stitcher.ArtifactPath(key)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid artifact key")
		return
	}
	serveVideo(w, r, path)
}

func serveVideo(w http.ResponseWriter, r *http.Request, path string) {
	w.Header().Set("Content-Type", "video/mp4")
	w.Header().Set("Cache-Control", "no-store")
	http.ServeFile(w, r, path)
}
