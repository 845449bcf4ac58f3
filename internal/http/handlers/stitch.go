package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"clipforge/internal/assemble"
	"clipforge/internal/media"
	"clipforge/internal/middleware"
)

type stitchRequest struct {
	// URLs to stitch in order. When empty, the caller's saved clip list is
	// used instead.
	URLs []string `json:"urls"`
	Mode string   `json:"mode"`
}

type stitchResponse struct {
	Success     bool   `json:"success"`
	ArtifactKey string `json:"artifact_key"`
	ArtifactURL string `json:"artifact_url"`
	Segments    int    `json:"segments"`
}

func (a *App) Stitch(w http.ResponseWriter, r *http.Request) {
	var req stitchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	urls := req.URLs
	if len(urls) == 0 {
		owner := middleware.CallerKeyFromContext(r.Context())
		clips, err := a.Clips.List(r.Context(), owner)
		if err != nil {
			a.Logger.Error().Err(err).Msg("handlers: load clips for stitch failed")
			a.error(w, http.StatusInternalServerError, "internal", "failed to load saved clips")
			return
		}
		for _, c := range clips {
			urls = append(urls, c.URL)
		}
	}
	if len(urls) == 0 {
		a.error(w, http.StatusBadRequest, "bad_request", "no clips to stitch")
		return
	}
	for _, u := range urls {
		if !media.IsVideoURL(u) {
			a.error(w, http.StatusBadRequest, "bad_request", "not a video url: "+u)
			return
		}
	}

	mode := a.StitchMode
	switch req.Mode {
	case string(assemble.ModeCrossfade):
		mode = assemble.ModeCrossfade
	case string(assemble.ModeSeamless):
		mode = assemble.ModeSeamless
	case "":
	default:
		a.error(w, http.StatusBadRequest, "bad_request", "unknown stitch mode")
		return
	}

	res := a.Stitcher.Assemble(r.Context(), urls, mode, uuid.NewString())
	if !res.Success {
		a.Logger.Error().Err(res.Err).Str("stage", string(res.Stage)).Msg("handlers: stitch failed")
		code := "assembly_failure"
		if res.Stage == assemble.StageFetch {
			code = "segment_fetch_failure"
		}
		a.error(w, http.StatusBadGateway, code, "failed to stitch clips")
		return
	}

	a.json(w, http.StatusOK, stitchResponse{
		Success:     true,
		ArtifactKey: res.OutputKey,
		ArtifactURL: "/api/artifacts/" + res.OutputKey,
		Segments:    len(res.SegmentPaths),
	})
}
