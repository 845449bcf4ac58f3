package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"clipforge/internal/generate"
	"clipforge/internal/middleware"
	"clipforge/internal/providers/prompt"
)

const maxAudioUploadBytes = 25 << 20

type generateRequest struct {
	Prompt          string `json:"prompt"`
	DurationSeconds int    `json:"duration_seconds"`
	Quality         string `json:"quality"`
	Style           string `json:"style"`
	Paired          bool   `json:"paired"`
}

type generateResponse struct {
	Success       bool              `json:"success"`
	ArtifactKey   string            `json:"artifact_key,omitempty"`
	ArtifactURL   string            `json:"artifact_url,omitempty"`
	Segments      []segmentResponse `json:"segments,omitempty"`
	TotalDuration int               `json:"total_duration_seconds,omitempty"`
	Transcript    string            `json:"transcript,omitempty"`
}

type segmentResponse struct {
	Prompt          string `json:"prompt"`
	DurationSeconds int    `json:"duration_seconds"`
	MediaURL        string `json:"media_url"`
	JobID           string `json:"job_id"`
}

func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "prompt is required")
		return
	}
	a.runGeneration(w, r, req, "")
}

// SpeechToVideo transcribes an uploaded audio clip and generates a video from
// the recognized text.
func (a *App) SpeechToVideo(w http.ResponseWriter, r *http.Request) {
	if a.Transcriber == nil {
		a.error(w, http.StatusServiceUnavailable, "unavailable", "transcription is not configured")
		return
	}
	if err := r.ParseMultipartForm(maxAudioUploadBytes); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid multipart upload")
		return
	}
	file, header, err := r.FormFile("audio")
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "audio file is required")
		return
	}
	defer file.Close()

	transcript, err := a.Transcriber.Transcribe(r.Context(), header.Filename, file)
	if err != nil {
		a.Logger.Error().Err(err).Msg("handlers: transcription failed")
		a.error(w, http.StatusBadGateway, "transcription_failed", "could not transcribe the audio")
		return
	}

	req := generateRequest{
		Prompt:          transcript,
		DurationSeconds: parseFormInt(r.FormValue("duration_seconds")),
		Quality:         r.FormValue("quality"),
		Style:           r.FormValue("style"),
		Paired:          r.FormValue("paired") == "true",
	}
	a.runGeneration(w, r, req, transcript)
}

func (a *App) runGeneration(w http.ResponseWriter, r *http.Request, req generateRequest, transcript string) {
	params := generate.Params{
		Prompt:          prompt.ApplyStyle(req.Prompt, req.Style),
		DurationSeconds: req.DurationSeconds,
		Quality:         parseQuality(req.Quality),
		CallerKey:       middleware.CallerKeyFromContext(r.Context()),
	}

	var res generate.Result
	if req.Paired {
		res = a.Generator.GeneratePairedAd(r.Context(), params)
	} else {
		res = a.Generator.Generate(r.Context(), params)
	}
	if !res.Success {
		a.generationError(w, res.Failure)
		return
	}

	resp := generateResponse{
		Success:       true,
		ArtifactKey:   res.ArtifactKey,
		ArtifactURL:   "/api/artifacts/" + res.ArtifactKey,
		TotalDuration: res.TotalDuration,
		Transcript:    transcript,
	}
	for _, seg := range res.Segments {
		resp.Segments = append(resp.Segments, segmentResponse{
			Prompt:          seg.Scene.Prompt,
			DurationSeconds: seg.Scene.DurationSeconds,
			MediaURL:        seg.MediaURL,
			JobID:           seg.Job.ID,
		})
	}
	a.json(w, http.StatusOK, resp)
}

func (a *App) generationError(w http.ResponseWriter, f *generate.Failure) {
	status := http.StatusBadGateway
	switch f.Kind {
	case generate.KindQuotaExceeded:
		status = http.StatusTooManyRequests
	case generate.KindSubmissionRejected:
		status = http.StatusUnprocessableEntity
	case generate.KindTransientProvider:
		status = http.StatusServiceUnavailable
	case generate.KindPollTimeout:
		status = http.StatusGatewayTimeout
	}
	a.error(w, status, string(f.Kind), f.Detail)
}

func parseQuality(s string) generate.Quality {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return generate.QualityHigh
	case "medium":
		return generate.QualityMedium
	default:
		return ""
	}
}

func parseFormInt(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
