package handlers

import (
	"io"
	"net/http"

	"clipforge/internal/media"
)

// ProxyVideo streams a remote provider video through this origin so browsers
// can play clips whose CDN does not send CORS headers. Only URLs that look
// like video files are proxied.
func (a *App) ProxyVideo(w http.ResponseWriter, r *http.Request) {
	rawURL := r.URL.Query().Get("url")
	if rawURL == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "url query parameter required")
		return
	}
	if !media.IsVideoURL(rawURL) {
		a.error(w, http.StatusBadRequest, "bad_request", "not a video url")
		return
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, rawURL, nil)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid url")
		return
	}
	if rng := r.Header.Get("Range"); rng != "" {
		req.Header.Set("Range", rng)
	}

	client := a.ProxyClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		a.Logger.Warn().Err(err).Msg("handlers: proxy fetch failed")
		a.error(w, http.StatusBadGateway, "upstream_error", "failed to fetch the video")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		a.error(w, http.StatusBadGateway, "upstream_error", "upstream returned "+resp.Status)
		return
	}

	for _, h := range []string{"Content-Type", "Content-Length", "Content-Range", "Accept-Ranges"} {
		if v := resp.Header.Get(h); v != "" {
			w.Header().Set(h, v)
		}
	}
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "video/mp4")
	}
	w.WriteHeader(resp.StatusCode)
	_, _ = io.Copy(w, resp.Body)
}
