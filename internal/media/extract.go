// Package media inspects provider responses for playable video assets.
package media

import (
	"net/url"
	"path"
	"strings"

	"clipforge/internal/jsonval"
)

// videoExtensions lists the container extensions accepted as playable media.
var videoExtensions = map[string]bool{
	".mp4":  true,
	".webm": true,
}

// ExtractVideoURL walks an arbitrary provider response in document order and
// returns the first absolute URL whose path ends in a recognized video
// container extension. Providers routinely embed their own status-polling
// URLs next to the asset URL, so anything without a media extension is
// rejected, query strings ignored.
func ExtractVideoURL(v jsonval.Value) (string, bool) {
	var found string
	v.Walk(func(node jsonval.Value) bool {
		s, ok := node.Str()
		if !ok || !isAbsoluteURL(s) {
			return true
		}
		if IsVideoURL(s) {
			found = s
			return false
		}
		return true
	})
	return found, found != ""
}

// IsVideoURL reports whether raw points at a direct media asset.
func IsVideoURL(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	ext := strings.ToLower(path.Ext(parsed.Path))
	return videoExtensions[ext]
}

func isAbsoluteURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
