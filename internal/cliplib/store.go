// Package cliplib stores saved clip references so callers can stitch
// previously generated segments without re-rendering them.
package cliplib

import (
	"context"
	"strings"
	"time"

	"clipforge/internal/media"
)

// Clip is one saved video reference.
type Clip struct {
	ID      string    `json:"id"`
	URL     string    `json:"url"`
	Label   string    `json:"label,omitempty"`
	AddedAt time.Time `json:"added_at"`
}

// Store holds a caller's ordered clip list. Order is insertion order; stitch
// requests consume the list front to back.
type Store interface {
	Add(ctx context.Context, owner string, clip Clip) error
	List(ctx context.Context, owner string) ([]Clip, error)
	Remove(ctx context.Context, owner, clipID string) error
	Clear(ctx context.Context, owner string) error
}

// ValidateURL rejects references that could never stitch.
func ValidateURL(rawURL string) error {
	if strings.TrimSpace(rawURL) == "" {
		return ErrEmptyURL
	}
	if !media.IsVideoURL(rawURL) {
		return ErrNotVideo
	}
	return nil
}
