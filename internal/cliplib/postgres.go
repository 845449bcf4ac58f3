package cliplib

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"clipforge/internal/infra"
)

const (
	queryInsertClip = `INSERT INTO clips (id, owner, url, label, added_at) VALUES ($1, $2, $3, $4, $5)`
	queryListClips  = `SELECT id, url, label, added_at FROM clips WHERE owner = $1 ORDER BY added_at, id`
	queryDeleteClip = `DELETE FROM clips WHERE owner = $1 AND id = $2`
	queryClearClips = `DELETE FROM clips WHERE owner = $1`
)

// PostgresStore persists clip lists across restarts.
type PostgresStore struct {
	db infra.SQLExecutor
}

func NewPostgresStore(db infra.SQLExecutor) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Add(ctx context.Context, owner string, clip Clip) error {
	if err := ValidateURL(clip.URL); err != nil {
		return err
	}
	if clip.ID == "" {
		clip.ID = uuid.NewString()
	}
	if clip.AddedAt.IsZero() {
		clip.AddedAt = time.Now().UTC()
	}
	if _, err := s.db.Exec(ctx, queryInsertClip, clip.ID, owner, clip.URL, clip.Label, clip.AddedAt); err != nil {
		return fmt.Errorf("cliplib: insert clip: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, owner string) ([]Clip, error) {
	rows, err := s.db.Query(ctx, queryListClips, owner)
	if err != nil {
		return nil, fmt.Errorf("cliplib: list clips: %w", err)
	}
	defer rows.Close()

	var clips []Clip
	for rows.Next() {
		var c Clip
		if err := rows.Scan(&c.ID, &c.URL, &c.Label, &c.AddedAt); err != nil {
			return nil, fmt.Errorf("cliplib: scan clip: %w", err)
		}
		clips = append(clips, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("cliplib: iterate clips: %w", err)
	}
	return clips, nil
}

func (s *PostgresStore) Remove(ctx context.Context, owner, clipID string) error {
	tag, err := s.db.Exec(ctx, queryDeleteClip, owner, clipID)
	if err != nil {
		return fmt.Errorf("cliplib: delete clip: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Clear(ctx context.Context, owner string) error {
	if _, err := s.db.Exec(ctx, queryClearClips, owner); err != nil {
		return fmt.Errorf("cliplib: clear clips: %w", err)
	}
	return nil
}

var _ Store = (*PostgresStore)(nil)
