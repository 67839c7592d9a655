// Package audit provides PostgreSQL-backed storage for moderator
// dispositions. Each row captures which flag was resolved, how, by whom, and
// the score breakdown that triggered it (for score-driven flags). The audit
// trail is best-effort: the in-memory registry is the source of truth for
// at-most-once resolution, and a write failure never blocks a moderator.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/vigil/triage/internal/classify"
)

// Store manages disposition audit rows in PostgreSQL.
type Store struct {
	db *sql.DB
}

// Record is a single resolved flag to be persisted.
type Record struct {
	SummaryID     string
	Guild         uint64
	Channel       uint64
	Message       uint64
	AuthorID      uint64
	AuthorName    string
	Excerpt       string
	Category      string
	Priority      string
	Disposition   string
	ModeratorID   uint64
	ModeratorName string
	Scores        classify.Scores // marshalled to JSONB; may be nil
	ResolvedAt    time.Time
}

// NewStore creates an audit store backed by the given database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Create inserts a disposition row. Scores are marshalled to JSONB when
// present.
func (s *Store) Create(ctx context.Context, rec *Record) error {
	var scoresJSON []byte
	if len(rec.Scores) > 0 {
		var err error
		scoresJSON, err = json.Marshal(rec.Scores)
		if err != nil {
			return fmt.Errorf("audit: marshal scores: %w", err)
		}
	}

	const query = `
		INSERT INTO disposition_audit
			(summary_id, guild_id, channel_id, message_id,
			 author_id, author_name, excerpt, category, priority,
			 disposition, moderator_id, moderator_name, scores, resolved_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := s.db.ExecContext(ctx, query,
		rec.SummaryID,
		rec.Guild,
		rec.Channel,
		rec.Message,
		rec.AuthorID,
		rec.AuthorName,
		rec.Excerpt,
		rec.Category,
		rec.Priority,
		rec.Disposition,
		rec.ModeratorID,
		rec.ModeratorName,
		scoresJSON,
		rec.ResolvedAt,
	)
	if err != nil {
		return fmt.Errorf("audit: insert: %w", err)
	}
	return nil
}

// CountRecent returns the number of dispositions recorded against an author
// within the given time window. Useful for repeat-offender review.
func (s *Store) CountRecent(ctx context.Context, authorID uint64, window time.Duration) (int, error) {
	const query = `
		SELECT COUNT(*)
		FROM disposition_audit
		WHERE author_id = $1
		  AND resolved_at >= NOW() - $2::interval`

	var count int
	err := s.db.QueryRowContext(ctx, query, authorID, window.String()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("audit: count recent: %w", err)
	}
	return count, nil
}
