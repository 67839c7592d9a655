// Package block provides Redis-backed block records and per-author flag
// counters.
//
//	Key:   block:<reporter>:<target>   Value: <source>   (no expiry)
//	Key:   flagged:<author>            Value: <count>    TTL: 24h
//
// Blocks are reporter-scoped: a block prevents the target from contacting
// the reporter, it is not a platform-wide ban. Redis failures are surfaced
// to callers, whose policy is fail-open — a Redis outage must never stall
// the reporting dialogue.
package block

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// BlockPrefix is the Redis key prefix for block records.
	BlockPrefix = "block:"

	// FlaggedPrefix is the Redis key prefix for per-author flag counters.
	FlaggedPrefix = "flagged:"

	// FlagWindow is how long the per-author flag counter lives. After 24h
	// without new flags the counter resets to zero.
	FlagWindow = 24 * time.Hour
)

// Block sources, stored as the record value for moderator context.
const (
	SourceBlockChoice = "reporter_choice"
	SourceMinorSafety = "minor_safety"
)

// Store manages block records and flag counters in Redis.
type Store struct {
	client *redis.Client
}

// NewStore creates a block store using the provided Redis client.
func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

func blockKey(reporterID, targetID uint64) string {
	return fmt.Sprintf("%s%d:%d", BlockPrefix, reporterID, targetID)
}

// Block records that target may no longer contact reporter. The source tags
// why the block was applied. Blocks do not expire.
func (s *Store) Block(ctx context.Context, reporterID, targetID uint64, source string) error {
	return s.client.Set(ctx, blockKey(reporterID, targetID), source, 0).Err()
}

// IsBlocked checks whether target is blocked from contacting reporter.
// Returns the block source when blocked.
func (s *Store) IsBlocked(ctx context.Context, reporterID, targetID uint64) (bool, string, error) {
	source, err := s.client.Get(ctx, blockKey(reporterID, targetID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, "", nil
	}
	if err != nil {
		return false, "", err
	}
	return true, source, nil
}

// Unblock removes a block record immediately.
func (s *Store) Unblock(ctx context.Context, reporterID, targetID uint64) error {
	return s.client.Del(ctx, blockKey(reporterID, targetID)).Err()
}

// NoteFlag increments the author's flag counter and returns the count within
// the current 24h window, so summaries can show repeat-offender context.
// The TTL is set only on the first increment so the window doesn't slide.
func (s *Store) NoteFlag(ctx context.Context, authorID uint64) (int, error) {
	key := fmt.Sprintf("%s%d", FlaggedPrefix, authorID)

	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("block: note flag incr: %w", err)
	}

	if count == 1 {
		if err := s.client.Expire(ctx, key, FlagWindow).Err(); err != nil {
			return int(count), fmt.Errorf("block: note flag expire: %w", err)
		}
	}

	return int(count), nil
}
