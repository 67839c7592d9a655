package block

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
)

// newTestStore creates a Store connected to a local Redis instance and cleans
// up test keys. Tests that call this helper require a running Redis on
// localhost:6379 and are skipped otherwise.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not available: %v", err)
	}
	cleanup := func() {
		for _, pattern := range []string{BlockPrefix + "9900*", FlaggedPrefix + "9900*"} {
			iter := client.Scan(ctx, 0, pattern, 100).Iterator()
			for iter.Next(ctx) {
				client.Del(ctx, iter.Val())
			}
		}
	}
	cleanup()
	t.Cleanup(func() {
		cleanup()
		client.Close()
	})
	return NewStore(client)
}

func TestBlockAndCheck(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	blocked, _, err := store.IsBlocked(ctx, 99001, 99002)
	if err != nil {
		t.Fatalf("IsBlocked() error: %v", err)
	}
	if blocked {
		t.Fatal("expected not blocked before Block")
	}

	if err := store.Block(ctx, 99001, 99002, SourceBlockChoice); err != nil {
		t.Fatalf("Block() error: %v", err)
	}

	blocked, source, err := store.IsBlocked(ctx, 99001, 99002)
	if err != nil {
		t.Fatalf("IsBlocked() error: %v", err)
	}
	if !blocked {
		t.Fatal("expected blocked=true")
	}
	if source != SourceBlockChoice {
		t.Errorf("source = %q, want %q", source, SourceBlockChoice)
	}

	// Block is directional: the reverse pair is unaffected.
	blocked, _, err = store.IsBlocked(ctx, 99002, 99001)
	if err != nil {
		t.Fatalf("IsBlocked() error: %v", err)
	}
	if blocked {
		t.Error("reverse direction should not be blocked")
	}
}

func TestUnblock(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Block(ctx, 99003, 99004, SourceMinorSafety); err != nil {
		t.Fatalf("Block() error: %v", err)
	}
	if err := store.Unblock(ctx, 99003, 99004); err != nil {
		t.Fatalf("Unblock() error: %v", err)
	}

	blocked, _, err := store.IsBlocked(ctx, 99003, 99004)
	if err != nil {
		t.Fatalf("IsBlocked() error: %v", err)
	}
	if blocked {
		t.Fatal("still blocked after Unblock")
	}
}

func TestNoteFlag_Counts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for want := 1; want <= 3; want++ {
		got, err := store.NoteFlag(ctx, 99005)
		if err != nil {
			t.Fatalf("NoteFlag() error: %v", err)
		}
		if got != want {
			t.Errorf("NoteFlag() = %d, want %d", got, want)
		}
	}
}
