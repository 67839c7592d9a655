package flag

import (
	"sync"
	"testing"

	"github.com/vigil/triage/internal/platform"
)

func testEntry() Entry {
	return Entry{
		Original: platform.MessageRef{Guild: 1, Channel: 2, Message: 3},
		Author:   platform.UserRef{ID: 42, Name: "mallory"},
		Excerpt:  "flagged text",
		Priority: PriorityNormal,
	}
}

func TestSignalDisposition_Total(t *testing.T) {
	tests := []struct {
		signal string
		want   Disposition
	}{
		{SignalDelete, DispositionDeleted},
		{SignalBan, DispositionBanned},
		{SignalEscalate, DispositionBannedEscalated},
		{SignalResolve, DispositionResolved},
		{"🎉", DispositionFalsePositive},
		{"anything", DispositionFalsePositive},
		{"", DispositionFalsePositive},
	}

	for _, tt := range tests {
		if got := SignalDisposition(tt.signal); got != tt.want {
			t.Errorf("SignalDisposition(%q) = %v, want %v", tt.signal, got, tt.want)
		}
	}
}

func TestRegistry_RegisterAssignsID(t *testing.T) {
	r := NewRegistry()

	id := r.Register(testEntry())
	if id == "" {
		t.Fatal("Register returned empty id")
	}
	if r.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", r.Len())
	}

	id2 := r.Register(testEntry())
	if id2 == id {
		t.Error("two registrations produced the same id")
	}
}

func TestRegistry_RegisterKeepsExplicitID(t *testing.T) {
	r := NewRegistry()
	e := testEntry()
	e.SummaryID = "fixed-id"
	if got := r.Register(e); got != "fixed-id" {
		t.Errorf("Register returned %q, want fixed-id", got)
	}
}

func TestRegistry_ResolveOnce(t *testing.T) {
	r := NewRegistry()
	id := r.Register(testEntry())

	res, ok := r.Resolve(id, SignalBan)
	if !ok {
		t.Fatal("first Resolve returned ok=false")
	}
	if res.Disposition != DispositionBanned {
		t.Errorf("disposition = %v, want banned", res.Disposition)
	}
	if res.Entry.Author.Name != "mallory" {
		t.Errorf("entry author = %q", res.Entry.Author.Name)
	}
	if res.ResolvedAt.IsZero() {
		t.Error("ResolvedAt not stamped")
	}
	if res.Entry.CreatedAt.IsZero() {
		t.Error("CreatedAt not stamped at registration")
	}

	// Second resolution of the same key is the already-handled no-op.
	if _, ok := r.Resolve(id, SignalDelete); ok {
		t.Fatal("second Resolve returned ok=true, want already-handled")
	}
	if r.Len() != 0 {
		t.Errorf("Len() = %d after resolution, want 0", r.Len())
	}
}

func TestRegistry_ResolveUnknown(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.Resolve("never-registered", SignalResolve); ok {
		t.Fatal("Resolve of unknown id returned ok=true")
	}
}

func TestRegistry_UnknownSignalIsFalsePositive(t *testing.T) {
	r := NewRegistry()
	id := r.Register(testEntry())

	res, ok := r.Resolve(id, "🤷")
	if !ok {
		t.Fatal("Resolve returned ok=false")
	}
	if res.Disposition != DispositionFalsePositive {
		t.Errorf("disposition = %v, want false_positive", res.Disposition)
	}
}

func TestRegistry_ConcurrentResolveIsAtMostOnce(t *testing.T) {
	r := NewRegistry()
	id := r.Register(testEntry())

	const racers = 16
	var wg sync.WaitGroup
	resolved := make(chan Resolution, racers)

	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if res, ok := r.Resolve(id, SignalDelete); ok {
				resolved <- res
			}
		}()
	}
	wg.Wait()
	close(resolved)

	count := 0
	for range resolved {
		count++
	}
	if count != 1 {
		t.Fatalf("%d goroutines resolved the entry, want exactly 1", count)
	}
}
