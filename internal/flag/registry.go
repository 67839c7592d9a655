// Package flag tracks flagged items awaiting moderator disposition. Each
// entry correlates the original flagged message with the summary posted into
// the moderation channel, keyed by an engine-generated summary id so that a
// moderator's reaction can be routed back without parsing formatted text.
// Resolution is at-most-once per entry.
package flag

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vigil/triage/internal/classify"
	"github.com/vigil/triage/internal/platform"
)

// Priority orders flags for moderator attention. High priority is set
// exclusively by the child-solicitation escalation path.
type Priority int

const (
	PriorityNormal Priority = iota
	PriorityHigh
)

func (p Priority) String() string {
	if p == PriorityHigh {
		return "high"
	}
	return "normal"
}

// Disposition is the terminal moderator decision on a flag.
type Disposition int

const (
	DispositionPending Disposition = iota
	DispositionDeleted
	DispositionBanned
	DispositionBannedEscalated
	DispositionResolved
	DispositionFalsePositive
)

func (d Disposition) String() string {
	switch d {
	case DispositionPending:
		return "pending"
	case DispositionDeleted:
		return "deleted"
	case DispositionBanned:
		return "banned"
	case DispositionBannedEscalated:
		return "banned_escalated"
	case DispositionResolved:
		return "resolved"
	case DispositionFalsePositive:
		return "false_positive"
	default:
		return "unknown"
	}
}

// Stable disposition-signal identifiers, shared between the summary legend
// and resolution. Any signal outside this set is the false-positive
// catch-all — moderator action is never dropped for an unknown signal.
const (
	SignalDelete   = "💩"
	SignalBan      = "🚷"
	SignalEscalate = "🚓"
	SignalResolve  = "☑️"
)

// SignalDisposition maps a disposition signal to its disposition. The mapping
// is total: unrecognized signals resolve to DispositionFalsePositive.
func SignalDisposition(signal string) Disposition {
	switch signal {
	case SignalDelete:
		return DispositionDeleted
	case SignalBan:
		return DispositionBanned
	case SignalEscalate:
		return DispositionBannedEscalated
	case SignalResolve:
		return DispositionResolved
	default:
		return DispositionFalsePositive
	}
}

// Entry is one flagged item awaiting disposition.
type Entry struct {
	// SummaryID is the correlation key embedded in the forwarded summary.
	SummaryID string
	// Original is the flagged message in the monitored channel, or the
	// message identified by a completed report.
	Original platform.MessageRef
	Author   platform.UserRef
	Excerpt  string
	// Category is set on report-driven flags, empty on score-driven ones.
	Category string
	Priority Priority
	// Scores is set on score-driven flags, nil on report-driven ones.
	Scores    classify.Scores
	CreatedAt time.Time
}

// Resolution is the outcome of resolving an entry.
type Resolution struct {
	Entry       Entry
	Disposition Disposition
	ResolvedAt  time.Time
}

// Registry holds pending entries in memory, keyed by summary id.
// It is goroutine-safe.
type Registry struct {
	mu      sync.Mutex
	entries map[string]Entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Entry)}
}

// Register stores an entry and returns its summary id, generating one if the
// entry does not carry an id yet. CreatedAt is stamped if unset.
func (r *Registry) Register(entry Entry) string {
	if entry.SummaryID == "" {
		entry.SummaryID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	r.mu.Lock()
	r.entries[entry.SummaryID] = entry
	r.mu.Unlock()

	return entry.SummaryID
}

// Resolve atomically pops the entry for summaryID and maps the signal to its
// disposition. The second return value is false when the entry was already
// resolved (or never existed) — an expected race when two moderators react
// to the same summary, not an error.
func (r *Registry) Resolve(summaryID, signal string) (Resolution, bool) {
	r.mu.Lock()
	entry, ok := r.entries[summaryID]
	if ok {
		delete(r.entries, summaryID)
	}
	r.mu.Unlock()

	if !ok {
		return Resolution{}, false
	}

	return Resolution{
		Entry:       entry,
		Disposition: SignalDisposition(signal),
		ResolvedAt:  time.Now(),
	}, true
}

// Len returns the number of pending entries.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
