package triage

import (
	"fmt"
	"strings"
	"time"

	"github.com/vigil/triage/internal/classify"
	"github.com/vigil/triage/internal/flag"
	"github.com/vigil/triage/internal/platform"
)

// Summary is the moderator-facing presentation of a flag. It is posted to the
// moderation channel by the gateway and streamed to connected consoles; the
// embedded summary id is the correlation key moderators' reactions carry
// back.
type Summary struct {
	ID          string              `json:"summary_id"`
	Priority    string              `json:"priority"`
	Author      platform.UserRef    `json:"author"`
	Ref         platform.MessageRef `json:"ref"`
	Excerpt     string              `json:"excerpt"`
	Category    string              `json:"category,omitempty"`
	Scores      classify.Scores     `json:"scores,omitempty"`
	RecentFlags int                 `json:"recent_flags,omitempty"`
	Text        string              `json:"text"`
}

// newSummary builds the summary for a registered flag entry. recentFlags is
// the author's flag count within the last 24h window (0 when unknown).
func newSummary(entry flag.Entry, recentFlags int) *Summary {
	s := &Summary{
		ID:          entry.SummaryID,
		Priority:    entry.Priority.String(),
		Author:      entry.Author,
		Ref:         entry.Original,
		Excerpt:     entry.Excerpt,
		Category:    entry.Category,
		Scores:      entry.Scores,
		RecentFlags: recentFlags,
	}
	s.Text = s.format()
	return s
}

// format renders the moderator-channel text. High-priority summaries carry a
// visually distinguished banner and are never merged with normal ones.
func (s *Summary) format() string {
	var b strings.Builder

	if s.Priority == flag.PriorityHigh.String() {
		b.WriteString("🚨🚨🚨  HIGH PRIORITY  🚨🚨🚨\n")
		b.WriteString("POTENTIAL CHILD SOLICITATION\n\n")
	}

	b.WriteString("Suspected message:\n")
	fmt.Fprintf(&b, "Suspected abuser: %s\n", s.Author.Name)
	fmt.Fprintf(&b, "Message: %s\n", s.Ref)
	fmt.Fprintf(&b, "Content: `%s`\n", s.Excerpt)

	if s.Category != "" {
		fmt.Fprintf(&b, "Report category: `%s`\n", s.Category)
	}

	if len(s.Scores) > 0 {
		b.WriteString("Suspicion scores:\n```\n")
		for _, attr := range s.Scores.Sorted() {
			fmt.Fprintf(&b, "%s: %.2f\n", attr, s.Scores[attr])
		}
		b.WriteString("```\n")
	}

	if s.RecentFlags > 1 {
		fmt.Fprintf(&b, "Flags for this author in the last 24h: %d\n", s.RecentFlags)
	}

	b.WriteString("\nPlease use one of the following reactions:\n")
	b.WriteString(flag.SignalDelete + " Delete the reported message\n")
	b.WriteString(flag.SignalBan + " Ban the reported user\n")
	b.WriteString(flag.SignalEscalate + " Ban the reported user and escalate this incident to local authorities\n")
	b.WriteString(flag.SignalResolve + " Mark this report as resolved with no further action\n")
	b.WriteString("Any other reaction marks the report as a false positive.\n")
	fmt.Fprintf(&b, "\nref: %s", s.ID)

	return b.String()
}

// formatResolution renders the single confirmation line for a resolved flag:
// the action taken, the original author, the message reference, and when.
func formatResolution(res flag.Resolution) string {
	ts := res.ResolvedAt.Format(time.RFC3339)
	author := res.Entry.Author.Name
	ref := res.Entry.Original

	switch res.Disposition {
	case flag.DispositionDeleted:
		return fmt.Sprintf("Deleted message %s from `%s` at %s.", ref, author, ts)
	case flag.DispositionBanned:
		return fmt.Sprintf("Shadow banned `%s` for message %s at %s.", author, ref, ts)
	case flag.DispositionBannedEscalated:
		return fmt.Sprintf("Banned `%s` for message %s at %s. This incident has been escalated to local authorities.", author, ref, ts)
	case flag.DispositionResolved:
		return fmt.Sprintf("Marked the report on message %s as resolved with no further action at %s.", ref, ts)
	default:
		return fmt.Sprintf("Marked the flag on message %s from `%s` as a false positive at %s.", ref, author, ts)
	}
}
