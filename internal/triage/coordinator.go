// Package triage orchestrates the moderation workflow. The coordinator
// routes inbound platform events to per-user report sessions or to automated
// scoring, decides when a score crosses threshold, formats moderator-facing
// summaries, and interprets disposition signals against the flag registry.
package triage

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/vigil/triage/internal/audit"
	"github.com/vigil/triage/internal/block"
	"github.com/vigil/triage/internal/classify"
	"github.com/vigil/triage/internal/flag"
	"github.com/vigil/triage/internal/metrics"
	"github.com/vigil/triage/internal/platform"
	"github.com/vigil/triage/internal/ratelimit"
	"github.com/vigil/triage/internal/report"
)

// Config holds the flagging thresholds and the classification call deadline.
type Config struct {
	// ToxicityThreshold flags a message when any score except flirtation
	// exceeds it.
	ToxicityThreshold float64
	// FlirtationThreshold flags a message when the flirtation score exceeds
	// it.
	FlirtationThreshold float64
	// ClassifyTimeout bounds a single classification call.
	ClassifyTimeout time.Duration
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		ToxicityThreshold:   0.5,
		FlirtationThreshold: 0.7,
		ClassifyTimeout:     classify.DefaultTimeout,
	}
}

// Notifier delivers the coordinator's outbound messages: DM replies to
// reporters, flag summaries and notices to the moderation channel. The NATS
// publisher is the production implementation.
type Notifier interface {
	SendDM(ctx context.Context, user platform.UserRef, lines []string) error
	PostSummary(ctx context.Context, s *Summary) error
	PostNotice(ctx context.Context, text string) error
}

// Deps bundles the coordinator's collaborators. Blocks, Audit and Limiter are
// optional: a nil store disables that concern (used in tests and when the
// backing service is not configured).
type Deps struct {
	Sessions  *report.Sessions
	Registry  *flag.Registry
	Evaluator classify.Evaluator
	Resolver  platform.Resolver
	Notifier  Notifier
	Blocks    *block.Store
	Audit     *audit.Store
	Limiter   *ratelimit.Limiter
}

// Coordinator is the top-level orchestrator. Its methods are safe to call
// concurrently for independent keys (different reporters, different flags);
// the transport serializes events within a key.
type Coordinator struct {
	config    Config
	sessions  *report.Sessions
	registry  *flag.Registry
	evaluator classify.Evaluator
	resolver  platform.Resolver
	notifier  Notifier
	blocks    *block.Store
	audit     *audit.Store
	limiter   *ratelimit.Limiter
}

// NewCoordinator wires a coordinator from its dependencies.
func NewCoordinator(config Config, deps Deps) *Coordinator {
	return &Coordinator{
		config:    config,
		sessions:  deps.Sessions,
		registry:  deps.Registry,
		evaluator: deps.Evaluator,
		resolver:  deps.Resolver,
		notifier:  deps.Notifier,
		blocks:    deps.Blocks,
		audit:     deps.Audit,
		limiter:   deps.Limiter,
	}
}

// OnDirectMessage handles one DM addressed to the engine's bot user. DMs
// outside a reporting flow are ignored unless they start one.
func (c *Coordinator) OnDirectMessage(ctx context.Context, ev platform.DirectMessage) error {
	if ev.Text == report.HelpKeyword {
		return c.notifier.SendDM(ctx, ev.From, []string{report.HelpText})
	}

	userKey := strconv.FormatUint(ev.From.ID, 10)

	sess, active := c.sessions.Get(ev.From.ID)
	if !active {
		if !strings.HasPrefix(ev.Text, report.StartKeyword) {
			return nil // not part of a reporting flow
		}
		if c.limiter != nil {
			allowed, _ := c.limiter.Allow(ctx, userKey, ratelimit.RuleReport)
			if !allowed {
				return c.notifier.SendDM(ctx, ev.From, []string{
					"You have opened too many reports recently. Please try again later.",
				})
			}
		}
		sess, _ = c.sessions.GetOrCreate(ev.From, c.resolver)
		metrics.ActiveSessions.Inc()
	} else if c.limiter != nil {
		allowed, _ := c.limiter.Allow(ctx, userKey, ratelimit.RuleDM)
		if !allowed {
			return c.notifier.SendDM(ctx, ev.From, []string{
				"You're sending messages too quickly. Please slow down.",
			})
		}
	}

	replies := sess.Handle(ctx, ev.Text)
	if len(replies) > 0 {
		if err := c.notifier.SendDM(ctx, ev.From, replies); err != nil {
			log.Printf("[triage] send DM to %d failed: %v", ev.From.ID, err)
		}
	}

	return c.afterHandle(ctx, sess)
}

// afterHandle polls the session's outcome predicates after each Handle call
// and performs the coordinator-side effects: blocks, flag registration,
// moderator summaries, and session retirement.
func (c *Coordinator) afterHandle(ctx context.Context, sess *report.Session) error {
	switch {
	case sess.ChildSolicitation():
		if !sess.TakeModeratorNotice() {
			return nil
		}
		// Priority escalation: never merged with a normal submission.
		c.applyBlock(ctx, sess)
		summary := c.raiseReportFlag(sess, flag.PriorityHigh)
		if err := c.notifier.PostSummary(ctx, summary); err != nil {
			return fmt.Errorf("triage: post high-priority summary: %w", err)
		}

	case sess.Submitted():
		if !sess.TakeModeratorNotice() {
			return nil
		}
		summary := c.raiseReportFlag(sess, flag.PriorityNormal)
		err := c.notifier.PostSummary(ctx, summary)
		c.retire(sess, "submitted")
		if err != nil {
			return fmt.Errorf("triage: post summary: %w", err)
		}

	case sess.Complete():
		outcome := "cancelled"
		if sess.BlockRequested() && sess.Reported() != nil {
			c.applyBlock(ctx, sess)
			outcome = "blocked"
		}
		c.retire(sess, outcome)
	}

	return nil
}

// applyBlock records the reporter-scoped block. Failures are logged; a Redis
// outage must not stall the dialogue.
func (c *Coordinator) applyBlock(ctx context.Context, sess *report.Session) {
	if c.blocks == nil || sess.Reported() == nil {
		return
	}
	source := block.SourceBlockChoice
	if sess.Minor() == report.MinorYes {
		source = block.SourceMinorSafety
	}
	reporter := sess.Reporter().ID
	target := sess.Reported().Author.ID
	if err := c.blocks.Block(ctx, reporter, target, source); err != nil {
		log.Printf("[triage] block %d -> %d failed: %v", reporter, target, err)
	}
}

// raiseReportFlag registers a flag entry for the session's reported message
// and returns its summary.
func (c *Coordinator) raiseReportFlag(sess *report.Session, priority flag.Priority) *Summary {
	msg := sess.Reported()
	entry := flag.Entry{
		Original: msg.Ref,
		Author:   msg.Author,
		Excerpt:  msg.Text,
		Category: sess.Category().String(),
		Priority: priority,
	}
	entry.SummaryID = c.registry.Register(entry)
	metrics.FlagsRaised.WithLabelValues(priority.String(), "report").Inc()
	return newSummary(entry, 0)
}

// retire removes the session from the active set and records its outcome.
func (c *Coordinator) retire(sess *report.Session, outcome string) {
	c.sessions.Remove(sess.Reporter().ID)
	metrics.ActiveSessions.Dec()
	metrics.SessionOutcomes.WithLabelValues(outcome).Inc()
}

// OnChannelMessage scores a monitored-channel message and, when a threshold
// is crossed, registers a flag and posts a moderator summary. Classification
// failures fail open: the message is treated as not flagged and the failure
// never surfaces to end users. No registry entry exists while the (slow)
// classification call is in flight.
func (c *Coordinator) OnChannelMessage(ctx context.Context, msg platform.Message) (*Summary, error) {
	cctx, cancel := context.WithTimeout(ctx, c.config.ClassifyTimeout)
	defer cancel()

	start := time.Now()
	scores, err := c.evaluator.Evaluate(cctx, msg.Text)
	metrics.ClassifyLatency.Observe(time.Since(start).Seconds())
	metrics.MessagesScored.Inc()
	if err != nil {
		metrics.ClassifyFailures.Inc()
		log.Printf("[triage] classify failed for %s: %v (failing open)", msg.Ref, err)
		return nil, nil
	}

	flagged := scores.MaxExcluding(classify.Flirtation) > c.config.ToxicityThreshold ||
		scores[classify.Flirtation] > c.config.FlirtationThreshold
	if !flagged {
		return nil, nil
	}

	recent := 0
	if c.blocks != nil {
		if n, err := c.blocks.NoteFlag(ctx, msg.Author.ID); err != nil {
			log.Printf("[triage] flag counter for author %d: %v", msg.Author.ID, err)
		} else {
			recent = n
		}
	}

	entry := flag.Entry{
		Original: msg.Ref,
		Author:   msg.Author,
		Excerpt:  msg.Text,
		Priority: flag.PriorityNormal,
		Scores:   scores,
	}
	entry.SummaryID = c.registry.Register(entry)
	metrics.FlagsRaised.WithLabelValues(flag.PriorityNormal.String(), "auto").Inc()

	summary := newSummary(entry, recent)
	if err := c.notifier.PostSummary(ctx, summary); err != nil {
		return summary, fmt.Errorf("triage: post summary: %w", err)
	}
	return summary, nil
}

// OnMessageEdit re-runs the scoring decision on the edited content, through
// the exact same path as a newly posted message.
func (c *Coordinator) OnMessageEdit(ctx context.Context, msg platform.Message) (*Summary, error) {
	return c.OnChannelMessage(ctx, msg)
}

// OnDispositionReaction routes a moderator's reaction on a forwarded summary
// to its disposition. A reaction on an already-resolved summary is an
// expected race, answered with an informational notice.
func (c *Coordinator) OnDispositionReaction(ctx context.Context, ev platform.DispositionReaction) error {
	res, ok := c.registry.Resolve(ev.SummaryID, ev.Signal)
	if !ok {
		metrics.AlreadyHandled.Inc()
		log.Printf("[triage] summary %s already handled (signal %q from %s)",
			ev.SummaryID, ev.Signal, ev.Moderator.Name)
		return c.notifier.PostNotice(ctx, "This report has already been handled.")
	}

	metrics.Dispositions.WithLabelValues(res.Disposition.String()).Inc()
	log.Printf("[triage] summary %s resolved as %s by %s",
		ev.SummaryID, res.Disposition, ev.Moderator.Name)

	if c.audit != nil {
		rec := &audit.Record{
			SummaryID:     res.Entry.SummaryID,
			Guild:         res.Entry.Original.Guild,
			Channel:       res.Entry.Original.Channel,
			Message:       res.Entry.Original.Message,
			AuthorID:      res.Entry.Author.ID,
			AuthorName:    res.Entry.Author.Name,
			Excerpt:       res.Entry.Excerpt,
			Category:      res.Entry.Category,
			Priority:      res.Entry.Priority.String(),
			Disposition:   res.Disposition.String(),
			ModeratorID:   ev.Moderator.ID,
			ModeratorName: ev.Moderator.Name,
			Scores:        res.Entry.Scores,
			ResolvedAt:    res.ResolvedAt,
		}
		if err := c.audit.Create(ctx, rec); err != nil {
			log.Printf("[triage] audit write for %s failed: %v", ev.SummaryID, err)
		}
	}

	return c.notifier.PostNotice(ctx, formatResolution(res))
}
