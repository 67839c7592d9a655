package report

import (
	"context"
	"errors"

	"github.com/vigil/triage/internal/platform"
)

// Session drives one reporting dialogue for one reporter. It is not
// goroutine-safe on its own: the coordinator serializes all DMs from a given
// user, so Handle is never called concurrently for the same session.
type Session struct {
	reporter platform.UserRef
	resolver platform.Resolver

	state          State
	reported       *platform.Message
	category       Category
	minor          MinorStatus
	blockRequested bool

	// noticePending latches when the session first reaches a state that the
	// coordinator must forward to moderators (submitted or child
	// solicitation). TakeModeratorNotice consumes it exactly once.
	noticePending bool
}

// NewSession creates a session owned by reporter. The resolver is used to
// look up the message identified by the pasted link.
func NewSession(reporter platform.UserRef, resolver platform.Resolver) *Session {
	return &Session{
		reporter: reporter,
		resolver: resolver,
		state:    StateStart,
	}
}

// Handle processes one DM from the owning reporter and returns the replies to
// send back. Unrecognized input re-prompts the pending question without
// changing state; `cancel` ends the dialogue from any non-terminal state.
func (s *Session) Handle(ctx context.Context, text string) []string {
	if s.state.Terminal() {
		return nil
	}

	if text == CancelKeyword {
		s.state = StateComplete
		return []string{replyCancelled}
	}

	switch s.state {
	case StateStart:
		s.state = StateAwaitingLink
		return []string{replyAskLink}

	case StateAwaitingLink:
		return s.handleLink(ctx, text)

	case StateAwaitingCategory:
		category, ok := ParseCategory(text)
		if !ok {
			return categoryPrompt(s.reported.Author.Name, s.reported.Text)
		}
		s.category = category
		s.state = StateAwaitingAge
		return []string{replyAskAge}

	case StateAwaitingAge:
		switch text {
		case UnderageKeyword:
			s.minor = MinorYes
			s.blockRequested = true
			s.state = StateChildSolicitation
			s.noticePending = true
			return []string{replyMinorSupport, solicitationResources}
		case OverageKeyword:
			s.minor = MinorNo
			s.state = StateAwaitingBlockChoice
			return []string{replyAskBlock}
		default:
			return []string{replyAskAge}
		}

	case StateAwaitingBlockChoice:
		switch text {
		case BlockKeyword:
			s.blockRequested = true
			s.state = StateComplete
			return []string{replyBlockedAndSubmitted}
		case NoBlockKeyword:
			s.state = StateSubmitted
			s.noticePending = true
			return []string{replySubmitted}
		default:
			return []string{replyAskBlock}
		}

	case StateChildSolicitation:
		// Replaying the resources is intentional: the reporter may need them
		// again, and the session only ends on cancel.
		return []string{solicitationResources}
	}

	return nil
}

// handleLink parses and resolves the pasted message link. Every failure mode
// keeps the session in StateAwaitingLink with a distinct corrective reply.
func (s *Session) handleLink(ctx context.Context, text string) []string {
	ref, ok := platform.ParseMessageLink(text)
	if !ok {
		return []string{replyBadLink}
	}

	msg, err := s.resolver.ResolveMessage(ctx, ref)
	switch {
	case errors.Is(err, platform.ErrGuildNotFound):
		return []string{replyGuildNotFound}
	case errors.Is(err, platform.ErrChannelNotFound):
		return []string{replyChannelNotFound}
	case errors.Is(err, platform.ErrMessageNotFound):
		return []string{replyMessageNotFound}
	case err != nil:
		return []string{replyLookupFailed}
	}

	s.reported = msg
	s.state = StateAwaitingCategory
	return categoryPrompt(msg.Author.Name, msg.Text)
}

// State returns the session's current state.
func (s *Session) State() State { return s.state }

// Reporter returns the owning user.
func (s *Session) Reporter() platform.UserRef { return s.reporter }

// Reported returns the identified message, or nil before identification.
func (s *Session) Reported() *platform.Message { return s.reported }

// Category returns the chosen abuse category (CategoryUnset until chosen).
func (s *Session) Category() Category { return s.category }

// Minor returns the age disclosure answer.
func (s *Session) Minor() MinorStatus { return s.minor }

// BlockRequested reports whether the reporter asked to block the reported
// user (explicitly, or automatically on the child-solicitation path).
func (s *Session) BlockRequested() bool { return s.blockRequested }

// Complete reports whether the dialogue finished or was cancelled.
func (s *Session) Complete() bool { return s.state == StateComplete }

// Submitted reports whether the report was queued for moderator review
// without a block.
func (s *Session) Submitted() bool { return s.state == StateSubmitted }

// ChildSolicitation reports whether the session escalated on the underage
// disclosure.
func (s *Session) ChildSolicitation() bool { return s.state == StateChildSolicitation }

// TakeModeratorNotice consumes the one-shot moderator-notification latch.
// It returns true exactly once after the session enters a state that must be
// forwarded to moderators.
func (s *Session) TakeModeratorNotice() bool {
	if !s.noticePending {
		return false
	}
	s.noticePending = false
	return true
}
