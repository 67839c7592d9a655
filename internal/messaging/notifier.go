package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/vigil/triage/internal/platform"
	"github.com/vigil/triage/internal/triage"
)

// DMPayload is the outbound DM envelope published on platform.send.dm.<user_id>.
type DMPayload struct {
	UserID uint64   `json:"user_id"`
	Lines  []string `json:"lines"`
}

// ModPost is the moderation-channel envelope published on mod.summary. Kind is
// "summary" for flag summaries (Summary set) and "notice" for plain text.
type ModPost struct {
	Kind    string          `json:"kind"`
	Summary *triage.Summary `json:"summary,omitempty"`
	Text    string          `json:"text,omitempty"`
}

// NATSNotifier delivers the coordinator's outbound messages over NATS. It is
// the production triage.Notifier.
type NATSNotifier struct {
	client *NATSClient
}

// NewNATSNotifier returns a notifier publishing through the given client.
func NewNATSNotifier(client *NATSClient) *NATSNotifier {
	return &NATSNotifier{client: client}
}

// SendDM publishes a DM reply for the given user.
func (n *NATSNotifier) SendDM(_ context.Context, user platform.UserRef, lines []string) error {
	data, err := json.Marshal(DMPayload{UserID: user.ID, Lines: lines})
	if err != nil {
		return fmt.Errorf("messaging: marshal dm payload: %w", err)
	}
	if err := n.client.PublishSendDM(user.ID, data); err != nil {
		return fmt.Errorf("messaging: publish dm for %d: %w", user.ID, err)
	}
	return nil
}

// PostSummary publishes a flag summary to the moderation channel.
func (n *NATSNotifier) PostSummary(_ context.Context, s *triage.Summary) error {
	data, err := json.Marshal(ModPost{Kind: "summary", Summary: s})
	if err != nil {
		return fmt.Errorf("messaging: marshal summary %s: %w", s.ID, err)
	}
	if err := n.client.PublishModSummary(data); err != nil {
		return fmt.Errorf("messaging: publish summary %s: %w", s.ID, err)
	}
	return nil
}

// PostNotice publishes a plain-text notice to the moderation channel.
func (n *NATSNotifier) PostNotice(_ context.Context, text string) error {
	data, err := json.Marshal(ModPost{Kind: "notice", Text: text})
	if err != nil {
		return fmt.Errorf("messaging: marshal notice: %w", err)
	}
	if err := n.client.PublishModSummary(data); err != nil {
		return fmt.Errorf("messaging: publish notice: %w", err)
	}
	return nil
}
