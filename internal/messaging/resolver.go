package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/vigil/triage/internal/platform"
)

// SubjectLookup is the request/reply subject the gateway serves for message
// lookups during a reporting dialogue.
const SubjectLookup = "platform.lookup"

// Lookup reply status values.
const (
	lookupOK              = "ok"
	lookupGuildNotFound   = "guild_not_found"
	lookupChannelNotFound = "channel_not_found"
	lookupMessageNotFound = "message_not_found"
)

type lookupRequest struct {
	Guild   uint64 `json:"guild_id"`
	Channel uint64 `json:"channel_id"`
	Message uint64 `json:"message_id"`
}

type lookupReply struct {
	Status  string            `json:"status"`
	Message *platform.Message `json:"message,omitempty"`
}

// NATSResolver resolves message references through the gateway over NATS
// request/reply. It is the production platform.Resolver.
type NATSResolver struct {
	client *NATSClient
}

// NewNATSResolver returns a resolver requesting through the given client.
func NewNATSResolver(client *NATSClient) *NATSResolver {
	return &NATSResolver{client: client}
}

// ResolveMessage asks the gateway for the message behind ref. Lookup failures
// map onto the platform sentinel errors so the report dialogue can tell the
// reporter exactly which part of the link was wrong.
func (r *NATSResolver) ResolveMessage(ctx context.Context, ref platform.MessageRef) (*platform.Message, error) {
	data, err := json.Marshal(lookupRequest{Guild: ref.Guild, Channel: ref.Channel, Message: ref.Message})
	if err != nil {
		return nil, fmt.Errorf("messaging: marshal lookup for %s: %w", ref, err)
	}

	msg, err := r.client.conn.RequestWithContext(ctx, SubjectLookup, data)
	if err != nil {
		return nil, fmt.Errorf("messaging: lookup %s: %w", ref, err)
	}

	var reply lookupReply
	if err := json.Unmarshal(msg.Data, &reply); err != nil {
		return nil, fmt.Errorf("messaging: decode lookup reply for %s: %w", ref, err)
	}

	switch reply.Status {
	case lookupOK:
		if reply.Message == nil {
			return nil, fmt.Errorf("messaging: lookup %s: ok reply without message", ref)
		}
		return reply.Message, nil
	case lookupGuildNotFound:
		return nil, platform.ErrGuildNotFound
	case lookupChannelNotFound:
		return nil, platform.ErrChannelNotFound
	case lookupMessageNotFound:
		return nil, platform.ErrMessageNotFound
	default:
		return nil, fmt.Errorf("messaging: lookup %s: unexpected status %q", ref, reply.Status)
	}
}
