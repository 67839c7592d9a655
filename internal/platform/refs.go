// Package platform defines the shared vocabulary between the triage engine
// and the chat-platform gateway: message and user references, the inbound
// event payloads published over NATS, and the resolver used to look up
// reported messages. The engine never owns a platform connection — the
// gateway delivers events and consumes the engine's outbound messages.
package platform

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// MessageRef identifies a message on the platform by the guild/channel/message
// id triple that appears in a shareable message link.
type MessageRef struct {
	Guild   uint64 `json:"guild"`
	Channel uint64 `json:"channel"`
	Message uint64 `json:"message"`
}

// IsZero reports whether the reference is unset.
func (r MessageRef) IsZero() bool {
	return r == MessageRef{}
}

// String renders the reference in link form, e.g. "123/456/789".
func (r MessageRef) String() string {
	return fmt.Sprintf("%d/%d/%d", r.Guild, r.Channel, r.Message)
}

// UserRef identifies a platform user.
type UserRef struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

// Message is a resolved platform message.
type Message struct {
	Ref    MessageRef `json:"ref"`
	Author UserRef    `json:"author"`
	Text   string     `json:"text"`
}

// linkPattern matches the three slash-separated numeric groups of a message
// link: /<guild>/<channel>/<message>.
var linkPattern = regexp.MustCompile(`/(\d+)/(\d+)/(\d+)`)

// ParseMessageLink extracts a MessageRef from free text containing a message
// link. It returns false if no link-shaped pattern is present.
func ParseMessageLink(s string) (MessageRef, bool) {
	m := linkPattern.FindStringSubmatch(s)
	if m == nil {
		return MessageRef{}, false
	}
	guild, err1 := strconv.ParseUint(m[1], 10, 64)
	channel, err2 := strconv.ParseUint(m[2], 10, 64)
	message, err3 := strconv.ParseUint(m[3], 10, 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return MessageRef{}, false
	}
	return MessageRef{Guild: guild, Channel: channel, Message: message}, true
}

// Lookup failures are distinguished so the reporting dialogue can tell the
// user exactly which part of the link could not be resolved.
var (
	ErrGuildNotFound   = errors.New("platform: guild not found")
	ErrChannelNotFound = errors.New("platform: channel not found")
	ErrMessageNotFound = errors.New("platform: message not found")
)

// Resolver looks up a message on the platform. Implementations are provided
// by the gateway; lookups may hit the network and must honor ctx.
type Resolver interface {
	ResolveMessage(ctx context.Context, ref MessageRef) (*Message, error)
}
