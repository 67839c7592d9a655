// Package messaging provides a NATS client wrapper for pub/sub messaging
// between the chat gateway and the triage engine. It handles connection
// lifecycle, subject-based subscriptions, and convenience methods for the
// platform-event and moderation-channel subjects.
package messaging

import (
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// NATS subject patterns between the gateway and the triage engine.
const (
	SubjectDirectMessage  = "platform.dm"       // gateway -> engine: DM to the bot user
	SubjectChannelMessage = "platform.message"  // gateway -> engine: monitored-channel message
	SubjectMessageEdit    = "platform.edit"     // gateway -> engine: monitored-channel edit
	SubjectReaction       = "platform.reaction" // gateway -> engine: reaction on a summary post
	SubjectSendDM         = "platform.send.dm"  // engine -> gateway: + .<user_id>
	SubjectModSummary     = "mod.summary"       // engine -> gateway: moderation-channel post
)

// NATSClient wraps the NATS connection with helper methods for pub/sub.
type NATSClient struct {
	conn *nats.Conn
	mu   sync.Mutex
	subs map[string]*nats.Subscription
}

// NATSConfig holds NATS connection settings.
type NATSConfig struct {
	URL           string        // nats://localhost:4222
	Name          string        // client name for identification
	ReconnectWait time.Duration // time between reconnect attempts
	MaxReconnects int           // max reconnect attempts (-1 for infinite)
}

// DefaultNATSConfig returns sensible defaults.
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:           "nats://localhost:4222",
		Name:          "vigil-triage",
		ReconnectWait: 2 * time.Second,
		MaxReconnects: -1, // infinite reconnects
	}
}

// NewNATSClient connects to NATS with the given config and returns a ready client.
// It returns an error if the initial connection fails.
func NewNATSClient(config NATSConfig) (*NATSClient, error) {
	opts := []nats.Option{
		nats.Name(config.Name),
		nats.ReconnectWait(config.ReconnectWait),
		nats.MaxReconnects(config.MaxReconnects),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Printf("[nats] disconnected: %v", err)
			} else {
				log.Printf("[nats] disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("[nats] reconnected to %s", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			log.Printf("[nats] connection closed")
		}),
	}

	nc, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	log.Printf("[nats] connected to %s", nc.ConnectedUrl())

	return &NATSClient{
		conn: nc,
		subs: make(map[string]*nats.Subscription),
	}, nil
}

// Publish sends data to the given NATS subject.
func (c *NATSClient) Publish(subject string, data []byte) error {
	return c.conn.Publish(subject, data)
}

// Subscribe registers a handler for the given subject and stores the
// subscription internally for later cleanup.
func (c *NATSClient) Subscribe(subject string, handler func(msg *nats.Msg)) error {
	sub, err := c.conn.Subscribe(subject, handler)
	if err != nil {
		return fmt.Errorf("nats subscribe %s: %w", subject, err)
	}

	c.mu.Lock()
	c.subs[subject] = sub
	c.mu.Unlock()

	return nil
}

// SubscribeDirectMessages subscribes to DMs addressed to the bot user.
func (c *NATSClient) SubscribeDirectMessages(handler func(data []byte)) error {
	return c.Subscribe(SubjectDirectMessage, func(msg *nats.Msg) {
		handler(msg.Data)
	})
}

// SubscribeChannelMessages subscribes to monitored-channel messages.
func (c *NATSClient) SubscribeChannelMessages(handler func(data []byte)) error {
	return c.Subscribe(SubjectChannelMessage, func(msg *nats.Msg) {
		handler(msg.Data)
	})
}

// SubscribeMessageEdits subscribes to monitored-channel message edits.
func (c *NATSClient) SubscribeMessageEdits(handler func(data []byte)) error {
	return c.Subscribe(SubjectMessageEdit, func(msg *nats.Msg) {
		handler(msg.Data)
	})
}

// SubscribeReactions subscribes to moderator reactions on summary posts.
func (c *NATSClient) SubscribeReactions(handler func(data []byte)) error {
	return c.Subscribe(SubjectReaction, func(msg *nats.Msg) {
		handler(msg.Data)
	})
}

// PublishSendDM publishes an outbound DM payload for the given user. The
// gateway instance holding that user's connection delivers it.
func (c *NATSClient) PublishSendDM(userID uint64, data []byte) error {
	return c.Publish(SubjectSendDM+"."+strconv.FormatUint(userID, 10), data)
}

// PublishModSummary publishes a payload destined for the moderation channel.
func (c *NATSClient) PublishModSummary(data []byte) error {
	return c.Publish(SubjectModSummary, data)
}

// SubscribeModSummaries subscribes to moderation-channel payloads. The console
// feed uses this to mirror the moderation channel to connected browsers.
func (c *NATSClient) SubscribeModSummaries(handler func(data []byte)) error {
	return c.Subscribe(SubjectModSummary, func(msg *nats.Msg) {
		handler(msg.Data)
	})
}

// Close drains all active subscriptions and closes the NATS connection.
func (c *NATSClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for subject, sub := range c.subs {
		if err := sub.Drain(); err != nil {
			log.Printf("[nats] drain %s: %v", subject, err)
		}
	}
	c.subs = make(map[string]*nats.Subscription)

	if err := c.conn.Drain(); err != nil {
		log.Printf("[nats] connection drain: %v", err)
	}

	log.Printf("[nats] client closed")
}
