package platform

// DirectMessage is a DM sent to the engine's bot user. The gateway publishes
// one event per inbound DM, in order per user.
type DirectMessage struct {
	From UserRef `json:"from"`
	Text string  `json:"text"`
}

// ChannelMessage is a new message posted in a monitored channel.
type ChannelMessage struct {
	Message
}

// MessageEdit is an edit to a message in a monitored channel. The payload
// carries the full edited content, not a delta.
type MessageEdit struct {
	Message
}

// DispositionReaction is a moderator's reaction-style signal on a forwarded
// summary. SummaryID is the engine-generated correlation key embedded in the
// summary post; the gateway echoes it back so the engine never has to parse
// its own formatted text.
type DispositionReaction struct {
	SummaryID string  `json:"summary_id"`
	Signal    string  `json:"signal"`
	Moderator UserRef `json:"moderator"`
}
