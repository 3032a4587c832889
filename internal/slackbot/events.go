// Package slackbot processes inbound Slack events: gating, generation,
// formatting and posting of replies.
package slackbot

// InboundEvent is the Slack message payload carried through the task
// queue. It is immutable once enqueued; indexes and identifiers inside
// it refer to the state of the conversation at receipt time.
type InboundEvent struct {
	Type        string `json:"type"`
	Subtype     string `json:"subtype,omitempty"`
	User        string `json:"user,omitempty"`
	BotID       string `json:"bot_id,omitempty"`
	Text        string `json:"text,omitempty"`
	Channel     string `json:"channel,omitempty"`
	ChannelType string `json:"channel_type,omitempty"`
	Team        string `json:"team,omitempty"`
	ThreadTS    string `json:"thread_ts,omitempty"`
	TS          string `json:"ts,omitempty"`
	EventTS     string `json:"event_ts,omitempty"`
}

// FromBot reports whether the event was produced by a bot. Bot events
// are never replied to; answering our own messages would loop.
func (e InboundEvent) FromBot() bool {
	return e.BotID != "" || e.Subtype == "bot_message"
}
