package models

import "strings"

// InteractiveReply is a structured button or list selection. The ID is the
// stable option identifier; Title is the human label the user tapped.
type InteractiveReply struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// InboundEvent is one user turn as extracted by the webhook layer. Exactly
// one of Text/Reply is expected to be populated; the webhook drops events
// carrying neither before they reach the engine.
type InboundEvent struct {
	Text  string            `json:"text,omitempty"`
	Reply *InteractiveReply `json:"interactive_reply,omitempty"`
}

// TextEvent builds a free-text event.
func TextEvent(text string) InboundEvent {
	return InboundEvent{Text: text}
}

// ReplyEvent builds a structured-reply event.
func ReplyEvent(id, title string) InboundEvent {
	return InboundEvent{Reply: &InteractiveReply{ID: id, Title: title}}
}

// ReplyID returns the structured reply id, or "" for free text.
func (e InboundEvent) ReplyID() string {
	if e.Reply == nil {
		return ""
	}
	return e.Reply.ID
}

// TrimmedText returns the free text with surrounding whitespace removed.
// A structured reply has no free text.
func (e InboundEvent) TrimmedText() string {
	if e.Reply != nil {
		return ""
	}
	return strings.TrimSpace(e.Text)
}

// Empty reports whether the event carries no actionable input.
func (e InboundEvent) Empty() bool {
	return e.Reply == nil && strings.TrimSpace(e.Text) == ""
}
