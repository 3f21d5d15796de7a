package models

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// SessionRecord is the persisted form of a Session for the database-backed
// store. Context is stored as a JSON string so the schema stays stable while
// the context struct evolves.
type SessionRecord struct {
	gorm.Model
	UserID            string    `json:"user_id" gorm:"uniqueIndex"`
	SessionID         string    `json:"session_id"`
	State             string    `json:"state"`
	Context           string    `json:"context"`
	LastInteractionAt time.Time `json:"last_interaction_at"`
	Version           int64     `json:"version" gorm:"default:1"`
}

// ToSession converts a stored record back to the domain session. A context
// blob that fails to decode is treated as empty rather than poisoning the
// conversation.
func (r *SessionRecord) ToSession() *Session {
	var ctx Context
	if r.Context != "" {
		_ = json.Unmarshal([]byte(r.Context), &ctx)
	}
	return &Session{
		UserID:            r.UserID,
		SessionID:         r.SessionID,
		CreatedAt:         r.CreatedAt,
		LastInteractionAt: r.LastInteractionAt,
		State:             State(r.State),
		Context:           ctx,
		Version:           r.Version,
	}
}

// RecordFromSession converts a domain session into its persisted form.
func RecordFromSession(s *Session) (*SessionRecord, error) {
	ctxJSON, err := json.Marshal(s.Context)
	if err != nil {
		return nil, err
	}
	return &SessionRecord{
		UserID:            s.UserID,
		SessionID:         s.SessionID,
		State:             string(s.State),
		Context:           string(ctxJSON),
		LastInteractionAt: s.LastInteractionAt,
		Version:           s.Version,
	}, nil
}
