package models

import (
	"time"

	"github.com/google/uuid"
)

// State is a node in the conversation state machine.
type State string

const (
	StateGreeting          State = "greeting"
	StateMenu              State = "menu"
	StateProductList       State = "product_info_list"
	StateProductFollowup   State = "product_followup"
	StateSupportRequest    State = "support_request"
	StateSupportProcessing State = "support_processing"
	StateOrderStart        State = "order_start"
	StateOrderQuantity     State = "order_quantity"
	StateOrderAddress      State = "order_address"
)

// Known reports whether s is one of the defined conversation states.
// Sessions loaded from storage can carry stale values; the engine resets
// those to greeting instead of failing.
func (s State) Known() bool {
	switch s {
	case StateGreeting, StateMenu, StateProductList, StateProductFollowup,
		StateSupportRequest, StateSupportProcessing,
		StateOrderStart, StateOrderQuantity, StateOrderAddress:
		return true
	}
	return false
}

// Context holds the facts a conversation accumulates across webhook calls.
// Each field is written by exactly one state and read by a later state in
// the same flow.
type Context struct {
	ProductInterest      string `json:"product_interest,omitempty"`
	ProductInterestTitle string `json:"product_interest_title,omitempty"`
	OrderProduct         string `json:"order_product,omitempty"`
	OrderQuantity        int    `json:"order_quantity,omitempty"`
	DeliveryAddress      string `json:"delivery_address,omitempty"`
	SupportIssue         string `json:"support_issue,omitempty"`
}

// ClearOrder drops everything tied to the order that just completed. The
// support issue survives; it belongs to a different flow.
func (c *Context) ClearOrder() {
	c.ProductInterest = ""
	c.ProductInterestTitle = ""
	c.OrderProduct = ""
	c.OrderQuantity = 0
	c.DeliveryAddress = ""
}

// Session is the per-user conversation record. UserID is the store's key;
// SessionID only ever appears in logs. Version is the store's concurrency
// token: the database-backed store bumps it on every persisted write and
// rejects a save made against a stale version.
type Session struct {
	UserID            string    `json:"user_id"`
	SessionID         string    `json:"session_id"`
	CreatedAt         time.Time `json:"created_at"`
	LastInteractionAt time.Time `json:"last_interaction_at"`
	State             State     `json:"state"`
	Context           Context   `json:"context"`
	Version           int64     `json:"-"`
}

// NewSession creates a fresh session in the greeting state.
func NewSession(userID string) *Session {
	now := time.Now()
	return &Session{
		UserID:            userID,
		SessionID:         uuid.NewString(),
		CreatedAt:         now,
		LastInteractionAt: now,
		State:             StateGreeting,
	}
}
