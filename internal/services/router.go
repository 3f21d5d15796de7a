package services

import (
	"fmt"
	"log"

	"github.com/helioshop/concierge-backend/internal/models"
	"github.com/helioshop/concierge-backend/internal/storage"
)

// Transport delivers a response to a recipient over the provider wire. The
// implementation owns serialization and its own retry policy; a delivery
// failure never rolls back the already-persisted session.
type Transport interface {
	Send(to string, resp models.Response) error
}

// DialogueRouter orchestrates one webhook event: load or create the
// session, run the engine, persist the result, hand the response back for
// transport.
type DialogueRouter struct {
	store  storage.SessionStore
	engine *Engine
}

// NewDialogueRouter wires the router.
func NewDialogueRouter(store storage.SessionStore, engine *Engine) *DialogueRouter {
	return &DialogueRouter{store: store, engine: engine}
}

// Handle processes one inbound event for a user. The user's lock is held
// across the whole load-transition-save cycle so duplicate deliveries and
// double-taps are ordered, never interleaved mid-transition. On a store
// failure the event is not marked processed and the error propagates so the
// gateway can redeliver.
func (r *DialogueRouter) Handle(userID string, event models.InboundEvent) (models.Response, error) {
	unlock := r.store.LockUser(userID)
	defer unlock()

	sess, created, err := r.store.GetOrCreate(userID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if created {
		log.Printf("session started: user=%s session=%s", userID, sess.SessionID)
	}

	r.store.Touch(sess)
	resp := r.engine.Handle(sess, event)

	if err := r.store.Save(sess); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}
	return resp, nil
}
