package storage

import (
	"errors"

	"github.com/helioshop/concierge-backend/internal/models"
)

// ErrStoreUnavailable wraps backend failures. The router treats it as
// recoverable: the event is not marked processed and the gateway may
// redeliver it.
var ErrStoreUnavailable = errors.New("session store unavailable")

// ErrSessionConflict reports a Save made against a session another process
// already advanced. The in-process lock table cannot see writers on other
// instances sharing the database, so the losing event surfaces as a failed
// attempt and the redelivery replays against the winning state.
var ErrSessionConflict = errors.New("session modified concurrently")

// SessionStore is the persistence contract for conversation sessions.
// Implementations must make GetOrCreate a single logical operation so two
// concurrent first-contact events for the same user never yield two
// sessions.
type SessionStore interface {
	// LockUser serializes event handling per user. The caller holds the
	// returned unlock across the whole load-transition-save cycle so
	// rapid duplicate deliveries are ordered, not interleaved. Locks for
	// different users are independent.
	LockUser(userID string) (unlock func())

	// GetOrCreate returns the user's session, creating one in the
	// greeting state if absent or expired. The bool reports creation.
	GetOrCreate(userID string) (*models.Session, bool, error)

	// Save persists the session. Implementations backed by shared
	// storage return ErrSessionConflict when another writer advanced the
	// session since it was loaded.
	Save(sess *models.Session) error

	// Touch refreshes the session's last-interaction timestamp. The
	// update is persisted by the next Save.
	Touch(sess *models.Session)

	// ActiveCount reports sessions that interacted within the TTL.
	ActiveCount() (int, error)

	// SweepExpired removes sessions idle past the TTL and reports how
	// many were dropped. Users sweep back in via GetOrCreate exactly as
	// on first contact.
	SweepExpired() (int, error)
}
