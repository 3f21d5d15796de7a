package storage

import (
	"log"
	"sync"
	"time"

	"github.com/helioshop/concierge-backend/internal/models"
)

// MemoryStore keeps sessions in a process-local map. Suitable for a single
// instance; the database store covers everything else.
type MemoryStore struct {
	*keyedMutex

	mu       sync.RWMutex
	sessions map[string]models.Session
	ttl      time.Duration
}

// NewMemoryStore creates an in-memory session store. Sessions idle longer
// than ttl are treated as gone and recreated on next contact.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		keyedMutex: newKeyedMutex(),
		sessions:   make(map[string]models.Session),
		ttl:        ttl,
	}
}

func (m *MemoryStore) GetOrCreate(userID string) (*models.Session, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.sessions[userID]; ok {
		if time.Since(existing.LastInteractionAt) <= m.ttl {
			// Hand out a copy so a failed event leaves the stored
			// session untouched until Save.
			sess := existing
			return &sess, false, nil
		}
		delete(m.sessions, userID)
		log.Printf("session expired, recreating: user=%s session=%s", userID, existing.SessionID)
	}

	sess := models.NewSession(userID)
	m.sessions[userID] = *sess
	return sess, true, nil
}

func (m *MemoryStore) Save(sess *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[sess.UserID] = *sess
	return nil
}

func (m *MemoryStore) Touch(sess *models.Session) {
	sess.LastInteractionAt = time.Now()
}

func (m *MemoryStore) ActiveCount() (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, sess := range m.sessions {
		if time.Since(sess.LastInteractionAt) <= m.ttl {
			count++
		}
	}
	return count, nil
}

func (m *MemoryStore) SweepExpired() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	swept := 0
	for userID, sess := range m.sessions {
		if time.Since(sess.LastInteractionAt) > m.ttl {
			delete(m.sessions, userID)
			swept++
		}
	}
	return swept, nil
}
