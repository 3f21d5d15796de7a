package jobs

import (
	"log"
	"time"

	"github.com/helioshop/concierge-backend/internal/storage"
)

// SessionSweeper periodically evicts idle sessions so the store does not
// grow with every user who ever messaged. Swept users are recreated
// transparently on their next contact.
type SessionSweeper struct {
	store    storage.SessionStore
	interval time.Duration
	stop     chan struct{}
}

// NewSessionSweeper creates the sweeper.
func NewSessionSweeper(store storage.SessionStore, interval time.Duration) *SessionSweeper {
	return &SessionSweeper{
		store:    store,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

// Start runs the sweep loop in the background.
func (s *SessionSweeper) Start() {
	log.Printf("session sweeper started, interval %v", s.interval)
	go s.run()
}

// Stop halts the sweep loop.
func (s *SessionSweeper) Stop() {
	close(s.stop)
}

func (s *SessionSweeper) run() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			swept, err := s.store.SweepExpired()
			if err != nil {
				log.Printf("session sweep failed: %v", err)
				continue
			}
			if swept > 0 {
				log.Printf("swept %d expired sessions", swept)
			}
		case <-s.stop:
			log.Println("session sweeper stopped")
			return
		}
	}
}
