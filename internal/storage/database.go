package storage

import (
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/helioshop/concierge-backend/internal/models"
)

// DatabaseStore persists sessions through gorm. Works against Postgres in
// production and the embedded SQLite driver for single-node deploys.
//
// The keyed mutex orders events within one process; across instances sharing
// a database the rows carry a version column and Save is a version-checked
// update, so two events loading the same row cannot both persist. SQLite has
// no SELECT FOR UPDATE, which rules out a row lock held across the
// load-transition-save cycle.
type DatabaseStore struct {
	*keyedMutex

	db  *gorm.DB
	ttl time.Duration
}

// NewDatabaseStore creates a database-backed session store.
func NewDatabaseStore(db *gorm.DB, ttl time.Duration) *DatabaseStore {
	return &DatabaseStore{
		keyedMutex: newKeyedMutex(),
		db:         db,
		ttl:        ttl,
	}
}

func (d *DatabaseStore) GetOrCreate(userID string) (*models.Session, bool, error) {
	var rec models.SessionRecord
	err := d.db.Where("user_id = ?", userID).First(&rec).Error

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return d.create(userID)
	case err != nil:
		return nil, false, fmt.Errorf("%w: load session for %s: %v", ErrStoreUnavailable, userID, err)
	}

	if time.Since(rec.LastInteractionAt) > d.ttl {
		log.Printf("session expired, recreating: user=%s session=%s", userID, rec.SessionID)
		sess := models.NewSession(userID)
		// The fresh session replaces the expired row in place, keyed
		// on the version just read so a racing instance loses cleanly.
		sess.Version = rec.Version
		if err := d.Save(sess); err != nil {
			return nil, false, err
		}
		return sess, true, nil
	}

	return rec.ToSession(), false, nil
}

func (d *DatabaseStore) create(userID string) (*models.Session, bool, error) {
	sess := models.NewSession(userID)
	sess.Version = 1
	rec, err := models.RecordFromSession(sess)
	if err != nil {
		return nil, false, fmt.Errorf("%w: encode session for %s: %v", ErrStoreUnavailable, userID, err)
	}

	// DoNothing keeps a concurrent first contact from another instance
	// from failing the insert; the loser re-reads the winner's row.
	res := d.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(rec)
	if res.Error != nil {
		return nil, false, fmt.Errorf("%w: create session for %s: %v", ErrStoreUnavailable, userID, res.Error)
	}
	if res.RowsAffected == 0 {
		var existing models.SessionRecord
		if err := d.db.Where("user_id = ?", userID).First(&existing).Error; err != nil {
			return nil, false, fmt.Errorf("%w: reload session for %s: %v", ErrStoreUnavailable, userID, err)
		}
		return existing.ToSession(), false, nil
	}

	log.Printf("session created: user=%s session=%s", userID, sess.SessionID)
	return sess, true, nil
}

// Save writes the session back, matching on the version it was loaded with.
// A zero-row update means another instance advanced the session first; the
// caller gets ErrSessionConflict and the event stays unprocessed so the
// gateway can redeliver against the winning state.
func (d *DatabaseStore) Save(sess *models.Session) error {
	rec, err := models.RecordFromSession(sess)
	if err != nil {
		return fmt.Errorf("%w: encode session for %s: %v", ErrStoreUnavailable, sess.UserID, err)
	}

	res := d.db.Model(&models.SessionRecord{}).
		Where("user_id = ? AND version = ?", sess.UserID, sess.Version).
		Updates(map[string]interface{}{
			"session_id":          rec.SessionID,
			"state":               rec.State,
			"context":             rec.Context,
			"last_interaction_at": rec.LastInteractionAt,
			"version":             sess.Version + 1,
		})
	if res.Error != nil {
		return fmt.Errorf("%w: save session for %s: %v", ErrStoreUnavailable, sess.UserID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: user=%s version=%d", ErrSessionConflict, sess.UserID, sess.Version)
	}

	sess.Version++
	return nil
}

func (d *DatabaseStore) Touch(sess *models.Session) {
	sess.LastInteractionAt = time.Now()
}

func (d *DatabaseStore) ActiveCount() (int, error) {
	var count int64
	cutoff := time.Now().Add(-d.ttl)
	err := d.db.Model(&models.SessionRecord{}).
		Where("last_interaction_at > ?", cutoff).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("%w: count sessions: %v", ErrStoreUnavailable, err)
	}
	return int(count), nil
}

func (d *DatabaseStore) SweepExpired() (int, error) {
	cutoff := time.Now().Add(-d.ttl)
	// Hard delete: the user_id unique index must stay free for the
	// recreated session.
	res := d.db.Unscoped().
		Where("last_interaction_at <= ?", cutoff).
		Delete(&models.SessionRecord{})
	if res.Error != nil {
		return 0, fmt.Errorf("%w: sweep sessions: %v", ErrStoreUnavailable, res.Error)
	}
	return int(res.RowsAffected), nil
}
