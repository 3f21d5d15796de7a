package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/helioshop/concierge-backend/internal/models"
)

func newTestDatabaseStore(t *testing.T, ttl time.Duration) *DatabaseStore {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.SessionRecord{}))

	return NewDatabaseStore(db, ttl)
}

func TestDatabaseStoreGetOrCreate(t *testing.T) {
	t.Parallel()

	store := newTestDatabaseStore(t, 30*time.Minute)

	sess, created, err := store.GetOrCreate("U1")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, models.StateGreeting, sess.State)

	again, created, err := store.GetOrCreate("U1")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, sess.SessionID, again.SessionID)
}

func TestDatabaseStoreSaveRoundTrip(t *testing.T) {
	t.Parallel()

	store := newTestDatabaseStore(t, 30*time.Minute)

	sess, _, err := store.GetOrCreate("U1")
	require.NoError(t, err)

	sess.State = models.StateOrderAddress
	sess.Context = models.Context{OrderProduct: "Model A", OrderQuantity: 2}
	store.Touch(sess)
	require.NoError(t, store.Save(sess))

	reloaded, created, err := store.GetOrCreate("U1")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, models.StateOrderAddress, reloaded.State)
	assert.Equal(t, "Model A", reloaded.Context.OrderProduct)
	assert.Equal(t, 2, reloaded.Context.OrderQuantity)
}

func TestDatabaseStoreSaveIsIdempotent(t *testing.T) {
	t.Parallel()

	store := newTestDatabaseStore(t, 30*time.Minute)

	sess, _, err := store.GetOrCreate("U1")
	require.NoError(t, err)
	sess.State = models.StateMenu

	require.NoError(t, store.Save(sess))
	require.NoError(t, store.Save(sess))

	var count int64
	require.NoError(t, store.db.Model(&models.SessionRecord{}).Where("user_id = ?", "U1").Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestDatabaseStoreRejectsStaleSaveAcrossInstances(t *testing.T) {
	t.Parallel()

	// Two store instances over one database file stand in for two server
	// processes behind the same Postgres.
	path := filepath.Join(t.TempDir(), "sessions.db")
	open := func() *DatabaseStore {
		db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		require.NoError(t, err)
		require.NoError(t, db.AutoMigrate(&models.SessionRecord{}))
		return NewDatabaseStore(db, 30*time.Minute)
	}
	storeA := open()
	storeB := open()

	seed, _, err := storeA.GetOrCreate("U1")
	require.NoError(t, err)
	seed.State = models.StateMenu
	require.NoError(t, storeA.Save(seed))

	// Both instances observe the menu session.
	sessA, _, err := storeA.GetOrCreate("U1")
	require.NoError(t, err)
	sessB, _, err := storeB.GetOrCreate("U1")
	require.NoError(t, err)

	sessA.State = models.StateOrderStart
	require.NoError(t, storeA.Save(sessA))

	// The second writer loaded a version that no longer exists; its save
	// must fail instead of silently overwriting the first transition.
	sessB.State = models.StateSupportRequest
	err = storeB.Save(sessB)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSessionConflict)

	reloaded, created, err := storeB.GetOrCreate("U1")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, models.StateOrderStart, reloaded.State)

	// A redelivered event replays against the winning state cleanly.
	reloaded.State = models.StateSupportRequest
	require.NoError(t, storeB.Save(reloaded))
}

func TestDatabaseStoreExpiryRecreates(t *testing.T) {
	t.Parallel()

	store := newTestDatabaseStore(t, time.Minute)

	sess, _, err := store.GetOrCreate("U1")
	require.NoError(t, err)
	firstID := sess.SessionID

	sess.State = models.StateMenu
	sess.LastInteractionAt = time.Now().Add(-time.Hour)
	require.NoError(t, store.Save(sess))

	fresh, created, err := store.GetOrCreate("U1")
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, firstID, fresh.SessionID)
	assert.Equal(t, models.StateGreeting, fresh.State)
}

func TestDatabaseStoreSweepExpired(t *testing.T) {
	t.Parallel()

	store := newTestDatabaseStore(t, time.Minute)

	stale, _, err := store.GetOrCreate("stale")
	require.NoError(t, err)
	stale.LastInteractionAt = time.Now().Add(-time.Hour)
	require.NoError(t, store.Save(stale))

	_, _, err = store.GetOrCreate("fresh")
	require.NoError(t, err)

	swept, err := store.SweepExpired()
	require.NoError(t, err)
	assert.Equal(t, 1, swept)

	active, err := store.ActiveCount()
	require.NoError(t, err)
	assert.Equal(t, 1, active)

	// The swept user comes back as a brand new session.
	_, created, err := store.GetOrCreate("stale")
	require.NoError(t, err)
	assert.True(t, created)
}
