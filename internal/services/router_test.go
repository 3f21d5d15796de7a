package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helioshop/concierge-backend/internal/models"
	"github.com/helioshop/concierge-backend/internal/storage"
)

// fakeStore implements storage.SessionStore with injectable failures.
type fakeStore struct {
	sessions map[string]models.Session
	failLoad bool
	failSave bool
	saves    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{sessions: make(map[string]models.Session)}
}

func (f *fakeStore) LockUser(string) func() { return func() {} }

func (f *fakeStore) GetOrCreate(userID string) (*models.Session, bool, error) {
	if f.failLoad {
		return nil, false, storage.ErrStoreUnavailable
	}
	if existing, ok := f.sessions[userID]; ok {
		sess := existing
		return &sess, false, nil
	}
	sess := models.NewSession(userID)
	f.sessions[userID] = *sess
	return sess, true, nil
}

func (f *fakeStore) Save(sess *models.Session) error {
	if f.failSave {
		return storage.ErrStoreUnavailable
	}
	f.saves++
	f.sessions[sess.UserID] = *sess
	return nil
}

func (f *fakeStore) Touch(sess *models.Session) {}

func (f *fakeStore) ActiveCount() (int, error) { return len(f.sessions), nil }

func (f *fakeStore) SweepExpired() (int, error) { return 0, nil }

func TestRouterPersistsAdvancedState(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	router := NewDialogueRouter(store, NewEngine(nil))

	resp, err := router.Handle("U1", models.TextEvent("hi"))
	require.NoError(t, err)
	assert.Equal(t, "button", resp.Kind())

	saved := store.sessions["U1"]
	assert.Equal(t, models.StateMenu, saved.State)
	assert.Equal(t, 1, store.saves)
}

func TestRouterSaveFailureDoesNotAdvance(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	router := NewDialogueRouter(store, NewEngine(nil))

	// Seed a persisted menu session.
	_, err := router.Handle("U1", models.TextEvent("hi"))
	require.NoError(t, err)

	store.failSave = true
	resp, err := router.Handle("U1", models.ReplyEvent("menu_order", "Place an Order"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, storage.ErrStoreUnavailable))
	assert.Nil(t, resp)

	// The stored session still holds the pre-transition state, so a
	// redelivery replays the transition cleanly.
	assert.Equal(t, models.StateMenu, store.sessions["U1"].State)

	store.failSave = false
	resp, err = router.Handle("U1", models.ReplyEvent("menu_order", "Place an Order"))
	require.NoError(t, err)
	assert.Equal(t, "text", resp.Kind())
	assert.Equal(t, models.StateOrderStart, store.sessions["U1"].State)
}

func TestRouterLoadFailureSurfaces(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.failLoad = true
	router := NewDialogueRouter(store, NewEngine(nil))

	resp, err := router.Handle("U1", models.TextEvent("hi"))
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.Zero(t, store.saves)
}

func TestRouterFullOrderConversation(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	router := NewDialogueRouter(store, NewEngine(nil))

	steps := []struct {
		event     models.InboundEvent
		wantState models.State
		wantKind  string
	}{
		{models.TextEvent("hello"), models.StateMenu, "button"},
		{models.ReplyEvent("menu_product_info", "Product Information"), models.StateProductList, "list"},
		{models.ReplyEvent("prod_A", "Model A"), models.StateProductFollowup, "button"},
		{models.ReplyEvent("prod_order_yes", "Place Order"), models.StateOrderQuantity, "text"},
		{models.TextEvent("2"), models.StateOrderAddress, "text"},
		{models.TextEvent("221B Baker St"), models.StateMenu, "button"},
	}

	for i, step := range steps {
		resp, err := router.Handle("U42", step.event)
		require.NoError(t, err, "step %d", i)
		assert.Equal(t, step.wantKind, resp.Kind(), "step %d", i)
		assert.Equal(t, step.wantState, store.sessions["U42"].State, "step %d", i)
	}

	// The session id stays stable across the whole conversation.
	assert.NotEmpty(t, store.sessions["U42"].SessionID)
}
