package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSessionStartsInGreeting(t *testing.T) {
	t.Parallel()

	sess := NewSession("5511999990000")

	assert.Equal(t, "5511999990000", sess.UserID)
	assert.NotEmpty(t, sess.SessionID)
	assert.Equal(t, StateGreeting, sess.State)
	assert.Equal(t, Context{}, sess.Context)
	assert.False(t, sess.CreatedAt.IsZero())

	other := NewSession("5511999990000")
	assert.NotEqual(t, sess.SessionID, other.SessionID)
}

func TestContextClearOrderKeepsSupportIssue(t *testing.T) {
	t.Parallel()

	ctx := Context{
		ProductInterest:      "prod_A",
		ProductInterestTitle: "Model A",
		OrderProduct:         "Model A",
		OrderQuantity:        2,
		DeliveryAddress:      "221B Baker St",
		SupportIssue:         "screen flickers",
	}

	ctx.ClearOrder()

	assert.Equal(t, Context{SupportIssue: "screen flickers"}, ctx)
}

func TestStateKnown(t *testing.T) {
	t.Parallel()

	for _, s := range []State{
		StateGreeting, StateMenu, StateProductList, StateProductFollowup,
		StateSupportRequest, StateSupportProcessing,
		StateOrderStart, StateOrderQuantity, StateOrderAddress,
	} {
		assert.True(t, s.Known(), "state %q", s)
	}
	assert.False(t, State("bogus").Known())
	assert.False(t, State("").Known())
}

func TestSessionRecordRoundTrip(t *testing.T) {
	t.Parallel()

	sess := NewSession("5511999990000")
	sess.State = StateOrderAddress
	sess.Context = Context{OrderProduct: "Model A", OrderQuantity: 2}
	sess.Version = 3

	rec, err := RecordFromSession(sess)
	require.NoError(t, err)

	back := rec.ToSession()
	assert.Equal(t, sess.UserID, back.UserID)
	assert.Equal(t, sess.SessionID, back.SessionID)
	assert.Equal(t, sess.State, back.State)
	assert.Equal(t, sess.Context, back.Context)
	assert.Equal(t, sess.Version, back.Version)
}

func TestSessionRecordToSessionBadContext(t *testing.T) {
	t.Parallel()

	rec := SessionRecord{
		UserID:    "U1",
		SessionID: "abc",
		State:     string(StateMenu),
		Context:   "{not json",
	}

	back := rec.ToSession()
	assert.Equal(t, Context{}, back.Context)
	assert.Equal(t, StateMenu, back.State)
}
