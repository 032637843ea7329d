package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SiameseJames22/2DWORLD/internal/application/ports"
)

func TestTransactionCommitsWrites(t *testing.T) {
	store := NewDocStore()
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return fixed }

	ref := ports.Ref{Collection: "usernames", Key: "alice"}
	err := store.RunTransaction(context.Background(), func(tx ports.Tx) error {
		_, exists, err := tx.Get(ref)
		require.NoError(t, err)
		assert.False(t, exists)
		return tx.Set(ref, ports.Document{
			"account_id": "u1",
			"created_at": ports.ServerTimestamp,
		})
	})
	require.NoError(t, err)

	doc, ok := store.Document(ref)
	require.True(t, ok)
	assert.Equal(t, "u1", doc["account_id"])
	assert.Equal(t, fixed, doc["created_at"])
}

func TestBodyErrorAbortsAllWrites(t *testing.T) {
	store := NewDocStore()
	boom := errors.New("boom")

	ref := ports.Ref{Collection: "usernames", Key: "alice"}
	err := store.RunTransaction(context.Background(), func(tx ports.Tx) error {
		require.NoError(t, tx.Set(ref, ports.Document{"account_id": "u1"}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, ok := store.Document(ref)
	assert.False(t, ok)
}

func TestMergeCombinesWithExisting(t *testing.T) {
	store := NewDocStore()
	ref := ports.Ref{Collection: "profiles", Key: "u1"}

	require.NoError(t, store.RunTransaction(context.Background(), func(tx ports.Tx) error {
		return tx.Set(ref, ports.Document{"username": "alice", "color": "green"})
	}))
	require.NoError(t, store.RunTransaction(context.Background(), func(tx ports.Tx) error {
		return tx.Merge(ref, ports.Document{"color": "blue", "email": "a@x.com"})
	}))

	doc, ok := store.Document(ref)
	require.True(t, ok)
	assert.Equal(t, "alice", doc["username"])
	assert.Equal(t, "blue", doc["color"])
	assert.Equal(t, "a@x.com", doc["email"])
}

func TestMergeOnMissingDocumentCreatesIt(t *testing.T) {
	store := NewDocStore()
	ref := ports.Ref{Collection: "profiles", Key: "u1"}

	require.NoError(t, store.RunTransaction(context.Background(), func(tx ports.Tx) error {
		return tx.Merge(ref, ports.Document{"username": "alice"})
	}))

	doc, ok := store.Document(ref)
	require.True(t, ok)
	assert.Equal(t, "alice", doc["username"])
}

func TestCancelledContextRejectsTransaction(t *testing.T) {
	store := NewDocStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := store.RunTransaction(ctx, func(tx ports.Tx) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestWritesInvisibleUntilCommit(t *testing.T) {
	store := NewDocStore()
	ref := ports.Ref{Collection: "usernames", Key: "alice"}

	require.NoError(t, store.RunTransaction(context.Background(), func(tx ports.Tx) error {
		require.NoError(t, tx.Set(ref, ports.Document{"account_id": "u1"}))
		_, exists, err := tx.Get(ref)
		require.NoError(t, err)
		assert.False(t, exists, "buffered write must not be readable")
		return nil
	}))
}
