package username

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SiameseJames22/2DWORLD/internal/application/ports"
	"github.com/SiameseJames22/2DWORLD/internal/domain"
	domerrors "github.com/SiameseJames22/2DWORLD/internal/domain/errors"
	"github.com/SiameseJames22/2DWORLD/internal/infrastructure/persistence/memory"
)

func TestNormalizeHandle(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"  Alice Smith!! ", "alice_smith"},
		{"alice_smith", "alice_smith"},
		{"Bob", "bob"},
		{"a.b_c", "a.b_c"},
		{"tabs\tand\nnewlines", "tabs_and_newlines"},
		{"many   spaces", "many_spaces"},
		{"ünïcode", "ncode"},
		{"", ""},
		{"   ", ""},
		{"!!!", ""},
	}
	for _, tc := range cases {
		got := NormalizeHandle(tc.in)
		assert.Equal(t, tc.want, got, "input %q", tc.in)
		assert.Equal(t, got, NormalizeHandle(got), "normalization must be idempotent for %q", tc.in)
	}
}

type countingStore struct {
	inner ports.DocStore
	calls int
}

func (s *countingStore) RunTransaction(ctx context.Context, fn func(tx ports.Tx) error) error {
	s.calls++
	return s.inner.RunTransaction(ctx, fn)
}

func TestClaimShortHandleFailsBeforeStoreIO(t *testing.T) {
	store := &countingStore{inner: memory.NewDocStore()}
	svc := NewService(store, zerolog.Nop())

	for _, raw := range []string{"", "  ", "ab", "!!a!!"} {
		_, err := svc.Claim(context.Background(), "u1", raw, "a@x.com", nil)
		kind, ok := domerrors.KindOf(err)
		require.True(t, ok, "raw %q", raw)
		assert.Equal(t, domerrors.KindInvalidHandle, kind)
	}
	assert.Zero(t, store.calls, "validation must not touch the store")
}

func TestClaimCreatesBothRecords(t *testing.T) {
	store := memory.NewDocStore()
	svc := NewService(store, zerolog.Nop())

	handle, err := svc.Claim(context.Background(), "u1", "  Alice Smith!! ", "a@x.com", map[string]any{
		"birth_year": 1990,
		"gender":     nil,
	})
	require.NoError(t, err)
	assert.Equal(t, "alice_smith", handle)

	name, ok := store.Document(ports.Ref{Collection: "usernames", Key: "alice_smith"})
	require.True(t, ok)
	assert.Equal(t, "u1", name["account_id"])
	assert.NotNil(t, name["created_at"])

	profile, ok := store.Document(ports.Ref{Collection: "profiles", Key: "u1"})
	require.True(t, ok)
	assert.Equal(t, "alice_smith", profile["username"])
	assert.Equal(t, "a@x.com", profile["email"])
	assert.Equal(t, 1990, profile["birth_year"])
	assert.NotNil(t, profile["created_at"])
}

func TestClaimTakenHandle(t *testing.T) {
	store := memory.NewDocStore()
	svc := NewService(store, zerolog.Nop())

	_, err := svc.Claim(context.Background(), "u1", "Alice Smith!!", "a@x.com", nil)
	require.NoError(t, err)

	_, err = svc.Claim(context.Background(), "u2", "alice_smith", "b@x.com", nil)
	kind, ok := domerrors.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, domerrors.KindHandleTaken, kind)

	var de *domerrors.Error
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "alice_smith", de.Handle)

	// the winner's record is untouched
	name, ok := store.Document(ports.Ref{Collection: "usernames", Key: "alice_smith"})
	require.True(t, ok)
	assert.Equal(t, "u1", name["account_id"])
}

func TestClaimSameOwnerCannotReclaim(t *testing.T) {
	store := memory.NewDocStore()
	svc := NewService(store, zerolog.Nop())

	_, err := svc.Claim(context.Background(), "u1", "carol", "c@x.com", nil)
	require.NoError(t, err)

	// the handle -> account mapping is immutable once created, even for the
	// same account
	_, err = svc.Claim(context.Background(), "u1", "carol", "c@x.com", nil)
	kind, ok := domerrors.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, domerrors.KindHandleTaken, kind)
}

// failingMergeStore aborts any transaction that reaches the profile merge.
type failingMergeStore struct {
	inner ports.DocStore
}

type failingMergeTx struct {
	ports.Tx
}

var errInjected = errors.New("injected merge failure")

func (s *failingMergeStore) RunTransaction(ctx context.Context, fn func(tx ports.Tx) error) error {
	return s.inner.RunTransaction(ctx, func(tx ports.Tx) error {
		return fn(&failingMergeTx{Tx: tx})
	})
}

func (t *failingMergeTx) Merge(ref ports.Ref, doc ports.Document) error {
	return errInjected
}

func TestClaimAtomicOnProfileWriteFailure(t *testing.T) {
	inner := memory.NewDocStore()
	svc := NewService(&failingMergeStore{inner: inner}, zerolog.Nop())

	_, err := svc.Claim(context.Background(), "u1", "dave", "d@x.com", nil)
	require.ErrorIs(t, err, errInjected)

	_, ok := inner.Document(ports.Ref{Collection: "usernames", Key: "dave"})
	assert.False(t, ok, "no username record may survive an aborted transaction")
}

func TestClaimRaceExactlyOneWinner(t *testing.T) {
	store := memory.NewDocStore()
	svc := NewService(store, zerolog.Nop())

	results := make([]error, 2)
	var wg sync.WaitGroup
	for i, id := range []string{"u1", "u2"} {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			_, results[i] = svc.Claim(context.Background(),
				domain.AccountID(id), "eve", id+"@x.com", nil)
		}(i, id)
	}
	wg.Wait()

	var wins, losses int
	for _, err := range results {
		if err == nil {
			wins++
			continue
		}
		kind, ok := domerrors.KindOf(err)
		require.True(t, ok)
		assert.Equal(t, domerrors.KindHandleTaken, kind)
		losses++
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, losses)

	_, ok := store.Document(ports.Ref{Collection: "usernames", Key: "eve"})
	assert.True(t, ok)
}
