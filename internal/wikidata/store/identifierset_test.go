package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wikirecon/reconcile/internal/cache"
)

type fakeIdentifierPropertyFetcher struct {
	pids  []string
	calls int
}

func (f *fakeIdentifierPropertyFetcher) IdentifierProperties(_ context.Context) ([]string, error) {
	f.calls++
	return f.pids, nil
}

func TestIdentifierSet_IsIdentifier_PopulatesSetOnce(t *testing.T) {
	ctx := context.Background()
	fetcher := &fakeIdentifierPropertyFetcher{pids: []string{"P213", "P214", "P496"}}
	s := NewIdentifierSet(fetcher, cache.NewMemory(""))

	ok, err := s.IsIdentifier(ctx, "P214")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, fetcher.calls)

	ok, err = s.IsIdentifier(ctx, "P31")
	require.NoError(t, err)
	assert.False(t, ok, "P31 (instance of) is not in the identifier property fixture")
	assert.Equal(t, 1, fetcher.calls, "a second lookup must not re-fetch the set")
}

func TestIdentifierSet_Warm_PrefetchesAndIsIdempotent(t *testing.T) {
	ctx := context.Background()
	fetcher := &fakeIdentifierPropertyFetcher{pids: []string{"P213"}}
	s := NewIdentifierSet(fetcher, cache.NewMemory(""))

	require.NoError(t, s.Warm(ctx))
	assert.Equal(t, 1, fetcher.calls)

	require.NoError(t, s.Warm(ctx))
	assert.Equal(t, 1, fetcher.calls, "warming an already-populated set must not re-fetch")

	ok, err := s.IsIdentifier(ctx, "P213")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, fetcher.calls, "IsIdentifier should reuse the warmed set")
}
