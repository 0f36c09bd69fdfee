package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wikirecon/reconcile/internal/cache"
)

type fakeClosureFetcher struct {
	closures map[string][]string
	calls    int
}

func (f *fakeClosureFetcher) SubclassClosure(_ context.Context, qid string) ([]string, error) {
	f.calls++
	return f.closures[qid], nil
}

func TestTypeMatcher_IsSubclass_SelfMatch(t *testing.T) {
	m := NewTypeMatcher(&fakeClosureFetcher{}, cache.NewMemory(""))
	ok, err := m.IsSubclass(context.Background(), "Q5", "Q5")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestTypeMatcher_IsSubclass_PopulatesClosureOnce(t *testing.T) {
	ctx := context.Background()
	fetcher := &fakeClosureFetcher{closures: map[string][]string{"Q5": {"Q5", "Q515", "Q1549591"}}}
	m := NewTypeMatcher(fetcher, cache.NewMemory(""))

	ok, err := m.IsSubclass(ctx, "Q515", "Q5")
	require.NoError(t, err)
	assert.True(t, ok, "Q515 (city) is a subclass of Q5 (human)'s closure in this fixture")
	assert.Equal(t, 1, fetcher.calls)

	ok, err = m.IsSubclass(ctx, "Q42", "Q5")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, fetcher.calls, "a second query against the same target must not re-fetch the closure")
}

func TestTypeMatcher_WarmClosure_PrefetchesAndIsIdempotent(t *testing.T) {
	ctx := context.Background()
	fetcher := &fakeClosureFetcher{closures: map[string][]string{"Q5": {"Q5", "Q515"}}}
	m := NewTypeMatcher(fetcher, cache.NewMemory(""))

	require.NoError(t, m.WarmClosure(ctx, "Q5"))
	assert.Equal(t, 1, fetcher.calls)

	require.NoError(t, m.WarmClosure(ctx, "Q5"))
	assert.Equal(t, 1, fetcher.calls, "warming an already-cached closure must not re-fetch")

	ok, err := m.IsSubclass(ctx, "Q515", "Q5")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, fetcher.calls, "IsSubclass should reuse the warmed closure")
}
