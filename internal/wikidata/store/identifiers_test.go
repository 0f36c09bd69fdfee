package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wikirecon/reconcile/internal/cache"
)

type fakeIdentifierFetcher struct {
	byValue map[string][]string
	calls   int
}

func (f *fakeIdentifierFetcher) ReverseLookup(_ context.Context, _ string, values []string) (map[string][]string, error) {
	f.calls++
	out := map[string][]string{}
	for _, v := range values {
		if ids, ok := f.byValue[v]; ok {
			out[v] = ids
		}
	}
	return out, nil
}

func TestIdentifierIndex_FetchQidsByValues(t *testing.T) {
	ctx := context.Background()
	fetcher := &fakeIdentifierFetcher{byValue: map[string][]string{
		"0000 0004 0547 722X": {"Q1377"},
	}}
	idx := NewIdentifierIndex(fetcher, cache.NewMemory(""))

	out, err := idx.FetchQidsByValues(ctx, "P213", []string{"0000 0004 0547 722X", "no match"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Q1377"}, out["0000 0004 0547 722X"])
	assert.Empty(t, out["no match"])
	assert.Equal(t, 1, fetcher.calls)

	_, err = idx.FetchQidsByValues(ctx, "P213", []string{"0000 0004 0547 722X"})
	require.NoError(t, err)
	assert.Equal(t, 1, fetcher.calls, "a cached value lookup must not hit the upstream fetcher again")
}
