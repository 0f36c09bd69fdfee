package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wikirecon/reconcile/internal/cache"
)

func TestParse_NormalizesTitleAndWiki(t *testing.T) {
	p, ok := Parse("https://en.wikipedia.org/wiki/Douglas_Adams")
	require.True(t, ok)
	assert.Equal(t, "en", p.Lang)
	assert.Equal(t, "wikipedia", p.Wiki)
	assert.Equal(t, "Douglas Adams", p.Title)
}

func TestParse_WiktionaryPreservesCase(t *testing.T) {
	p, ok := Parse("https://en.wiktionary.org/wiki/apple")
	require.True(t, ok)
	assert.Equal(t, "apple", p.Title, "wiktionary titles are case-sensitive and must not be capitalized")
}

func TestParse_RejectsNonSitelinkURL(t *testing.T) {
	_, ok := Parse("https://example.org/not-a-wiki")
	assert.False(t, ok)
}

type fakeSitelinkFetcher struct {
	redirects map[string]string
	itemIDs   map[string]string // "site:title" -> id
	calls     int
}

func (f *fakeSitelinkFetcher) ResolveRedirects(_ context.Context, _ string, titles []string) (map[string]string, error) {
	out := map[string]string{}
	for _, t := range titles {
		if to, ok := f.redirects[t]; ok {
			out[t] = to
		}
	}
	return out, nil
}

func (f *fakeSitelinkFetcher) ItemIDForSitelink(_ context.Context, site, title string) (string, bool, error) {
	f.calls++
	id, ok := f.itemIDs[site+":"+title]
	return id, ok, nil
}

func TestSitelinkResolver_ResolvesAndCaches(t *testing.T) {
	ctx := context.Background()
	fetcher := &fakeSitelinkFetcher{itemIDs: map[string]string{"enwiki:Douglas Adams": "Q42"}}
	r := NewSitelinkResolver(fetcher, cache.NewMemory(""))

	id, ok, err := r.Resolve(ctx, "https://en.wikipedia.org/wiki/Douglas_Adams")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Q42", id)
	assert.Equal(t, 1, fetcher.calls)

	_, _, err = r.Resolve(ctx, "https://en.wikipedia.org/wiki/Douglas_Adams")
	require.NoError(t, err)
	assert.Equal(t, 1, fetcher.calls, "a repeat resolution must be served from cache")
}

func TestSitelinkResolver_FollowsRedirect(t *testing.T) {
	ctx := context.Background()
	fetcher := &fakeSitelinkFetcher{
		redirects: map[string]string{"Old Title": "New Title"},
		itemIDs:   map[string]string{"enwiki:New Title": "Q7"},
	}
	r := NewSitelinkResolver(fetcher, cache.NewMemory(""))

	id, ok, err := r.Resolve(ctx, "https://en.wikipedia.org/wiki/Old_Title")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Q7", id)
}

func TestSitelinkResolver_NoNegativeCaching(t *testing.T) {
	ctx := context.Background()
	fetcher := &fakeSitelinkFetcher{}
	r := NewSitelinkResolver(fetcher, cache.NewMemory(""))

	_, ok, err := r.Resolve(ctx, "https://en.wikipedia.org/wiki/Nonexistent_Page")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, fetcher.calls)

	_, ok, err = r.Resolve(ctx, "https://en.wikipedia.org/wiki/Nonexistent_Page")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 2, fetcher.calls, "a miss must not be cached, so it's retried on the next request")
}
