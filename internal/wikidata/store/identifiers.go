package store

import (
	"context"
	"fmt"
	"time"

	"github.com/wikirecon/reconcile/internal/cache"
)

// IdentifierTTL matches the upstream identifier-index's own cache window:
// long enough to absorb repeated lookups within a reconciliation batch,
// short enough that a newly-added identifier claim shows up the same day.
const IdentifierTTL = 24 * time.Hour

// IdentifierFetcher resolves which entities carry a given identifier-like
// property value, via the upstream graph endpoint.
type IdentifierFetcher interface {
	ReverseLookup(ctx context.Context, pid string, values []string) (map[string][]string, error)
}

// IdentifierIndex is the cached reverse lookup from an identifier
// property's value back to the entity ids that carry it: the fast path
// the reconciliation engine takes before falling back to full-text search.
type IdentifierIndex struct {
	fetcher IdentifierFetcher
	cache   cache.Cache
}

func NewIdentifierIndex(fetcher IdentifierFetcher, c cache.Cache) *IdentifierIndex {
	return &IdentifierIndex{fetcher: fetcher, cache: c}
}

// FetchQidsByValues resolves, for a single identifier property pid, which
// entity ids carry each of values. Values with no upstream match are
// simply absent from the result.
func (idx *IdentifierIndex) FetchQidsByValues(ctx context.Context, pid string, values []string) (map[string][]string, error) {
	out := make(map[string][]string, len(values))
	var missing []string

	for _, v := range values {
		var cached []string
		found, err := cache.GetJSON(ctx, idx.cache, identifierCacheKey(pid, v), &cached)
		if err != nil {
			return nil, err
		}
		if found {
			out[v] = cached
		} else {
			missing = append(missing, v)
		}
	}

	if len(missing) == 0 {
		return out, nil
	}

	resolved, err := idx.fetcher.ReverseLookup(ctx, pid, missing)
	if err != nil {
		return nil, fmt.Errorf("reverse lookup %s: %w", pid, err)
	}
	for _, v := range missing {
		ids := resolved[v]
		out[v] = ids
		if err := cache.SetJSON(ctx, idx.cache, identifierCacheKey(pid, v), ids, IdentifierTTL); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func identifierCacheKey(pid, value string) string {
	return "unique_id:" + pid + ":" + value
}
