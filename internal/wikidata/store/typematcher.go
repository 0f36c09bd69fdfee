package store

import (
	"context"
	"fmt"
	"time"
)

// SubclassTTL is how long a resolved subclass closure stays cached; it
// changes rarely enough that a day-long TTL is cheap insurance against a
// stampede of identical graph queries.
const SubclassTTL = 24 * time.Hour

// ClosureFetcher resolves the transitive subclass closure of a class
// entity, via the upstream graph endpoint.
type ClosureFetcher interface {
	SubclassClosure(ctx context.Context, qid string) ([]string, error)
}

// TypeMatcher answers "is class X (transitively) a subclass of class Y"
// by caching each class's full subclass closure as a Redis set and testing
// membership against it, rather than re-querying the graph endpoint for
// every candidate.
type TypeMatcher struct {
	fetcher ClosureFetcher
	cache   Cache
}

// Cache is the subset of cache.Cache the type matcher needs; kept narrow
// so tests can supply a minimal fake.
type Cache interface {
	SAdd(ctx context.Context, key string, members ...string) error
	SIsMember(ctx context.Context, key, member string) (bool, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
}

func NewTypeMatcher(fetcher ClosureFetcher, c Cache) *TypeMatcher {
	return &TypeMatcher{fetcher: fetcher, cache: c}
}

// populatedSentinel is kept as a member of every closure set once it has
// been fetched, so a later lookup that's genuinely not in the set can be
// told apart from a closure that simply hasn't been fetched yet.
const populatedSentinel = "\x00populated"

// IsSubclass reports whether candidate is target or a transitive subclass
// of it (via P279*).
func (m *TypeMatcher) IsSubclass(ctx context.Context, candidate, target string) (bool, error) {
	if candidate == target {
		return true, nil
	}
	key := childrenCacheKey(target)
	populated, err := m.cache.SIsMember(ctx, key, populatedSentinel)
	if err != nil {
		return false, err
	}
	if !populated {
		if err := m.populate(ctx, target); err != nil {
			return false, err
		}
	}
	return m.cache.SIsMember(ctx, key, candidate)
}

// WarmClosure pre-fetches and caches target's subclass closure, so the
// first real IsSubclass call against it doesn't pay the graph-query
// latency. It's a no-op if the closure is already cached.
func (m *TypeMatcher) WarmClosure(ctx context.Context, target string) error {
	key := childrenCacheKey(target)
	populated, err := m.cache.SIsMember(ctx, key, populatedSentinel)
	if err != nil {
		return err
	}
	if populated {
		return nil
	}
	return m.populate(ctx, target)
}

func (m *TypeMatcher) populate(ctx context.Context, target string) error {
	children, err := m.fetcher.SubclassClosure(ctx, target)
	if err != nil {
		return fmt.Errorf("fetch subclass closure of %s: %w", target, err)
	}
	key := childrenCacheKey(target)
	if err := m.cache.SAdd(ctx, key, append(children, populatedSentinel)...); err != nil {
		return err
	}
	return m.cache.Expire(ctx, key, SubclassTTL)
}

func childrenCacheKey(qid string) string {
	return "children:" + qid
}
