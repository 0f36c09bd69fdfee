package store

import (
	"context"
	"fmt"
	"time"
)

// IdentifierPropertyTTL is how long the identifier-property set stays
// cached; the set of unique-identifier properties changes far more rarely
// than any individual entity, so a multi-day TTL is cheap insurance
// against a stampede of identical graph queries.
const IdentifierPropertyTTL = 48 * time.Hour

// identifierSetCacheKey is the single Redis set every unique-identifier
// property id is recorded under.
const identifierSetCacheKey = "identifier_properties"

// IdentifierPropertyFetcher resolves the full set of properties registered
// as unique external identifiers, via the upstream graph endpoint.
type IdentifierPropertyFetcher interface {
	IdentifierProperties(ctx context.Context) ([]string, error)
}

// IdentifierSet answers "is pid a unique external identifier property" by
// caching the full property set as a Redis set and testing membership
// against it, the same shape as TypeMatcher's subclass-closure cache, but
// keyed once globally rather than per target entity.
type IdentifierSet struct {
	fetcher IdentifierPropertyFetcher
	cache   Cache
}

func NewIdentifierSet(fetcher IdentifierPropertyFetcher, c Cache) *IdentifierSet {
	return &IdentifierSet{fetcher: fetcher, cache: c}
}

// IsIdentifier reports whether pid (e.g. "P214") is registered upstream as
// a unique external identifier property.
func (s *IdentifierSet) IsIdentifier(ctx context.Context, pid string) (bool, error) {
	populated, err := s.cache.SIsMember(ctx, identifierSetCacheKey, populatedSentinel)
	if err != nil {
		return false, err
	}
	if !populated {
		if err := s.populate(ctx); err != nil {
			return false, err
		}
	}
	return s.cache.SIsMember(ctx, identifierSetCacheKey, pid)
}

// Warm pre-fetches and caches the identifier property set, so the first
// real reconciliation query doesn't pay the graph-query latency. It's a
// no-op if the set is already cached.
func (s *IdentifierSet) Warm(ctx context.Context) error {
	populated, err := s.cache.SIsMember(ctx, identifierSetCacheKey, populatedSentinel)
	if err != nil {
		return err
	}
	if populated {
		return nil
	}
	return s.populate(ctx)
}

func (s *IdentifierSet) populate(ctx context.Context) error {
	pids, err := s.fetcher.IdentifierProperties(ctx)
	if err != nil {
		return fmt.Errorf("fetch identifier property set: %w", err)
	}
	if err := s.cache.SAdd(ctx, identifierSetCacheKey, append(pids, populatedSentinel)...); err != nil {
		return err
	}
	return s.cache.Expire(ctx, identifierSetCacheKey, IdentifierPropertyTTL)
}
