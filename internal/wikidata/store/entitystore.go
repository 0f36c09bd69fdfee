package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wikirecon/reconcile/internal/cache"
	"github.com/wikirecon/reconcile/internal/wikidata/upstream"
)

// EntityTTL is how long a minified entity stays in the shared cache.
const EntityTTL = time.Hour

// EntityFetcher is the upstream dependency the entity store needs: a
// batched wbgetentities call. Defined on the consumer side so this
// package's tests can supply a fake instead of a live *upstream.Client.
type EntityFetcher interface {
	GetEntities(ctx context.Context, ids []string) (map[string]upstream.Entity, error)
}

// EntityStore is the batched, cached, process-memoized read path onto the
// upstream knowledge base's entities. Every other package that needs
// entity data goes through this, never upstream.Client directly.
type EntityStore struct {
	fetcher   EntityFetcher
	cache     cache.Cache
	batchSize int

	mu   sync.RWMutex
	memo map[string]Entity
}

func NewEntityStore(fetcher EntityFetcher, c cache.Cache) *EntityStore {
	return &EntityStore{fetcher: fetcher, cache: c, batchSize: upstream.EntityBatchSize, memo: map[string]Entity{}}
}

// GetEntities resolves every id in ids, in batches of at most batchSize,
// consulting the process-local memo first, then the shared cache, then
// falling through to the upstream fetch for whatever remains.
func (s *EntityStore) GetEntities(ctx context.Context, ids []string) (map[string]Entity, error) {
	out := make(map[string]Entity, len(ids))
	var missing []string

	s.mu.RLock()
	for _, id := range ids {
		if e, ok := s.memo[id]; ok {
			out[id] = e
		} else {
			missing = append(missing, id)
		}
	}
	s.mu.RUnlock()

	var stillMissing []string
	for _, id := range missing {
		var e Entity
		found, err := cache.GetJSON(ctx, s.cache, entityCacheKey(id), &e)
		if err != nil {
			return nil, err
		}
		if found {
			out[id] = e
			s.remember(id, e)
		} else {
			stillMissing = append(stillMissing, id)
		}
	}

	for start := 0; start < len(stillMissing); start += s.batchSize {
		end := start + s.batchSize
		if end > len(stillMissing) {
			end = len(stillMissing)
		}
		batch := stillMissing[start:end]

		fetched, err := s.fetcher.GetEntities(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("fetch entities: %w", err)
		}
		for _, id := range batch {
			raw, ok := fetched[id]
			var minified Entity
			if ok && !raw.Missing {
				minified = minify(raw)
			} else {
				minified = Entity{ID: id}
			}
			out[id] = minified
			s.remember(id, minified)
			if err := cache.SetJSON(ctx, s.cache, entityCacheKey(id), minified, EntityTTL); err != nil {
				return nil, err
			}
		}
	}

	return out, nil
}

// GetEntity is the single-id convenience wrapper around GetEntities.
func (s *EntityStore) GetEntity(ctx context.Context, id string) (Entity, error) {
	m, err := s.GetEntities(ctx, []string{id})
	if err != nil {
		return Entity{}, err
	}
	return m[id], nil
}

func (s *EntityStore) remember(id string, e Entity) {
	s.mu.Lock()
	s.memo[id] = e
	s.mu.Unlock()
}

func entityCacheKey(id string) string {
	return "entity:" + id
}

// ItemStrings implements value.Lookup: it returns the labels and aliases
// recorded on an item, across every language, for fuzzy-matching an
// ItemValue against a query string.
func (s *EntityStore) ItemStrings(ctx context.Context, id string) ([]string, []string, error) {
	e, err := s.GetEntity(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	labels := make([]string, 0, len(e.Labels))
	for _, l := range e.Labels {
		labels = append(labels, l)
	}
	var aliases []string
	for _, as := range e.Aliases {
		aliases = append(aliases, as...)
	}
	return labels, aliases, nil
}

// Label implements value.Lookup: the item's label in a single language.
func (s *EntityStore) Label(ctx context.Context, id, lang string) (string, error) {
	e, err := s.GetEntity(ctx, id)
	if err != nil {
		return "", err
	}
	return e.Label(lang), nil
}

func minify(e upstream.Entity) Entity {
	out := Entity{
		ID:           e.ID,
		Labels:       e.Labels,
		Descriptions: e.Descriptions,
		Aliases:      e.Aliases,
		Sitelinks:    e.Sitelinks,
		Claims:       make(map[string][]Claim, len(e.Claims)),
	}
	for pid, claims := range e.Claims {
		converted := make([]Claim, 0, len(claims))
		for _, c := range claims {
			claim := Claim{
				Property:   c.Property,
				Value:      c.Value,
				Rank:       parseRank(c.Rank),
				Qualifiers: c.Qualifiers,
			}
			for _, ref := range c.References {
				claim.References = append(claim.References, Reference{Snaks: ref.Snaks})
			}
			converted = append(converted, claim)
		}
		sortClaimsByRank(converted)
		out.Claims[pid] = converted
	}
	return out
}

func parseRank(s string) Rank {
	switch s {
	case "preferred":
		return RankPreferred
	case "deprecated":
		return RankDeprecated
	default:
		return RankNormal
	}
}
