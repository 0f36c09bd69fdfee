package reconcile

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/wikirecon/reconcile/internal/wikidata/path"
	"github.com/wikirecon/reconcile/internal/wikidata/store"
	"github.com/wikirecon/reconcile/internal/wikidata/value"
)

// DefaultNumResults is used when a query doesn't specify a limit.
const DefaultNumResults = 25

// MatchScoreGap is the minimum lead the top candidate must hold over the
// runner-up before it's flagged as an automatic match.
const MatchScoreGap = 10

// ValidationThresholdDiscountPerProperty reduces the auto-match score
// floor by this much for every property the query supplies: a query
// backed by more corroborating properties can clear a slightly lower
// score and still be trusted.
const ValidationThresholdDiscountPerProperty = 5

// EntityGetter is every entity-store capability the engine needs: batched
// and single-id entity fetch, plus the value.Lookup methods a claim value
// needs to score itself.
type EntityGetter interface {
	GetEntities(ctx context.Context, ids []string) (map[string]store.Entity, error)
	GetEntity(ctx context.Context, id string) (store.Entity, error)
	ItemStrings(ctx context.Context, id string) ([]string, []string, error)
	Label(ctx context.Context, id, lang string) (string, error)
}

// TypeChecker answers subclass-closure membership queries.
type TypeChecker interface {
	IsSubclass(ctx context.Context, candidate, target string) (bool, error)
}

// SitelinkLookup resolves a sitelink URL to the entity id it belongs to.
type SitelinkLookup interface {
	Resolve(ctx context.Context, rawURL string) (string, bool, error)
}

// IdentifierLookup resolves identifier property values back to entity ids.
type IdentifierLookup interface {
	FetchQidsByValues(ctx context.Context, pid string, values []string) (map[string][]string, error)
}

// IdentifierPropertyChecker answers whether a property id is registered
// upstream as a unique external identifier, gating the unique-identifier
// fan-in fast path in ProcessQueries.
type IdentifierPropertyChecker interface {
	IsIdentifier(ctx context.Context, pid string) (bool, error)
}

// Searcher runs upstream full-text search over entity labels/aliases: a
// namespace search and a separate label/alias autocomplete, fired in
// parallel and concatenated, since the two surface different candidates
// for the same query string.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]string, error)
	SearchEntities(ctx context.Context, query, lang string, limit int) ([]string, error)
}

// Config carries the engine's tunable thresholds, sourced from
// configuration at startup.
type Config struct {
	DefaultNumResults     int
	WdAPIMaxSearchResults int
	ValidationThreshold   int
	AvoidClassID          string
	DefaultLanguage       string
}

// Engine is the reconciliation engine: candidate discovery plus scoring
// against a query's type and property constraints.
type Engine struct {
	entities      EntityGetter
	types         TypeChecker
	sitelinks     SitelinkLookup
	identifiers   IdentifierLookup
	identifierSet IdentifierPropertyChecker
	searcher      Searcher
	cfg           Config
}

func NewEngine(entities EntityGetter, types TypeChecker, sitelinks SitelinkLookup, identifiers IdentifierLookup, identifierSet IdentifierPropertyChecker, searcher Searcher, cfg Config) *Engine {
	if cfg.DefaultNumResults == 0 {
		cfg.DefaultNumResults = DefaultNumResults
	}
	if cfg.DefaultLanguage == "" {
		cfg.DefaultLanguage = "en"
	}
	return &Engine{entities: entities, types: types, sitelinks: sitelinks, identifiers: identifiers, identifierSet: identifierSet, searcher: searcher, cfg: cfg}
}

func (e *Engine) prepareProperties(ctx context.Context, props []PropertyQuery) ([]preparedProperty, error) {
	out := make([]preparedProperty, 0, len(props))
	for _, p := range props {
		node, err := path.Parse(p.Pid)
		if err != nil {
			return nil, BadArgument(fmt.Sprintf("invalid property path %q: %v", p.Pid, err), map[string]string{"pid": p.Pid})
		}
		isUniqueID, err := path.IsUniqueIdentifier(ctx, node, e.identifierSet)
		if err != nil {
			return nil, UpstreamError("check identifier property", err)
		}
		out = append(out, preparedProperty{
			PropertyQuery: p,
			Path:          node,
			IsUniqueID:    isUniqueID,
			EndsWithID:    path.EndsWithIdentifier(node),
			Weight:        propertyWeight,
		})
	}
	return out, nil
}

// ProcessQueries resolves every query in the batch, fanning the unique
// identifier property lookups across the whole batch in a single round
// trip per property before scoring each query's candidates independently.
func (e *Engine) ProcessQueries(ctx context.Context, queries []Query) ([][]Candidate, error) {
	prepared := make([][]preparedProperty, len(queries))
	for i, q := range queries {
		props, err := e.prepareProperties(ctx, q.Properties)
		if err != nil {
			return nil, err
		}
		prepared[i] = props
	}

	uniqueIDValues := map[string]map[string]bool{}
	for _, props := range prepared {
		for _, p := range props {
			if !p.IsUniqueID {
				continue
			}
			pid := p.Path.String()
			if uniqueIDValues[pid] == nil {
				uniqueIDValues[pid] = map[string]bool{}
			}
			uniqueIDValues[pid][p.V] = true
		}
	}

	resolved := map[string]map[string][]string{}
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for pid, valueSet := range uniqueIDValues {
		pid, valueSet := pid, valueSet
		g.Go(func() error {
			values := make([]string, 0, len(valueSet))
			for v := range valueSet {
				values = append(values, v)
			}
			m, err := e.identifiers.FetchQidsByValues(gctx, pid, values)
			if err != nil {
				return UpstreamError("fetch identifier fan-in", err)
			}
			mu.Lock()
			resolved[pid] = m
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	results := make([][]Candidate, len(queries))
	for i, q := range queries {
		cands, err := e.processOne(ctx, q, prepared[i], resolved)
		if err != nil {
			return nil, err
		}
		results[i] = cands
	}
	return results, nil
}

// ProcessQuery is the single-query convenience wrapper around
// ProcessQueries.
func (e *Engine) ProcessQuery(ctx context.Context, q Query) ([]Candidate, error) {
	out, err := e.ProcessQueries(ctx, []Query{q})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (e *Engine) processOne(ctx context.Context, q Query, props []preparedProperty, resolved map[string]map[string][]string) ([]Candidate, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = e.cfg.DefaultNumResults
	}

	candidateIDs, uniqueMatches, err := e.discoverCandidates(ctx, q, props, resolved)
	if err != nil {
		return nil, err
	}
	if len(candidateIDs) == 0 {
		return nil, nil
	}

	entities, err := e.entities.GetEntities(ctx, candidateIDs)
	if err != nil {
		return nil, UpstreamError("prefetch candidate entities", err)
	}

	var typed, untyped []Candidate
	for _, id := range candidateIDs {
		entity, ok := entities[id]
		if !ok {
			continue
		}
		cand, isTyped, avoided, err := e.scoreCandidate(ctx, q, entity, props, uniqueMatches[id])
		if err != nil {
			return nil, err
		}
		if avoided {
			continue
		}
		if q.Type == "" || isTyped {
			typed = append(typed, cand)
		} else {
			cand.Score = int(math.Round(float64(cand.Score) / 2))
			untyped = append(untyped, cand)
		}
	}

	bucket := typed
	if len(bucket) == 0 {
		bucket = untyped
	}

	sort.SliceStable(bucket, func(i, j int) bool {
		if bucket[i].Score != bucket[j].Score {
			return bucket[i].Score > bucket[j].Score
		}
		return qidNumber(bucket[i].ID) < qidNumber(bucket[j].ID)
	})

	discountedThreshold := e.cfg.ValidationThreshold - ValidationThresholdDiscountPerProperty*len(props)
	if len(bucket) > 0 {
		current := bucket[0].Score
		clearsGap := len(bucket) == 1 || current > bucket[1].Score+MatchScoreGap
		bucket[0].Match = current > discountedThreshold && clearsGap
	}

	if len(bucket) > limit {
		bucket = bucket[:limit]
	}

	return bucket, nil
}

func (e *Engine) discoverCandidates(ctx context.Context, q Query, props []preparedProperty, resolved map[string]map[string][]string) ([]string, map[string]bool, error) {
	uniqueMatches := map[string]bool{}
	var ids []string
	seen := map[string]bool{}

	for _, p := range props {
		if !p.IsUniqueID {
			continue
		}
		pid := p.Path.String()
		for _, id := range resolved[pid][p.V] {
			uniqueMatches[id] = true
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	if len(ids) > 0 {
		return ids, uniqueMatches, nil
	}

	if qid, ok := value.ParseQid(q.Query); ok {
		return []string{qid}, uniqueMatches, nil
	}

	if id, ok, err := e.sitelinks.Resolve(ctx, q.Query); err != nil {
		return nil, nil, UpstreamError("resolve sitelink", err)
	} else if ok {
		return []string{id}, uniqueMatches, nil
	}

	requestLimit := q.Limit
	if requestLimit <= 0 {
		requestLimit = e.cfg.DefaultNumResults
	}
	upstreamCap := e.cfg.WdAPIMaxSearchResults
	if upstreamCap <= 0 {
		upstreamCap = 50
	}
	searchLimit := 2 * requestLimit
	if searchLimit > upstreamCap {
		searchLimit = upstreamCap
	}

	var namespaceResults, autocompleteResults []string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		found, err := e.searcher.Search(gctx, q.Query, searchLimit)
		if err != nil {
			return err
		}
		namespaceResults = found
		return nil
	})
	g.Go(func() error {
		found, err := e.searcher.SearchEntities(gctx, q.Query, e.cfg.DefaultLanguage, searchLimit)
		if err != nil {
			return err
		}
		autocompleteResults = found
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, UpstreamError("search candidates", err)
	}

	foundSeen := map[string]bool{}
	found := make([]string, 0, len(namespaceResults)+len(autocompleteResults))
	for _, id := range namespaceResults {
		if !foundSeen[id] {
			foundSeen[id] = true
			found = append(found, id)
		}
	}
	for _, id := range autocompleteResults {
		if !foundSeen[id] {
			foundSeen[id] = true
			found = append(found, id)
		}
	}
	if len(found) > searchLimit {
		found = found[:searchLimit]
	}
	return found, uniqueMatches, nil
}

func (e *Engine) scoreCandidate(ctx context.Context, q Query, entity store.Entity, props []preparedProperty, isUniqueMatch bool) (Candidate, bool, bool, error) {
	cand := Candidate{
		ID:          entity.ID,
		Name:        entity.Label(e.cfg.DefaultLanguage),
		Description: entity.Descriptions[e.cfg.DefaultLanguage],
	}

	typed := q.Type == ""
	avoided := false
	for _, inst := range entity.Claims["P31"] {
		item, ok := inst.Value.(value.ItemValue)
		if !ok {
			continue
		}
		if e.cfg.AvoidClassID != "" {
			if yes, err := e.types.IsSubclass(ctx, item.ID, e.cfg.AvoidClassID); err != nil {
				return Candidate{}, false, false, UpstreamError("check avoid-type gate", err)
			} else if yes {
				avoided = true
			}
		}
		if q.Type != "" {
			if yes, err := e.types.IsSubclass(ctx, item.ID, q.Type); err != nil {
				return Candidate{}, false, false, UpstreamError("check type gate", err)
			} else if yes {
				typed = true
				cand.Types = append(cand.Types, MatchedType{ID: item.ID, Name: e.labelOrID(ctx, item.ID)})
			}
		}
	}
	if avoided {
		return cand, typed, true, nil
	}

	if isUniqueMatch {
		cand.Score = 100
		return cand, typed, false, nil
	}

	lookup := lookupAdapter{entities: e.entities, sitelinks: e.sitelinks}
	sum := 0.0
	allLabelsScore := 0
	for _, label := range entity.AllLabels() {
		if s := value.FuzzyMatchStrings(q.Query, label); s > allLabelsScore {
			allLabelsScore = s
		}
	}
	sum += allLabelsWeight * float64(allLabelsScore)
	totalWeight := allLabelsWeight

	for _, p := range props {
		values, err := path.Step(ctx, p.Path, entity, path.DefaultOptions, entityGetterAdapter{e.entities})
		if err != nil {
			return Candidate{}, false, false, UpstreamError("evaluate property path", err)
		}
		best := 0
		for _, v := range values {
			score, err := v.MatchWithStr(ctx, p.V, lookup)
			if err != nil {
				return Candidate{}, false, false, UpstreamError("score claim value", err)
			}
			if score > best {
				best = score
			}
		}
		sum += p.Weight * float64(best)
		totalWeight += p.Weight
	}

	if totalWeight > 0 {
		cand.Score = int(math.Round(sum / totalWeight))
	}
	return cand, typed, false, nil
}

func (e *Engine) labelOrID(ctx context.Context, id string) string {
	label, err := e.entities.Label(ctx, id, e.cfg.DefaultLanguage)
	if err != nil || label == "" {
		return id
	}
	return label
}

// entityGetterAdapter narrows EntityGetter down to path.EntityGetter.
type entityGetterAdapter struct {
	e EntityGetter
}

func (a entityGetterAdapter) GetEntity(ctx context.Context, id string) (store.Entity, error) {
	return a.e.GetEntity(ctx, id)
}

// lookupAdapter composes EntityGetter and SitelinkLookup into a single
// value.Lookup, since no single dependency the engine holds implements
// all three methods itself.
type lookupAdapter struct {
	entities  EntityGetter
	sitelinks SitelinkLookup
}

func (a lookupAdapter) ItemStrings(ctx context.Context, id string) ([]string, []string, error) {
	return a.entities.ItemStrings(ctx, id)
}

func (a lookupAdapter) Label(ctx context.Context, id, lang string) (string, error) {
	return a.entities.Label(ctx, id, lang)
}

func (a lookupAdapter) ResolveSitelink(ctx context.Context, rawURL string) (string, bool, error) {
	return a.sitelinks.Resolve(ctx, rawURL)
}

func qidNumber(id string) int {
	n, err := strconv.Atoi(strings.TrimPrefix(id, "Q"))
	if err != nil {
		return math.MaxInt32
	}
	return n
}
