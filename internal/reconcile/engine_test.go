package reconcile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wikirecon/reconcile/internal/wikidata/store"
	"github.com/wikirecon/reconcile/internal/wikidata/value"
)

type fakeEntityGetter struct {
	entities map[string]store.Entity
}

func (f *fakeEntityGetter) GetEntities(_ context.Context, ids []string) (map[string]store.Entity, error) {
	out := make(map[string]store.Entity, len(ids))
	for _, id := range ids {
		out[id] = f.entities[id]
	}
	return out, nil
}

func (f *fakeEntityGetter) GetEntity(_ context.Context, id string) (store.Entity, error) {
	return f.entities[id], nil
}

func (f *fakeEntityGetter) ItemStrings(_ context.Context, id string) ([]string, []string, error) {
	e := f.entities[id]
	labels := make([]string, 0, len(e.Labels))
	for _, l := range e.Labels {
		labels = append(labels, l)
	}
	return labels, nil, nil
}

func (f *fakeEntityGetter) Label(_ context.Context, id, lang string) (string, error) {
	return f.entities[id].Label(lang), nil
}

type fakeTypeChecker struct {
	closures map[string]map[string]bool
}

func (f *fakeTypeChecker) IsSubclass(_ context.Context, candidate, target string) (bool, error) {
	if candidate == target {
		return true, nil
	}
	return f.closures[target][candidate], nil
}

type fakeSitelinkLookup struct{}

func (fakeSitelinkLookup) Resolve(_ context.Context, _ string) (string, bool, error) {
	return "", false, nil
}

type fakeIdentifierLookup struct {
	byPid map[string]map[string][]string
}

func (f *fakeIdentifierLookup) FetchQidsByValues(_ context.Context, pid string, values []string) (map[string][]string, error) {
	out := map[string][]string{}
	for _, v := range values {
		if ids, ok := f.byPid[pid][v]; ok {
			out[v] = ids
		}
	}
	return out, nil
}

type fakeSearcher struct {
	results          []string
	autocompleteOnly []string
}

func (f *fakeSearcher) Search(_ context.Context, _ string, _ int) ([]string, error) {
	return f.results, nil
}

func (f *fakeSearcher) SearchEntities(_ context.Context, _, _ string, _ int) ([]string, error) {
	return f.autocompleteOnly, nil
}

// fakeIdentifierSet treats every pid in idents (already "Pxxx"-prefixed)
// as a registered unique external identifier property, matching
// store.IdentifierSet's IsIdentifier contract.
type fakeIdentifierSet struct {
	idents map[string]bool
}

func (f *fakeIdentifierSet) IsIdentifier(_ context.Context, pid string) (bool, error) {
	return f.idents[pid], nil
}

func douglasAdams() store.Entity {
	return store.Entity{
		ID:     "Q42",
		Labels: map[string]string{"en": "Douglas Adams"},
		Claims: map[string][]store.Claim{
			"P31": {{Property: "P31", Value: value.ItemValue{ID: "Q5"}, Rank: store.RankNormal}},
			"P569": {{Property: "P569", Value: value.TimeValue{Year: 1952, Month: 3, Day: 11, Precision: 11}, Rank: store.RankNormal}},
		},
	}
}

func someBook() store.Entity {
	return store.Entity{
		ID:     "Q3107329",
		Labels: map[string]string{"en": "The Hitchhiker's Guide to the Galaxy"},
		Claims: map[string][]store.Claim{
			"P31": {{Property: "P31", Value: value.ItemValue{ID: "Q571"}, Rank: store.RankNormal}},
		},
	}
}

func newTestEngine(t *testing.T, extraIDs ...string) (*Engine, *fakeEntityGetter) {
	t.Helper()
	entities := map[string]store.Entity{
		"Q42":      douglasAdams(),
		"Q3107329": someBook(),
	}
	eg := &fakeEntityGetter{entities: entities}
	tc := &fakeTypeChecker{closures: map[string]map[string]bool{
		"Q5": {"Q5": true},
	}}
	engine := NewEngine(eg, tc, fakeSitelinkLookup{}, &fakeIdentifierLookup{}, &fakeIdentifierSet{}, &fakeSearcher{results: append([]string{"Q42", "Q3107329"}, extraIDs...)}, Config{
		ValidationThreshold: 40,
	})
	return engine, eg
}

func TestProcessQuery_UniqueIDShortCircuitsToScore100(t *testing.T) {
	entities := map[string]store.Entity{"Q42": douglasAdams()}
	eg := &fakeEntityGetter{entities: entities}
	tc := &fakeTypeChecker{}
	ids := &fakeIdentifierLookup{byPid: map[string]map[string][]string{
		"P214": {"113230702": {"Q42"}},
	}}
	identSet := &fakeIdentifierSet{idents: map[string]bool{"P214": true}}
	engine := NewEngine(eg, tc, fakeSitelinkLookup{}, ids, identSet, &fakeSearcher{}, Config{ValidationThreshold: 40})

	cands, err := engine.ProcessQuery(context.Background(), Query{
		Query: "Douglas Adams",
		Properties: []PropertyQuery{
			{Pid: "P214", V: "113230702"},
		},
	})
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.Equal(t, "Q42", cands[0].ID)
	assert.Equal(t, 100, cands[0].Score)
	assert.True(t, cands[0].Match)
}

func TestProcessQuery_SearchConcatenatesNamespaceAndAutocompleteDeduped(t *testing.T) {
	entities := map[string]store.Entity{
		"Q42":      douglasAdams(),
		"Q3107329": someBook(),
	}
	eg := &fakeEntityGetter{entities: entities}
	tc := &fakeTypeChecker{closures: map[string]map[string]bool{"Q5": {"Q5": true}}}
	searcher := &fakeSearcher{
		results:          []string{"Q42", "Q3107329"},
		autocompleteOnly: []string{"Q3107329", "Q42"},
	}
	engine := NewEngine(eg, tc, fakeSitelinkLookup{}, &fakeIdentifierLookup{}, &fakeIdentifierSet{}, searcher, Config{
		ValidationThreshold: 40,
	})

	cands, err := engine.ProcessQuery(context.Background(), Query{Query: "Douglas Adams", Limit: 5})
	require.NoError(t, err)
	// Q42 appears in both the namespace search and the autocomplete search,
	// and must surface as a single candidate, namespace-first order.
	require.Len(t, cands, 2)
	assert.Equal(t, "Q42", cands[0].ID)
}

func TestProcessQuery_SearchFallbackScoresByLabel(t *testing.T) {
	engine, _ := newTestEngine(t)
	cands, err := engine.ProcessQuery(context.Background(), Query{
		Query: "Douglas Adams",
		Limit: 5,
	})
	require.NoError(t, err)
	require.NotEmpty(t, cands)
	assert.Equal(t, "Q42", cands[0].ID)
	assert.Greater(t, cands[0].Score, cands[len(cands)-1].Score)
}

func TestProcessQuery_TypeConstraintPrefersTypedCandidates(t *testing.T) {
	engine, _ := newTestEngine(t)
	cands, err := engine.ProcessQuery(context.Background(), Query{
		Query: "Douglas Adams",
		Type:  "Q5",
		Limit: 5,
	})
	require.NoError(t, err)
	require.NotEmpty(t, cands)
	for _, c := range cands {
		assert.Equal(t, "Q42", c.ID)
	}
}

func TestProcessQuery_AvoidClassExcludesCandidate(t *testing.T) {
	entities := map[string]store.Entity{"Q42": douglasAdams()}
	eg := &fakeEntityGetter{entities: entities}
	tc := &fakeTypeChecker{closures: map[string]map[string]bool{
		"Q5": {"Q5": true},
	}}
	engine := NewEngine(eg, tc, fakeSitelinkLookup{}, &fakeIdentifierLookup{}, &fakeIdentifierSet{}, &fakeSearcher{results: []string{"Q42"}}, Config{
		ValidationThreshold: 40,
		AvoidClassID:        "Q5",
	})
	cands, err := engine.ProcessQuery(context.Background(), Query{Query: "Douglas Adams"})
	require.NoError(t, err)
	assert.Empty(t, cands)
}

func TestProcessQuery_QidInQueryResolvesDirectly(t *testing.T) {
	engine, _ := newTestEngine(t)
	cands, err := engine.ProcessQuery(context.Background(), Query{Query: "Q42"})
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.Equal(t, "Q42", cands[0].ID)
}
