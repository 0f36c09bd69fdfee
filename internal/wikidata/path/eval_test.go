package path

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wikirecon/reconcile/internal/wikidata/store"
	"github.com/wikirecon/reconcile/internal/wikidata/value"
)

type fakeEntities struct {
	byID map[string]store.Entity
}

func (f fakeEntities) GetEntity(_ context.Context, id string) (store.Entity, error) {
	return f.byID[id], nil
}

func TestStep_Leaf(t *testing.T) {
	e := store.Entity{
		ID: "Q42",
		Claims: map[string][]store.Claim{
			"P31": {{Property: "P31", Value: value.ItemValue{ID: "Q5"}, Rank: store.RankNormal}},
		},
	}
	node, err := Parse("P31")
	require.NoError(t, err)
	vals, err := Step(context.Background(), node, e, DefaultOptions, nil)
	require.NoError(t, err)
	require.Len(t, vals, 1)
	assert.Equal(t, value.ItemValue{ID: "Q5"}, vals[0])
}

func TestStep_BestRankFiltersToTopRank(t *testing.T) {
	e := store.Entity{
		Claims: map[string][]store.Claim{
			"P69": {
				{Value: value.StringValue{Value: "preferred"}, Rank: store.RankPreferred},
				{Value: value.StringValue{Value: "normal"}, Rank: store.RankNormal},
			},
		},
	}
	node, err := Parse("P69")
	require.NoError(t, err)
	vals, err := Step(context.Background(), node, e, Options{Rank: "best", References: "any"}, nil)
	require.NoError(t, err)
	require.Len(t, vals, 1)
	assert.Equal(t, value.StringValue{Value: "preferred"}, vals[0])
}

func TestStep_Qualifier(t *testing.T) {
	e := store.Entity{
		Claims: map[string][]store.Claim{
			"P31": {{
				Value: value.ItemValue{ID: "Q5"},
				Qualifiers: map[string][]value.Value{
					"P642": {value.ItemValue{ID: "Q123"}},
				},
			}},
		},
	}
	node, err := Parse("P31_P642")
	require.NoError(t, err)
	vals, err := Step(context.Background(), node, e, DefaultOptions, nil)
	require.NoError(t, err)
	require.Len(t, vals, 1)
	assert.Equal(t, value.ItemValue{ID: "Q123"}, vals[0])
}

func TestStep_Term(t *testing.T) {
	e := store.Entity{Labels: map[string]string{"en": "Douglas Adams"}}
	node, err := Parse("Len")
	require.NoError(t, err)
	vals, err := Step(context.Background(), node, e, DefaultOptions, nil)
	require.NoError(t, err)
	require.Len(t, vals, 1)
	assert.Equal(t, value.StringValue{Value: "Douglas Adams"}, vals[0])
}

func TestStep_Concat_TraversesThroughEntities(t *testing.T) {
	entities := fakeEntities{byID: map[string]store.Entity{
		"Q5": {ID: "Q5", Labels: map[string]string{"en": "human"}},
	}}
	e := store.Entity{
		Claims: map[string][]store.Claim{
			"P31": {{Value: value.ItemValue{ID: "Q5"}}},
		},
	}
	node, err := Parse("P31/Len")
	require.NoError(t, err)
	vals, err := Step(context.Background(), node, e, DefaultOptions, entities)
	require.NoError(t, err)
	require.Len(t, vals, 1)
	assert.Equal(t, value.StringValue{Value: "human"}, vals[0])
}

func TestStep_Subfield(t *testing.T) {
	e := store.Entity{
		Claims: map[string][]store.Claim{
			"P625": {{Value: value.CoordsValue{Latitude: 48.8, Longitude: 2.3}}},
		},
	}
	node, err := Parse("P625@lat")
	require.NoError(t, err)
	vals, err := Step(context.Background(), node, e, DefaultOptions, nil)
	require.NoError(t, err)
	require.Len(t, vals, 1)
	assert.Equal(t, value.QuantityValue{Amount: 48.8}, vals[0])
}

func TestStep_Disjunct_UnionsResults(t *testing.T) {
	e := store.Entity{
		Claims: map[string][]store.Claim{
			"P21": {{Value: value.ItemValue{ID: "Q6581097"}}},
		},
	}
	node, err := Parse("P21|P91")
	require.NoError(t, err)
	vals, err := Step(context.Background(), node, e, DefaultOptions, nil)
	require.NoError(t, err)
	require.Len(t, vals, 1)
}

type fakeIdentifierPropertySet struct {
	idents map[string]bool
}

func (f fakeIdentifierPropertySet) IsIdentifier(_ context.Context, pid string) (bool, error) {
	return f.idents[pid], nil
}

func TestIsUniqueIdentifier(t *testing.T) {
	idents := fakeIdentifierPropertySet{idents: map[string]bool{"P213": true}}

	leaf, _ := Parse("P213")
	ok, err := IsUniqueIdentifier(context.Background(), leaf, idents)
	require.NoError(t, err)
	assert.True(t, ok)

	notAnIdentifier, _ := Parse("P31")
	ok, err = IsUniqueIdentifier(context.Background(), notAnIdentifier, idents)
	require.NoError(t, err)
	assert.False(t, ok, "a Leaf over a non-identifier property is not a unique identifier")

	qualifier, _ := Parse("P31_P642")
	ok, err = IsUniqueIdentifier(context.Background(), qualifier, idents)
	require.NoError(t, err)
	assert.False(t, ok)

	term, _ := Parse("Len")
	ok, err = IsUniqueIdentifier(context.Background(), term, idents)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEndsWithIdentifier(t *testing.T) {
	leaf, _ := Parse("P213")
	assert.True(t, EndsWithIdentifier(leaf))

	concat, _ := Parse("P31/P213")
	assert.True(t, EndsWithIdentifier(concat))

	term, _ := Parse("Len")
	assert.False(t, EndsWithIdentifier(term))

	isodate, _ := Parse("P569@isodate")
	assert.True(t, EndsWithIdentifier(isodate))

	lat, _ := Parse("P625@lat")
	assert.False(t, EndsWithIdentifier(lat))
}
