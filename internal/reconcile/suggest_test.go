package reconcile

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wikirecon/reconcile/internal/wikidata/store"
	"github.com/wikirecon/reconcile/internal/wikidata/value"
)

type fakeClassSearcher struct {
	ids []string
}

func (f *fakeClassSearcher) Search(_ context.Context, _ string, _ int) ([]string, error) {
	return f.ids, nil
}

type fakePropertyGraph struct {
	superclasses map[string][]string
	propsForType map[string][]string
}

func (f *fakePropertyGraph) Superclasses(_ context.Context, qid string) ([]string, error) {
	return f.superclasses[qid], nil
}

func (f *fakePropertyGraph) ClassesWithProperty(_ context.Context, _ string, classID string) ([]string, error) {
	return f.propsForType[classID], nil
}

func TestSuggestEngine_FindType(t *testing.T) {
	eg := &fakeEntityGetter{entities: map[string]store.Entity{
		"Q5": {ID: "Q5", Labels: map[string]string{"en": "human"}, Descriptions: map[string]string{"en": "common name of Homo sapiens"}},
	}}
	searcher := &fakeClassSearcher{ids: []string{"Q5"}}
	engine := NewSuggestEngine(eg, searcher, &fakePropertyGraph{}, SuggestConfig{})

	items, err := engine.FindType(context.Background(), "huma", 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Q5", items[0].ID)
	assert.Equal(t, "human", items[0].Name)
}

func TestSuggestEngine_FindType_EmptyPrefix(t *testing.T) {
	engine := NewSuggestEngine(&fakeEntityGetter{}, &fakeClassSearcher{}, &fakePropertyGraph{}, SuggestConfig{})
	items, err := engine.FindType(context.Background(), "   ", 10)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestSuggestEngine_Preview_UsesImageProperty(t *testing.T) {
	eg := &fakeEntityGetter{entities: map[string]store.Entity{
		"Q42": {
			ID:           "Q42",
			Labels:       map[string]string{"en": "Douglas Adams"},
			Descriptions: map[string]string{"en": "English writer and humorist"},
			Claims: map[string][]store.Claim{
				"P18": {{Property: "P18", Value: value.MediaValue{Filename: "Douglas adams portrait.jpg"}}},
			},
		},
	}}
	engine := NewSuggestEngine(eg, &fakeClassSearcher{}, &fakePropertyGraph{}, SuggestConfig{
		ImageProperties: []string{"P18"},
		PreviewWidth:    200,
	})

	html, err := engine.Preview(context.Background(), "Q42")
	require.NoError(t, err)
	assert.True(t, strings.Contains(html, "Douglas Adams"))
	assert.True(t, strings.Contains(html, "Special:FilePath"))
}

func TestSuggestEngine_Preview_FallsBackToPlaceholder(t *testing.T) {
	eg := &fakeEntityGetter{entities: map[string]store.Entity{
		"Q1": {ID: "Q1", Labels: map[string]string{"en": "universe"}},
	}}
	engine := NewSuggestEngine(eg, &fakeClassSearcher{}, &fakePropertyGraph{}, SuggestConfig{
		FallbackImageURL: "https://example.org/placeholder.png",
	})

	html, err := engine.Preview(context.Background(), "Q1")
	require.NoError(t, err)
	assert.True(t, strings.Contains(html, "placeholder.png"))
}

func TestSuggestEngine_ProposeProperties_WalksSuperclasses(t *testing.T) {
	graph := &fakePropertyGraph{
		superclasses: map[string][]string{
			"Q5": {"Q215627"},
		},
		propsForType: map[string][]string{
			"Q5":      {"P21"},
			"Q215627": {"P31"},
		},
	}
	engine := NewSuggestEngine(&fakeEntityGetter{}, &fakeClassSearcher{}, graph, SuggestConfig{PropertyForThisType: "P1963"})

	props, err := engine.ProposeProperties(context.Background(), "Q5", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"P21", "P31"}, props)
}
