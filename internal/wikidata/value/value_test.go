package value

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLookup struct {
	labels    map[string][]string
	aliases   map[string][]string
	labelOne  map[string]string
	sitelinks map[string]string
}

func (f fakeLookup) ItemStrings(_ context.Context, id string) ([]string, []string, error) {
	return f.labels[id], f.aliases[id], nil
}

func (f fakeLookup) Label(_ context.Context, id, lang string) (string, error) {
	return f.labelOne[id+"@"+lang], nil
}

func (f fakeLookup) ResolveSitelink(_ context.Context, rawURL string) (string, bool, error) {
	id, ok := f.sitelinks[rawURL]
	return id, ok, nil
}

func TestParseQid(t *testing.T) {
	qid, ok := ParseQid("Q42")
	require.True(t, ok)
	assert.Equal(t, "Q42", qid)

	qid, ok = ParseQid("<http://www.wikidata.org/entity/Q42>")
	require.True(t, ok)
	assert.Equal(t, "Q42", qid)

	_, ok = ParseQid("not a qid")
	assert.False(t, ok)
}

func TestItemValue_MatchWithStr_ExactQid(t *testing.T) {
	v := ItemValue{ID: "Q42"}
	score, err := v.MatchWithStr(context.Background(), "Q42", fakeLookup{})
	require.NoError(t, err)
	assert.Equal(t, 100, score)

	score, err = v.MatchWithStr(context.Background(), "Q1", fakeLookup{})
	require.NoError(t, err)
	assert.Equal(t, 0, score)
}

func TestItemValue_MatchWithStr_LabelFuzz(t *testing.T) {
	lookup := fakeLookup{labels: map[string][]string{"Q42": {"Douglas Adams"}}}
	v := ItemValue{ID: "Q42"}
	score, err := v.MatchWithStr(context.Background(), "Douglas Adams", lookup)
	require.NoError(t, err)
	assert.Equal(t, 100, score)
}

func TestItemValue_MatchWithStr_ResolvesViaSitelink(t *testing.T) {
	lookup := fakeLookup{sitelinks: map[string]string{
		"https://en.wikipedia.org/wiki/Douglas_Adams": "Q42",
	}}
	v := ItemValue{ID: "Q42"}
	score, err := v.MatchWithStr(context.Background(), "https://en.wikipedia.org/wiki/Douglas_Adams", lookup)
	require.NoError(t, err)
	assert.Equal(t, 100, score)

	other := ItemValue{ID: "Q1"}
	score, err = other.MatchWithStr(context.Background(), "https://en.wikipedia.org/wiki/Douglas_Adams", lookup)
	require.NoError(t, err)
	assert.Equal(t, 0, score, "the sitelink resolves, but to a different entity")
}

func TestIdentifierValue_ExactOnly(t *testing.T) {
	v := IdentifierValue{Value: "0000 0004 0547 722X"}
	score, err := v.MatchWithStr(context.Background(), "0000 0004 0547 722x", nil)
	require.NoError(t, err)
	assert.Equal(t, 100, score, "identifier comparisons ignore case")

	score, err = v.MatchWithStr(context.Background(), "0000 0004 0547 7229", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, score)
}

func TestFuzzyMatchStrings_Symmetric(t *testing.T) {
	a, b := "Robert Smith", "Smith, Robert"
	assert.Equal(t, fuzzyMatchStrings(a, b), fuzzyMatchStrings(b, a))
}

func TestMatchFloats(t *testing.T) {
	assert.Equal(t, 100, matchFloats(42, 42))
	assert.Less(t, matchFloats(42, 100), 100)
	assert.Greater(t, matchFloats(42, 42.001), matchFloats(42, 50))
}

func TestQuantityValue_MatchWithStr(t *testing.T) {
	v := QuantityValue{Amount: 1969}
	score, err := v.MatchWithStr(context.Background(), "1969", nil)
	require.NoError(t, err)
	assert.Equal(t, 100, score)
}

func TestTimeValue_MatchWithStr_PrecisionGated(t *testing.T) {
	v := TimeValue{Year: 1969, Month: 7, Day: 20, Precision: 11}
	score, err := v.MatchWithStr(context.Background(), "1969-07-20", nil)
	require.NoError(t, err)
	assert.Equal(t, 100, score)

	yearOnly := TimeValue{Year: 1969, Month: 1, Day: 1, Precision: 9}
	score, err = yearOnly.MatchWithStr(context.Background(), "1969-12-31", nil)
	require.NoError(t, err)
	assert.Equal(t, 100, score, "year precision only compares the year component")
}

func TestUrlValue_MatchWithStr_CanonicalComparison(t *testing.T) {
	v := UrlValue{Value: "https://Example.com/x?y=1"}

	score, err := v.MatchWithStr(context.Background(), "http://example.com/x?y=1", nil)
	require.NoError(t, err)
	assert.Equal(t, 100, score, "scheme and host case are ignored")

	score, err = v.MatchWithStr(context.Background(), "https://example.com/other", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, score)

	score, err = v.MatchWithStr(context.Background(), "not a url at all \x7f", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, score)
}

func TestCoordsValue_MatchWithStr(t *testing.T) {
	v := CoordsValue{Latitude: 48.8584, Longitude: 2.2945}
	score, err := v.MatchWithStr(context.Background(), "48.8584,2.2945", nil)
	require.NoError(t, err)
	assert.Equal(t, 100, score)
}

func TestUndefinedValue_NeverMatches(t *testing.T) {
	v := UndefinedValue{SnakType: "novalue"}
	assert.True(t, v.Novalue())
	score, err := v.MatchWithStr(context.Background(), "anything", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, score)
}
