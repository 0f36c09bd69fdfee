package subfield

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wikirecon/reconcile/internal/wikidata/value"
)

func TestApply_LatLng(t *testing.T) {
	c := value.CoordsValue{Latitude: 48.8584, Longitude: 2.2945}

	lat, ok := Apply("lat", c)
	require.True(t, ok)
	assert.Equal(t, value.QuantityValue{Amount: 48.8584}, lat)

	lng, ok := Apply("lng", c)
	require.True(t, ok)
	assert.Equal(t, value.QuantityValue{Amount: 2.2945}, lng)
}

func TestApply_DateComponentsGatedByPrecision(t *testing.T) {
	yearOnly := value.TimeValue{Year: 1969, Precision: 9}
	_, ok := Apply("month", yearOnly)
	assert.False(t, ok, "month requires precision >= 10")

	full := value.TimeValue{Year: 1969, Month: 7, Day: 20, Precision: 11}
	month, ok := Apply("month", full)
	require.True(t, ok)
	assert.Equal(t, value.QuantityValue{Amount: 7}, month)
}

func TestApply_Isodate(t *testing.T) {
	v := value.TimeValue{Year: 1969, Month: 7, Day: 20, Precision: 11}
	out, ok := Apply("isodate", v)
	require.True(t, ok)
	assert.Equal(t, value.IdentifierValue{Value: "1969-07-20"}, out)
}

func TestApply_UrlComponents(t *testing.T) {
	u := value.UrlValue{Value: "https://example.org/path/to/thing"}

	scheme, ok := Apply("urlscheme", u)
	require.True(t, ok)
	assert.Equal(t, value.IdentifierValue{Value: "https"}, scheme)

	netloc, ok := Apply("netloc", u)
	require.True(t, ok)
	assert.Equal(t, value.IdentifierValue{Value: "example.org"}, netloc)

	path, ok := Apply("urlpath", u)
	require.True(t, ok)
	assert.Equal(t, value.IdentifierValue{Value: "/path/to/thing"}, path)
}

func TestApply_WrongValueTypeRejected(t *testing.T) {
	_, ok := Apply("lat", value.StringValue{Value: "nope"})
	assert.False(t, ok)
}

func TestApply_UnknownSubfield(t *testing.T) {
	_, ok := Apply("bogus", value.CoordsValue{})
	assert.False(t, ok)
	assert.False(t, Known("bogus"))
	assert.True(t, Known("lat"))
}
