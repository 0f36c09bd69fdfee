package value

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ItemValue references another entity, e.g. the P31 claim on an instance
// pointing at its class.
type ItemValue struct {
	ID string
}

func (v ItemValue) Kind() string  { return "wikibase-item" }
func (v ItemValue) Novalue() bool { return v.ID == "" }

func (v ItemValue) MatchWithStr(ctx context.Context, s string, lookup Lookup) (int, error) {
	if qid, ok := ParseQid(s); ok {
		if qid == v.ID {
			return 100, nil
		}
		return 0, nil
	}
	if id, ok, err := lookup.ResolveSitelink(ctx, s); err != nil {
		return 0, err
	} else if ok {
		if id == v.ID {
			return 100, nil
		}
		return 0, nil
	}
	labels, aliases, err := lookup.ItemStrings(ctx, v.ID)
	if err != nil {
		return 0, err
	}
	best := 0
	for _, candidate := range append(append([]string{}, labels...), aliases...) {
		if score := fuzzyMatchStrings(candidate, s); score > best {
			best = score
		}
	}
	return best, nil
}

func (v ItemValue) AsCell(ctx context.Context, lang string, lookup Lookup) (Cell, error) {
	// lookup.Label already falls back from lang to "en" to any available
	// language to the bare id, so there's nothing left to compensate for
	// here.
	label, err := lookup.Label(ctx, v.ID, lang)
	if err != nil {
		return Cell{}, err
	}
	cell := Cell{Str: label, Name: label, ID: v.ID}
	cell.Target.ID = v.ID
	return cell, nil
}

// StringValue is freeform text, e.g. a catalog code that isn't registered
// as an external identifier datatype.
type StringValue struct {
	Value string
}

func (v StringValue) Kind() string  { return "string" }
func (v StringValue) Novalue() bool { return v.Value == "" }

func (v StringValue) MatchWithStr(_ context.Context, s string, _ Lookup) (int, error) {
	return fuzzyMatchStrings(v.Value, s), nil
}

func (v StringValue) AsCell(_ context.Context, _ string, _ Lookup) (Cell, error) {
	return Cell{Str: v.Value}, nil
}

// IdentifierValue is an external-id datatype claim (ISNI, GRID, VIAF, ...).
// Unlike StringValue it requires an exact match: identifiers don't tolerate
// fuzzy variance, a partial ISNI match is simply wrong.
type IdentifierValue struct {
	Value string
}

func (v IdentifierValue) Kind() string  { return "external-id" }
func (v IdentifierValue) Novalue() bool { return v.Value == "" }

func (v IdentifierValue) MatchWithStr(_ context.Context, s string, _ Lookup) (int, error) {
	if normalizeIdentifier(v.Value) == normalizeIdentifier(s) {
		return 100, nil
	}
	return 0, nil
}

func (v IdentifierValue) AsCell(_ context.Context, _ string, _ Lookup) (Cell, error) {
	return Cell{Str: v.Value}, nil
}

func normalizeIdentifier(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// MediaValue is a Commons filename. It behaves like an identifier for
// matching purposes but renders as a media cell.
type MediaValue struct {
	Filename string
}

func (v MediaValue) Kind() string  { return "commonsMedia" }
func (v MediaValue) Novalue() bool { return v.Filename == "" }

func (v MediaValue) MatchWithStr(_ context.Context, s string, _ Lookup) (int, error) {
	if normalizeIdentifier(v.Filename) == normalizeIdentifier(s) {
		return 100, nil
	}
	return 0, nil
}

func (v MediaValue) AsCell(_ context.Context, _ string, _ Lookup) (Cell, error) {
	return Cell{Str: v.Filename, HTML: commonsThumbURL(v.Filename, 300)}, nil
}

// DataTableValue is a tabular-data page reference (also identifier-like).
type DataTableValue struct {
	Page string
}

func (v DataTableValue) Kind() string  { return "tabular-data" }
func (v DataTableValue) Novalue() bool { return v.Page == "" }

func (v DataTableValue) MatchWithStr(_ context.Context, s string, _ Lookup) (int, error) {
	if normalizeIdentifier(v.Page) == normalizeIdentifier(s) {
		return 100, nil
	}
	return 0, nil
}

func (v DataTableValue) AsCell(_ context.Context, _ string, _ Lookup) (Cell, error) {
	return Cell{Str: v.Page}, nil
}

// UrlValue is a url-datatype claim. Matching parses both sides and
// compares their canonical forms (lower-cased host, path, query and
// fragment; the scheme is ignored), scoring 100 or 0; subfields (urlscheme/netloc/urlpath) are
// what let a path expression reach into the parsed form.
type UrlValue struct {
	Value string
}

func (v UrlValue) Kind() string  { return "url" }
func (v UrlValue) Novalue() bool { return v.Value == "" }

func (v UrlValue) MatchWithStr(_ context.Context, s string, _ Lookup) (int, error) {
	a, err := v.Parsed()
	if err != nil {
		return 0, nil
	}
	b, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return 0, nil
	}
	ca, cb := canonicalURL(a), canonicalURL(b)
	if ca == "" || cb == "" {
		return 0, nil
	}
	if ca == cb {
		return 100, nil
	}
	return 0, nil
}

// canonicalURL renders u's host, path, query, and fragment, ignoring
// scheme, so "http://example.com/x" and "https://example.com/x" compare
// equal.
func canonicalURL(u *url.URL) string {
	return strings.ToLower(u.Host) + u.Path + "?" + u.RawQuery + "#" + u.Fragment
}

func (v UrlValue) AsCell(_ context.Context, _ string, _ Lookup) (Cell, error) {
	return Cell{Str: v.Value, HTML: fmt.Sprintf(`<a href="%s">%s</a>`, v.Value, v.Value)}, nil
}

// Parsed returns the value's net/url.URL, used by url-derived subfields.
func (v UrlValue) Parsed() (*url.URL, error) {
	return url.Parse(v.Value)
}

// QuantityValue is a quantity-datatype claim: an amount with an optional
// unit entity id (empty for dimensionless quantities).
type QuantityValue struct {
	Amount float64
	Unit   string // entity id of the unit, "" if dimensionless (unity)
}

func (v QuantityValue) Kind() string  { return "quantity" }
func (v QuantityValue) Novalue() bool { return false }

func (v QuantityValue) MatchWithStr(_ context.Context, s string, _ Lookup) (int, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, nil
	}
	return matchFloats(v.Amount, f), nil
}

func (v QuantityValue) AsCell(_ context.Context, _ string, _ Lookup) (Cell, error) {
	return Cell{Str: strconv.FormatFloat(v.Amount, 'g', -1, 64)}, nil
}

// MonolingualValue is a monolingual-text claim: text tagged with a single
// language code.
type MonolingualValue struct {
	Text     string
	Language string
}

func (v MonolingualValue) Kind() string  { return "monolingualtext" }
func (v MonolingualValue) Novalue() bool { return v.Text == "" }

func (v MonolingualValue) MatchWithStr(_ context.Context, s string, _ Lookup) (int, error) {
	return fuzzyMatchStrings(v.Text, s), nil
}

func (v MonolingualValue) AsCell(_ context.Context, _ string, _ Lookup) (Cell, error) {
	return Cell{Str: v.Text}, nil
}

// CoordsValue is a globe-coordinate claim.
type CoordsValue struct {
	Latitude  float64
	Longitude float64
	Precision float64
	Globe     string
}

func (v CoordsValue) Kind() string  { return "globe-coordinate" }
func (v CoordsValue) Novalue() bool { return false }

func (v CoordsValue) MatchWithStr(_ context.Context, s string, _ Lookup) (int, error) {
	lat, lng, ok := parseLatLng(s)
	if !ok {
		return 0, nil
	}
	return matchCoords(v.Latitude, v.Longitude, lat, lng), nil
}

func (v CoordsValue) AsCell(_ context.Context, _ string, _ Lookup) (Cell, error) {
	return Cell{Str: fmt.Sprintf("%f,%f", v.Latitude, v.Longitude)}, nil
}

func parseLatLng(s string) (lat, lng float64, ok bool) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, false
	}
	var err error
	lat, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, false
	}
	lng, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, false
	}
	return lat, lng, true
}

// TimeValue is a time-datatype claim, kept as its broken-down ISO
// components plus a Wikibase precision code (9=year .. 14=second).
type TimeValue struct {
	Year      int
	Month     int
	Day       int
	Precision int
	Calendar  string
}

func (v TimeValue) Kind() string  { return "time" }
func (v TimeValue) Novalue() bool { return false }

func (v TimeValue) Time() time.Time {
	month := v.Month
	day := v.Day
	if month == 0 {
		month = 1
	}
	if day == 0 {
		day = 1
	}
	return time.Date(v.Year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

func (v TimeValue) MatchWithStr(_ context.Context, s string, _ Lookup) (int, error) {
	parts, err := parseISODateParts(s)
	if err != nil {
		return 0, nil
	}
	depth := 3
	switch {
	case v.Precision <= 9:
		depth = 1
	case v.Precision == 10:
		depth = 2
	}
	if depth > len(parts) {
		depth = len(parts)
	}
	have := []int{v.Year, v.Month, v.Day}[:depth]
	for i := 0; i < depth; i++ {
		if have[i] != parts[i] {
			return 0, nil
		}
	}
	return 100, nil
}

func (v TimeValue) AsCell(_ context.Context, _ string, _ Lookup) (Cell, error) {
	return Cell{Str: v.ISO()}, nil
}

// ISO renders the value truncated to its recorded precision.
func (v TimeValue) ISO() string {
	switch {
	case v.Precision <= 9:
		return fmt.Sprintf("%04d", v.Year)
	case v.Precision == 10:
		return fmt.Sprintf("%04d-%02d", v.Year, v.Month)
	default:
		return fmt.Sprintf("%04d-%02d-%02d", v.Year, v.Month, v.Day)
	}
}

func parseISODateParts(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	fields := strings.SplitN(s, "-", 3)
	// A leading '-' (BCE year) produces an empty first field; rejoin it.
	if len(fields) > 0 && fields[0] == "" && len(fields) > 1 {
		fields = append([]string{"-" + fields[1]}, fields[2:]...)
	}
	parts := make([]int, 0, 3)
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, err
		}
		parts = append(parts, n)
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("empty date")
	}
	return parts, nil
}

// UndefinedValue covers somevalue/novalue snaks and any datatype this
// service doesn't recognize; it never matches and renders empty.
type UndefinedValue struct {
	SnakType string // "somevalue", "novalue", or "unknown-datatype"
}

func (v UndefinedValue) Kind() string  { return v.SnakType }
func (v UndefinedValue) Novalue() bool { return true }

func (v UndefinedValue) MatchWithStr(_ context.Context, _ string, _ Lookup) (int, error) {
	return 0, nil
}

func (v UndefinedValue) AsCell(_ context.Context, _ string, _ Lookup) (Cell, error) {
	return Cell{}, nil
}

func commonsThumbURL(filename string, width int) string {
	return fmt.Sprintf("https://commons.wikimedia.org/wiki/Special:FilePath/%s?width=%d", url.PathEscape(filename), width)
}

// CommonsThumbURL is the exported form of commonsThumbURL, used by the
// suggest engine's entity preview rendering.
func CommonsThumbURL(filename string, width int) string {
	return commonsThumbURL(filename, width)
}
