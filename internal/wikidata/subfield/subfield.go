// Package subfield implements the @name registry that path expressions use
// to pull a derived scalar (a coordinate component, a date component, a url
// component) out of a structured value.
package subfield

import (
	"github.com/wikirecon/reconcile/internal/wikidata/value"
)

// Registry maps a subfield name to the extractor function used to derive
// it from a claim value.
var registry = map[string]func(value.Value) (value.Value, bool){
	"lat": func(v value.Value) (value.Value, bool) {
		c, ok := v.(value.CoordsValue)
		if !ok {
			return nil, false
		}
		return value.QuantityValue{Amount: c.Latitude}, true
	},
	"lng": func(v value.Value) (value.Value, bool) {
		c, ok := v.(value.CoordsValue)
		if !ok {
			return nil, false
		}
		return value.QuantityValue{Amount: c.Longitude}, true
	},
	"year": func(v value.Value) (value.Value, bool) {
		t, ok := v.(value.TimeValue)
		if !ok || t.Precision < 9 {
			return nil, false
		}
		return value.QuantityValue{Amount: float64(t.Year)}, true
	},
	"month": func(v value.Value) (value.Value, bool) {
		t, ok := v.(value.TimeValue)
		if !ok || t.Precision < 10 {
			return nil, false
		}
		return value.QuantityValue{Amount: float64(t.Month)}, true
	},
	"day": func(v value.Value) (value.Value, bool) {
		t, ok := v.(value.TimeValue)
		if !ok || t.Precision < 11 {
			return nil, false
		}
		return value.QuantityValue{Amount: float64(t.Day)}, true
	},
	"hour": func(v value.Value) (value.Value, bool) {
		t, ok := v.(value.TimeValue)
		if !ok || t.Precision < 12 {
			return nil, false
		}
		return value.QuantityValue{Amount: 0}, true
	},
	"minute": func(v value.Value) (value.Value, bool) {
		t, ok := v.(value.TimeValue)
		if !ok || t.Precision < 13 {
			return nil, false
		}
		return value.QuantityValue{Amount: 0}, true
	},
	"second": func(v value.Value) (value.Value, bool) {
		t, ok := v.(value.TimeValue)
		if !ok || t.Precision < 14 {
			return nil, false
		}
		return value.QuantityValue{Amount: 0}, true
	},
	"isodate": func(v value.Value) (value.Value, bool) {
		t, ok := v.(value.TimeValue)
		if !ok {
			return nil, false
		}
		return value.IdentifierValue{Value: t.ISO()}, true
	},
	"iso": func(v value.Value) (value.Value, bool) {
		t, ok := v.(value.TimeValue)
		if !ok {
			return nil, false
		}
		return value.IdentifierValue{Value: t.ISO()}, true
	},
	"urlscheme": func(v value.Value) (value.Value, bool) {
		u, ok := v.(value.UrlValue)
		if !ok {
			return nil, false
		}
		parsed, err := u.Parsed()
		if err != nil || parsed.Scheme == "" {
			return nil, false
		}
		return value.IdentifierValue{Value: parsed.Scheme}, true
	},
	"netloc": func(v value.Value) (value.Value, bool) {
		u, ok := v.(value.UrlValue)
		if !ok {
			return nil, false
		}
		parsed, err := u.Parsed()
		if err != nil || parsed.Host == "" {
			return nil, false
		}
		return value.IdentifierValue{Value: parsed.Host}, true
	},
	"urlpath": func(v value.Value) (value.Value, bool) {
		u, ok := v.(value.UrlValue)
		if !ok {
			return nil, false
		}
		parsed, err := u.Parsed()
		if err != nil {
			return nil, false
		}
		return value.IdentifierValue{Value: parsed.Path}, true
	},
}

// Apply extracts the named subfield from v. ok is false when the name is
// unregistered or the value's type/precision gate rejects the extraction.
func Apply(name string, v value.Value) (value.Value, bool) {
	fn, known := registry[name]
	if !known {
		return nil, false
	}
	return fn(v)
}

// Known reports whether name is a registered subfield, independent of
// whether it would successfully apply to any particular value.
func Known(name string) bool {
	_, ok := registry[name]
	return ok
}
