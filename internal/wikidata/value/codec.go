package value

import "encoding/json"

// envelope is the on-the-wire shape used to cache a Value: its Kind tag
// plus its own JSON-encoded fields, so that decoding can reconstruct the
// correct concrete type. Go's encoding/json can't do this for an interface
// field on its own.
type envelope struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// Marshal encodes a Value (or nil) into its tagged envelope form.
func Marshal(v Value) ([]byte, error) {
	if v == nil {
		return json.Marshal(envelope{})
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Kind: v.Kind(), Data: data})
}

// Unmarshal decodes a tagged envelope produced by Marshal back into its
// concrete Value type.
func Unmarshal(raw []byte) (Value, error) {
	var e envelope
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, err
	}
	if e.Kind == "" {
		return nil, nil
	}
	switch e.Kind {
	case "wikibase-item":
		var v ItemValue
		return v, json.Unmarshal(e.Data, &v)
	case "string":
		var v StringValue
		return v, json.Unmarshal(e.Data, &v)
	case "external-id":
		var v IdentifierValue
		return v, json.Unmarshal(e.Data, &v)
	case "commonsMedia":
		var v MediaValue
		return v, json.Unmarshal(e.Data, &v)
	case "tabular-data":
		var v DataTableValue
		return v, json.Unmarshal(e.Data, &v)
	case "url":
		var v UrlValue
		return v, json.Unmarshal(e.Data, &v)
	case "quantity":
		var v QuantityValue
		return v, json.Unmarshal(e.Data, &v)
	case "monolingualtext":
		var v MonolingualValue
		return v, json.Unmarshal(e.Data, &v)
	case "globe-coordinate":
		var v CoordsValue
		return v, json.Unmarshal(e.Data, &v)
	case "time":
		var v TimeValue
		return v, json.Unmarshal(e.Data, &v)
	default:
		var v UndefinedValue
		return v, json.Unmarshal(e.Data, &v)
	}
}

// List and ListFrom round-trip a []Value the same way Marshal/Unmarshal do
// for a single value; used wherever a claim carries multiple values for a
// qualifier or reference snak.
func List(values []Value) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, 0, len(values))
	for _, v := range values {
		raw, err := Marshal(v)
		if err != nil {
			return nil, err
		}
		out = append(out, raw)
	}
	return out, nil
}

func ListFrom(raws []json.RawMessage) ([]Value, error) {
	out := make([]Value, 0, len(raws))
	for _, raw := range raws {
		v, err := Unmarshal(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
