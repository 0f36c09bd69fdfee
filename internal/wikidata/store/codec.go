package store

import (
	"encoding/json"

	"github.com/wikirecon/reconcile/internal/wikidata/value"
)

// The JSON shapes below exist only so that Entity (and everything it
// contains) can round-trip through the cache: value.Value is an
// interface, so the default encoding/json behavior can encode it but
// can't decode it back into the correct concrete type without the Kind
// tag value.Marshal/Unmarshal carry.

type claimJSON struct {
	Property   string                       `json:"property"`
	Value      json.RawMessage              `json:"value"`
	Rank       Rank                         `json:"rank"`
	Qualifiers map[string][]json.RawMessage `json:"qualifiers,omitempty"`
	References []referenceJSON              `json:"references,omitempty"`
}

type referenceJSON struct {
	Snaks map[string][]json.RawMessage `json:"snaks"`
}

func (c Claim) MarshalJSON() ([]byte, error) {
	valRaw, err := value.Marshal(c.Value)
	if err != nil {
		return nil, err
	}
	out := claimJSON{Property: c.Property, Value: valRaw, Rank: c.Rank}
	if len(c.Qualifiers) > 0 {
		out.Qualifiers = map[string][]json.RawMessage{}
		for pid, vs := range c.Qualifiers {
			raws, err := value.List(vs)
			if err != nil {
				return nil, err
			}
			out.Qualifiers[pid] = raws
		}
	}
	for _, ref := range c.References {
		snaks := map[string][]json.RawMessage{}
		for pid, vs := range ref.Snaks {
			raws, err := value.List(vs)
			if err != nil {
				return nil, err
			}
			snaks[pid] = raws
		}
		out.References = append(out.References, referenceJSON{Snaks: snaks})
	}
	return json.Marshal(out)
}

func (c *Claim) UnmarshalJSON(data []byte) error {
	var in claimJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	v, err := value.Unmarshal(in.Value)
	if err != nil {
		return err
	}
	c.Property = in.Property
	c.Value = v
	c.Rank = in.Rank
	if len(in.Qualifiers) > 0 {
		c.Qualifiers = map[string][]value.Value{}
		for pid, raws := range in.Qualifiers {
			vs, err := value.ListFrom(raws)
			if err != nil {
				return err
			}
			c.Qualifiers[pid] = vs
		}
	}
	for _, ref := range in.References {
		snaks := map[string][]value.Value{}
		for pid, raws := range ref.Snaks {
			vs, err := value.ListFrom(raws)
			if err != nil {
				return err
			}
			snaks[pid] = vs
		}
		c.References = append(c.References, Reference{Snaks: snaks})
	}
	return nil
}
