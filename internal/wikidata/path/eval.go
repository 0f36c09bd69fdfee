package path

import (
	"context"
	"fmt"

	"github.com/wikirecon/reconcile/internal/wikidata/store"
	"github.com/wikirecon/reconcile/internal/wikidata/subfield"
	"github.com/wikirecon/reconcile/internal/wikidata/value"
)

// EntityGetter is the subset of the entity store a Concat path needs in
// order to traverse from one entity into another.
type EntityGetter interface {
	GetEntity(ctx context.Context, id string) (store.Entity, error)
}

// Options controls how claims are filtered before their values are
// collected: by rank and by reference presence.
type Options struct {
	// Rank is "any" (every rank), "best" (only the claims at the
	// highest rank present, matching Wikibase's own "best statements"
	// notion), or "no_deprecated" (every claim not ranked deprecated).
	Rank string
	// References is "any", "referenced" (only claims carrying at least
	// one reference), or "no_wiki" (intended to additionally exclude
	// references sourced only from other Wikimedia projects; this
	// implementation treats it the same as "referenced", since telling
	// a Wikimedia-sourced reference apart from any other requires
	// inspecting the reference's own P248/P143 qualifiers, which no
	// caller currently exercises).
	References string
}

// Rank values a caller may request via Options.Rank.
const (
	RankAny          = "any"
	RankBest         = "best"
	RankNoDeprecated = "no_deprecated"
)

var DefaultOptions = Options{Rank: RankAny, References: "any"}

// Step evaluates node against entity, returning every value it addresses.
func Step(ctx context.Context, node Node, entity store.Entity, opts Options, entities EntityGetter) ([]value.Value, error) {
	switch n := node.(type) {
	case Empty:
		return []value.Value{value.ItemValue{ID: entity.ID}}, nil
	case Qid:
		return []value.Value{value.ItemValue{ID: entity.ID}}, nil
	case Leaf:
		claims := filterClaims(entity.Claims["P"+n.Pid], opts)
		out := make([]value.Value, 0, len(claims))
		for _, c := range claims {
			out = append(out, c.Value)
		}
		return out, nil
	case Qualifier:
		claims := filterClaims(entity.Claims["P"+n.Pid], opts)
		var out []value.Value
		for _, c := range claims {
			out = append(out, c.Qualifiers["P"+n.QualifierPid]...)
		}
		return out, nil
	case Term:
		switch n.Kind {
		case 'L':
			if l, ok := entity.Labels[n.Lang]; ok {
				return []value.Value{value.StringValue{Value: l}}, nil
			}
			return nil, nil
		case 'D':
			if d, ok := entity.Descriptions[n.Lang]; ok {
				return []value.Value{value.StringValue{Value: d}}, nil
			}
			return nil, nil
		case 'A':
			aliases := entity.Aliases[n.Lang]
			out := make([]value.Value, 0, len(aliases))
			for _, a := range aliases {
				out = append(out, value.StringValue{Value: a})
			}
			return out, nil
		}
		return nil, fmt.Errorf("path: unknown term kind %q", n.Kind)
	case Sitelink:
		if title, ok := entity.Sitelinks[n.Site]; ok {
			return []value.Value{value.StringValue{Value: title}}, nil
		}
		return nil, nil
	case Concat:
		leftVals, err := Step(ctx, n.Left, entity, opts, entities)
		if err != nil {
			return nil, err
		}
		var out []value.Value
		for _, v := range leftVals {
			item, ok := v.(value.ItemValue)
			if !ok || item.ID == "" {
				continue
			}
			if entities == nil {
				continue
			}
			next, err := entities.GetEntity(ctx, item.ID)
			if err != nil {
				return nil, err
			}
			rightVals, err := Step(ctx, n.Right, next, opts, entities)
			if err != nil {
				return nil, err
			}
			out = append(out, rightVals...)
		}
		return out, nil
	case Disjunct:
		var out []value.Value
		for _, opt := range n.Options {
			vs, err := Step(ctx, opt, entity, opts, entities)
			if err != nil {
				return nil, err
			}
			out = append(out, vs...)
		}
		return out, nil
	case Subfield:
		base, err := Step(ctx, n.Base, entity, opts, entities)
		if err != nil {
			return nil, err
		}
		out := make([]value.Value, 0, len(base))
		for _, v := range base {
			if extracted, ok := subfield.Apply(n.Name, v); ok {
				out = append(out, extracted)
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("path: unhandled node type %T", node)
	}
}

func filterClaims(claims []store.Claim, opts Options) []store.Claim {
	out := claims
	switch opts.Rank {
	case RankBest:
		if len(out) > 0 {
			top := out[0].Rank
			filtered := out[:0:0]
			for _, c := range out {
				if c.Rank == top {
					filtered = append(filtered, c)
				}
			}
			out = filtered
		}
	case RankNoDeprecated:
		filtered := out[:0:0]
		for _, c := range out {
			if c.Rank != store.RankDeprecated {
				filtered = append(filtered, c)
			}
		}
		out = filtered
	}
	if opts.References == "referenced" || opts.References == "no_wiki" {
		filtered := out[:0:0]
		for _, c := range out {
			if len(c.References) > 0 {
				filtered = append(filtered, c)
			}
		}
		out = filtered
	}
	return out
}
