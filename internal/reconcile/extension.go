package reconcile

import (
	"context"

	"github.com/wikirecon/reconcile/internal/wikidata/path"
	"github.com/wikirecon/reconcile/internal/wikidata/value"
)

// Settings controls how a single extend property column is rendered: which
// claim ranks and references to include, how many values to keep, and
// whether to collapse the column to a bare count instead of its values.
type Settings struct {
	Limit      int    // 0 disables truncation
	Rank       string // "any", "best" (default), "no_deprecated"
	References string // "any" (default), "referenced", "no_wiki"
	Count      bool
}

// DefaultSettings mirrors the property_settings manifest defaults.
var DefaultSettings = Settings{Rank: path.RankBest, References: "any"}

func (s Settings) pathOptions() path.Options {
	rank := s.Rank
	if rank == "" {
		rank = DefaultSettings.Rank
	}
	references := s.References
	if references == "" {
		references = DefaultSettings.References
	}
	return path.Options{Rank: rank, References: references}
}

// PropertySpec is one column of an extend request: a property path plus
// its optional per-column settings.
type PropertySpec struct {
	Pid      string
	Settings Settings
}

// ExtensionEngine implements the data-extension operation: given a batch
// of entity ids and a set of property paths, render each path's value as
// a display cell per entity.
type ExtensionEngine struct {
	entities EntityGetter
	lang     string
}

func NewExtensionEngine(entities EntityGetter, lang string) *ExtensionEngine {
	if lang == "" {
		lang = "en"
	}
	return &ExtensionEngine{entities: entities, lang: lang}
}

// FetchPropertiesByBatch evaluates every path in specs against every
// entity in ids, returning entity id -> path expression -> rendered
// cells. A spec whose Settings.Count is set collapses its column to a
// single {float: length} cell instead of the rendered values, and
// Settings.Limit (if positive) truncates the rendered values before that.
func (x *ExtensionEngine) FetchPropertiesByBatch(ctx context.Context, ids []string, specs []PropertySpec) (map[string]map[string][]value.Cell, error) {
	nodes := make(map[string]path.Node, len(specs))
	for _, spec := range specs {
		node, err := path.Parse(spec.Pid)
		if err != nil {
			return nil, BadArgument("invalid property path: "+spec.Pid, map[string]string{"pid": spec.Pid})
		}
		nodes[spec.Pid] = node
	}

	entities, err := x.entities.GetEntities(ctx, ids)
	if err != nil {
		return nil, UpstreamError("fetch entities for extension", err)
	}

	lookup := lookupAdapter{entities: x.entities}
	out := make(map[string]map[string][]value.Cell, len(ids))
	for _, id := range ids {
		entity := entities[id]
		cells := make(map[string][]value.Cell, len(specs))
		for _, spec := range specs {
			values, err := path.Step(ctx, nodes[spec.Pid], entity, spec.Settings.pathOptions(), entityGetterAdapter{x.entities})
			if err != nil {
				return nil, UpstreamError("evaluate property path", err)
			}
			if limit := spec.Settings.Limit; limit > 0 && len(values) > limit {
				values = values[:limit]
			}

			if spec.Settings.Count {
				count := float64(len(values))
				cells[spec.Pid] = []value.Cell{{Float: &count}}
				continue
			}

			rendered := make([]value.Cell, 0, len(values))
			for _, v := range values {
				cell, err := v.AsCell(ctx, x.lang, lookup)
				if err != nil {
					return nil, UpstreamError("render value cell", err)
				}
				rendered = append(rendered, cell)
			}
			cells[spec.Pid] = rendered
		}
		out[id] = cells
	}
	return out, nil
}

// FetchPropertyByBatch is the single-property convenience form of
// FetchPropertiesByBatch, using the default column settings.
func (x *ExtensionEngine) FetchPropertyByBatch(ctx context.Context, ids []string, pid string) (map[string][]value.Cell, error) {
	out, err := x.FetchPropertiesByBatch(ctx, ids, []PropertySpec{{Pid: pid}})
	if err != nil {
		return nil, err
	}
	byID := make(map[string][]value.Cell, len(ids))
	for _, id := range ids {
		byID[id] = out[id][pid]
	}
	return byID, nil
}

// FetchValues is the single-item, single-property convenience form used
// by the "flat" extension mode: a bare list of cells, with no id or
// property wrapper, for exactly one entity and one path.
func (x *ExtensionEngine) FetchValues(ctx context.Context, id, pid string) ([]value.Cell, error) {
	byID, err := x.FetchPropertyByBatch(ctx, []string{id}, pid)
	if err != nil {
		return nil, err
	}
	return byID[id], nil
}
