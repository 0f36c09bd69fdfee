package reconcile

import (
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/wikirecon/reconcile/internal/wikidata/store"
	"github.com/wikirecon/reconcile/internal/wikidata/value"
)

// SuggestItem is one entry in a suggest (type/property/entity) result list.
type SuggestItem struct {
	ID          string
	Name        string
	Description string
}

// ClassSearcher is the subset of search the suggest engine needs: full
// text search restricted to a namespace (properties live in a different
// namespace than items and classes on a Wikibase install).
type ClassSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]string, error)
}

// PropertyGraph supplies the class hierarchy the property-proposal walk
// needs.
type PropertyGraph interface {
	Superclasses(ctx context.Context, qid string) ([]string, error)
	ClassesWithProperty(ctx context.Context, relatorPid, propertyQid string) ([]string, error)
}

// SuggestConfig carries the knobs the suggest/preview surfaces need.
type SuggestConfig struct {
	DefaultLanguage     string
	PropertyForThisType string // e.g. "P1963", the relator used by ProposeProperties
	ImageProperties     []string
	FallbackImageURL    string
	FallbackImageAlt    string
	PreviewWidth        int
	PreviewHeight       int
}

// SuggestEngine implements the suggest (type/property/entity autocomplete),
// preview, and property-proposal operations.
type SuggestEngine struct {
	entities EntityGetter
	searcher ClassSearcher
	graph    PropertyGraph
	cfg      SuggestConfig
}

func NewSuggestEngine(entities EntityGetter, searcher ClassSearcher, graph PropertyGraph, cfg SuggestConfig) *SuggestEngine {
	if cfg.DefaultLanguage == "" {
		cfg.DefaultLanguage = "en"
	}
	if cfg.PreviewWidth == 0 {
		cfg.PreviewWidth = 300
	}
	if cfg.PreviewHeight == 0 {
		cfg.PreviewHeight = 100
	}
	return &SuggestEngine{entities: entities, searcher: searcher, graph: graph, cfg: cfg}
}

// FindType suggests candidate type entities matching prefix.
func (s *SuggestEngine) FindType(ctx context.Context, prefix string, limit int) ([]SuggestItem, error) {
	return s.findSomething(ctx, prefix, limit)
}

// FindProperty suggests candidate properties matching prefix.
func (s *SuggestEngine) FindProperty(ctx context.Context, prefix string, limit int) ([]SuggestItem, error) {
	return s.findSomething(ctx, prefix, limit)
}

// FindEntity suggests candidate entities matching prefix, used by the
// generic entity-autocomplete widget.
func (s *SuggestEngine) FindEntity(ctx context.Context, prefix string, limit int) ([]SuggestItem, error) {
	return s.findSomething(ctx, prefix, limit)
}

func (s *SuggestEngine) findSomething(ctx context.Context, prefix string, limit int) ([]SuggestItem, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}
	ids, err := s.searcher.Search(ctx, prefix, limit)
	if err != nil {
		return nil, UpstreamError("search suggestions", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	entities, err := s.entities.GetEntities(ctx, ids)
	if err != nil {
		return nil, UpstreamError("fetch suggestion entities", err)
	}
	out := make([]SuggestItem, 0, len(ids))
	for _, id := range ids {
		e, ok := entities[id]
		if !ok {
			continue
		}
		out = append(out, SuggestItem{
			ID:          id,
			Name:        labelOr(e, s.cfg.DefaultLanguage, id),
			Description: e.Descriptions[s.cfg.DefaultLanguage],
		})
	}
	return out, nil
}

func labelOr(e store.Entity, lang, fallback string) string {
	if l := e.Label(lang); l != "" {
		return l
	}
	return fallback
}

var previewTemplate = template.Must(template.New("preview").Parse(`
<div class="preview">
{{if .ImageURL}}<img src="{{.ImageURL}}" alt="{{.ImageAlt}}" width="{{.Width}}" height="{{.Height}}">{{end}}
<p><strong>{{.Name}}</strong></p>
<p>{{.Description}}</p>
</div>
`))

type previewData struct {
	Name        string
	Description string
	ImageURL    string
	ImageAlt    string
	Width       int
	Height      int
}

// Preview renders a small HTML fragment describing id, with a Commons
// thumbnail pulled from the first configured image property that has a
// value, falling back to the configured placeholder image.
func (s *SuggestEngine) Preview(ctx context.Context, id string) (string, error) {
	entity, err := s.entities.GetEntity(ctx, id)
	if err != nil {
		return "", UpstreamError("fetch entity for preview", err)
	}

	data := previewData{
		Name:        labelOr(entity, s.cfg.DefaultLanguage, id),
		Description: entity.Descriptions[s.cfg.DefaultLanguage],
		ImageURL:    s.cfg.FallbackImageURL,
		ImageAlt:    s.cfg.FallbackImageAlt,
		Width:       s.cfg.PreviewWidth,
		Height:      s.cfg.PreviewHeight,
	}

	for _, pid := range s.cfg.ImageProperties {
		for _, claim := range entity.Claims[pid] {
			if media, ok := claim.Value.(value.MediaValue); ok && !media.Novalue() {
				data.ImageURL = value.CommonsThumbURL(media.Filename, s.cfg.PreviewWidth)
				data.ImageAlt = data.Name
				break
			}
		}
		if data.ImageURL != s.cfg.FallbackImageURL {
			break
		}
	}

	var b strings.Builder
	if err := previewTemplate.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render preview: %w", err)
	}
	return b.String(), nil
}

// ProposeProperties walks the type hierarchy upward from typeID, breadth
// first, collecting properties declared "for this type" on each ancestor
// class, so that the most specific class's properties are suggested
// first.
func (s *SuggestEngine) ProposeProperties(ctx context.Context, typeID string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 20
	}
	seenClass := map[string]bool{typeID: true}
	queue := []string{typeID}

	var props []string
	seenProp := map[string]bool{}

	for len(queue) > 0 && len(props) < limit {
		var next []string
		for _, classID := range queue {
			ids, err := s.graph.ClassesWithProperty(ctx, s.cfg.PropertyForThisType, classID)
			if err != nil {
				return nil, UpstreamError("fetch properties for type", err)
			}
			for _, pid := range ids {
				if !seenProp[pid] {
					seenProp[pid] = true
					props = append(props, pid)
				}
			}

			parents, err := s.graph.Superclasses(ctx, classID)
			if err != nil {
				return nil, UpstreamError("fetch superclasses", err)
			}
			for _, parent := range parents {
				if !seenClass[parent] {
					seenClass[parent] = true
					next = append(next, parent)
				}
			}
		}
		queue = next
	}

	if len(props) > limit {
		props = props[:limit]
	}
	return props, nil
}
