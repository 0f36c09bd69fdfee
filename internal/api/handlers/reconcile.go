package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/wikirecon/reconcile/internal/api/middleware"
	"github.com/wikirecon/reconcile/internal/api/problem"
	"github.com/wikirecon/reconcile/internal/monitoring"
	"github.com/wikirecon/reconcile/internal/reconcile"
)

// ManifestConfig carries the service-identity fields the manifest needs,
// sourced from configuration at startup.
type ManifestConfig struct {
	ServiceName   string
	ThisHost      string
	IdentifierIRI string
	SchemaIRI     string
	DefaultTypeID string
	PreviewWidth  int
	PreviewHeight int
}

type ReconcileHandler struct {
	engine    *reconcile.Engine
	extension *reconcile.ExtensionEngine
	monitor   *monitoring.Monitor
	manifest  ManifestConfig
}

func NewReconcileHandler(engine *reconcile.Engine, extension *reconcile.ExtensionEngine, monitor *monitoring.Monitor, manifest ManifestConfig) *ReconcileHandler {
	return &ReconcileHandler{engine: engine, extension: extension, monitor: monitor, manifest: manifest}
}

// API serves GET|POST /api (and its language-prefixed variants): the
// service manifest when called with none of query/queries/extend, else
// the reconciliation or extension operation the parameters select.
func (h *ReconcileHandler) API(w http.ResponseWriter, r *http.Request) {
	params := requestParams(r)
	lang := paramLang(params, middleware.Language(r))
	start := time.Now()

	if raw, ok := params["query"]; ok && raw != "" {
		var wq wireQuery
		if err := json.Unmarshal([]byte(raw), &wq); err != nil {
			wq = wireQuery{Query: raw}
		}
		q := wq.toEngineQuery()
		cands, err := h.engine.ProcessQuery(r.Context(), q)
		if err != nil {
			writeEngineError(w, r, err)
			return
		}
		h.logRequest(r.Context(), 1, time.Since(start))
		writeJSON(w, map[string]interface{}{"result": cands})
		return
	}

	if raw, ok := params["queries"]; ok && raw != "" {
		var wireQueries map[string]wireQuery
		if err := json.Unmarshal([]byte(raw), &wireQueries); err != nil {
			problem.Write(w, r, "invalid query", err.Error(), map[string]string{"queries": raw}, err)
			return
		}
		keys := make([]string, 0, len(wireQueries))
		queries := make([]reconcile.Query, 0, len(wireQueries))
		for k, wq := range wireQueries {
			keys = append(keys, k)
			queries = append(queries, wq.toEngineQuery())
		}
		results, err := h.engine.ProcessQueries(r.Context(), queries)
		if err != nil {
			writeEngineError(w, r, err)
			return
		}
		out := make(map[string]interface{}, len(keys))
		for i, k := range keys {
			out[k] = map[string]interface{}{"result": results[i]}
		}
		h.logRequest(r.Context(), len(queries), time.Since(start))
		writeJSON(w, out)
		return
	}

	if raw, ok := params["extend"]; ok && raw != "" {
		var payload extendPayload
		if err := json.Unmarshal([]byte(raw), &payload); err != nil {
			problem.Write(w, r, "invalid extend payload", err.Error(), map[string]string{"extend": raw}, err)
			return
		}
		cells, err := h.extension.FetchPropertiesByBatch(r.Context(), payload.IDs, payload.specs())
		if err != nil {
			writeEngineError(w, r, err)
			return
		}
		writeJSON(w, map[string]interface{}{
			"meta": payload.meta(),
			"rows": cells,
		})
		return
	}

	writeJSON(w, h.buildManifest(lang))
}

func (h *ReconcileHandler) logRequest(ctx context.Context, queryCount int, elapsed time.Duration) {
	if h.monitor == nil {
		return
	}
	_ = h.monitor.LogRequest(ctx, int64(queryCount), elapsed)
}

func (h *ReconcileHandler) buildManifest(lang string) map[string]interface{} {
	m := h.manifest
	return map[string]interface{}{
		"name":            m.ServiceName + " (" + lang + ")",
		"identifierSpace": m.IdentifierIRI,
		"schemaSpace":     m.SchemaIRI,
		"view":            map[string]string{"url": "https://www.wikidata.org/wiki/{{id}}"},
		"suggest": map[string]interface{}{
			"type":     suggestServiceDescriptor(m.ThisHost, lang, "type"),
			"property": suggestServiceDescriptor(m.ThisHost, lang, "property"),
			"entity":   suggestServiceDescriptor(m.ThisHost, lang, "entity"),
		},
		"preview": map[string]interface{}{
			"url":    m.ThisHost + "/" + lang + "/preview?id={{id}}",
			"width":  m.PreviewWidth,
			"height": m.PreviewHeight,
		},
		"defaultTypes": []map[string]string{
			{"id": m.DefaultTypeID, "name": "entity"},
		},
		"extend": map[string]interface{}{
			"propose_properties": map[string]string{
				"service_url":  m.ThisHost,
				"service_path": "/" + lang + "/propose_properties",
			},
			"property_settings": []map[string]interface{}{
				{"name": "limit", "label": "Limit", "type": "number", "default": 0},
				{"name": "rank", "label": "Ranks", "type": "select", "default": "best", "choices": []map[string]string{
					{"value": "any", "name": "Any rank"},
					{"value": "best", "name": "Only the best rank"},
					{"value": "no_deprecated", "name": "Preferred and normal ranks"},
				}},
				{"name": "references", "label": "References", "type": "select", "default": "any", "choices": []map[string]string{
					{"value": "any", "name": "Any statement"},
					{"value": "referenced", "name": "At least one reference"},
					{"value": "no_wiki", "name": "At least one non-wiki reference"},
				}},
				{"name": "count", "label": "Return counts instead of values", "type": "checkbox", "default": false},
			},
		},
	}
}

func suggestServiceDescriptor(host, lang, kind string) map[string]string {
	return map[string]string{
		"service_url":         host,
		"service_path":        "/" + lang + "/suggest/" + kind,
		"flyout_service_path": "/" + lang + "/flyout/" + kind + "?id=${id}",
	}
}

func writeEngineError(w http.ResponseWriter, r *http.Request, err error) {
	message := "invalid query"
	var re *reconcile.Error
	if ok := asReconcileError(err, &re); ok {
		message = re.Message
	}
	problem.Write(w, r, message, err.Error(), nil, err)
}

func asReconcileError(err error, target **reconcile.Error) bool {
	re, ok := err.(*reconcile.Error)
	if ok {
		*target = re
	}
	return ok
}
