package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/wikirecon/reconcile/internal/api/problem"
	"github.com/wikirecon/reconcile/internal/reconcile"
)

type ExtendHandler struct {
	extension *reconcile.ExtensionEngine
}

func NewExtendHandler(extension *reconcile.ExtensionEngine) *ExtendHandler {
	return &ExtendHandler{extension: extension}
}

// FetchValues serves GET|POST /<lang>/fetch_values: a single id, a single
// property path, a bare list of cells.
func (h *ExtendHandler) FetchValues(w http.ResponseWriter, r *http.Request) {
	params := requestParams(r)
	id := params["id"]
	pid := params["property"]
	if id == "" || pid == "" {
		problem.Write(w, r, "invalid query", "id and property are required", params, nil)
		return
	}
	cells, err := h.extension.FetchValues(r.Context(), id, pid)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	writeJSON(w, cells)
}

// FetchPropertyByBatch serves GET|POST /<lang>/fetch_property_by_batch: a
// comma-separated id list, one property path.
func (h *ExtendHandler) FetchPropertyByBatch(w http.ResponseWriter, r *http.Request) {
	params := requestParams(r)
	ids := splitCSV(params["ids"])
	pid := params["property"]
	if len(ids) == 0 || pid == "" {
		problem.Write(w, r, "invalid query", "ids and property are required", params, nil)
		return
	}
	cells, err := h.extension.FetchPropertyByBatch(r.Context(), ids, pid)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	writeJSON(w, cells)
}

// FetchPropertiesByBatch serves GET|POST /<lang>/fetch_properties_by_batch:
// the full extend payload shape, `{"ids":[...],"properties":[{"id":"Pxxx"}]}`.
func (h *ExtendHandler) FetchPropertiesByBatch(w http.ResponseWriter, r *http.Request) {
	params := requestParams(r)
	raw := params["extend"]
	if raw == "" {
		problem.Write(w, r, "invalid query", "missing extend payload", params, nil)
		return
	}
	var payload extendPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		problem.Write(w, r, "invalid extend payload", err.Error(), map[string]string{"extend": raw}, err)
		return
	}
	rows, err := h.extension.FetchPropertiesByBatch(r.Context(), payload.IDs, payload.specs())
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	writeJSON(w, map[string]interface{}{
		"meta": payload.meta(),
		"rows": rows,
	})
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
