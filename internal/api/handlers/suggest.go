package handlers

import (
	"net/http"

	"github.com/wikirecon/reconcile/internal/api/problem"
	"github.com/wikirecon/reconcile/internal/reconcile"
)

type SuggestHandler struct {
	suggest *reconcile.SuggestEngine
}

func NewSuggestHandler(suggest *reconcile.SuggestEngine) *SuggestHandler {
	return &SuggestHandler{suggest: suggest}
}

func (h *SuggestHandler) find(kind string, find func(r *http.Request, prefix string, limit int) ([]reconcile.SuggestItem, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params := requestParams(r)
		prefix := params["prefix"]
		limit := paramInt(params, "limit", 10)
		items, err := find(r, prefix, limit)
		if err != nil {
			writeEngineError(w, r, err)
			return
		}
		result := make([]map[string]string, 0, len(items))
		for _, it := range items {
			entry := map[string]string{"id": it.ID, "name": it.Name}
			if it.Description != "" {
				entry["description"] = it.Description
			}
			result = append(result, entry)
		}
		writeJSON(w, map[string]interface{}{"result": result})
	}
}

func (h *SuggestHandler) Type() http.HandlerFunc {
	return h.find("type", func(r *http.Request, prefix string, limit int) ([]reconcile.SuggestItem, error) {
		return h.suggest.FindType(r.Context(), prefix, limit)
	})
}

func (h *SuggestHandler) Property() http.HandlerFunc {
	return h.find("property", func(r *http.Request, prefix string, limit int) ([]reconcile.SuggestItem, error) {
		return h.suggest.FindProperty(r.Context(), prefix, limit)
	})
}

func (h *SuggestHandler) Entity() http.HandlerFunc {
	return h.find("entity", func(r *http.Request, prefix string, limit int) ([]reconcile.SuggestItem, error) {
		return h.suggest.FindEntity(r.Context(), prefix, limit)
	})
}

// Flyout serves GET|POST /<lang>/flyout/{type|property|entity}: a short
// HTML description of a single entity, reusing the preview renderer.
func (h *SuggestHandler) Flyout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params := requestParams(r)
		id := params["id"]
		if id == "" {
			problem.Write(w, r, "invalid query", "missing id", params, nil)
			return
		}
		html, err := h.suggest.Preview(r.Context(), id)
		if err != nil {
			writeEngineError(w, r, err)
			return
		}
		writeJSON(w, map[string]interface{}{"id": id, "html": html})
	}
}

// Preview serves GET|POST /<lang>/preview: the bare HTML snippet.
func (h *SuggestHandler) Preview() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params := requestParams(r)
		id := params["id"]
		if id == "" {
			problem.Write(w, r, "invalid query", "missing id", params, nil)
			return
		}
		html, err := h.suggest.Preview(r.Context(), id)
		if err != nil {
			writeEngineError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(html))
	}
}

// ProposeProperties serves GET|POST /<lang>/propose_properties.
func (h *SuggestHandler) ProposeProperties() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params := requestParams(r)
		typeID := params["type"]
		if typeID == "" {
			problem.Write(w, r, "invalid query", "missing type", params, nil)
			return
		}
		limit := paramInt(params, "limit", 20)
		props, err := h.suggest.ProposeProperties(r.Context(), typeID, limit)
		if err != nil {
			writeEngineError(w, r, err)
			return
		}
		result := make([]map[string]string, 0, len(props))
		for _, pid := range props {
			result = append(result, map[string]string{"id": pid})
		}
		writeJSON(w, map[string]interface{}{"properties": result})
	}
}
