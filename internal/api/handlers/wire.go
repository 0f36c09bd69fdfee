// Package handlers implements the HTTP surface: the manifest/reconcile
// endpoint, suggest/flyout/preview, the extension endpoints, and
// monitoring, all spoken in the reconciliation-service API shape.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/wikirecon/reconcile/internal/reconcile"
)

// extendPayload is the on-the-wire shape of an extend request:
// {"ids":[...],"properties":[{"id":"Pxxx","settings":{...}}]}. settings is
// optional per property; a checkbox field like "count" may arrive as a
// native JSON bool or, from an HTML form, as the string "on", so Count is
// decoded loosely and normalized by truthy.
type extendPayload struct {
	IDs        []string `json:"ids"`
	Properties []struct {
		Pid      string `json:"id"`
		Settings struct {
			Limit      int         `json:"limit"`
			Rank       string      `json:"rank"`
			References string      `json:"references"`
			Count      interface{} `json:"count"`
		} `json:"settings"`
	} `json:"properties"`
}

func (p extendPayload) specs() []reconcile.PropertySpec {
	out := make([]reconcile.PropertySpec, 0, len(p.Properties))
	for _, prop := range p.Properties {
		out = append(out, reconcile.PropertySpec{
			Pid: prop.Pid,
			Settings: reconcile.Settings{
				Limit:      prop.Settings.Limit,
				Rank:       prop.Settings.Rank,
				References: prop.Settings.References,
				Count:      truthy(prop.Settings.Count),
			},
		})
	}
	return out
}

// meta echoes each property's id and the settings that will actually
// apply (the caller's own, or the manifest defaults where they left a
// field blank), per the extend response contract.
func (p extendPayload) meta() []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(p.Properties))
	for _, prop := range p.Properties {
		rank := prop.Settings.Rank
		if rank == "" {
			rank = reconcile.DefaultSettings.Rank
		}
		references := prop.Settings.References
		if references == "" {
			references = reconcile.DefaultSettings.References
		}
		out = append(out, map[string]interface{}{
			"id": prop.Pid,
			"settings": map[string]interface{}{
				"limit":      prop.Settings.Limit,
				"rank":       rank,
				"references": references,
				"count":      truthy(prop.Settings.Count),
			},
		})
	}
	return out
}

// truthy normalizes a checkbox-shaped value that may have arrived as a
// JSON bool, an HTML-form "on"/"true"/"1", or absent.
func truthy(v interface{}) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "on", "true", "1", "yes":
			return true
		}
		return false
	case float64:
		return t != 0
	default:
		return false
	}
}

// wireQuery is the on-the-wire shape of a single reconciliation query, as
// sent inside the "query" or "queries" request parameter.
type wireQuery struct {
	Query      string `json:"query"`
	Type       string `json:"type"`
	Limit      int    `json:"limit"`
	Properties []struct {
		Pid string      `json:"pid"`
		V   interface{} `json:"v"`
	} `json:"properties"`
}

func (w wireQuery) toEngineQuery() reconcile.Query {
	props := make([]reconcile.PropertyQuery, 0, len(w.Properties))
	for _, p := range w.Properties {
		props = append(props, reconcile.PropertyQuery{Pid: p.Pid, V: stringify(p.V)})
	}
	return reconcile.Query{
		Query:      w.Query,
		Type:       w.Type,
		Limit:      w.Limit,
		Properties: props,
	}
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	default:
		b, _ := json.Marshal(t)
		return string(b)
	}
}

// requestParams reads every query-string and form parameter into one map,
// query-string values winning on collision, matching the legacy service's
// "either query parameters or form fields" contract.
func requestParams(r *http.Request) map[string]string {
	_ = r.ParseForm()
	params := map[string]string{}
	for k, v := range r.Form {
		if len(v) > 0 {
			params[k] = v[0]
		}
	}
	for k, v := range r.URL.Query() {
		if len(v) > 0 {
			params[k] = v[0]
		}
	}
	return params
}

func paramLang(params map[string]string, pathLang string) string {
	if pathLang != "" {
		return pathLang
	}
	if l, ok := params["lang"]; ok && l != "" {
		return l
	}
	return "en"
}

func paramInt(params map[string]string, key string, fallback int) int {
	v, ok := params[key]
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(v)
}
