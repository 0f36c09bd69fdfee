package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

type sparqlResponse struct {
	Results struct {
		Bindings []map[string]struct {
			Value string `json:"value"`
		} `json:"bindings"`
	} `json:"results"`
}

// query runs a raw SPARQL query against the graph endpoint and returns the
// string value bound to variable in each result row.
func (c *Client) query(ctx context.Context, sparql, variable string) ([]string, error) {
	params := url.Values{
		"query":  {sparql},
		"format": {"json"},
	}
	body, err := c.get(ctx, c.graphEndpoint, params)
	if err != nil {
		return nil, err
	}
	var parsed sparqlResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode sparql response: %w", err)
	}
	out := make([]string, 0, len(parsed.Results.Bindings))
	for _, row := range parsed.Results.Bindings {
		binding, ok := row[variable]
		if !ok {
			continue
		}
		out = append(out, lastPathSegment(binding.Value))
	}
	return out, nil
}

func lastPathSegment(iri string) string {
	for i := len(iri) - 1; i >= 0; i-- {
		if iri[i] == '/' {
			return iri[i+1:]
		}
	}
	return iri
}

// SubclassClosure returns every entity that is a transitive subclass of
// qid (inclusive), via the P279 subclass-of property.
func (c *Client) SubclassClosure(ctx context.Context, qid string) ([]string, error) {
	sparql := fmt.Sprintf(`SELECT ?child WHERE { ?child wdt:P279* wd:%s }`, qid)
	children, err := c.query(ctx, sparql, "child")
	if err != nil {
		return nil, err
	}
	return children, nil
}

// ClassesWithProperty returns every class entity that declares propertyQid
// via the given relatorPid (e.g. P1963 "properties for this type"),
// used to seed the suggest engine's property-proposal BFS.
func (c *Client) ClassesWithProperty(ctx context.Context, relatorPid, propertyQid string) ([]string, error) {
	sparql := fmt.Sprintf(`SELECT ?class WHERE { ?class wdt:%s wd:%s }`, relatorPid, propertyQid)
	return c.query(ctx, sparql, "class")
}

// Superclasses returns the direct P279 superclasses of qid, used by the
// suggest engine's breadth-first property-proposal walk.
func (c *Client) Superclasses(ctx context.Context, qid string) ([]string, error) {
	sparql := fmt.Sprintf(`SELECT ?parent WHERE { wd:%s wdt:P279 ?parent }`, qid)
	return c.query(ctx, sparql, "parent")
}

// identifierPropertyClassQid is "Wikidata property representing a unique
// identifier", the class every unique external-id property is declared an
// instance of.
const identifierPropertyClassQid = "Q19847637"

// IdentifierProperties returns every property entity registered as a
// unique external identifier, used to seed store.IdentifierSet's cached
// membership test.
func (c *Client) IdentifierProperties(ctx context.Context) ([]string, error) {
	sparql := fmt.Sprintf(`SELECT ?property WHERE { ?property wdt:P31 wd:%s }`, identifierPropertyClassQid)
	return c.query(ctx, sparql, "property")
}

// ReverseLookup finds every entity carrying pid=value for each of values,
// in a single graph query, used to fan identifier-like query values
// straight into candidate entity ids before falling back to full-text
// search.
func (c *Client) ReverseLookup(ctx context.Context, pid string, values []string) (map[string][]string, error) {
	if len(values) == 0 {
		return map[string][]string{}, nil
	}
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = fmt.Sprintf("%q", v)
	}
	sparql := fmt.Sprintf(
		`SELECT ?item ?value WHERE { VALUES ?value { %s } ?item wdt:%s ?value }`,
		strings.Join(quoted, " "), pid,
	)
	params := url.Values{"query": {sparql}, "format": {"json"}}
	body, err := c.get(ctx, c.graphEndpoint, params)
	if err != nil {
		return nil, err
	}
	var parsed struct {
		Results struct {
			Bindings []struct {
				Item  struct{ Value string } `json:"item"`
				Value struct{ Value string } `json:"value"`
			} `json:"bindings"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode reverse lookup response: %w", err)
	}
	out := map[string][]string{}
	for _, b := range parsed.Results.Bindings {
		id := lastPathSegment(b.Item.Value)
		out[b.Value.Value] = append(out[b.Value.Value], id)
	}
	return out, nil
}
