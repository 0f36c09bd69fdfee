package reconcile

import (
	"github.com/wikirecon/reconcile/internal/wikidata/path"
)

// PropertyQuery is one scoring constraint within a reconciliation query: a
// property path and the value it should match against.
type PropertyQuery struct {
	Pid string // raw path expression as given by the caller, e.g. "P569@year"
	V   string // the value to match, already stringified
}

// preparedProperty is a PropertyQuery with its path parsed and its
// structural predicates computed once, up front, so every candidate
// scoring pass can reuse them.
type preparedProperty struct {
	PropertyQuery
	Path          path.Node
	IsUniqueID    bool
	EndsWithID    bool
	Weight        float64
	IsAllLabels   bool
}

// Query is a single reconciliation request for one row of input data.
type Query struct {
	Query      string
	Type       string // target type entity id, "" if unconstrained
	Limit      int
	Properties []PropertyQuery
}

// MatchedType describes one type the candidate was found to satisfy.
type MatchedType struct {
	ID   string
	Name string
}

// Candidate is a single scored result for a query.
type Candidate struct {
	ID          string
	Name        string
	Description string
	Score       int
	Match       bool
	Types       []MatchedType
}

// propertyWeight is the scoring weight given to every explicit caller
// property; the synthetic all_labels constraint always gets weight 1.0,
// so that the query string itself dominates the score whenever it's
// present, with caller-supplied properties acting as corroborating
// signal rather than equal partners.
const propertyWeight = 0.4

// allLabelsWeight is the weight of the synthetic constraint that compares
// the query string against every label and alias the candidate has.
const allLabelsWeight = 1.0
