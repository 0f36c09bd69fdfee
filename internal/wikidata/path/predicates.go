package path

import "context"

// IdentifierPropertySet answers whether a property id (e.g. "P214") is
// registered upstream as a unique external identifier property.
type IdentifierPropertySet interface {
	IsIdentifier(ctx context.Context, pid string) (bool, error)
}

// identifierSubfields are the subfields whose extracted value is always
// an IdentifierValue, and so participate in the "ends with identifier"
// structural shortcut the same way a plain external-id property would.
var identifierSubfields = map[string]bool{
	"isodate":   true,
	"iso":       true,
	"urlscheme": true,
	"netloc":    true,
	"urlpath":   true,
}

// IsUniqueIdentifier reports whether node is a simple property reference
// over a property that idents actually recognizes as a unique external
// identifier (ISNI, GRID, VIAF, ...) — the only shape that can be resolved
// via a direct identifier-value fan-in lookup before any candidate
// discovery happens. Qualifier, Term, Sitelink, Concat, Disjunct,
// Subfield, and Empty paths are never treated as unique identifiers: a
// qualifier or a chained path needs a candidate entity to already be known
// before it can be evaluated. A Leaf over an ordinary property (e.g. P31,
// instance-of) isn't a unique identifier either, even though it has the
// same shape, so the property set has to be consulted rather than
// inferring this from structure alone.
func IsUniqueIdentifier(ctx context.Context, node Node, idents IdentifierPropertySet) (bool, error) {
	leaf, ok := node.(Leaf)
	if !ok {
		return false, nil
	}
	return idents.IsIdentifier(ctx, leaf.String())
}

// EndsWithIdentifier reports whether the final segment node addresses is
// structurally identifier-shaped (a plain property, a qualifier, or a
// subfield known to produce an IdentifierValue), which lets the engine
// score it with an exact match instead of fuzzy string comparison.
func EndsWithIdentifier(node Node) bool {
	switch n := node.(type) {
	case Leaf, Qualifier:
		return true
	case Subfield:
		return identifierSubfields[n.Name]
	case Concat:
		return EndsWithIdentifier(n.Right)
	case Disjunct:
		for _, opt := range n.Options {
			if !EndsWithIdentifier(opt) {
				return false
			}
		}
		return len(n.Options) > 0
	default:
		return false
	}
}

// ReadableName renders node the way it should appear as a scoring
// property's label in a reconciliation response.
func ReadableName(node Node) string {
	return node.String()
}
