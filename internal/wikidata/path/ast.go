package path

// Node is a parsed property-path expression.
type Node interface {
	// String renders the node back to its canonical path syntax, used to
	// key caches and to label scoring properties in responses.
	String() string
}

// Empty is the path with no segments: "the entity itself". It's how a
// leading Concat operand refers to the entity under evaluation.
type Empty struct{}

func (Empty) String() string { return "" }

// Leaf addresses a single property's claims directly.
type Leaf struct {
	Pid string
}

func (n Leaf) String() string { return "P" + n.Pid }

// Qualifier addresses a qualifier value on a property's claims, written
// "P31_P642" for the P642 qualifier of P31 claims.
type Qualifier struct {
	Pid          string
	QualifierPid string
}

func (n Qualifier) String() string { return "P" + n.Pid + "_P" + n.QualifierPid }

// Qid addresses the entity's own id.
type Qid struct{}

func (Qid) String() string { return "qid" }

// Term addresses a label (L), description (D), or alias (A) in a given
// language.
type Term struct {
	Kind byte // 'L', 'D', or 'A'
	Lang string
}

func (n Term) String() string { return string(n.Kind) + n.Lang }

// Sitelink addresses a sitelink's page title on a given wiki ("Senwiki").
type Sitelink struct {
	Site string
}

func (n Sitelink) String() string { return "S" + n.Site }

// Concat chains two path segments: the values of Left must be entity
// references, each of which Right is then evaluated against.
type Concat struct {
	Left, Right Node
}

func (n Concat) String() string { return n.Left.String() + "/" + n.Right.String() }

// Disjunct evaluates every option and returns the union of their results.
type Disjunct struct {
	Options []Node
}

func (n Disjunct) String() string {
	out := "("
	for i, o := range n.Options {
		if i > 0 {
			out += "|"
		}
		out += o.String()
	}
	return out + ")"
}

// Subfield applies a named extractor ("@lat", "@isodate", ...) to every
// value Base produces.
type Subfield struct {
	Base Node
	Name string
}

func (n Subfield) String() string { return n.Base.String() + "@" + n.Name }
