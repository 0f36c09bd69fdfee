package path

import "fmt"

// Parse compiles a property-path expression into its AST. An empty string
// parses to Empty.
func Parse(expr string) (Node, error) {
	if expr == "" {
		return Empty{}, nil
	}
	p := &parser{lex: newLexer(expr)}
	if err := p.advance(); err != nil {
		return nil, err
	}
	node, err := p.parseDisjunct()
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokEOF {
		return nil, fmt.Errorf("path: unexpected trailing input at token kind %d", p.tok.kind)
	}
	return node, nil
}

type parser struct {
	lex *lexer
	tok token
}

func (p *parser) advance() error {
	tok, err := p.lex.next()
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

// parseDisjunct handles the lowest-precedence operator, '|': the union of
// every option's result set.
func (p *parser) parseDisjunct() (Node, error) {
	first, err := p.parseConcat()
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokPipe {
		return first, nil
	}
	options := []Node{first}
	for p.tok.kind == tokPipe {
		if err := p.advance(); err != nil {
			return nil, err
		}
		next, err := p.parseConcat()
		if err != nil {
			return nil, err
		}
		options = append(options, next)
	}
	return Disjunct{Options: options}, nil
}

// parseConcat handles '/': chaining through an item-valued intermediate
// result into the next segment.
func (p *parser) parseConcat() (Node, error) {
	left, err := p.parseSubfielded()
	if err != nil {
		return nil, err
	}
	for p.tok.kind == tokSlash {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseSubfielded()
		if err != nil {
			return nil, err
		}
		left = Concat{Left: left, Right: right}
	}
	return left, nil
}

// parseSubfielded handles '@', the highest-precedence operator: it binds
// only to the immediately preceding atom.
func (p *parser) parseSubfielded() (Node, error) {
	atom, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	for p.tok.kind == tokSubfield {
		name := p.tok.text
		atom = Subfield{Base: atom, Name: name}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	return atom, nil
}

func (p *parser) parseAtom() (Node, error) {
	switch p.tok.kind {
	case tokPID:
		pid := p.tok.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.tok.kind == tokUnderscore {
			if err := p.advance(); err != nil {
				return nil, err
			}
			if p.tok.kind != tokPID {
				return nil, fmt.Errorf("path: expected a property id after '_'")
			}
			qpid := p.tok.text
			if err := p.advance(); err != nil {
				return nil, err
			}
			return Qualifier{Pid: pid, QualifierPid: qpid}, nil
		}
		return Leaf{Pid: pid}, nil
	case tokTerm:
		kind, lang := p.tok.extra, p.tok.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		return Term{Kind: kind, Lang: lang}, nil
	case tokSitelink:
		site := p.tok.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		return Sitelink{Site: site}, nil
	case tokQid:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return Qid{}, nil
	case tokLParen:
		if err := p.advance(); err != nil {
			return nil, err
		}
		inner, err := p.parseDisjunct()
		if err != nil {
			return nil, err
		}
		if p.tok.kind != tokRParen {
			return nil, fmt.Errorf("path: expected ')'")
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return inner, nil
	default:
		return nil, fmt.Errorf("path: unexpected token kind %d while parsing an atom", p.tok.kind)
	}
}
