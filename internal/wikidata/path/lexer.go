// Package path implements the property-path mini-language: the grammar
// used to address a value inside an entity (a claim, a qualifier, a term,
// a sitelink, or some composition of those) and the evaluator that walks
// an entity against a parsed path.
package path

import (
	"fmt"
	"strings"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokPID
	tokTerm     // Lxx, Dxx, Axx
	tokSitelink // Sxx
	tokQid      // the literal "qid"
	tokSlash
	tokPipe
	tokLParen
	tokRParen
	tokUnderscore
	tokAt
	tokSubfield // identifier following '@'
)

type token struct {
	kind  tokenKind
	text  string // PID digits, term lang code, sitelink id, subfield name
	extra byte   // term kind: 'L', 'D', or 'A'
}

type lexer struct {
	input string
	pos   int
}

func newLexer(input string) *lexer {
	return &lexer{input: input}
}

func (l *lexer) peekByte() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	return l.input[l.pos]
}

func (l *lexer) next() (token, error) {
	if l.pos >= len(l.input) {
		return token{kind: tokEOF}, nil
	}
	c := l.input[l.pos]
	switch c {
	case '/':
		l.pos++
		return token{kind: tokSlash}, nil
	case '|':
		l.pos++
		return token{kind: tokPipe}, nil
	case '(':
		l.pos++
		return token{kind: tokLParen}, nil
	case ')':
		l.pos++
		return token{kind: tokRParen}, nil
	case '_':
		l.pos++
		return token{kind: tokUnderscore}, nil
	case '@':
		l.pos++
		start := l.pos
		for l.pos < len(l.input) && isNameByte(l.input[l.pos]) {
			l.pos++
		}
		if l.pos == start {
			return token{}, fmt.Errorf("path: expected subfield name after '@' at position %d", start)
		}
		return token{kind: tokSubfield, text: l.input[start:l.pos]}, nil
	case 'P', 'p':
		start := l.pos
		l.pos++
		for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
			l.pos++
		}
		if l.pos == start+1 {
			return token{}, fmt.Errorf("path: expected digits after 'P' at position %d", start)
		}
		return token{kind: tokPID, text: l.input[start+1 : l.pos]}, nil
	case 'L', 'D', 'A':
		start := l.pos
		l.pos++
		for l.pos < len(l.input) && isNameByte(l.input[l.pos]) {
			l.pos++
		}
		return token{kind: tokTerm, text: l.input[start+1 : l.pos], extra: c}, nil
	case 'S':
		start := l.pos
		l.pos++
		for l.pos < len(l.input) && isNameByte(l.input[l.pos]) {
			l.pos++
		}
		return token{kind: tokSitelink, text: l.input[start+1 : l.pos]}, nil
	case 'q':
		if strings.HasPrefix(l.input[l.pos:], "qid") {
			l.pos += 3
			return token{kind: tokQid}, nil
		}
	}
	return token{}, fmt.Errorf("path: unexpected character %q at position %d", c, l.pos)
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isNameByte(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || isDigit(b) || b == '-'
}
