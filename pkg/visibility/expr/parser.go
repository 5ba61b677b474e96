package expr

import (
	"errors"
	"fmt"
)

type node interface {
	eval(scope) (bool, error)
}

type orNode struct{ left, right node }

func (n orNode) eval(s scope) (bool, error) {
	ok, err := n.left.eval(s)
	if err != nil || ok {
		return ok, err
	}
	return n.right.eval(s)
}

type andNode struct{ left, right node }

func (n andNode) eval(s scope) (bool, error) {
	ok, err := n.left.eval(s)
	if err != nil || !ok {
		return false, err
	}
	return n.right.eval(s)
}

type notNode struct{ inner node }

func (n notNode) eval(s scope) (bool, error) {
	ok, err := n.inner.eval(s)
	if err != nil {
		return false, err
	}
	return !ok, nil
}

type truthyNode struct{ ident string }

func (n truthyNode) eval(s scope) (bool, error) {
	value, ok := s.Resolve(n.ident)
	if !ok {
		return false, nil
	}
	return truthy(value), nil
}

type compareNode struct {
	ident   string
	negate  bool
	literal token
}

func (n compareNode) eval(s scope) (bool, error) {
	value, _ := s.Resolve(n.ident)
	equal, err := equals(value, n.literal)
	if err != nil {
		return false, err
	}
	if n.negate {
		return !equal, nil
	}
	return equal, nil
}

type parser struct {
	tokens []token
	pos    int
}

func parse(tokens []token) (node, error) {
	if len(tokens) == 0 {
		return nil, errors.New("expr: empty expression")
	}
	p := &parser{tokens: tokens}
	root, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.tokens) {
		tok := p.tokens[p.pos]
		return nil, fmt.Errorf("expr: unexpected %q at offset %d", tok.text, tok.pos)
	}
	return root, nil
}

func (p *parser) peek() (token, bool) {
	if p.pos >= len(p.tokens) {
		return token{}, false
	}
	return p.tokens[p.pos], true
}

func (p *parser) accept(kind tokenKind) bool {
	if tok, ok := p.peek(); ok && tok.kind == kind {
		p.pos++
		return true
	}
	return false
}

func (p *parser) parseOr() (node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.accept(tokOr) {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = orNode{left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.accept(tokAnd) {
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = andNode{left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (node, error) {
	if p.accept(tokNot) {
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return notNode{inner: inner}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (node, error) {
	if p.accept(tokLParen) {
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if !p.accept(tokRParen) {
			return nil, errors.New("expr: missing closing ')'")
		}
		return inner, nil
	}

	tok, ok := p.peek()
	if !ok {
		return nil, errors.New("expr: unexpected end of expression")
	}
	if tok.kind != tokIdent {
		return nil, fmt.Errorf("expr: expected identifier, got %q at offset %d", tok.text, tok.pos)
	}
	p.pos++

	negate := false
	switch {
	case p.accept(tokEq):
	case p.accept(tokNeq):
		negate = true
	default:
		return truthyNode{ident: tok.text}, nil
	}

	lit, ok := p.peek()
	if !ok {
		return nil, fmt.Errorf("expr: missing literal after %q", tok.text)
	}
	switch lit.kind {
	case tokString, tokNumber, tokBool, tokNull:
	case tokIdent:
		// bare words compare as strings: propertyType == other
		lit.kind = tokString
	default:
		return nil, fmt.Errorf("expr: expected literal, got %q at offset %d", lit.text, lit.pos)
	}
	p.pos++
	return compareNode{ident: tok.text, negate: negate, literal: lit}, nil
}
