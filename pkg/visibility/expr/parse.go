package expr

import (
	"errors"
	"fmt"
)

type node interface {
	eval(env env) bool
	idents(visit func(string))
}

type orNode struct{ left, right node }

func (n orNode) eval(e env) bool { return n.left.eval(e) || n.right.eval(e) }

func (n orNode) idents(visit func(string)) {
	n.left.idents(visit)
	n.right.idents(visit)
}

type andNode struct{ left, right node }

func (n andNode) eval(e env) bool { return n.left.eval(e) && n.right.eval(e) }

func (n andNode) idents(visit func(string)) {
	n.left.idents(visit)
	n.right.idents(visit)
}

type notNode struct{ inner node }

func (n notNode) eval(e env) bool { return !n.inner.eval(e) }

func (n notNode) idents(visit func(string)) { n.inner.idents(visit) }

type truthyNode struct{ ident string }

func (n truthyNode) eval(e env) bool { return truthy(e.resolve(n.ident)) }

func (n truthyNode) idents(visit func(string)) { visit(n.ident) }

type compareNode struct {
	ident  string
	negate bool
	lit    token
}

func (n compareNode) eval(e env) bool {
	return equalsLiteral(e.resolve(n.ident), n.lit) != n.negate
}

func (n compareNode) idents(visit func(string)) { visit(n.ident) }

// parser implements:
//
//	or      = and { "||" and }
//	and     = unary { "&&" unary }
//	unary   = "!" unary | primary
//	primary = "(" or ")" | ident [ ("==" | "!=") literal ]
type parser struct {
	tokens []token
	pos    int
}

func parse(tokens []token) (node, error) {
	p := &parser{tokens: tokens}
	root, err := p.or()
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.tokens) {
		tok := p.tokens[p.pos]
		return nil, fmt.Errorf("expr: unexpected %q at %d", tok.text, tok.pos)
	}
	return root, nil
}

func (p *parser) accept(kind tokenKind) (token, bool) {
	if p.pos >= len(p.tokens) || p.tokens[p.pos].kind != kind {
		return token{}, false
	}
	tok := p.tokens[p.pos]
	p.pos++
	return tok, true
}

func (p *parser) or() (node, error) {
	left, err := p.and()
	if err != nil {
		return nil, err
	}
	for {
		if _, ok := p.accept(tokenOr); !ok {
			return left, nil
		}
		right, err := p.and()
		if err != nil {
			return nil, err
		}
		left = orNode{left: left, right: right}
	}
}

func (p *parser) and() (node, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for {
		if _, ok := p.accept(tokenAnd); !ok {
			return left, nil
		}
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		left = andNode{left: left, right: right}
	}
}

func (p *parser) unary() (node, error) {
	if _, ok := p.accept(tokenNot); ok {
		inner, err := p.unary()
		if err != nil {
			return nil, err
		}
		return notNode{inner: inner}, nil
	}
	return p.primary()
}

func (p *parser) primary() (node, error) {
	if _, ok := p.accept(tokenLParen); ok {
		inner, err := p.or()
		if err != nil {
			return nil, err
		}
		if _, ok := p.accept(tokenRParen); !ok {
			return nil, errors.New("expr: missing closing ')'")
		}
		return inner, nil
	}

	ident, ok := p.accept(tokenIdent)
	if !ok {
		if p.pos >= len(p.tokens) {
			return nil, errors.New("expr: unexpected end of expression")
		}
		tok := p.tokens[p.pos]
		return nil, fmt.Errorf("expr: expected identifier at %d, got %q", tok.pos, tok.text)
	}

	negate := false
	if _, ok := p.accept(tokenEq); !ok {
		if _, ok := p.accept(tokenNeq); !ok {
			return truthyNode{ident: ident.text}, nil
		}
		negate = true
	}

	lit, err := p.literal()
	if err != nil {
		return nil, err
	}
	return compareNode{ident: ident.text, negate: negate, lit: lit}, nil
}

func (p *parser) literal() (token, error) {
	if p.pos >= len(p.tokens) {
		return token{}, errors.New("expr: missing literal after comparison")
	}
	tok := p.tokens[p.pos]
	switch tok.kind {
	case tokenString, tokenNumber, tokenBool, tokenNull:
		p.pos++
		return tok, nil
	default:
		return token{}, fmt.Errorf("expr: expected literal at %d, got %q", tok.pos, tok.text)
	}
}
