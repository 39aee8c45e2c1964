// Package syntax parses a JSON-like grammar into a positional syntax tree.
//
// The package is the parser boundary of the synchronization engine: it knows
// nothing about the node model and reports, per syntax node, only a type, an
// ordered child list, and exact byte spans. Callers rebuild formatting from
// the gaps between spans, so the lexer never normalizes or discards source
// text.
package syntax

import "fmt"

type Kind int

const (
	KindObject Kind = iota + 1
	KindPair
	KindArray
	KindScalar
)

func (k Kind) String() string {
	switch k {
	case KindObject:
		return "object"
	case KindPair:
		return "pair"
	case KindArray:
		return "array"
	case KindScalar:
		return "scalar"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Node is one grammar rule instance. Terminals (scalars and pair keys) carry
// their raw serialized text; non-terminals carry ordered children. Span covers
// the full extent of the rule in the source.
type Node struct {
	Kind     Kind
	Span     Span
	Children []*Node

	// Key is set for pair nodes only: the raw key literal including quotes.
	Key *Token

	// Raw is set for scalar nodes only: the literal as written.
	Raw string
}

// Parse parses a single document value. Trailing non-whitespace content is a
// parse error. On failure the returned error is a *ParseError.
func Parse(source []byte) (*Node, error) {
	p := &parser{lex: newLexer(source)}
	if err := p.next(); err != nil {
		return nil, err
	}
	node, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	if p.tok.Type != TokenEOF {
		return nil, &ParseError{Pos: p.tok.Span.Start, Msg: fmt.Sprintf("unexpected %s after document value", p.tok.Type)}
	}
	return node, nil
}

type parser struct {
	lex *lexer
	tok Token
}

func (p *parser) next() error {
	tok, err := p.lex.Next()
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

func (p *parser) expect(typ TokenType) (Token, error) {
	if p.tok.Type != typ {
		return Token{}, &ParseError{
			Pos: p.tok.Span.Start,
			Msg: fmt.Sprintf("unexpected %s, expected %s", p.tok.Type, typ),
		}
	}
	tok := p.tok
	if err := p.next(); err != nil {
		return Token{}, err
	}
	return tok, nil
}

func (p *parser) parseValue() (*Node, error) {
	switch p.tok.Type {
	case TokenLeftBrace:
		return p.parseObject()
	case TokenLeftBracket:
		return p.parseArray()
	case TokenString, TokenNumber, TokenTrue, TokenFalse, TokenNull:
		node := &Node{Kind: KindScalar, Span: p.tok.Span, Raw: p.tok.Raw}
		if err := p.next(); err != nil {
			return nil, err
		}
		return node, nil
	}
	return nil, &ParseError{Pos: p.tok.Span.Start, Msg: fmt.Sprintf("unexpected %s, expected a value", p.tok.Type)}
}

func (p *parser) parseObject() (*Node, error) {
	open, err := p.expect(TokenLeftBrace)
	if err != nil {
		return nil, err
	}
	node := &Node{Kind: KindObject}
	node.Span.Start = open.Span.Start

	if p.tok.Type != TokenRightBrace {
		for {
			pair, err := p.parsePair()
			if err != nil {
				return nil, err
			}
			node.Children = append(node.Children, pair)
			if p.tok.Type != TokenComma {
				break
			}
			if err := p.next(); err != nil {
				return nil, err
			}
		}
	}

	closing, err := p.expect(TokenRightBrace)
	if err != nil {
		return nil, err
	}
	node.Span.End = closing.Span.End
	return node, nil
}

func (p *parser) parsePair() (*Node, error) {
	key, err := p.expect(TokenString)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenColon); err != nil {
		return nil, err
	}
	value, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	return &Node{
		Kind:     KindPair,
		Span:     Span{Start: key.Span.Start, End: value.Span.End},
		Key:      &key,
		Children: []*Node{value},
	}, nil
}

func (p *parser) parseArray() (*Node, error) {
	open, err := p.expect(TokenLeftBracket)
	if err != nil {
		return nil, err
	}
	node := &Node{Kind: KindArray}
	node.Span.Start = open.Span.Start

	if p.tok.Type != TokenRightBracket {
		for {
			item, err := p.parseValue()
			if err != nil {
				return nil, err
			}
			node.Children = append(node.Children, item)
			if p.tok.Type != TokenComma {
				break
			}
			if err := p.next(); err != nil {
				return nil, err
			}
		}
	}

	closing, err := p.expect(TokenRightBracket)
	if err != nil {
		return nil, err
	}
	node.Span.End = closing.Span.End
	return node, nil
}
