package recordql

import (
	"fmt"
	"strings"
	"time"
)

// Parser parses filter queries into an AST.
type Parser struct {
	lexer   *Lexer
	current Token
}

// Parse parses the input string and returns the AST root node.
// An empty or blank query yields a nil node, which matches everything.
func Parse(input string) (Node, error) {
	if strings.TrimSpace(input) == "" {
		return nil, nil
	}
	p := &Parser{lexer: NewLexer(input)}
	p.advance()

	node, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.current.Type != TokenEOF {
		return nil, fmt.Errorf("unexpected %v", p.current)
	}
	return node, nil
}

func (p *Parser) advance() {
	p.current = p.lexer.NextToken()
}

// parseOr handles OR expressions (lowest precedence).
func (p *Parser) parseOr() (Node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}

	for p.current.Type == TokenOr {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = BinaryExpr{Op: "OR", Left: left, Right: right}
	}

	return left, nil
}

func (p *Parser) parseAnd() (Node, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}

	for p.current.Type == TokenAnd {
		p.advance()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = BinaryExpr{Op: "AND", Left: left, Right: right}
	}

	return left, nil
}

func (p *Parser) parseNot() (Node, error) {
	if p.current.Type == TokenNot {
		p.advance()
		expr, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return NotExpr{Expr: expr}, nil
	}
	return p.parsePrimary()
}

// parsePrimary handles (expr), field:value, field<op>value and bare terms.
func (p *Parser) parsePrimary() (Node, error) {
	switch p.current.Type {
	case TokenLParen:
		p.advance()
		expr, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.current.Type != TokenRParen {
			return nil, fmt.Errorf("expected ')' but got %v", p.current)
		}
		p.advance()
		return expr, nil

	case TokenString:
		value := p.current.Value
		p.advance()
		return MatchExpr{Value: value, Op: "CONTAINS"}, nil

	case TokenIdent:
		ident := p.current
		p.advance()

		switch p.current.Type {
		case TokenColon:
			p.advance()
			return p.parseValue(ident, "=")
		case TokenNeq:
			p.advance()
			return p.parseValue(ident, "!=")
		case TokenGt, TokenGte, TokenLt, TokenLte:
			op := p.current.Value
			p.advance()
			return p.parseValue(ident, op)
		}

		return MatchExpr{Value: ident.Value, Op: "CONTAINS"}, nil

	default:
		return nil, fmt.Errorf("unexpected %v", p.current)
	}
}

// parseValue parses the value after field:, field!= or a time comparison.
func (p *Parser) parseValue(field Token, op string) (Node, error) {
	if p.current.Type != TokenString && p.current.Type != TokenIdent {
		return nil, fmt.Errorf("expected value after '%s%s' but got %v", field.Value, op, p.current)
	}
	value := p.current.Value
	p.advance()

	name, ok := canonicalField(field.Value)
	if !ok {
		return nil, fmt.Errorf("unknown field %q at %d", field.Value, field.Pos)
	}

	if name == fieldTime {
		ts, err := time.Parse(time.RFC3339Nano, value)
		if err != nil {
			return nil, fmt.Errorf("field %q expects an RFC 3339 timestamp: %w", field.Value, err)
		}
		return TimeExpr{Op: op, Time: ts}, nil
	}

	if op != "=" && op != "!=" {
		return nil, fmt.Errorf("operator %s is only valid on the time field", op)
	}
	return MatchExpr{Field: name, Value: value, Op: op}, nil
}

const (
	fieldSeverity = "severity"
	fieldCategory = "category"
	fieldMessage  = "message"
	fieldTime     = "time"
)

func canonicalField(name string) (string, bool) {
	switch strings.ToLower(name) {
	case "severity", "level", "lvl":
		return fieldSeverity, true
	case "category", "cat":
		return fieldCategory, true
	case "message", "msg":
		return fieldMessage, true
	case "time", "ts", "timestamp":
		return fieldTime, true
	default:
		return "", false
	}
}
