package recordql

import (
	"testing"
	"time"
)

// testRecord implements Record for testing
type testRecord struct {
	ts       time.Time
	severity string
	category string
	message  string
}

func (r *testRecord) GetTime() time.Time  { return r.ts }
func (r *testRecord) GetSeverity() string { return r.severity }
func (r *testRecord) GetCategory() string { return r.category }
func (r *testRecord) GetMessage() string  { return r.message }

func TestLexer(t *testing.T) {
	tests := []struct {
		input    string
		expected []TokenType
	}{
		{"severity:ERROR", []TokenType{TokenIdent, TokenColon, TokenIdent, TokenEOF}},
		{`category:"db pool"`, []TokenType{TokenIdent, TokenColon, TokenString, TokenEOF}},
		{"a AND b", []TokenType{TokenIdent, TokenAnd, TokenIdent, TokenEOF}},
		{"a or b", []TokenType{TokenIdent, TokenOr, TokenIdent, TokenEOF}},
		{"NOT a", []TokenType{TokenNot, TokenIdent, TokenEOF}},
		{"(a)", []TokenType{TokenLParen, TokenIdent, TokenRParen, TokenEOF}},
		{`key!="value"`, []TokenType{TokenIdent, TokenNeq, TokenString, TokenEOF}},
		{`ts>="x" ts<"y"`, []TokenType{TokenIdent, TokenGte, TokenString, TokenIdent, TokenLt, TokenString, TokenEOF}},
		{`"open`, []TokenType{TokenIllegal, TokenEOF}},
		{"a ! b", []TokenType{TokenIdent, TokenIllegal, TokenIdent, TokenEOF}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			lexer := NewLexer(tt.input)
			for i, expected := range tt.expected {
				tok := lexer.NextToken()
				if tok.Type != expected {
					t.Errorf("token %d: expected %v, got %v (%q)", i, expected, tok.Type, tok.Value)
				}
			}
		})
	}
}

func TestLexerStringEscapes(t *testing.T) {
	tok := NewLexer(`"say \"hi\""`).NextToken()
	if tok.Type != TokenString || tok.Value != `say "hi"` {
		t.Fatalf("got %v %q, want string %q", tok.Type, tok.Value, `say "hi"`)
	}
}

func TestParseSimple(t *testing.T) {
	tests := []struct {
		input string
		check func(Node) bool
	}{
		{
			input: "severity:ERROR",
			check: func(n Node) bool {
				m, ok := n.(MatchExpr)
				return ok && m.Field == "severity" && m.Value == "ERROR" && m.Op == "="
			},
		},
		{
			input: `cat:"auth"`,
			check: func(n Node) bool {
				m, ok := n.(MatchExpr)
				return ok && m.Field == "category" && m.Value == "auth" && m.Op == "="
			},
		},
		{
			input: `"timeout"`,
			check: func(n Node) bool {
				m, ok := n.(MatchExpr)
				return ok && m.Field == "" && m.Value == "timeout" && m.Op == "CONTAINS"
			},
		},
		{
			input: `ts>="2024-01-15T10:00:00Z"`,
			check: func(n Node) bool {
				te, ok := n.(TimeExpr)
				return ok && te.Op == ">=" && te.Time.Equal(time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC))
			},
		},
		{
			input: "   ",
			check: func(n Node) bool { return n == nil },
		},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			node, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("parse error: %v", err)
			}
			if !tt.check(node) {
				t.Errorf("check failed for input %q, got: %+v", tt.input, node)
			}
		})
	}
}

func TestParseCompound(t *testing.T) {
	node, err := Parse("severity:ERROR AND (category:db OR category:cache)")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	bin, ok := node.(BinaryExpr)
	if !ok || bin.Op != "AND" {
		t.Fatalf("expected BinaryExpr AND, got %+v", node)
	}

	left, ok := bin.Left.(MatchExpr)
	if !ok || left.Field != "severity" || left.Value != "ERROR" {
		t.Errorf("left expected severity:ERROR, got %+v", bin.Left)
	}

	right, ok := bin.Right.(BinaryExpr)
	if !ok || right.Op != "OR" {
		t.Errorf("expected OR on right, got %+v", bin.Right)
	}
}

func TestParseNot(t *testing.T) {
	node, err := Parse("NOT level:DEBUG")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	not, ok := node.(NotExpr)
	if !ok {
		t.Fatalf("expected NotExpr, got %+v", node)
	}

	m, ok := not.Expr.(MatchExpr)
	if !ok || m.Field != "severity" || m.Value != "DEBUG" {
		t.Errorf("expected severity:DEBUG, got %+v", not.Expr)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []string{
		"host:web-1",
		"severity:",
		"(severity:ERROR",
		"severity:ERROR)",
		`ts>"yesterday"`,
		"severity>ERROR",
		`"unterminated`,
		"AND",
	}

	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			if _, err := Parse(input); err == nil {
				t.Errorf("Parse(%q) returned no error", input)
			}
		})
	}
}

func TestMatch(t *testing.T) {
	rec := &testRecord{
		ts:       time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
		severity: "ERROR",
		category: "db",
		message:  "Connection timeout occurred",
	}

	tests := []struct {
		query    string
		expected bool
	}{
		{"severity:ERROR", true},
		{"severity:INFO", false},
		{"category:db", true},
		{"category!=db", false},
		{`"timeout"`, true},
		{`"success"`, false},
		{"timeout", true},
		{"severity:ERROR AND category:db", true},
		{"severity:ERROR AND category:auth", false},
		{"category:auth OR severity:ERROR", true},
		{"NOT severity:DEBUG", true},
		{"NOT severity:ERROR", false},
		{`msg:"Connection timeout occurred"`, true},
		{`ts>="2024-01-15T10:30:00Z"`, true},
		{`ts>"2024-01-15T10:30:00Z"`, false},
		{`ts<"2024-01-15T11:00:00+01:00"`, false},
		{`ts<="2024-01-15T10:30:00Z"`, true},
		{`time:"2024-01-15T10:30:00Z"`, true},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			node, err := Parse(tt.query)
			if err != nil {
				t.Fatalf("parse error: %v", err)
			}
			if got := Match(node, rec); got != tt.expected {
				t.Errorf("Match(%q) = %v, want %v", tt.query, got, tt.expected)
			}
		})
	}
}

func TestMatchCaseInsensitive(t *testing.T) {
	rec := &testRecord{
		severity: "Error",
		category: "OrderService",
		message:  "REQUEST completed",
	}

	tests := []struct {
		query    string
		expected bool
	}{
		{"category:orderservice", true},
		{"category:ORDERSERVICE", true},
		{"severity:error", true},
		{"severity:ERROR", true},
		{`"request"`, true},
		{`"REQUEST"`, true},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			node, err := Parse(tt.query)
			if err != nil {
				t.Fatalf("parse error: %v", err)
			}
			if Match(node, rec) != tt.expected {
				t.Errorf("Match(%q) failed", tt.query)
			}
		})
	}
}

func TestMatchNilNode(t *testing.T) {
	if !Match(nil, &testRecord{}) {
		t.Error("nil node should match every record")
	}
}
