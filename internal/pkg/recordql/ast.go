package recordql

import "time"

// Node is the interface implemented by all AST nodes.
type Node interface {
	node()
}

// BinaryExpr represents a binary logical expression (AND, OR).
type BinaryExpr struct {
	Op    string // "AND" or "OR"
	Left  Node
	Right Node
}

func (BinaryExpr) node() {}

// MatchExpr compares a text field against a value.
// An empty Field searches severity, category and message at once.
type MatchExpr struct {
	Field string
	Value string
	Op    string // "=", "!=" or "CONTAINS"
}

func (MatchExpr) node() {}

// NotExpr negates its inner expression.
type NotExpr struct {
	Expr Node
}

func (NotExpr) node() {}

// TimeExpr compares the record timestamp against a fixed instant.
type TimeExpr struct {
	Op   string // ">", ">=", "<", "<=", "=", "!="
	Time time.Time
}

func (TimeExpr) node() {}
