package recordql

import (
	"strings"
	"time"
)

// Record is the view of a log record the evaluator needs.
type Record interface {
	GetTime() time.Time
	GetSeverity() string
	GetCategory() string
	GetMessage() string
}

// Match evaluates the AST node against a record. A nil node matches everything.
func Match(node Node, rec Record) bool {
	if node == nil {
		return true
	}

	switch n := node.(type) {
	case BinaryExpr:
		return evalBinary(n, rec)
	case MatchExpr:
		return evalMatch(n, rec)
	case TimeExpr:
		return evalTime(n, rec.GetTime())
	case NotExpr:
		return !Match(n.Expr, rec)
	default:
		return false
	}
}

func evalBinary(expr BinaryExpr, rec Record) bool {
	switch expr.Op {
	case "AND":
		return Match(expr.Left, rec) && Match(expr.Right, rec)
	case "OR":
		return Match(expr.Left, rec) || Match(expr.Right, rec)
	default:
		return false
	}
}

func evalMatch(expr MatchExpr, rec Record) bool {
	if expr.Field == "" {
		return matchFullText(expr.Value, rec)
	}

	fieldValue := fieldText(expr.Field, rec)

	switch expr.Op {
	case "!=":
		return !strings.EqualFold(fieldValue, expr.Value)
	case "CONTAINS":
		return containsIgnoreCase(fieldValue, expr.Value)
	default:
		return strings.EqualFold(fieldValue, expr.Value)
	}
}

func evalTime(expr TimeExpr, ts time.Time) bool {
	switch expr.Op {
	case ">":
		return ts.After(expr.Time)
	case ">=":
		return !ts.Before(expr.Time)
	case "<":
		return ts.Before(expr.Time)
	case "<=":
		return !ts.After(expr.Time)
	case "!=":
		return !ts.Equal(expr.Time)
	default:
		return ts.Equal(expr.Time)
	}
}

func fieldText(field string, rec Record) string {
	switch field {
	case fieldSeverity:
		return rec.GetSeverity()
	case fieldCategory:
		return rec.GetCategory()
	case fieldMessage:
		return rec.GetMessage()
	default:
		return ""
	}
}

func containsIgnoreCase(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func matchFullText(query string, rec Record) bool {
	for _, f := range []string{rec.GetSeverity(), rec.GetCategory(), rec.GetMessage()} {
		if containsIgnoreCase(f, query) {
			return true
		}
	}
	return false
}
