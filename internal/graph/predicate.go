package graph

import (
	"fmt"

	"github.com/roach88/vcq/internal/ir"
)

// Predicate is a comparison between a relation's value and a condition value.
type Predicate string

const (
	Equal        Predicate = "EQUAL"
	NotEqual     Predicate = "NOT_EQUAL"
	LessThan     Predicate = "LESS_THAN"
	LessEqual    Predicate = "LESS_THAN_EQUAL"
	GreaterThan  Predicate = "GREATER_THAN"
	GreaterEqual Predicate = "GREATER_THAN_EQUAL"

	// Contain predicates take an IRArray operand. They are rewritten into
	// EQUAL / NOT_EQUAL literals before interval compilation.
	Within  Predicate = "IN"
	Without Predicate = "NOT_IN"
)

// ParsePredicate accepts the canonical names plus the short forms used in
// scenario files (eq, neq, lt, lte, gt, gte, in, not_in).
func ParsePredicate(s string) (Predicate, error) {
	switch s {
	case "EQUAL", "eq", "=", "==":
		return Equal, nil
	case "NOT_EQUAL", "neq", "!=":
		return NotEqual, nil
	case "LESS_THAN", "lt", "<":
		return LessThan, nil
	case "LESS_THAN_EQUAL", "lte", "<=":
		return LessEqual, nil
	case "GREATER_THAN", "gt", ">":
		return GreaterThan, nil
	case "GREATER_THAN_EQUAL", "gte", ">=":
		return GreaterEqual, nil
	case "IN", "in":
		return Within, nil
	case "NOT_IN", "not_in":
		return Without, nil
	default:
		return "", fmt.Errorf("unknown predicate %q", s)
	}
}

// IsContain reports whether p takes a collection operand.
func (p Predicate) IsContain() bool {
	return p == Within || p == Without
}

// IsRange reports whether p is one of the four ordering comparisons.
func (p Predicate) IsRange() bool {
	switch p {
	case LessThan, LessEqual, GreaterThan, GreaterEqual:
		return true
	default:
		return false
	}
}

// IsValidCondition reports whether cond is an acceptable operand for p.
// Ordering comparisons and Contain predicates reject null.
func (p Predicate) IsValidCondition(cond ir.IRValue) bool {
	switch {
	case p.IsContain():
		_, ok := cond.(ir.IRArray)
		return ok
	case p.IsRange():
		return !ir.IsNull(cond)
	case p == Equal || p == NotEqual:
		return true
	default:
		return false
	}
}

// Evaluate applies p to a relation value (nil when absent) and cond.
func (p Predicate) Evaluate(value, cond ir.IRValue) bool {
	switch p {
	case Equal:
		return ir.Equal(value, cond)
	case NotEqual:
		return !ir.Equal(value, cond)
	case Within, Without:
		arr, _ := cond.(ir.IRArray)
		found := false
		for _, c := range arr {
			if ir.Equal(value, c) {
				found = true
				break
			}
		}
		return found == (p == Within)
	}

	if ir.IsNull(value) || ir.IsNull(cond) {
		return false
	}
	c := ir.Compare(value, cond)
	switch p {
	case LessThan:
		return c < 0
	case LessEqual:
		return c <= 0
	case GreaterThan:
		return c > 0
	case GreaterEqual:
		return c >= 0
	default:
		return false
	}
}

func (p Predicate) String() string {
	return string(p)
}
