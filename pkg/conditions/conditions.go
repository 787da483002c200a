// Package conditions evaluates the clause/operator sublanguage shared by
// condition nodes, while-loops and transform filters.
package conditions

import (
	"strconv"
	"strings"

	"github.com/flowgrid/flowgrid/pkg/resolver"
)

// Operator is a clause comparison operator.
type Operator string

const (
	OperatorEquals      Operator = "equals"
	OperatorNotEquals   Operator = "not_equals"
	OperatorGreaterThan Operator = "greater_than"
	OperatorLessThan    Operator = "less_than"
	OperatorContains    Operator = "contains"
	OperatorNotContains Operator = "not_contains"
	OperatorStartsWith  Operator = "starts_with"
	OperatorEndsWith    Operator = "ends_with"
	OperatorIsEmpty     Operator = "is_empty"
	OperatorIsNotEmpty  Operator = "is_not_empty"
)

// Combinator joins a clause list.
type Combinator string

const (
	CombinatorAnd Combinator = "AND"
	CombinatorOr  Combinator = "OR"
)

// Clause is one field/operator/value comparison. Field and Value are
// templates resolved against the execution context before comparing.
type Clause struct {
	Field    string   `json:"field"`
	Operator Operator `json:"operator"`
	Value    any      `json:"value,omitempty"`
}

// EvaluateAll combines the clauses under the given combinator. AND over
// zero clauses is vacuously true; OR over zero clauses is false. Both
// short-circuit. The combinator is matched case-insensitively; anything
// other than OR combines as AND, the unset default.
func EvaluateAll(clauses []Clause, combinator Combinator, ctx resolver.Context) bool {
	normalized := Combinator(strings.ToUpper(strings.TrimSpace(string(combinator))))

	if normalized == CombinatorOr {
		for _, clause := range clauses {
			if Evaluate(clause, ctx) {
				return true
			}
		}

		return false
	}

	for _, clause := range clauses {
		if !Evaluate(clause, ctx) {
			return false
		}
	}

	return true
}

// Evaluate resolves the clause's field and value and applies the operator.
func Evaluate(clause Clause, ctx resolver.Context) bool {
	field := resolver.Resolve(clause.Field, ctx)
	value := resolver.Resolve(clause.Value, ctx)

	return Compare(field, clause.Operator, value)
}

// Compare applies one operator to already-resolved operands.
func Compare(left any, operator Operator, right any) bool {
	switch operator {
	case OperatorEquals:
		return looseEquals(left, right)
	case OperatorNotEquals:
		return !looseEquals(left, right)
	case OperatorGreaterThan:
		l, lok := toNumber(left)
		r, rok := toNumber(right)

		return lok && rok && l > r
	case OperatorLessThan:
		l, lok := toNumber(left)
		r, rok := toNumber(right)

		return lok && rok && l < r
	case OperatorContains:
		return strings.Contains(toString(left), toString(right))
	case OperatorNotContains:
		return !strings.Contains(toString(left), toString(right))
	case OperatorStartsWith:
		return strings.HasPrefix(toString(left), toString(right))
	case OperatorEndsWith:
		return strings.HasSuffix(toString(left), toString(right))
	case OperatorIsEmpty:
		return isEmpty(left)
	case OperatorIsNotEmpty:
		return !isEmpty(left)
	}

	return false
}

// looseEquals compares with numeric coercion when both sides are numeric,
// string coercion otherwise, so "5" equals 5.
func looseEquals(left, right any) bool {
	l, lok := toNumber(left)
	r, rok := toNumber(right)

	if lok && rok {
		return l == r
	}

	return toString(left) == toString(right)
}

// isEmpty treats nil, the empty string and the empty array as empty.
// Numeric 0 is deliberately NOT empty.
func isEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case []any:
		return len(v) == 0
	}

	return false
}

func toNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	case bool:
		if v {
			return 1, true
		}

		return 0, true
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)

		return n, err == nil
	}

	return 0, false
}

func toString(value any) string {
	return resolver.Format(value)
}
