// Package filter models storage-agnostic pre-filter conditions applied to
// both rankings of a hybrid search. Conditions combine with AND; a tag
// condition with several values matches any of them.
package filter

import "fmt"

// Expression is an AND-combined list of filter conditions.
type Expression struct {
	conditions []Condition
}

// NewExpression creates a filter Expression from conditions.
func NewExpression(conditions ...Condition) Expression {
	return Expression{conditions: conditions}
}

// Conditions returns the conditions in declaration order.
func (e Expression) Conditions() []Condition { return e.conditions }

// IsEmpty reports whether the expression has no conditions.
func (e Expression) IsEmpty() bool { return len(e.conditions) == 0 }

// And returns a new expression with cond appended.
func (e Expression) And(cond Condition) Expression {
	out := make([]Condition, 0, len(e.conditions)+1)
	out = append(out, e.conditions...)
	out = append(out, cond)
	return Expression{conditions: out}
}

// Condition is a single filter clause: either a tag match or a numeric range.
type Condition struct {
	key       string
	values    []string
	rangeExpr *Range
}

// NewMatch creates a tag match condition. Multiple values are OR-ed.
func NewMatch(key string, values ...string) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	if len(values) == 0 {
		return Condition{}, fmt.Errorf("at least one match value is required for key %q", key)
	}
	for _, v := range values {
		if v == "" {
			return Condition{}, fmt.Errorf("empty match value for key %q", key)
		}
	}
	return Condition{key: key, values: values}, nil
}

// NewRange creates a numeric range condition.
func NewRange(key string, r Range) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	return Condition{key: key, rangeExpr: &r}, nil
}

// Key returns the field name.
func (c Condition) Key() string { return c.key }

// Values returns the tag match values.
func (c Condition) Values() []string { return c.values }

// Range returns the numeric range expression.
func (c Condition) Range() *Range { return c.rangeExpr }

// IsMatch reports whether this is a tag match condition.
func (c Condition) IsMatch() bool { return len(c.values) > 0 }

// IsRange reports whether this is a numeric range condition.
func (c Condition) IsRange() bool { return c.rangeExpr != nil }

// Range is a numeric range with optional inclusive/exclusive boundaries.
type Range struct {
	gte *float64
	lte *float64
	lt  *float64
}

// GTE returns a range with an inclusive lower bound.
func GTE(v float64) Range { return Range{gte: &v} }

// LT returns a range with an exclusive upper bound.
func LT(v float64) Range { return Range{lt: &v} }

// Between returns a range [low, high].
func Between(low, high float64) Range { return Range{gte: &low, lte: &high} }

// LowerInclusive returns the inclusive lower bound or nil.
func (r Range) LowerInclusive() *float64 { return r.gte }

// UpperInclusive returns the inclusive upper bound or nil.
func (r Range) UpperInclusive() *float64 { return r.lte }

// UpperExclusive returns the exclusive upper bound or nil.
func (r Range) UpperExclusive() *float64 { return r.lt }
