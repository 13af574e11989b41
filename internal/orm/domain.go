// Package orm is the boundary to the host ERP backend: record search/read calls and
// remote-procedure calls, plus tolerant accessors for the loosely typed rows it returns.
package orm

import (
	"encoding/json"
)

// Common comparison operators used in search domains.
const (
	OpEq    = "="
	OpNe    = "!="
	OpIn    = "in"
	OpNotIn = "not in"
	OpGte   = ">="
	OpGt    = ">"
	OpLte   = "<="
	OpLt    = "<"
	OpChild = "child_of"
)

// Prefix operators combining the two criteria that follow them.
const (
	OpOr  = "|"
	OpAnd = "&"
)

// Cond is a single [field, operator, value] search criterion, or a bare prefix
// operator when Field is empty.
type Cond struct {
	Field string
	Op    string
	Value any
}

// Where builds a Cond.
func Where(field, op string, value any) Cond {
	return Cond{Field: field, Op: op, Value: value}
}

// Or is the "|" token. Or(), a, b matches records satisfying a or b.
func Or() Cond { return Cond{Op: OpOr} }

// Both is the "&" token, needed when an AND sits inside an OR branch.
func Both() Cond { return Cond{Op: OpAnd} }

// IsOperator reports whether c is a bare prefix operator.
func (c Cond) IsOperator() bool { return c.Field == "" && (c.Op == OpOr || c.Op == OpAnd) }

// MarshalJSON encodes the condition as a three element array, or a prefix operator
// as a plain string.
func (c Cond) MarshalJSON() ([]byte, error) {
	if c.IsOperator() {
		return json.Marshal(c.Op)
	}
	return json.Marshal([]any{c.Field, c.Op, c.Value})
}

// Domain is an implicitly AND-ed list of conditions.
type Domain []Cond

// And returns a new domain with extra conditions appended; the receiver is not modified.
func (d Domain) And(conds ...Cond) Domain {
	out := make(Domain, 0, len(d)+len(conds))
	out = append(out, d...)
	return append(out, conds...)
}

// MarshalJSON encodes a nil domain as an empty list.
func (d Domain) MarshalJSON() ([]byte, error) {
	if d == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Cond(d))
}

// SearchOptions carries ordering and paging for SearchRead.
type SearchOptions struct {
	Order  string
	Limit  int
	Offset int
}

func (o SearchOptions) kwargs(fields []string) map[string]any {
	kw := map[string]any{}
	if len(fields) > 0 {
		kw["fields"] = fields
	}
	if o.Order != "" {
		kw["order"] = o.Order
	}
	if o.Limit > 0 {
		kw["limit"] = o.Limit
	}
	if o.Offset > 0 {
		kw["offset"] = o.Offset
	}
	return kw
}
