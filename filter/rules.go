package filter

import (
	"fmt"
	"maps"
	"slices"

	"github.com/syssam/persistence"
)

// ValueFunc normalizes a raw filter value before it is bound.
type ValueFunc func(value any) (any, error)

// MarkupFunc renders the SQL fragment of a rule for a qualified column
// name and the normalized value. Fragments use "?" placeholders.
type MarkupFunc func(column string, value any) (string, error)

// Rule is one entry of a rule table.
type Rule struct {
	Name   string
	Value  ValueFunc
	Markup MarkupFunc
}

// Identity is the value transform that keeps the value as is.
func Identity(value any) (any, error) { return value, nil }

// Table maps rule names to rules for one dialect scope. A Table is not
// modified after construction.
type Table struct {
	scope string
	rules map[string]Rule
}

// NewTable returns a table for scope. A later rule with the same name
// replaces an earlier one. A nil Value defaults to Identity.
func NewTable(scope string, rules ...Rule) *Table {
	t := &Table{scope: scope, rules: make(map[string]Rule, len(rules))}
	t.add(rules)
	return t
}

func (t *Table) add(rules []Rule) {
	for _, r := range rules {
		if r.Value == nil {
			r.Value = Identity
		}
		t.rules[r.Name] = r
	}
}

// Extend returns a copy of t with rules added or replaced.
func (t *Table) Extend(rules ...Rule) *Table {
	c := &Table{scope: t.scope, rules: maps.Clone(t.rules)}
	c.add(rules)
	return c
}

// Scope returns the dialect scope of the table.
func (t *Table) Scope() string { return t.scope }

// Has reports whether rule is registered.
func (t *Table) Has(rule string) bool {
	_, ok := t.rules[rule]
	return ok
}

// Lookup returns the rule registered under name.
func (t *Table) Lookup(name string) (Rule, bool) {
	r, ok := t.rules[name]
	return r, ok
}

// Names returns the registered rule names, sorted.
func (t *Table) Names() []string {
	return slices.Sorted(maps.Keys(t.rules))
}

// ParseValue transforms value with rule. An unknown rule keeps the value.
func (t *Table) ParseValue(rule string, value any) (any, error) {
	r, ok := t.rules[rule]
	if !ok {
		return value, nil
	}
	return r.Value(value)
}

// Render resolves rule and returns the fragment for column and the
// normalized value. Unlike ParseValue, an unknown rule is an error.
func (t *Table) Render(rule, column string, value any) (string, any, error) {
	r, ok := t.rules[rule]
	if !ok {
		return "", nil, fmt.Errorf("%w %q in scope %q", persistence.ErrUnknownRule, rule, t.scope)
	}
	v, err := r.Value(value)
	if err != nil {
		return "", nil, fmt.Errorf("filter: rule %q: %w", rule, err)
	}
	markup, err := r.Markup(column, v)
	if err != nil {
		return "", nil, fmt.Errorf("filter: rule %q: %w", rule, err)
	}
	return markup, v, nil
}

// Map holds the tables of several dialect scopes.
type Map map[string]*Table

// NewMap returns a map of the given tables keyed by scope.
func NewMap(tables ...*Table) Map {
	m := make(Map, len(tables))
	for _, t := range tables {
		m[t.scope] = t
	}
	return m
}

// Has reports whether rule is registered in scope.
func (m Map) Has(scope, rule string) bool {
	t, ok := m[scope]
	return ok && t.Has(rule)
}

// ParseValue transforms value with the rule of scope. Unknown scopes and
// unknown rules return the value unchanged.
func (m Map) ParseValue(scope, rule string, value any) (any, error) {
	t, ok := m[scope]
	if !ok {
		return value, nil
	}
	return t.ParseValue(rule, value)
}

// ParseMarkup renders the fragment of rule in scope. Unknown scopes and
// unknown rules return the value unchanged, as a string.
func (m Map) ParseMarkup(scope, rule, column string, value any) (string, error) {
	t, ok := m[scope]
	if !ok || !t.Has(rule) {
		return Scalar(value), nil
	}
	markup, _, err := t.Render(rule, column, value)
	return markup, err
}
