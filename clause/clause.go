package clause

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"

	"github.com/syssam/persistence"
)

// Name is a clause key.
type Name string

// Clause vocabulary shared by the engine and the compiler.
const (
	Source   Name = "source"
	Fields   Name = "fields"
	Relation Name = "relation"
	Where    Name = "where"
	Order    Name = "order"
	Group    Name = "group"
	Having   Name = "having"
	Limit    Name = "limit"
	Fetch    Name = "fetch"
	Log      Name = "log"
	// Returning names the column an INSERT returns on dialects without
	// LastInsertId support.
	Returning Name = "returning"
)

// Names lists every known clause.
var Names = []Name{Source, Fields, Relation, Where, Order, Group, Having, Limit, Fetch, Log, Returning}

// ParseName returns the clause named s, case-insensitively.
func ParseName(s string) (Name, error) {
	n := Name(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(Names, n) {
		return "", persistence.NewConfigError(s, persistence.ErrUnknownClause)
	}
	return n, nil
}

// String implements the fmt.Stringer interface.
func (n Name) String() string { return string(n) }

// Set holds clause values. The zero value is not usable; use NewSet.
type Set struct {
	values map[Name]any
}

// NewSet returns an empty clause set.
func NewSet() *Set {
	return &Set{values: make(map[Name]any)}
}

// Set stores a clause. A single argument is stored as is, several are stored
// as a []any and no argument or a nil one removes the clause.
func (s *Set) Set(name Name, args ...any) *Set {
	switch {
	case len(args) == 0, len(args) == 1 && isEmpty(args[0]):
		delete(s.values, name)
	case len(args) == 1:
		s.values[name] = args[0]
	default:
		s.values[name] = slices.Clone(args)
	}
	return s
}

func isEmpty(v any) bool {
	switch v := v.(type) {
	case nil:
		return true
	case []any:
		return len(v) == 0
	}
	return false
}

// Get returns the clause value, or nil when it is not defined.
func (s *Set) Get(name Name) any { return s.values[name] }

// Has reports whether the clause is defined.
func (s *Set) Has(name Name) bool {
	_, ok := s.values[name]
	return ok
}

// Merge appends values to a defined clause. Merging into an undefined
// clause fails and leaves the set untouched.
func (s *Set) Merge(name Name, values ...any) error {
	current, ok := s.values[name]
	if !ok {
		return persistence.NewConfigError(string(name), persistence.ErrUndefinedClause)
	}
	merged := append(Values(current), values...)
	s.values[name] = merged
	return nil
}

// Reset removes every clause.
func (s *Set) Reset() { clear(s.values) }

// Clone returns a shallow copy of the set.
func (s *Set) Clone() *Set {
	return &Set{values: maps.Clone(s.values)}
}

// Len returns the number of defined clauses.
func (s *Set) Len() int { return len(s.values) }

// Map returns a copy of the clause values.
func (s *Set) Map() map[Name]any { return maps.Clone(s.values) }

// String returns the clause as a string. It fails when the clause holds
// something else.
func (s *Set) String(name Name) (string, bool, error) {
	v, ok := s.values[name]
	if !ok {
		return "", false, nil
	}
	str, ok := v.(string)
	if !ok {
		return "", true, fmt.Errorf("%w: %s expects a string, got %T", persistence.ErrInvalidModifier, name, v)
	}
	return str, true, nil
}

// Bool returns the clause as a bool, false when undefined or not a bool.
func (s *Set) Bool(name Name) bool {
	b, _ := s.values[name].(bool)
	return b
}

func toAny[T any](s []T) []any {
	out := make([]any, len(s))
	for i := range s {
		out[i] = s[i]
	}
	return out
}

// Values returns v as a sequence: a []any copied, any other slice element
// by element, and a single value wrapped. Nil yields nil.
func Values(v any) []any {
	switch v := v.(type) {
	case nil:
		return nil
	case []any:
		return slices.Clone(v)
	case []string:
		return toAny(v)
	case []Column:
		return toAny(v)
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() != reflect.Uint8 {
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out
	}
	return []any{v}
}
