package filter

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/syssam/persistence/schema/field"
)

// Rule names known to the baseline and dialect rule sets.
const (
	RuleEqual            = "equal"
	RuleNot              = "not"
	RuleBlank            = "blank"
	RuleLessThan         = "less-than"
	RuleLessEqualThan    = "less-equal-than"
	RuleGreaterThan      = "greater-than"
	RuleGreaterEqualThan = "greater-equal-than"
	RuleIn               = "in"
	RuleLike             = "like"
	RuleBetween          = "between"
	RuleDay              = "day"
	RuleMonth            = "month"
	RuleYear             = "year"
)

// DefaultSeparator separates the rule from the value in inline syntax.
const DefaultSeparator = ":"

// Group separators.
const (
	AND = " AND "
	OR  = " OR "
)

// Node is an element of a where or having tree: a *Filter or a *Group.
type Node interface {
	node()
}

// Filter is one predicate on a field.
type Filter struct {
	Field *field.Field
	Value any
	Rule  string
	Not   bool
}

func (*Filter) node() {}

// Option configures a Filter built by New.
type Option func(*Filter)

// WithRule sets the rule explicitly, skipping inline parsing.
func WithRule(rule string) Option {
	return func(f *Filter) { f.Rule = rule }
}

// Negate renders the filter as NOT (...).
func Negate() Option {
	return func(f *Filter) { f.Not = true }
}

// New returns a filter using DefaultSeparator for inline parsing.
func New(f *field.Field, value any, opts ...Option) *Filter {
	return Parser{}.New(f, value, opts...)
}

// Parser builds filters with a configurable inline separator.
type Parser struct {
	Separator string
}

// NewParser returns a parser for sep. An empty sep means DefaultSeparator.
func NewParser(sep string) Parser {
	return Parser{Separator: sep}
}

func (p Parser) separator() string {
	if p.Separator == "" {
		return DefaultSeparator
	}
	return p.Separator
}

// New returns a filter on f. Without an explicit rule, a string value is
// parsed as "rule<sep>value"; a leading "!" on the rule negates the filter.
// Values without a rule segment use the equal rule and are matched
// literally, so "!x" equals "!x". Use "!equal:x" or Negate to negate.
func (p Parser) New(f *field.Field, value any, opts ...Option) *Filter {
	ft := &Filter{Field: f, Value: value}
	for _, opt := range opts {
		opt(ft)
	}
	if ft.Rule != "" {
		return ft
	}
	ft.Rule = RuleEqual
	s, ok := value.(string)
	if !ok {
		return ft
	}
	sep := p.separator()
	pieces := strings.Split(s, sep)
	if len(pieces) < 2 {
		return ft
	}
	rule := pieces[0]
	if strings.HasPrefix(rule, "!") {
		rule = rule[1:]
		ft.Not = true
	}
	ft.Rule = rule
	ft.Value = strings.Join(pieces[1:], sep)
	return ft
}

// Apply returns the inline syntax for rule and value. Non-scalar values are
// JSON encoded.
func (p Parser) Apply(rule string, value any) string {
	return rule + p.separator() + Scalar(value)
}

// Apply returns the inline syntax for rule and value using DefaultSeparator.
func Apply(rule string, value any) string {
	return Parser{}.Apply(rule, value)
}

// Scalar returns the string form of a scalar value, or the JSON encoding
// of anything else.
func Scalar(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return fmt.Sprint(v)
	}
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprint(value)
	}
	return string(b)
}

// Collection returns the collection of the filtered field.
func (f *Filter) Collection() string { return f.Field.Collection() }

// Name returns the name of the filtered field.
func (f *Filter) Name() string { return f.Field.Name() }

// ParsedValue returns the value transformed by the rule of table.
func (f *Filter) ParsedValue(t *Table) (any, error) {
	return t.ParseValue(f.Rule, f.Value)
}

// Group joins nodes with a separator and renders in parentheses.
type Group struct {
	Separator string
	Filters   []Node
}

func (*Group) node() {}

// Generate returns a group of nodes joined by separator.
func Generate(separator string, nodes ...Node) *Group {
	return &Group{Separator: separator, Filters: nodes}
}

// And returns a group joined with AND.
func And(nodes ...Node) *Group { return Generate(AND, nodes...) }

// Or returns a group joined with OR.
func Or(nodes ...Node) *Group { return Generate(OR, nodes...) }
