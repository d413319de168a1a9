package compiler

import (
	"fmt"
	"strings"

	"github.com/syssam/persistence"
	"github.com/syssam/persistence/clause"
	"github.com/syssam/persistence/dialect"
	"github.com/syssam/persistence/filter"
)

// Statement is a rendered statement and the arguments collected from its
// filter tree, in placeholder order.
type Statement struct {
	SQL  string
	Args []any

	// slots holds one entry per placeholder in text order: a filter
	// argument, or slot for a placeholder the caller binds.
	slots []any
}

// slot marks a placeholder written in a raw fragment, an insert or a set
// list.
type slot struct{}

// Bind returns the parameters of the statement. Values fill the caller
// placeholders in the order they appear in the text, interleaved with the
// filter arguments. Values left after the last caller placeholder are
// appended.
func (s *Statement) Bind(values ...any) []any {
	params := make([]any, 0, len(s.slots)+len(values))
	for _, v := range s.slots {
		if _, ok := v.(slot); !ok {
			params = append(params, v)
			continue
		}
		if len(values) > 0 {
			params = append(params, values[0])
			values = values[1:]
		}
	}
	return append(params, values...)
}

// Compiler renders clause sets into statements of one dialect.
type Compiler struct {
	dialect string
	rules   *filter.Table
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithRules replaces the filter rule table of the compiler.
func WithRules(t *filter.Table) Option {
	return func(c *Compiler) { c.rules = t }
}

// New returns a compiler for the named dialect, using filter.For(name)
// unless WithRules is given.
func New(name string, opts ...Option) (*Compiler, error) {
	if !dialect.Supported(name) {
		return nil, persistence.NewConfigError(name, fmt.Errorf("%w: unsupported dialect", persistence.ErrNoDriver))
	}
	c := &Compiler{dialect: name}
	for _, opt := range opts {
		opt(c)
	}
	if c.rules == nil {
		c.rules = filter.For(name)
	}
	return c, nil
}

// Dialect returns the dialect name of the compiler.
func (c *Compiler) Dialect() string { return c.dialect }

// Rules returns the filter rule table of the compiler.
func (c *Compiler) Rules() *filter.Table { return c.rules }

// builder accumulates the words and arguments of one statement.
type builder struct {
	*Compiler
	words []string
	args  []any
	slots []any
}

func (c *Compiler) builder() *builder {
	return &builder{Compiler: c}
}

func (b *builder) add(words ...string) *builder {
	b.words = append(b.words, words...)
	return b
}

// bind records the arguments of a rendered filter.
func (b *builder) bind(args ...any) {
	b.args = append(b.args, args...)
	b.slots = append(b.slots, args...)
}

// raw records the caller placeholders of fragment and returns it.
func (b *builder) raw(fragment string) string {
	for range dialect.Placeholders(fragment) {
		b.slots = append(b.slots, slot{})
	}
	return fragment
}

func (b *builder) quote(ident string) string {
	return dialect.Quote(b.dialect, ident)
}

func (b *builder) statement() *Statement {
	return &Statement{
		SQL:   dialect.Rebind(b.dialect, strings.Join(b.words, " ")),
		Args:  b.args,
		slots: b.slots,
	}
}

// source returns the quoted source clause, which is mandatory.
func (b *builder) source(s *clause.Set) (string, error) {
	src, ok, err := s.String(clause.Source)
	if err != nil {
		return "", persistence.NewCompileError(clause.Source.String(), err)
	}
	if !ok || strings.TrimSpace(src) == "" {
		return "", persistence.NewCompileError(clause.Source.String(), persistence.ErrMissingClause)
	}
	return b.quote(src), nil
}

// qualifier returns the name columns of the source are qualified with:
// the alias of "table alias" sources, else the table itself.
func qualifier(source string) string {
	parts := strings.Fields(source)
	if len(parts) == 0 {
		return source
	}
	return parts[len(parts)-1]
}
