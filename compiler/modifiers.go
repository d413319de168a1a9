package compiler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/syssam/persistence"
	"github.com/syssam/persistence/clause"
	"github.com/syssam/persistence/dialect"
	"github.com/syssam/persistence/filter"
	"github.com/syssam/persistence/schema/edge"
)

// joins renders the relation clause.
func (b *builder) joins(s *clause.Set) error {
	values := clause.Values(s.Get(clause.Relation))
	for _, v := range values {
		f, ok := v.(*edge.Fusion)
		if !ok || f == nil {
			return persistence.NewCompileError(clause.Relation.String(),
				fmt.Errorf("%w: relation expects *edge.Fusion, got %T", persistence.ErrInvalidModifier, v))
		}
		if err := f.Validate(); err != nil {
			return persistence.NewCompileError(clause.Relation.String(), err)
		}
		left := b.quote(f.Source() + "." + f.References())
		right := b.quote(f.As() + "." + f.Referenced())
		b.add(f.Kind(), "JOIN", b.quote(f.Collection()), "AS", b.quote(f.As()), "ON", "("+left+" = "+right+")")
	}
	return nil
}

// predicate renders a where or having clause. The clause holds filter
// nodes and raw strings joined with AND; groups render in parentheses.
func (b *builder) predicate(s *clause.Set, name clause.Name, keyword string) error {
	values := clause.Values(s.Get(name))
	if len(values) == 0 {
		return nil
	}
	expr, err := b.nodes(values, filter.AND)
	if err != nil {
		return persistence.NewCompileError(name.String(), err)
	}
	if expr != "" {
		b.add(keyword, expr)
	}
	return nil
}

func (b *builder) nodes(values []any, sep string) (string, error) {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		switch v := v.(type) {
		case *filter.Filter:
			part, err := b.filter(v)
			if err != nil {
				return "", err
			}
			parts = append(parts, part)
		case *filter.Group:
			nodes := make([]any, len(v.Filters))
			for i := range v.Filters {
				nodes[i] = v.Filters[i]
			}
			sep := v.Separator
			if sep == "" {
				sep = filter.AND
			}
			part, err := b.nodes(nodes, sep)
			if err != nil {
				return "", err
			}
			parts = append(parts, "("+part+")")
		case []filter.Node, []*filter.Filter:
			part, err := b.nodes(clause.Values(v), filter.AND)
			if err != nil {
				return "", err
			}
			parts = append(parts, part)
		case string:
			parts = append(parts, b.raw(v))
		default:
			return "", fmt.Errorf("%w: unexpected %T in filter tree", persistence.ErrInvalidModifier, v)
		}
	}
	return strings.Join(parts, sep), nil
}

// filter renders one filter as [NOT ](markup) and collects its arguments.
func (b *builder) filter(f *filter.Filter) (string, error) {
	if f.Field == nil {
		return "", fmt.Errorf("%w: filter without field", persistence.ErrInvalidModifier)
	}
	column := b.quote(tableOf(f.Field) + "." + f.Name())
	markup, value, err := b.rules.Render(f.Rule, column, f.Value)
	if err != nil {
		return "", err
	}
	args, err := filter.Bind(markup, value)
	if err != nil {
		return "", fmt.Errorf("%w: %w", persistence.ErrInvalidModifier, err)
	}
	b.bind(args...)
	if f.Not {
		return "NOT (" + markup + ")", nil
	}
	return "(" + markup + ")", nil
}

// list renders the group and order clauses: raw strings and column specs
// joined with commas.
func (b *builder) list(s *clause.Set, name clause.Name, keyword, table string) error {
	values := clause.Values(s.Get(name))
	if len(values) == 0 {
		return nil
	}
	parts := make([]string, 0, len(values))
	for _, v := range values {
		var part string
		switch v := v.(type) {
		case string:
			part = b.raw(v)
		case clause.Column:
			col, err := b.Column(table, v)
			if err != nil {
				return persistence.NewCompileError(name.String(), err)
			}
			part = col
		default:
			return persistence.NewCompileError(name.String(),
				fmt.Errorf("%w: %s expects strings or columns, got %T", persistence.ErrInvalidModifier, name, v))
		}
		if part != "" {
			parts = append(parts, part)
		}
	}
	if len(parts) > 0 {
		b.add(keyword, strings.Join(parts, ", "))
	}
	return nil
}

// limit renders "LIMIT count" or an offset and a count. A single string
// holding "offset,count" is accepted.
func (b *builder) limit(s *clause.Set) error {
	values := clause.Values(s.Get(clause.Limit))
	if len(values) == 1 {
		if str, ok := values[0].(string); ok && strings.Contains(str, ",") {
			values = clause.Values(strings.Split(str, ","))
		}
	}
	if len(values) == 0 {
		return nil
	}
	if len(values) > 2 {
		return persistence.NewCompileError(clause.Limit.String(),
			fmt.Errorf("%w: limit expects at most 2 values, got %d", persistence.ErrInvalidModifier, len(values)))
	}
	nums := make([]string, len(values))
	for i, v := range values {
		n, err := strconv.Atoi(strings.TrimSpace(filter.Scalar(v)))
		if err != nil || n < 0 {
			return persistence.NewCompileError(clause.Limit.String(),
				fmt.Errorf("%w: invalid limit %v", persistence.ErrInvalidModifier, v))
		}
		nums[i] = strconv.Itoa(n)
	}
	switch {
	case len(nums) == 1:
		b.add("LIMIT", nums[0])
	case b.dialect == dialect.Postgres:
		b.add("LIMIT", nums[1], "OFFSET", nums[0])
	default:
		b.add("LIMIT", nums[0]+", "+nums[1])
	}
	return nil
}

// returning renders the returning clause of an insert.
func (b *builder) returning(s *clause.Set) error {
	col, ok, err := s.String(clause.Returning)
	switch {
	case err != nil:
		return persistence.NewCompileError(clause.Returning.String(), err)
	case !ok:
		return nil
	case b.dialect == dialect.MySQL:
		return persistence.NewCompileError(clause.Returning.String(),
			fmt.Errorf("%w: returning is not supported by %s", persistence.ErrInvalidModifier, b.dialect))
	}
	b.add("RETURNING", b.quote(col))
	return nil
}
