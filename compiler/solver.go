package compiler

import (
	"fmt"
	"strings"

	"github.com/syssam/persistence"
	"github.com/syssam/persistence/clause"
	"github.com/syssam/persistence/schema/edge"
	"github.com/syssam/persistence/schema/field"
)

// Column renders one column spec of a select list. Columns of the source
// collection are qualified with table.
func (c *Compiler) Column(table string, v any) (string, error) {
	col, ok := clause.ToColumn(v)
	if !ok {
		return "", fmt.Errorf("%w: %T", persistence.ErrUnsupportedField, v)
	}
	b := c.builder()
	switch col := col.(type) {
	case clause.Plain:
		if col.Name == "" {
			return "", fmt.Errorf("%w: empty column name", persistence.ErrUnsupportedField)
		}
		return b.quote(table + "." + col.Name), nil
	case clause.Qualified:
		s := b.quote(col.Name)
		if col.Table != "" {
			s = b.quote(col.Table + "." + col.Name)
		}
		return b.alias(s, col.Alias), nil
	case clause.FieldRef:
		return b.field(col.Field)
	case clause.Expression:
		return b.alias("("+col.SQL+")", col.Alias), nil
	case clause.Raw:
		return string(col), nil
	default:
		return "", fmt.Errorf("%w: %T", persistence.ErrUnsupportedField, col)
	}
}

func (b *builder) alias(s, alias string) string {
	if alias == "" {
		return s
	}
	return s + " AS " + b.quote(alias)
}

// tableOf returns the table a field is read from: the join alias of its
// origin, or its own collection.
func tableOf(f *field.Field) string {
	if f.HasFrom() {
		return edge.Alias(f.Origin().Name())
	}
	return f.Collection()
}

func (b *builder) field(f *field.Field) (string, error) {
	if f == nil {
		return "", fmt.Errorf("%w: nil field", persistence.ErrUnsupportedField)
	}
	if err := f.Err(); err != nil {
		return "", fmt.Errorf("%w: %s: %w", persistence.ErrUnsupportedField, f.Name(), err)
	}
	if expr := f.GetExpression(); expr != "" {
		return b.alias("("+expr+")", f.Name()), nil
	}
	column := b.quote(tableOf(f) + "." + f.Name())
	if t := f.Type(); t.IsAggregator() {
		return b.alias(strings.ToUpper(string(t))+"("+column+")", f.GetAlias()), nil
	}
	return column, nil
}

// target returns the bare quoted column name written by an insert or update.
func (b *builder) target(v any) (string, error) {
	col, ok := clause.ToColumn(v)
	if !ok {
		return "", fmt.Errorf("%w: %T", persistence.ErrUnsupportedField, v)
	}
	switch col := col.(type) {
	case clause.Plain:
		if col.Name != "" {
			return b.quote(col.Name), nil
		}
	case clause.Qualified:
		if col.Name != "" {
			return b.quote(col.Name), nil
		}
	case clause.FieldRef:
		if col.Field == nil {
			break
		}
		if err := col.Field.Err(); err != nil {
			return "", fmt.Errorf("%w: %s: %w", persistence.ErrUnsupportedField, col.Field.Name(), err)
		}
		return b.quote(col.Field.Name()), nil
	}
	return "", fmt.Errorf("%w: %T can't be written", persistence.ErrUnsupportedField, col)
}

func (b *builder) columns(s *clause.Set, table string) (string, error) {
	values := clause.Values(s.Get(clause.Fields))
	if len(values) == 0 {
		return "*", nil
	}
	cols := make([]string, 0, len(values))
	for _, v := range values {
		col, err := b.Column(table, v)
		if err != nil {
			return "", persistence.NewCompileError(clause.Fields.String(), err)
		}
		cols = append(cols, b.raw(col))
	}
	return strings.Join(cols, ", "), nil
}

func (b *builder) targets(s *clause.Set) ([]string, error) {
	values := clause.Values(s.Get(clause.Fields))
	if len(values) == 0 {
		return nil, persistence.NewCompileError(clause.Fields.String(), persistence.ErrMissingClause)
	}
	names := make([]string, 0, len(values))
	for _, v := range values {
		name, err := b.target(v)
		if err != nil {
			return nil, persistence.NewCompileError(clause.Fields.String(), err)
		}
		names = append(names, name)
	}
	return names, nil
}
