package clause

import (
	"github.com/syssam/persistence/schema/field"
)

// Column is a column spec of the fields clause. It is one of Plain,
// Qualified, FieldRef, Expression or Raw.
type Column interface {
	column()
}

type (
	// Plain is a column of the source collection.
	Plain struct {
		Name string
	}

	// Qualified is a column of an explicit table, optionally aliased.
	Qualified struct {
		Table string
		Name  string
		Alias string
	}

	// FieldRef renders a field through its aggregator, expression or origin.
	FieldRef struct {
		Field *field.Field
	}

	// Expression is a parenthesized SQL expression, optionally aliased.
	Expression struct {
		SQL   string
		Alias string
	}

	// Raw is emitted verbatim.
	Raw string
)

func (Plain) column()      {}
func (Qualified) column()  {}
func (FieldRef) column()   {}
func (Expression) column() {}
func (Raw) column()        {}

// Ref returns the column spec of f.
func Ref(f *field.Field) FieldRef { return FieldRef{Field: f} }

// Table returns a column of table.
func Table(table, name string) Qualified { return Qualified{Table: table, Name: name} }

// As returns a copy of q with an alias.
func (q Qualified) As(alias string) Qualified {
	q.Alias = alias
	return q
}

// Expr returns an aliased expression.
func Expr(sql, alias string) Expression { return Expression{SQL: sql, Alias: alias} }

// ToColumn converts the shorthands accepted by the fields clause: a string
// is Plain, a *field.Field is a FieldRef. It returns false for anything that
// is not a column spec.
func ToColumn(v any) (Column, bool) {
	switch v := v.(type) {
	case Column:
		return v, true
	case string:
		return Plain{Name: v}, true
	case *field.Field:
		return FieldRef{Field: v}, true
	}
	return nil, false
}

// FetchMode selects the default shape of rows returned by a read.
type FetchMode string

// Fetch modes.
const (
	// FetchMap returns rows as column name to value maps.
	FetchMap FetchMode = "map"
	// FetchRecord returns rows as records keeping column order.
	FetchRecord FetchMode = "record"
)
