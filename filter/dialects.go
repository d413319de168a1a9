package filter

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/syssam/persistence/dialect"
)

// InSeparator separates the elements of an "in" value.
const InSeparator = "|"

// BetweenSeparator separates the bounds of a "between" value.
const BetweenSeparator = ","

// Baseline returns the rules shared by every dialect.
func Baseline() []Rule {
	return []Rule{
		{Name: RuleEqual, Markup: operator("=")},
		{Name: RuleNot, Markup: operator("<>")},
		{Name: RuleBlank, Markup: func(column string, _ any) (string, error) {
			return fmt.Sprintf("(%s IS NULL) OR (NOT %s)", column, column), nil
		}},
		{Name: RuleLessThan, Markup: operator("<")},
		{Name: RuleLessEqualThan, Markup: operator("<=")},
		{Name: RuleGreaterThan, Markup: operator(">")},
		{Name: RuleGreaterEqualThan, Markup: operator(">=")},
		{Name: RuleIn, Value: inValue, Markup: inMarkup},
	}
}

func operator(op string) MarkupFunc {
	return func(column string, _ any) (string, error) {
		return column + " " + op + " ?", nil
	}
}

func inValue(value any) (any, error) {
	if s, ok := value.(string); ok {
		parts := strings.Split(s, InSeparator)
		values := make([]any, len(parts))
		for i, p := range parts {
			values[i] = p
		}
		return values, nil
	}
	if values, ok := toSlice(value); ok {
		return values, nil
	}
	return []any{value}, nil
}

func inMarkup(column string, value any) (string, error) {
	values, ok := toSlice(value)
	if !ok || len(values) == 0 {
		return "", fmt.Errorf("in expects a non-empty list, got %T", value)
	}
	return column + " IN (" + strings.TrimSuffix(strings.Repeat("?,", len(values)), ",") + ")", nil
}

// toSlice converts any slice or array value into []any.
func toSlice(value any) ([]any, bool) {
	if values, ok := value.([]any); ok {
		return values, true
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	// []byte is a scalar for database drivers.
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}
	values := make([]any, rv.Len())
	for i := range values {
		values[i] = rv.Index(i).Interface()
	}
	return values, true
}

// Split splits value on sep and expects at least size parts. Extra parts
// are dropped.
func Split(rule string, value any, sep string, size int) ([]any, error) {
	parts := strings.Split(Scalar(value), sep)
	if len(parts) < size {
		return nil, fmt.Errorf("invalid number of arguments to create a rule: expected %d given %d to rule %q", size, len(parts), rule)
	}
	values := make([]any, size)
	for i := range values {
		values[i] = parts[i]
	}
	return values, nil
}

func likeValue(value any) (any, error) {
	return "%" + Scalar(value) + "%", nil
}

func betweenValue(value any) (any, error) {
	return Split(RuleBetween, value, BetweenSeparator, 2)
}

// dateparts returns the column expressions extracting day, month and year.
func dateparts(name string) (day, month, year func(string) string) {
	switch name {
	case dialect.Postgres:
		extract := func(part string) func(string) string {
			return func(c string) string { return "EXTRACT(" + part + " FROM " + c + ")" }
		}
		return extract("DAY"), extract("MONTH"), extract("YEAR")
	case dialect.SQLite:
		strftime := func(format string) func(string) string {
			return func(c string) string { return "CAST(strftime('" + format + "', " + c + ") AS INTEGER)" }
		}
		return strftime("%d"), strftime("%m"), strftime("%Y")
	default:
		wrap := func(fn string) func(string) string {
			return func(c string) string { return fn + "(" + c + ")" }
		}
		return wrap("DAY"), wrap("MONTH"), wrap("YEAR")
	}
}

func datepart(extract func(string) string) MarkupFunc {
	return func(column string, _ any) (string, error) {
		return extract(column) + " = ?", nil
	}
}

// For returns the rule table of the given dialect: the baseline rules plus
// like, between, day, month and year.
func For(name string) *Table {
	day, month, year := dateparts(name)
	return NewTable(name, Baseline()...).Extend(
		Rule{Name: RuleLike, Value: likeValue, Markup: operator("LIKE")},
		Rule{Name: RuleBetween, Value: betweenValue, Markup: func(column string, _ any) (string, error) {
			return column + " BETWEEN ? AND ?", nil
		}},
		Rule{Name: RuleDay, Markup: datepart(day)},
		Rule{Name: RuleMonth, Markup: datepart(month)},
		Rule{Name: RuleYear, Markup: datepart(year)},
	)
}

// Default is the rule map of every supported dialect.
var Default = NewMap(For(dialect.MySQL), For(dialect.Postgres), For(dialect.SQLite))

// Bind returns the arguments of a rendered fragment: none when it has no
// placeholder, the elements of a list value matching the placeholder count,
// or the value itself for a single placeholder.
func Bind(markup string, value any) ([]any, error) {
	n := strings.Count(markup, "?")
	if n == 0 {
		return nil, nil
	}
	if values, ok := toSlice(value); ok {
		if len(values) != n {
			return nil, fmt.Errorf("fragment %q expects %d values, got %d", markup, n, len(values))
		}
		return values, nil
	}
	if n != 1 {
		return nil, fmt.Errorf("fragment %q expects %d values, got 1", markup, n)
	}
	return []any{value}, nil
}
