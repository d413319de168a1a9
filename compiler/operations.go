package compiler

import (
	"strings"

	"github.com/syssam/persistence/clause"
)

// Insert renders INSERT INTO source (fields) VALUES (?, ...). The
// statement has one placeholder per field and no arguments of its own.
func (c *Compiler) Insert(s *clause.Set) (*Statement, error) {
	b := c.builder()
	source, err := b.source(s)
	if err != nil {
		return nil, err
	}
	targets, err := b.targets(s)
	if err != nil {
		return nil, err
	}
	b.add("INSERT INTO", source,
		"("+strings.Join(targets, ", ")+")",
		"VALUES", b.raw("("+placeholders(len(targets))+")"))
	if err := b.returning(s); err != nil {
		return nil, err
	}
	return b.statement(), nil
}

// Select renders SELECT columns FROM source with its joins and modifiers
// in the order WHERE, GROUP BY, HAVING, ORDER BY, LIMIT. Absent modifiers
// are skipped.
func (c *Compiler) Select(s *clause.Set) (*Statement, error) {
	b := c.builder()
	source, err := b.source(s)
	if err != nil {
		return nil, err
	}
	table := qualifier(s.Get(clause.Source).(string))
	columns, err := b.columns(s, table)
	if err != nil {
		return nil, err
	}
	b.add("SELECT", columns, "FROM", source)
	steps := []func() error{
		func() error { return b.joins(s) },
		func() error { return b.predicate(s, clause.Where, "WHERE") },
		func() error { return b.list(s, clause.Group, "GROUP BY", table) },
		func() error { return b.predicate(s, clause.Having, "HAVING") },
		func() error { return b.list(s, clause.Order, "ORDER BY", table) },
		func() error { return b.limit(s) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, err
		}
	}
	return b.statement(), nil
}

// Update renders UPDATE source [joins] SET field = ?, ... [WHERE ...]. The
// set placeholders come first in Bind.
func (c *Compiler) Update(s *clause.Set) (*Statement, error) {
	b := c.builder()
	source, err := b.source(s)
	if err != nil {
		return nil, err
	}
	targets, err := b.targets(s)
	if err != nil {
		return nil, err
	}
	b.add("UPDATE", source)
	if err := b.joins(s); err != nil {
		return nil, err
	}
	sets := make([]string, len(targets))
	for i, t := range targets {
		sets[i] = t + " = ?"
	}
	b.add("SET", b.raw(strings.Join(sets, ", ")))
	if err := b.predicate(s, clause.Where, "WHERE"); err != nil {
		return nil, err
	}
	return b.statement(), nil
}

// Delete renders DELETE FROM source [joins] [WHERE ...].
func (c *Compiler) Delete(s *clause.Set) (*Statement, error) {
	b := c.builder()
	source, err := b.source(s)
	if err != nil {
		return nil, err
	}
	b.add("DELETE FROM", source)
	if err := b.joins(s); err != nil {
		return nil, err
	}
	if err := b.predicate(s, clause.Where, "WHERE"); err != nil {
		return nil, err
	}
	return b.statement(), nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
