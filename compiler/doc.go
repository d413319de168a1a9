// Package compiler renders clause sets into parameterized SQL.
//
// A Compiler is bound to one dialect and its filter rule table. Each
// renderer is a pure function of a clause snapshot:
//
//	c, _ := compiler.New(dialect.MySQL)
//	stmt, err := c.Select(clause.NewSet().
//		Set(clause.Source, "users").
//		Set(clause.Where, filter.New(name, "like:jo")))
//	// SELECT * FROM `users` WHERE (`users`.`name` LIKE ?) ["%jo%"]
//
// Arguments collected from filters follow placeholder order. Postgres
// statements use $n placeholders.
package compiler
