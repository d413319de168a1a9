// Package dialect identifies the SQL backends supported by the persistence
// layer and holds the few rendering rules that differ between them.
//
// # Supported Dialects
//
//	dialect.MySQL    = "mysql"
//	dialect.Postgres = "postgres"
//	dialect.SQLite   = "sqlite"
//
// # Identifier Quoting
//
// Plain identifiers are quoted with backticks on MySQL and double quotes
// elsewhere. Dotted names are quoted part by part; anything that is not a
// plain identifier (an expression, "users u") is returned unchanged:
//
//	dialect.Quote(dialect.MySQL, "users.id")  // `users`.`id`
//	dialect.Quote(dialect.Postgres, "users")  // "users"
//
// # Placeholders
//
// Statements are rendered with "?" placeholders. Postgres expects ordinal
// placeholders, so Rebind rewrites them:
//
//	dialect.Rebind(dialect.Postgres, "a = ? AND b = ?")  // a = $1 AND b = $2
package dialect
