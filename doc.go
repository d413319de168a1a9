// Package persistence is a relational access layer that turns an accumulated
// set of query clauses into parameterized SQL, runs it through a pooled
// connection, and coordinates commit and rollback across every connection
// opened during a unit of work.
//
// The root package holds the error taxonomy shared by the sub-packages:
//
//   - ConfigError: invalid settings, a second foreign reference on a field,
//     merging into an undefined clause.
//   - CompileError: unsupported column shapes, unknown filter rules,
//     clause values a modifier can't render.
//   - PersistenceError: the connection rejected a statement. Foreign-key
//     violations are reported in Details as {column: ["relationship"]}.
//   - DataError: the statement ran but its outcome could not be read.
//
// # Sub-packages
//
//   - schema/field: column metadata
//   - schema/edge: join descriptors
//   - filter: predicates and per-dialect rule tables
//   - clause: clause names, clause sets and column variants
//   - compiler: SQL rendering
//   - dialect/sql: connections, sessions and results
//   - transaction: the unit-of-work coordinator
//   - engine: the fluent clause accumulator
//   - privacy: policies evaluated before each engine operation
//   - config, logging: ambient configuration and statement logging
package persistence
