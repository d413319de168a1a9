// Package sql runs compiled clause sets on SQL databases.
//
// A Driver wraps a *sql.DB and implements Backend. A Session binds a Backend
// to the compiler of its dialect and exposes the four persistence
// operations plus raw statements:
//
//	drv, err := sql.Open(dialect.SQLite, "file:shop.db")
//	if err != nil {
//	    return err
//	}
//	s, err := sql.NewSession(drv, sql.WithLogger(logging.Slog(nil)))
//	if err != nil {
//	    return err
//	}
//	set := clause.NewSet().
//	    Set(clause.Source, "orders").
//	    Set(clause.Fields, "customer_id", "total")
//	id, err := s.Create(ctx, set, []any{7, 120})
//
// Every statement is appended to the session history (Logs) before it runs,
// so failed statements are recorded too. The entry also reaches the log sink
// when the set carries a true log clause or the session was built with
// WithForcedLog.
//
// # Parameters
//
// Statements use "?" placeholders, rewritten to $n on Postgres. Parameters
// are bound in this order:
//
//   - Create: the values, in fields order
//   - Read and Destroy: the filter arguments, then the values
//   - Update: the values, the filter arguments, then the filters
//
// # Errors
//
// Compile failures are returned as *persistence.CompileError before any
// statement is sent. Driver failures are wrapped in
// *persistence.PersistenceError; a foreign-key violation carries the
// referencing column as a "relationship" detail when the driver reports it.
//
// # Transactions
//
// Start opens a transaction on the session; statements run inside it until
// Commit or Rollback. A Session satisfies transaction.Conn and is usually
// registered in a transaction.UnitOfWork through Connect.
//
// # Statistics
//
// StatsDriver wraps any Backend and counts statements by kind, failures,
// slow statements and transaction outcomes. Slow statements can be sent to a
// statement log sink:
//
//	stats := sql.NewStatsDriver(drv,
//	    sql.WithSlowThreshold(200*time.Millisecond),
//	    sql.WithSlowLog(logging.Zap(zl)),
//	)
//	s, err := sql.NewSession(stats)
package sql
