package sql

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/syssam/persistence"
	"github.com/syssam/persistence/clause"
	"github.com/syssam/persistence/compiler"
	"github.com/syssam/persistence/dialect"
	"github.com/syssam/persistence/dialect/sql/sqlgraph"
	"github.com/syssam/persistence/logging"
)

// Session runs compiled clause sets on a Backend and keeps the history of
// every statement it sent.
type Session struct {
	backend  Backend
	compiler *compiler.Compiler
	logger   logging.Logger
	forceLog bool
	now      func() time.Time

	mu   sync.Mutex
	logs []logging.Entry
	tx   TxExecutor
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithLogger sets the statement log sink. The default is logging.Nop.
func WithLogger(l logging.Logger) SessionOption {
	return func(s *Session) { s.logger = l }
}

// WithForcedLog forwards every statement to the sink, regardless of the
// log clause.
func WithForcedLog(v bool) SessionOption {
	return func(s *Session) { s.forceLog = v }
}

// WithCompiler replaces the compiler derived from the backend dialect.
func WithCompiler(c *compiler.Compiler) SessionOption {
	return func(s *Session) { s.compiler = c }
}

// NewSession returns a session on b.
func NewSession(b Backend, opts ...SessionOption) (*Session, error) {
	s := &Session{
		backend: b,
		logger:  logging.Nop,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.compiler == nil {
		c, err := compiler.New(b.Dialect())
		if err != nil {
			return nil, err
		}
		s.compiler = c
	}
	return s, nil
}

// Scope returns the dialect of the session.
func (s *Session) Scope() string { return s.compiler.Dialect() }

// Backend returns the backend of the session.
func (s *Session) Backend() Backend { return s.backend }

// Start begins a transaction. Statements run inside it until Commit or
// Rollback.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tx != nil {
		return errors.New("dialect/sql: transaction already started")
	}
	tx, err := s.backend.Tx(ctx)
	if err != nil {
		return fmt.Errorf("dialect/sql: start transaction: %w", err)
	}
	s.tx = tx
	return nil
}

// Active reports whether a transaction is open.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tx != nil
}

// Commit commits the open transaction.
func (s *Session) Commit() error {
	tx, err := s.finish()
	if err != nil {
		return err
	}
	return tx.Commit()
}

// Rollback rolls back the open transaction.
func (s *Session) Rollback() error {
	tx, err := s.finish()
	if err != nil {
		return err
	}
	return tx.Rollback()
}

func (s *Session) finish() (TxExecutor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tx == nil {
		return nil, persistence.ErrTxNotStarted
	}
	tx := s.tx
	s.tx = nil
	return tx, nil
}

// Close closes the backend.
func (s *Session) Close() error { return s.backend.Close() }

func (s *Session) executor() Executor {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tx != nil {
		return s.tx
	}
	return s.backend
}

// Logs returns the statements sent by the session, oldest first.
func (s *Session) Logs() []logging.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.logs)
}

// log records a statement before it runs. The entry reaches the sink when
// forced by the caller or by the session.
func (s *Session) log(ctx context.Context, command string, params []any, force bool) {
	e := logging.Entry{
		Command:    command,
		Parameters: params,
		Scope:      s.Scope(),
		Time:       s.now(),
	}
	s.mu.Lock()
	s.logs = append(s.logs, e)
	s.mu.Unlock()
	if !force && !s.forceLog {
		return
	}
	if err := s.logger.Log(ctx, e); err != nil {
		slog.WarnContext(ctx, "statement log failed", "error", err, "command", command)
	}
}

// fail wraps a driver error with the statement. Foreign-key violations
// report the referencing column as a relationship detail.
func fail(op, query string, args []any, err error) error {
	pe := persistence.NewPersistenceError(op, query, args, err)
	if column, ok := sqlgraph.ForeignKeyColumn(err); ok {
		pe.Details = map[string][]string{column: {persistence.Relationship}}
	}
	return pe
}

// Create inserts a record and returns its id. Values follow the order of
// the fields clause. With a returning clause the id is read from the
// statement instead of LastInsertId.
func (s *Session) Create(ctx context.Context, set *clause.Set, values []any) (string, error) {
	stmt, err := s.compiler.Insert(set)
	if err != nil {
		return "", err
	}
	params := stmt.Bind(values...)
	s.log(ctx, stmt.SQL, params, set.Bool(clause.Log))
	if set.Has(clause.Returning) {
		return s.returning(ctx, stmt.SQL, params)
	}
	res, err := s.executor().Exec(ctx, stmt.SQL, params)
	if err != nil {
		return "", fail("create", stmt.SQL, params, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return "", persistence.NewDataError("create", stmt.SQL, params, err)
	}
	return strconv.FormatInt(id, 10), nil
}

func (s *Session) returning(ctx context.Context, query string, params []any) (string, error) {
	rows, err := s.executor().Query(ctx, query, params)
	if err != nil {
		return "", fail("create", query, params, err)
	}
	res, err := ScanResult(rows, clause.FetchRecord)
	if err != nil {
		return "", fail("create", query, params, err)
	}
	if res.Len() == 0 || len(res.Columns) == 0 {
		return "", persistence.NewDataError("create", query, params, errors.New("no row returned"))
	}
	return fmt.Sprint(res.Values[0][0]), nil
}

// Read selects records. Values bind the placeholders written in raw
// clauses, in text order among the arguments of the filter tree.
func (s *Session) Read(ctx context.Context, set *clause.Set, values ...any) (*Result, error) {
	stmt, err := s.compiler.Select(set)
	if err != nil {
		return nil, err
	}
	mode, err := fetchMode(set)
	if err != nil {
		return nil, persistence.NewCompileError(clause.Fetch.String(), fmt.Errorf("%w: %w", persistence.ErrInvalidModifier, err))
	}
	params := stmt.Bind(values...)
	s.log(ctx, stmt.SQL, params, set.Bool(clause.Log))
	rows, err := s.executor().Query(ctx, stmt.SQL, params)
	if err != nil {
		return nil, fail("read", stmt.SQL, params, err)
	}
	res, err := ScanResult(rows, mode)
	if err != nil {
		return nil, fail("read", stmt.SQL, params, err)
	}
	return res, nil
}

// Update writes values to the records matched by the where clause and
// returns the number of affected rows. Values bind the set list; filters
// bind the placeholders of raw where clauses, in text order among the
// arguments of the filter tree.
func (s *Session) Update(ctx context.Context, set *clause.Set, values, filters []any) (int64, error) {
	stmt, err := s.compiler.Update(set)
	if err != nil {
		return 0, err
	}
	params := stmt.Bind(slices.Concat(values, filters)...)
	s.log(ctx, stmt.SQL, params, set.Bool(clause.Log))
	return s.affected(ctx, "update", stmt.SQL, params)
}

// Destroy deletes the records matched by the where clause and returns the
// number of affected rows. Values bind raw where clauses as in Read.
func (s *Session) Destroy(ctx context.Context, set *clause.Set, values ...any) (int64, error) {
	stmt, err := s.compiler.Delete(set)
	if err != nil {
		return 0, err
	}
	params := stmt.Bind(values...)
	s.log(ctx, stmt.SQL, params, set.Bool(clause.Log))
	return s.affected(ctx, "destroy", stmt.SQL, params)
}

// Run executes a raw statement and returns the number of affected rows.
func (s *Session) Run(ctx context.Context, query string, values ...any) (int64, error) {
	query = dialect.Rebind(s.Scope(), query)
	s.log(ctx, query, values, false)
	return s.affected(ctx, "run", query, values)
}

// Query runs a raw query and returns its rows.
func (s *Session) Query(ctx context.Context, query string, values ...any) (*Result, error) {
	query = dialect.Rebind(s.Scope(), query)
	s.log(ctx, query, values, false)
	rows, err := s.executor().Query(ctx, query, values)
	if err != nil {
		return nil, fail("query", query, values, err)
	}
	res, err := ScanResult(rows, clause.FetchMap)
	if err != nil {
		return nil, fail("query", query, values, err)
	}
	return res, nil
}

func (s *Session) affected(ctx context.Context, op, query string, params []any) (int64, error) {
	res, err := s.executor().Exec(ctx, query, params)
	if err != nil {
		return 0, fail(op, query, params, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, persistence.NewDataError(op, query, params, err)
	}
	return n, nil
}
