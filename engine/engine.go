package engine

import (
	"context"
	"log/slog"

	"github.com/syssam/persistence"
	"github.com/syssam/persistence/clause"
	"github.com/syssam/persistence/config"
	"github.com/syssam/persistence/dialect/sql"
	"github.com/syssam/persistence/filter"
	"github.com/syssam/persistence/privacy"
	"github.com/syssam/persistence/schema/field"
	"github.com/syssam/persistence/transaction"
)

// Session runs clause sets. It is implemented by *sql.Session.
type Session interface {
	Scope() string
	Create(ctx context.Context, set *clause.Set, values []any) (string, error)
	Read(ctx context.Context, set *clause.Set, values ...any) (*sql.Result, error)
	Update(ctx context.Context, set *clause.Set, values, filters []any) (int64, error)
	Destroy(ctx context.Context, set *clause.Set, values ...any) (int64, error)
	Run(ctx context.Context, query string, values ...any) (int64, error)
	Query(ctx context.Context, query string, values ...any) (*sql.Result, error)
	Commit() error
	Rollback() error
}

var _ Session = (*sql.Session)(nil)

// Engine accumulates clauses and fires them at a Session. An Engine belongs
// to one unit of work and is not safe for concurrent use.
type Engine struct {
	session Session
	parser  filter.Parser
	policy  privacy.Policy
	clauses *clause.Set
}

// Option configures an Engine.
type Option func(*Engine)

// WithParser sets the parser used by Filter.
func WithParser(p filter.Parser) Option {
	return func(e *Engine) { e.parser = p }
}

// WithPolicy sets the policy evaluated before every operation. A rejected
// operation never reaches the session.
func WithPolicy(p privacy.Policy) Option {
	return func(e *Engine) { e.policy = p }
}

// New returns an engine on s with no clauses.
func New(s Session, opts ...Option) *Engine {
	e := &Engine{session: s, clauses: clause.NewSet()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Connect resolves the settings of id in cfg and returns an engine on the
// session registered in uow for their driver, opening and registering it on
// first use.
func Connect(ctx context.Context, uow *transaction.UnitOfWork, cfg *config.Config, id string, opts ...Option) (*Engine, error) {
	if cfg == nil {
		return nil, persistence.NewConfigError(id, persistence.ErrNoDriver)
	}
	settings, err := cfg.Settings(id)
	if err != nil {
		return nil, err
	}
	s, err := sql.Connect(ctx, uow, settings)
	if err != nil {
		return nil, err
	}
	slog.DebugContext(ctx, "engine connected", "id", id, "driver", settings.Driver, "uow", uow.ID())
	return New(s, append([]Option{WithParser(filter.NewParser(cfg.Filter.Separator))}, opts...)...), nil
}

// Session returns the session of the engine.
func (e *Engine) Session() Session { return e.session }

// Scope returns the dialect of the session.
func (e *Engine) Scope() string { return e.session.Scope() }

// Filter returns a filter on f, parsing inline syntax with the engine's
// separator.
func (e *Engine) Filter(f *field.Field, value any, opts ...filter.Option) *filter.Filter {
	return e.parser.New(f, value, opts...)
}

// Set stores a clause. A single argument is stored as is, several as a
// sequence. No argument or a nil one removes the clause.
func (e *Engine) Set(name clause.Name, args ...any) *Engine {
	e.clauses.Set(name, args...)
	return e
}

// SetName is Set with a clause name given as a string. Unknown names are
// rejected with a configuration error.
func (e *Engine) SetName(name string, args ...any) error {
	n, err := clause.ParseName(name)
	if err != nil {
		return err
	}
	e.Set(n, args...)
	return nil
}

// Source sets the collection the statement runs on.
func (e *Engine) Source(source string) *Engine { return e.Set(clause.Source, source) }

// Fields sets the columns: names, *field.Field values or clause.Column
// variants.
func (e *Engine) Fields(fields ...any) *Engine { return e.Set(clause.Fields, fields...) }

// Relation sets the joins.
func (e *Engine) Relation(joins ...any) *Engine { return e.Set(clause.Relation, joins...) }

// Where sets the filter tree joined with AND.
func (e *Engine) Where(nodes ...any) *Engine { return e.Set(clause.Where, nodes...) }

// Order sets the ORDER BY list.
func (e *Engine) Order(order ...any) *Engine { return e.Set(clause.Order, order...) }

// Group sets the GROUP BY list.
func (e *Engine) Group(group ...any) *Engine { return e.Set(clause.Group, group...) }

// Having sets the HAVING filter tree.
func (e *Engine) Having(nodes ...any) *Engine { return e.Set(clause.Having, nodes...) }

// Limit sets the row count, or the offset and the count.
func (e *Engine) Limit(limit ...any) *Engine { return e.Set(clause.Limit, limit...) }

// Fetch sets the shape of read results.
func (e *Engine) Fetch(mode clause.FetchMode) *Engine { return e.Set(clause.Fetch, mode) }

// Log forwards the next statement to the log sink.
func (e *Engine) Log(v bool) *Engine { return e.Set(clause.Log, v) }

// Returning sets the column returned by the next insert.
func (e *Engine) Returning(column string) *Engine { return e.Set(clause.Returning, column) }

// Clause returns the value of a clause, or nil.
func (e *Engine) Clause(name clause.Name) any { return e.clauses.Get(name) }

// Clauses returns a snapshot of the clauses.
func (e *Engine) Clauses() map[clause.Name]any { return e.clauses.Map() }

// Merge appends values to a clause that is already set.
func (e *Engine) Merge(name clause.Name, values ...any) error {
	return e.clauses.Merge(name, values...)
}

// Reset clears every clause.
func (e *Engine) Reset() *Engine {
	e.clauses.Reset()
	return e
}

type opConfig struct {
	retain bool
}

// OpOption configures one operation.
type OpOption func(*opConfig)

// Retain keeps the clauses after the operation.
func Retain() OpOption {
	return func(c *opConfig) { c.retain = true }
}

// snapshot copies the clauses, clears them unless retained and evaluates
// the policy on the copy.
func (e *Engine) snapshot(ctx context.Context, op privacy.Op, values []any, opts []OpOption) (*clause.Set, error) {
	var c opConfig
	for _, opt := range opts {
		opt(&c)
	}
	set := e.clauses.Clone()
	if !c.retain {
		e.clauses.Reset()
	}
	if e.policy == nil {
		return set, nil
	}
	if err := e.policy.Eval(ctx, &privacy.Operation{Op: op, Clauses: set, Values: values}); err != nil {
		return nil, err
	}
	return set, nil
}

// Register inserts a record with values in fields order and returns its id.
func (e *Engine) Register(ctx context.Context, values []any, opts ...OpOption) (string, error) {
	set, err := e.snapshot(ctx, privacy.OpCreate, values, opts)
	if err != nil {
		return "", err
	}
	return e.session.Create(ctx, set, values)
}

// Recover reads records. Values bind the placeholders of raw clauses in
// the order they appear in the statement.
func (e *Engine) Recover(ctx context.Context, values []any, opts ...OpOption) (*sql.Result, error) {
	set, err := e.snapshot(ctx, privacy.OpRead, values, opts)
	if err != nil {
		return nil, err
	}
	return e.session.Read(ctx, set, values...)
}

// Change updates the matching records and returns how many were affected.
// Values bind the set list and filters the placeholders of raw where
// clauses.
func (e *Engine) Change(ctx context.Context, values, filters []any, opts ...OpOption) (int64, error) {
	set, err := e.snapshot(ctx, privacy.OpUpdate, values, opts)
	if err != nil {
		return 0, err
	}
	return e.session.Update(ctx, set, values, filters)
}

// Remove deletes the matching records and returns how many were affected.
func (e *Engine) Remove(ctx context.Context, filters []any, opts ...OpOption) (int64, error) {
	set, err := e.snapshot(ctx, privacy.OpDestroy, filters, opts)
	if err != nil {
		return 0, err
	}
	return e.session.Destroy(ctx, set, filters...)
}

// Run executes a raw statement. The clauses are left untouched.
func (e *Engine) Run(ctx context.Context, query string, values ...any) (int64, error) {
	return e.session.Run(ctx, query, values...)
}

// Query runs a raw query. The clauses are left untouched.
func (e *Engine) Query(ctx context.Context, query string, values ...any) (*sql.Result, error) {
	return e.session.Query(ctx, query, values...)
}

// Commit commits the transaction of the session.
func (e *Engine) Commit() error { return e.session.Commit() }

// Rollback rolls back the transaction of the session.
func (e *Engine) Rollback() error { return e.session.Rollback() }
