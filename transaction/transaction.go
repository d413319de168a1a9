package transaction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/syssam/persistence"
)

// Conn is a connection taking part in a unit of work.
type Conn interface {
	Start(ctx context.Context) error
	Commit() error
	Rollback() error
	Close() error
}

// State is the transaction state of a registered connection.
type State int

// Connection states.
const (
	Unregistered State = iota
	Active
	Finalized
)

// String implements the fmt.Stringer interface.
func (s State) String() string {
	switch s {
	case Active:
		return "active"
	case Finalized:
		return "finalized"
	default:
		return "unregistered"
	}
}

// UnitOfWork holds one connection per driver identifier and commits or
// rolls them back together. Connections stay registered after they are
// finalized; committing a finalized unit of work again is a caller error.
type UnitOfWork struct {
	id  uuid.UUID
	log *slog.Logger

	mu     sync.Mutex
	keys   []string
	conns  map[string]Conn
	states map[string]State
}

// Option configures a UnitOfWork.
type Option func(*UnitOfWork)

// WithLogger sets the logger receiving transaction outcomes at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(u *UnitOfWork) { u.log = l }
}

// New returns an empty unit of work.
func New(opts ...Option) *UnitOfWork {
	u := &UnitOfWork{
		id:     uuid.New(),
		log:    slog.Default(),
		conns:  make(map[string]Conn),
		states: make(map[string]State),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// ID returns the identifier of the unit of work.
func (u *UnitOfWork) ID() string { return u.id.String() }

// Register starts a transaction on conn and registers it under key. The
// connection is registered only if the transaction started.
func (u *UnitOfWork) Register(ctx context.Context, key string, conn Conn) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if _, ok := u.conns[key]; ok {
		return persistence.NewConfigError(key, errors.New("connection already registered"))
	}
	if err := conn.Start(ctx); err != nil {
		u.log.DebugContext(ctx, "begin failed", "uow", u.id, "key", key, "error", err)
		return fmt.Errorf("transaction: begin %s: %w", key, err)
	}
	u.keys = append(u.keys, key)
	u.conns[key] = conn
	u.states[key] = Active
	u.log.DebugContext(ctx, "begin", "uow", u.id, "key", key)
	return nil
}

// Get returns the connection registered under key.
func (u *UnitOfWork) Get(key string) (Conn, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	c, ok := u.conns[key]
	return c, ok
}

// State returns the state of the connection registered under key.
func (u *UnitOfWork) State(key string) State {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.states[key]
}

// Keys returns the registered keys in registration order.
func (u *UnitOfWork) Keys() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return slices.Clone(u.keys)
}

// Commit commits every active connection in registration order. The first
// failure rolls back every registered connection and is returned together
// with the rollback failures. Connections committed before the failure
// stay committed.
func (u *UnitOfWork) Commit(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, key := range u.keys {
		if u.states[key] != Active {
			continue
		}
		err := u.conns[key].Commit()
		u.states[key] = Finalized
		if err != nil {
			u.log.DebugContext(ctx, "commit failed", "uow", u.id, "key", key, "error", err)
			return persistence.NewAggregateError(
				fmt.Errorf("transaction: commit %s: %w", key, err),
				u.rollback(ctx),
			)
		}
		u.log.DebugContext(ctx, "commit", "uow", u.id, "key", key)
	}
	return nil
}

// Rollback rolls back every registered connection. A failure does not stop
// the remaining rollbacks; all failures are returned. Connections without
// an open transaction, such as those already committed, are skipped.
func (u *UnitOfWork) Rollback(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.rollback(ctx)
}

func (u *UnitOfWork) rollback(ctx context.Context) error {
	var errs []error
	for _, key := range u.keys {
		err := u.conns[key].Rollback()
		switch {
		case errors.Is(err, persistence.ErrTxNotStarted):
			u.log.DebugContext(ctx, "rollback skipped", "uow", u.id, "key", key)
		case err != nil:
			u.log.DebugContext(ctx, "rollback failed", "uow", u.id, "key", key, "error", err)
			errs = append(errs, &persistence.RollbackError{Key: key, Err: err})
		default:
			u.log.DebugContext(ctx, "rollback", "uow", u.id, "key", key)
		}
		u.states[key] = Finalized
	}
	return persistence.NewAggregateError(errs...)
}

// Run calls fn with a context carrying u. It commits when fn succeeds and
// rolls back otherwise.
func (u *UnitOfWork) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := fn(WithUnitOfWork(ctx, u)); err != nil {
		if rerr := u.Rollback(ctx); rerr != nil {
			return persistence.NewAggregateError(err, rerr)
		}
		return err
	}
	return u.Commit(ctx)
}

// Close closes every registered connection concurrently and empties the
// registry.
func (u *UnitOfWork) Close(ctx context.Context) error {
	u.mu.Lock()
	conns := make([]Conn, 0, len(u.keys))
	for _, key := range u.keys {
		conns = append(conns, u.conns[key])
	}
	u.keys = nil
	clear(u.conns)
	clear(u.states)
	u.mu.Unlock()

	g, _ := errgroup.WithContext(ctx)
	for _, c := range conns {
		g.Go(c.Close)
	}
	return g.Wait()
}

type ctxKey struct{}

// WithUnitOfWork returns a context carrying u.
func WithUnitOfWork(ctx context.Context, u *UnitOfWork) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

// FromContext returns the unit of work carried by ctx, or nil.
func FromContext(ctx context.Context) *UnitOfWork {
	u, _ := ctx.Value(ctxKey{}).(*UnitOfWork)
	return u
}
