package sql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/syssam/persistence/logging"
)

// Kind is the verb of a statement, taken from its first keyword.
type Kind string

// Statement kinds counted by StatsDriver.
const (
	KindSelect Kind = "select"
	KindInsert Kind = "insert"
	KindUpdate Kind = "update"
	KindDelete Kind = "delete"
	KindOther  Kind = "other"
)

// KindOf returns the kind of query.
func KindOf(query string) Kind {
	verb, _, _ := strings.Cut(strings.TrimSpace(query), " ")
	switch k := Kind(strings.ToLower(verb)); k {
	case KindSelect, KindInsert, KindUpdate, KindDelete:
		return k
	}
	return KindOther
}

// Stats accumulates statement statistics. It is safe for concurrent use.
type Stats struct {
	mu        sync.Mutex
	counts    map[Kind]int64
	duration  time.Duration
	errors    int64
	slow      int64
	commits   int64
	rollbacks int64
}

func (s *Stats) statement(kind Kind, d time.Duration, failed, slow bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.counts == nil {
		s.counts = make(map[Kind]int64)
	}
	s.counts[kind]++
	s.duration += d
	if failed {
		s.errors++
	}
	if slow {
		s.slow++
	}
}

func (s *Stats) end(commit bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if commit {
		s.commits++
	} else {
		s.rollbacks++
	}
}

// Snapshot returns the current statistics.
func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[Kind]int64, len(s.counts))
	for k, n := range s.counts {
		counts[k] = n
	}
	return StatsSnapshot{
		Statements: counts,
		Duration:   s.duration,
		Errors:     s.errors,
		Slow:       s.slow,
		Commits:    s.commits,
		Rollbacks:  s.rollbacks,
	}
}

// Reset clears the statistics.
func (s *Stats) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.counts)
	s.duration, s.errors, s.slow, s.commits, s.rollbacks = 0, 0, 0, 0, 0
}

// StatsSnapshot is a point-in-time copy of Stats.
type StatsSnapshot struct {
	Statements map[Kind]int64
	Duration   time.Duration
	Errors     int64
	Slow       int64
	Commits    int64
	Rollbacks  int64
}

// Total returns the number of statements of every kind.
func (s StatsSnapshot) Total() int64 {
	var n int64
	for _, c := range s.Statements {
		n += c
	}
	return n
}

// Avg returns the average statement duration.
func (s StatsSnapshot) Avg() time.Duration {
	total := s.Total()
	if total == 0 {
		return 0
	}
	return s.Duration / time.Duration(total)
}

func (s StatsSnapshot) String() string {
	return fmt.Sprintf(
		"select=%d insert=%d update=%d delete=%d other=%d avg=%s slow=%d errors=%d commits=%d rollbacks=%d",
		s.Statements[KindSelect], s.Statements[KindInsert], s.Statements[KindUpdate],
		s.Statements[KindDelete], s.Statements[KindOther], s.Avg(),
		s.Slow, s.Errors, s.Commits, s.Rollbacks,
	)
}

// SlowHook receives statements running longer than the threshold.
type SlowHook func(ctx context.Context, e logging.Entry, d time.Duration)

// StatsDriver wraps a Backend and records statistics for every statement,
// including those run in its transactions.
type StatsDriver struct {
	Backend
	stats     *Stats
	threshold atomic.Int64
	hook      SlowHook
}

// StatsOption configures a StatsDriver.
type StatsOption func(*StatsDriver)

// WithSlowThreshold sets the duration above which a statement is slow.
// The default is 100ms.
func WithSlowThreshold(d time.Duration) StatsOption {
	return func(s *StatsDriver) { s.threshold.Store(int64(d)) }
}

// WithSlowHook sets the function called for slow statements.
func WithSlowHook(hook SlowHook) StatsOption {
	return func(s *StatsDriver) { s.hook = hook }
}

// WithSlowLog forwards slow statements to a statement log sink.
func WithSlowLog(l logging.Logger) StatsOption {
	return WithSlowHook(func(ctx context.Context, e logging.Entry, _ time.Duration) {
		if err := l.Log(ctx, e); err != nil {
			slog.WarnContext(ctx, "slow statement log failed", "error", err)
		}
	})
}

// WithSlowSlog logs slow statements to l at warn level. A nil l uses
// slog.Default.
func WithSlowSlog(l *slog.Logger) StatsOption {
	return WithSlowHook(func(ctx context.Context, e logging.Entry, d time.Duration) {
		if l == nil {
			l = slog.Default()
		}
		l.WarnContext(ctx, "slow statement", "scope", e.Scope, "duration", d, "command", e.Command, "parameters", e.Parameters)
	})
}

// NewStatsDriver wraps b.
//
//	drv, _ := sql.Open(dialect.Postgres, dsn)
//	stats := sql.NewStatsDriver(drv,
//	    sql.WithSlowThreshold(200*time.Millisecond),
//	    sql.WithSlowSlog(nil),
//	)
//	session, err := sql.NewSession(stats)
//	...
//	fmt.Println(stats.Stats().Snapshot())
func NewStatsDriver(b Backend, opts ...StatsOption) *StatsDriver {
	d := &StatsDriver{Backend: b, stats: &Stats{}}
	d.threshold.Store(int64(100 * time.Millisecond))
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Stats returns the statistics of the driver.
func (d *StatsDriver) Stats() *Stats { return d.stats }

// SlowThreshold returns the slow statement threshold.
func (d *StatsDriver) SlowThreshold() time.Duration {
	return time.Duration(d.threshold.Load())
}

// SetSlowThreshold updates the slow statement threshold.
func (d *StatsDriver) SetSlowThreshold(threshold time.Duration) {
	d.threshold.Store(int64(threshold))
}

// Query runs a query and records it.
func (d *StatsDriver) Query(ctx context.Context, query string, args []any) (*Rows, error) {
	start := time.Now()
	rows, err := d.Backend.Query(ctx, query, args)
	d.record(ctx, query, args, start, err)
	return rows, err
}

// Exec runs a statement and records it.
func (d *StatsDriver) Exec(ctx context.Context, query string, args []any) (sql.Result, error) {
	start := time.Now()
	res, err := d.Backend.Exec(ctx, query, args)
	d.record(ctx, query, args, start, err)
	return res, err
}

func (d *StatsDriver) record(ctx context.Context, query string, args []any, start time.Time, err error) {
	elapsed := time.Since(start)
	slow := elapsed > d.SlowThreshold()
	d.stats.statement(KindOf(query), elapsed, err != nil, slow)
	if slow && d.hook != nil {
		d.hook(ctx, logging.Entry{Command: query, Parameters: args, Scope: d.Dialect(), Time: start}, elapsed)
	}
}

// Tx starts a transaction whose statements and outcome are recorded.
func (d *StatsDriver) Tx(ctx context.Context) (TxExecutor, error) {
	tx, err := d.Backend.Tx(ctx)
	if err != nil {
		return nil, err
	}
	return &StatsTx{TxExecutor: tx, driver: d}, nil
}

// StatsTx is a transaction of a StatsDriver.
type StatsTx struct {
	TxExecutor
	driver *StatsDriver
}

// Query runs a query in the transaction and records it.
func (tx *StatsTx) Query(ctx context.Context, query string, args []any) (*Rows, error) {
	start := time.Now()
	rows, err := tx.TxExecutor.Query(ctx, query, args)
	tx.driver.record(ctx, query, args, start, err)
	return rows, err
}

// Exec runs a statement in the transaction and records it.
func (tx *StatsTx) Exec(ctx context.Context, query string, args []any) (sql.Result, error) {
	start := time.Now()
	res, err := tx.TxExecutor.Exec(ctx, query, args)
	tx.driver.record(ctx, query, args, start, err)
	return res, err
}

// Commit commits the transaction and counts it.
func (tx *StatsTx) Commit() error {
	if err := tx.TxExecutor.Commit(); err != nil {
		return err
	}
	tx.driver.stats.end(true)
	return nil
}

// Rollback rolls the transaction back and counts it.
func (tx *StatsTx) Rollback() error {
	if err := tx.TxExecutor.Rollback(); err != nil {
		return err
	}
	tx.driver.stats.end(false)
	return nil
}

var (
	_ Backend    = (*StatsDriver)(nil)
	_ TxExecutor = (*StatsTx)(nil)
)
