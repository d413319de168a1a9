package sql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/syssam/persistence"
	"github.com/syssam/persistence/dialect"
)

// Executor runs statements. It is implemented by Conn, Driver, Tx and the
// statistics wrappers.
type Executor interface {
	// Exec runs a write statement.
	Exec(ctx context.Context, query string, args []any) (sql.Result, error)
	// Query runs a read statement. The caller closes the rows.
	Query(ctx context.Context, query string, args []any) (*Rows, error)
}

// TxExecutor is an Executor bound to a transaction.
type TxExecutor interface {
	Executor
	Commit() error
	Rollback() error
}

// Backend is a connection of one dialect able to start transactions.
type Backend interface {
	Executor
	Tx(ctx context.Context) (TxExecutor, error)
	Dialect() string
	Close() error
}

// Driver is a Backend on a *sql.DB.
type Driver struct {
	Conn
	db *sql.DB
}

// Open opens a database of a supported dialect. The dialect is also the
// name of the registered database/sql driver.
func Open(name, source string) (*Driver, error) {
	if !dialect.Supported(name) {
		return nil, fmt.Errorf("%w: %q", persistence.ErrNoDriver, name)
	}
	db, err := sql.Open(name, source)
	if err != nil {
		return nil, err
	}
	return OpenDB(name, db), nil
}

// OpenDB wraps db, whose statements are written in dialect name.
func OpenDB(name string, db *sql.DB) *Driver {
	return &Driver{Conn: Conn{ExecQuerier: db, dialect: name}, db: db}
}

// DB returns the underlying *sql.DB.
func (d *Driver) DB() *sql.DB { return d.db }

// Dialect returns the dialect of the driver.
func (d *Driver) Dialect() string { return d.dialect }

// Tx starts a transaction.
func (d *Driver) Tx(ctx context.Context) (TxExecutor, error) {
	tx, err := d.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// BeginTx starts a transaction with options.
func (d *Driver) BeginTx(ctx context.Context, opts *TxOptions) (*Tx, error) {
	tx, err := d.db.BeginTx(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: begin %s: %w", d.dialect, err)
	}
	return &Tx{Conn: Conn{ExecQuerier: tx, dialect: d.dialect}, tx: tx}, nil
}

// Close closes the database.
func (d *Driver) Close() error { return d.db.Close() }

// Tx is a transaction opened by a Driver.
type Tx struct {
	Conn
	tx *sql.Tx
}

// Commit commits the transaction.
func (t *Tx) Commit() error { return t.tx.Commit() }

// Rollback aborts the transaction.
func (t *Tx) Rollback() error { return t.tx.Rollback() }

// ExecQuerier wraps the standard Exec and Query methods.
type ExecQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Conn implements Executor given ExecQuerier.
type Conn struct {
	ExecQuerier
	dialect string
}

// Exec implements the Executor.Exec method.
func (c Conn) Exec(ctx context.Context, query string, args []any) (sql.Result, error) {
	res, err := c.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: exec: %w", err)
	}
	return res, nil
}

// Query implements the Executor.Query method.
func (c Conn) Query(ctx context.Context, query string, args []any) (*Rows, error) {
	rows, err := c.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: query: %w", err)
	}
	return &Rows{rows}, nil
}

var (
	_ Backend    = (*Driver)(nil)
	_ TxExecutor = (*Tx)(nil)
)

type (
	// Rows wraps the sql.Rows to avoid locks copy.
	Rows struct{ ColumnScanner }
	// TxOptions holds the transaction options to be used in DB.BeginTx.
	TxOptions = sql.TxOptions
)

// ColumnScanner is the interface that wraps the standard
// sql.Rows methods used for scanning database rows.
type ColumnScanner interface {
	Close() error
	ColumnTypes() ([]*sql.ColumnType, error)
	Columns() ([]string, error)
	Err() error
	Next() bool
	NextResultSet() bool
	Scan(dest ...any) error
}
