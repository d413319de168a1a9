package sql

import (
	"context"
	"fmt"

	// Drivers of the supported dialects.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/syssam/persistence"
	"github.com/syssam/persistence/config"
	"github.com/syssam/persistence/transaction"
)

// Connect returns the session registered in uow for the driver of s. On
// first use it opens the connection and registers it, which starts its
// transaction. Statistics are collected when s.SlowQuery is set.
func Connect(ctx context.Context, uow *transaction.UnitOfWork, s config.Settings, opts ...SessionOption) (*Session, error) {
	if c, ok := uow.Get(s.Driver); ok {
		session, ok := c.(*Session)
		if !ok {
			return nil, persistence.NewConfigError(s.Driver, fmt.Errorf("%w: registered connection is %T", persistence.ErrNoDriver, c))
		}
		return session, nil
	}
	dsn, err := s.DataSourceName()
	if err != nil {
		return nil, err
	}
	drv, err := Open(s.Driver, dsn)
	if err != nil {
		return nil, persistence.NewConfigError(s.Driver, fmt.Errorf("%w: %w", persistence.ErrNoDriver, err))
	}
	var b Backend = drv
	if s.SlowQuery > 0 {
		b = NewStatsDriver(drv, WithSlowThreshold(s.SlowQuery), WithSlowSlog(nil))
	}
	session, err := NewSession(b, append([]SessionOption{WithForcedLog(s.Log)}, opts...)...)
	if err != nil {
		_ = drv.Close()
		return nil, err
	}
	if err := uow.Register(ctx, s.Driver, session); err != nil {
		_ = drv.Close()
		return nil, err
	}
	return session, nil
}
