package sql

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/persistence"
	"github.com/syssam/persistence/clause"
	"github.com/syssam/persistence/dialect"
	"github.com/syssam/persistence/dialect/sql/sqlgraph"
	"github.com/syssam/persistence/filter"
	"github.com/syssam/persistence/schema/edge"
	"github.com/syssam/persistence/schema/field"
)

// sqliteSession opens a single-connection in-memory database with the shop
// tables created.
func sqliteSession(t *testing.T) *Session {
	t.Helper()
	drv, err := Open(dialect.SQLite, "file::memory:")
	require.NoError(t, err)
	drv.DB().SetMaxOpenConns(1)
	s, err := NewSession(drv)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	ctx := context.Background()
	for _, stmt := range []string{
		"PRAGMA foreign_keys = ON",
		"CREATE TABLE customers (id INTEGER PRIMARY KEY, name TEXT NOT NULL)",
		"CREATE TABLE orders (id INTEGER PRIMARY KEY AUTOINCREMENT, customer_id INTEGER REFERENCES customers(id), total INTEGER, placed TEXT)",
	} {
		_, err := s.Run(ctx, stmt)
		require.NoError(t, err, stmt)
	}
	return s
}

func TestSQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := sqliteSession(t)

	customers := clause.NewSet().Set(clause.Source, "customers").Set(clause.Fields, "id", "name")
	for _, values := range [][]any{{1, "Ada"}, {2, "Grace"}} {
		_, err := s.Create(ctx, customers, values)
		require.NoError(t, err)
	}

	insert := clause.NewSet().Set(clause.Source, "orders").Set(clause.Fields, "customer_id", "total", "placed")
	for i, values := range [][]any{
		{1, 120, "2024-03-15"},
		{1, 80, "2024-04-02"},
		{2, 300, "2024-03-20"},
	} {
		id, err := s.Create(ctx, insert, values)
		require.NoError(t, err)
		assert.Equal(t, []string{"1", "2", "3"}[i], id)
	}

	total := field.New("orders", "total").Integer()
	placed := field.New("orders", "placed").Date()

	t.Run("between", func(t *testing.T) {
		res, err := s.Read(ctx, clause.NewSet().
			Set(clause.Source, "orders").
			Set(clause.Fields, "id").
			Set(clause.Where, filter.New(total, "between:100,400")).
			Set(clause.Order, `"orders"."id" DESC`))
		require.NoError(t, err)
		require.Equal(t, 2, res.Len())
		assert.EqualValues(t, 3, res.Maps()[0]["id"])
		assert.EqualValues(t, 1, res.Maps()[1]["id"])
	})

	t.Run("month_and_negation", func(t *testing.T) {
		res, err := s.Read(ctx, clause.NewSet().
			Set(clause.Source, "orders").
			Set(clause.Fields, "id").
			Set(clause.Where,
				filter.New(placed, 3, filter.WithRule(filter.RuleMonth)),
				filter.New(total, "!equal:300")))
		require.NoError(t, err)
		require.Equal(t, 1, res.Len())
		assert.EqualValues(t, 1, res.Maps()[0]["id"])
	})

	t.Run("join", func(t *testing.T) {
		customer := field.New("orders", "customer_id").Integer().ReferencesTo("shop.Customer", "id")
		name := field.New("customers", "name").From(customer)
		res, err := s.Read(ctx, clause.NewSet().
			Set(clause.Source, "orders").
			Set(clause.Fields, field.New("orders", "id"), name).
			Set(clause.Relation, edge.Join("customers", "id", "orders", "customer_id")).
			Set(clause.Where, filter.New(name, "like:rac")).
			Set(clause.Fetch, clause.FetchRecord))
		require.NoError(t, err)
		records := res.Records()
		require.Len(t, records, 1)
		assert.Equal(t, []any{int64(3), "Grace"}, records[0].Values())
	})

	t.Run("group", func(t *testing.T) {
		res, err := s.Read(ctx, clause.NewSet().
			Set(clause.Source, "orders").
			Set(clause.Fields, "customer_id", clause.Expr("SUM(total)", "spent")).
			Set(clause.Group, "customer_id").
			Set(clause.Having, "SUM(total) > ?").
			Set(clause.Order, "customer_id"), 250)
		require.NoError(t, err)
		require.Equal(t, 1, res.Len())
		assert.EqualValues(t, 2, res.Maps()[0]["customer_id"])
		assert.EqualValues(t, 300, res.Maps()[0]["spent"])
	})

	t.Run("update_and_destroy", func(t *testing.T) {
		id := field.New("orders", "id")
		n, err := s.Update(ctx, clause.NewSet().
			Set(clause.Source, "orders").
			Set(clause.Fields, "total").
			Set(clause.Where, filter.New(id, "in:1|2")), []any{10}, nil)
		require.NoError(t, err)
		assert.EqualValues(t, 2, n)

		n, err = s.Destroy(ctx, clause.NewSet().
			Set(clause.Source, "orders").
			Set(clause.Where, filter.New(total, 10, filter.WithRule(filter.RuleLessEqualThan))))
		require.NoError(t, err)
		assert.EqualValues(t, 2, n)

		res, err := s.Query(ctx, "SELECT COUNT(*) AS n FROM orders")
		require.NoError(t, err)
		assert.EqualValues(t, 1, res.Maps()[0]["n"])
	})
}

func TestSQLiteReturning(t *testing.T) {
	ctx := context.Background()
	s := sqliteSession(t)
	_, err := s.Create(ctx, clause.NewSet().Set(clause.Source, "customers").Set(clause.Fields, "id", "name"), []any{5, "Ada"})
	require.NoError(t, err)

	id, err := s.Create(ctx, clause.NewSet().
		Set(clause.Source, "orders").
		Set(clause.Fields, "customer_id").
		Set(clause.Returning, "id"), []any{5})
	require.NoError(t, err)
	assert.Equal(t, "1", id)
}

func TestSQLiteForeignKey(t *testing.T) {
	s := sqliteSession(t)
	_, err := s.Create(context.Background(), clause.NewSet().
		Set(clause.Source, "orders").
		Set(clause.Fields, "customer_id"), []any{99})
	require.Error(t, err)
	assert.True(t, persistence.IsPersistenceError(err))
	assert.True(t, sqlgraph.IsForeignKeyConstraintError(err))
	_, ok := persistence.RelationshipField(err)
	assert.False(t, ok)
}

func TestSQLiteTransaction(t *testing.T) {
	ctx := context.Background()
	s := sqliteSession(t)
	customers := clause.NewSet().Set(clause.Source, "customers").Set(clause.Fields, "id", "name")

	require.NoError(t, s.Start(ctx))
	_, err := s.Create(ctx, customers, []any{1, "Ada"})
	require.NoError(t, err)
	require.NoError(t, s.Rollback())

	res, err := s.Read(ctx, clause.NewSet().Set(clause.Source, "customers"))
	require.NoError(t, err)
	assert.Zero(t, res.Len())

	require.NoError(t, s.Start(ctx))
	_, err = s.Create(ctx, customers, []any{2, "Grace"})
	require.NoError(t, err)
	require.NoError(t, s.Commit())

	res, err = s.Read(ctx, clause.NewSet().Set(clause.Source, "customers"))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Len())
}
