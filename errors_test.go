package persistence_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/persistence"
)

func TestConfigError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := persistence.NewConfigError("where", persistence.ErrUndefinedClause)
		assert.Equal(t, `persistence: configuration "where": persistence: clause not defined`, err.Error())

		err = persistence.NewConfigError("", errors.New("bad"))
		assert.Equal(t, "persistence: configuration: bad", err.Error())
	})

	t.Run("Is", func(t *testing.T) {
		err := persistence.NewConfigError("drv", persistence.ErrNoDriver)
		assert.True(t, errors.Is(err, persistence.ErrNoDriver))
	})

	t.Run("IsConfigError", func(t *testing.T) {
		err := persistence.NewConfigError("drv", persistence.ErrNoDriver)
		assert.True(t, persistence.IsConfigError(err))

		// Wrapped error
		wrapped := fmt.Errorf("wrapper: %w", err)
		assert.True(t, persistence.IsConfigError(wrapped))

		assert.False(t, persistence.IsConfigError(errors.New("other error")))
		assert.False(t, persistence.IsConfigError(nil))
	})
}

func TestCompileError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := persistence.NewCompileError("source", persistence.ErrMissingClause)
		assert.Equal(t, "persistence: compile source: persistence: missing clause", err.Error())
	})

	t.Run("IsCompileError", func(t *testing.T) {
		err := persistence.NewCompileError("where", persistence.ErrUnknownRule)
		assert.True(t, persistence.IsCompileError(err))
		assert.True(t, errors.Is(err, persistence.ErrUnknownRule))
		assert.False(t, persistence.IsCompileError(persistence.ErrUnknownRule))
		assert.False(t, persistence.IsCompileError(nil))
	})
}

func TestPersistenceError(t *testing.T) {
	underlying := errors.New("foreign key constraint fails")

	t.Run("Error", func(t *testing.T) {
		err := persistence.NewPersistenceError("create", "INSERT INTO t (a) VALUES (?)", []any{1}, underlying)
		assert.Equal(t, `persistence: create: "INSERT INTO t (a) VALUES (?)" [1]: foreign key constraint fails`, err.Error())

		err.Details = map[string][]string{"a": {persistence.Relationship}}
		assert.Contains(t, err.Error(), "map[a:[relationship]]")
	})

	t.Run("Unwrap", func(t *testing.T) {
		err := persistence.NewPersistenceError("run", "DELETE FROM t", nil, underlying)
		assert.True(t, errors.Is(err, underlying))
		assert.True(t, persistence.IsPersistenceError(fmt.Errorf("wrapper: %w", err)))
		assert.False(t, persistence.IsPersistenceError(underlying))
		assert.False(t, persistence.IsPersistenceError(nil))
	})

	t.Run("RelationshipField", func(t *testing.T) {
		err := persistence.NewPersistenceError("update", "UPDATE t SET a = ?", []any{9}, underlying)
		_, ok := persistence.RelationshipField(err)
		assert.False(t, ok)

		err.Details = map[string][]string{"customer_id": {persistence.Relationship}}
		column, ok := persistence.RelationshipField(fmt.Errorf("wrapper: %w", err))
		require.True(t, ok)
		assert.Equal(t, "customer_id", column)

		_, ok = persistence.RelationshipField(underlying)
		assert.False(t, ok)
	})
}

func TestDataError(t *testing.T) {
	underlying := errors.New("LastInsertId is not supported")
	err := persistence.NewDataError("create", "INSERT INTO t (a) VALUES (?)", []any{"x"}, underlying)
	assert.Equal(t, `persistence: create: invalid outcome for "INSERT INTO t (a) VALUES (?)" [x]: LastInsertId is not supported`, err.Error())
	assert.True(t, errors.Is(err, underlying))
	assert.True(t, persistence.IsDataError(err))
	assert.False(t, persistence.IsDataError(underlying))
	assert.False(t, persistence.IsDataError(nil))
}

func TestRollbackError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := &persistence.RollbackError{Key: "mysql", Err: errors.New("connection lost")}
		assert.Equal(t, "persistence: rollback mysql failed: connection lost", err.Error())
	})

	t.Run("Unwrap", func(t *testing.T) {
		underlying := errors.New("timeout")
		err := &persistence.RollbackError{Key: "sqlite", Err: underlying}
		assert.True(t, errors.Is(err, underlying))
	})
}

func TestAggregateError(t *testing.T) {
	t.Run("NoErrors", func(t *testing.T) {
		assert.Nil(t, persistence.NewAggregateError())
		assert.Nil(t, persistence.NewAggregateError(nil, nil))
	})

	t.Run("SingleError", func(t *testing.T) {
		single := errors.New("only")
		err := persistence.NewAggregateError(nil, single)
		assert.Equal(t, single, err)
	})

	t.Run("MultipleErrors", func(t *testing.T) {
		first := errors.New("first")
		second := &persistence.RollbackError{Key: "b", Err: errors.New("second")}
		err := persistence.NewAggregateError(first, nil, second)
		require.Error(t, err)
		assert.Equal(t, "persistence: multiple errors:\n  [1] first\n  [2] persistence: rollback b failed: second", err.Error())
		assert.True(t, errors.Is(err, first))

		var rb *persistence.RollbackError
		require.True(t, errors.As(err, &rb))
		assert.Equal(t, "b", rb.Key)
	})
}
