package privacy_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/persistence/clause"
	"github.com/syssam/persistence/filter"
	"github.com/syssam/persistence/privacy"
	"github.com/syssam/persistence/schema/field"
)

func TestViewerContext(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, privacy.ViewerFromContext(ctx))

	viewer := &privacy.SimpleViewer{UserID: "u1", Roles: []string{"admin"}, TenantID: "acme"}
	got := privacy.ViewerFromContext(privacy.WithViewer(ctx, viewer))
	require.NotNil(t, got)
	assert.Equal(t, "u1", got.GetID())
	assert.Equal(t, []string{"admin"}, got.GetRoles())
	assert.Equal(t, "acme", got.GetTenantID())
}

func TestDenyIfNoViewer(t *testing.T) {
	rule := privacy.DenyIfNoViewer()
	assert.ErrorIs(t, rule.Eval(context.Background(), operation(privacy.OpRead)), privacy.Deny)

	ctx := privacy.WithViewer(context.Background(), &privacy.SimpleViewer{UserID: "u1"})
	assert.ErrorIs(t, rule.Eval(ctx, operation(privacy.OpRead)), privacy.Skip)
}

func TestHasRole(t *testing.T) {
	admin := privacy.WithViewer(context.Background(), &privacy.SimpleViewer{Roles: []string{"admin"}})
	guest := privacy.WithViewer(context.Background(), &privacy.SimpleViewer{Roles: []string{"guest"}})

	tests := []struct {
		name string
		rule privacy.Rule
		ctx  context.Context
		want error
	}{
		{"has_role", privacy.HasRole("admin"), admin, privacy.Allow},
		{"missing_role", privacy.HasRole("admin"), guest, privacy.Skip},
		{"no_viewer", privacy.HasRole("admin"), context.Background(), privacy.Skip},
		{"any_role", privacy.HasAnyRole("moderator", "guest"), guest, privacy.Allow},
		{"no_role", privacy.HasAnyRole("moderator"), admin, privacy.Skip},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.rule.Eval(tt.ctx, operation(privacy.OpUpdate)), tt.want)
		})
	}
}

func TestIsOwner(t *testing.T) {
	ctx := privacy.WithViewer(context.Background(), &privacy.SimpleViewer{UserID: "7"})
	rule := privacy.IsOwner("owner_id")

	op := operation(privacy.OpUpdate, 7)
	op.Clauses.Set(clause.Fields, "owner_id")
	assert.ErrorIs(t, rule.Eval(ctx, op), privacy.Allow)

	op.Values = []any{8}
	assert.ErrorIs(t, rule.Eval(ctx, op), privacy.Skip)

	assert.ErrorIs(t, rule.Eval(ctx, operation(privacy.OpRead)), privacy.Skip)
	assert.ErrorIs(t, rule.Eval(context.Background(), op), privacy.Skip)
}

func TestTenantRule(t *testing.T) {
	tenant := field.New("orders", "tenant_id")
	rule := privacy.TenantRule(tenant)
	ctx := privacy.WithViewer(context.Background(), &privacy.SimpleViewer{UserID: "u1", TenantID: "acme"})

	t.Run("no_tenant", func(t *testing.T) {
		noTenant := privacy.WithViewer(context.Background(), &privacy.SimpleViewer{UserID: "u1"})
		assert.ErrorIs(t, rule.Eval(noTenant, operation(privacy.OpRead)), privacy.Deny)
		assert.ErrorIs(t, rule.Eval(context.Background(), operation(privacy.OpRead)), privacy.Deny)
	})

	t.Run("create", func(t *testing.T) {
		op := operation(privacy.OpCreate, "acme", 10)
		op.Clauses.Set(clause.Fields, "tenant_id", "total")
		assert.ErrorIs(t, rule.Eval(ctx, op), privacy.Skip)
		assert.False(t, op.Clauses.Has(clause.Where))

		op.Values = []any{"globex", 10}
		assert.ErrorIs(t, rule.Eval(ctx, op), privacy.Deny)
	})

	t.Run("read_scope", func(t *testing.T) {
		op := operation(privacy.OpRead)
		assert.ErrorIs(t, rule.Eval(ctx, op), privacy.Skip)
		scope, ok := op.Clauses.Get(clause.Where).(*filter.Filter)
		require.True(t, ok)
		assert.Equal(t, "tenant_id", scope.Name())
		assert.Equal(t, filter.RuleEqual, scope.Rule)
		assert.Equal(t, "acme", scope.Value)
	})

	t.Run("destroy_prepends", func(t *testing.T) {
		op := operation(privacy.OpDestroy)
		op.Clauses.Set(clause.Where, "status = ?", "total > ?")
		assert.ErrorIs(t, rule.Eval(ctx, op), privacy.Skip)
		where := clause.Values(op.Clauses.Get(clause.Where))
		require.Len(t, where, 3)
		assert.IsType(t, &filter.Filter{}, where[0])
		assert.Equal(t, []any{"status = ?", "total > ?"}, where[1:])
	})
}

func TestIntegratedPolicyChain(t *testing.T) {
	policy := privacy.Policy{
		privacy.DenyIfNoViewer(),
		privacy.HasRole("admin"),
		privacy.OnOperation(privacy.IsOwner("owner_id"), privacy.OpUpdate),
		privacy.AllowOperationRule(privacy.OpRead),
		privacy.AlwaysDenyRule(),
	}
	update := func() *privacy.Operation {
		op := operation(privacy.OpUpdate, "u1")
		op.Clauses.Set(clause.Fields, "owner_id")
		return op
	}

	admin := privacy.WithViewer(context.Background(), &privacy.SimpleViewer{UserID: "root", Roles: []string{"admin"}})
	owner := privacy.WithViewer(context.Background(), &privacy.SimpleViewer{UserID: "u1"})
	other := privacy.WithViewer(context.Background(), &privacy.SimpleViewer{UserID: "u2"})

	assert.ErrorIs(t, policy.Eval(context.Background(), operation(privacy.OpRead)), privacy.Deny)
	assert.NoError(t, policy.Eval(admin, operation(privacy.OpDestroy)))
	assert.NoError(t, policy.Eval(owner, update()))
	assert.ErrorIs(t, policy.Eval(other, update()), privacy.Deny)
	assert.NoError(t, policy.Eval(other, operation(privacy.OpRead)))
	assert.ErrorIs(t, policy.Eval(other, operation(privacy.OpCreate)), privacy.Deny)
}
