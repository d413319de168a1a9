package privacy

import (
	"context"
	"fmt"
	"slices"

	"github.com/syssam/persistence/clause"
	"github.com/syssam/persistence/filter"
	"github.com/syssam/persistence/schema/field"
)

// Viewer represents the authenticated user making a request.
type Viewer interface {
	// GetID returns the viewer's unique identifier.
	GetID() string
	// GetRoles returns the viewer's roles.
	GetRoles() []string
	// GetTenantID returns the viewer's tenant, or "" without multi-tenancy.
	GetTenantID() string
}

type viewerCtxKey struct{}

// WithViewer returns a new context with the viewer attached.
func WithViewer(ctx context.Context, viewer Viewer) context.Context {
	return context.WithValue(ctx, viewerCtxKey{}, viewer)
}

// ViewerFromContext retrieves the viewer from the context, or nil.
func ViewerFromContext(ctx context.Context) Viewer {
	v, _ := ctx.Value(viewerCtxKey{}).(Viewer)
	return v
}

// SimpleViewer is a basic implementation of the Viewer interface.
type SimpleViewer struct {
	UserID   string
	Roles    []string
	TenantID string
}

// GetID returns the user ID.
func (v *SimpleViewer) GetID() string { return v.UserID }

// GetRoles returns the user's roles.
func (v *SimpleViewer) GetRoles() []string { return v.Roles }

// GetTenantID returns the tenant ID.
func (v *SimpleViewer) GetTenantID() string { return v.TenantID }

// DenyIfNoViewer denies when ctx carries no viewer.
//
//	privacy.Policy{
//	    privacy.DenyIfNoViewer(),
//	    privacy.HasRole("admin"),
//	    privacy.AlwaysDenyRule(),
//	}
func DenyIfNoViewer() Rule {
	return ContextRule(func(ctx context.Context) error {
		if ViewerFromContext(ctx) == nil {
			return Denyf("privacy: viewer required")
		}
		return Skip
	})
}

// HasRole allows when the viewer has role and skips otherwise.
func HasRole(role string) Rule {
	return HasAnyRole(role)
}

// HasAnyRole allows when the viewer has one of roles and skips otherwise.
func HasAnyRole(roles ...string) Rule {
	return ContextRule(func(ctx context.Context) error {
		viewer := ViewerFromContext(ctx)
		if viewer == nil {
			return Skip
		}
		for _, role := range roles {
			if slices.Contains(viewer.GetRoles(), role) {
				return Allow
			}
		}
		return Skip
	})
}

// IsOwner allows a create or update writing the viewer's id to column.
// It skips other operations and writes that leave column out.
func IsOwner(column string) Rule {
	return RuleFunc(func(ctx context.Context, op *Operation) error {
		viewer := ViewerFromContext(ctx)
		if viewer == nil {
			return Skip
		}
		value, ok := op.Value(column)
		if !ok {
			return Skip
		}
		if fmt.Sprint(value) == viewer.GetID() {
			return Allow
		}
		return Skip
	})
}

// TenantRule scopes every operation to the viewer's tenant held in f.
// Writes must carry the viewer's tenant; reads, updates and deletes get a
// leading where filter on f. It denies without a viewer tenant.
func TenantRule(f *field.Field) Rule {
	return RuleFunc(func(ctx context.Context, op *Operation) error {
		viewer := ViewerFromContext(ctx)
		if viewer == nil || viewer.GetTenantID() == "" {
			return Denyf("privacy: tenant required")
		}
		tenant := viewer.GetTenantID()
		if value, ok := op.Value(f.Name()); ok && fmt.Sprint(value) != tenant {
			return Denyf("privacy: tenant mismatch")
		}
		if op.Op == OpCreate {
			return Skip
		}
		// Scope first, ANDed with the caller's where nodes.
		scope := filter.New(f, tenant, filter.WithRule(filter.RuleEqual))
		op.Clauses.Set(clause.Where, append([]any{scope}, clause.Values(op.Clauses.Get(clause.Where))...)...)
		return Skip
	})
}
