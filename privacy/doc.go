// Package privacy holds the authorization rules an engine evaluates before
// an operation is compiled.
//
// A Policy is an ordered list of rules. Each rule sees the operation kind,
// the clause snapshot and the values, and returns a decision:
//
//   - Allow: the operation runs, remaining rules are not evaluated
//   - Deny: the operation is rejected, no statement is sent
//   - Skip (or nil): the next rule decides
//
// When every rule skips, the operation is allowed. A decision attached to
// the context with DecisionContext overrides the rules, which is handy for
// system tasks:
//
//	ctx = privacy.DecisionContext(ctx, privacy.Allow)
//
// # Rules
//
// Rules may rewrite the clause snapshot. TenantRule adds a tenant filter to
// reads, updates and deletes, and rejects writes for another tenant:
//
//	tenant := field.New("orders", "tenant_id")
//	e := engine.New(session, engine.WithPolicy(privacy.Policy{
//	    privacy.DenyIfNoViewer(),
//	    privacy.DenyOperationRule(privacy.OpDestroy),
//	    privacy.TenantRule(tenant),
//	}))
//	ctx = privacy.WithViewer(ctx, &privacy.SimpleViewer{UserID: "u1", TenantID: "acme"})
//
// The viewer is read from the context; SimpleViewer is a ready-made
// implementation of Viewer.
package privacy
