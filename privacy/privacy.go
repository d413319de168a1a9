package privacy

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/syssam/persistence/clause"
)

// Policy decision sentinel errors. Rules return them, possibly wrapped, to
// steer the evaluation:
//
//	if errors.Is(err, privacy.Deny) { ... }
var (
	// Allow ends the evaluation and lets the operation run.
	Allow = errors.New("persistence/privacy: allow rule")

	// Deny ends the evaluation and rejects the operation.
	Deny = errors.New("persistence/privacy: deny rule")

	// Skip passes the decision to the next rule.
	Skip = errors.New("persistence/privacy: skip rule")
)

// Allowf returns a formatted wrapped Allow decision.
func Allowf(format string, a ...any) error {
	return fmt.Errorf(format+": %w", append(a, Allow)...)
}

// Denyf returns a formatted wrapped Deny decision.
func Denyf(format string, a ...any) error {
	return fmt.Errorf(format+": %w", append(a, Deny)...)
}

// Skipf returns a formatted wrapped Skip decision.
func Skipf(format string, a ...any) error {
	return fmt.Errorf(format+": %w", append(a, Skip)...)
}

// Op is the persistence operation a rule is evaluated for.
type Op string

// Engine operations.
const (
	OpCreate  Op = "create"
	OpRead    Op = "read"
	OpUpdate  Op = "update"
	OpDestroy Op = "destroy"
)

// Is reports whether o is one of ops.
func (o Op) Is(ops ...Op) bool { return slices.Contains(ops, o) }

// Operation is what a rule sees: the operation, the clause snapshot about
// to be compiled and the values bound by the caller. Rules may add clauses
// to Clauses, for example a where filter.
type Operation struct {
	Op      Op
	Clauses *clause.Set
	Values  []any
}

// Value returns the value written to column by a create or update, looked
// up by position in the fields clause.
func (o *Operation) Value(column string) (any, bool) {
	if o.Op != OpCreate && o.Op != OpUpdate {
		return nil, false
	}
	for i, v := range clause.Values(o.Clauses.Get(clause.Fields)) {
		col, ok := clause.ToColumn(v)
		if !ok || columnName(col) != column || i >= len(o.Values) {
			continue
		}
		return o.Values[i], true
	}
	return nil, false
}

func columnName(c clause.Column) string {
	switch c := c.(type) {
	case clause.Plain:
		return c.Name
	case clause.Qualified:
		return c.Name
	case clause.FieldRef:
		if c.Field != nil {
			return c.Field.Name()
		}
	}
	return ""
}

// Rule decides whether an operation may run.
type Rule interface {
	Eval(context.Context, *Operation) error
}

// RuleFunc is an adapter which allows the use of ordinary functions as rules.
type RuleFunc func(context.Context, *Operation) error

// Eval returns f(ctx, op).
func (f RuleFunc) Eval(ctx context.Context, op *Operation) error {
	return f(ctx, op)
}

// AlwaysAllowRule returns a rule that always allows.
func AlwaysAllowRule() Rule { return fixedDecision{Allow} }

// AlwaysDenyRule returns a rule that always denies.
func AlwaysDenyRule() Rule { return fixedDecision{Deny} }

// ContextRule creates a rule from a context evaluation function. Returning
// nil is equivalent to returning Skip.
func ContextRule(eval func(context.Context) error) Rule {
	return RuleFunc(func(ctx context.Context, _ *Operation) error { return eval(ctx) })
}

// OnOperation evaluates rule only for the given operations.
func OnOperation(rule Rule, ops ...Op) Rule {
	return RuleFunc(func(ctx context.Context, op *Operation) error {
		if op.Op.Is(ops...) {
			return rule.Eval(ctx, op)
		}
		return Skip
	})
}

// DenyOperationRule returns a rule denying the given operations.
func DenyOperationRule(ops ...Op) Rule {
	return OnOperation(RuleFunc(func(_ context.Context, op *Operation) error {
		return Denyf("persistence/privacy: operation %s is not allowed", op.Op)
	}), ops...)
}

// AllowOperationRule returns a rule allowing the given operations.
func AllowOperationRule(ops ...Op) Rule {
	return OnOperation(fixedDecision{Allow}, ops...)
}

// Policy is an ordered list of rules. The first rule returning anything
// other than nil or Skip decides; Allow becomes nil. When every rule skips
// the operation is allowed.
type Policy []Rule

// Eval evaluates the policy. A decision attached to ctx with DecisionContext
// takes precedence over the rules.
func (p Policy) Eval(ctx context.Context, op *Operation) error {
	if decision, ok := DecisionFromContext(ctx); ok {
		return decision
	}
	for _, rule := range p {
		switch decision := rule.Eval(ctx, op); {
		case decision == nil || errors.Is(decision, Skip):
		case errors.Is(decision, Allow):
			return nil
		default:
			return decision
		}
	}
	return nil
}

type decisionCtxKey struct{}

// DecisionContext creates a new context from the given parent context with
// a policy decision attached to it.
func DecisionContext(parent context.Context, decision error) context.Context {
	if decision == nil || errors.Is(decision, Skip) {
		return parent
	}
	return context.WithValue(parent, decisionCtxKey{}, decision)
}

// DecisionFromContext retrieves the policy decision from the context.
func DecisionFromContext(ctx context.Context) (error, bool) {
	decision, ok := ctx.Value(decisionCtxKey{}).(error)
	if ok && errors.Is(decision, Allow) {
		decision = nil
	}
	return decision, ok
}

type fixedDecision struct {
	decision error
}

func (f fixedDecision) Eval(context.Context, *Operation) error {
	return f.decision
}
