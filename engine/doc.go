// Package engine provides the clause accumulator used to build and run
// statements.
//
// An Engine collects named clauses through typed setters and fires them at
// a Session with one of the four operations. Each operation works on a
// snapshot of the clauses and clears them afterwards, so one query's clauses
// never leak into the next; pass Retain to keep them:
//
//	e, err := engine.Connect(ctx, uow, cfg, "default")
//	if err != nil {
//	    return err
//	}
//	total := field.New("orders", "total").Integer()
//	res, err := e.Source("orders").
//	    Fields("id", "total").
//	    Where(e.Filter(total, "greater-than:100")).
//	    Order("total DESC").
//	    Limit(10).
//	    Recover(ctx, nil)
//
// Register inserts, Recover reads, Change updates and Remove deletes. Merge
// appends to a clause that is already set and fails on one that is not.
package engine
