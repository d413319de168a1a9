// Package edge describes joins between collections.
//
// A Fusion joins a referenced collection to the statement's source
// collection on a pair of columns:
//
//	// orders.customer_id -> customers.id
//	edge.Join("customers", "id", "orders", "customer_id")
//
// Joins are LEFT by default; Exclusive makes them INNER. By default the
// joined collection is aliased with a name derived from the referencing
// column (__CUSTOMER_ID__), so the same collection can be joined more than
// once. Bare keeps the collection name instead.
package edge
