// Package filter provides predicates for where and having clauses and the
// per-dialect rule tables that render them.
//
// A Filter is built from a field and a value. Without an explicit rule the
// value is read as inline syntax:
//
//	filter.New(price, "between:10,20")  // rule "between", value "10,20"
//	filter.New(name, "!like:%x%")       // rule "like", negated
//	filter.New(id, 10)                  // rule "equal"
//
// Filters nest with And, Or and Generate. Each dialect has an immutable
// Table of rules; For builds it and Default holds the tables of every
// supported dialect.
package filter
