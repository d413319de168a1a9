// Package transaction coordinates the transactions of every connection
// opened during a unit of work.
//
// Commit is sequential and best effort: it is not atomic across
// connections and gives no guarantee across processes.
package transaction
