// Package sqlgraph classifies constraint violations reported by the mysql,
// postgres and sqlite drivers.
package sqlgraph
