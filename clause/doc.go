// Package clause defines the clause vocabulary used to describe a statement
// and the Set that accumulates clause values.
//
// The fields clause takes Column specs. Strings and *field.Field values are
// accepted as shorthands for Plain and FieldRef.
package clause
