package edge

import (
	"errors"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var upper = cases.Upper(language.Und)

// Alias returns the join alias derived from a referencing column name.
func Alias(column string) string {
	return "__" + upper.String(column) + "__"
}

// Fusion describes one join.
type Fusion struct {
	collection string // joined collection
	referenced string // column of the joined collection
	source     string // collection holding the reference
	references string // referencing column of source
	exclusive  bool
	rename     bool
}

// Join returns a LEFT join of collection on source.references = collection.referenced,
// aliased with a derived name.
func Join(collection, referenced, source, references string) *Fusion {
	return &Fusion{
		collection: collection,
		referenced: referenced,
		source:     source,
		references: references,
		rename:     true,
	}
}

// Exclusive makes the join an INNER join.
func (f *Fusion) Exclusive() *Fusion {
	f.exclusive = true
	return f
}

// Bare keeps the bare collection name as the join alias.
func (f *Fusion) Bare() *Fusion {
	f.rename = false
	return f
}

// Collection returns the joined collection.
func (f *Fusion) Collection() string { return f.collection }

// Referenced returns the joined column.
func (f *Fusion) Referenced() string { return f.referenced }

// Source returns the collection holding the reference.
func (f *Fusion) Source() string { return f.source }

// References returns the referencing column.
func (f *Fusion) References() string { return f.references }

// IsExclusive reports whether the join is INNER.
func (f *Fusion) IsExclusive() bool { return f.exclusive }

// IsRename reports whether the join gets a derived alias.
func (f *Fusion) IsRename() bool { return f.rename }

// Kind returns "INNER" or "LEFT".
func (f *Fusion) Kind() string {
	if f.exclusive {
		return "INNER"
	}
	return "LEFT"
}

// As returns the alias of the joined collection.
func (f *Fusion) As() string {
	if f.rename {
		return Alias(f.references)
	}
	return f.collection
}

// Validate reports a missing collection or column name.
func (f *Fusion) Validate() error {
	switch {
	case f.collection == "" || f.source == "":
		return errors.New("edge: join without collection")
	case f.referenced == "" || f.references == "":
		return errors.New("edge: join without column")
	}
	return nil
}
