package field

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/go-openapi/inflect"

	"github.com/syssam/persistence"
)

// A Type represents a field type or an aggregator tag.
type Type string

// Supported column types.
const (
	TypeString   Type = "string"
	TypeText     Type = "text"
	TypeDatetime Type = "datetime"
	TypeDate     Type = "date"
	TypeInteger  Type = "integer"
	TypeFloat    Type = "float"
	TypeFile     Type = "file"
	TypeArray    Type = "array"
	TypeBoolean  Type = "boolean"
)

// Aggregator tags. A field carrying one renders as an aggregate function.
const (
	AggregatorCount Type = "count"
	AggregatorSum   Type = "sum"
	AggregatorMax   Type = "max"
	AggregatorMin   Type = "min"
)

// IsAggregator reports whether t is an aggregator tag.
func (t Type) IsAggregator() bool {
	switch t {
	case AggregatorCount, AggregatorSum, AggregatorMax, AggregatorMin:
		return true
	}
	return false
}

// Valid reports whether t is a supported type or aggregator.
func (t Type) Valid() bool {
	switch t {
	case TypeString, TypeText, TypeDatetime, TypeDate, TypeInteger,
		TypeFloat, TypeFile, TypeArray, TypeBoolean:
		return true
	}
	return t.IsAggregator()
}

// Validator is a named validation rule with its options. Validators are
// executed outside this package; a field only describes them.
type Validator struct {
	Name    string
	Options any
}

// Reference describes the single foreign reference a field may declare.
type Reference struct {
	Name       string // Relationship name
	Collection string // Collection of the referencing field
	Referenced string // Column in the target collection
	Class      string // Target entity identifier
	Nullable   bool
	Fusion     bool // Whether reads join the target
}

// Referenced describes a reverse reference to this field.
type Referenced struct {
	Pivot bool
	Name  string
	Class string
}

// ReferenceOption configures ReferencesTo.
type ReferenceOption func(*Reference)

// Nullable marks the reference as optional.
func Nullable() ReferenceOption {
	return func(r *Reference) { r.Nullable = true }
}

// Named overrides the relationship name.
func Named(name string) ReferenceOption {
	return func(r *Reference) { r.Name = name }
}

// WithoutFusion keeps reads from joining the referenced collection.
func WithoutFusion() ReferenceOption {
	return func(r *Reference) { r.Fusion = false }
}

// Field describes one column of a collection.
type Field struct {
	collection string
	name       string
	typ        Type
	label      string
	alias      string
	expression string
	def        any
	primaryKey bool
	readonly   bool
	create     bool
	read       bool
	update     bool
	recover    bool
	validators []Validator
	enum       []string
	references *Reference
	referenced map[string]Referenced
	from       *Field
	calculated func(record map[string]any) any
	mutator    func(value any) any
	err        error
}

// New returns a field of collection with the given name. The type defaults
// to string; an explicit type outside the supported set is recorded as an
// error returned by Err.
func New(collection, name string, typ ...Type) *Field {
	f := &Field{
		collection: collection,
		name:       name,
		typ:        TypeString,
		def:        "",
		create:     true,
		read:       true,
		update:     true,
		recover:    true,
		referenced: make(map[string]Referenced),
	}
	if len(typ) > 0 && typ[0] != "" {
		f.SetType(typ[0])
	}
	return f.Optional()
}

// Collection returns the collection the field belongs to.
func (f *Field) Collection() string { return f.collection }

// Name returns the column name.
func (f *Field) Name() string { return f.name }

// Type returns the field type.
func (f *Field) Type() Type { return f.typ }

// Err returns the configuration errors recorded while building the field.
func (f *Field) Err() error { return f.err }

func (f *Field) fail(err error) *Field {
	f.err = errors.Join(f.err, persistence.NewConfigError(f.collection+"."+f.name, err))
	return f
}

// SetType sets the field type. The default validator follows the type
// unless other validators were configured.
func (f *Field) SetType(t Type) *Field {
	if !t.Valid() {
		return f.fail(fmt.Errorf("%w: %q", persistence.ErrUnsupportedType, t))
	}
	defaulted := len(f.validators) == 0 ||
		len(f.validators) == 1 && f.validators[0].Name == string(f.typ)
	f.typ = t
	if defaulted {
		f.Optional()
	}
	return f
}

// String sets the type to string.
func (f *Field) String() *Field { return f.SetType(TypeString) }

// Text sets the type to text.
func (f *Field) Text() *Field { return f.SetType(TypeText) }

// Datetime sets the type to datetime.
func (f *Field) Datetime() *Field { return f.SetType(TypeDatetime) }

// Date sets the type to date.
func (f *Field) Date() *Field { return f.SetType(TypeDate) }

// Integer sets the type to integer.
func (f *Field) Integer() *Field { return f.SetType(TypeInteger) }

// Float sets the type to float.
func (f *Field) Float() *Field { return f.SetType(TypeFloat) }

// File sets the type to file.
func (f *Field) File() *Field { return f.SetType(TypeFile) }

// Array sets the type to array.
func (f *Field) Array() *Field { return f.SetType(TypeArray) }

// Boolean sets the type to boolean.
func (f *Field) Boolean() *Field { return f.SetType(TypeBoolean) }

// Count makes the field render as COUNT(column).
func (f *Field) Count() *Field { return f.SetType(AggregatorCount) }

// Sum makes the field render as SUM(column).
func (f *Field) Sum() *Field { return f.SetType(AggregatorSum) }

// Max makes the field render as MAX(column).
func (f *Field) Max() *Field { return f.SetType(AggregatorMax) }

// Min makes the field render as MIN(column).
func (f *Field) Min() *Field { return f.SetType(AggregatorMin) }

// Label sets the human readable label.
func (f *Field) Label(label string) *Field {
	f.label = label
	return f
}

// GetLabel returns the label.
func (f *Field) GetLabel() string { return f.label }

// Alias sets the alias used when the field renders as an aggregate.
func (f *Field) Alias(alias string) *Field {
	f.alias = alias
	return f
}

// GetAlias returns the alias.
func (f *Field) GetAlias() string { return f.alias }

// Expression makes the field render as a parenthesized SQL expression
// aliased to the field name.
func (f *Field) Expression(sql string) *Field {
	f.expression = sql
	return f
}

// GetExpression returns the raw expression, if any.
func (f *Field) GetExpression() string { return f.expression }

// Default sets a literal default value.
func (f *Field) Default(v any) *Field {
	f.def = v
	return f
}

// DefaultFunc sets a producer called each time the default is read.
func (f *Field) DefaultFunc(fn func() any) *Field {
	f.def = fn
	return f
}

// Nullable sets the default to nil.
func (f *Field) Nullable() *Field {
	f.def = nil
	return f
}

// DefaultValue returns the default, calling the producer if one was set.
func (f *Field) DefaultValue() any {
	if fn, ok := f.def.(func() any); ok {
		return fn()
	}
	return f.def
}

// Create sets whether the field is written on create. A field pulled
// through a join can't be created.
func (f *Field) Create(v bool) *Field {
	if v && f.from != nil {
		return f.fail(errors.New("field with from link can't be created"))
	}
	f.create = v
	return f
}

// Read sets whether the field is read.
func (f *Field) Read(v bool) *Field {
	f.read = v
	return f
}

// Update sets whether the field is written on update. A field pulled
// through a join can't be updated.
func (f *Field) Update(v bool) *Field {
	if v && f.from != nil {
		return f.fail(errors.New("field with from link can't be updated"))
	}
	f.update = v
	return f
}

// Recover sets whether the field is returned when recovering records.
func (f *Field) Recover(v bool) *Field {
	f.recover = v
	return f
}

// IsCreate reports whether the field is written on create.
func (f *Field) IsCreate() bool { return f.create }

// IsRead reports whether the field is read.
func (f *Field) IsRead() bool { return f.read }

// IsUpdate reports whether the field is written on update.
func (f *Field) IsUpdate() bool { return f.update }

// IsRecover reports whether the field is returned when recovering records.
func (f *Field) IsRecover() bool { return f.recover }

// PrimaryKey marks the field as an integer primary key.
func (f *Field) PrimaryKey() *Field {
	f.primaryKey = true
	return f.Integer().Create(false).Update(false)
}

// IsPrimaryKey reports whether the field is the primary key.
func (f *Field) IsPrimaryKey() bool { return f.primaryKey }

// HashKey marks the field as a unique, immutable string key.
func (f *Field) HashKey() *Field {
	return f.String().Optional("unique").Update(false)
}

// Readonly hides the field from every write and from reads.
func (f *Field) Readonly() *Field {
	f.readonly = true
	return f.Create(false).Read(false).Update(false)
}

// IsReadonly reports whether the field is read-only.
func (f *Field) IsReadonly() bool { return f.readonly }

// Validator adds a validation rule. With clear, previous rules are dropped.
// Adding a rule with an existing name replaces its options.
func (f *Field) Validator(name string, options any, clear bool) *Field {
	if clear {
		f.validators = nil
	}
	for i := range f.validators {
		if f.validators[i].Name == name {
			f.validators[i].Options = options
			return f
		}
	}
	f.validators = append(f.validators, Validator{Name: name, Options: options})
	return f
}

// Required replaces the validators with a required rule for the field type,
// followed by the given optional rules.
func (f *Field) Required(rules ...string) *Field {
	f.Validator("required", []string{"required", string(f.typ)}, true)
	for _, r := range rules {
		f.Validator(r, map[string]any{"optional": true}, false)
	}
	return f
}

// Optional replaces the validators with an optional rule for the field
// type, followed by the given optional rules.
func (f *Field) Optional(rules ...string) *Field {
	f.Validator(string(f.typ), map[string]any{"optional": true}, true)
	for _, r := range rules {
		f.Validator(r, map[string]any{"optional": true}, false)
	}
	return f
}

// Reject replaces every validator with a reject rule.
func (f *Field) Reject() *Field {
	f.validators = []Validator{{Name: "reject", Options: ""}}
	f.enum = nil
	return f
}

// Validators returns the configured validators in declaration order.
func (f *Field) Validators() []Validator { return f.validators }

// Enum restricts the field to the given items.
func (f *Field) Enum(items ...string) *Field {
	f.enum = items
	return f
}

// GetEnum returns the allowed items.
func (f *Field) GetEnum() []string { return f.enum }

// From links the field to another field whose value is pulled through a
// join. The field becomes read-only for create and update.
func (f *Field) From(ref *Field) *Field {
	f.from = ref
	f.create, f.read, f.update = false, true, false
	return f
}

// HasFrom reports whether the field is pulled through a join.
func (f *Field) HasFrom() bool { return f.from != nil }

// Origin returns the field linked with From.
func (f *Field) Origin() *Field { return f.from }

// ReferencesTo declares the foreign reference of the field. A field may
// declare it once; a second call records a configuration error.
func (f *Field) ReferencesTo(class, referenced string, opts ...ReferenceOption) *Field {
	if f.references != nil {
		return f.fail(fmt.Errorf("%w to %q", persistence.ErrReferenceDefined, f.references.Class))
	}
	r := &Reference{
		Collection: f.collection,
		Referenced: referenced,
		Class:      class,
		Fusion:     true,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.Name == "" {
		r.Name = shortName(class)
	}
	if r.Nullable {
		f.def = nil
	}
	f.references = r
	return f
}

// References returns the foreign reference, or nil.
func (f *Field) References() *Reference { return f.references }

// ReferencedBy declares a reverse reference from target. An explicit name
// marks the reference as going through a pivot.
func (f *Field) ReferencedBy(class, target, name string) *Field {
	pivot := name != ""
	if name == "" {
		name = shortName(class)
	}
	f.referenced[target] = Referenced{Pivot: pivot, Name: name, Class: class}
	return f
}

// GetReferenced returns the reverse references keyed by target collection.
func (f *Field) GetReferenced() map[string]Referenced { return f.referenced }

// Calculated sets the function computing the value from a record.
func (f *Field) Calculated(fn func(record map[string]any) any) *Field {
	f.calculated = fn
	return f
}

// IsCalculated reports whether the field is computed.
func (f *Field) IsCalculated() bool { return f.calculated != nil }

// Calculate computes the field value for record. It returns nil for
// fields that are not computed.
func (f *Field) Calculate(record map[string]any) any {
	if f.calculated == nil {
		return nil
	}
	return f.calculated(record)
}

// Mutator sets the function applied to values before they are written.
func (f *Field) Mutator(fn func(value any) any) *Field {
	f.mutator = fn
	return f
}

// IsMutable reports whether the field has a mutator.
func (f *Field) IsMutable() bool { return f.mutator != nil }

// Mutate applies the mutator, or returns v unchanged.
func (f *Field) Mutate(v any) any {
	if f.mutator == nil {
		return v
	}
	return f.mutator(v)
}

// shortName returns the relationship name derived from an entity identifier
// such as "app/model.Customer" or "App\\Model\\Customer".
func shortName(class string) string {
	class = strings.ReplaceAll(class, `\`, "/")
	class = path.Base(class)
	if i := strings.LastIndexByte(class, '.'); i >= 0 {
		class = class[i+1:]
	}
	return inflect.Underscore(class)
}
