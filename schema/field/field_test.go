package field_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/persistence"
	"github.com/syssam/persistence/schema/field"
)

func TestNew(t *testing.T) {
	f := field.New("orders", "status")
	assert.Equal(t, "orders", f.Collection())
	assert.Equal(t, "status", f.Name())
	assert.Equal(t, field.TypeString, f.Type())
	assert.Equal(t, "", f.DefaultValue())
	assert.True(t, f.IsCreate())
	assert.True(t, f.IsRead())
	assert.True(t, f.IsUpdate())
	assert.True(t, f.IsRecover())
	assert.Equal(t, []field.Validator{{Name: "string", Options: map[string]any{"optional": true}}}, f.Validators())
	assert.NoError(t, f.Err())

	f = field.New("orders", "total", field.TypeInteger)
	assert.Equal(t, field.TypeInteger, f.Type())
	assert.Equal(t, "integer", f.Validators()[0].Name)
}

func TestTypes(t *testing.T) {
	tests := []struct {
		name  string
		build func(*field.Field) *field.Field
		want  field.Type
	}{
		{"text", (*field.Field).Text, field.TypeText},
		{"datetime", (*field.Field).Datetime, field.TypeDatetime},
		{"date", (*field.Field).Date, field.TypeDate},
		{"integer", (*field.Field).Integer, field.TypeInteger},
		{"float", (*field.Field).Float, field.TypeFloat},
		{"file", (*field.Field).File, field.TypeFile},
		{"array", (*field.Field).Array, field.TypeArray},
		{"boolean", (*field.Field).Boolean, field.TypeBoolean},
		{"count", (*field.Field).Count, field.AggregatorCount},
		{"sum", (*field.Field).Sum, field.AggregatorSum},
		{"max", (*field.Field).Max, field.AggregatorMax},
		{"min", (*field.Field).Min, field.AggregatorMin},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := tt.build(field.New("orders", "value"))
			assert.Equal(t, tt.want, f.Type())
			assert.Equal(t, string(tt.want), f.Validators()[0].Name)
			assert.Equal(t, tt.want.IsAggregator(), f.Type().IsAggregator())
		})
	}

	assert.True(t, field.AggregatorSum.IsAggregator())
	assert.False(t, field.TypeFloat.IsAggregator())
}

func TestUnsupportedType(t *testing.T) {
	f := field.New("orders", "payload", "json")
	assert.Equal(t, field.TypeString, f.Type())
	err := f.Err()
	require.ErrorIs(t, err, persistence.ErrUnsupportedType)
	assert.True(t, persistence.IsConfigError(err))
	assert.Contains(t, err.Error(), "orders.payload")
}

func TestValidators(t *testing.T) {
	f := field.New("customers", "email").Required("email", "unique")
	assert.Equal(t, []field.Validator{
		{Name: "required", Options: []string{"required", "string"}},
		{Name: "email", Options: map[string]any{"optional": true}},
		{Name: "unique", Options: map[string]any{"optional": true}},
	}, f.Validators())

	// A configured validator set survives a type change.
	f.Text()
	assert.Equal(t, "required", f.Validators()[0].Name)

	f.Validator("email", "strict", false)
	assert.Len(t, f.Validators(), 3)
	assert.Equal(t, "strict", f.Validators()[1].Options)

	f.Enum("a", "b").Reject()
	assert.Equal(t, []field.Validator{{Name: "reject", Options: ""}}, f.Validators())
	assert.Nil(t, f.GetEnum())

	assert.Equal(t, []string{"open", "closed"}, field.New("orders", "status").Enum("open", "closed").GetEnum())
}

func TestKeys(t *testing.T) {
	id := field.New("orders", "id").PrimaryKey()
	assert.True(t, id.IsPrimaryKey())
	assert.Equal(t, field.TypeInteger, id.Type())
	assert.False(t, id.IsCreate())
	assert.False(t, id.IsUpdate())
	assert.True(t, id.IsRead())

	hash := field.New("orders", "code").HashKey()
	assert.Equal(t, field.TypeString, hash.Type())
	assert.Equal(t, "unique", hash.Validators()[1].Name)
	assert.True(t, hash.IsCreate())
	assert.False(t, hash.IsUpdate())

	ro := field.New("orders", "secret").Readonly()
	assert.True(t, ro.IsReadonly())
	assert.False(t, ro.IsCreate())
	assert.False(t, ro.IsRead())
	assert.False(t, ro.IsUpdate())
	assert.True(t, ro.IsRecover())
	assert.False(t, ro.Recover(false).IsRecover())
}

func TestDefaults(t *testing.T) {
	assert.Equal(t, 10, field.New("orders", "total").Default(10).DefaultValue())
	assert.Nil(t, field.New("orders", "note").Nullable().DefaultValue())

	var calls int
	f := field.New("orders", "seq").DefaultFunc(func() any {
		calls++
		return calls
	})
	assert.Equal(t, 1, f.DefaultValue())
	assert.Equal(t, 2, f.DefaultValue())
}

func TestFrom(t *testing.T) {
	customer := field.New("orders", "customer_id").Integer()
	name := field.New("customers", "name").From(customer)
	assert.True(t, name.HasFrom())
	assert.Same(t, customer, name.Origin())
	assert.False(t, name.IsCreate())
	assert.False(t, name.IsUpdate())
	assert.True(t, name.IsRead())

	name.Create(false).Update(false)
	assert.NoError(t, name.Err())

	name.Create(true)
	name.Update(true)
	assert.False(t, name.IsCreate())
	assert.False(t, name.IsUpdate())
	err := name.Err()
	require.Error(t, err)
	assert.True(t, persistence.IsConfigError(err))
	assert.Contains(t, err.Error(), "can't be created")
	assert.Contains(t, err.Error(), "can't be updated")
}

func TestReferencesTo(t *testing.T) {
	f := field.New("orders", "customer_id").Integer().ReferencesTo("shop.Customer", "id")
	ref := f.References()
	require.NotNil(t, ref)
	assert.Equal(t, field.Reference{
		Name:       "customer",
		Collection: "orders",
		Referenced: "id",
		Class:      "shop.Customer",
		Fusion:     true,
	}, *ref)
	assert.Equal(t, "", f.DefaultValue())

	f = field.New("orders", "item_id").
		ReferencesTo(`App\Model\OrderItem`, "id", field.Nullable(), field.WithoutFusion())
	assert.Equal(t, "order_item", f.References().Name)
	assert.True(t, f.References().Nullable)
	assert.False(t, f.References().Fusion)
	assert.Nil(t, f.DefaultValue())

	f = field.New("orders", "owner_id").ReferencesTo("users.User", "id", field.Named("owner"))
	assert.Equal(t, "owner", f.References().Name)

	f.ReferencesTo("users.Admin", "id")
	assert.Equal(t, "users.User", f.References().Class)
	err := f.Err()
	require.ErrorIs(t, err, persistence.ErrReferenceDefined)
	assert.True(t, persistence.IsConfigError(err))
}

func TestReferencedBy(t *testing.T) {
	f := field.New("customers", "id").
		ReferencedBy("shop.Order", "orders", "").
		ReferencedBy("shop.Tag", "customer_tags", "tags")
	assert.Equal(t, map[string]field.Referenced{
		"orders":        {Pivot: false, Name: "order", Class: "shop.Order"},
		"customer_tags": {Pivot: true, Name: "tags", Class: "shop.Tag"},
	}, f.GetReferenced())
}

func TestCalculatedAndMutator(t *testing.T) {
	f := field.New("orders", "gross")
	assert.False(t, f.IsCalculated())
	assert.Nil(t, f.Calculate(map[string]any{"net": 10}))
	assert.False(t, f.IsMutable())
	assert.Equal(t, "x", f.Mutate("x"))

	f.Calculated(func(record map[string]any) any {
		return record["net"].(int) * 2
	}).Mutator(func(v any) any {
		return v.(int) + 1
	})
	assert.True(t, f.IsCalculated())
	assert.Equal(t, 20, f.Calculate(map[string]any{"net": 10}))
	assert.True(t, f.IsMutable())
	assert.Equal(t, 5, f.Mutate(4))
}

func TestPresentation(t *testing.T) {
	f := field.New("orders", "id").Count().Alias("total").Label("Orders")
	assert.Equal(t, "total", f.GetAlias())
	assert.Equal(t, "Orders", f.GetLabel())
	assert.Equal(t, "", f.GetExpression())

	f = field.New("orders", "gross").Expression("total * 1.2")
	assert.Equal(t, "total * 1.2", f.GetExpression())
}
