// Package field describes the columns of a collection.
//
// A Field carries the column type (or an aggregator tag), per-operation
// visibility, validators, default values and relationships:
//
//	id := field.New("orders", "id").PrimaryKey()
//	customer := field.New("orders", "customer_id").Integer().
//	    ReferencesTo("shop.Customer", "id")
//	name := field.New("customers", "name").From(customer)
//	total := field.New("orders", "id").Count().Alias("total")
//
// A field whose value is pulled through a join (From) can't be created or
// updated. Configuration mistakes such as a second ReferencesTo call are
// recorded on the field and returned by Err; the compiler refuses to render
// a field that carries an error.
package field
