// Package beans maps between JSON documents and Go values without a
// schema. Structs are described by a catalog of named properties derived
// from their exported fields, accessor methods and explicit
// registrations. When the declared type of a slot does not determine the
// concrete type of the value, the object carries a leading "@class" key
// naming it.
//
// # Usage
//
//	type Phone interface{ Digits() string }
//
//	type PhoneNumber struct {
//	    Name   string
//	    Number string
//	}
//
//	type SpecialNumber struct{ PhoneNumber }
//
//	type Person struct {
//	    Name    string
//	    Age     int
//	    Numbers []Phone
//	}
//
//	m, err := beans.NewMapper(
//	    beans.WithTypes(beans.Type[Phone](beans.Default[PhoneNumber]())),
//	    beans.Alias[SpecialNumber]("SpecialNumber"),
//	)
//	data, err := m.Marshal(person)
//	// {"age":42,"name":"Tom","numbers":[{"name":"Mobile","number":"123"},
//	//  {"@class":"SpecialNumber","name":"Emergency","number":"911"}]}
//
// Marshal, Unmarshal and the other package level functions use the
// mapper returned by DefaultMapper.
//
// # Properties
//
// Properties are named after exported fields with the first letter
// lowered ("Name" is "name", "URL" stays "URL") and are written in
// ascending name order. The struct tag key "bean" renames, omits or marks
// a field transient:
//
//	FullName string `bean:"field=name"`
//	Secret   string `bean:"-"`
//	Cache    []byte `bean:"transient"`
//
// Method pairs X/SetX on the pointer type add properties. Types built
// through constructor functions declare them with Constructor; getter only
// properties are declared with Accessor.
//
// # Values that are not beans
//
// Scalars, slices, maps, ir.Node values and types implementing
// IRMarshaler are handled by the Fallback codec. Types with an Adapter,
// or implementing encoding.TextMarshaler and encoding.TextUnmarshaler,
// are written as strings.
//
// # Related Packages
//
//   - github.com/signadot/beanmap/stream - event streams over JSON text
//   - github.com/signadot/beanmap/ir - document nodes
package beans
