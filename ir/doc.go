// Package ir provides the document value model used by beanmap.
//
// # Overview
//
// A document is a tree of Nodes. Nodes can be:
//
//   - Atomic types: null, boolean, number, string
//   - Composite types: object (key-value pairs), array (ordered list)
//
// Objects keep their keys in order. The order matters for one key only:
// the type tag key "@class" (TypeTagKey), which must come first because it
// determines how the remaining keys are interpreted.
//
// # Creating Nodes
//
//	node := ir.FromString("hello")
//	num := ir.FromInt(42)
//	obj := ir.FromKeyVals([]ir.KeyVal{
//	    {Key: ir.FromString(ir.TypeTagKey), Val: ir.FromString("SpecialNumber")},
//	    {Key: ir.FromString("name"), Val: ir.FromString("Emergency")},
//	})
//
// # Related Packages
//
//   - github.com/signadot/beanmap/stream - token streams over documents
//   - github.com/signadot/beanmap/beans - mapping documents to Go values
package ir
