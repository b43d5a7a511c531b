// Package schema provides the validation primitive used by lattice pipelines.
//
// A Schema checks one value and returns a Result: either success with the
// (possibly coerced) output data, or failure with a list of Issues. Pipelines
// only ever depend on that contract, so any validation library can be plugged
// in by implementing Schema.
//
// Built-in types cover strings (with length bounds), integers, floats,
// booleans, slices, keyed records, optional values, custom validators and
// transforms:
//
//	person := schema.Object(schema.Fields{
//	    "first_name": schema.String().Min(3),
//	    "last_name":  schema.String().Min(3),
//	    "tags":       schema.Optional(schema.Slice(schema.String())),
//	})
//
//	res := schema.Check(person, map[string]any{"first_name": "Al", "last_name": "Smith"})
//	// res.Success == false
//	// res.Issues  == [{Message: "String must contain at least 3 character(s)", Path: [first_name]}]
//
// Record schemas can also be parsed from type expressions, or from YAML and
// JSON documents:
//
//	first_name: string(min=3)
//	age: ?int(min=0)
//	tags: "[string]"
//	address:
//	  city: string
package schema
