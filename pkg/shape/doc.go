// Package shape validates decoded JSON records against a declared field layout.
//
// Pack files (profiles, schemas) arrive as untyped JSON. Before a record is
// decoded into a domain type its shape is checked, so a missing field or a
// field of the wrong type produces one precise message per problem instead of
// a single opaque decoder error.
//
//	profile := shape.Shape{
//	    "id":             shape.String(),
//	    "keyboardLayout": shape.Slice(shape.String()),
//	}
//
//	if err := shape.Validate(profile, record); err != nil {
//	    for _, e := range shape.ValidationErrors(err) {
//	        log.Println(e)
//	    }
//	}
package shape
