// Package def loads host definitions: the classes, fields, methods and
// seeded objects an in-process host runtime starts with.
//
// Definitions are written in YAML or TOML; Load picks the decoder from the
// file extension.
//
//	classes:
//	  - name: com/example/Foo
//	    fields:
//	      - {name: bar, sig: I}
//	objects:
//	  - name: foo
//	    class: com/example/Foo
//	    fields: {bar: 42}
//
// Reference-typed field values and array elements name other objects. An
// empty name is the null reference.
package def
