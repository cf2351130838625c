// Package fields builds form field definitions from model schemas. Each
// schema property is dispatched on its type tag to one of a fixed set of
// variants (integer, foreign key, text, async text search, checkbox,
// checkbox group, single select, array). Every variant starts from the same
// base (title, type, required rule, initial model value) and then adds its own
// hints and validation rules. Rules are data plus a pure check function so
// renderers can either serialise them or evaluate them directly.
//
// Array properties whose items reference a sub-schema are expanded eagerly
// into nested field lists, one per declared sub-type for multi-typed arrays.
// Model values are the only mutable state after construction and expose
// change notification through FieldDef.Subscribe.
package fields
