// Package openapi reads model schemas out of OpenAPI 3 documents. Each entry of
// components.schemas can be converted into a schema.Schema that the fields
// package turns into form field definitions. kin-openapi does the parsing and
// reference resolution; this package only maps schema objects onto type tags.
package openapi
