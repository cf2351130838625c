// Package options provides ListMethod implementations for async choice fields
// and binds them onto built field definitions. Providers search a static list
// or query a remote endpoint described by an OptionsSource.
package options
