// Package orchestrator wires the load, decode, transform and convert stages
// into one call for consumers that want field definitions from a schema
// location.
package orchestrator
