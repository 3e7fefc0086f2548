// Package analysis holds trajectory diagnostics that need more than one
// run of a system.
package analysis
