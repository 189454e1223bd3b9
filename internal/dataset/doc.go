// Package dataset loads the NHS 111 call-handling extract into an immutable
// in-memory table and computes the per-row derived metrics.
//
// The table is built once at startup by Loader.Load and then only read:
// Filter, Providers and Rows never modify it, so any number of request
// goroutines may share one *Table.
package dataset
