// Package refdoc generates reference documentation for typed API
// handles published through a designated generic factory function,
// using the Go type checker's view of the program rather than source
// text heuristics.
package refdoc
