package model

import "fmt"

// IdentityError reports a missing or unusable identity argument on a
// factory call.
type IdentityError struct {
	Name   string // exported handle name
	Pos    string // file:line:col of the factory call
	Reason string
}

func (e *IdentityError) Error() string {
	return fmt.Sprintf("invalid identity for %s at %s: %s", e.Name, e.Pos, e.Reason)
}

// BuildError wraps a failure to turn one factory call into a document.
type BuildError struct {
	Name string
	File string
	Err  error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("build document for %s (%s): %v", e.Name, e.File, e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }
