package api

import "example.com/basic/refs"

// Level grades log verbosity.
type Level int

const (
	// LevelDebug logs everything.
	LevelDebug Level = iota
	// LevelInfo logs routine events.
	LevelInfo
	// LevelError logs failures only.
	LevelError
)

// LevelAPI is the published verbosity handle.
var LevelAPI = refs.New[Level](refs.Config{ID: "core.level"})
