// Package refs publishes typed API handles.
package refs

// Config carries the published identity of a handle.
type Config struct {
	ID string
}

// Ref is a typed handle to a published API surface.
type Ref[T any] struct {
	id string
}

// ID returns the identity the handle was published under.
func (r Ref[T]) ID() string { return r.id }

// New publishes a handle for T under cfg's identity.
func New[T any](cfg Config) Ref[T] {
	return Ref[T]{id: cfg.ID}
}
