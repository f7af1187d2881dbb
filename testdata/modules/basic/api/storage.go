// Package api declares the published surface of the example service.
package api

import "example.com/basic/refs"

// Storage persists opaque blobs by key.
type Storage interface {
	// Get returns the blob stored under key.
	Get(key string) ([]byte, error)

	// Put stores blob under key, replacing any previous value.
	Put(key string, blob []byte) error

	// Close releases the underlying resources.
	Close() error
}

// StorageAPI is the published storage handle.
var StorageAPI = refs.New[Storage](refs.Config{ID: "core.storage"})
