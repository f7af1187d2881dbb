package api

import "example.com/basic/refs"

// Settings is the mutable service configuration.
type Settings struct {
	// Name identifies the deployment.
	Name string

	// Replicas is the desired instance count.
	Replicas int

	// Workers is the legacy instance count.
	//
	// Deprecated: use Replicas instead.
	Workers int
}

// Validate checks the settings for consistency.
func (s Settings) Validate() error {
	return nil
}

// SettingsAPI is the published settings handle.
var SettingsAPI = refs.New[Settings](refs.Config{ID: "core.settings"})
