// Package secret is internal; its handle must never be documented.
package secret

import "example.com/basic/refs"

// Vault stores secrets.
type Vault interface {
	// Unlock opens the vault.
	Unlock(passphrase string) error
}

// VaultAPI is exported but unreachable from outside the internal tree.
var VaultAPI = refs.New[Vault](refs.Config{ID: "core.vault"})
