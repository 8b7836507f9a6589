/*
 * Copyright Metaplay. Licensed under the Apache-2.0 license.
 */

package credentials

import (
	"errors"

	"github.com/zalando/go-keyring"
)

// KeyringBackend stores secrets in the OS keyring (macOS Keychain, Windows
// Credential Manager, or the D-Bus Secret Service on Linux).
type KeyringBackend struct {
	Service string
}

func NewKeyringBackend() *KeyringBackend {
	return &KeyringBackend{Service: Service}
}

func (b *KeyringBackend) Get(account string) Result {
	secret, err := keyring.Get(b.Service, account)
	if errors.Is(err, keyring.ErrNotFound) {
		return NotFound()
	}
	if err != nil {
		return Unavailable(err.Error())
	}
	return Found(secret)
}

func (b *KeyringBackend) Set(account string, secret string) error {
	return keyring.Set(b.Service, account, secret)
}

// Delete removes the entry. Deleting a missing entry succeeds.
func (b *KeyringBackend) Delete(account string) error {
	err := keyring.Delete(b.Service, account)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}
