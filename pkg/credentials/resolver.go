/*
 * Copyright Metaplay. Licensed under the Apache-2.0 license.
 */

package credentials

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Resolver looks up the credential for a server: the server's own entry
// first, then the DefaultAccount entry. When the primary backend is
// unreachable the same lookup is repeated against the fallback.
type Resolver struct {
	Primary  Backend
	Fallback Backend // Optional.
}

// NewDefaultResolver uses the OS keyring with the default credentials file as fallback.
func NewDefaultResolver() *Resolver {
	return &Resolver{
		Primary:  NewKeyringBackend(),
		Fallback: NewFileBackend(DefaultFilePath()),
	}
}

func (r *Resolver) Resolve(serverName string) Result {
	result := resolveWith(r.Primary, serverName)
	if result.Kind() != ResultUnavailable || r.Fallback == nil {
		return result
	}

	log.Debug().Str("server", serverName).Msgf("Keyring unavailable, trying credentials file: %s", result.Reason())
	fallback := resolveWith(r.Fallback, serverName)
	if fallback.Kind() == ResultUnavailable {
		// The fallback store was never set up; report why the keyring failed.
		return result
	}
	return fallback
}

func resolveWith(backend Backend, serverName string) Result {
	result := backend.Get(serverName)
	if result.Kind() != ResultNotFound {
		return result
	}
	return backend.Get(DefaultAccount)
}

// ErrConsentDeclined is returned by Store.Set when the user refuses file storage.
var ErrConsentDeclined = errors.New("storing the credential in a file was declined")

// ConsentFunc asks the user whether a credential may be written to the file
// store at location. It is called at most once per Set.
type ConsentFunc func(location string) (bool, error)

// Store is the write side of credential management.
type Store struct {
	Primary      Backend
	Fallback     Backend
	FallbackPath string // Shown to the user when asking for consent.
}

func NewDefaultStore() *Store {
	path := DefaultFilePath()
	return &Store{
		Primary:      NewKeyringBackend(),
		Fallback:     NewFileBackend(path),
		FallbackPath: path,
	}
}

// Resolver returns a Resolver reading from the same backends.
func (s *Store) Resolver() *Resolver {
	return &Resolver{Primary: s.Primary, Fallback: s.Fallback}
}

// Set stores secret for account in the keyring. If the keyring daemon is
// unreachable, consent is asked before the secret is written to the file store.
// It returns the location the secret was written to.
func (s *Store) Set(account string, secret string, consent ConsentFunc) (string, error) {
	err := s.Primary.Set(account, secret)
	if err == nil {
		return "keyring", nil
	}
	if s.Fallback == nil || !IsUnavailableError(err.Error()) {
		return "", fmt.Errorf("failed to store credential in keyring: %w", err)
	}

	log.Debug().Msgf("Keyring unavailable: %v", err)
	accepted, err := consent(s.FallbackPath)
	if err != nil {
		return "", err
	}
	if !accepted {
		return "", ErrConsentDeclined
	}
	if err := s.Fallback.Set(account, secret); err != nil {
		return "", err
	}
	return s.FallbackPath, nil
}

// Delete removes account from both stores. Missing entries are not an error.
func (s *Store) Delete(account string) error {
	if err := s.Primary.Delete(account); err != nil {
		if s.Fallback == nil || !IsUnavailableError(err.Error()) {
			return fmt.Errorf("failed to delete credential from keyring: %w", err)
		}
		log.Debug().Msgf("Keyring unavailable, skipping keyring delete: %v", err)
	}
	if s.Fallback != nil {
		return s.Fallback.Delete(account)
	}
	return nil
}

// CheckEntry is the lookup result of one server.
type CheckEntry struct {
	Name   string
	Result Result
}

// Check resolves every name in order.
func (s *Store) Check(names []string) []CheckEntry {
	resolver := s.Resolver()
	entries := make([]CheckEntry, 0, len(names))
	for _, name := range names {
		entries = append(entries, CheckEntry{Name: name, Result: resolver.Resolve(name)})
	}
	return entries
}
