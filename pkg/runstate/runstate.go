/*
 * Copyright Metaplay. Licensed under the Apache-2.0 license.
 */

// Package runstate persists the outcome of the latest run for every server.
package runstate

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/kube-config-updater/cli/pkg/atomicfile"
	"github.com/rs/zerolog/log"
)

// StateFileName is the name of the state file inside the temp directory.
const StateFileName = "kube_config_updater_state.json"

// Status of a server after its most recent job.
type Status string

const (
	StatusFetched      Status = "Fetched"
	StatusSkipped      Status = "Skipped"
	StatusNoCredential Status = "NoCredential"
	StatusAuthRejected Status = "AuthRejected"
	StatusFailed       Status = "Failed"
)

// ServerRunState is the persisted record of one server's latest job.
type ServerRunState struct {
	Status      Status     `json:"status"`
	LastUpdated *time.Time `json:"last_updated"`
	Error       *string    `json:"error"`
}

// Fetched returns the state of a server whose kubeconfig was refreshed at ts.
func Fetched(ts time.Time) ServerRunState {
	return ServerRunState{Status: StatusFetched, LastUpdated: stamp(ts)}
}

// Skipped returns the state of a server whose cached certificate was still valid at ts.
func Skipped(ts time.Time) ServerRunState {
	return ServerRunState{Status: StatusSkipped, LastUpdated: stamp(ts)}
}

// NoCredential returns the state of a server skipped because no credential store was reachable.
func NoCredential(ts time.Time) ServerRunState {
	return ServerRunState{Status: StatusNoCredential, LastUpdated: stamp(ts)}
}

// AuthRejected returns the state of a server whose SSH authentication failed.
func AuthRejected(ts time.Time, err error) ServerRunState {
	return ServerRunState{Status: StatusAuthRejected, LastUpdated: stamp(ts), Error: errorText(err)}
}

// Failed returns the state of a server whose job failed for any other reason.
func Failed(ts time.Time, err error) ServerRunState {
	return ServerRunState{Status: StatusFailed, LastUpdated: stamp(ts), Error: errorText(err)}
}

// stamp normalizes ts to UTC. A zero ts is stored as null.
func stamp(ts time.Time) *time.Time {
	if ts.IsZero() {
		return nil
	}
	ts = ts.UTC()
	return &ts
}

func errorText(err error) *string {
	if err == nil {
		return nil
	}
	msg := err.Error()
	return &msg
}

// Store reads and writes the per-server state map.
type Store interface {
	Read() (map[string]ServerRunState, error)
	Write(states map[string]ServerRunState) error
	// Update merges entries into the stored map, keeping servers not present in entries.
	Update(entries map[string]ServerRunState) error
}

// FileStore keeps the state map as a JSON object in a single file.
type FileStore struct {
	Path string
	mu   sync.Mutex
}

// DefaultPath returns the state file path in the system temp directory.
func DefaultPath() string {
	return filepath.Join(os.TempDir(), StateFileName)
}

func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

// Read returns the stored map, or an empty map when no state has been written yet.
func (s *FileStore) Read() (map[string]ServerRunState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

func (s *FileStore) read() (map[string]ServerRunState, error) {
	states := map[string]ServerRunState{}
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return states, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read run state: %w", err)
	}
	if err := json.Unmarshal(data, &states); err != nil {
		return nil, fmt.Errorf("failed to parse run state %s: %w", s.Path, err)
	}
	return states, nil
}

// Write replaces the stored map atomically.
func (s *FileStore) Write(states map[string]ServerRunState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(states)
}

func (s *FileStore) write(states map[string]ServerRunState) error {
	data, err := json.MarshalIndent(states, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize run state: %w", err)
	}
	if err := atomicfile.WriteFile(s.Path, data, 0600, 0700); err != nil {
		return fmt.Errorf("failed to write run state: %w", err)
	}
	return nil
}

// Update merges entries into the stored map. A corrupt state file is treated as
// empty and overwritten.
func (s *FileStore) Update(entries map[string]ServerRunState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	states, err := s.read()
	if err != nil {
		log.Warn().Msgf("Discarding unreadable run state: %v", err)
		states = map[string]ServerRunState{}
	}
	for name, state := range entries {
		states[name] = state
	}
	return s.write(states)
}
