/*
 * Copyright Metaplay. Licensed under the Apache-2.0 license.
 */

package kubeconfig

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sync"

	"github.com/kube-config-updater/cli/pkg/atomicfile"
	"github.com/rs/zerolog/log"
	"k8s.io/client-go/tools/clientcmd"
)

// Locks serializing load-modify-write cycles, keyed by cleaned absolute path.
// Shared by every Merger in the process.
var sharedFileLocks sync.Map

func lockFor(path string) *sync.Mutex {
	key := filepath.Clean(path)
	if abs, err := filepath.Abs(path); err == nil {
		key = abs
	}
	mu, _ := sharedFileLocks.LoadOrStore(key, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// DefaultSharedPath is the kubeconfig file kubectl reads by default.
func DefaultSharedPath() string {
	return clientcmd.RecommendedHomeFile
}

// MergeStats describes what a merge changed in the shared document.
type MergeStats struct {
	Clusters int // Cluster entries upserted.
	Contexts int // Context entries upserted.
	Users    int // User entries upserted.
	Replaced int // Entries that replaced an existing entry of the same name.
}

// Merger folds fetched kubeconfigs into one shared kubeconfig file.
type Merger struct {
	Path string
}

func NewMerger(path string) *Merger {
	return &Merger{Path: path}
}

// Merge upserts the clusters, contexts and users of fetched into the shared
// file and writes it back atomically. The shared current-context and
// preferences are never modified. Concurrent merges into the same path are
// serialized for the whole load-through-write cycle.
func (m *Merger) Merge(fetched *KubeConfig) (MergeStats, error) {
	return m.merge(fetched, false)
}

// Plan computes the result of Merge without writing anything.
func (m *Merger) Plan(fetched *KubeConfig) (MergeStats, error) {
	return m.merge(fetched, true)
}

func (m *Merger) merge(fetched *KubeConfig, dryRun bool) (MergeStats, error) {
	mu := lockFor(m.Path)
	mu.Lock()
	defer mu.Unlock()

	shared, err := m.load()
	if err != nil {
		return MergeStats{}, err
	}

	stats := Upsert(shared, fetched)

	if dryRun {
		log.Info().Msgf("DRY-RUN: Would merge %d cluster(s), %d context(s), %d user(s) into %s", stats.Clusters, stats.Contexts, stats.Users, m.Path)
		return stats, nil
	}

	data, err := Marshal(shared)
	if err != nil {
		return MergeStats{}, err
	}
	if err := atomicfile.WriteFile(m.Path, data, 0600, 0700); err != nil {
		return MergeStats{}, fmt.Errorf("failed to write %s: %w", m.Path, err)
	}
	return stats, nil
}

// load reads the shared kubeconfig, or returns an empty skeleton when it does
// not exist yet.
func (m *Merger) load() (*KubeConfig, error) {
	shared, err := Load(m.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewSkeleton(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load shared kubeconfig: %w", err)
	}
	if shared.ApiVersion == "" {
		shared.ApiVersion = "v1"
	}
	if shared.Kind == "" {
		shared.Kind = "Config"
	}
	return shared, nil
}

// Upsert replaces same-named entries of shared with the entries of fetched,
// appending them at the end. Entries of other names keep their content and
// position.
func Upsert(shared *KubeConfig, fetched *KubeConfig) MergeStats {
	var stats MergeStats

	for _, cluster := range fetched.Clusters {
		before := len(shared.Clusters)
		shared.Clusters = removeByName(shared.Clusters, cluster.Name, func(c KubeConfigCluster) string { return c.Name })
		stats.Replaced += before - len(shared.Clusters)
		shared.Clusters = append(shared.Clusters, cluster)
		stats.Clusters++
	}
	for _, context := range fetched.Contexts {
		before := len(shared.Contexts)
		shared.Contexts = removeByName(shared.Contexts, context.Name, func(c KubeConfigContext) string { return c.Name })
		stats.Replaced += before - len(shared.Contexts)
		shared.Contexts = append(shared.Contexts, context)
		stats.Contexts++
	}
	for _, user := range fetched.Users {
		before := len(shared.Users)
		shared.Users = removeByName(shared.Users, user.Name, func(u KubeConfigUser) string { return u.Name })
		stats.Replaced += before - len(shared.Users)
		shared.Users = append(shared.Users, user)
		stats.Users++
	}

	return stats
}

func removeByName[T any](entries []T, name string, nameOf func(T) string) []T {
	kept := entries[:0:0]
	for _, entry := range entries {
		if nameOf(entry) != name {
			kept = append(kept, entry)
		}
	}
	return kept
}
