/*
 * Copyright Metaplay. Licensed under the Apache-2.0 license.
 */

package runstate

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadMissingFileIsEmpty(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), StateFileName))

	states, err := store.Read()
	require.NoError(t, err)
	assert.Empty(t, states)
}

func TestWriteThenRead(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), StateFileName))
	ts := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

	require.NoError(t, store.Write(map[string]ServerRunState{
		"edge-1": Fetched(ts),
		"edge-2": Failed(ts, errors.New("connection refused")),
	}))

	states, err := store.Read()
	require.NoError(t, err)
	require.Len(t, states, 2)
	assert.Equal(t, StatusFetched, states["edge-1"].Status)
	require.NotNil(t, states["edge-1"].LastUpdated)
	assert.True(t, ts.Equal(*states["edge-1"].LastUpdated))
	assert.Nil(t, states["edge-1"].Error)
	require.NotNil(t, states["edge-2"].LastUpdated)
	assert.True(t, ts.Equal(*states["edge-2"].LastUpdated))
	require.NotNil(t, states["edge-2"].Error)
	assert.Equal(t, "connection refused", *states["edge-2"].Error)
}

func TestJSONShape(t *testing.T) {
	path := filepath.Join(t.TempDir(), StateFileName)
	store := NewFileStore(path)
	ts := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

	require.NoError(t, store.Write(map[string]ServerRunState{
		"a": Fetched(ts),
		"b": Skipped(ts),
		"c": Failed(time.Time{}, errors.New("dial timeout")),
	}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var raw map[string]map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))

	assert.Equal(t, map[string]interface{}{"status": "Fetched", "last_updated": "2026-03-04T05:06:07Z", "error": nil}, raw["a"])
	assert.Equal(t, map[string]interface{}{"status": "Skipped", "last_updated": "2026-03-04T05:06:07Z", "error": nil}, raw["b"])
	assert.Equal(t, map[string]interface{}{"status": "Failed", "last_updated": nil, "error": "dial timeout"}, raw["c"])
}

func TestUpdateKeepsOtherServers(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), StateFileName))
	require.NoError(t, store.Write(map[string]ServerRunState{
		"excluded": Fetched(time.Now()),
		"edge-1":   Failed(time.Now(), errors.New("old")),
	}))

	require.NoError(t, store.Update(map[string]ServerRunState{
		"edge-1": Skipped(time.Now()),
		"edge-2": NoCredential(time.Now()),
	}))

	states, err := store.Read()
	require.NoError(t, err)
	assert.Len(t, states, 3)
	assert.Equal(t, StatusFetched, states["excluded"].Status)
	assert.Equal(t, StatusSkipped, states["edge-1"].Status)
	assert.Nil(t, states["edge-1"].Error)
	assert.Equal(t, StatusNoCredential, states["edge-2"].Status)
}

func TestUpdateOverwritesCorruptState(t *testing.T) {
	path := filepath.Join(t.TempDir(), StateFileName)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))
	store := NewFileStore(path)

	_, err := store.Read()
	assert.Error(t, err)

	require.NoError(t, store.Update(map[string]ServerRunState{"edge-1": AuthRejected(time.Now(), errors.New("authentication failed"))}))

	states, err := store.Read()
	require.NoError(t, err)
	require.Len(t, states, 1)
	assert.Equal(t, StatusAuthRejected, states["edge-1"].Status)
}

func TestEveryStatusIsStampedInUTC(t *testing.T) {
	ts := time.Date(2026, 3, 4, 7, 6, 7, 0, time.FixedZone("EET", 2*3600))
	states := []ServerRunState{
		Fetched(ts),
		Skipped(ts),
		NoCredential(ts),
		AuthRejected(ts, errors.New("authentication failed")),
		Failed(ts, errors.New("connection refused")),
	}
	for _, state := range states {
		require.NotNil(t, state.LastUpdated, state.Status)
		assert.Equal(t, time.UTC, state.LastUpdated.Location(), state.Status)
		assert.True(t, ts.Equal(*state.LastUpdated), state.Status)
	}
}

func TestDefaultPath(t *testing.T) {
	assert.Equal(t, filepath.Join(os.TempDir(), "kube_config_updater_state.json"), DefaultPath())
}
