/*
 * Copyright Metaplay. Licensed under the Apache-2.0 license.
 */

package pathutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetExecutablePath(t *testing.T) {
	path, err := GetExecutablePath()
	require.NoError(t, err)

	assert.True(t, filepath.IsAbs(path))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.False(t, info.IsDir())
}
