/*
 * Copyright Metaplay. Licensed under the Apache-2.0 license.
 */

package errors

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderPlainError(t *testing.T) {
	var buf bytes.Buffer
	Render(&buf, errors.New("connection refused"))
	assert.Contains(t, buf.String(), "connection refused")
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("\n")))
}

func TestRenderCLIError(t *testing.T) {
	err := Wrap(errors.New("open config.toml: no such file"), "No fleet config found").
		WithDetails("first problem", "second problem").
		WithSuggestion("Pass --config.")

	var buf bytes.Buffer
	Render(&buf, err)
	out := buf.String()

	assert.Contains(t, out, "No fleet config found")
	assert.Contains(t, out, "open config.toml: no such file")
	assert.Contains(t, out, "  - first problem\n")
	assert.Contains(t, out, "  - second problem\n")
	assert.Contains(t, out, "Pass --config.")
}

func TestRenderSkipsCauseRepeatingMessage(t *testing.T) {
	cause := errors.New("invalid format")
	var buf bytes.Buffer
	Render(&buf, WrapUsageError(cause, cause.Error()))
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("invalid format")))
}
