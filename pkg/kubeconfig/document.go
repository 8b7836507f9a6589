/*
 * Copyright Metaplay. Licensed under the Apache-2.0 license.
 */

// Package kubeconfig parses, rewrites and merges kubeconfig documents fetched
// from remote cluster nodes.
package kubeconfig

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Parse decodes a kubeconfig document.
func Parse(data []byte) (*KubeConfig, error) {
	var config KubeConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse kubeconfig: %w", err)
	}
	return &config, nil
}

// Load reads and decodes the kubeconfig at path.
func Load(path string) (*KubeConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	config, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return config, nil
}

// Marshal encodes a kubeconfig document using two-space indentation.
func Marshal(config *KubeConfig) ([]byte, error) {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(config); err != nil {
		return nil, fmt.Errorf("failed to serialize kubeconfig: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("failed to serialize kubeconfig: %w", err)
	}
	return buf.Bytes(), nil
}

// SourceHash returns the lowercase hex SHA-256 of the raw fetched bytes.
func SourceHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
