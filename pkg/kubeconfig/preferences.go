/*
 * Copyright Metaplay. Licensed under the Apache-2.0 license.
 */

package kubeconfig

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Preferences is the kubeconfig 'preferences' mapping. Entries keep their
// document order and arbitrary values survive a round-trip unchanged. A
// document without the key serializes without it.
type Preferences struct {
	keys    []string
	values  map[string]*yaml.Node
	present bool
}

// IsZero reports whether the mapping is absent, so omitempty drops it.
// An explicit empty mapping read from a document is kept.
func (p Preferences) IsZero() bool {
	return !p.present && len(p.keys) == 0
}

// Len returns the number of entries.
func (p *Preferences) Len() int {
	return len(p.keys)
}

// Keys returns the entry keys in document order.
func (p *Preferences) Keys() []string {
	return append([]string(nil), p.keys...)
}

// Get returns the value of a scalar entry.
func (p *Preferences) Get(key string) (string, bool) {
	node, ok := p.values[key]
	if !ok || node.Kind != yaml.ScalarNode {
		return "", false
	}
	return node.Value, true
}

// Set inserts or replaces a string entry. New keys are appended.
func (p *Preferences) Set(key, value string) {
	p.setNode(key, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value})
}

func (p *Preferences) setNode(key string, node *yaml.Node) {
	if p.values == nil {
		p.values = make(map[string]*yaml.Node)
	}
	if _, exists := p.values[key]; !exists {
		p.keys = append(p.keys, key)
	}
	p.values[key] = node
}

func (p *Preferences) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("preferences must be a mapping (line %d)", node.Line)
	}
	p.keys = nil
	p.values = nil
	p.present = true
	for ndx := 0; ndx+1 < len(node.Content); ndx += 2 {
		p.setNode(node.Content[ndx].Value, node.Content[ndx+1])
	}
	return nil
}

func (p Preferences) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, key := range p.keys {
		keyNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}
		node.Content = append(node.Content, keyNode, p.values[key])
	}
	return node, nil
}
