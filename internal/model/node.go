package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Node is one outbound proxy entry of a Clash config.
//
// Name is the only identity the pipeline uses. Type and every other key are
// carried through untouched so the emitted proxies list stays loadable by the
// core that consumes it.
type Node struct {
	Name string
	Type string

	// Fields holds every key other than name/type, exactly as decoded.
	Fields map[string]any
}

var errNodeNotMapping = errors.New("proxy entry must be a mapping")

func (n *Node) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return errNodeNotMapping
	}
	var raw map[string]any
	if err := value.Decode(&raw); err != nil {
		return err
	}

	name, ok := raw["name"]
	if !ok || name == nil || strings.TrimSpace(scalarString(name)) == "" {
		return errors.New("proxy entry has no name")
	}
	out := Node{Name: scalarString(name)}
	if typ, ok := raw["type"]; ok && typ != nil {
		out.Type = scalarString(typ)
	}
	delete(raw, "name")
	delete(raw, "type")
	if len(raw) > 0 {
		out.Fields = raw
	}
	*n = out
	return nil
}

// MarshalYAML emits name, type, then the remaining fields in key order so the
// output is stable across runs.
func (n Node) MarshalYAML() (any, error) {
	m := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	appendPair := func(k string, v any) error {
		var vn yaml.Node
		if err := vn.Encode(v); err != nil {
			return fmt.Errorf("encode field %s: %w", k, err)
		}
		m.Content = append(m.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}, &vn)
		return nil
	}

	if err := appendPair("name", n.Name); err != nil {
		return nil, err
	}
	if n.Type != "" {
		if err := appendPair("type", n.Type); err != nil {
			return nil, err
		}
	}
	keys := make([]string, 0, len(n.Fields))
	for k := range n.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := appendPair(k, n.Fields[k]); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// NodeNames returns the names of nodes in order.
func NodeNames(nodes []Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Name)
	}
	return out
}

func scalarString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
