package render

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/John-Robertt/clash-override/internal/model"
)

// Document is a base config held as a YAML node tree, so keys the pipeline
// does not touch keep their order, comments and formatting.
type Document struct {
	doc  *yaml.Node
	root *yaml.Node // top-level mapping
}

// Parse reads a base config. Empty input is an empty mapping.
func Parse(src []byte) (*Document, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(src, &doc); err != nil {
		return nil, parseError("CONFIG_PARSE_ERROR", "配置不是合法 YAML", "", err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		root := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		return &Document{doc: &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{root}}, root: root}, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, parseError("CONFIG_PARSE_ERROR", "配置顶层必须是映射", firstLine(src), nil)
	}
	return &Document{doc: &doc, root: root}, nil
}

// Get returns the value node of a top-level key, or nil.
func (d *Document) Get(key string) *yaml.Node {
	for i := 0; i+1 < len(d.root.Content); i += 2 {
		if d.root.Content[i].Value == key {
			return d.root.Content[i+1]
		}
	}
	return nil
}

// Proxies decodes the inline proxies list. A missing or null key is empty.
func (d *Document) Proxies() ([]model.Node, error) {
	n := d.Get("proxies")
	if n == nil || n.Tag == "!!null" {
		return nil, nil
	}
	if n.Kind != yaml.SequenceNode {
		return nil, parseError("CONFIG_PARSE_ERROR", "proxies 必须是列表", fmt.Sprintf("line %d", n.Line), nil)
	}
	var out []model.Node
	if err := n.Decode(&out); err != nil {
		return nil, parseError("CONFIG_PARSE_ERROR", "proxies 解析失败", fmt.Sprintf("line %d", n.Line), err)
	}
	return out, nil
}

// Set encodes value and stores it under key: in place when the key exists,
// appended otherwise.
func (d *Document) Set(key string, value any) error {
	var vn yaml.Node
	if err := vn.Encode(value); err != nil {
		return renderError("RENDER_ERROR", fmt.Sprintf("编码 %s 失败", key), err)
	}
	d.SetNode(key, &vn)
	return nil
}

func (d *Document) SetNode(key string, value *yaml.Node) {
	for i := 0; i+1 < len(d.root.Content); i += 2 {
		if d.root.Content[i].Value == key {
			d.root.Content[i+1] = value
			return
		}
	}
	d.root.Content = append(d.root.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
		value,
	)
}

// Keys returns the top-level keys in document order.
func (d *Document) Keys() []string {
	out := make([]string, 0, len(d.root.Content)/2)
	for i := 0; i+1 < len(d.root.Content); i += 2 {
		out = append(out, d.root.Content[i].Value)
	}
	return out
}

// Bytes encodes the document with two-space indentation.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d.doc); err != nil {
		return nil, renderError("RENDER_ERROR", "输出 YAML 失败", err)
	}
	if err := enc.Close(); err != nil {
		return nil, renderError("RENDER_ERROR", "输出 YAML 失败", err)
	}
	return buf.Bytes(), nil
}

func firstLine(src []byte) string {
	s := strings.TrimSpace(string(src))
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
