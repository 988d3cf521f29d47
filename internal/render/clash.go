package render

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/John-Robertt/clash-override/internal/model"
)

func scalar(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}

func mapping() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
}

func addPair(m *yaml.Node, key string, value *yaml.Node) {
	m.Content = append(m.Content, scalar(key), value)
}

func intNode(v int) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: fmt.Sprint(v)}
}

func boolNode(v bool) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: fmt.Sprint(v)}
}

func stringSeq(items []string) *yaml.Node {
	s := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for _, it := range items {
		s.Content = append(s.Content, scalar(it))
	}
	return s
}

// groupNode renders a group as name, type, icon, proxies, then the fields of
// its kind.
func groupNode(g model.Group) (*yaml.Node, error) {
	m := mapping()
	addPair(m, "name", scalar(g.Name))
	addPair(m, "type", scalar(g.Kind().String()))
	if g.Icon != "" {
		addPair(m, "icon", scalar(g.Icon))
	}
	addPair(m, "proxies", stringSeq(g.Members))

	switch p := g.Params.(type) {
	case nil, model.SelectParams:
	case model.URLTestParams:
		if p.Lazy {
			addPair(m, "lazy", boolNode(true))
		}
		addPair(m, "url", scalar(p.URL))
		addPair(m, "interval", intNode(p.Interval))
		if p.Tolerance > 0 {
			addPair(m, "tolerance", intNode(p.Tolerance))
		}
	case model.LoadBalanceParams:
		addPair(m, "url", scalar(p.URL))
		addPair(m, "interval", intNode(p.Interval))
		addPair(m, "strategy", scalar(p.Strategy))
	case model.FallbackParams:
		addPair(m, "url", scalar(p.URL))
		addPair(m, "interval", intNode(p.Interval))
	default:
		return nil, renderError("RENDER_ERROR", fmt.Sprintf("未知的策略组参数类型：%T", g.Params), nil)
	}
	return m, nil
}

func groupsNode(groups []model.Group) (*yaml.Node, error) {
	s := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for _, g := range groups {
		n, err := groupNode(g)
		if err != nil {
			return nil, err
		}
		s.Content = append(s.Content, n)
	}
	return s, nil
}

func proxiesNode(nodes []model.Node) (*yaml.Node, error) {
	var s yaml.Node
	if err := s.Encode(nodes); err != nil {
		return nil, renderError("RENDER_ERROR", "编码 proxies 失败", err)
	}
	if len(nodes) == 0 {
		s = yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Style: yaml.FlowStyle}
	}
	return &s, nil
}
