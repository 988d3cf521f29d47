package blocks

import (
	"gopkg.in/yaml.v3"
)

const (
	ruleProviderInterval = 86400

	clashRulesBase  = "https://cdn.jsdelivr.net/gh/Loyalsoldier/clash-rules@release/"
	customRulesBase = "https://cdn.jsdelivr.net/gh/OrzMiku/clash-override@master/rules/"
)

type RuleProvider struct {
	Type     string `yaml:"type"`
	Behavior string `yaml:"behavior"`
	URL      string `yaml:"url"`
	Path     string `yaml:"path"`
	Interval int    `yaml:"interval"`
}

type NamedRuleProvider struct {
	Name     string
	Provider RuleProvider
}

// RuleProviders is an ordered rule-providers mapping. Clash does not care
// about key order, but a stable order keeps diffs of the emitted file small.
type RuleProviders []NamedRuleProvider

func (rp RuleProviders) MarshalYAML() (any, error) {
	m := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, p := range rp {
		var v yaml.Node
		if err := v.Encode(p.Provider); err != nil {
			return nil, err
		}
		m.Content = append(m.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: p.Name}, &v)
	}
	return m, nil
}

// Names returns the provider names in order.
func (rp RuleProviders) Names() []string {
	out := make([]string, 0, len(rp))
	for _, p := range rp {
		out = append(out, p.Name)
	}
	return out
}

// DefaultRuleProviders is the fixed catalog every RULE-SET entry of the
// generated chain refers to.
func DefaultRuleProviders() RuleProviders {
	loyal := func(name, behavior string) NamedRuleProvider {
		return NamedRuleProvider{Name: name, Provider: RuleProvider{
			Type:     "http",
			Behavior: behavior,
			URL:      clashRulesBase + name + ".txt",
			Path:     "./ruleset/" + name + ".yaml",
			Interval: ruleProviderInterval,
		}}
	}
	custom := func(name, file string) NamedRuleProvider {
		return NamedRuleProvider{Name: name, Provider: RuleProvider{
			Type:     "http",
			Behavior: "domain",
			URL:      customRulesBase + file,
			Path:     "./ruleset/" + file,
			Interval: ruleProviderInterval,
		}}
	}
	return RuleProviders{
		loyal("reject", "domain"),
		loyal("proxy", "domain"),
		loyal("direct", "domain"),
		loyal("private", "domain"),
		loyal("cncidr", "ipcidr"),
		loyal("lancidr", "ipcidr"),
		loyal("applications", "classical"),
		custom("customProxy", "custom-proxy.yaml"),
		custom("customDirect", "custom-direct.yaml"),
	}
}
