package compiler

import (
	"strings"

	"github.com/John-Robertt/clash-override/internal/model"
)

const (
	DefaultPrivateGroupName    = "aTrust"
	DefaultPrivateTestInterval = 60
)

// PrivateTrust routes a set of intranet CIDRs through a local proxy (for
// example a corporate VPN client exposing SOCKS5 on loopback).
type PrivateTrust struct {
	GroupName string
	Node      model.Node

	// TestURL turns the group into a url-test group probing an address only
	// reachable through the intranet. Empty keeps it a select group.
	TestURL      string
	TestInterval int

	CIDRs []string
}

// DefaultPrivateNode is the loopback SOCKS5 endpoint used when none is
// configured.
func DefaultPrivateNode() model.Node {
	return model.Node{
		Name: "socks5",
		Type: "socks5",
		Fields: map[string]any{
			"server": "127.0.0.1",
			"port":   1080,
		},
	}
}

func (p PrivateTrust) withDefaults() PrivateTrust {
	if p.GroupName == "" {
		p.GroupName = DefaultPrivateGroupName
	}
	if p.Node.Name == "" {
		p.Node = DefaultPrivateNode()
	}
	if p.TestInterval <= 0 {
		p.TestInterval = DefaultPrivateTestInterval
	}
	return p
}

func (p PrivateTrust) group() model.Group {
	g := model.Group{
		Name:    p.GroupName,
		Members: []string{p.Node.Name},
		Params:  model.SelectParams{},
	}
	if p.TestURL != "" {
		g.Params = model.URLTestParams{URL: p.TestURL, Interval: p.TestInterval}
	}
	return g
}

func (p PrivateTrust) rules() []model.Rule {
	out := make([]model.Rule, 0, len(p.CIDRs))
	for _, cidr := range p.CIDRs {
		cidr = strings.TrimSpace(cidr)
		typ := "IP-CIDR"
		if isIPv6CIDR(cidr) {
			typ = "IP-CIDR6"
		}
		out = append(out, model.Rule{Type: typ, Value: cidr, Action: p.GroupName})
	}
	return out
}

// applyPrivateTrust returns a copy of res with the overlay node, group and
// highest-priority CIDR rules added.
func applyPrivateTrust(res Result, p PrivateTrust) Result {
	p = p.withDefaults()

	proxies := make([]model.Node, 0, len(res.Proxies)+1)
	proxies = append(proxies, res.Proxies...)
	proxies = append(proxies, p.Node)

	groups := make([]model.Group, 0, len(res.Groups)+1)
	groups = append(groups, res.Groups...)
	groups = append(groups, p.group())

	prefix := p.rules()
	rules := make([]model.Rule, 0, len(prefix)+len(res.Rules))
	rules = append(rules, prefix...)
	rules = append(rules, res.Rules...)

	res.Proxies = proxies
	res.Groups = groups
	res.Rules = rules
	return res
}

func isIPv6CIDR(cidr string) bool {
	return strings.Contains(cidr, ":")
}
