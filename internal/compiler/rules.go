package compiler

import "github.com/John-Robertt/clash-override/internal/model"

// Assemble returns the fixed rule chain. Only the main group name is
// substituted; the order is what downstream cores evaluate first-match, so it
// must not be rearranged.
func Assemble(mainGroupName string) []model.Rule {
	return []model.Rule{
		// user overrides
		{Type: "RULE-SET", Value: "customProxy", Action: mainGroupName},
		{Type: "RULE-SET", Value: "customDirect", Action: model.Direct},

		{Type: "RULE-SET", Value: "applications", Action: model.Direct},
		// dashboards
		{Type: "DOMAIN", Value: "clash.razord.top", Action: model.Direct},
		{Type: "DOMAIN", Value: "yacd.haishan.me", Action: model.Direct},

		{Type: "RULE-SET", Value: "private", Action: model.Direct},
		{Type: "RULE-SET", Value: "reject", Action: model.Reject},
		{Type: "RULE-SET", Value: "proxy", Action: mainGroupName},
		{Type: "RULE-SET", Value: "direct", Action: model.Direct},
		{Type: "RULE-SET", Value: "lancidr", Action: model.Direct},
		{Type: "RULE-SET", Value: "cncidr", Action: model.Direct},
		{Type: "GEOIP", Value: "LAN", Action: model.Direct},
		{Type: "GEOIP", Value: "CN", Action: model.Direct},

		{Type: "MATCH", Action: mainGroupName},
	}
}
