package model

import "strings"

type Rule struct {
	Type      string // e.g. "RULE-SET", "DOMAIN", "IP-CIDR", "MATCH"
	Value     string // provider name / domain / cidr / country code
	Action    string // DIRECT/REJECT/group name
	NoResolve bool   // only meaningful for RULE-SET and IP-CIDR/IP-CIDR6
}

// String renders the rule in Clash's comma form.
func (r Rule) String() string {
	if r.Type == "MATCH" {
		return "MATCH," + r.Action
	}
	var b strings.Builder
	b.WriteString(r.Type)
	b.WriteByte(',')
	b.WriteString(r.Value)
	b.WriteByte(',')
	b.WriteString(r.Action)
	if r.NoResolve {
		b.WriteString(",no-resolve")
	}
	return b.String()
}

// RuleStrings renders a whole chain.
func RuleStrings(rules []Rule) []string {
	out := make([]string, 0, len(rules))
	for _, r := range rules {
		out = append(out, r.String())
	}
	return out
}
