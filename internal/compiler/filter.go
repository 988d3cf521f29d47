package compiler

import (
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/John-Robertt/clash-override/internal/model"
)

// Filter drops every node whose name exclude reports as noise. Input order is
// kept and the input slice is never modified. A nil predicate keeps all nodes.
func Filter(nodes []model.Node, exclude func(name string) bool) []model.Node {
	if exclude == nil {
		return append([]model.Node(nil), nodes...)
	}
	return lo.Reject(nodes, func(n model.Node, _ int) bool {
		return exclude(n.Name)
	})
}

// DropConflicts removes nodes the emitted config could not carry: a repeated
// name (the first occurrence wins) and any name taken by DIRECT/REJECT or by
// one of the reserved group names. Every dropped node is logged.
func DropConflicts(nodes []model.Node, reserved []string) []model.Node {
	taken := make(map[string]string, len(reserved)+len(nodes))
	for _, name := range reserved {
		taken[name] = "group name"
	}
	taken[model.Direct] = "built-in policy"
	taken[model.Reject] = "built-in policy"

	out := make([]model.Node, 0, len(nodes))
	for _, n := range nodes {
		if why, ok := taken[n.Name]; ok {
			logrus.WithFields(logrus.Fields{
				"node":     n.Name,
				"conflict": why,
			}).Warn("proxy dropped")
			continue
		}
		taken[n.Name] = "duplicate name"
		out = append(out, n)
	}
	return out
}
