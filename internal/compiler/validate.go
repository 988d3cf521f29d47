package compiler

import (
	"fmt"

	"github.com/John-Robertt/clash-override/internal/model"
	"github.com/John-Robertt/clash-override/internal/rules"
)

// ValidateGroups checks the invariants of a synthesized group list:
//   - group names are non-empty, unique and not DIRECT/REJECT
//   - the first (main) group has at least one member
//   - every member is a node name, another group, or a sentinel, and no group
//     lists itself
func ValidateGroups(groups []model.Group, nodeNames []string) error {
	if len(groups) == 0 {
		return compileError("GROUP_VALIDATE_ERROR", "策略组列表为空", "", nil)
	}

	groupSet := make(map[string]struct{}, len(groups))
	for _, g := range groups {
		if g.Name == "" {
			return compileError("GROUP_VALIDATE_ERROR", "策略组名不能为空", "", nil)
		}
		if model.IsSentinel(g.Name) {
			return compileError("GROUP_VALIDATE_ERROR", "策略组名不能使用保留名 DIRECT/REJECT", g.Name, nil)
		}
		if _, ok := groupSet[g.Name]; ok {
			return compileError("GROUP_VALIDATE_ERROR", fmt.Sprintf("重复的策略组名：%s", g.Name), g.Name, nil)
		}
		groupSet[g.Name] = struct{}{}
	}

	if len(groups[0].Members) == 0 {
		return compileError("GROUP_VALIDATE_ERROR", fmt.Sprintf("主策略组为空：%s", groups[0].Name), groups[0].Name, nil)
	}

	nodeSet := make(map[string]struct{}, len(nodeNames))
	for _, n := range nodeNames {
		nodeSet[n] = struct{}{}
	}
	for _, g := range groups {
		if !g.Kind().Valid() {
			return compileError("GROUP_VALIDATE_ERROR", fmt.Sprintf("策略组类型不合法：%s", g.Name), g.Name, nil)
		}
		for _, m := range g.Members {
			if m == g.Name {
				return compileError("GROUP_VALIDATE_ERROR", fmt.Sprintf("策略组 %s 引用了自身", g.Name), g.Name, nil)
			}
			if model.IsSentinel(m) {
				continue
			}
			if _, ok := groupSet[m]; ok {
				continue
			}
			if _, ok := nodeSet[m]; ok {
				continue
			}
			return compileError("REFERENCE_NOT_FOUND", fmt.Sprintf("策略组 %s 引用不存在：%s", g.Name, m), g.Name, nil)
		}
	}
	return nil
}

// ValidateRules checks that the chain has exactly one MATCH, that it is last,
// that every action resolves to a group or a sentinel, and that each rule
// reads back unchanged from the line it renders to.
func ValidateRules(chain []model.Rule, groups []model.Group) error {
	matchCount := 0
	matchIndex := -1
	for i, r := range chain {
		if r.Type == "MATCH" {
			matchCount++
			matchIndex = i
		}
	}
	if matchCount != 1 {
		return compileError("RULE_VALIDATE_ERROR", fmt.Sprintf("兜底规则 MATCH 数量不合法（got=%d, want=1）", matchCount), "", nil)
	}
	if matchIndex != len(chain)-1 {
		return compileError("RULE_VALIDATE_ERROR", "兜底规则 MATCH 必须是最后一条", chain[matchIndex].String(), nil)
	}

	groupSet := make(map[string]struct{}, len(groups))
	for _, g := range groups {
		groupSet[g.Name] = struct{}{}
	}
	for _, r := range chain {
		line := r.String()
		parsed, err := rules.ParseInlineRule(line)
		if err != nil {
			return compileError("RULE_VALIDATE_ERROR", "规则无法被解析", line, err)
		}
		if parsed != r {
			return compileError("RULE_VALIDATE_ERROR", "规则渲染后与原值不一致", line, nil)
		}
		if model.IsSentinel(r.Action) {
			continue
		}
		if _, ok := groupSet[r.Action]; !ok {
			return compileError("REFERENCE_NOT_FOUND", fmt.Sprintf("规则 ACTION 引用不存在：%s", r.Action), r.String(), nil)
		}
	}
	return nil
}
