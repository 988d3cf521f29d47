// Package compiler turns a raw proxy list into the groups and rule chain of
// the emitted config: Filter, Classify, Synthesize, Assemble, in that order.
// Every stage is a pure function over its inputs.
package compiler

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/John-Robertt/clash-override/internal/catalog"
	"github.com/John-Robertt/clash-override/internal/model"
)

type Result struct {
	Proxies []model.Node
	Groups  []model.Group
	Rules   []model.Rule

	Classification Classification
}

// MainGroup returns the aggregate group, which Synthesize always puts first.
func (r *Result) MainGroup() model.Group {
	if r == nil || len(r.Groups) == 0 {
		return model.Group{}
	}
	return r.Groups[0]
}

type Options struct {
	// Regions defaults to catalog.Regions().
	Regions []catalog.Region
	// Exclude defaults to catalog.IsNoise.
	Exclude func(name string) bool

	// Threshold is the minimum bucket size; 0 disables suppression.
	Threshold int

	Groups GroupOptions

	// PrivateTrust, when set, adds the intranet overlay.
	PrivateTrust *PrivateTrust

	// ExtraRules are placed before the fixed chain (after the overlay
	// rules). They must not contain MATCH.
	ExtraRules []model.Rule
}

type CompileError struct {
	AppError model.AppError
	Cause    error
}

func (e *CompileError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.AppError.Code, e.AppError.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.AppError.Code, e.AppError.Message, e.Cause)
}

func (e *CompileError) Unwrap() error { return e.Cause }

func compileError(code, message, snippet string, cause error) error {
	return &CompileError{
		AppError: model.AppError{
			Code:    code,
			Message: message,
			Stage:   "compile",
			Snippet: snippet,
		},
		Cause: cause,
	}
}

// Compile runs the whole pipeline over nodes.
//
// It never fails on node content: an empty or all-noise list yields just the
// main group with DIRECT. Errors only come from options that make the output
// inconsistent (colliding group names, extra rules pointing nowhere).
func Compile(nodes []model.Node, opt Options) (*Result, error) {
	regions := opt.Regions
	if regions == nil {
		regions = catalog.Regions()
	}
	exclude := opt.Exclude
	if exclude == nil {
		exclude = catalog.IsNoise
	}
	groupOpt := opt.Groups.withDefaults()

	reserved := []string{groupOpt.MainGroupName, groupOpt.UnmatchedGroupName}
	for _, r := range regions {
		reserved = append(reserved, r.Name)
	}
	if opt.PrivateTrust != nil {
		p := opt.PrivateTrust.withDefaults()
		reserved = append(reserved, p.GroupName, p.Node.Name)
	}

	accepted := DropConflicts(Filter(nodes, exclude), reserved)
	classification := Classify(accepted, regions, opt.Threshold)
	groups := Synthesize(accepted, classification, groupOpt)
	rules := Assemble(groupOpt.MainGroupName)

	logrus.WithFields(logrus.Fields{
		"input":     len(nodes),
		"accepted":  len(accepted),
		"regions":   len(classification.Buckets),
		"unmatched": len(classification.Unmatched),
		"threshold": opt.Threshold,
	}).Debug("classified proxies")

	if len(opt.ExtraRules) > 0 {
		for _, r := range opt.ExtraRules {
			if r.Type == "MATCH" {
				return nil, compileError("RULE_VALIDATE_ERROR", "附加规则不允许包含 MATCH", r.String(), nil)
			}
		}
		chain := make([]model.Rule, 0, len(opt.ExtraRules)+len(rules))
		chain = append(chain, opt.ExtraRules...)
		rules = append(chain, rules...)
	}

	res := Result{
		Proxies:        accepted,
		Groups:         groups,
		Rules:          rules,
		Classification: classification,
	}
	if opt.PrivateTrust != nil {
		res = applyPrivateTrust(res, *opt.PrivateTrust)
	}

	if err := ValidateGroups(res.Groups, model.NodeNames(res.Proxies)); err != nil {
		return nil, err
	}
	if err := ValidateRules(res.Rules, res.Groups); err != nil {
		return nil, err
	}
	return &res, nil
}
