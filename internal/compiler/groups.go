package compiler

import (
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/John-Robertt/clash-override/internal/catalog"
	"github.com/John-Robertt/clash-override/internal/model"
)

const (
	DefaultMainGroupName       = "节点选择"
	DefaultUnmatchedGroupName  = "其他节点"
	DefaultTestURL             = "http://www.apple.com/library/test/success.html"
	DefaultTestInterval        = 300
	DefaultLoadBalanceStrategy = "consistent-hashing"

	urlTestTolerance = 50
)

// GroupOptions controls group synthesis.
type GroupOptions struct {
	MainGroupName      string
	UnmatchedGroupName string

	// RegionGroupType overrides every region's kind when it names a valid
	// kind. Anything else falls back to select.
	RegionGroupType string

	TestURL             string
	TestInterval        int
	LoadBalanceStrategy string

	// IncludeAllNodes appends every accepted node to the main group after
	// DIRECT.
	IncludeAllNodes bool
}

func (o GroupOptions) withDefaults() GroupOptions {
	if o.MainGroupName == "" {
		o.MainGroupName = DefaultMainGroupName
	}
	if o.UnmatchedGroupName == "" {
		o.UnmatchedGroupName = DefaultUnmatchedGroupName
	}
	if o.TestURL == "" {
		o.TestURL = DefaultTestURL
	}
	if o.TestInterval <= 0 {
		o.TestInterval = DefaultTestInterval
	}
	if o.LoadBalanceStrategy == "" {
		o.LoadBalanceStrategy = DefaultLoadBalanceStrategy
	}
	return o
}

// Synthesize turns a classification into proxy groups. The main group is
// always first, region groups follow in bucket order, and the unmatched group
// (when there is one) comes last.
func Synthesize(accepted []model.Node, c Classification, opt GroupOptions) []model.Group {
	opt = opt.withDefaults()
	override, overrideOK := resolveOverride(opt.RegionGroupType)

	regionGroups := make([]model.Group, 0, len(c.Buckets)+1)
	for _, b := range c.Buckets {
		kind := GroupKindFor(b.Region, override, overrideOK)
		regionGroups = append(regionGroups, model.Group{
			Name:    b.Region.Name,
			Icon:    b.Region.Icon(),
			Members: lo.Uniq(model.NodeNames(b.Nodes)),
			Params:  paramsFor(kind, opt),
		})
	}
	if len(c.Unmatched) > 0 {
		regionGroups = append(regionGroups, model.Group{
			Name:    opt.UnmatchedGroupName,
			Icon:    catalog.IconURL("Available"),
			Members: lo.Uniq(model.NodeNames(c.Unmatched)),
			Params:  model.SelectParams{},
		})
	}

	mainMembers := make([]string, 0, len(regionGroups)+1+len(accepted))
	for _, g := range regionGroups {
		mainMembers = append(mainMembers, g.Name)
	}
	mainMembers = append(mainMembers, model.Direct)
	if opt.IncludeAllNodes {
		mainMembers = append(mainMembers, model.NodeNames(accepted)...)
	}

	out := make([]model.Group, 0, len(regionGroups)+1)
	out = append(out, model.Group{
		Name:    opt.MainGroupName,
		Icon:    catalog.IconURL("Global"),
		Members: lo.Uniq(mainMembers),
		Params:  model.SelectParams{},
	})
	return append(out, regionGroups...)
}

// resolveOverride validates the region group type override. An empty
// override is "unset"; an unknown one is logged and treated as select.
func resolveOverride(raw string) (model.GroupKind, bool) {
	if raw == "" {
		return 0, false
	}
	kind, ok := model.ParseGroupKind(raw)
	if !ok {
		logrus.WithField("regiongrouptype", raw).Debug("unknown region group type, using select")
		return model.GroupSelect, true
	}
	return kind, true
}

// GroupKindFor picks the kind of a region group: a valid override wins, then
// the region's own type, then select.
func GroupKindFor(region catalog.Region, override model.GroupKind, hasOverride bool) model.GroupKind {
	if hasOverride && override.Valid() {
		return override
	}
	if region.Type.Valid() {
		return region.Type
	}
	return model.GroupSelect
}

func paramsFor(kind model.GroupKind, opt GroupOptions) model.GroupParams {
	switch kind {
	case model.GroupURLTest:
		return model.URLTestParams{
			Lazy:      true,
			URL:       opt.TestURL,
			Interval:  opt.TestInterval,
			Tolerance: urlTestTolerance,
		}
	case model.GroupLoadBalance:
		return model.LoadBalanceParams{
			URL:      opt.TestURL,
			Interval: opt.TestInterval,
			Strategy: opt.LoadBalanceStrategy,
		}
	case model.GroupFallback:
		return model.FallbackParams{
			URL:      opt.TestURL,
			Interval: opt.TestInterval,
		}
	default:
		return model.SelectParams{}
	}
}
