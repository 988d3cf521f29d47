package compiler

import (
	"github.com/samber/lo"

	"github.com/John-Robertt/clash-override/internal/catalog"
	"github.com/John-Robertt/clash-override/internal/model"
)

// Bucket is the set of nodes one region matched, in accepted order.
type Bucket struct {
	Region catalog.Region
	Nodes  []model.Node
}

// Classification is the output of Classify.
//
// Buckets may overlap: each region is matched independently, so a name such
// as "US-UK relay" lands in both the US and UK buckets.
type Classification struct {
	Buckets   []Bucket
	Unmatched []model.Node
}

// Classify partitions nodes into region buckets, in region order.
//
// Unmatched holds the nodes no region matched at all. It is computed before
// threshold suppression: when threshold > 0, a bucket with fewer members is
// dropped and its nodes do not reappear in Unmatched.
func Classify(nodes []model.Node, regions []catalog.Region, threshold int) Classification {
	matched := make(map[string]struct{}, len(nodes))
	buckets := make([]Bucket, 0, len(regions))

	for _, region := range regions {
		members := lo.Filter(nodes, func(n model.Node, _ int) bool {
			return region.Match(n.Name)
		})
		if len(members) == 0 {
			continue
		}
		for _, n := range members {
			matched[n.Name] = struct{}{}
		}
		if threshold > 0 && len(members) < threshold {
			continue
		}
		buckets = append(buckets, Bucket{Region: region, Nodes: members})
	}

	unmatched := lo.Reject(nodes, func(n model.Node, _ int) bool {
		_, ok := matched[n.Name]
		return ok
	})
	return Classification{Buckets: buckets, Unmatched: unmatched}
}
