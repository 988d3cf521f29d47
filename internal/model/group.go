package model

import "strings"

// GroupKind is the selection strategy of a proxy group.
type GroupKind int

const (
	GroupSelect GroupKind = iota + 1
	GroupURLTest
	GroupLoadBalance
	GroupFallback
)

// String returns the Clash spelling of k.
func (k GroupKind) String() string {
	switch k {
	case GroupSelect:
		return "select"
	case GroupURLTest:
		return "url-test"
	case GroupLoadBalance:
		return "load-balance"
	case GroupFallback:
		return "fallback"
	default:
		return ""
	}
}

// Valid reports whether k is one of the four recognized kinds.
func (k GroupKind) Valid() bool {
	return k >= GroupSelect && k <= GroupFallback
}

// ParseGroupKind maps the Clash spelling back to a kind. Matching is exact
// after trimming; Clash itself is case-sensitive here.
func ParseGroupKind(s string) (GroupKind, bool) {
	switch strings.TrimSpace(s) {
	case "select":
		return GroupSelect, true
	case "url-test":
		return GroupURLTest, true
	case "load-balance":
		return GroupLoadBalance, true
	case "fallback":
		return GroupFallback, true
	default:
		return 0, false
	}
}

// GroupParams carries the kind-specific fields of a group. The set of
// implementations is closed: SelectParams, URLTestParams, LoadBalanceParams
// and FallbackParams.
type GroupParams interface {
	Kind() GroupKind
	isGroupParams()
}

type SelectParams struct{}

type URLTestParams struct {
	Lazy      bool
	URL       string
	Interval  int // seconds
	Tolerance int // milliseconds
}

type LoadBalanceParams struct {
	URL      string
	Interval int
	Strategy string
}

type FallbackParams struct {
	URL      string
	Interval int
}

func (SelectParams) Kind() GroupKind      { return GroupSelect }
func (URLTestParams) Kind() GroupKind     { return GroupURLTest }
func (LoadBalanceParams) Kind() GroupKind { return GroupLoadBalance }
func (FallbackParams) Kind() GroupKind    { return GroupFallback }

func (SelectParams) isGroupParams()      {}
func (URLTestParams) isGroupParams()     {}
func (LoadBalanceParams) isGroupParams() {}
func (FallbackParams) isGroupParams()    {}

// Group is one entry of proxy-groups.
type Group struct {
	Name    string
	Icon    string
	Members []string // node names / group names / DIRECT / REJECT
	Params  GroupParams
}

// Kind returns the group's kind; a group without params is a select group.
func (g Group) Kind() GroupKind {
	if g.Params == nil {
		return GroupSelect
	}
	return g.Params.Kind()
}
