// Package catalog holds the static tables the classifier works from: the
// ordered region list and the noise keywords that mark informational
// entries in a subscription.
package catalog

import (
	"strings"

	"github.com/dlclark/regexp2"

	"github.com/John-Robertt/clash-override/internal/model"
)

// matchOptions gives patterns JavaScript RegExp semantics with the i flag.
const matchOptions = regexp2.ECMAScript | regexp2.IgnoreCase

const iconBase = "https://cdn.jsdelivr.net/gh/Orz-3/mini@master/Color/"

// Region buckets nodes whose name matches Matcher. Name doubles as the group
// name, Code selects the icon.
type Region struct {
	Code    string
	Name    string
	Matcher *regexp2.Regexp

	// Type is the region's own default kind; zero means unset.
	Type model.GroupKind
}

// Icon returns the region's flag icon URL.
func (r Region) Icon() string {
	return IconURL(r.Code)
}

// Match reports whether a node name belongs to the region.
func (r Region) Match(name string) bool {
	if r.Matcher == nil {
		return false
	}
	ok, err := r.Matcher.MatchString(name)
	return err == nil && ok
}

// IconURL returns the icon URL for an icon code such as "HK" or "Global".
func IconURL(code string) string {
	return iconBase + code + ".png"
}

// NewRegion compiles a case-insensitive alternation over terms. Terms are
// literal; regexp metacharacters in them are escaped.
func NewRegion(code, name string, typ model.GroupKind, terms ...string) Region {
	quoted := make([]string, 0, len(terms))
	for _, t := range terms {
		quoted = append(quoted, regexp2.Escape(t))
	}
	return Region{
		Code:    code,
		Name:    name,
		Matcher: regexp2.MustCompile(`(`+strings.Join(quoted, "|")+`)`, matchOptions),
		Type:    typ,
	}
}

var defaultRegions = []Region{
	NewRegion("HK", "香港", model.GroupSelect, "香港", "HK", "Hong Kong", "🇭🇰"),
	NewRegion("TW", "台湾", 0, "台湾", "台灣", "TW", "Taiwan", "🇹🇼"),
	NewRegion("SG", "新加坡", 0, "新加坡", "狮城", "SG", "Singapore", "🇸🇬"),
	NewRegion("JP", "日本", 0, "日本", "JP", "Japan", "东京", "🇯🇵"),
	NewRegion("US", "美国", 0, "美国", "美國", "US", "USA", "United States", "America", "🇺🇸"),
	NewRegion("DE", "德国", 0, "德国", "DE", "Germany", "🇩🇪"),
	NewRegion("KR", "韩国", 0, "韩国", "韓國", "KR", "Korea", "South Korea", "🇰🇷"),
	NewRegion("UK", "英国", 0, "英国", "UK", "United Kingdom", "🇬🇧"),
	NewRegion("CA", "加拿大", 0, "加拿大", "CA", "Canada", "🇨🇦"),
	NewRegion("AU", "澳大利亚", 0, "澳大利亚", "AU", "Australia", "🇦🇺"),
	NewRegion("FR", "法国", 0, "法国", "FR", "France", "🇫🇷"),
	NewRegion("NL", "荷兰", 0, "荷兰", "NL", "Netherlands", "🇳🇱"),
}

// Regions returns a copy of the default region catalog in its fixed order.
func Regions() []Region {
	out := make([]Region, len(defaultRegions))
	copy(out, defaultRegions)
	return out
}
