package catalog

import (
	"strings"

	"github.com/dlclark/regexp2"
)

// NoiseKeywords are the substrings (Chinese and English) that mark a
// subscription entry as a notice rather than a usable node: expiry dates,
// remaining traffic, support channels and the like.
var NoiseKeywords = []string{
	"官网", "套餐", "流量", "expiring", "剩余", "时间", "重置", "URL", "到期",
	"过期", "机场", "group", "sub", "订阅", "查询", "续费", "观看", "频道",
	"客服", "M3U", "车费", "车友", "上车", "通知", "公告", "严禁", "未知",
	"Channel",
}

var defaultNoise = NewNoiseFilter(NoiseKeywords)

// NoiseFilter keeps a name only when its whole text matches
// ^(?!.*(kw1|kw2|...)).*$. Under ECMAScript semantics '.' stops at line
// terminators, so a name spanning several lines is noise as well.
type NoiseFilter struct {
	accept *regexp2.Regexp
}

// NewNoiseFilter compiles the accept pattern over keywords. An empty keyword
// list yields a filter that reports nothing as noise.
func NewNoiseFilter(keywords []string) NoiseFilter {
	quoted := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.TrimSpace(k); k != "" {
			quoted = append(quoted, regexp2.Escape(k))
		}
	}
	if len(quoted) == 0 {
		return NoiseFilter{}
	}
	return NoiseFilter{
		accept: regexp2.MustCompile(`^(?!.*(`+strings.Join(quoted, "|")+`)).*$`, matchOptions),
	}
}

// IsNoise reports whether name fails the accept pattern.
func (f NoiseFilter) IsNoise(name string) bool {
	if f.accept == nil {
		return false
	}
	m, err := f.accept.FindStringMatch(name)
	if err != nil || m == nil {
		return true
	}
	// The match must span the whole name, as RegExp.test would require
	// with both anchors and no multiline flag.
	return m.String() != name
}

// IsNoise reports whether name is noise under the default keywords.
func IsNoise(name string) bool {
	return defaultNoise.IsNoise(name)
}
