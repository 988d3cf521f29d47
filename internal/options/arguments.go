package options

import (
	"net/url"
	"strconv"
	"strings"
)

// Arguments are the per-invocation switches. They arrive as loosely typed
// strings (query parameters, CLI flags) and are coerced leniently: a value
// that does not parse falls back to the default instead of failing.
type Arguments struct {
	IPv6            bool
	Full            bool
	KeepAlive       bool
	Threshold       int
	RegionGroupOnly bool
	RegionGroupType string
}

// Argument names as accepted on the query string and the command line.
const (
	ArgIPv6            = "ipv6"
	ArgFull            = "full"
	ArgKeepAlive       = "keepalive"
	ArgThreshold       = "threshold"
	ArgRegionGroupOnly = "regiongrouponly"
	ArgRegionGroupType = "regiongrouptype"
)

// ArgumentNames lists every recognized argument.
var ArgumentNames = []string{ArgIPv6, ArgFull, ArgKeepAlive, ArgThreshold, ArgRegionGroupOnly, ArgRegionGroupType}

func DefaultArguments() Arguments {
	return Arguments{RegionGroupType: "select"}
}

// ParseArguments coerces raw values over base. Keys absent from raw keep the
// value from base.
func ParseArguments(base Arguments, raw map[string]string) Arguments {
	out := base
	if v, ok := raw[ArgIPv6]; ok {
		out.IPv6 = ParseBool(v)
	}
	if v, ok := raw[ArgFull]; ok {
		out.Full = ParseBool(v)
	}
	if v, ok := raw[ArgKeepAlive]; ok {
		out.KeepAlive = ParseBool(v)
	}
	if v, ok := raw[ArgThreshold]; ok {
		out.Threshold = ParseNumber(v, base.Threshold)
	}
	if v, ok := raw[ArgRegionGroupOnly]; ok {
		out.RegionGroupOnly = ParseBool(v)
	}
	if v, ok := raw[ArgRegionGroupType]; ok && strings.TrimSpace(v) != "" {
		out.RegionGroupType = strings.TrimSpace(v)
	}
	return out
}

// ArgumentsFromQuery reads the recognized arguments out of a query string.
// Only the first value of a repeated key is used.
func ArgumentsFromQuery(base Arguments, q url.Values) Arguments {
	raw := make(map[string]string, len(ArgumentNames))
	for _, k := range ArgumentNames {
		if _, ok := q[k]; ok {
			raw[k] = q.Get(k)
		}
	}
	return ParseArguments(base, raw)
}

// ParseBool accepts "true" (any case) and "1"; everything else is false.
func ParseBool(s string) bool {
	s = strings.TrimSpace(s)
	return strings.EqualFold(s, "true") || s == "1"
}

// ParseNumber reads a leading base-10 integer ("12abc" is 12) and returns def
// when there is none.
func ParseNumber(s string, def int) int {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return def
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return def
	}
	return n
}
