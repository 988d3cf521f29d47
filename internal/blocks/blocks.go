// Package blocks holds the static top-level sections written into every
// overridden config: DNS, TUN, NTP, sniffer, profile, geodata, the
// rule-provider catalog, and the extra keys of full mode.
package blocks

// Options selects the argument-dependent parts of the static blocks.
type Options struct {
	IPv6      bool
	Full      bool
	KeepAlive bool
}

// Entry is one top-level key of the emitted config.
type Entry struct {
	Key   string
	Value any
}

// Build returns the static top-level entries in emission order: full-mode
// keys first (when enabled), then the always-present sections.
func Build(opt Options) []Entry {
	out := make([]Entry, 0, 24)
	if opt.Full {
		out = append(out, fullMode(opt)...)
	}
	return append(out,
		Entry{"dns", DefaultDNS(opt.IPv6)},
		Entry{"profile", DefaultProfile()},
		Entry{"geodata-mode", true},
		Entry{"geo-auto-update", true},
		Entry{"geo-update-interval", 24},
		Entry{"geox-url", DefaultGeoxURL()},
		Entry{"tun", DefaultTUN()},
		Entry{"ntp", DefaultNTP()},
		Entry{"rule-providers", DefaultRuleProviders()},
		Entry{"sniffer", DefaultSniffer()},
	)
}

func fullMode(opt Options) []Entry {
	return []Entry{
		{"mixed-port", 7890},
		{"redir-port", 7892},
		{"tproxy-port", 7893},
		{"routing-mark", 7894},
		{"allow-lan", true},
		{"ipv6", opt.IPv6},
		{"mode", "rule"},
		{"unified-delay", true},
		{"tcp-concurrent", true},
		{"find-process-mode", "off"},
		{"log-level", "info"},
		{"geodata-loader", "standard"},
		{"external-controller", ":9999"},
		{"disable-keep-alive", !opt.KeepAlive},
	}
}
