package blocks

type DNS struct {
	Enable                bool     `yaml:"enable"`
	IPv6                  bool     `yaml:"ipv6"`
	DefaultNameserver     []string `yaml:"default-nameserver"`
	Nameserver            []string `yaml:"nameserver"`
	ProxyServerNameserver []string `yaml:"proxy-server-nameserver"`
	DirectNameserver      []string `yaml:"direct-nameserver"`
	RespectRules          bool     `yaml:"respect-rules"`
}

// DefaultDNS resolves through DoH abroad and through domestic resolvers for
// proxy server names and direct traffic.
func DefaultDNS(ipv6 bool) DNS {
	domestic := []string{"https://dns.alidns.com/dns-query", "https://doh.pub/dns-query"}
	return DNS{
		Enable:                true,
		IPv6:                  ipv6,
		DefaultNameserver:     []string{"tls://223.5.5.5", "tls://223.6.6.6"},
		Nameserver:            []string{"https://cloudflare-dns.com/dns-query", "https://dns.google/dns-query"},
		ProxyServerNameserver: domestic,
		DirectNameserver:      append([]string(nil), domestic...),
		RespectRules:          true,
	}
}

type Profile struct {
	StoreSelected bool `yaml:"store-selected"`
	StoreFakeIP   bool `yaml:"store-fake-ip"`
}

func DefaultProfile() Profile {
	return Profile{StoreSelected: true, StoreFakeIP: true}
}

type GeoxURL struct {
	GeoIP   string `yaml:"geoip"`
	GeoSite string `yaml:"geosite"`
	MMDB    string `yaml:"mmdb"`
	ASN     string `yaml:"asn"`
}

func DefaultGeoxURL() GeoxURL {
	return GeoxURL{
		GeoIP:   "https://cdn.jsdelivr.net/gh/Loyalsoldier/v2ray-rules-dat@release/geoip.dat",
		GeoSite: "https://cdn.jsdelivr.net/gh/Loyalsoldier/v2ray-rules-dat@release/geosite.dat",
		MMDB:    "https://cdn.jsdelivr.net/gh/Loyalsoldier/geoip@release/Country.mmdb",
		ASN:     "https://cdn.jsdelivr.net/gh/Loyalsoldier/geoip@release/GeoLite2-ASN.mmdb",
	}
}

type TUN struct {
	Enable              bool     `yaml:"enable"`
	Stack               string   `yaml:"stack"`
	DNSHijack           []string `yaml:"dns-hijack"`
	AutoRoute           bool     `yaml:"auto-route"`
	AutoRedirect        bool     `yaml:"auto-redirect"`
	AutoDetectInterface bool     `yaml:"auto-detect-interface"`
	RouteExcludeAddress []string `yaml:"route-exclude-address"`
}

func DefaultTUN() TUN {
	return TUN{
		Enable:              true,
		Stack:               "mixed",
		DNSHijack:           []string{"any:53", "tcp://any:53"},
		AutoRoute:           true,
		AutoRedirect:        true,
		AutoDetectInterface: true,
		RouteExcludeAddress: []string{"172.26.0.0/16", "172.25.0.0/16"},
	}
}

type NTP struct {
	Enable        bool   `yaml:"enable"`
	WriteToSystem bool   `yaml:"write-to-system"`
	Server        string `yaml:"server"`
	Port          int    `yaml:"port"`
	Interval      int    `yaml:"interval"`
}

func DefaultNTP() NTP {
	return NTP{Enable: true, WriteToSystem: true, Server: "time.apple.com", Port: 123, Interval: 30}
}

type SniffPorts struct {
	Ports []int `yaml:"ports,flow"`
}

type Sniff struct {
	TLS  SniffPorts `yaml:"TLS"`
	HTTP SniffPorts `yaml:"HTTP"`
	QUIC SniffPorts `yaml:"QUIC"`
}

type Sniffer struct {
	Sniff               Sniff    `yaml:"sniff"`
	OverrideDestination bool     `yaml:"override-destination"`
	Enable              bool     `yaml:"enable"`
	ForceDNSMapping     bool     `yaml:"force-dns-mapping"`
	SkipDomain          []string `yaml:"skip-domain"`
}

func DefaultSniffer() Sniffer {
	return Sniffer{
		Sniff: Sniff{
			TLS:  SniffPorts{Ports: []int{443, 8443}},
			HTTP: SniffPorts{Ports: []int{80, 8080, 8880}},
			QUIC: SniffPorts{Ports: []int{443, 8443}},
		},
		Enable:          true,
		ForceDNSMapping: true,
		SkipDomain:      []string{"Mijia Cloud", "dlg.io.mi.com", "+.push.apple.com"},
	}
}
