package render

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"

	"github.com/John-Robertt/clash-override/internal/model"
	"github.com/John-Robertt/clash-override/internal/options"
)

const baseConfig = `# generated by my provider
port: 7890
rules:
  - MATCH,DIRECT
proxies:
  - {name: "HK-01", type: ss, server: hk.example, port: 443, cipher: aes-128-gcm, password: "123"}
  - {name: "剩余流量：10G", type: ss, server: x, port: 1}
  - {name: "US-UK relay", type: trojan, server: us.example, port: 443, password: p}
  - {name: "Mars-1", type: vmess, server: m.example, port: 8443, uuid: 00000000-0000-0000-0000-000000000000}
`

type renderedConfig struct {
	Port int `yaml:"port"`
	DNS  struct {
		IPv6 bool `yaml:"ipv6"`
	} `yaml:"dns"`
	MixedPort   int              `yaml:"mixed-port"`
	Proxies     []map[string]any `yaml:"proxies"`
	ProxyGroups []map[string]any `yaml:"proxy-groups"`
	Rules       []string         `yaml:"rules"`
}

func run(t *testing.T, src string, opt options.Options) Output {
	t.Helper()
	out, err := Run(context.Background(), Input{Source: []byte(src), Options: opt})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return out
}

func TestRun_OverridesBaseConfig(t *testing.T) {
	opt := options.Default()
	opt.IPv6 = true
	out := run(t, baseConfig, opt)
	if out.Unchanged {
		t.Fatalf("expected config to be overridden")
	}

	doc, err := Parse(out.YAML)
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	want := []string{
		"port", "rules", "proxies",
		"dns", "profile", "geodata-mode", "geo-auto-update", "geo-update-interval",
		"geox-url", "tun", "ntp", "rule-providers", "sniffer", "proxy-groups",
	}
	if diff := cmp.Diff(want, doc.Keys()); diff != "" {
		t.Fatalf("key order mismatch (-want +got):\n%s", diff)
	}

	var cfg renderedConfig
	if err := yaml.Unmarshal(out.YAML, &cfg); err != nil {
		t.Fatalf("unmarshal output: %v", err)
	}
	if cfg.Port != 7890 || cfg.MixedPort != 0 {
		t.Fatalf("port=%d mixed-port=%d", cfg.Port, cfg.MixedPort)
	}
	if !cfg.DNS.IPv6 {
		t.Fatalf("dns.ipv6 should mirror the ipv6 argument")
	}
	if len(cfg.Proxies) != 3 {
		t.Fatalf("proxies=%d, want=3", len(cfg.Proxies))
	}
	if cfg.Proxies[0]["password"] != "123" {
		t.Fatalf("password=%#v, want string \"123\"", cfg.Proxies[0]["password"])
	}
	if cfg.ProxyGroups[0]["name"] != "节点选择" {
		t.Fatalf("first group=%v", cfg.ProxyGroups[0]["name"])
	}
	if cfg.Rules[len(cfg.Rules)-1] != "MATCH,节点选择" {
		t.Fatalf("last rule=%q", cfg.Rules[len(cfg.Rules)-1])
	}
	if !strings.HasPrefix(string(out.YAML), "# generated by my provider") {
		t.Fatalf("head comment lost:\n%s", out.YAML)
	}
}

func TestRun_FullModeAppendsKeys(t *testing.T) {
	opt := options.Default()
	opt.Full = true
	out := run(t, baseConfig, opt)

	var cfg renderedConfig
	if err := yaml.Unmarshal(out.YAML, &cfg); err != nil {
		t.Fatalf("unmarshal output: %v", err)
	}
	if cfg.MixedPort != 7890 {
		t.Fatalf("mixed-port=%d, want=7890", cfg.MixedPort)
	}
}

func TestRun_NoProxiesReturnsInputUnchanged(t *testing.T) {
	for _, src := range []string{"", "port: 7890\n", "proxies: []\nproxy-providers:\n  a: {path: ./nope.yaml}\n"} {
		out := run(t, src, options.Default())
		if !out.Unchanged {
			t.Fatalf("%q: expected unchanged", src)
		}
		if string(out.YAML) != src {
			t.Fatalf("output=%q, want=%q", out.YAML, src)
		}
	}
}

func TestRun_AllNoiseStillOverrides(t *testing.T) {
	out := run(t, "proxies:\n  - {name: 官网 example.com, type: ss}\n", options.Default())
	if out.Unchanged {
		t.Fatalf("expected override")
	}
	if len(out.Result.Groups) != 1 {
		t.Fatalf("groups=%d, want=1", len(out.Result.Groups))
	}
	var cfg renderedConfig
	if err := yaml.Unmarshal(out.YAML, &cfg); err != nil {
		t.Fatalf("unmarshal output: %v", err)
	}
	if len(cfg.Proxies) != 0 {
		t.Fatalf("proxies=%v, want empty", cfg.Proxies)
	}
}

func TestRun_MalformedProvidersAreNotFatal(t *testing.T) {
	for _, section := range []string{
		"proxy-providers:\n",
		"proxy-providers: []\n",
		"proxy-providers:\n  p1: {type: file, path: [a, b]}\n",
	} {
		src := "proxies:\n  - {name: HK-01, type: ss, server: a, port: 1}\n" + section
		out, err := Run(context.Background(), Input{Source: []byte(src), Options: options.Default()})
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", section, err)
		}
		if out.Unchanged || len(out.Result.Proxies) != 1 {
			t.Fatalf("%q: expected an overridden config with one proxy", section)
		}
		if out.Result.Groups[1].Name != "香港" {
			t.Fatalf("%q: groups=%v", section, out.Result.Groups)
		}
	}
}

func TestRun_InvalidConfig(t *testing.T) {
	for _, src := range []string{"- a\n- b\n", "proxies: {a: 1}\n", "proxies:\n  - {type: ss}\n", "a: [\n"} {
		_, err := Run(context.Background(), Input{Source: []byte(src), Options: options.Default()})
		var re *RenderError
		if !errors.As(err, &re) {
			t.Fatalf("%q: expected *RenderError, got %T: %v", src, err, err)
		}
		if re.AppError.Stage != "parse_config" {
			t.Fatalf("%q: stage=%q, want=%q", src, re.AppError.Stage, "parse_config")
		}
	}
}

func TestGroupNode_KindFields(t *testing.T) {
	cases := []struct {
		g    model.Group
		want string
	}{
		{
			model.Group{Name: "A", Members: []string{"n1"}},
			"name: A\ntype: select\nproxies:\n  - n1\n",
		},
		{
			model.Group{Name: "B", Icon: "i", Members: []string{"n1"}, Params: model.URLTestParams{Lazy: true, URL: "http://t", Interval: 300, Tolerance: 50}},
			"name: B\ntype: url-test\nicon: i\nproxies:\n  - n1\nlazy: true\nurl: http://t\ninterval: 300\ntolerance: 50\n",
		},
		{
			model.Group{Name: "C", Members: []string{"n1"}, Params: model.LoadBalanceParams{URL: "http://t", Interval: 60, Strategy: "round-robin"}},
			"name: C\ntype: load-balance\nproxies:\n  - n1\nurl: http://t\ninterval: 60\nstrategy: round-robin\n",
		},
		{
			model.Group{Name: "D", Members: []string{"n1"}, Params: model.FallbackParams{URL: "http://t", Interval: 60}},
			"name: D\ntype: fallback\nproxies:\n  - n1\nurl: http://t\ninterval: 60\n",
		},
	}
	for _, tc := range cases {
		n, err := groupNode(tc.g)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var sb strings.Builder
		enc := yaml.NewEncoder(&sb)
		enc.SetIndent(2)
		if err := enc.Encode(n); err != nil {
			t.Fatalf("encode: %v", err)
		}
		if diff := cmp.Diff(tc.want, sb.String()); diff != "" {
			t.Fatalf("group %q mismatch (-want +got):\n%s", tc.g.Name, diff)
		}
	}
}

func TestDocument_SetOverwritesInPlace(t *testing.T) {
	doc, err := Parse([]byte("a: 1\nb: 2\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := doc.Set("a", "x"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := doc.Set("c", 3); err != nil {
		t.Fatalf("set: %v", err)
	}
	out, err := doc.Bytes()
	if err != nil {
		t.Fatalf("bytes: %v", err)
	}
	if string(out) != "a: x\nb: 2\nc: 3\n" {
		t.Fatalf("output=%q", out)
	}
}
