package options

import (
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/viper"

	"github.com/John-Robertt/clash-override/internal/model"
)

func TestParseBool(t *testing.T) {
	cases := map[string]bool{
		"true": true, "TRUE": true, " True ": true, "1": true,
		"false": false, "0": false, "yes": false, "": false, "on": false,
	}
	for in, want := range cases {
		if got := ParseBool(in); got != want {
			t.Fatalf("ParseBool(%q)=%v, want=%v", in, got, want)
		}
	}
}

func TestParseNumber(t *testing.T) {
	cases := []struct {
		in   string
		def  int
		want int
	}{
		{"3", 0, 3},
		{" 12abc", 0, 12},
		{"-2", 0, -2},
		{"abc", 7, 7},
		{"", 5, 5},
		{"+", 1, 1},
		{"99999999999999999999999", 4, 4},
	}
	for _, tc := range cases {
		if got := ParseNumber(tc.in, tc.def); got != tc.want {
			t.Fatalf("ParseNumber(%q, %d)=%d, want=%d", tc.in, tc.def, got, tc.want)
		}
	}
}

func TestArgumentsFromQuery(t *testing.T) {
	q, err := url.ParseQuery("ipv6=1&full=true&threshold=2&regiongrouponly=TRUE&regiongrouptype=url-test&unknown=1")
	if err != nil {
		t.Fatalf("parse query: %v", err)
	}
	got := ArgumentsFromQuery(DefaultArguments(), q)
	want := Arguments{IPv6: true, Full: true, Threshold: 2, RegionGroupOnly: true, RegionGroupType: "url-test"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("arguments mismatch (-want +got):\n%s", diff)
	}
}

func TestArgumentsFromQuery_AbsentKeepsBase(t *testing.T) {
	base := DefaultArguments()
	base.Threshold = 3
	got := ArgumentsFromQuery(base, url.Values{"threshold": {"x"}, "regiongrouptype": {""}})
	if got.Threshold != 3 || got.RegionGroupType != "select" {
		t.Fatalf("arguments=%+v", got)
	}
}

func TestValidate_Defaults(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_Rejects(t *testing.T) {
	cases := []struct {
		name string
		mut  func(*Options)
	}{
		{"empty main", func(o *Options) { o.MainGroupName = " " }},
		{"sentinel main", func(o *Options) { o.MainGroupName = "DIRECT" }},
		{"region main", func(o *Options) { o.MainGroupName = "香港" }},
		{"unmatched main", func(o *Options) { o.MainGroupName = "其他节点" }},
		{"bad test url", func(o *Options) { o.TestURL = "ftp://example.com" }},
		{"zero interval", func(o *Options) { o.TestInterval = 0 }},
		{"bad cidr", func(o *Options) {
			o.PrivateTrust.Enabled = true
			o.PrivateTrust.CIDRs = []string{"172.25.0.0"}
		}},
		{"bad port", func(o *Options) {
			o.PrivateTrust.Enabled = true
			o.PrivateTrust.Port = 70000
		}},
		{"private group collides", func(o *Options) {
			o.PrivateTrust.Enabled = true
			o.MainGroupName = "aTrust"
		}},
		{"private group is a region", func(o *Options) {
			o.PrivateTrust.Enabled = true
			o.PrivateTrust.GroupName = "香港"
		}},
		{"private group is the unmatched group", func(o *Options) {
			o.PrivateTrust.Enabled = true
			o.PrivateTrust.GroupName = "其他节点"
		}},
		{"unknown rule provider", func(o *Options) {
			o.ExtraRules = []string{"RULE-SET,foo,DIRECT"}
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			o := Default()
			tc.mut(&o)
			err := o.Validate()
			var oe *OptionsError
			if !errors.As(err, &oe) {
				t.Fatalf("expected *OptionsError, got %T: %v", err, err)
			}
			if oe.AppError.Stage != "validate_options" {
				t.Fatalf("stage=%q, want=%q", oe.AppError.Stage, "validate_options")
			}
		})
	}
}

func TestValidate_ExtraRules(t *testing.T) {
	o := Default()
	o.ExtraRules = []string{"MATCH,DIRECT"}
	if err := o.Validate(); err == nil {
		t.Fatalf("expected error")
	}

	o.ExtraRules = []string{"RULE-SET,cncidr,DIRECT,no-resolve", "RULE-SET,customProxy,REJECT"}
	if err := o.Validate(); err != nil {
		t.Fatalf("known rule providers should pass: %v", err)
	}

	o.ExtraRules = []string{"RULE-SET,foo,DIRECT"}
	var oe *OptionsError
	if err := o.Validate(); !errors.As(err, &oe) || oe.AppError.Code != "REFERENCE_NOT_FOUND" {
		t.Fatalf("err=%v, want REFERENCE_NOT_FOUND", err)
	}
}

func TestCompiler(t *testing.T) {
	o := Default()
	o.RegionGroupOnly = true
	o.Threshold = -1
	o.ExtraRules = []string{"DOMAIN-SUFFIX,corp.example,DIRECT"}
	o.PrivateTrust.Enabled = true

	got, err := o.Compiler()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Threshold != 0 {
		t.Fatalf("threshold=%d, want=0", got.Threshold)
	}
	if got.Groups.IncludeAllNodes {
		t.Fatalf("regiongrouponly must disable IncludeAllNodes")
	}
	if len(got.ExtraRules) != 1 || got.ExtraRules[0].Type != "DOMAIN-SUFFIX" {
		t.Fatalf("extra rules=%+v", got.ExtraRules)
	}
	if got.PrivateTrust == nil {
		t.Fatalf("expected private trust overlay")
	}
	want := model.Node{Name: "socks5", Type: "socks5", Fields: map[string]any{"server": "127.0.0.1", "port": 1080}}
	if diff := cmp.Diff(want, got.PrivateTrust.Node); diff != "" {
		t.Fatalf("node mismatch (-want +got):\n%s", diff)
	}
}

func TestFromViper_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clash-override.yaml")
	content := "" +
		"threshold: 2\n" +
		"regiongrouptype: fallback\n" +
		"main-group-name: PROXY\n" +
		"private-trust:\n" +
		"  enabled: true\n" +
		"  cidrs: [10.0.0.0/8]\n" +
		"extra-rules:\n" +
		"  - DOMAIN,a.example,DIRECT\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	v := viper.New()
	SetDefaults(v)
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		t.Fatalf("read config: %v", err)
	}
	got, err := FromViper(v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Threshold != 2 || got.RegionGroupType != "fallback" || got.MainGroupName != "PROXY" {
		t.Fatalf("options=%+v", got)
	}
	if !got.PrivateTrust.Enabled || got.PrivateTrust.Server != "127.0.0.1" {
		t.Fatalf("private trust=%+v", got.PrivateTrust)
	}
	if diff := cmp.Diff([]string{"10.0.0.0/8"}, got.PrivateTrust.CIDRs); diff != "" {
		t.Fatalf("cidrs mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"DOMAIN,a.example,DIRECT"}, got.ExtraRules); diff != "" {
		t.Fatalf("extra rules mismatch (-want +got):\n%s", diff)
	}
}

func TestFromViper_LenientArguments(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set(ArgThreshold, "3x")
	v.Set(ArgIPv6, "1")
	got, err := FromViper(v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Threshold != 3 || !got.IPv6 {
		t.Fatalf("arguments=%+v", got.Arguments)
	}
}
