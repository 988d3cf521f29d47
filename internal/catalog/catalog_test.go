package catalog

import (
	"testing"

	"github.com/John-Robertt/clash-override/internal/model"
)

func TestRegions_OrderAndCodes(t *testing.T) {
	want := []string{"HK", "TW", "SG", "JP", "US", "DE", "KR", "UK", "CA", "AU", "FR", "NL"}
	got := Regions()
	if len(got) != len(want) {
		t.Fatalf("regions=%d, want=%d", len(got), len(want))
	}
	for i, r := range got {
		if r.Code != want[i] {
			t.Fatalf("regions[%d].Code=%q, want=%q", i, r.Code, want[i])
		}
	}
	if got[0].Type != model.GroupSelect {
		t.Fatalf("HK type=%v, want select", got[0].Type)
	}
	if got[1].Type != 0 {
		t.Fatalf("TW type=%v, want unset", got[1].Type)
	}
}

func TestRegions_ReturnsCopy(t *testing.T) {
	a := Regions()
	a[0].Name = "changed"
	if Regions()[0].Name != "香港" {
		t.Fatalf("Regions() exposed the package table")
	}
}

func TestRegion_Match(t *testing.T) {
	regions := Regions()
	byCode := make(map[string]Region, len(regions))
	for _, r := range regions {
		byCode[r.Code] = r
	}

	tests := []struct {
		code string
		name string
		want bool
	}{
		{"HK", "HK-01", true},
		{"HK", "hk 02", true},
		{"HK", "🇭🇰 香港 IPLC", true},
		{"HK", "Hong Kong BGP", true},
		{"JP", "东京 01", true},
		{"US", "美國 洛杉矶", true},
		{"US", "United States", true},
		{"SG", "狮城", true},
		{"SG", "Tokyo", false},
		{"NL", "Amsterdam", false},
		{"US", "🇺🇸 LA 01", true},
		{"HK", "HK\n01", true},
	}
	for _, tt := range tests {
		if got := byCode[tt.code].Match(tt.name); got != tt.want {
			t.Fatalf("%s.Match(%q)=%v, want %v", tt.code, tt.name, got, tt.want)
		}
	}
}

func TestNewRegion_QuotesMeta(t *testing.T) {
	r := NewRegion("X", "X", 0, "a.b")
	if r.Match("axb") {
		t.Fatalf("'.' should be literal")
	}
	if !r.Match("A.B-1") {
		t.Fatalf("expected case-insensitive literal match")
	}
}

func TestIconURL(t *testing.T) {
	if got, want := IconURL("HK"), "https://cdn.jsdelivr.net/gh/Orz-3/mini@master/Color/HK.png"; got != want {
		t.Fatalf("IconURL=%q, want=%q", got, want)
	}
}

func TestIsNoise(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"机场到期提醒", true},
		{"剩余流量：100G", true},
		{"Expiring: 2025-01-01", true},
		{"官网 example.com", true},
		{"TG Channel", true},
		{"HK-01", false},
		{"🇯🇵 日本 01", false},
		{"", false},
		{"hk-SUB-01", true},
		{"HK-01\n", true},
		{"HK\r\n01", true},
		{"a+b (IPLC) [x]", false},
	}
	for _, tt := range tests {
		if got := IsNoise(tt.name); got != tt.want {
			t.Fatalf("IsNoise(%q)=%v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestNewNoiseFilter_Empty(t *testing.T) {
	f := NewNoiseFilter([]string{"", "  "})
	if f.IsNoise("anything") || f.IsNoise("") {
		t.Fatalf("empty keyword list should report nothing as noise")
	}
}

func TestNewNoiseFilter_EscapesKeywords(t *testing.T) {
	f := NewNoiseFilter([]string{"a.b", "(x)"})
	if f.IsNoise("axb") {
		t.Fatalf("'.' should be literal")
	}
	if !f.IsNoise("node A.B 1") || !f.IsNoise("node (X)") {
		t.Fatalf("expected case-insensitive literal keyword match")
	}
}
