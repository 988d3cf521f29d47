package httpapi

import "testing"

func TestOutputFileName(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"", "clash.yaml", false},
		{"  ", "clash.yaml", false},
		{"work", "work.yaml", false},
		{"work.yml", "work.yml", false},
		{".hidden", ".hidden.yaml", false},
		{"a/b", "", true},
		{`a\b`, "", true},
		{"a\r\nb", "", true},
	}
	for _, tt := range tests {
		got, err := outputFileName(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("outputFileName(%q) err=%v, wantErr=%v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Fatalf("outputFileName(%q)=%q, want=%q", tt.in, got, tt.want)
		}
	}
}

func TestContentDispositionAttachment_UTF8(t *testing.T) {
	got := contentDispositionAttachment(`我的 "配置".yaml`)
	want := `attachment; filename="我的 \"配置\".yaml"; filename*=UTF-8''%E6%88%91%E7%9A%84%20%22%E9%85%8D%E7%BD%AE%22.yaml`
	if got != want {
		t.Fatalf("got=%q\nwant=%q", got, want)
	}
}
