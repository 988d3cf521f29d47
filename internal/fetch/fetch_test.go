package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestGet_SendsUserAgent(t *testing.T) {
	var gotUA string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte("proxies: []\n"))
	}))
	defer ts.Close()

	body, err := Get(context.Background(), KindConfig, ts.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(body) != "proxies: []\n" {
		t.Fatalf("body=%q", body)
	}
	if gotUA != DefaultUserAgent {
		t.Fatalf("user-agent=%q, want=%q", gotUA, DefaultUserAgent)
	}
}

func TestGet_Errors(t *testing.T) {
	large := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("a", 32)))
	}))
	defer large.Close()

	binary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 0xff is always invalid in UTF-8.
		_, _ = w.Write([]byte{0xff, 0xfe, 0xfd})
	}))
	defer binary.Close()

	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte("ok"))
	}))
	defer slow.Close()

	var loop *httptest.Server
	loop = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, loop.URL, http.StatusFound)
	}))
	defer loop.Close()

	toFile := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "file:///etc/passwd", http.StatusFound)
	}))
	defer toFile.Close()

	notFound := httptest.NewServer(http.NotFoundHandler())
	defer notFound.Close()

	cases := []struct {
		name   string
		kind   Kind
		url    string
		opt    Options
		status int
		code   string
		stage  string
	}{
		{"unsupported scheme", KindConfig, "file:///etc/passwd", Options{}, http.StatusBadRequest, "INVALID_ARGUMENT", "fetch_config"},
		{"too large", KindProvider, large.URL, Options{MaxBytes: 10}, http.StatusUnprocessableEntity, "TOO_LARGE", "fetch_provider"},
		{"invalid utf8", KindProvider, binary.URL, Options{}, http.StatusUnprocessableEntity, "FETCH_INVALID_UTF8", "fetch_provider"},
		{"timeout", KindConfig, slow.URL, Options{Timeout: 50 * time.Millisecond}, http.StatusGatewayTimeout, "FETCH_TIMEOUT", "fetch_config"},
		{"too many redirects", KindConfig, loop.URL, Options{MaxRedirects: 2}, http.StatusBadGateway, "FETCH_FAILED", "fetch_config"},
		{"redirect to non-http", KindConfig, toFile.URL, Options{}, http.StatusBadRequest, "INVALID_ARGUMENT", "fetch_config"},
		{"upstream 404", KindProvider, notFound.URL, Options{}, http.StatusBadGateway, "FETCH_FAILED", "fetch_provider"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := GetWithOptions(context.Background(), tc.kind, tc.url, tc.opt)
			var fe *FetchError
			if !errors.As(err, &fe) {
				t.Fatalf("expected *FetchError, got %T: %v", err, err)
			}
			if fe.Status != tc.status {
				t.Fatalf("status=%d, want=%d", fe.Status, tc.status)
			}
			if fe.AppError.Code != tc.code {
				t.Fatalf("code=%q, want=%q", fe.AppError.Code, tc.code)
			}
			if fe.AppError.Stage != tc.stage {
				t.Fatalf("stage=%q, want=%q", fe.AppError.Stage, tc.stage)
			}
		})
	}
}
