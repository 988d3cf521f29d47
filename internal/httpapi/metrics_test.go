package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/John-Robertt/clash-override/internal/options"
)

func TestMetrics_CountsRequestsAndErrors(t *testing.T) {
	metrics = newMetricsStore()
	h := NewHandler()

	// 1) ok request
	{
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("healthz status=%d body=%q", rr.Code, rr.Body.String())
		}
	}

	// 2) error request
	{
		req := httptest.NewRequest(http.MethodGet, "/override", nil) // missing url => validate_request error
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("override status=%d body=%q", rr.Code, rr.Body.String())
		}
	}

	// 3) rendered override
	{
		req := httptest.NewRequest(http.MethodPost, "/api/override", strings.NewReader(testConfig))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("post status=%d body=%q", rr.Code, rr.Body.String())
		}
	}

	// 4) metrics snapshot (the /metrics request itself isn't counted inside its own response).
	{
		req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("metrics status=%d body=%q", rr.Code, rr.Body.String())
		}

		body := rr.Body.String()
		for _, want := range []string{
			"clash_override_http_requests_total 3\n",
			`pattern="GET /healthz",status="200"} 1`,
			`pattern="GET /override",status="400"} 1`,
			`pattern="POST /api/override",status="200"} 1`,
			`clash_override_app_errors_total{stage="validate_request",code="INVALID_ARGUMENT"} 1`,
			`clash_override_overrides_total{result="rendered"} 1`,
		} {
			if !strings.Contains(body, want) {
				t.Fatalf("metrics body missing %q, got:\n%s", want, body)
			}
		}
	}
}

func TestMetrics_ProviderFailuresUnlabeled(t *testing.T) {
	metrics = newMetricsStore()
	defaults := options.Default()
	defaults.FetchRemoteProviders = true
	h := NewMuxWithOptions(Options{Defaults: defaults})

	for _, name := range []string{"first", "second"} {
		src := "proxies:\n  - {name: HK-01, type: ss, server: a, port: 1}\n" +
			"proxy-providers:\n  " + name + ": {type: http, url: ftp://example.invalid/p.yaml}\n"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/override", strings.NewReader(src)))
		if rr.Code != http.StatusOK {
			t.Fatalf("status=%d body=%q", rr.Code, rr.Body.String())
		}
		if got := rr.Header().Get(providerFailuresHeader); got != name {
			t.Fatalf("%s=%q, want=%q", providerFailuresHeader, got, name)
		}
	}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rr.Body.String()
	if !strings.Contains(body, "clash_override_provider_failures_total 2\n") {
		t.Fatalf("metrics body missing provider failure total, got:\n%s", body)
	}
	if strings.Contains(body, "first") || strings.Contains(body, "second") {
		t.Fatalf("provider names leaked into metrics:\n%s", body)
	}
}

func TestObservability_RequestID(t *testing.T) {
	h := NewHandler()

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if id := rr.Header().Get(requestIDHeader); len(id) != 36 {
		t.Fatalf("generated request id=%q, want a uuid", id)
	}

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if id := rr.Header().Get(requestIDHeader); id != "abc-123" {
		t.Fatalf("request id=%q, want the incoming one", id)
	}
}

func TestPromLabelEscape(t *testing.T) {
	if got, want := promLabelEscape("a\"b\\c\nd"), `a\"b\\c\nd`; got != want {
		t.Fatalf("got=%q, want=%q", got, want)
	}
}
