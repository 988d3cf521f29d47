package httpapi

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// metricsStore keeps a few process-wide counters for /metrics.
type metricsStore struct {
	mu sync.Mutex

	httpRequestsTotal uint64
	httpByPattern     map[reqKey]uint64

	appErrors map[errKey]uint64

	overrides map[string]uint64 // result => n
	// Provider names come from request bodies; only the total is kept.
	providerFailures uint64
}

type reqKey struct {
	Pattern string
	Status  int
}

type errKey struct {
	Stage string
	Code  string
}

func newMetricsStore() *metricsStore {
	return &metricsStore{
		httpByPattern: make(map[reqKey]uint64),
		appErrors:     make(map[errKey]uint64),

		overrides: make(map[string]uint64),
	}
}

var metrics = newMetricsStore()

func metricsIncRequest(pattern string, status int) {
	if status == 0 {
		status = http.StatusOK
	}
	if pattern == "" {
		pattern = "(unknown)"
	}

	metrics.mu.Lock()
	metrics.httpRequestsTotal++
	metrics.httpByPattern[reqKey{Pattern: pattern, Status: status}]++
	metrics.mu.Unlock()
}

func metricsIncAppError(stage, code string) {
	stage = strings.TrimSpace(stage)
	code = strings.TrimSpace(code)
	if stage == "" {
		stage = "(unknown)"
	}
	if code == "" {
		code = "(unknown)"
	}

	metrics.mu.Lock()
	metrics.appErrors[errKey{Stage: stage, Code: code}]++
	metrics.mu.Unlock()
}

// metricsIncOverride counts a finished override run; result is "rendered" or
// "unchanged".
func metricsIncOverride(result string, failedProviders int) {
	metrics.mu.Lock()
	metrics.overrides[result]++
	metrics.providerFailures += uint64(failedProviders)
	metrics.mu.Unlock()
}

type reqMetric struct {
	reqKey
	N uint64
}

type errMetric struct {
	errKey
	N uint64
}

type labelMetric struct {
	Label string
	N     uint64
}

func sortedLabels(m map[string]uint64) []labelMetric {
	out := make([]labelMetric, 0, len(m))
	for k, n := range m {
		out = append(out, labelMetric{Label: k, N: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}

func metricsSnapshot() (httpTotal uint64, reqs []reqMetric, errs []errMetric) {
	metrics.mu.Lock()
	defer metrics.mu.Unlock()

	httpTotal = metrics.httpRequestsTotal

	reqs = make([]reqMetric, 0, len(metrics.httpByPattern))
	for k, n := range metrics.httpByPattern {
		reqs = append(reqs, reqMetric{reqKey: k, N: n})
	}
	errs = make([]errMetric, 0, len(metrics.appErrors))
	for k, n := range metrics.appErrors {
		errs = append(errs, errMetric{errKey: k, N: n})
	}

	sort.Slice(reqs, func(i, j int) bool {
		if reqs[i].Pattern != reqs[j].Pattern {
			return reqs[i].Pattern < reqs[j].Pattern
		}
		return reqs[i].Status < reqs[j].Status
	})
	sort.Slice(errs, func(i, j int) bool {
		if errs[i].Stage != errs[j].Stage {
			return errs[i].Stage < errs[j].Stage
		}
		return errs[i].Code < errs[j].Code
	})
	return httpTotal, reqs, errs
}

func handleMetrics(w http.ResponseWriter, r *http.Request) {
	// Plain text, Prometheus exposition format.
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")

	total, reqs, errs := metricsSnapshot()
	metrics.mu.Lock()
	overrides := sortedLabels(metrics.overrides)
	failures := metrics.providerFailures
	metrics.mu.Unlock()

	var b strings.Builder

	b.WriteString("# HELP clash_override_http_requests_total Total HTTP requests.\n")
	b.WriteString("# TYPE clash_override_http_requests_total counter\n")
	b.WriteString("clash_override_http_requests_total ")
	b.WriteString(strconv.FormatUint(total, 10))
	b.WriteByte('\n')

	b.WriteString("# HELP clash_override_http_requests_by_pattern_total HTTP requests by ServeMux pattern and status.\n")
	b.WriteString("# TYPE clash_override_http_requests_by_pattern_total counter\n")
	for _, m := range reqs {
		b.WriteString("clash_override_http_requests_by_pattern_total{pattern=\"")
		b.WriteString(promLabelEscape(m.Pattern))
		b.WriteString("\",status=\"")
		b.WriteString(strconv.Itoa(m.Status))
		b.WriteString("\"} ")
		b.WriteString(strconv.FormatUint(m.N, 10))
		b.WriteByte('\n')
	}

	b.WriteString("# HELP clash_override_app_errors_total Application errors returned to clients.\n")
	b.WriteString("# TYPE clash_override_app_errors_total counter\n")
	for _, m := range errs {
		b.WriteString("clash_override_app_errors_total{stage=\"")
		b.WriteString(promLabelEscape(m.Stage))
		b.WriteString("\",code=\"")
		b.WriteString(promLabelEscape(m.Code))
		b.WriteString("\"} ")
		b.WriteString(strconv.FormatUint(m.N, 10))
		b.WriteByte('\n')
	}

	b.WriteString("# HELP clash_override_overrides_total Override runs by result.\n")
	b.WriteString("# TYPE clash_override_overrides_total counter\n")
	writeLabeled(&b, "clash_override_overrides_total", "result", overrides)

	b.WriteString("# HELP clash_override_provider_failures_total Proxy providers skipped because they failed to load.\n")
	b.WriteString("# TYPE clash_override_provider_failures_total counter\n")
	b.WriteString("clash_override_provider_failures_total ")
	b.WriteString(strconv.FormatUint(failures, 10))
	b.WriteByte('\n')

	_, _ = fmt.Fprint(w, b.String())
}

func writeLabeled(b *strings.Builder, name, label string, ms []labelMetric) {
	for _, m := range ms {
		b.WriteString(name)
		b.WriteString("{")
		b.WriteString(label)
		b.WriteString("=\"")
		b.WriteString(promLabelEscape(m.Label))
		b.WriteString("\"} ")
		b.WriteString(strconv.FormatUint(m.N, 10))
		b.WriteByte('\n')
	}
}

func promLabelEscape(s string) string {
	// Prometheus label value escaping: backslash and double quote.
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}
