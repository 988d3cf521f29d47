package httpapi

import "net/http"

func NewMux() *http.ServeMux {
	return NewMuxWithOptions(Options{})
}

func NewMuxWithOptions(opt Options) *http.ServeMux {
	opt = opt.withDefaults()
	h := overrideHandler{opt: opt}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealthz)
	mux.HandleFunc("GET /metrics", handleMetrics)
	mux.HandleFunc("GET /api/regions", handleRegions)
	mux.HandleFunc("GET /override", h.handleFetchOverride)
	mux.HandleFunc("POST /api/override", h.handlePostOverride)
	return mux
}
