package httpapi

import (
	"time"

	"github.com/John-Robertt/clash-override/internal/options"
)

// Options controls HTTP API runtime behavior.
type Options struct {
	// OverrideTimeout bounds a single request (fetch + load + compile + render).
	OverrideTimeout time.Duration

	// FetchTimeout is the per-HTTP-request timeout used when fetching the base
	// config or remote providers.
	FetchTimeout time.Duration

	// MaxBodyBytes limits POST bodies.
	MaxBodyBytes int64

	// Defaults are the server-side options; query arguments are applied on
	// top of them per request.
	Defaults options.Options
}

func (o Options) withDefaults() Options {
	if o.OverrideTimeout <= 0 {
		o.OverrideTimeout = 60 * time.Second
	}
	if o.FetchTimeout <= 0 {
		o.FetchTimeout = 15 * time.Second
	}
	if o.MaxBodyBytes <= 0 {
		o.MaxBodyBytes = 2 * 1024 * 1024
	}
	if o.Defaults.MainGroupName == "" {
		o.Defaults = options.Default()
	}
	return o
}
