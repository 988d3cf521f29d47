// Package provider merges the inline proxies of a base config with the
// nodes of its proxy-providers.
package provider

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/John-Robertt/clash-override/internal/fetch"
	"github.com/John-Robertt/clash-override/internal/model"
)

// Descriptor is the part of a proxy-providers entry the loader reads.
type Descriptor struct {
	Name string `yaml:"-"`
	Type string `yaml:"type"`
	Path string `yaml:"path"`
	URL  string `yaml:"url"`

	// Err is set when the entry itself could not be decoded; Load reports it
	// as a failure without reading anything.
	Err error `yaml:"-"`
}

// Descriptors decodes a proxy-providers mapping, keeping its key order.
// A missing or null section yields no descriptors. Any other non-mapping
// value is logged and ignored; malformed entries never abort the run.
func Descriptors(mapping *yaml.Node) []Descriptor {
	if mapping == nil || mapping.Kind == 0 || mapping.ShortTag() == "!!null" {
		return nil
	}
	if mapping.Kind != yaml.MappingNode {
		logrus.WithField("line", mapping.Line).Warn("proxy-providers is not a mapping, ignored")
		return nil
	}
	out := make([]Descriptor, 0, len(mapping.Content)/2)
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		k, v := mapping.Content[i], mapping.Content[i+1]
		d := Descriptor{}
		switch {
		case v.Kind == yaml.MappingNode:
			if err := v.Decode(&d); err != nil {
				d = Descriptor{Err: entryError(k.Value, v.Line, err)}
			}
		case v.ShortTag() != "!!null":
			d.Err = entryError(k.Value, v.Line, fmt.Errorf("expected a mapping, got %s", v.ShortTag()))
		}
		d.Name = k.Value
		out = append(out, d)
	}
	return out
}

func entryError(name string, line int, cause error) error {
	return &LoadError{
		AppError: model.AppError{
			Code:    "CONFIG_PARSE_ERROR",
			Message: fmt.Sprintf("proxy-providers.%s 解析失败", name),
			Stage:   "load_provider",
			Line:    line,
		},
		Cause: cause,
	}
}

type LoadError struct {
	AppError model.AppError
	Cause    error
}

func (e *LoadError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.AppError.Code, e.AppError.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.AppError.Code, e.AppError.Message, e.Cause)
}

func (e *LoadError) Unwrap() error { return e.Cause }

// Failure records one provider that contributed no nodes because of an error.
type Failure struct {
	Provider string
	Source   string // resolved file path or URL
	Err      error
}

// Report summarizes a Load call.
type Report struct {
	Inline   int
	Loaded   map[string]int // provider name -> node count
	Skipped  []string       // providers with no usable source
	Failures []Failure
}

// Loader reads provider contents.
type Loader struct {
	// BaseDir resolves relative provider paths. Empty means the working
	// directory.
	BaseDir string
	// AllowLocal enables reading provider paths from disk.
	AllowLocal bool
	// FetchRemote enables downloading providers that have a url.
	FetchRemote bool
	// Fetch downloads a provider body; nil means fetch.Get.
	Fetch func(ctx context.Context, rawURL string) ([]byte, error)
}

type providerFile struct {
	Proxies []model.Node `yaml:"proxies"`
}

// Load returns inline followed by every provider's nodes, in provider order.
// A failing provider is logged and recorded in the report; it never aborts
// the load.
func (l Loader) Load(ctx context.Context, inline []model.Node, providers []Descriptor) ([]model.Node, Report) {
	rep := Report{Inline: len(inline), Loaded: make(map[string]int, len(providers))}
	out := make([]model.Node, 0, len(inline))
	out = append(out, inline...)

	for _, d := range providers {
		if d.Err != nil {
			rep.Failures = append(rep.Failures, Failure{Provider: d.Name, Err: d.Err})
			logrus.WithFields(logrus.Fields{
				"provider": d.Name,
				"error":    d.Err,
			}).Warn("provider skipped")
			continue
		}
		body, source, err := l.read(ctx, d)
		if source == "" {
			rep.Skipped = append(rep.Skipped, d.Name)
			continue
		}
		if err == nil {
			var nodes []model.Node
			nodes, err = parseProviderFile(body)
			if err == nil {
				out = append(out, nodes...)
				rep.Loaded[d.Name] = len(nodes)
				logrus.WithFields(logrus.Fields{
					"provider": d.Name,
					"source":   source,
					"nodes":    len(nodes),
				}).Debug("provider loaded")
				continue
			}
		}
		rep.Failures = append(rep.Failures, Failure{Provider: d.Name, Source: source, Err: err})
		logrus.WithFields(logrus.Fields{
			"provider": d.Name,
			"path":     source,
			"error":    err,
		}).Warn("provider skipped")
	}
	return out, rep
}

// read picks the provider's source: the local path when allowed, otherwise
// its url when remote fetching is on. An empty source means neither applies.
func (l Loader) read(ctx context.Context, d Descriptor) ([]byte, string, error) {
	if l.AllowLocal && strings.TrimSpace(d.Path) != "" {
		p := l.resolve(d.Path)
		b, err := os.ReadFile(p)
		if err == nil || !l.FetchRemote || d.URL == "" {
			return b, p, err
		}
		logrus.WithFields(logrus.Fields{"provider": d.Name, "path": p}).Debug("provider cache unreadable, fetching url")
	}
	if l.FetchRemote && strings.TrimSpace(d.URL) != "" {
		get := l.Fetch
		if get == nil {
			get = func(ctx context.Context, rawURL string) ([]byte, error) {
				return fetch.Get(ctx, fetch.KindProvider, rawURL)
			}
		}
		b, err := get(ctx, d.URL)
		return b, d.URL, err
	}
	return nil, "", nil
}

func (l Loader) resolve(p string) string {
	p = filepath.FromSlash(strings.TrimSpace(p))
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(l.BaseDir, p)
}

func parseProviderFile(body []byte) ([]model.Node, error) {
	var f providerFile
	if err := yaml.Unmarshal(body, &f); err != nil {
		return nil, err
	}
	return f.Proxies, nil
}
