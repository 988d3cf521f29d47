// Package render writes a compiled result into a base config and runs the
// whole override pipeline over raw YAML.
package render

import (
	"bytes"
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/John-Robertt/clash-override/internal/blocks"
	"github.com/John-Robertt/clash-override/internal/compiler"
	"github.com/John-Robertt/clash-override/internal/model"
	"github.com/John-Robertt/clash-override/internal/options"
	"github.com/John-Robertt/clash-override/internal/provider"
)

type RenderError struct {
	AppError model.AppError
	Cause    error
}

func (e *RenderError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.AppError.Code, e.AppError.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.AppError.Code, e.AppError.Message, e.Cause)
}

func (e *RenderError) Unwrap() error { return e.Cause }

func renderError(code, message string, cause error) error {
	return &RenderError{
		AppError: model.AppError{Code: code, Message: message, Stage: "render"},
		Cause:    cause,
	}
}

func parseError(code, message, snippet string, cause error) error {
	return &RenderError{
		AppError: model.AppError{Code: code, Message: message, Stage: "parse_config", Snippet: snippet},
		Cause:    cause,
	}
}

// Apply writes the static blocks, then proxies, proxy-groups and rules, into
// doc.
func Apply(doc *Document, res *compiler.Result, entries []blocks.Entry) error {
	if res == nil {
		return renderError("INVALID_ARGUMENT", "render input 不能为空", nil)
	}
	for _, e := range entries {
		if err := doc.Set(e.Key, e.Value); err != nil {
			return err
		}
	}

	proxies, err := proxiesNode(res.Proxies)
	if err != nil {
		return err
	}
	groups, err := groupsNode(res.Groups)
	if err != nil {
		return err
	}
	doc.SetNode("proxies", proxies)
	doc.SetNode("proxy-groups", groups)
	doc.SetNode("rules", stringSeq(model.RuleStrings(res.Rules)))
	return nil
}

// Input is one override run.
type Input struct {
	Source  []byte
	Options options.Options
	Loader  provider.Loader
}

type Output struct {
	YAML []byte
	// Unchanged is set when there were no proxies at all; YAML is then the
	// source as given.
	Unchanged bool
	Result    *compiler.Result
	Providers provider.Report
}

// Run loads proxies, compiles them and renders the overridden config.
func Run(ctx context.Context, in Input) (Output, error) {
	doc, err := Parse(in.Source)
	if err != nil {
		return Output{}, err
	}
	inline, err := doc.Proxies()
	if err != nil {
		return Output{}, err
	}
	descriptors := provider.Descriptors(doc.Get("proxy-providers"))

	nodes, report := in.Loader.Load(ctx, inline, descriptors)
	if len(nodes) == 0 {
		logrus.WithField("providers", len(descriptors)).Info("no proxies found, config left unchanged")
		return Output{YAML: bytes.Clone(in.Source), Unchanged: true, Providers: report}, nil
	}

	copt, err := in.Options.Compiler()
	if err != nil {
		return Output{}, err
	}
	res, err := compiler.Compile(nodes, copt)
	if err != nil {
		return Output{}, err
	}
	if err := Apply(doc, res, blocks.Build(in.Options.Blocks())); err != nil {
		return Output{}, err
	}
	out, err := doc.Bytes()
	if err != nil {
		return Output{}, err
	}

	logrus.WithFields(logrus.Fields{
		"proxies":           len(res.Proxies),
		"groups":            len(res.Groups),
		"rules":             len(res.Rules),
		"provider_failures": len(report.Failures),
	}).Info("config overridden")
	return Output{YAML: out, Result: res, Providers: report}, nil
}
