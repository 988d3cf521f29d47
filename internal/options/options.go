// Package options gathers everything that shapes one override run: the
// per-invocation arguments plus the settings that only come from the config
// file, environment or flags.
package options

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/viper"

	"github.com/John-Robertt/clash-override/internal/blocks"
	"github.com/John-Robertt/clash-override/internal/catalog"
	"github.com/John-Robertt/clash-override/internal/compiler"
	"github.com/John-Robertt/clash-override/internal/model"
	"github.com/John-Robertt/clash-override/internal/rules"
)

type Options struct {
	// Arguments are read separately through ParseArguments.
	Arguments `mapstructure:"-"`

	MainGroupName        string `mapstructure:"main-group-name"`
	TestURL              string `mapstructure:"test-url"`
	TestInterval         int    `mapstructure:"test-interval"`
	LoadBalanceStrategy  string `mapstructure:"load-balance-strategy"`
	ProviderBaseDir      string `mapstructure:"provider-base-dir"`
	FetchRemoteProviders bool   `mapstructure:"fetch-remote-providers"`

	PrivateTrust PrivateTrust `mapstructure:"private-trust"`
	ExtraRules   []string     `mapstructure:"extra-rules"`
}

// PrivateTrust configures the intranet overlay.
type PrivateTrust struct {
	Enabled      bool     `mapstructure:"enabled"`
	GroupName    string   `mapstructure:"group-name"`
	NodeName     string   `mapstructure:"node-name"`
	NodeType     string   `mapstructure:"node-type"`
	Server       string   `mapstructure:"server"`
	Port         int      `mapstructure:"port"`
	TestURL      string   `mapstructure:"test-url"`
	TestInterval int      `mapstructure:"test-interval"`
	CIDRs        []string `mapstructure:"cidrs"`
}

func Default() Options {
	return Options{
		Arguments:           DefaultArguments(),
		MainGroupName:       compiler.DefaultMainGroupName,
		TestURL:             compiler.DefaultTestURL,
		TestInterval:        compiler.DefaultTestInterval,
		LoadBalanceStrategy: compiler.DefaultLoadBalanceStrategy,
		PrivateTrust: PrivateTrust{
			GroupName:    compiler.DefaultPrivateGroupName,
			NodeName:     "socks5",
			NodeType:     "socks5",
			Server:       "127.0.0.1",
			Port:         1080,
			TestInterval: compiler.DefaultPrivateTestInterval,
			CIDRs:        []string{"172.25.0.0/16"},
		},
	}
}

// SetDefaults registers Default() on v so every key is known to viper's
// env and flag binding.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault(ArgIPv6, d.IPv6)
	v.SetDefault(ArgFull, d.Full)
	v.SetDefault(ArgKeepAlive, d.KeepAlive)
	v.SetDefault(ArgThreshold, d.Threshold)
	v.SetDefault(ArgRegionGroupOnly, d.RegionGroupOnly)
	v.SetDefault(ArgRegionGroupType, d.RegionGroupType)
	v.SetDefault("main-group-name", d.MainGroupName)
	v.SetDefault("test-url", d.TestURL)
	v.SetDefault("test-interval", d.TestInterval)
	v.SetDefault("load-balance-strategy", d.LoadBalanceStrategy)
	v.SetDefault("provider-base-dir", d.ProviderBaseDir)
	v.SetDefault("fetch-remote-providers", d.FetchRemoteProviders)
	v.SetDefault("private-trust.enabled", d.PrivateTrust.Enabled)
	v.SetDefault("private-trust.group-name", d.PrivateTrust.GroupName)
	v.SetDefault("private-trust.node-name", d.PrivateTrust.NodeName)
	v.SetDefault("private-trust.node-type", d.PrivateTrust.NodeType)
	v.SetDefault("private-trust.server", d.PrivateTrust.Server)
	v.SetDefault("private-trust.port", d.PrivateTrust.Port)
	v.SetDefault("private-trust.test-url", d.PrivateTrust.TestURL)
	v.SetDefault("private-trust.test-interval", d.PrivateTrust.TestInterval)
	v.SetDefault("private-trust.cidrs", d.PrivateTrust.CIDRs)
	v.SetDefault("extra-rules", []string{})
}

// FromViper decodes and validates the options held by v.
func FromViper(v *viper.Viper) (Options, error) {
	opt := Default()
	if err := v.Unmarshal(&opt); err != nil {
		return Options{}, &OptionsError{
			AppError: model.AppError{
				Code:    "CONFIG_PARSE_ERROR",
				Message: "配置解析失败",
				Stage:   "parse_config",
				Path:    v.ConfigFileUsed(),
			},
			Cause: err,
		}
	}
	// Env and flag values are strings; they get the same lenient coercion as
	// the query string instead of mapstructure's strict one.
	opt.Arguments = ParseArguments(DefaultArguments(), map[string]string{
		ArgIPv6:            v.GetString(ArgIPv6),
		ArgFull:            v.GetString(ArgFull),
		ArgKeepAlive:       v.GetString(ArgKeepAlive),
		ArgThreshold:       v.GetString(ArgThreshold),
		ArgRegionGroupOnly: v.GetString(ArgRegionGroupOnly),
		ArgRegionGroupType: v.GetString(ArgRegionGroupType),
	})
	if err := opt.Validate(); err != nil {
		return Options{}, err
	}
	return opt, nil
}

type OptionsError struct {
	AppError model.AppError
	Cause    error
}

func (e *OptionsError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.AppError.Code, e.AppError.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.AppError.Code, e.AppError.Message, e.Cause)
}

func (e *OptionsError) Unwrap() error { return e.Cause }

func invalid(message, snippet string, cause error) error {
	return &OptionsError{
		AppError: model.AppError{
			Code:    "INVALID_ARGUMENT",
			Message: message,
			Stage:   "validate_options",
			Snippet: snippet,
		},
		Cause: cause,
	}
}

// Validate rejects settings that would produce an inconsistent config.
// Argument values are never rejected: they were already coerced.
func (o Options) Validate() error {
	main := strings.TrimSpace(o.MainGroupName)
	if main == "" {
		return invalid("main-group-name 不能为空", "", nil)
	}
	if model.IsSentinel(main) {
		return invalid("main-group-name 不能使用保留名 DIRECT/REJECT", main, nil)
	}
	reserved := map[string]bool{compiler.DefaultUnmatchedGroupName: true}
	for _, r := range catalog.Regions() {
		reserved[r.Name] = true
	}
	if o.PrivateTrust.Enabled && reserved[strings.TrimSpace(o.PrivateTrust.GroupName)] {
		return invalid(fmt.Sprintf("private-trust.group-name 与内置策略组重名：%s", o.PrivateTrust.GroupName), o.PrivateTrust.GroupName, nil)
	}
	if o.PrivateTrust.Enabled {
		reserved[strings.TrimSpace(o.PrivateTrust.GroupName)] = true
	}
	if reserved[main] {
		return invalid(fmt.Sprintf("main-group-name 与内置策略组重名：%s", main), main, nil)
	}

	if err := validateHTTPURL("test-url", o.TestURL); err != nil {
		return err
	}
	if o.TestInterval <= 0 {
		return invalid("test-interval 必须为正整数", fmt.Sprint(o.TestInterval), nil)
	}

	if o.PrivateTrust.Enabled {
		p := o.PrivateTrust
		name := strings.TrimSpace(p.GroupName)
		if name == "" || model.IsSentinel(name) {
			return invalid("private-trust.group-name 不合法", p.GroupName, nil)
		}
		if strings.TrimSpace(p.NodeName) == "" || strings.TrimSpace(p.Server) == "" {
			return invalid("private-trust 节点缺少 node-name/server", "", nil)
		}
		if p.Port <= 0 || p.Port > 65535 {
			return invalid("private-trust.port 超出范围", fmt.Sprint(p.Port), nil)
		}
		if p.TestURL != "" {
			if err := validateHTTPURL("private-trust.test-url", p.TestURL); err != nil {
				return err
			}
		}
		for _, cidr := range p.CIDRs {
			if _, err := rules.CIDRRuleType(cidr); err != nil {
				return invalid("private-trust.cidrs 含有非法 CIDR", cidr, err)
			}
		}
	}

	extra, err := rules.ParseExtraRules("extra-rules", o.ExtraRules)
	if err != nil {
		return err
	}
	providers := blocks.DefaultRuleProviders().Names()
	for _, r := range extra {
		if r.Type == "RULE-SET" && !lo.Contains(providers, r.Value) {
			return &OptionsError{
				AppError: model.AppError{
					Code:    "REFERENCE_NOT_FOUND",
					Message: fmt.Sprintf("extra-rules 引用了未定义的 rule-provider：%s", r.Value),
					Stage:   "validate_options",
					Path:    "extra-rules",
					Snippet: r.String(),
					Hint:    "available: " + strings.Join(providers, ","),
				},
			}
		}
	}
	return nil
}

func validateHTTPURL(key, raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return invalid(key+" 必须是 http(s) URL", raw, err)
	}
	return nil
}

// Compiler converts o into compiler options. o must have passed Validate.
func (o Options) Compiler() (compiler.Options, error) {
	extra, err := rules.ParseExtraRules("extra-rules", o.ExtraRules)
	if err != nil {
		return compiler.Options{}, err
	}

	threshold := o.Threshold
	if threshold < 0 {
		threshold = 0
	}
	out := compiler.Options{
		Threshold: threshold,
		Groups: compiler.GroupOptions{
			MainGroupName:       strings.TrimSpace(o.MainGroupName),
			RegionGroupType:     o.RegionGroupType,
			TestURL:             o.TestURL,
			TestInterval:        o.TestInterval,
			LoadBalanceStrategy: o.LoadBalanceStrategy,
			IncludeAllNodes:     !o.RegionGroupOnly,
		},
		ExtraRules: extra,
	}
	if o.PrivateTrust.Enabled {
		p := o.PrivateTrust
		out.PrivateTrust = &compiler.PrivateTrust{
			GroupName: strings.TrimSpace(p.GroupName),
			Node: model.Node{
				Name: p.NodeName,
				Type: p.NodeType,
				Fields: map[string]any{
					"server": p.Server,
					"port":   p.Port,
				},
			},
			TestURL:      p.TestURL,
			TestInterval: p.TestInterval,
			CIDRs:        append([]string(nil), p.CIDRs...),
		}
	}
	return out, nil
}

// Blocks returns the argument-dependent switches of the static sections.
func (o Options) Blocks() blocks.Options {
	return blocks.Options{IPv6: o.IPv6, Full: o.Full, KeepAlive: o.KeepAlive}
}
