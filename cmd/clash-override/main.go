package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/John-Robertt/clash-override/internal/model"
	"github.com/John-Robertt/clash-override/internal/options"
)

const (
	configName = "clash-override"
	envPrefix  = "CLASH_OVERRIDE"
)

func newRootCmd(v *viper.Viper) *cobra.Command {
	var (
		configFile string
		debug      bool
	)

	root := &cobra.Command{
		Use:           "clash-override",
		Short:         "按地区重写 Clash 配置的代理分组与规则",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initConfig(v, configFile); err != nil {
				return err
			}
			return initLogging(v.GetString("log-level"), debug)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&configFile, "config", "c", "", "配置文件路径（默认搜索 ./clash-override.yaml 等）")
	pf.BoolVarP(&debug, "debug", "d", false, "启用 debug 日志（覆盖 --log-level）")
	pf.String("log-level", "info", "日志级别：debug/info/warn/error")
	addOptionFlags(pf)

	root.AddCommand(newRenderCmd(v), newServeCmd(v), newRegionsCmd(), newHealthcheckCmd())

	bindFlags(v, pf)
	_ = v.BindEnv("log-level", envPrefix+"_LOG_LEVEL", "LOG_LEVEL")
	return root
}

// addOptionFlags registers one flag per options key.
func addOptionFlags(fs *pflag.FlagSet) {
	d := options.Default()
	fs.Bool(options.ArgIPv6, d.IPv6, "启用 IPv6")
	fs.Bool(options.ArgFull, d.Full, "输出完整配置（端口、模式、外部控制器等）")
	fs.Bool(options.ArgKeepAlive, d.KeepAlive, "保持 TCP keep-alive")
	fs.String(options.ArgThreshold, "0", "地区分组的最少节点数")
	fs.Bool(options.ArgRegionGroupOnly, d.RegionGroupOnly, "主分组只包含地区分组")
	fs.String(options.ArgRegionGroupType, d.RegionGroupType, "地区分组类型：select/url-test/load-balance/fallback")
	fs.String("main-group-name", d.MainGroupName, "主分组名称")
	fs.String("provider-base-dir", d.ProviderBaseDir, "proxy-providers 相对路径的基准目录")
	fs.Bool("fetch-remote-providers", d.FetchRemoteProviders, "本地缓存缺失时拉取 http 类型 provider")
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Name == "config" || f.Name == "debug" {
			return
		}
		_ = v.BindPFlag(f.Name, f)
	})
}

func newViper() *viper.Viper {
	v := viper.New()
	options.SetDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	return v
}

func initConfig(v *viper.Viper, configFile string) error {
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/clash-override")
		v.AddConfigPath("/etc/clash-override/")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return &options.OptionsError{
			AppError: model.AppError{
				Code:    "CONFIG_PARSE_ERROR",
				Message: "读取配置文件失败",
				Stage:   "parse_config",
				Path:    configFile,
			},
			Cause: err,
		}
	}
	return nil
}

func initLogging(level string, debug bool) error {
	logrus.SetOutput(os.Stderr)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if debug {
		logrus.SetLevel(logrus.DebugLevel)
		return nil
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("无效的日志级别 %q: %w", level, err)
	}
	logrus.SetLevel(lvl)
	return nil
}

func main() {
	if err := newRootCmd(newViper()).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
