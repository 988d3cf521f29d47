package main

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/John-Robertt/clash-override/internal/fetch"
	"github.com/John-Robertt/clash-override/internal/options"
	"github.com/John-Robertt/clash-override/internal/provider"
	"github.com/John-Robertt/clash-override/internal/render"
)

func newRenderCmd(v *viper.Viper) *cobra.Command {
	var (
		rawURL string
		output string
	)
	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "重写一份 Clash 配置（文件、--url 或标准输入）",
		Example: `  clash-override render config.yaml -o clash.yaml
  clash-override render --url https://example.com/sub --threshold 2
  cat config.yaml | clash-override render --full`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opt, err := options.FromViper(v)
			if err != nil {
				return err
			}

			input := "-"
			if len(args) == 1 {
				input = args[0]
			}
			src, err := readSource(cmd.Context(), cmd.InOrStdin(), input, rawURL)
			if err != nil {
				return err
			}

			out, err := render.Run(cmd.Context(), render.Input{
				Source:  src,
				Options: opt,
				Loader: provider.Loader{
					BaseDir:     providerBaseDir(opt.ProviderBaseDir, input, rawURL),
					AllowLocal:  true,
					FetchRemote: opt.FetchRemoteProviders,
				},
			})
			if err != nil {
				return err
			}
			if len(out.Providers.Failures) > 0 {
				logrus.WithField("failed", len(out.Providers.Failures)).Warn("some proxy providers were skipped")
			}

			if output == "" || output == "-" {
				_, err = cmd.OutOrStdout().Write(out.YAML)
				return err
			}
			return os.WriteFile(output, out.YAML, 0o644)
		},
	}
	cmd.Flags().StringVar(&rawURL, "url", "", "从 http(s) 地址拉取原始配置")
	cmd.Flags().StringVarP(&output, "output", "o", "", "输出文件（默认标准输出）")
	return cmd
}

func readSource(ctx context.Context, stdin io.Reader, input, rawURL string) ([]byte, error) {
	if rawURL != "" {
		if ctx == nil {
			ctx = context.Background()
		}
		return fetch.Get(ctx, fetch.KindConfig, rawURL)
	}
	if input == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(input)
}

// providerBaseDir falls back to the input file's directory so relative
// provider paths resolve the way Clash would resolve them.
func providerBaseDir(configured, input, rawURL string) string {
	if configured != "" || rawURL != "" || input == "-" {
		return configured
	}
	return filepath.Dir(input)
}
