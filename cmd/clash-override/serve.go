package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/John-Robertt/clash-override/internal/httpapi"
	"github.com/John-Robertt/clash-override/internal/options"
)

const defaultListen = "127.0.0.1:25500"

func newServeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "启动 HTTP 服务",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opt, err := options.FromViper(v)
			if err != nil {
				return err
			}
			return serve(v, opt)
		},
	}
	fs := cmd.Flags()
	fs.String("listen", defaultListen, "HTTP 监听地址")
	fs.Duration("read-header-timeout", 5*time.Second, "HTTP ReadHeaderTimeout（请求头读取超时）")
	fs.Duration("override-timeout", 60*time.Second, "单次重写的总超时（包含远程拉取）")
	fs.Duration("fetch-timeout", 15*time.Second, "单次远程拉取的超时（每个 URL 一次请求）")
	fs.Duration("shutdown-timeout", 10*time.Second, "收到退出信号后的优雅退出等待时间")
	fs.Int64("max-body-bytes", 2*1024*1024, "POST 请求体大小上限")
	bindFlags(v, fs)
	return cmd
}

func serve(v *viper.Viper, opt options.Options) error {
	listen := v.GetString("listen")
	srv := &http.Server{
		Addr: listen,
		Handler: httpapi.NewHandlerWithOptions(httpapi.Options{
			OverrideTimeout: v.GetDuration("override-timeout"),
			FetchTimeout:    v.GetDuration("fetch-timeout"),
			MaxBodyBytes:    v.GetInt64("max-body-bytes"),
			Defaults:        opt,
		}),
		ReadHeaderTimeout: v.GetDuration("read-header-timeout"),
	}

	logrus.WithField("listen", listen).Info("listening")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logrus.Info("shutdown signal received")

		shCtx, cancel := context.WithTimeout(context.Background(), v.GetDuration("shutdown-timeout"))
		defer cancel()
		if err := srv.Shutdown(shCtx); err != nil {
			logrus.WithError(err).Warn("graceful shutdown failed")
			_ = srv.Close()
		}

		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func newHealthcheckCmd() *cobra.Command {
	var (
		target  string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "healthcheck",
		Short: "探测 serve 的 /healthz（用于容器健康检查）",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := deriveHealthzURL(target)
			if err != nil {
				return err
			}
			return runHealthcheck(u, timeout)
		},
	}
	cmd.Flags().StringVar(&target, "listen", defaultListen, "serve 的监听地址或完整 URL")
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Second, "请求超时")
	return cmd
}

// deriveHealthzURL turns a listen address into a loopback /healthz URL.
func deriveHealthzURL(listen string) (string, error) {
	s := strings.TrimSpace(listen)
	if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
		return strings.TrimRight(s, "/") + "/healthz", nil
	}
	if !strings.Contains(s, ":") {
		s = ":" + s
	}
	host, port, err := net.SplitHostPort(s)
	if err != nil {
		return "", fmt.Errorf("无效的监听地址 %q: %w", listen, err)
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port) + "/healthz", nil
}

func runHealthcheck(u string, timeout time.Duration) error {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(u)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, u)
	}
	return nil
}
