// Package fetch downloads remote Clash configs and proxy-provider files with
// bounded time, size and redirects.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/John-Robertt/clash-override/internal/model"
)

type Kind int

const (
	KindConfig Kind = iota
	KindProvider
)

func (k Kind) stage() string {
	switch k {
	case KindConfig:
		return "fetch_config"
	case KindProvider:
		return "fetch_provider"
	default:
		return "fetch"
	}
}

func (k Kind) defaultMaxBytes() int64 {
	switch k {
	case KindConfig:
		return 2 * 1024 * 1024
	case KindProvider:
		return 5 * 1024 * 1024
	default:
		return 1 * 1024 * 1024
	}
}

// DefaultUserAgent makes subscription servers answer with Clash YAML rather
// than a base64 link list.
const DefaultUserAgent = "clash.meta"

type Options struct {
	Timeout      time.Duration // default 15s
	MaxBytes     int64         // default per kind
	MaxRedirects int           // default 5
	UserAgent    string        // default DefaultUserAgent
	// Client overrides the HTTP client; its CheckRedirect and Timeout are
	// replaced. Nil means a client over http.DefaultTransport.
	Client *http.Client
}

type FetchError struct {
	Status   int
	AppError model.AppError
	Cause    error
}

func (e *FetchError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.AppError.Code, e.AppError.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.AppError.Code, e.AppError.Message, e.Cause)
}

func (e *FetchError) Unwrap() error { return e.Cause }

var (
	errTooManyRedirects   = errors.New("too many redirects")
	errRedirectBadScheme  = errors.New("redirect target scheme is not http/https")
	errInvalidURLOrScheme = errors.New("invalid url or scheme")
)

// Get downloads rawURL and returns its body, which must be valid UTF-8.
func Get(ctx context.Context, kind Kind, rawURL string) ([]byte, error) {
	return GetWithOptions(ctx, kind, rawURL, Options{})
}

func GetWithOptions(ctx context.Context, kind Kind, rawURL string, opt Options) ([]byte, error) {
	stage := kind.stage()
	fail := func(status int, code, message string, cause error) error {
		return &FetchError{
			Status: status,
			AppError: model.AppError{
				Code:    code,
				Message: message,
				Stage:   stage,
				URL:     rawURL,
			},
			Cause: cause,
		}
	}

	timeout := opt.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	maxRedirects := opt.MaxRedirects
	if maxRedirects == 0 {
		maxRedirects = 5
	}
	maxBytes := opt.MaxBytes
	if maxBytes == 0 {
		maxBytes = kind.defaultMaxBytes()
	}
	if maxBytes <= 0 {
		return nil, fail(http.StatusBadRequest, "INVALID_ARGUMENT", "响应大小上限必须大于 0", nil)
	}
	ua := opt.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}

	u, err := url.Parse(rawURL)
	if err != nil || u == nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fail(http.StatusBadRequest, "INVALID_ARGUMENT", "仅允许 http/https URL", errors.Join(errInvalidURLOrScheme, err))
	}

	client := &http.Client{Transport: http.DefaultTransport}
	if opt.Client != nil {
		c := *opt.Client
		client = &c
	}
	client.Timeout = timeout
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		// 1st redirect => len(via)==1.
		if len(via) > maxRedirects {
			return errTooManyRedirects
		}
		if req.URL.Scheme != "http" && req.URL.Scheme != "https" {
			return errRedirectBadScheme
		}
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fail(http.StatusBadRequest, "INVALID_ARGUMENT", "请求 URL 不合法", err)
	}
	req.Header.Set("User-Agent", ua)

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
		switch {
		case errors.Is(err, errTooManyRedirects):
			return nil, fail(http.StatusBadGateway, "FETCH_FAILED", fmt.Sprintf("重定向次数超过上限（>%d）", maxRedirects), err)
		case errors.Is(err, errRedirectBadScheme):
			return nil, fail(http.StatusBadRequest, "INVALID_ARGUMENT", "重定向目标仅允许 http/https", err)
		case isTimeout(err):
			return nil, fail(http.StatusGatewayTimeout, "FETCH_TIMEOUT", "拉取远程资源超时", err)
		default:
			return nil, fail(http.StatusBadGateway, "FETCH_FAILED", "拉取远程资源失败", err)
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fail(http.StatusBadGateway, "FETCH_FAILED", fmt.Sprintf("上游返回非 2xx 状态码：%d", resp.StatusCode), nil)
	}

	// Read at most maxBytes+1 to detect overflow deterministically.
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes+1))
	if err != nil {
		if isTimeout(err) {
			return nil, fail(http.StatusGatewayTimeout, "FETCH_TIMEOUT", "拉取远程资源超时", err)
		}
		return nil, fail(http.StatusBadGateway, "FETCH_FAILED", "读取上游响应失败", err)
	}
	if int64(len(body)) > maxBytes {
		return nil, fail(http.StatusUnprocessableEntity, "TOO_LARGE", fmt.Sprintf("远程资源过大（>%d bytes）", maxBytes), nil)
	}
	if !utf8.Valid(body) {
		return nil, fail(http.StatusUnprocessableEntity, "FETCH_INVALID_UTF8", "远程资源不是合法 UTF-8 文本", nil)
	}

	logrus.WithFields(logrus.Fields{
		"stage":    stage,
		"url":      rawURL,
		"bytes":    len(body),
		"duration": time.Since(start).String(),
	}).Debug("fetched")
	return body, nil
}

func isTimeout(err error) bool {
	// Go may wrap errors (e.g. *url.Error).
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
