package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/John-Robertt/clash-override/internal/catalog"
	"github.com/John-Robertt/clash-override/internal/fetch"
	"github.com/John-Robertt/clash-override/internal/model"
	"github.com/John-Robertt/clash-override/internal/options"
	"github.com/John-Robertt/clash-override/internal/provider"
	"github.com/John-Robertt/clash-override/internal/render"
)

const (
	queryURL      = "url"
	queryFilename = "filename"

	providerFailuresHeader = "X-Provider-Failures"
)

type overrideHandler struct {
	opt Options
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	WriteText(w, http.StatusOK, "ok\n")
}

type regionView struct {
	Code string `json:"code"`
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
	Icon string `json:"icon"`
}

func handleRegions(w http.ResponseWriter, r *http.Request) {
	views := lo.Map(catalog.Regions(), func(rg catalog.Region, _ int) regionView {
		v := regionView{Code: rg.Code, Name: rg.Name, Icon: rg.Icon()}
		if rg.Type.Valid() {
			v.Type = rg.Type.String()
		}
		return v
	})
	WriteJSON(w, http.StatusOK, views)
}

// handleFetchOverride downloads the config named by ?url= and returns the
// overridden config as an attachment.
func (h overrideHandler) handleFetchOverride(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if err := checkQueryKeys(q, queryURL, queryFilename); err != nil {
		writeErrorFromErr(w, err)
		return
	}
	rawURL, err := singleQuery(q, queryURL, true)
	if err != nil {
		writeErrorFromErr(w, err)
		return
	}
	filename, err := singleQuery(q, queryFilename, false)
	if err != nil {
		writeErrorFromErr(w, err)
		return
	}
	if err := setAttachmentHeaders(w, filename); err != nil {
		w.Header().Del("Content-Disposition")
		writeErrorFromErr(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.opt.OverrideTimeout)
	defer cancel()

	src, err := fetch.GetWithOptions(ctx, fetch.KindConfig, rawURL, fetch.Options{Timeout: h.opt.FetchTimeout})
	if err != nil {
		w.Header().Del("Content-Disposition")
		writeErrorFromErr(w, err)
		return
	}
	h.respond(ctx, w, q, src)
}

// handlePostOverride overrides the config carried in the request body.
func (h overrideHandler) handlePostOverride(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if err := checkQueryKeys(q); err != nil {
		writeErrorFromErr(w, err)
		return
	}

	src, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.opt.MaxBodyBytes))
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeErrorFromErr(w, apiError(http.StatusRequestEntityTooLarge, model.AppError{
				Code:    "TOO_LARGE",
				Message: "请求体过大",
				Stage:   "validate_request",
				Hint:    "max=" + strconv.FormatInt(mbe.Limit, 10) + " bytes",
			}, err))
			return
		}
		writeErrorFromErr(w, requestError("INVALID_ARGUMENT", "读取请求体失败", err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.opt.OverrideTimeout)
	defer cancel()
	h.respond(ctx, w, q, src)
}

func (h overrideHandler) respond(ctx context.Context, w http.ResponseWriter, q url.Values, src []byte) {
	opt := h.opt.Defaults
	opt.Arguments = options.ArgumentsFromQuery(opt.Arguments, q)

	out, err := render.Run(ctx, render.Input{
		Source:  src,
		Options: opt,
		Loader:  h.loader(),
	})
	if err != nil {
		w.Header().Del("Content-Disposition")
		writeErrorFromErr(w, err)
		return
	}

	failed := lo.Map(out.Providers.Failures, func(f provider.Failure, _ int) string { return f.Provider })
	if out.Unchanged {
		metricsIncOverride("unchanged", len(failed))
	} else {
		metricsIncOverride("rendered", len(failed))
	}
	if len(failed) > 0 {
		w.Header().Set(providerFailuresHeader, strings.Join(failed, ","))
	}
	w.Header().Set("Cache-Control", "no-store")
	WriteYAML(w, http.StatusOK, out.YAML)
}

// loader never reads local provider paths: a request must not be able to
// make the server read its own files.
func (h overrideHandler) loader() provider.Loader {
	timeout := h.opt.FetchTimeout
	return provider.Loader{
		AllowLocal:  false,
		FetchRemote: h.opt.Defaults.FetchRemoteProviders,
		Fetch: func(ctx context.Context, rawURL string) ([]byte, error) {
			return fetch.GetWithOptions(ctx, fetch.KindProvider, rawURL, fetch.Options{Timeout: timeout})
		},
	}
}

// checkQueryKeys rejects keys that are neither an argument nor one of extra.
func checkQueryKeys(q url.Values, extra ...string) error {
	for key := range q {
		if lo.Contains(options.ArgumentNames, key) || lo.Contains(extra, key) {
			continue
		}
		return requestError("INVALID_ARGUMENT", "未知的查询参数: "+key, "supported: "+strings.Join(append(append([]string{}, options.ArgumentNames...), extra...), ","))
	}
	for _, key := range options.ArgumentNames {
		if _, err := singleQuery(q, key, false); err != nil {
			return err
		}
	}
	return nil
}

func singleQuery(q url.Values, key string, required bool) (string, error) {
	vs, ok := q[key]
	if !ok || len(vs) == 0 {
		if required {
			return "", requestError("INVALID_ARGUMENT", "缺少参数 "+key, "")
		}
		return "", nil
	}
	if len(vs) > 1 {
		return "", requestError("INVALID_ARGUMENT", "参数 "+key+" 只能出现一次", "")
	}
	v := strings.TrimSpace(vs[0])
	if required && v == "" {
		return "", requestError("INVALID_ARGUMENT", "参数 "+key+" 不能为空", "")
	}
	return v, nil
}
