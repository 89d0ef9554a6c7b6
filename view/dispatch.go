package view

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/raywall/xrest/easyrepo"
	"github.com/raywall/xrest/pkg/auth"
	"github.com/raywall/xrest/pkg/metrics"
	"github.com/raywall/xrest/pkg/responder"
)

// errRollback aborts the transaction of a request that produced an error
// result. It never reaches the client.
var errRollback = errors.New("view: rollback")

var bodyMethods = map[string]struct{}{
	http.MethodPost:   {},
	http.MethodPut:    {},
	http.MethodDelete: {},
	http.MethodPatch:  {},
}

func (v *View[T]) dispatch(route Route[T]) http.Handler {
	allow := allowHeader(route)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		handlerName := "-"

		var result responder.Result
		err := v.opts.Transactor.Atomic(r.Context(), func(ctx context.Context) error {
			h, ok := route.Handlers[r.Method]
			if !ok {
				// sem handler não há nome para pular a autenticação
				if !v.authenticated(r, "") {
					result = responder.Unauthorized()
					return errRollback
				}
				w.Header().Set("Allow", allow)
				result = responder.MethodNotAllowed()
				return errRollback
			}
			handlerName = h.Name

			result = v.serve(r.WithContext(ctx), route, h)
			if result.IsError() {
				return errRollback
			}
			return nil
		})
		if err != nil && !errors.Is(err, errRollback) {
			v.logFrom(r).Warn().Err(err).Str("route", route.Name).Msg("transaction failed")
			result = v.translate(r, err)
		}

		if werr := responder.Write(w, result); werr != nil {
			v.logFrom(r).Warn().Err(werr).Msg("failed to write response")
		}
		v.observe(r, route.Name, handlerName, result.Envelope().Status, time.Since(start))
	})
}

// serve runs the authentication gate, object resolution, body parsing and the
// handler itself.
func (v *View[T]) serve(r *http.Request, route Route[T], h Handler[T]) responder.Result {
	if !v.authenticated(r, h.Name) {
		return responder.Unauthorized()
	}

	c := &Context[T]{
		Request: r,
		Vars:    mux.Vars(r),
		Route:   route.Name,
		Handler: h.Name,
		view:    v,
	}

	if raw, ok := c.Vars[v.opts.ObjectVar]; ok {
		obj, err := v.service.Get(r.Context(), coercePK(raw))
		if err != nil {
			return v.translate(r, err)
		}
		c.Object = obj
	}

	if _, ok := bodyMethods[r.Method]; ok {
		data, err := parseBody(r.Body)
		if err != nil {
			return responder.InvalidData()
		}
		c.Data = data
	}

	result, err := h.Fn(c)
	if err != nil {
		return v.translate(r, err)
	}
	return result
}

// authenticated runs the authenticator unless handler is listed in
// SkipAuthentication.
func (v *View[T]) authenticated(r *http.Request, handler string) bool {
	if _, skipped := v.skip[handler]; skipped && handler != "" {
		return true
	}
	return v.opts.Authenticator.Authenticate(r) == auth.Accepted
}

// translate converts a handler error into its error result.
func (v *View[T]) translate(r *http.Request, err error) responder.Result {
	if rerr, ok := responder.AsError(err); ok {
		return rerr.Result()
	}

	var verr *easyrepo.ValidationError
	switch {
	case errors.As(err, &verr):
		return responder.FieldErrors(verr.Fields).Result()
	case errors.Is(err, easyrepo.ErrNotFound):
		return responder.ObjectNotFound().Result()
	case errors.Is(err, easyrepo.ErrInvalidInput):
		return responder.InvalidData()
	}

	v.logFrom(r).Error().Err(err).Msg("unhandled error in handler")
	return responder.InternalError()
}

// coercePK converts the route key to int when it parses as one.
func coercePK(raw string) any {
	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}
	return raw
}

func parseBody(body io.Reader) (map[string]any, error) {
	if body == nil {
		return map[string]any{}, nil
	}
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("view: read body: %w", err)
	}
	if len(raw) == 0 {
		return map[string]any{}, nil
	}
	if !utf8.Valid(raw) {
		return nil, errors.New("view: body is not valid utf-8")
	}

	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("view: decode body: %w", err)
	}
	if data == nil {
		// body "null"
		return nil, errors.New("view: body is not a json object")
	}
	return data, nil
}

func allowHeader[T any](route Route[T]) string {
	methods := make([]string, 0, len(route.Handlers))
	for m := range route.Handlers {
		methods = append(methods, m)
	}
	sort.Strings(methods)
	return strings.Join(methods, ", ")
}

func (v *View[T]) logFrom(r *http.Request) *zerolog.Logger {
	if l := zerolog.Ctx(r.Context()); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &v.logger
}

func (v *View[T]) observe(r *http.Request, route, handler string, status int, elapsed time.Duration) {
	tags := []string{
		"api:" + v.name,
		"handler:" + handler,
		"status:" + strconv.Itoa(status),
	}
	_ = v.opts.Metrics.Count(metrics.DispatchCount, 1, tags)
	_ = v.opts.Metrics.Histogram(metrics.DispatchLatency, float64(elapsed.Milliseconds()), tags)

	v.logFrom(r).Debug().
		Str("api", v.name).
		Str("route", route).
		Str("handler", handler).
		Int("status", status).
		Dur("elapsed", elapsed).
		Msg("dispatch")
}
