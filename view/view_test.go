package view

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raywall/xrest/easyrepo"
	"github.com/raywall/xrest/gormdb"
	"github.com/raywall/xrest/pkg/auth"
	"github.com/raywall/xrest/pkg/config"
	"github.com/raywall/xrest/pkg/metrics"
	"github.com/raywall/xrest/pkg/responder"
)

type item struct {
	ID    int    `gorm:"primaryKey"`
	Title string `gorm:"size:100"`
	Text  string
}

func (i *item) ToJSONDict() map[string]any {
	return map[string]any{"pk": i.ID, "title": i.Title, "text": i.Text}
}

type itemForm struct {
	Title string `json:"title" validate:"required,max=100"`
	Text  string `json:"text" validate:"required"`
}

func (f *itemForm) Apply(i *item) {
	i.Title = f.Title
	i.Text = f.Text
}

type textForm struct {
	Text string `json:"text" validate:"required"`
}

func (f *textForm) Apply(i *item) { i.Text = f.Text }

type noModel struct{ ID int }

var dbSeq atomic.Int64

type fixture struct {
	db      *gormdb.DB
	repo    *gormdb.Repository[item]
	view    *View[item]
	router  *mux.Router
	metrics *metrics.Recorder
}

func newFixture(t *testing.T, mutate func(*Options[item])) *fixture {
	t.Helper()

	db, err := gormdb.Open(config.DatabaseConf{
		Driver: "sqlite",
		DSN:    gormdb.MemoryDSN(fmt.Sprintf("view_test_%d", dbSeq.Add(1))),
	}, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, db.Migrate(&item{}))
	t.Cleanup(func() { _ = db.Close() })

	repo := gormdb.NewRepository[item](db)
	rec := &metrics.Recorder{}
	opts := Options[item]{
		Repository: repo,
		Transactor: db,
		CreateForm: func() easyrepo.Form[item] { return &itemForm{} },
		UpdateForm: func() easyrepo.Form[item] { return &textForm{} },
		Metrics:    rec,
	}
	if mutate != nil {
		mutate(&opts)
	}

	v, err := New[item]("items", opts)
	require.NoError(t, err)

	router := mux.NewRouter()
	require.NoError(t, v.Mount(router.PathPrefix("/api/items/1.0").Subrouter(), "items"))

	return &fixture{db: db, repo: repo, view: v, router: router, metrics: rec}
}

func (f *fixture) do(t *testing.T, method, path, body string, headers ...string) (int, map[string]any, http.Header) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	var env map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env, w.Header()
}

func (f *fixture) seed(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, f.repo.Create(context.Background(), &item{Title: fmt.Sprintf("t%d", i), Text: "x"}))
	}
}

func (f *fixture) count(t *testing.T) int {
	t.Helper()
	n, err := f.repo.Count(context.Background())
	require.NoError(t, err)
	return n
}

func TestNew_Validation(t *testing.T) {
	repo := easyrepo.Repository[item](nil)

	_, err := New[item]("", Options[item]{})
	assert.ErrorContains(t, err, "name is required")

	_, err = New[item]("a/b", Options[item]{})
	assert.ErrorContains(t, err, "must not contain")

	_, err = New[noModel]("x", Options[noModel]{})
	assert.ErrorContains(t, err, "ToJSONDict")

	_, err = New[item]("x", Options[item]{Repository: repo})
	assert.ErrorContains(t, err, "repository is required")
}

func TestAddRoute_Validation(t *testing.T) {
	f := newFixture(t, nil)
	fn := func(c *Context[item]) (responder.Result, error) { return responder.OK(nil), nil }

	tests := []struct {
		name  string
		route Route[item]
		want  string
	}{
		{"empty name", Route[item]{Pattern: "/x/", Handlers: map[string]Handler[item]{"GET": {Name: "h", Fn: fn}}}, "name is required"},
		{"relative pattern", Route[item]{Name: "r", Pattern: "x/", Handlers: map[string]Handler[item]{"GET": {Name: "h", Fn: fn}}}, "must start with"},
		{"no handlers", Route[item]{Name: "r", Pattern: "/x/"}, "no handlers"},
		{"duplicate", Route[item]{Name: RouteList, Pattern: "/x/", Handlers: map[string]Handler[item]{"GET": {Name: "h", Fn: fn}}}, "already registered"},
		{"unknown method", Route[item]{Name: "r", Pattern: "/x/", Handlers: map[string]Handler[item]{"FETCH": {Name: "h", Fn: fn}}}, "unknown method"},
		{"unnamed handler", Route[item]{Name: "r", Pattern: "/x/", Handlers: map[string]Handler[item]{"GET": {Fn: fn}}}, "has no name"},
		{"nil function", Route[item]{Name: "r", Pattern: "/x/", Handlers: map[string]Handler[item]{"GET": {Name: "h"}}}, "has no function"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorContains(t, f.view.AddRoute(tt.route), tt.want)
		})
	}

	require.NoError(t, f.view.AddRoute(Route[item]{
		Name:     "extra",
		Pattern:  f.view.ObjectPath("extra/"),
		Handlers: map[string]Handler[item]{"post": {Name: "post__extra", Fn: fn}},
	}))
	routes := f.view.Routes()
	require.Len(t, routes, 3)
	assert.Equal(t, "/{pk:[0-9]+}/extra/", routes[2].Pattern)
	assert.Contains(t, routes[2].Handlers, http.MethodPost)
}

func TestMount_UnknownSkipAuthentication(t *testing.T) {
	f := newFixture(t, nil)

	v, err := New[item]("items", Options[item]{
		Repository:         f.repo,
		CreateForm:         func() easyrepo.Form[item] { return &itemForm{} },
		SkipAuthentication: []string{"get__nothing"},
	})
	require.NoError(t, err)
	assert.ErrorContains(t, v.Mount(mux.NewRouter(), "items"), "get__nothing")
}

func TestDispatch_List(t *testing.T) {
	f := newFixture(t, nil)
	f.seed(t, 25)

	status, env, _ := f.do(t, http.MethodGet, "/api/items/1.0/", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "sync", env["type"])

	meta := env["metadata"].(map[string]any)
	objects := meta["objects"].([]any)
	pagination := meta["pagination"].(map[string]any)
	assert.Len(t, objects, 10)
	assert.Equal(t, float64(10), pagination["count"])
	assert.Equal(t, float64(25), pagination["overall_count"])
	assert.Equal(t, "/api/items/1.0/?limit=10&offset=10", pagination["next_url"])
	assert.Nil(t, pagination["previous_url"])

	first := objects[0].(map[string]any)
	assert.Equal(t, "t0", first["title"])
	assert.Contains(t, first, "pk")
}

func TestDispatch_ListPaginationParams(t *testing.T) {
	f := newFixture(t, nil)
	f.seed(t, 25)

	t.Run("limit honoured", func(t *testing.T) {
		status, env, _ := f.do(t, http.MethodGet, "/api/items/1.0/?offset=20&limit=3", "")
		require.Equal(t, http.StatusOK, status)
		pagination := env["metadata"].(map[string]any)["pagination"].(map[string]any)
		assert.Equal(t, float64(3), pagination["count"])
		assert.Equal(t, "/api/items/1.0/?limit=3&offset=23", pagination["next_url"])
		assert.Equal(t, "/api/items/1.0/?limit=3&offset=17", pagination["previous_url"])
	})

	t.Run("invalid params", func(t *testing.T) {
		status, env, _ := f.do(t, http.MethodGet, "/api/items/1.0/?offset=-1&limit=abc", "")
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "error", env["type"])
		assert.Equal(t, map[string]any{
			"errors": map[string]any{
				"offset": "Ensure this value is greater than or equal to 0.",
				"limit":  "Enter a whole number.",
			},
		}, env["metadata"])
	})
}

func TestDispatch_Create(t *testing.T) {
	f := newFixture(t, nil)

	status, env, _ := f.do(t, http.MethodPost, "/api/items/1.0/", `{"title":"hello","text":"world"}`)
	require.Equal(t, http.StatusOK, status)
	obj := env["metadata"].(map[string]any)["object"].(map[string]any)
	assert.Equal(t, "hello", obj["title"])
	assert.Equal(t, 1, f.count(t))

	status, env, _ = f.do(t, http.MethodPost, "/api/items/1.0/", `{"title":"only"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, map[string]any{"errors": map[string]any{"text": "This field is required."}}, env["metadata"])
	assert.Equal(t, 1, f.count(t))
}

func TestDispatch_InvalidData(t *testing.T) {
	f := newFixture(t, nil)
	f.seed(t, 1)

	bodies := []string{`{"title":`, `[1,2]`, `"text"`, `null`, string([]byte{0xff, 0xfe})}
	for _, body := range bodies {
		for _, path := range []string{"/api/items/1.0/", "/api/items/1.0/1/"} {
			status, env, _ := f.do(t, http.MethodPost, path, body)
			assert.Equal(t, http.StatusBadRequest, status, "%s %q", path, body)
			assert.Equal(t, map[string]any{"error": "invalid_data"}, env["metadata"])
		}
	}
	assert.Equal(t, 1, f.count(t))
}

func TestDispatch_Object(t *testing.T) {
	f := newFixture(t, nil)
	f.seed(t, 1)

	status, env, _ := f.do(t, http.MethodGet, "/api/items/1.0/1/", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "t0", env["metadata"].(map[string]any)["object"].(map[string]any)["title"])

	status, env, _ = f.do(t, http.MethodPost, "/api/items/1.0/1/", `{"title":"ignored","text":"changed"}`)
	require.Equal(t, http.StatusOK, status)
	obj := env["metadata"].(map[string]any)["object"].(map[string]any)
	assert.Equal(t, "t0", obj["title"])
	assert.Equal(t, "changed", obj["text"])

	status, env, _ = f.do(t, http.MethodDelete, "/api/items/1.0/1/", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]any{}, env["metadata"])

	status, env, _ = f.do(t, http.MethodGet, "/api/items/1.0/1/", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, map[string]any{"error": "object_not_found"}, env["metadata"])
}

func TestDispatch_NoUpdateForm(t *testing.T) {
	f := newFixture(t, func(o *Options[item]) { o.UpdateForm = nil })
	f.seed(t, 1)

	status, env, _ := f.do(t, http.MethodPost, "/api/items/1.0/1/", `{"text":"x"}`)
	assert.Equal(t, http.StatusMethodNotAllowed, status)
	assert.Equal(t, map[string]any{"error": "method_not_allowed"}, env["metadata"])
}

func TestDispatch_MethodNotAllowed(t *testing.T) {
	f := newFixture(t, nil)

	status, env, headers := f.do(t, http.MethodPut, "/api/items/1.0/", `{}`)
	assert.Equal(t, http.StatusMethodNotAllowed, status)
	assert.Equal(t, "error", env["type"])
	assert.Equal(t, "GET, POST", headers.Get("Allow"))
}

func TestDispatch_MethodNotAllowedAfterAuthentication(t *testing.T) {
	f := newFixture(t, func(o *Options[item]) {
		o.Authenticator = auth.NewBasic("user", "pass")
		o.SkipAuthentication = []string{GetListHandler, PostListHandler}
	})

	status, env, headers := f.do(t, http.MethodPut, "/api/items/1.0/", `{}`)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, map[string]any{"error": "unauthorized"}, env["metadata"])
	assert.Empty(t, headers.Get("Allow"))

	good := "Basic " + base64.StdEncoding.EncodeToString([]byte("user:pass"))
	status, env, headers = f.do(t, http.MethodPut, "/api/items/1.0/", `{}`, "Authorization", good)
	assert.Equal(t, http.StatusMethodNotAllowed, status)
	assert.Equal(t, map[string]any{"error": "method_not_allowed"}, env["metadata"])
	assert.Equal(t, "GET, POST", headers.Get("Allow"))
}

func TestDispatch_Authentication(t *testing.T) {
	f := newFixture(t, func(o *Options[item]) {
		o.Authenticator = auth.NewBasic("user", "pass")
		o.SkipAuthentication = []string{GetListHandler}
	})

	status, _, _ := f.do(t, http.MethodGet, "/api/items/1.0/", "")
	assert.Equal(t, http.StatusOK, status)

	status, env, _ := f.do(t, http.MethodPost, "/api/items/1.0/", `{"title":"a","text":"b"}`)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, map[string]any{"error": "unauthorized"}, env["metadata"])

	bad := "Basic " + base64.StdEncoding.EncodeToString([]byte("user:wrong"))
	status, _, _ = f.do(t, http.MethodPost, "/api/items/1.0/", `{"title":"a","text":"b"}`, "Authorization", bad)
	assert.Equal(t, http.StatusUnauthorized, status)

	good := "Basic " + base64.StdEncoding.EncodeToString([]byte("user:pass"))
	status, _, _ = f.do(t, http.MethodPost, "/api/items/1.0/", `{"title":"a","text":"b"}`, "Authorization", good)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, f.count(t))
}

func TestDispatch_RollbackOnErrorResult(t *testing.T) {
	f := newFixture(t, nil)

	require.NoError(t, f.view.AddRoute(Route[item]{
		Name:    "create-then-fail",
		Pattern: "/fail/",
		Handlers: map[string]Handler[item]{
			http.MethodPost: {Name: "post__fail", Fn: func(c *Context[item]) (responder.Result, error) {
				if _, err := CreateObject(c); err != nil {
					return responder.Result{}, err
				}
				return responder.Fail(http.StatusConflict, responder.Payload{"error": "conflict"}), nil
			}},
		},
	}))
	require.NoError(t, f.view.AddRoute(Route[item]{
		Name:    "create-then-error",
		Pattern: "/error/",
		Handlers: map[string]Handler[item]{
			http.MethodPost: {Name: "post__error", Fn: func(c *Context[item]) (responder.Result, error) {
				if _, err := CreateObject(c); err != nil {
					return responder.Result{}, err
				}
				return responder.Result{}, errors.New("downstream failed")
			}},
		},
	}))
	router := mux.NewRouter()
	require.NoError(t, f.view.Mount(router.PathPrefix("/api/items/1.0").Subrouter(), "items"))
	f.router = router

	status, _, _ := f.do(t, http.MethodPost, "/api/items/1.0/fail/", `{"title":"a","text":"b"}`)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, 0, f.count(t))

	status, env, _ := f.do(t, http.MethodPost, "/api/items/1.0/error/", `{"title":"a","text":"b"}`)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, map[string]any{"error": "internal_error"}, env["metadata"])
	assert.Equal(t, 0, f.count(t))
}

func TestDispatch_CommitErrorIsTranslated(t *testing.T) {
	tests := []struct {
		name       string
		commitErr  error
		wantStatus int
		wantBody   map[string]any
	}{
		{"concurrent delete", easyrepo.ErrNotFound, http.StatusNotFound, map[string]any{"error": "object_not_found"}},
		{"conflicting write", &easyrepo.ValidationError{Fields: map[string]string{"title": "taken"}}, http.StatusBadRequest, map[string]any{"errors": map[string]any{"title": "taken"}}},
		{"unexpected failure", errors.New("connection reset"), http.StatusInternalServerError, map[string]any{"error": "internal_error"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, func(o *Options[item]) {
				o.Transactor = easyrepo.TransactorFunc(func(ctx context.Context, fn func(ctx context.Context) error) error {
					if err := fn(ctx); err != nil {
						return err
					}
					return tt.commitErr
				})
			})
			f.seed(t, 1)

			status, env, _ := f.do(t, http.MethodDelete, "/api/items/1.0/1/", "")
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantBody, env["metadata"])
		})
	}
}

func TestDispatch_ListLimitFunc(t *testing.T) {
	var limit atomic.Int64
	limit.Store(2)
	f := newFixture(t, func(o *Options[item]) {
		o.DefaultListLimit = 4
		o.ListLimit = func() int { return int(limit.Load()) }
	})
	f.seed(t, 6)

	pageSize := func() int {
		status, env, _ := f.do(t, http.MethodGet, "/api/items/1.0/", "")
		require.Equal(t, http.StatusOK, status)
		return len(env["metadata"].(map[string]any)["objects"].([]any))
	}

	assert.Equal(t, 2, pageSize())
	limit.Store(5)
	assert.Equal(t, 5, pageSize())
	limit.Store(0)
	assert.Equal(t, 4, pageSize())
}

func TestDispatch_Metrics(t *testing.T) {
	f := newFixture(t, nil)

	f.do(t, http.MethodGet, "/api/items/1.0/", "")
	f.do(t, http.MethodGet, "/api/items/1.0/99/", "")

	counts := f.metrics.Find(metrics.DispatchCount)
	require.Len(t, counts, 2)
	assert.ElementsMatch(t, []string{"api:items", "handler:get__list", "status:200"}, counts[0].Tags)
	assert.ElementsMatch(t, []string{"api:items", "handler:get__object", "status:404"}, counts[1].Tags)
	assert.Len(t, f.metrics.Find(metrics.DispatchLatency), 2)
}

func TestParseBody(t *testing.T) {
	data, err := parseBody(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, data)

	data, err = parseBody(strings.NewReader(`{"a":1}`))
	require.NoError(t, err)
	assert.Equal(t, float64(1), data["a"])

	_, err = parseBody(strings.NewReader(`[]`))
	assert.Error(t, err)
}

func TestCoercePK(t *testing.T) {
	assert.Equal(t, 12, coercePK("12"))
	assert.Equal(t, "a1b2", coercePK("a1b2"))
}
