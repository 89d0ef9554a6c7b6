package view

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/raywall/xrest/easyrepo"
	"github.com/raywall/xrest/pkg/auth"
	"github.com/raywall/xrest/pkg/metrics"
	"github.com/raywall/xrest/pkg/responder"
)

// Nomes das rotas e handlers padrão.
const (
	RouteList   = "list"
	RouteObject = "object"

	GetListHandler      = "get__list"
	PostListHandler     = "post__list"
	GetObjectHandler    = "get__object"
	PostObjectHandler   = "post__object"
	DeleteObjectHandler = "delete__object"
)

const (
	defaultObjectVar     = "pk"
	defaultObjectPattern = "[0-9]+"
	defaultListLimit     = 10
)

// Model é o contrato de serialização exigido de *T.
type Model interface {
	// ToJSONDict retorna os campos do objeto, incluindo a chave primária em "pk".
	ToJSONDict() map[string]any
}

// FormFactory builds a fresh form for each request.
type FormFactory[T any] func() easyrepo.Form[T]

// HandlerFunc handles one request. A returned error is translated into an
// error envelope by the dispatcher.
type HandlerFunc[T any] func(c *Context[T]) (responder.Result, error)

// Handler associa um nome (usado em SkipAuthentication) a uma função.
type Handler[T any] struct {
	Name string
	Fn   HandlerFunc[T]
}

// Route maps HTTP methods of one path pattern to handlers. Pattern is relative
// to the view base path and uses gorilla/mux syntax.
type Route[T any] struct {
	Name     string
	Pattern  string
	Handlers map[string]Handler[T]
}

// Options configura uma View.
type Options[T any] struct {
	Repository easyrepo.Repository[T]
	// Transactor envolve cada requisição. Default: easyrepo.NoTransaction.
	Transactor easyrepo.Transactor
	CreateForm FormFactory[T]
	// UpdateForm nil faz post__object responder 405.
	UpdateForm         FormFactory[T]
	Authenticator      auth.Authenticator
	SkipAuthentication []string
	ObjectVar          string
	ObjectPattern      string
	DefaultListLimit   int
	// ListLimit, quando definido, é lido a cada listagem e prevalece sobre
	// DefaultListLimit se retornar um valor >= 1.
	ListLimit func() int
	Logger    *zerolog.Logger
	Metrics   metrics.Provider
}

// View expõe um modelo através das rotas list e object e das rotas
// adicionadas com AddRoute.
type View[T any] struct {
	name    string
	opts    Options[T]
	service *easyrepo.Service[T]
	routes  []Route[T]
	skip    map[string]struct{}
	logger  zerolog.Logger
}

// New cria a view name com as rotas padrão registradas.
func New[T any](name string, opts Options[T]) (*View[T], error) {
	if name == "" {
		return nil, errors.New("view: name is required")
	}
	if strings.Contains(name, "/") {
		return nil, fmt.Errorf("view: name %q must not contain '/'", name)
	}
	if _, ok := any(new(T)).(Model); !ok {
		return nil, fmt.Errorf("view: *%T must implement ToJSONDict", *new(T))
	}
	if opts.Repository == nil {
		return nil, errors.New("view: repository is required")
	}
	if opts.CreateForm == nil {
		return nil, errors.New("view: create form is required")
	}

	if opts.Transactor == nil {
		opts.Transactor = easyrepo.NoTransaction
	}
	if opts.Authenticator == nil {
		opts.Authenticator = auth.NoAuthentication{}
	}
	if opts.ObjectVar == "" {
		opts.ObjectVar = defaultObjectVar
	}
	if opts.ObjectPattern == "" {
		opts.ObjectPattern = defaultObjectPattern
	}
	if opts.DefaultListLimit < 1 {
		opts.DefaultListLimit = defaultListLimit
	}
	if opts.Metrics == nil {
		opts.Metrics = &metrics.NoopProvider{}
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	svc, err := easyrepo.NewService(opts.Repository)
	if err != nil {
		return nil, fmt.Errorf("view: %w", err)
	}

	v := &View[T]{
		name:    name,
		opts:    opts,
		service: svc,
		skip:    make(map[string]struct{}, len(opts.SkipAuthentication)),
		logger:  logger.With().Str("api", name).Logger(),
	}
	for _, h := range opts.SkipAuthentication {
		v.skip[h] = struct{}{}
	}

	defaults := []Route[T]{
		{
			Name:    RouteList,
			Pattern: "/",
			Handlers: map[string]Handler[T]{
				http.MethodGet:  {Name: GetListHandler, Fn: GetList[T]},
				http.MethodPost: {Name: PostListHandler, Fn: PostList[T]},
			},
		},
		{
			Name:    RouteObject,
			Pattern: v.ObjectPath(""),
			Handlers: map[string]Handler[T]{
				http.MethodGet:    {Name: GetObjectHandler, Fn: GetObject[T]},
				http.MethodPost:   {Name: PostObjectHandler, Fn: PostObject[T]},
				http.MethodDelete: {Name: DeleteObjectHandler, Fn: DeleteObject[T]},
			},
		},
	}
	for _, r := range defaults {
		if err := v.AddRoute(r); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// Name é o api_name usado pelo registro.
func (v *View[T]) Name() string {
	return v.name
}

// Service returns the form service backing the default handlers.
func (v *View[T]) Service() *easyrepo.Service[T] {
	return v.service
}

// Routes returns the registered routes in registration order.
func (v *View[T]) Routes() []Route[T] {
	out := make([]Route[T], len(v.routes))
	copy(out, v.routes)
	return out
}

// ObjectPath returns the pattern of the object route followed by suffix,
// e.g. ObjectPath("test/") is "/{pk:[0-9]+}/test/".
func (v *View[T]) ObjectPath(suffix string) string {
	return fmt.Sprintf("/{%s:%s}/%s", v.opts.ObjectVar, v.opts.ObjectPattern, strings.TrimPrefix(suffix, "/"))
}

var knownMethods = map[string]struct{}{
	http.MethodGet:     {},
	http.MethodHead:    {},
	http.MethodPost:    {},
	http.MethodPut:     {},
	http.MethodPatch:   {},
	http.MethodDelete:  {},
	http.MethodOptions: {},
}

// AddRoute registra uma rota adicional. Method keys are normalized to upper
// case.
func (v *View[T]) AddRoute(r Route[T]) error {
	if r.Name == "" {
		return errors.New("view: route name is required")
	}
	if r.Pattern == "" || !strings.HasPrefix(r.Pattern, "/") {
		return fmt.Errorf("view: route %q: pattern must start with '/'", r.Name)
	}
	if len(r.Handlers) == 0 {
		return fmt.Errorf("view: route %q: no handlers", r.Name)
	}
	for _, existing := range v.routes {
		if existing.Name == r.Name {
			return fmt.Errorf("view: route %q already registered", r.Name)
		}
	}

	handlers := make(map[string]Handler[T], len(r.Handlers))
	for method, h := range r.Handlers {
		m := strings.ToUpper(method)
		if _, ok := knownMethods[m]; !ok {
			return fmt.Errorf("view: route %q: unknown method %q", r.Name, method)
		}
		if h.Name == "" {
			return fmt.Errorf("view: route %q: handler for %s has no name", r.Name, m)
		}
		if h.Fn == nil {
			return fmt.Errorf("view: route %q: handler %q has no function", r.Name, h.Name)
		}
		handlers[m] = h
	}
	r.Handlers = handlers

	v.routes = append(v.routes, r)
	return nil
}

// Mount registra as rotas da view em router com nomes "{namespace}:{route}".
func (v *View[T]) Mount(router *mux.Router, namespace string) error {
	known := make(map[string]struct{})
	for _, r := range v.routes {
		for _, h := range r.Handlers {
			known[h.Name] = struct{}{}
		}
	}
	for name := range v.skip {
		if _, ok := known[name]; !ok {
			return fmt.Errorf("view %s: skip authentication names unknown handler %q", v.name, name)
		}
	}

	for _, r := range v.routes {
		router.Handle(r.Pattern, v.dispatch(r)).Name(namespace + ":" + r.Name)
	}
	return nil
}

// Context carries everything a handler needs for one request.
type Context[T any] struct {
	// Request carries the transactional context.
	Request *http.Request
	// Object is the instance resolved from the route key, nil otherwise.
	Object *T
	// Data is the parsed JSON body of write requests.
	Data    map[string]any
	Vars    map[string]string
	Route   string
	Handler string

	view *View[T]
}

// Context returns the request context, which carries the active transaction.
func (c *Context[T]) Context() context.Context {
	return c.Request.Context()
}

// View returns the view serving the request.
func (c *Context[T]) View() *View[T] {
	return c.view
}

// Logger returns the request logger.
func (c *Context[T]) Logger() *zerolog.Logger {
	return zerolog.Ctx(c.Context())
}
