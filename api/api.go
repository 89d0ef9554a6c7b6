package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/mux"

	"github.com/raywall/xrest/pkg/responder"
)

const DefaultVersion = "1.0"

var ErrSealed = errors.New("api: registry is sealed")

// Registrable é implementado por view.View.
type Registrable interface {
	Name() string
	Mount(router *mux.Router, namespace string) error
}

// Config define o prefixo e a versão comuns a todas as views registradas.
type Config struct {
	Prefix  string
	Version string
}

// Api é a tabela de registro das views.
type Api struct {
	mu     sync.Mutex
	cfg    Config
	router *mux.Router
	sealed bool
}

// New cria uma tabela vazia. Version vazia vira DefaultVersion.
func New(cfg Config) *Api {
	cfg.Prefix = "/" + strings.Trim(cfg.Prefix, "/")
	if cfg.Prefix == "/" {
		cfg.Prefix = ""
	}
	if cfg.Version == "" {
		cfg.Version = DefaultVersion
	}
	return &Api{cfg: cfg, router: mux.NewRouter()}
}

// BasePath retorna o caminho onde a view name é montada, sem a barra final.
func (a *Api) BasePath(name string) string {
	return fmt.Sprintf("%s/%s/%s", a.cfg.Prefix, name, a.cfg.Version)
}

// Register monta as rotas de v em "{prefix}/{api_name}/{version}/".
func (a *Api) Register(v Registrable) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.sealed {
		return ErrSealed
	}
	name := v.Name()
	if name == "" {
		return errors.New("api: view has no name")
	}

	sub := a.router.PathPrefix(a.BasePath(name)).Subrouter()
	if err := v.Mount(sub, name); err != nil {
		return fmt.Errorf("api: register %s: %w", name, err)
	}
	return nil
}

// Handler sela a tabela e retorna o roteador. Rotas desconhecidas respondem
// com o envelope 404 {"error": "not_found"}.
func (a *Api) Handler() http.Handler {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.sealed {
		a.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = responder.Write(w, responder.NotFound())
		})
		a.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = responder.Write(w, responder.MethodNotAllowed())
		})
		a.sealed = true
	}
	return a.router
}

// Sealed reports whether Handler has been called.
func (a *Api) Sealed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sealed
}

// Reverse monta a URL da rota "{api_name}:{rota}" com os pares de variáveis
// informados, e.g. Reverse("notes:object", "pk", "1").
func (a *Api) Reverse(name string, pairs ...string) (string, error) {
	route := a.router.Get(name)
	if route == nil {
		return "", fmt.Errorf("api: no route named %q", name)
	}
	u, err := route.URLPath(pairs...)
	if err != nil {
		return "", fmt.Errorf("api: reverse %q: %w", name, err)
	}
	return u.Path, nil
}

// Routes lista os nomes das rotas registradas, em ordem de registro.
func (a *Api) Routes() []string {
	var names []string
	_ = a.router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		if n := route.GetName(); n != "" {
			names = append(names, n)
		}
		return nil
	})
	return names
}
