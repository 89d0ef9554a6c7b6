package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeView struct {
	name    string
	body    string
	failErr error
}

func (f *fakeView) Name() string { return f.name }

func (f *fakeView) Mount(router *mux.Router, namespace string) error {
	if f.failErr != nil {
		return f.failErr
	}
	router.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(f.body))
	}).Name(namespace + ":list")
	router.HandleFunc("/{pk:[0-9]+}/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(f.body + ":" + mux.Vars(r)["pk"]))
	}).Name(namespace + ":object")
	return nil
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestRegister_MountsUnderPrefixNameVersion(t *testing.T) {
	a := New(Config{Prefix: "/api/"})
	require.NoError(t, a.Register(&fakeView{name: "notes", body: "notes"}))
	require.NoError(t, a.Register(&fakeView{name: "tags", body: "tags"}))
	h := a.Handler()

	assert.Equal(t, "notes", get(t, h, "/api/notes/1.0/").Body.String())
	assert.Equal(t, "tags:7", get(t, h, "/api/tags/1.0/7/").Body.String())

	w := get(t, h, "/api/notes/2.0/")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"type":"error","status":404,"metadata":{"error":"not_found"}}`, w.Body.String())
}

func TestRegister_SameNameFirstWins(t *testing.T) {
	a := New(Config{Prefix: "/api", Version: "2.1"})
	require.NoError(t, a.Register(&fakeView{name: "notes", body: "first"}))
	require.NoError(t, a.Register(&fakeView{name: "notes", body: "second"}))

	assert.Equal(t, "first", get(t, a.Handler(), "/api/notes/2.1/").Body.String())
}

func TestRegister_AfterSeal(t *testing.T) {
	a := New(Config{})
	_ = a.Handler()

	assert.True(t, a.Sealed())
	assert.ErrorIs(t, a.Register(&fakeView{name: "notes"}), ErrSealed)
}

func TestRegister_MountError(t *testing.T) {
	a := New(Config{})
	boom := errors.New("bad skip list")

	err := a.Register(&fakeView{name: "notes", failErr: boom})
	assert.ErrorIs(t, err, boom)
	assert.ErrorContains(t, a.Register(&fakeView{}), "no name")
}

func TestReverseAndRoutes(t *testing.T) {
	a := New(Config{Prefix: "api"})
	require.NoError(t, a.Register(&fakeView{name: "notes"}))

	path, err := a.Reverse("notes:object", "pk", "12")
	require.NoError(t, err)
	assert.Equal(t, "/api/notes/1.0/12/", path)

	path, err = a.Reverse("notes:list")
	require.NoError(t, err)
	assert.Equal(t, "/api/notes/1.0/", path)

	_, err = a.Reverse("notes:missing")
	assert.Error(t, err)

	_, err = a.Reverse("notes:object", "pk", "abc")
	assert.Error(t, err)

	assert.Equal(t, []string{"notes:list", "notes:object"}, a.Routes())
}

func TestNew_EmptyPrefix(t *testing.T) {
	a := New(Config{})
	assert.Equal(t, "/notes/1.0", a.BasePath("notes"))
}
