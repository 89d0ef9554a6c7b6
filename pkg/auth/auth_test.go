package auth

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raywall/xrest/pkg/config"
)

func request(authorization string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if authorization != "" {
		r.Header.Set("Authorization", authorization)
	}
	return r
}

func basic(userpass string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(userpass))
}

func TestBasicAuthentication(t *testing.T) {
	strategy := NewBasic("test", "test")

	tests := []struct {
		name   string
		header string
		want   Decision
	}{
		{"valid credentials", basic("test:test"), Accepted},
		{"scheme is case insensitive", "bAsIc " + base64.StdEncoding.EncodeToString([]byte("test:test")), Accepted},
		{"password with colon splits on first", basic("test:te:st"), Rejected},
		{"wrong password", basic("test:nope"), Rejected},
		{"wrong user", basic("root:test"), Rejected},
		{"empty credentials", basic(":"), Rejected},
		{"missing header", "", Indeterminate},
		{"wrong scheme", "Bearer abc", Indeterminate},
		{"single field", "Basic", Indeterminate},
		{"three fields", "Basic abc def", Indeterminate},
		{"invalid base64", "Basic %%%", Indeterminate},
		{"no colon", basic("testtest"), Indeterminate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, strategy.Authenticate(request(tt.header)))
		})
	}
}

func TestBasicAuthentication_PasswordWithColon(t *testing.T) {
	strategy := NewBasic("svc", "a:b")
	assert.Equal(t, Accepted, strategy.Authenticate(request(basic("svc:a:b"))))
}

func TestBasicFromSettings_FollowsReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("basic_auth_user: one\nbasic_auth_password: pw\n"), 0o600))

	loader := config.NewLoader()
	initial, err := loader.Load(context.Background(), path)
	require.NoError(t, err)
	holder := config.NewHolder(loader, path, initial)

	strategy := BasicFromSettings(holder)
	assert.Equal(t, Accepted, strategy.Authenticate(request(basic("one:pw"))))

	require.NoError(t, os.WriteFile(path, []byte("basic_auth_user: two\nbasic_auth_password: pw\n"), 0o600))
	require.NoError(t, holder.Reload(context.Background()))

	assert.Equal(t, Rejected, strategy.Authenticate(request(basic("one:pw"))))
	assert.Equal(t, Accepted, strategy.Authenticate(request(basic("two:pw"))))
}

func TestNoAuthentication(t *testing.T) {
	assert.Equal(t, Accepted, NoAuthentication{}.Authenticate(request("")))
	assert.Equal(t, Accepted, NoAuthentication{}.Authenticate(request("Basic garbage")))
}

type fakeStore struct {
	keys map[string]bool
	err  error
	seen []string
}

func (f *fakeStore) Exists(ctx context.Context, keys ...string) *redis.IntCmd {
	f.seen = append(f.seen, keys...)
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	var n int64
	for _, k := range keys {
		if f.keys[k] {
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestTokenAuthentication(t *testing.T) {
	store := &fakeStore{keys: map[string]bool{"xrest:token:abc": true}}
	strategy := NewToken(store, "xrest:token:", zerolog.Nop())

	assert.Equal(t, Accepted, strategy.Authenticate(request("Token abc")))
	assert.Equal(t, Accepted, strategy.Authenticate(request("Bearer abc")))
	assert.Equal(t, Rejected, strategy.Authenticate(request("Token other")))
	assert.Equal(t, Indeterminate, strategy.Authenticate(request(basic("test:test"))))
	assert.Equal(t, Indeterminate, strategy.Authenticate(request("")))
	assert.Contains(t, store.seen, "xrest:token:abc")

	store.err = errors.New("connection refused")
	assert.Equal(t, Rejected, strategy.Authenticate(request("Token abc")))
}

func TestChain(t *testing.T) {
	store := &fakeStore{keys: map[string]bool{"t:good": true}}
	chain := Chain(NewBasic("test", "test"), NewToken(store, "t:", zerolog.Nop()))

	assert.Equal(t, Accepted, chain.Authenticate(request(basic("test:test"))))
	assert.Equal(t, Rejected, chain.Authenticate(request(basic("test:bad"))))
	assert.Equal(t, Accepted, chain.Authenticate(request("Bearer good")))
	assert.Equal(t, Rejected, chain.Authenticate(request("Bearer bad")))
	assert.Equal(t, Indeterminate, chain.Authenticate(request("")))
}

func TestDecision_String(t *testing.T) {
	assert.Equal(t, "accepted", Accepted.String())
	assert.Equal(t, "rejected", Rejected.String())
	assert.Equal(t, "indeterminate", Indeterminate.String())
}
