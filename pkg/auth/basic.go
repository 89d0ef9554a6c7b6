package auth

import (
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/raywall/xrest/pkg/config"
)

// Credentials é o par usuário/senha aceito pela autenticação Basic.
type Credentials struct {
	User     string
	Password string
}

// BasicAuthentication valida o header "Authorization: Basic <base64(user:pass)>"
// contra um único par de credenciais.
type BasicAuthentication struct {
	credentials func() Credentials
}

// NewBasic cria a estratégia com credenciais fixas.
func NewBasic(user, password string) *BasicAuthentication {
	c := Credentials{User: user, Password: password}
	return &BasicAuthentication{credentials: func() Credentials { return c }}
}

// NewBasicFunc cria a estratégia lendo as credenciais a cada requisição.
func NewBasicFunc(fn func() Credentials) *BasicAuthentication {
	return &BasicAuthentication{credentials: fn}
}

// BasicFromSettings lê as credenciais do snapshot corrente do holder, de modo
// que um reload das settings passa a valer na próxima requisição.
func BasicFromSettings(h *config.Holder) *BasicAuthentication {
	return NewBasicFunc(func() Credentials {
		s := h.Get()
		return Credentials{User: s.BasicAuthUser, Password: s.BasicAuthPassword}
	})
}

func (b *BasicAuthentication) Authenticate(r *http.Request) Decision {
	scheme, token, ok := splitAuthorization(r)
	if !ok || !strings.EqualFold(scheme, "basic") {
		return Indeterminate
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return Indeterminate
	}

	decoded, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return Indeterminate
	}

	user, password, found := strings.Cut(string(decoded), ":")
	if !found {
		return Indeterminate
	}

	want := b.credentials()
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(want.User)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(want.Password)) == 1
	if userOK && passOK {
		return Accepted
	}
	return Rejected
}
