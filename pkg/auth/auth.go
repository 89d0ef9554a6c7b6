// Package auth implementa as estratégias de autenticação consultadas pela
// view antes de despachar uma requisição.
package auth

import (
	"net/http"
	"strings"
)

// Decision é o resultado de uma estratégia de autenticação.
type Decision int

const (
	// Indeterminate: a requisição não traz credenciais que a estratégia entenda.
	Indeterminate Decision = iota
	// Rejected: credenciais presentes, porém inválidas.
	Rejected
	// Accepted: credenciais válidas.
	Accepted
)

func (d Decision) String() string {
	switch d {
	case Accepted:
		return "accepted"
	case Rejected:
		return "rejected"
	default:
		return "indeterminate"
	}
}

// Authenticator decide se uma requisição pode prosseguir. Somente Accepted
// libera o despacho.
type Authenticator interface {
	Authenticate(r *http.Request) Decision
}

// AuthenticatorFunc adapta uma função ao Authenticator.
type AuthenticatorFunc func(r *http.Request) Decision

func (f AuthenticatorFunc) Authenticate(r *http.Request) Decision {
	return f(r)
}

// NoAuthentication aceita qualquer requisição.
type NoAuthentication struct{}

func (NoAuthentication) Authenticate(*http.Request) Decision {
	return Accepted
}

// Chain consulta as estratégias em ordem; a primeira decisão diferente de
// Indeterminate vence.
func Chain(strategies ...Authenticator) Authenticator {
	return AuthenticatorFunc(func(r *http.Request) Decision {
		for _, s := range strategies {
			if d := s.Authenticate(r); d != Indeterminate {
				return d
			}
		}
		return Indeterminate
	})
}

// splitAuthorization separa o header Authorization em esquema e credencial.
// Exige exatamente dois campos separados por espaço.
func splitAuthorization(r *http.Request) (scheme, credential string, ok bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", "", false
	}
	parts := strings.Fields(header)
	if len(parts) != 2 {
		return "", "", false
	}
	return parts[0], parts[1], true
}
