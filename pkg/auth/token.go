package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// TokenStore é o subconjunto do cliente Redis usado pela estratégia.
// *redis.Client o satisfaz.
type TokenStore interface {
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
}

// TokenAuthentication aceita "Authorization: Token <key>" ou "Bearer <key>"
// quando a chave <prefix><key> existe no Redis.
type TokenAuthentication struct {
	store  TokenStore
	prefix string
	logger zerolog.Logger
}

func NewToken(store TokenStore, prefix string, logger zerolog.Logger) *TokenAuthentication {
	return &TokenAuthentication{store: store, prefix: prefix, logger: logger}
}

func (t *TokenAuthentication) Authenticate(r *http.Request) Decision {
	scheme, key, ok := splitAuthorization(r)
	if !ok {
		return Indeterminate
	}
	if !strings.EqualFold(scheme, "token") && !strings.EqualFold(scheme, "bearer") {
		return Indeterminate
	}

	n, err := t.store.Exists(r.Context(), t.prefix+key).Result()
	if err != nil {
		t.logger.Error().Err(err).Msg("token lookup failed")
		return Rejected
	}
	if n == 0 {
		return Rejected
	}
	return Accepted
}
