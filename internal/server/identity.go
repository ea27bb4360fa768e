package server

import (
	"context"
	"crypto/sha256"
	"net/http"
	"sync"
	"time"

	"github.com/nihongowow/arcade/internal/nihongo"
	"github.com/nihongowow/arcade/internal/provider"
)

const (
	identityTTL   = time.Minute
	maxIdentities = 4096
)

// identities resolves bearer tokens to the user the backend says they
// belong to. Answers are cached per token hash for ttl.
type identities struct {
	api *provider.Client
	ttl time.Duration
	now func() time.Time

	mu    sync.Mutex
	users map[[sha256.Size]byte]cachedUser
}

type cachedUser struct {
	user    nihongo.User
	expires time.Time
}

func newIdentities(api *provider.Client, ttl time.Duration) *identities {
	return &identities{
		api:   api,
		ttl:   ttl,
		now:   time.Now,
		users: make(map[[sha256.Size]byte]cachedUser),
	}
}

func (c *identities) resolve(ctx context.Context, sess nihongo.Session) (nihongo.User, error) {
	key := sha256.Sum256([]byte(sess.Token))
	now := c.now()

	c.mu.Lock()
	e, ok := c.users[key]
	c.mu.Unlock()
	if ok && now.Before(e.expires) {
		return e.user, nil
	}

	user, err := c.api.Me(ctx, sess)
	if err != nil {
		return nihongo.User{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.users) >= maxIdentities {
		for k, e := range c.users {
			if !now.Before(e.expires) {
				delete(c.users, k)
			}
		}
		if len(c.users) >= maxIdentities {
			clear(c.users)
		}
	}
	c.users[key] = cachedUser{user: user, expires: now.Add(c.ttl)}
	return user, nil
}

// verifiedSession swaps the username read from the token for the one the
// backend resolves it to. Routes that check ownership by username must sit
// behind it. Anonymous requests pass through.
func verifiedSession(ids *identities) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := sessionFrom(r)
			if !sess.Authenticated() {
				next.ServeHTTP(w, r)
				return
			}
			user, err := ids.resolve(r.Context(), sess)
			if err != nil {
				if provider.StatusOf(err) == http.StatusUnauthorized {
					w.Header().Set("WWW-Authenticate", "Bearer")
					writeError(w, http.StatusUnauthorized, "could not validate credentials")
					return
				}
				writeError(w, http.StatusBadGateway, "backend unavailable")
				return
			}
			if user.Username == "" {
				writeError(w, http.StatusUnauthorized, "could not validate credentials")
				return
			}

			sess.Username = user.Username
			ctx := context.WithValue(r.Context(), ctxKeySession, sess)
			ctx = context.WithValue(ctx, ctxKeyUser, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
