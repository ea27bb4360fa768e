package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	jwt "github.com/form3tech-oss/jwt-go"

	"github.com/nihongowow/arcade/internal/audit"
	"github.com/nihongowow/arcade/internal/nihongo"
	"github.com/nihongowow/arcade/internal/provider"
	"github.com/nihongowow/arcade/internal/ratelimit"
)

type ctxKey int

const (
	ctxKeySession ctxKey = iota
	ctxKeyUser
)

var errTokenExpired = errors.New("token expired")

// parseSession reads the bearer token without verifying its signature; the
// backend verifies it on every call. It rejects malformed and expired
// tokens early. The username taken from the "sub" claim is unverified;
// verifiedSession replaces it where ownership is checked.
func parseSession(raw string, now time.Time) (nihongo.Session, error) {
	claims := jwt.MapClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(raw, claims); err != nil {
		return nihongo.Session{}, fmt.Errorf("parsing token: %w", err)
	}
	if !claims.VerifyExpiresAt(now.Unix(), false) {
		return nihongo.Session{}, errTokenExpired
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nihongo.Session{}, errors.New("token has no subject")
	}
	return nihongo.Session{Token: raw, Username: sub}, nil
}

// bearerToken returns the token from the Authorization header, or from the
// token query parameter for EventSource and WebSocket clients that cannot
// set headers.
func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if tok, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(tok)
		}
		return ""
	}
	return r.URL.Query().Get("token")
}

// sessionMiddleware attaches the caller's session. Requests without a token
// continue anonymously; a bad token is refused.
func sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}
		sess, err := parseSession(raw, time.Now())
		if err != nil {
			msg := "could not validate credentials"
			if errors.Is(err, errTokenExpired) {
				msg = "token expired"
			}
			w.Header().Set("WWW-Authenticate", "Bearer")
			writeError(w, http.StatusUnauthorized, msg)
			return
		}
		ctx := context.WithValue(r.Context(), ctxKeySession, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !sessionFrom(r).Authenticated() {
			w.Header().Set("WWW-Authenticate", "Bearer")
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireAdmin asks the backend who the caller is and lets admins through.
func requireAdmin(api *provider.Client) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := sessionFrom(r)
			if !sess.Authenticated() {
				writeError(w, http.StatusUnauthorized, "not authenticated")
				return
			}
			user, err := api.Me(r.Context(), sess)
			if err != nil {
				if provider.StatusOf(err) == http.StatusUnauthorized {
					writeError(w, http.StatusUnauthorized, "not authenticated")
					return
				}
				writeError(w, http.StatusBadGateway, "backend unavailable")
				return
			}
			if !user.IsAdmin {
				writeError(w, http.StatusForbidden, "admin access required")
				return
			}
			ctx := context.WithValue(r.Context(), ctxKeyUser, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// rateLimit throttles a route per client IP.
func rateLimit(l ratelimit.Limiter, trail *audit.Logger, name string, rule ratelimit.Rule) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			if err := allow(r.Context(), l, trail, name, ip, rule); err != nil {
				writeLimited(w, rule)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// allow checks one limiter key. Limiter failures other than a hit are
// let through so a cache outage does not lock everyone out.
func allow(ctx context.Context, l ratelimit.Limiter, trail *audit.Logger, name, ip string, rule ratelimit.Rule) error {
	err := l.Allow(ctx, name+":"+ip, rule)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ratelimit.ErrLimited):
		trail.Log(audit.Entry{Event: audit.RateLimited, IP: ip, Details: name + " " + rule.String()})
		return err
	default:
		return nil
	}
}

func writeLimited(w http.ResponseWriter, rule ratelimit.Rule) {
	w.Header().Set("Retry-After", fmt.Sprintf("%d", int(rule.Window.Seconds())))
	writeError(w, http.StatusTooManyRequests, "rate limit exceeded: "+rule.String())
}

func sessionFrom(r *http.Request) nihongo.Session {
	sess, _ := r.Context().Value(ctxKeySession).(nihongo.Session)
	return sess
}

func userFrom(r *http.Request) nihongo.User {
	u, _ := r.Context().Value(ctxKeyUser).(nihongo.User)
	return u
}

// clientIP is the remote host after RealIP has rewritten RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
