package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/nihongowow/arcade/internal/audit"
	"github.com/nihongowow/arcade/internal/handler/health"
	"github.com/nihongowow/arcade/internal/kana"
	"github.com/nihongowow/arcade/internal/nihongo"
	"github.com/nihongowow/arcade/internal/play"
	"github.com/nihongowow/arcade/internal/provider"
	"github.com/nihongowow/arcade/internal/ratelimit"
	"github.com/nihongowow/arcade/internal/reading"
	"github.com/nihongowow/arcade/internal/store"
)

// KanaTables serves the kana reference, from the backend or the embedded table.
type KanaTables interface {
	AllKana(ctx context.Context) (kana.Table, error)
	RandomKana(ctx context.Context, sess nihongo.Session, typ nihongo.KanaType, count int) ([]nihongo.KanaPair, error)
}

// History reads the local round journal.
type History interface {
	Round(ctx context.Context, id string) (store.Round, error)
	RecentRounds(ctx context.Context, owner string, limit int) ([]store.Round, error)
	Submissions(ctx context.Context, roundID string) ([]store.Submission, error)
}

// Deps are everything the routes need.
type Deps struct {
	Logger  *slog.Logger
	API     *provider.Client
	Rounds  *play.Manager
	Kana    KanaTables
	History History
	Limiter ratelimit.Limiter
	Audit   *audit.Logger
	// Readings is nil when reading suggestions are disabled.
	Readings *reading.Analyzer
	Checks   []health.Check
	SPADir   string
}

type Server struct {
	srv    *http.Server
	logger *slog.Logger
}

func New(addr string, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Audit == nil {
		deps.Audit = audit.Nop()
	}
	if deps.Limiter == nil {
		deps.Limiter = ratelimit.NewMemory()
	}

	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           newRouter(deps),
			ReadHeaderTimeout: 5 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		logger: deps.Logger,
	}
}

func newRouter(deps Deps) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(newStructuredLogger(deps.Logger))
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders)

	addRoutes(r, deps)
	return r
}

func (s *Server) Run(_ context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.srv.Addr, err)
	}

	err = s.srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}

func newStructuredLogger(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				level := slog.LevelInfo
				if ww.Status() >= http.StatusInternalServerError {
					level = slog.LevelWarn
				}
				logger.Log(r.Context(), level, "http request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration_ms", time.Since(start).Milliseconds(),
					"request_id", middleware.GetReqID(r.Context()),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

// securityHeaders sets the headers every response carries. The docs page
// needs inline scripts, so it gets a looser policy.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-XSS-Protection", "1; mode=block")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")
		if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		if isDocsPath(r.URL.Path) {
			h.Set("Content-Security-Policy", "default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'; img-src 'self' data:")
		} else {
			h.Set("Content-Security-Policy", "default-src 'self'; img-src 'self' data:; media-src 'self' blob:; connect-src 'self'; frame-ancestors 'none'")
		}
		next.ServeHTTP(w, r)
	})
}

func isDocsPath(p string) bool {
	return p == "/docs" || strings.HasPrefix(p, "/docs/")
}
