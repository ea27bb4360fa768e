package server

import (
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
)

func TestLogin(t *testing.T) {
	s := newTestServer(t)
	s.reply("POST /api/auth/login", http.StatusOK, map[string]string{"access_token": "abc", "token_type": "bearer"})

	rec := s.do(http.MethodPost, "/api/auth/login", "", LoginRequest{Email: " alice@example.com ", Password: "password123"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	got := decode[LoginResponse](t, rec)
	if got.AccessToken != "abc" || got.MFARequired {
		t.Fatalf("response = %+v", got)
	}
}

func TestLoginMFA(t *testing.T) {
	s := newTestServer(t)
	s.reply("POST /api/auth/login", http.StatusOK, map[string]any{
		"mfa_required": true,
		"email":        "alice@example.com",
		"message":      "code sent",
	})

	rec := s.do(http.MethodPost, "/api/auth/login", "", LoginRequest{Email: "alice@example.com", Password: "password123"})
	got := decode[LoginResponse](t, rec)
	if !got.MFARequired || got.AccessToken != "" {
		t.Fatalf("response = %+v, want a pending second factor", got)
	}
}

func TestLoginRelaysBackendError(t *testing.T) {
	s := newTestServer(t)
	s.reply("POST /api/auth/login", http.StatusUnauthorized, map[string]string{"detail": "Incorrect email or password"})

	rec := s.do(http.MethodPost, "/api/auth/login", "", LoginRequest{Email: "alice@example.com", Password: "wrong-password"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if got := decode[ErrorResponse](t, rec).Error; got != "Incorrect email or password" {
		t.Fatalf("error = %q", got)
	}
}

func TestLoginBackendUnreachable(t *testing.T) {
	s := newTestServer(t)
	s.backend.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		hj, ok := w.(http.Hijacker)
		if !ok {
			t.Error("backend writer cannot hijack")
			return
		}
		conn, _, err := hj.Hijack()
		if err == nil {
			conn.Close()
		}
	})

	rec := s.do(http.MethodPost, "/api/auth/login", "", LoginRequest{Email: "alice@example.com", Password: "password123"})
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadGateway)
	}
}

func TestHoneypot(t *testing.T) {
	s := newTestServer(t)
	var calls atomic.Int32
	s.backend.HandleFunc("POST /api/auth/", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	})

	rec := s.do(http.MethodPost, "/api/auth/login", "", LoginRequest{Email: "bot@example.com", Password: "password123", Website: "http://spam"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("login status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	rec = s.do(http.MethodPost, "/api/auth/register", "", RegisterRequest{
		Username: "bot", Email: "bot@example.com", Password: "password123", Website: "http://spam",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("register status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if n := calls.Load(); n != 0 {
		t.Fatalf("backend called %d times", n)
	}
}

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		name string
		req  RegisterRequest
		want string
	}{
		{"short username", RegisterRequest{Username: "al", Email: "a@example.com", Password: "password123"}, "username"},
		{"long username", RegisterRequest{Username: strings.Repeat("a", 101), Email: "a@example.com", Password: "password123"}, "username"},
		{"short password", RegisterRequest{Username: "alice", Email: "a@example.com", Password: "short"}, "password"},
		{"long password", RegisterRequest{Username: "alice", Email: "a@example.com", Password: strings.Repeat("p", 129)}, "password"},
		{"bad email", RegisterRequest{Username: "alice", Email: "alice.example.com", Password: "password123"}, "email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			rec := s.do(http.MethodPost, "/api/auth/register", "", tt.req)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
			if got := decode[ErrorResponse](t, rec).Error; !strings.Contains(got, tt.want) {
				t.Fatalf("error = %q, want mention of %q", got, tt.want)
			}
		})
	}
}

func TestRegister(t *testing.T) {
	s := newTestServer(t)
	s.reply("POST /api/auth/register", http.StatusOK, map[string]any{"success": true, "message": "check your inbox", "email": "alice@example.com"})

	rec := s.do(http.MethodPost, "/api/auth/register", "", RegisterRequest{
		Username: "alice", Email: "alice@example.com", Password: "password123", InvitationToken: "inv",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusCreated)
	}
	if got := decode[MessageResponse](t, rec); !got.Success {
		t.Fatalf("response = %+v", got)
	}
}

func TestVerifyMFACode(t *testing.T) {
	s := newTestServer(t)
	s.reply("POST /api/auth/verify-mfa", http.StatusOK, map[string]string{"access_token": "abc"})

	for _, code := range []string{"12345", "12a456", ""} {
		rec := s.do(http.MethodPost, "/api/auth/verify-mfa", "", VerifyMFARequest{Email: "alice@example.com", Code: code})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("code %q status = %d, want %d", code, rec.Code, http.StatusBadRequest)
		}
	}

	rec := s.do(http.MethodPost, "/api/auth/verify-mfa", "", VerifyMFARequest{Email: "alice@example.com", Code: "123456"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestMe(t *testing.T) {
	s := newTestServer(t)
	s.replyMe(http.StatusOK, map[string]any{
		"id":                "7",
		"username":          "alice",
		"email":             "alice@example.com",
		"is_email_verified": true,
		"created_at":        "2024-03-01T10:00:00",
	})

	rec := s.do(http.MethodGet, "/api/auth/me", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}

	rec = s.do(http.MethodGet, "/api/auth/me", userToken(t, "alice"), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	got := decode[UserResponse](t, rec)
	if got.Username != "alice" || !got.IsEmailVerified || got.CreatedAt.Year() != 2024 {
		t.Fatalf("user = %+v", got)
	}
}
