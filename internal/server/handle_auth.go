package server

import (
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/nihongowow/arcade/internal/audit"
	"github.com/nihongowow/arcade/internal/nihongo"
	"github.com/nihongowow/arcade/internal/provider"
)

var mfaCode = regexp.MustCompile(`^[0-9]{6}$`)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Website  string `json:"website,omitempty"`
}

// LoginResponse carries a token, or the pending second factor when
// MFARequired is set.
type LoginResponse struct {
	AccessToken string `json:"accessToken,omitempty"`
	TokenType   string `json:"tokenType,omitempty"`
	MFARequired bool   `json:"mfaRequired"`
	Email       string `json:"email,omitempty"`
	Message     string `json:"message,omitempty"`
}

type RegisterRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	Website         string `json:"website,omitempty"`
	InvitationToken string `json:"invitationToken,omitempty"`
}

type VerifyMFARequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type EmailRequest struct {
	Email string `json:"email"`
}

type ConfirmEmailRequest struct {
	Token string `json:"token"`
}

type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Email   string `json:"email,omitempty"`
}

type UserResponse struct {
	ID              string    `json:"id"`
	Username        string    `json:"username"`
	Email           string    `json:"email"`
	IsEmailVerified bool      `json:"isEmailVerified"`
	MFAEnabled      bool      `json:"mfaEnabled"`
	IsAdmin         bool      `json:"isAdmin"`
	CreatedAt       time.Time `json:"createdAt"`
}

func toUserResponse(u nihongo.User) UserResponse {
	return UserResponse{
		ID:              u.ID,
		Username:        u.Username,
		Email:           u.Email,
		IsEmailVerified: u.IsEmailVerified,
		MFAEnabled:      u.MFAEnabled,
		IsAdmin:         u.IsAdmin,
		CreatedAt:       u.CreatedAt,
	}
}

func toLoginResponse(res provider.LoginResult) LoginResponse {
	return LoginResponse{
		AccessToken: res.AccessToken,
		TokenType:   res.TokenType,
		MFARequired: res.MFARequired,
		Email:       res.Email,
		Message:     res.Message,
	}
}

func toMessageResponse(m provider.Message) MessageResponse {
	return MessageResponse{Success: m.Success, Message: m.Message, Email: m.Email}
}

func validEmail(s string) bool {
	at := strings.IndexByte(s, '@')
	return at > 0 && at < len(s)-1 && !strings.ContainsAny(s, " \t\r\n")
}

// honeypot reports and refuses requests that filled the hidden website field.
func honeypot(w http.ResponseWriter, r *http.Request, trail *audit.Logger, website, email string) bool {
	if website == "" {
		return false
	}
	trail.Log(audit.Entry{Event: audit.SuspiciousActivity, Email: email, IP: clientIP(r), Details: "honeypot field filled"})
	writeError(w, http.StatusBadRequest, "invalid request")
	return true
}

func handleLogin(api *provider.Client, trail *audit.Logger, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.Email = strings.TrimSpace(req.Email)
		if honeypot(w, r, trail, req.Website, req.Email) {
			return
		}
		if req.Email == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "email and password are required")
			return
		}

		res, err := api.Login(r.Context(), provider.LoginRequest{Email: req.Email, Password: req.Password})
		if err != nil {
			trail.Log(audit.Entry{Event: audit.LoginFailed, Email: req.Email, IP: clientIP(r), Details: err.Error()})
			writeUpstream(w, logger, err)
			return
		}

		if res.MFARequired {
			trail.Log(audit.Entry{Event: audit.MFASent, Email: req.Email, IP: clientIP(r), Success: true})
		} else {
			trail.Log(audit.Entry{Event: audit.LoginSuccess, Email: req.Email, IP: clientIP(r), Success: true})
		}
		writeJSON(w, http.StatusOK, toLoginResponse(res))
	}
}

func handleRegister(api *provider.Client, trail *audit.Logger, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.Username = strings.TrimSpace(req.Username)
		req.Email = strings.TrimSpace(req.Email)
		if honeypot(w, r, trail, req.Website, req.Email) {
			return
		}

		if n := utf8.RuneCountInString(req.Username); n < 3 || n > 100 {
			writeError(w, http.StatusBadRequest, "username must be 3 to 100 characters")
			return
		}
		if n := utf8.RuneCountInString(req.Password); n < 8 || n > 128 {
			writeError(w, http.StatusBadRequest, "password must be 8 to 128 characters")
			return
		}
		if !validEmail(req.Email) {
			writeError(w, http.StatusBadRequest, "a valid email is required")
			return
		}

		res, err := api.Register(r.Context(), provider.RegisterRequest{
			Username:        req.Username,
			Email:           req.Email,
			Password:        req.Password,
			InvitationToken: req.InvitationToken,
		})
		if err != nil {
			trail.Log(audit.Entry{Event: audit.Registration, Email: req.Email, IP: clientIP(r), Details: err.Error()})
			writeUpstream(w, logger, err)
			return
		}
		trail.Log(audit.Entry{Event: audit.Registration, Email: req.Email, IP: clientIP(r), Details: req.Username, Success: true})
		writeJSON(w, http.StatusCreated, toMessageResponse(res))
	}
}

func handleVerifyMFA(api *provider.Client, trail *audit.Logger, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req VerifyMFARequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.Email = strings.TrimSpace(req.Email)
		req.Code = strings.TrimSpace(req.Code)
		if req.Email == "" || !mfaCode.MatchString(req.Code) {
			writeError(w, http.StatusBadRequest, "email and a 6-digit code are required")
			return
		}

		res, err := api.VerifyMFA(r.Context(), req.Email, req.Code)
		if err != nil {
			trail.Log(audit.Entry{Event: audit.MFAFailed, Email: req.Email, IP: clientIP(r), Details: err.Error()})
			writeUpstream(w, logger, err)
			return
		}
		trail.Log(audit.Entry{Event: audit.MFAVerified, Email: req.Email, IP: clientIP(r), Success: true})
		writeJSON(w, http.StatusOK, toLoginResponse(res))
	}
}

func handleResendMFA(api *provider.Client, trail *audit.Logger, logger *slog.Logger) http.HandlerFunc {
	return handleEmailMessage(logger, func(r *http.Request, email string) (provider.Message, error) {
		res, err := api.ResendMFA(r.Context(), email)
		if err == nil {
			trail.Log(audit.Entry{Event: audit.MFASent, Email: email, IP: clientIP(r), Details: "resent", Success: true})
		}
		return res, err
	})
}

func handleResendVerification(api *provider.Client, logger *slog.Logger) http.HandlerFunc {
	return handleEmailMessage(logger, func(r *http.Request, email string) (provider.Message, error) {
		return api.ResendVerification(r.Context(), email)
	})
}

func handleEmailMessage(logger *slog.Logger, send func(r *http.Request, email string) (provider.Message, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req EmailRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.Email = strings.TrimSpace(req.Email)
		if !validEmail(req.Email) {
			writeError(w, http.StatusBadRequest, "a valid email is required")
			return
		}
		res, err := send(r, req.Email)
		if err != nil {
			writeUpstream(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, toMessageResponse(res))
	}
}

func handleConfirmEmail(api *provider.Client, trail *audit.Logger, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ConfirmEmailRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Token = strings.TrimSpace(req.Token); req.Token == "" {
			writeError(w, http.StatusBadRequest, "token is required")
			return
		}
		res, err := api.ConfirmEmail(r.Context(), req.Token)
		if err != nil {
			trail.Log(audit.Entry{Event: audit.EmailVerified, IP: clientIP(r), Details: err.Error()})
			writeUpstream(w, logger, err)
			return
		}
		trail.Log(audit.Entry{Event: audit.EmailVerified, Email: res.Email, IP: clientIP(r), Success: true})
		writeJSON(w, http.StatusOK, toMessageResponse(res))
	}
}

func handleMe(api *provider.Client, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := api.Me(r.Context(), sessionFrom(r))
		if err != nil {
			writeUpstream(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, toUserResponse(user))
	}
}
