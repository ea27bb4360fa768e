package provider

import (
	"context"
	"net/http"

	"github.com/nihongowow/arcade/internal/nihongo"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	// Website is a honeypot. The backend rejects sign-ins that fill it.
	Website string `json:"website,omitempty"`
}

// LoginResult holds either a token or a pending second factor.
type LoginResult struct {
	AccessToken string `json:"access_token,omitempty"`
	TokenType   string `json:"token_type,omitempty"`
	MFARequired bool   `json:"mfa_required,omitempty"`
	Email       string `json:"email,omitempty"`
	Message     string `json:"message,omitempty"`
}

type RegisterRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	Website         string `json:"website,omitempty"`
	InvitationToken string `json:"invitation_token,omitempty"`
}

func (c *Client) Login(ctx context.Context, req LoginRequest) (LoginResult, error) {
	var res LoginResult
	err := c.do(ctx, nihongo.Session{}, http.MethodPost, "/api/auth/login", nil, req, &res)
	return res, err
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (Message, error) {
	var res Message
	err := c.do(ctx, nihongo.Session{}, http.MethodPost, "/api/auth/register", nil, req, &res)
	return res, err
}

func (c *Client) VerifyMFA(ctx context.Context, email, code string) (LoginResult, error) {
	var res LoginResult
	err := c.do(ctx, nihongo.Session{}, http.MethodPost, "/api/auth/verify-mfa", nil,
		map[string]string{"email": email, "code": code}, &res)
	return res, err
}

func (c *Client) ResendMFA(ctx context.Context, email string) (Message, error) {
	return c.message(ctx, "/api/auth/resend-mfa", map[string]string{"email": email})
}

func (c *Client) ConfirmEmail(ctx context.Context, token string) (Message, error) {
	return c.message(ctx, "/api/auth/confirm-email", map[string]string{"token": token})
}

func (c *Client) ResendVerification(ctx context.Context, email string) (Message, error) {
	return c.message(ctx, "/api/auth/resend-verification", map[string]string{"email": email})
}

func (c *Client) message(ctx context.Context, path string, in any) (Message, error) {
	var res Message
	err := c.do(ctx, nihongo.Session{}, http.MethodPost, path, nil, in, &res)
	return res, err
}

type userResponse struct {
	ID              string    `json:"id"`
	Username        string    `json:"username"`
	Email           string    `json:"email"`
	IsEmailVerified bool      `json:"is_email_verified"`
	MFAEnabled      bool      `json:"mfa_enabled"`
	IsAdmin         bool      `json:"is_admin"`
	CreatedAt       timestamp `json:"created_at"`
}

func (u userResponse) user() nihongo.User {
	return nihongo.User{
		ID:              u.ID,
		Username:        u.Username,
		Email:           u.Email,
		IsEmailVerified: u.IsEmailVerified,
		MFAEnabled:      u.MFAEnabled,
		IsAdmin:         u.IsAdmin,
		CreatedAt:       u.CreatedAt.Time(),
	}
}

// Me returns the account behind the session's token.
func (c *Client) Me(ctx context.Context, sess nihongo.Session) (nihongo.User, error) {
	var res userResponse
	if err := c.do(ctx, sess, http.MethodGet, "/api/auth/me", nil, nil, &res); err != nil {
		return nihongo.User{}, err
	}
	return res.user(), nil
}
