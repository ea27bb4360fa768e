package server

import (
	"encoding/json"
	"net/http"
	"strings"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/nihongowow/arcade/internal/handler/health"
	"github.com/nihongowow/arcade/internal/kana"
	"github.com/nihongowow/arcade/internal/play"
	"github.com/nihongowow/arcade/internal/provider"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// resp is one documented response of an operation.
type resp struct {
	status int
	body   any
	ctype  string
}

func success(body any) resp { return resp{status: http.StatusOK, body: body} }

func created(body any) resp { return resp{status: http.StatusCreated, body: body} }

func withCode(status int, body any) resp { return resp{status: status, body: body} }

func fail(status int) resp { return resp{status: status, body: ErrorResponse{}} }

func noContent() resp { return resp{status: http.StatusNoContent} }

func stream(ctype string) resp { return resp{status: http.StatusOK, ctype: ctype} }

func upgrade() resp { return resp{status: http.StatusSwitchingProtocols, ctype: "text/plain"} }

func limited() resp { return fail(http.StatusTooManyRequests) }

func unauthorized() resp { return fail(http.StatusUnauthorized) }

type idParam struct {
	ID string `path:"id"`
}

type keyParam struct {
	Key string `path:"key"`
}

type operation struct {
	method, path, summary, description string
	req                                any
	resps                              []resp
}

var operations = []operation{
	{http.MethodGet, "/healthz", "Health check", "Reports the state of the journal database, the backend API and Redis when configured.",
		nil, []resp{success(health.Response{}), withCode(http.StatusServiceUnavailable, health.Response{})}},

	{http.MethodPost, "/api/auth/login", "Sign in", "Returns an access token, or mfaRequired when a code was emailed. Limited to 5 per minute.",
		LoginRequest{}, []resp{success(LoginResponse{}), fail(http.StatusBadRequest), unauthorized(), limited()}},
	{http.MethodPost, "/api/auth/register", "Register", "Creates an account. A verification email is sent. Limited to 3 per minute.",
		RegisterRequest{}, []resp{created(MessageResponse{}), fail(http.StatusBadRequest), limited()}},
	{http.MethodPost, "/api/auth/verify-mfa", "Verify sign-in code", "Exchanges the emailed 6-digit code for an access token.",
		VerifyMFARequest{}, []resp{success(LoginResponse{}), fail(http.StatusBadRequest), unauthorized(), limited()}},
	{http.MethodPost, "/api/auth/resend-mfa", "Resend sign-in code", "",
		EmailRequest{}, []resp{success(MessageResponse{}), fail(http.StatusBadRequest), limited()}},
	{http.MethodPost, "/api/auth/confirm-email", "Confirm email", "Marks the address verified using the emailed token.",
		ConfirmEmailRequest{}, []resp{success(MessageResponse{}), fail(http.StatusBadRequest), limited()}},
	{http.MethodPost, "/api/auth/resend-verification", "Resend verification email", "",
		EmailRequest{}, []resp{success(MessageResponse{}), fail(http.StatusBadRequest), limited()}},
	{http.MethodGet, "/api/auth/me", "Current user", "Requires Bearer token.",
		nil, []resp{success(UserResponse{}), unauthorized()}},

	{http.MethodGet, "/api/vocabulary", "List vocabulary", "Paged list. Query: page, page_size (1-100), search, tags (comma separated).",
		nil, []resp{success(VocabularyListResponse{}), fail(http.StatusBadRequest)}},
	{http.MethodGet, "/api/vocabulary/tags", "List tags", "",
		nil, []resp{success([]string{})}},
	{http.MethodGet, "/api/vocabulary/random", "Random vocabulary", "Query: count (1-50), tags.",
		nil, []resp{success([]VocabularyResponse{}), fail(http.StatusBadRequest)}},
	{http.MethodGet, "/api/vocabulary/reading", "Suggest reading", "Hiragana reading of ?expression= from morphological analysis.",
		nil, []resp{success(ReadingResponse{}), fail(http.StatusBadRequest), fail(http.StatusNotFound)}},
	{http.MethodGet, "/api/vocabulary/{id}", "Get vocabulary item", "",
		nil, []resp{success(VocabularyResponse{}), fail(http.StatusNotFound)}},
	{http.MethodPost, "/api/vocabulary", "Create vocabulary item", "Admin only. An empty reading is filled from the expression.",
		VocabularyRequest{}, []resp{created(VocabularyResponse{}), fail(http.StatusBadRequest), unauthorized(), fail(http.StatusForbidden)}},
	{http.MethodPut, "/api/vocabulary/{id}", "Update vocabulary item", "Admin only.",
		VocabularyRequest{}, []resp{success(VocabularyResponse{}), fail(http.StatusBadRequest), fail(http.StatusNotFound), fail(http.StatusForbidden)}},
	{http.MethodDelete, "/api/vocabulary/{id}", "Delete vocabulary item", "Admin only.",
		nil, []resp{noContent(), fail(http.StatusNotFound), fail(http.StatusForbidden)}},
	{http.MethodPost, "/api/vocabulary/import", "Import CSV", "Admin only. Multipart field file; columns expression, reading, meaning, tags. Empty readings are filled.",
		nil, []resp{success(ImportResponse{}), fail(http.StatusBadRequest), fail(http.StatusRequestEntityTooLarge), fail(http.StatusForbidden)}},

	{http.MethodGet, "/api/kana", "Kana table", "All hiragana and katakana with romaji.",
		nil, []resp{success(kana.Table{})}},
	{http.MethodGet, "/api/kana/random", "Random kana", "Query: type (hiragana, katakana, mixed), count (1-109).",
		nil, []resp{success(RandomKanaResponse{}), fail(http.StatusBadRequest)}},

	{http.MethodGet, "/api/settings", "Game settings", "",
		nil, []resp{success(SettingsResponse{})}},
	{http.MethodGet, "/api/settings/{key}", "Game setting", "",
		nil, []resp{success(SettingResponse{}), fail(http.StatusNotFound)}},
	{http.MethodPut, "/api/settings/{key}", "Update game setting", "Admin only.",
		SettingRequest{}, []resp{success(SettingResponse{}), fail(http.StatusForbidden)}},

	{http.MethodGet, "/api/scores/today", "Today's scores", "Best score per game today. Requires Bearer token.",
		nil, []resp{success(provider.GameScores{}), unauthorized()}},
	{http.MethodGet, "/api/scores/best", "Best scores", "All-time best per game. Requires Bearer token.",
		nil, []resp{success(provider.GameScores{}), unauthorized()}},
	{http.MethodGet, "/api/scores/me", "Score history", "Daily bests, newest first. Query: game_type, limit.",
		nil, []resp{success(ScoreHistoryResponse{}), unauthorized()}},
	{http.MethodGet, "/api/profile", "Profile", "User, scores, history and preferences in one call.",
		nil, []resp{success(ProfileResponse{}), unauthorized()}},
	{http.MethodGet, "/api/user/preferences", "Tag preferences", "",
		nil, []resp{success(PreferencesResponse{}), unauthorized()}},
	{http.MethodPut, "/api/user/preferences", "Update tag preferences", "",
		PreferencesRequest{}, []resp{success(PreferencesResponse{}), unauthorized()}},
	{http.MethodGet, "/api/history", "Played rounds", "Rounds journaled by this server for the current user. Query: limit.",
		nil, []resp{success(RoundHistoryResponse{}), unauthorized()}},
	{http.MethodGet, "/api/history/{id}", "Played round", "One journaled round with its score submissions.",
		nil, []resp{success(RoundRecordResponse{}), fail(http.StatusNotFound)}},

	{http.MethodGet, "/api/admin/invitations", "List invitations", "Admin only.",
		nil, []resp{success(InvitationListResponse{}), fail(http.StatusForbidden)}},
	{http.MethodPost, "/api/admin/invitations", "Invite user", "Admin only.",
		InvitationRequest{}, []resp{created(provider.Invitation{}), fail(http.StatusBadRequest), fail(http.StatusForbidden)}},
	{http.MethodDelete, "/api/admin/invitations/{id}", "Delete invitation", "Admin only.",
		nil, []resp{noContent(), fail(http.StatusNotFound)}},
	{http.MethodPost, "/api/admin/invitations/{id}/resend", "Resend invitation", "Admin only.",
		nil, []resp{success(provider.Invitation{}), fail(http.StatusNotFound)}},
	{http.MethodGet, "/api/admin/users", "List users", "Admin only.",
		nil, []resp{success(UserListResponse{}), fail(http.StatusForbidden)}},
	{http.MethodDelete, "/api/admin/users/{id}", "Delete user", "Admin only. Admins cannot delete themselves.",
		nil, []resp{noContent(), fail(http.StatusBadRequest), fail(http.StatusNotFound)}},
	{http.MethodPost, "/api/admin/users/{id}/resend-verification", "Resend user verification", "Admin only.",
		nil, []resp{success(UserResponse{}), fail(http.StatusNotFound)}},
	{http.MethodGet, "/api/admin/cache/stats", "Cache stats", "Admin only.",
		nil, []resp{success(provider.CacheStats{})}},
	{http.MethodGet, "/api/admin/cache/hints", "Cached hints", "Admin only.",
		nil, []resp{success(HintCacheListResponse{})}},
	{http.MethodPut, "/api/admin/cache/hints/{id}", "Edit cached hint", "Admin only.",
		HintUpdateRequest{}, []resp{success(provider.HintCacheEntry{}), fail(http.StatusBadRequest), fail(http.StatusNotFound)}},
	{http.MethodDelete, "/api/admin/cache/hints/{id}", "Delete cached hint", "Admin only.",
		nil, []resp{noContent(), fail(http.StatusNotFound)}},
	{http.MethodDelete, "/api/admin/cache/hints", "Clear hint cache", "Admin only.",
		nil, []resp{noContent()}},
	{http.MethodGet, "/api/admin/cache/tts", "Cached speech", "Admin only.",
		nil, []resp{success(SpeechCacheListResponse{})}},
	{http.MethodGet, "/api/admin/cache/tts/{id}/audio", "Cached speech audio", "Admin only.",
		nil, []resp{stream("audio/mpeg"), fail(http.StatusNotFound)}},
	{http.MethodDelete, "/api/admin/cache/tts/{id}", "Delete cached speech", "Admin only.",
		nil, []resp{noContent(), fail(http.StatusNotFound)}},
	{http.MethodDelete, "/api/admin/cache/tts", "Clear speech cache", "Admin only.",
		nil, []resp{noContent()}},

	{http.MethodPost, "/api/rounds", "Start round", "Creates a salad, lines, memory or quiz round and starts loading its content.",
		play.Options{}, []resp{created(play.Snapshot{}), fail(http.StatusBadRequest)}},
	{http.MethodGet, "/api/rounds/{id}", "Round state", "",
		nil, []resp{success(play.Snapshot{}), fail(http.StatusNotFound)}},
	{http.MethodDelete, "/api/rounds/{id}", "End round", "",
		nil, []resp{noContent(), fail(http.StatusNotFound)}},
	{http.MethodPost, "/api/rounds/{id}/actions", "Play", "Applies one action. Hints are limited to 20 per minute.",
		play.Action{}, []resp{success(play.Snapshot{}), fail(http.StatusBadRequest), fail(http.StatusNotFound), fail(http.StatusConflict), fail(http.StatusGone), limited()}},
	{http.MethodGet, "/api/rounds/{id}/events", "Round event stream", "Server-Sent Events with a state event per snapshot. Pass token as query parameter.",
		nil, []resp{stream("text/event-stream"), fail(http.StatusNotFound)}},
	{http.MethodGet, "/api/rounds/{id}/ws", "Round channel", "WebSocket: send actions, receive snapshots and errors.",
		nil, []resp{upgrade(), fail(http.StatusNotFound)}},
	{http.MethodPost, "/api/rounds/{id}/speech", "Pronounce", "MP3 audio for quiz text. A newer request cancels an older one. Limited to 30 per minute.",
		SpeechRequest{}, []resp{stream("audio/mpeg"), fail(http.StatusBadRequest), fail(http.StatusConflict), limited()}},
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "NihongoWOW Arcade API"
	r.Spec.Info.Version = "1.0.0"
	r.Spec.Info.WithDescription("Game server for the NihongoWOW Japanese vocabulary trainer.")

	for _, op := range operations {
		oc, err := r.NewOperationContext(op.method, op.path)
		if err != nil {
			continue
		}
		oc.SetSummary(op.summary)
		if op.description != "" {
			oc.SetDescription(op.description)
		}
		switch {
		case strings.Contains(op.path, "{id}"):
			oc.AddReqStructure(idParam{})
		case strings.Contains(op.path, "{key}"):
			oc.AddReqStructure(keyParam{})
		}
		if op.req != nil {
			oc.AddReqStructure(op.req)
		}
		for _, rs := range op.resps {
			opts := []openapi.ContentOption{openapi.WithHTTPStatus(rs.status)}
			if rs.ctype != "" {
				opts = append(opts, openapi.WithContentType(rs.ctype))
			}
			oc.AddRespStructure(rs.body, opts...)
		}
		_ = r.AddOperation(oc)
	}
	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
