package server

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nihongowow/arcade/internal/audit"
	"github.com/nihongowow/arcade/internal/provider"
)

type InvitationRequest struct {
	Email string `json:"email"`
}

type InvitationListResponse struct {
	Items []provider.Invitation `json:"items"`
	Total int                   `json:"total"`
}

type UserListResponse struct {
	Items []UserResponse `json:"items"`
	Total int            `json:"total"`
}

type HintCacheListResponse struct {
	Items []provider.HintCacheEntry `json:"items"`
	Total int                       `json:"total"`
}

type SpeechCacheListResponse struct {
	Items []provider.SpeechCacheEntry `json:"items"`
	Total int                         `json:"total"`
}

type HintUpdateRequest struct {
	Hint string `json:"hint"`
}

// admin bundles what the admin routes share.
type admin struct {
	api    *provider.Client
	trail  *audit.Logger
	logger *slog.Logger
}

func (a admin) audit(r *http.Request, ev audit.Event, details string) {
	u := userFrom(r)
	a.trail.Log(audit.Entry{Event: ev, Email: u.Email, UserID: u.ID, IP: clientIP(r), Details: details, Success: true})
}

func (a admin) createInvitation(w http.ResponseWriter, r *http.Request) {
	var req InvitationRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email = strings.TrimSpace(req.Email); !validEmail(req.Email) {
		writeError(w, http.StatusBadRequest, "a valid email is required")
		return
	}
	inv, err := a.api.CreateInvitation(r.Context(), sessionFrom(r), req.Email)
	if err != nil {
		writeUpstream(w, a.logger, err)
		return
	}
	a.audit(r, audit.InvitationSent, audit.MaskEmail(req.Email))
	writeJSON(w, http.StatusCreated, inv)
}

func (a admin) listInvitations(w http.ResponseWriter, r *http.Request) {
	invs, err := a.api.Invitations(r.Context(), sessionFrom(r))
	if err != nil {
		writeUpstream(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, InvitationListResponse{Items: nonNil(invs), Total: len(invs)})
}

func (a admin) deleteInvitation(w http.ResponseWriter, r *http.Request) {
	if err := a.api.DeleteInvitation(r.Context(), sessionFrom(r), chi.URLParam(r, "id")); err != nil {
		writeUpstream(w, a.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a admin) resendInvitation(w http.ResponseWriter, r *http.Request) {
	inv, err := a.api.ResendInvitation(r.Context(), sessionFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		writeUpstream(w, a.logger, err)
		return
	}
	a.audit(r, audit.InvitationSent, "resent "+audit.MaskEmail(inv.Email))
	writeJSON(w, http.StatusOK, inv)
}

func (a admin) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := a.api.Users(r.Context(), sessionFrom(r))
	if err != nil {
		writeUpstream(w, a.logger, err)
		return
	}
	items := make([]UserResponse, len(users))
	for i, u := range users {
		items[i] = toUserResponse(u)
	}
	writeJSON(w, http.StatusOK, UserListResponse{Items: items, Total: len(items)})
}

func (a admin) deleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == userFrom(r).ID {
		writeError(w, http.StatusBadRequest, "cannot delete your own account")
		return
	}
	if err := a.api.DeleteUser(r.Context(), sessionFrom(r), id); err != nil {
		writeUpstream(w, a.logger, err)
		return
	}
	a.audit(r, audit.UserDeleted, id)
	w.WriteHeader(http.StatusNoContent)
}

func (a admin) resendUserVerification(w http.ResponseWriter, r *http.Request) {
	u, err := a.api.ResendUserVerification(r.Context(), sessionFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		writeUpstream(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(u))
}

func (a admin) cacheStats(w http.ResponseWriter, r *http.Request) {
	s, err := a.api.CacheStats(r.Context(), sessionFrom(r))
	if err != nil {
		writeUpstream(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (a admin) listHints(w http.ResponseWriter, r *http.Request) {
	hints, err := a.api.CachedHints(r.Context(), sessionFrom(r))
	if err != nil {
		writeUpstream(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, HintCacheListResponse{Items: nonNil(hints), Total: len(hints)})
}

func (a admin) updateHint(w http.ResponseWriter, r *http.Request) {
	var req HintUpdateRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Hint = strings.TrimSpace(req.Hint); req.Hint == "" {
		writeError(w, http.StatusBadRequest, "hint is required")
		return
	}
	h, err := a.api.UpdateCachedHint(r.Context(), sessionFrom(r), chi.URLParam(r, "id"), req.Hint)
	if err != nil {
		writeUpstream(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, h)
}

func (a admin) deleteHint(w http.ResponseWriter, r *http.Request) {
	if err := a.api.DeleteCachedHint(r.Context(), sessionFrom(r), chi.URLParam(r, "id")); err != nil {
		writeUpstream(w, a.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a admin) clearHints(w http.ResponseWriter, r *http.Request) {
	if err := a.api.ClearCachedHints(r.Context(), sessionFrom(r)); err != nil {
		writeUpstream(w, a.logger, err)
		return
	}
	a.audit(r, audit.CacheCleared, "hints")
	w.WriteHeader(http.StatusNoContent)
}

func (a admin) listSpeech(w http.ResponseWriter, r *http.Request) {
	items, err := a.api.CachedSpeech(r.Context(), sessionFrom(r))
	if err != nil {
		writeUpstream(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, SpeechCacheListResponse{Items: nonNil(items), Total: len(items)})
}

func (a admin) speechAudio(w http.ResponseWriter, r *http.Request) {
	audio, err := a.api.CachedSpeechAudio(r.Context(), sessionFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		writeUpstream(w, a.logger, err)
		return
	}
	writeAudio(w, audio)
}

func (a admin) deleteSpeech(w http.ResponseWriter, r *http.Request) {
	if err := a.api.DeleteCachedSpeech(r.Context(), sessionFrom(r), chi.URLParam(r, "id")); err != nil {
		writeUpstream(w, a.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a admin) clearSpeech(w http.ResponseWriter, r *http.Request) {
	if err := a.api.ClearCachedSpeech(r.Context(), sessionFrom(r)); err != nil {
		writeUpstream(w, a.logger, err)
		return
	}
	a.audit(r, audit.CacheCleared, "tts")
	w.WriteHeader(http.StatusNoContent)
}

func (a admin) routes(r chi.Router) {
	r.Get("/invitations", a.listInvitations)
	r.Post("/invitations", a.createInvitation)
	r.Delete("/invitations/{id}", a.deleteInvitation)
	r.Post("/invitations/{id}/resend", a.resendInvitation)

	r.Get("/users", a.listUsers)
	r.Delete("/users/{id}", a.deleteUser)
	r.Post("/users/{id}/resend-verification", a.resendUserVerification)

	r.Get("/cache/stats", a.cacheStats)
	r.Get("/cache/hints", a.listHints)
	r.Put("/cache/hints/{id}", a.updateHint)
	r.Delete("/cache/hints/{id}", a.deleteHint)
	r.Delete("/cache/hints", a.clearHints)
	r.Get("/cache/tts", a.listSpeech)
	r.Get("/cache/tts/{id}/audio", a.speechAudio)
	r.Delete("/cache/tts/{id}", a.deleteSpeech)
	r.Delete("/cache/tts", a.clearSpeech)
}
