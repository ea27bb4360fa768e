package server

import (
	"encoding/json"
	"net/http"
	"testing"
)

func TestAdminInvitations(t *testing.T) {
	s := newTestServer(t)
	tok := s.asAdmin()
	var invited map[string]string
	s.backend.HandleFunc("POST /api/admin/invitations", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&invited)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{"id": "inv1", "email": invited["email"]})
	})
	s.reply("GET /api/admin/invitations", http.StatusOK, map[string]any{"items": nil, "total": 0})

	rec := s.do(http.MethodPost, "/api/admin/invitations", tok, InvitationRequest{Email: " new@example.com "})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusCreated, rec.Body)
	}
	if invited["email"] != "new@example.com" {
		t.Errorf("backend received %v", invited)
	}

	if rec := s.do(http.MethodPost, "/api/admin/invitations", tok, InvitationRequest{Email: "nope"}); rec.Code != http.StatusBadRequest {
		t.Errorf("invalid email status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	rec = s.do(http.MethodGet, "/api/admin/invitations", tok, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got := decode[InvitationListResponse](t, rec); got.Items == nil || got.Total != 0 {
		t.Errorf("list = %+v, want empty items", got)
	}
}

func TestAdminDeleteUser(t *testing.T) {
	s := newTestServer(t)
	tok := s.asAdmin()
	deleted := ""
	s.backend.HandleFunc("DELETE /api/admin/users/{id}", func(w http.ResponseWriter, r *http.Request) {
		deleted = r.PathValue("id")
		w.WriteHeader(http.StatusNoContent)
	})

	// asAdmin signs in as user 1.
	if rec := s.do(http.MethodDelete, "/api/admin/users/1", tok, nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("self delete status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if deleted != "" {
		t.Fatalf("backend deleted %q", deleted)
	}

	if rec := s.do(http.MethodDelete, "/api/admin/users/42", tok, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if deleted != "42" {
		t.Errorf("deleted = %q, want 42", deleted)
	}
}

func TestAdminHintCache(t *testing.T) {
	s := newTestServer(t)
	tok := s.asAdmin()
	cleared := false
	s.backend.HandleFunc("DELETE /api/admin/cache/hints", func(w http.ResponseWriter, _ *http.Request) {
		cleared = true
		w.WriteHeader(http.StatusNoContent)
	})
	s.reply("PUT /api/admin/cache/hints/{id}", http.StatusNotFound, map[string]string{"detail": "Hint not found"})

	if rec := s.do(http.MethodPut, "/api/admin/cache/hints/h1", tok, HintUpdateRequest{Hint: "  "}); rec.Code != http.StatusBadRequest {
		t.Errorf("blank hint status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	rec := s.do(http.MethodPut, "/api/admin/cache/hints/h1", tok, HintUpdateRequest{Hint: "starts with ね"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	if got := decode[map[string]string](t, rec); got["error"] != "Hint not found" {
		t.Errorf("error = %q, want the backend detail", got["error"])
	}

	if rec := s.do(http.MethodDelete, "/api/admin/cache/hints", tok, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("clear status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if !cleared {
		t.Error("backend cache was not cleared")
	}
}
