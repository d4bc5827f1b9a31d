package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/takascemberi/takas/internal/model"
)

func TestUsersCRUD(t *testing.T) {
	s := newTestServer(t, echoTranslator{})
	token := s.adminToken(t)

	resp := s.do(t, http.MethodPost, "/api/users", token, map[string]string{
		"username": "mehmet", "password": "password123",
	})
	created := decodeBody[model.User](t, resp)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if created.Role != model.RoleModerator {
		t.Errorf("expected default role moderator, got %s", created.Role)
	}

	resp = s.do(t, http.MethodPost, "/api/users", token, map[string]string{
		"username": "mehmet", "password": "password123",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected 409 for duplicate, got %d", resp.StatusCode)
	}

	resp = s.do(t, http.MethodPost, "/api/users", token, map[string]string{
		"username": "zeynep", "password": "password123", "role": "owner",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid role, got %d", resp.StatusCode)
	}

	resp = s.do(t, http.MethodGet, "/api/users", token, nil)
	users := decodeBody[[]model.User](t, resp)
	if len(users) != 2 {
		t.Errorf("expected 2 users, got %d", len(users))
	}

	resp = s.do(t, http.MethodDelete, fmt.Sprintf("/api/users/%d", created.ID), token, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 deleting user, got %d", resp.StatusCode)
	}

	resp = s.do(t, http.MethodDelete, fmt.Sprintf("/api/users/%d", created.ID), token, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 deleting twice, got %d", resp.StatusCode)
	}
}

func TestUsersRequireAdmin(t *testing.T) {
	s := newTestServer(t, echoTranslator{})
	s.createUser(t, "ayse", "password123", model.RoleModerator)
	token := s.login(t, "ayse", "password123")

	resp := s.do(t, http.MethodGet, "/api/users", token, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for moderator, got %d", resp.StatusCode)
	}
}

func TestCannotDeleteSelf(t *testing.T) {
	s := newTestServer(t, echoTranslator{})
	token := s.adminToken(t)
	other := s.createUser(t, "second", "password123", model.RoleAdmin)

	resp := s.do(t, http.MethodDelete, "/api/users/1", token, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 deleting yourself, got %d", resp.StatusCode)
	}

	// Two admins: deleting the other one is allowed.
	resp = s.do(t, http.MethodDelete, fmt.Sprintf("/api/users/%d", other.ID), token, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}
