package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"fleet-tracking-api/models"
)

func TestNewAccountAlwaysRoleUser(t *testing.T) {
	req := RegisterRequest{
		Email:    "driver@fleet.test",
		Password: "password123",
		Name:     "A Driver",
	}

	user := newAccount(req, "bcrypt-hash")

	if user.Role != models.RoleUser {
		t.Errorf("Role = %q, want %q", user.Role, models.RoleUser)
	}
	if user.Email != "driver@fleet.test" || user.Name != "A Driver" {
		t.Errorf("identity fields not carried over: %+v", user)
	}
	if user.Password != "bcrypt-hash" {
		t.Errorf("Password = %q, want the supplied hash", user.Password)
	}
}

func TestRegisterPayloadCannotPickRole(t *testing.T) {
	// A payload claiming admin deserializes with the role silently
	// discarded; the created account is still a plain user.
	var req RegisterRequest
	payload := `{"email": "evil@fleet.test", "password": "password123", "name": "Evil", "role": "admin"}`
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}

	user := newAccount(req, "hash")
	if user.Role != models.RoleUser {
		t.Errorf("Role = %q, want %q even when the payload asks for admin", user.Role, models.RoleUser)
	}
}

func TestUpdateRoleBadUserID(t *testing.T) {
	router := newTestRouter()
	h := NewAuthHandler(nil, nil)
	router.PUT("/users/:id/role", h.UpdateRole)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/users/not-a-number/role",
		strings.NewReader(`{"role": "driver"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestUpdateRoleRejectsUnknownRole(t *testing.T) {
	router := newTestRouter()
	h := NewAuthHandler(nil, nil)
	router.PUT("/users/:id/role", h.UpdateRole)

	w, resp := putJSON(t, router, "/users/3/role", `{"role": "superuser"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	found := false
	for _, fe := range resp.Errors {
		if fe.Field == "role" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected field error for role, got %v", resp.Errors)
	}
}

func putJSON(t *testing.T, router http.Handler, path, body string) (*httptest.ResponseRecorder, validationResponse) {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	var resp validationResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v (body: %s)", err, w.Body.String())
	}
	return w, resp
}
