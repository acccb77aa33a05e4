package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// newTestClient creates a client pointed at the given test server.
func newTestClient(t *testing.T, server *httptest.Server) *Client {
	t.Helper()
	c, err := New(server.URL, 5*time.Second)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return c
}

// newAuthedClient creates a client with a canned token.
func newAuthedClient(t *testing.T, server *httptest.Server) *Client {
	t.Helper()
	c, err := NewFromToken(server.URL, "test-token", 5*time.Second)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return c
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func TestLoginStudent_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/students/login" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["email"] != "jan@example.com" {
			t.Errorf("unexpected email %q", body["email"])
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "Login successful",
			"token":   "issued-token",
			"student": map[string]any{"id": 7, "name": "Jan", "email": "jan@example.com"},
		})
	}))
	defer server.Close()

	c := newTestClient(t, server)
	result, err := c.LoginStudent(context.Background(), "jan@example.com", "secret")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	if result.Token != "issued-token" {
		t.Errorf("expected token 'issued-token', got '%s'", result.Token)
	}
	if c.Token() != "issued-token" {
		t.Error("expected client to retain the issued token")
	}
	if result.Student == nil || result.Student.ID != 7 {
		t.Errorf("expected student profile with id 7, got %+v", result.Student)
	}
}

func TestLoginStudent_InvalidCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{
			"success": false,
			"message": "Invalid credentials",
		})
	}))
	defer server.Close()

	c := newTestClient(t, server)
	_, err := c.LoginStudent(context.Background(), "jan@example.com", "wrong")
	if err == nil {
		t.Fatal("expected error for invalid credentials")
	}

	// A failed login must not look like an expired session.
	if errors.Is(err, ErrUnauthorized) {
		t.Error("login rejection should not be ErrUnauthorized")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.Message != "Invalid credentials" {
		t.Errorf("expected message 'Invalid credentials', got '%s'", apiErr.Message)
	}
}

func TestLoginAdmin_UsesAccessToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"success":      true,
			"access_token": "admin-token",
			"admin":        map[string]any{"id": 1, "name": "Admin", "username": "admin"},
		})
	}))
	defer server.Close()

	c := newTestClient(t, server)
	result, err := c.LoginAdmin(context.Background(), "admin@example.com", "admin123")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	if result.Token != "admin-token" {
		t.Errorf("expected token 'admin-token', got '%s'", result.Token)
	}
	if result.Admin == nil || result.Admin.Username != "admin" {
		t.Errorf("expected admin profile, got %+v", result.Admin)
	}
}

func TestStudentProfile_Unauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	c := newAuthedClient(t, server)
	_, err := c.StudentProfile(context.Background())
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}

func TestStudentProfile_BearerHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("expected bearer header, got '%s'", got)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"student": map[string]any{"id": 3, "name": "Eva"},
		})
	}))
	defer server.Close()

	c := newAuthedClient(t, server)
	profile, err := c.StudentProfile(context.Background())
	if err != nil {
		t.Fatalf("profile fetch failed: %v", err)
	}
	if profile.Name != "Eva" {
		t.Errorf("expected name 'Eva', got '%s'", profile.Name)
	}
}

func TestRegisterStudent_DuplicateEmail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusConflict, map[string]any{
			"success": false,
			"message": "Email already registered",
		})
	}))
	defer server.Close()

	c := newTestClient(t, server)
	_, err := c.RegisterStudent(context.Background(), RegistrationDraft{
		Name: "Jan", Email: "jan@example.com", RollNumber: "R1", Course: "CS", Password: "pw",
	})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.StatusCode != http.StatusConflict {
		t.Errorf("expected status 409, got %d", apiErr.StatusCode)
	}
	if apiErr.Message != "Email already registered" {
		t.Errorf("unexpected message '%s'", apiErr.Message)
	}
}

func TestReportFilter_Query(t *testing.T) {
	tests := []struct {
		name     string
		filter   ReportFilter
		expected string
	}{
		{"empty", ReportFilter{}, ""},
		{"date only", ReportFilter{Date: "2026-08-29"}, "?date=2026-08-29"},
		{"name and course", ReportFilter{StudentName: "Jan Novak", Course: "CS"}, "?course=CS&student_name=Jan+Novak"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.query(); got != tt.expected {
				t.Errorf("expected query '%s', got '%s'", tt.expected, got)
			}
		})
	}
}
