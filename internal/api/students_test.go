package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestCreateStudent_MissingCapture(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	c := newAuthedClient(t, server)
	_, err := c.CreateStudent(context.Background(), EnrollmentDraft{
		Name:       "Jan Novak",
		Email:      "jan@example.com",
		RollNumber: "CS-042",
		Course:     "CS",
		Password:   "pw",
		// no Frame attached
	})

	if !errors.Is(err, ErrMissingCapture) {
		t.Errorf("expected ErrMissingCapture, got %v", err)
	}
	if calls.Load() != 0 {
		t.Errorf("expected rejection before any network call, got %d calls", calls.Load())
	}
}

func TestCreateStudent_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(4 << 20); err != nil {
			t.Fatalf("expected multipart form: %v", err)
		}
		if got := r.FormValue("roll_number"); got != "CS-042" {
			t.Errorf("expected roll_number 'CS-042', got '%s'", got)
		}
		if _, _, err := r.FormFile("photo"); err != nil {
			t.Errorf("expected 'photo' form file: %v", err)
		}
		writeJSON(w, http.StatusCreated, map[string]any{
			"success": true,
			"message": "Student created successfully",
			"student": map[string]any{
				"id": 11, "name": "Jan Novak", "email": "jan@example.com",
				"roll_number": "CS-042", "course": "CS",
			},
		})
	}))
	defer server.Close()

	c := newAuthedClient(t, server)
	student, err := c.CreateStudent(context.Background(), EnrollmentDraft{
		Name: "Jan Novak", Email: "jan@example.com", RollNumber: "CS-042",
		Course: "CS", Password: "pw", Frame: testFrame,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if student.ID != 11 {
		t.Errorf("expected student id 11, got %d", student.ID)
	}
}

func TestCreateStudent_DuplicateRollNumber(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusConflict, map[string]any{
			"success": false,
			"message": "Roll number already in use",
		})
	}))
	defer server.Close()

	c := newAuthedClient(t, server)
	_, err := c.CreateStudent(context.Background(), EnrollmentDraft{
		Name: "Jan", Email: "jan2@example.com", RollNumber: "CS-042",
		Course: "CS", Password: "pw", Frame: testFrame,
	})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.Message != "Roll number already in use" {
		t.Errorf("unexpected message '%s'", apiErr.Message)
	}
}

func TestCaptureFaceEncoding_Preview(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/admin/capture-face-encoding" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success":       true,
			"message":       "Face encoding generated successfully",
			"face_encoding": "b64-opaque-encoding",
		})
	}))
	defer server.Close()

	c := newAuthedClient(t, server)
	encoding, err := c.CaptureFaceEncoding(context.Background(), testFrame)
	if err != nil {
		t.Fatalf("preview failed: %v", err)
	}

	if encoding != "b64-opaque-encoding" {
		t.Errorf("expected opaque encoding, got '%s'", encoding)
	}
}

func TestCaptureFaceEncoding_NoFace(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"message": "No face detected in image",
		})
	}))
	defer server.Close()

	c := newAuthedClient(t, server)
	_, err := c.CaptureFaceEncoding(context.Background(), testFrame)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.Message != "No face detected in image" {
		t.Errorf("unexpected message '%s'", apiErr.Message)
	}
}

func TestCaptureFaceEncoding_MissingCapture(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	c := newAuthedClient(t, server)
	if _, err := c.CaptureFaceEncoding(context.Background(), nil); !errors.Is(err, ErrMissingCapture) {
		t.Errorf("expected ErrMissingCapture, got %v", err)
	}
	if calls.Load() != 0 {
		t.Errorf("expected no network call, got %d", calls.Load())
	}
}

func TestListStudents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"students": []map[string]any{
				{"id": 1, "name": "Jan", "roll_number": "CS-001"},
				{"id": 2, "name": "Eva", "roll_number": "CS-002"},
			},
		})
	}))
	defer server.Close()

	c := newAuthedClient(t, server)
	students, err := c.ListStudents(context.Background())
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	if len(students) != 2 {
		t.Fatalf("expected 2 students, got %d", len(students))
	}
}

func TestUpdateStudent_JSONWithoutFrame(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("expected PUT, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected JSON update without frame, got content type '%s'", ct)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"student": map[string]any{"id": 5, "name": "Jan Novak", "course": "EE"},
		})
	}))
	defer server.Close()

	course := "EE"
	c := newAuthedClient(t, server)
	student, err := c.UpdateStudent(context.Background(), 5, StudentUpdate{Course: &course})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}

	if student.Course != "EE" {
		t.Errorf("expected course 'EE', got '%s'", student.Course)
	}
}

func TestDeleteStudent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/api/admin/students/9" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "Student deleted successfully",
		})
	}))
	defer server.Close()

	c := newAuthedClient(t, server)
	if err := c.DeleteStudent(context.Background(), 9); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
}
