package stubserver

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Gani505-dotcom/Smart-Attendance-Verification-System/internal/config"
)

const (
	testAdminEmail    = "admin@example.com"
	testAdminPassword = "letmein"
)

// newTestServer builds a stub server with test configuration.
func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := &config.Config{
		Server: config.ServerConfig{
			JWTSecret:    "test-secret",
			TokenTTL:     time.Hour,
			Threshold:    60,
			MaxImageSize: 2 << 20,
		},
	}
	s, err := New(cfg, "127.0.0.1", 0, testAdminEmail, testAdminPassword)
	if err != nil {
		t.Fatalf("failed to build server: %v", err)
	}
	return s
}

// leftFace and rightFace produce clearly distinguishable synthetic faces:
// their bright regions do not overlap, so their embeddings are nearly
// orthogonal. variant perturbs a small patch to simulate frame-to-frame
// movement of the same face.
func leftFace(t *testing.T) []byte  { return renderFace(t, true, false) }
func rightFace(t *testing.T) []byte { return renderFace(t, false, false) }

func leftFaceVariant(t *testing.T) []byte { return renderFace(t, true, true) }

func renderFace(t *testing.T, left, variant bool) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for x := 0; x < 64; x++ {
		for y := 0; y < 48; y++ {
			bright := x < 32 == left
			c := color.RGBA{A: 255}
			if bright {
				c = color.RGBA{R: 230, G: 230, B: 230, A: 255}
			}
			img.Set(x, y, c)
		}
	}
	if variant {
		for x := 8; x < 14; x++ {
			for y := 8; y < 14; y++ {
				img.Set(x, y, color.RGBA{R: 120, G: 120, B: 120, A: 255})
			}
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("could not encode test face: %v", err)
	}
	return buf.Bytes()
}

// blackFrame is undecodable as a face: the encoder rejects all-black input.
func blackFrame(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("could not encode black frame: %v", err)
	}
	return buf.Bytes()
}

// doJSON performs a JSON request against the server router.
func doJSON(t *testing.T, s *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("could not marshal request body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

// doMultipart performs a multipart request with form fields and image files.
func doMultipart(t *testing.T, s *Server, method, path, token, fileField string, files [][]byte, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("could not write form field: %v", err)
		}
	}
	for i, file := range files {
		part, err := writer.CreateFormFile(fileField, "frame.jpg")
		if err != nil {
			t.Fatalf("could not create form file %d: %v", i, err)
		}
		if _, err := part.Write(file); err != nil {
			t.Fatalf("could not write form file %d: %v", i, err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("could not close multipart writer: %v", err)
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

// decodeBody parses a JSON response body into a generic map.
func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("could not decode response body: %v", err)
	}
	return body
}

// loginAdmin logs in the seeded administrator and returns the token.
func loginAdmin(t *testing.T, s *Server) string {
	t.Helper()
	rec := doJSON(t, s, http.MethodPost, "/api/admin/login", "", credentials{
		Email:    testAdminEmail,
		Password: testAdminPassword,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("admin login failed with status %d: %s", rec.Code, rec.Body.String())
	}
	token, _ := decodeBody(t, rec)["access_token"].(string)
	if token == "" {
		t.Fatal("admin login returned no access_token")
	}
	return token
}

// enrollStudent creates a student with the given reference photo and
// returns its ID.
func enrollStudent(t *testing.T, s *Server, adminToken, name, email, roll string, photo []byte) int {
	t.Helper()
	rec := doMultipart(t, s, http.MethodPost, "/api/admin/students", adminToken, "photo", [][]byte{photo}, map[string]string{
		"name":        name,
		"email":       email,
		"roll_number": roll,
		"course":      "Computer Science",
		"password":    "student-pass",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("enrollment failed with status %d: %s", rec.Code, rec.Body.String())
	}
	student, _ := decodeBody(t, rec)["student"].(map[string]any)
	id, _ := student["id"].(float64)
	if id == 0 {
		t.Fatal("enrollment returned no student id")
	}
	return int(id)
}

// loginStudent logs a student in and returns the token.
func loginStudent(t *testing.T, s *Server, email, password string) string {
	t.Helper()
	rec := doJSON(t, s, http.MethodPost, "/api/students/login", "", credentials{Email: email, Password: password})
	if rec.Code != http.StatusOK {
		t.Fatalf("student login failed with status %d: %s", rec.Code, rec.Body.String())
	}
	token, _ := decodeBody(t, rec)["token"].(string)
	if token == "" {
		t.Fatal("student login returned no token")
	}
	return token
}
