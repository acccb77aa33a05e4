package stubserver

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Gani505-dotcom/Smart-Attendance-Verification-System/internal/api"
)

// Successive burst frames must differ at least this much in embedding
// distance to count as movement (the stand-in for blink detection).
const livenessEpsilon = 1e-4

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends the contract's failure envelope.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]any{"success": false, "message": message})
}

// HealthCheck endpoint, no auth required.
func healthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) studentLogin(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	student, ok := s.store.Authenticate(creds.Email, creds.Password)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	token, err := s.tokens.issue(roleStudent, student.Email, student.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "could not issue token")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Login successful",
		"token":   token,
		"student": student,
	})
}

func (s *Server) adminLogin(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	admin, ok := s.store.AuthenticateAdmin(creds.Email, creds.Password)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	token, err := s.tokens.issue(roleAdmin, admin.Email, 0)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "could not issue token")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"message":      "Login successful",
		"access_token": token,
		"admin":        admin,
	})
}

func (s *Server) registerAdmin(w http.ResponseWriter, r *http.Request) {
	var draft struct {
		Name     string `json:"name"`
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if draft.Name == "" || draft.Username == "" || draft.Email == "" || draft.Password == "" {
		respondError(w, http.StatusBadRequest, "name, username, email and password are required")
		return
	}
	admin, err := s.store.CreateAdmin(draft.Name, draft.Username, draft.Email, draft.Password)
	if err != nil {
		respondError(w, conflictStatus(err), err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "Admin registered successfully",
		"admin":   admin,
	})
}

func (s *Server) registerStudent(w http.ResponseWriter, r *http.Request) {
	var draft struct {
		Name       string `json:"name"`
		Email      string `json:"email"`
		RollNumber string `json:"roll_number"`
		Course     string `json:"course"`
		Password   string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if draft.Name == "" || draft.Email == "" || draft.RollNumber == "" || draft.Password == "" {
		respondError(w, http.StatusBadRequest, "name, email, roll_number and password are required")
		return
	}
	student, err := s.store.CreateStudent(draft.Name, draft.Email, draft.RollNumber, draft.Course, draft.Password)
	if err != nil {
		respondError(w, conflictStatus(err), err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "Registration successful",
		"student": student,
	})
}

func (s *Server) studentProfile(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	student, err := s.store.GetStudent(claims.StudentID)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "student": student})
}

func (s *Server) adminProfile(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	admin, err := s.store.AdminByEmail(claims.Subject)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "admin": admin})
}

// readFrame reads one uploaded image file from a multipart request.
func (s *Server) readFrame(r *http.Request, field string) ([]byte, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, s.maxImageSize)
	if err := r.ParseMultipartForm(s.maxImageSize); err != nil {
		return nil, errors.New("image exceeds the upload limit or the form is malformed")
	}
	file, _, err := r.FormFile(field)
	if err != nil {
		return nil, errors.New("no image uploaded")
	}
	defer file.Close()
	return io.ReadAll(file)
}

// readFrames reads all files uploaded under a repeated multipart field.
func (s *Server) readFrames(r *http.Request, field string) ([][]byte, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, 4*s.maxImageSize)
	if err := r.ParseMultipartForm(4 * s.maxImageSize); err != nil {
		return nil, errors.New("images exceed the upload limit or the form is malformed")
	}
	if r.MultipartForm == nil || len(r.MultipartForm.File[field]) == 0 {
		return nil, errors.New("no images uploaded")
	}
	var frames [][]byte
	for _, header := range r.MultipartForm.File[field] {
		frame, err := readFileHeader(header)
		if err != nil {
			return nil, err
		}
		frames = append(frames, frame)
	}
	return frames, nil
}

func readFileHeader(header *multipart.FileHeader) ([]byte, error) {
	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}

// verifyFace scores a probe frame against the logged-in student's enrolled
// embedding. Writes the rejection response itself and reports whether the
// caller should proceed with marking.
func (s *Server) verifyFace(w http.ResponseWriter, studentID int, frame []byte) (float64, bool) {
	probe, err := encodeFace(frame)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]any{
			"success":     false,
			"message":     "No face detected in the image",
			"suggestions": s.suggestions[reasonNoFace],
		})
		return 0, false
	}

	reference, enrolled := s.gallery.EmbeddingFor(int64(studentID))
	if !enrolled {
		respondJSON(w, http.StatusBadRequest, map[string]any{
			"success":     false,
			"message":     "No reference photo enrolled for this student",
			"suggestions": s.suggestions[reasonNoMatch],
		})
		return 0, false
	}

	confidence := (1 - embeddingDistance(probe, reference)) * 100

	// The probe must also be closest to the claimed student across the
	// whole gallery, otherwise someone else's face is in front of the
	// camera.
	if best := s.gallery.Match(probe); best != nil && best.StudentID != int64(studentID) && best.Confidence > confidence {
		respondJSON(w, http.StatusOK, map[string]any{
			"success":     false,
			"message":     "Face does not match the enrolled reference",
			"confidence":  round2(confidence),
			"threshold":   s.threshold,
			"suggestions": s.suggestions[reasonNoMatch],
		})
		return 0, false
	}

	if confidence < s.threshold {
		respondJSON(w, http.StatusOK, map[string]any{
			"success":     false,
			"message":     "Face verification failed",
			"confidence":  round2(confidence),
			"threshold":   s.threshold,
			"suggestions": s.suggestions[reasonLowConfidence],
		})
		return 0, false
	}

	return confidence, true
}

// markVerified records attendance after a successful verification and
// writes the success or duplicate response. Extra fields are merged into
// the success body.
func (s *Server) markVerified(w http.ResponseWriter, studentID int, confidence float64, extra map[string]any) {
	record, err := s.store.MarkAttendance(studentID, round2(confidence))
	if err != nil {
		if errors.Is(err, ErrAlreadyMarked) {
			respondError(w, http.StatusBadRequest, "Attendance already marked today")
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	body := map[string]any{
		"success":    true,
		"message":    "Attendance marked successfully",
		"confidence": round2(confidence),
		"attendance": record,
	}
	for k, v := range extra {
		body[k] = v
	}
	respondJSON(w, http.StatusOK, body)
}

func (s *Server) markAttendance(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	frame, err := s.readFrame(r, "image")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	confidence, ok := s.verifyFace(w, claims.StudentID, frame)
	if !ok {
		return
	}
	s.markVerified(w, claims.StudentID, confidence, nil)
}

func (s *Server) markAttendanceEnhanced(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	frames, err := s.readFrames(r, "images")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(frames) < 3 {
		respondError(w, http.StatusBadRequest, "at least 3 frames are required for liveness checking")
		return
	}

	blinks, err := countBlinks(frames)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]any{
			"success":     false,
			"message":     "No face detected in the image",
			"suggestions": s.suggestions[reasonNoFace],
		})
		return
	}
	if blinks == 0 {
		respondJSON(w, http.StatusBadRequest, map[string]any{
			"success":         false,
			"message":         "No blink detected, please try again",
			"blinks_detected": 0,
			"suggestions":     s.suggestions[reasonLiveness],
		})
		return
	}

	confidence, ok := s.verifyFace(w, claims.StudentID, frames[0])
	if !ok {
		return
	}
	s.markVerified(w, claims.StudentID, confidence, map[string]any{"blinks_detected": blinks})
}

// countBlinks counts successive frame pairs with visible movement. Static
// identical frames produce zero, which fails the liveness check.
func countBlinks(frames [][]byte) (int, error) {
	previous, err := encodeFace(frames[0])
	if err != nil {
		return 0, err
	}
	blinks := 0
	for _, frame := range frames[1:] {
		current, err := encodeFace(frame)
		if err != nil {
			return 0, err
		}
		if embeddingDistance(previous, current) > livenessEpsilon {
			blinks++
		}
		previous = current
	}
	return blinks, nil
}

func (s *Server) todayAttendance(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	respondJSON(w, http.StatusOK, map[string]any{
		"attendance": s.store.TodayAttendance(claims.StudentID),
	})
}

func (s *Server) attendanceHistory(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	respondJSON(w, http.StatusOK, map[string]any{
		"success":            true,
		"attendance_history": s.store.History(claims.StudentID),
	})
}

func (s *Server) captureFaceEncoding(w http.ResponseWriter, r *http.Request) {
	frame, err := s.readFrame(r, "image")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	embedding, err := encodeFace(frame)
	if err != nil {
		respondError(w, http.StatusBadRequest, "No face detected in the image")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"message":       "Face encoding captured",
		"face_encoding": encodeEmbedding(embedding),
	})
}

// encodeEmbedding renders an embedding as a transportable string.
func encodeEmbedding(embedding []float32) string {
	buf := make([]byte, 4*len(embedding))
	for i, v := range embedding {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	return base64.StdEncoding.EncodeToString(buf)
}

func (s *Server) createStudent(w http.ResponseWriter, r *http.Request) {
	frame, err := s.readFrame(r, "photo")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	embedding, err := encodeFace(frame)
	if err != nil {
		respondError(w, http.StatusBadRequest, "No face detected in the photo")
		return
	}

	form := r.MultipartForm.Value
	name := formValue(form, "name")
	email := formValue(form, "email")
	roll := formValue(form, "roll_number")
	course := formValue(form, "course")
	password := formValue(form, "password")
	if name == "" || email == "" || roll == "" || password == "" {
		respondError(w, http.StatusBadRequest, "name, email, roll_number and password are required")
		return
	}

	student, err := s.store.CreateStudent(name, email, roll, course, password)
	if err != nil {
		respondError(w, conflictStatus(err), err.Error())
		return
	}
	s.gallery.Enroll(int64(student.ID), embedding)
	respondJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "Student created",
		"student": student,
	})
}

func formValue(form map[string][]string, key string) string {
	if values := form[key]; len(values) > 0 {
		return strings.TrimSpace(values[0])
	}
	return ""
}

func (s *Server) listStudents(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"students": s.store.ListStudents(),
	})
}

func (s *Server) getStudent(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid student id")
		return
	}
	student, err := s.store.GetStudent(id)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "student": student})
}

func (s *Server) updateStudent(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid student id")
		return
	}

	var change StudentChange
	var embedding []float32

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		frame, err := s.readFrame(r, "photo")
		if err == nil {
			embedding, err = encodeFace(frame)
			if err != nil {
				respondError(w, http.StatusBadRequest, "No face detected in the photo")
				return
			}
		}
		form := r.MultipartForm.Value
		change = changeFromForm(form)
	} else {
		var body struct {
			Name       *string `json:"name"`
			Email      *string `json:"email"`
			RollNumber *string `json:"roll_number"`
			Course     *string `json:"course"`
			Password   *string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		change = StudentChange(body)
	}

	student, err := s.store.UpdateStudent(id, change)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		respondError(w, conflictStatus(err), err.Error())
		return
	}
	if embedding != nil {
		s.gallery.Enroll(int64(id), embedding)
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Student updated",
		"student": student,
	})
}

func changeFromForm(form map[string][]string) StudentChange {
	var change StudentChange
	set := func(dst **string, key string) {
		if values := form[key]; len(values) > 0 {
			v := strings.TrimSpace(values[0])
			*dst = &v
		}
	}
	set(&change.Name, "name")
	set(&change.Email, "email")
	set(&change.RollNumber, "roll_number")
	set(&change.Course, "course")
	set(&change.Password, "password")
	return change
}

func (s *Server) deleteStudent(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid student id")
		return
	}
	if err := s.store.DeleteStudent(id); err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	s.gallery.Remove(int64(id))
	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Student deleted",
	})
}

func (s *Server) attendanceReports(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := api.ReportFilter{
		StudentName: query.Get("student_name"),
		RollNumber:  query.Get("roll_number"),
		Date:        query.Get("date"),
		Course:      query.Get("course"),
	}
	reports := s.store.Reports(filter)
	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"reports": reports,
		"count":   len(reports),
	})
}

func conflictStatus(err error) int {
	switch {
	case errors.Is(err, ErrDuplicateEmail), errors.Is(err, ErrDuplicateRoll),
		errors.Is(err, ErrDuplicateAdminEmail), errors.Is(err, ErrDuplicateUsername):
		return http.StatusConflict
	}
	return http.StatusBadRequest
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
