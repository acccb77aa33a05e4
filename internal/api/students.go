package api

import (
	"context"
	"net/http"
	"strconv"
)

type studentResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Student *StudentProfile `json:"student"`
}

// CaptureFaceEncoding runs the preview-then-confirm check for enrollment:
// the frame is sent alone and the provisional encoding comes back for the
// operator to confirm. Idempotent; the result is discarded on recapture.
func (c *Client) CaptureFaceEncoding(ctx context.Context, frame []byte) (string, error) {
	if len(frame) == 0 {
		return "", ErrMissingCapture
	}
	out, err := doMultipart[struct {
		Success      bool   `json:"success"`
		Message      string `json:"message"`
		FaceEncoding string `json:"face_encoding"`
	}](ctx, c, http.MethodPost, "admin/capture-face-encoding", "image", "face_capture.jpg", frame, nil)
	if err != nil {
		return "", err
	}
	if !out.Success || out.FaceEncoding == "" {
		return "", &APIError{Message: messageOr(out.Message, "no face detected in image")}
	}
	return out.FaceEncoding, nil
}

// CreateStudent enrolls a new student: profile fields plus the captured
// reference frame in one atomic multipart request. A draft without a frame
// is rejected locally before any network call.
func (c *Client) CreateStudent(ctx context.Context, draft EnrollmentDraft) (*StudentProfile, error) {
	if len(draft.Frame) == 0 {
		return nil, ErrMissingCapture
	}

	fields := map[string]string{
		"name":        draft.Name,
		"email":       draft.Email,
		"roll_number": draft.RollNumber,
		"course":      draft.Course,
		"password":    draft.Password,
	}
	out, err := doMultipart[studentResponse](ctx, c, http.MethodPost, "admin/students", "photo", "face_capture.jpg", draft.Frame, fields)
	if err != nil {
		return nil, err
	}
	if !out.Success || out.Student == nil {
		return nil, &APIError{Message: messageOr(out.Message, "student creation failed")}
	}
	return out.Student, nil
}

// ListStudents returns all student records (admin only).
func (c *Client) ListStudents(ctx context.Context) ([]StudentProfile, error) {
	out, err := doGetJSON[struct {
		Success  bool             `json:"success"`
		Students []StudentProfile `json:"students"`
	}](ctx, c, "admin/students")
	if err != nil {
		return nil, err
	}
	return out.Students, nil
}

// GetStudent fetches one student record by id (admin only).
func (c *Client) GetStudent(ctx context.Context, id int) (*StudentProfile, error) {
	out, err := doGetJSON[studentResponse](ctx, c, "admin/students/"+strconv.Itoa(id))
	if err != nil {
		return nil, err
	}
	if !out.Success || out.Student == nil {
		return nil, &APIError{Message: messageOr(out.Message, "student not found")}
	}
	return out.Student, nil
}

// UpdateStudent applies a partial profile update. When a replacement frame
// is attached the request goes multipart so the reference encoding is
// regenerated server-side; otherwise plain JSON.
func (c *Client) UpdateStudent(ctx context.Context, id int, update StudentUpdate) (*StudentProfile, error) {
	endpoint := "admin/students/" + strconv.Itoa(id)

	var out *studentResponse
	var err error
	if len(update.Frame) > 0 {
		out, err = doMultipart[studentResponse](ctx, c, http.MethodPut, endpoint, "photo", "face_capture.jpg", update.Frame, update.fields())
	} else {
		out, err = doPutJSON[studentResponse](ctx, c, endpoint, update.payload())
	}
	if err != nil {
		return nil, err
	}
	if !out.Success || out.Student == nil {
		return nil, &APIError{Message: messageOr(out.Message, "student update failed")}
	}
	return out.Student, nil
}

// DeleteStudent removes a student record and its reference photo.
func (c *Client) DeleteStudent(ctx context.Context, id int) error {
	out, err := doDeleteJSON[struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}](ctx, c, "admin/students/"+strconv.Itoa(id))
	if err != nil {
		return err
	}
	if !out.Success {
		return &APIError{Message: messageOr(out.Message, "student deletion failed")}
	}
	return nil
}

// fields renders the set fields as multipart form values.
func (u StudentUpdate) fields() map[string]string {
	fields := make(map[string]string)
	set := func(key string, val *string) {
		if val != nil {
			fields[key] = *val
		}
	}
	set("name", u.Name)
	set("email", u.Email)
	set("roll_number", u.RollNumber)
	set("course", u.Course)
	set("password", u.Password)
	return fields
}

// payload renders the set fields as a JSON object.
func (u StudentUpdate) payload() map[string]string {
	return u.fields()
}
