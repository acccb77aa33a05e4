package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// markResponse is the recognition service's submission response. Rejections
// arrive both as HTTP 200 (verification failed) and 400 (duplicate, liveness,
// bad image), always with this JSON shape.
type markResponse struct {
	Success     bool              `json:"success"`
	Message     string            `json:"message"`
	Confidence  *float64          `json:"confidence"`
	Threshold   float64           `json:"threshold"`
	Attendance  *AttendanceRecord `json:"attendance"`
	Suggestions []string          `json:"suggestions"`
	Details     string            `json:"details"`
	Blinks      int               `json:"blinks_detected"`
}

// MarkAttendance submits one captured frame for recognition. Exactly one
// network call is made per frame; every retry needs a fresh capture. The
// response is classified into a tagged Outcome; the only error returns are
// ErrUnauthorized (credential must be discarded) and local failures before
// any network traffic.
func (c *Client) MarkAttendance(ctx context.Context, frame []byte) (*Outcome, error) {
	if len(frame) == 0 {
		return nil, ErrMissingCapture
	}
	return c.submitFrames(ctx, "attendance/mark", "image", [][]byte{frame})
}

// MarkAttendanceBurst submits a sequence of consecutive frames so the server
// can verify liveness (blink detection) before matching. At least three
// frames are required.
func (c *Client) MarkAttendanceBurst(ctx context.Context, frames [][]byte) (*Outcome, error) {
	if len(frames) < 3 {
		return nil, fmt.Errorf("burst submission needs at least 3 frames, got %d", len(frames))
	}
	for _, f := range frames {
		if len(f) == 0 {
			return nil, ErrMissingCapture
		}
	}
	return c.submitFrames(ctx, "attendance/mark-enhanced", "images", frames)
}

func (c *Client) submitFrames(ctx context.Context, endpoint, field string, frames [][]byte) (*Outcome, error) {
	body, contentType, err := buildFrameForm(field, frames)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.resolveURL(endpoint), body)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return transportOutcome(err), nil
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrUnauthorized
	}

	var out markResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil || resp.StatusCode >= 500 {
		return &Outcome{
			Kind:    OutcomeTransportError,
			Message: fmt.Sprintf("recognition service error (status %d)", resp.StatusCode),
		}, nil
	}

	return classify(&out), nil
}

// classify maps the server-asserted result onto the outcome taxonomy.
func classify(out *markResponse) *Outcome {
	o := &Outcome{
		Message:     out.Message,
		Threshold:   out.Threshold,
		Suggestions: out.Suggestions,
		Details:     out.Details,
		Blinks:      out.Blinks,
	}
	if out.Confidence != nil {
		o.Confidence = *out.Confidence
		o.HasConfidence = true
	}

	switch {
	case out.Success:
		o.Kind = OutcomeMatched
		o.Record = out.Attendance
		if o.Record != nil && out.Confidence != nil && o.Record.Confidence == 0 {
			o.Record.Confidence = *out.Confidence
		}
	case strings.Contains(strings.ToLower(out.Message), "already marked"):
		o.Kind = OutcomeAlreadyMarked
	default:
		// Low confidence and no-match are distinguished only by the server's
		// suggestion text; both stay one retryable class.
		o.Kind = OutcomeRetryable
	}
	return o
}

// transportOutcome converts a network failure into the retryable transport
// outcome. Timeouts are called out separately for the user message.
func transportOutcome(err error) *Outcome {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &Outcome{
			Kind:    OutcomeTransportError,
			Message: "request timed out, please check your connection",
			Details: "timeout",
		}
	}
	return &Outcome{
		Kind:    OutcomeTransportError,
		Message: "could not reach the recognition service, please try again",
		Details: err.Error(),
	}
}

// TodayAttendance reports whether a record already exists for the current
// identity today. Returns nil when no record exists.
func (c *Client) TodayAttendance(ctx context.Context) (*AttendanceRecord, error) {
	out, err := doGetJSON[struct {
		Attendance *AttendanceRecord `json:"attendance"`
	}](ctx, c, "attendance/today")
	if err != nil {
		return nil, err
	}
	return out.Attendance, nil
}

// AttendanceHistory returns the identity's records, most recent first.
func (c *Client) AttendanceHistory(ctx context.Context) ([]AttendanceRecord, error) {
	out, err := doGetJSON[struct {
		Success bool               `json:"success"`
		History []AttendanceRecord `json:"attendance_history"`
	}](ctx, c, "attendance/history")
	if err != nil {
		return nil, err
	}
	return out.History, nil
}

// AttendanceReports fetches the admin report with optional filters.
func (c *Client) AttendanceReports(ctx context.Context, filter ReportFilter) ([]Report, error) {
	endpoint := "admin/attendance-reports" + filter.query()
	out, err := doGetJSON[struct {
		Success bool     `json:"success"`
		Reports []Report `json:"reports"`
		Count   int      `json:"count"`
	}](ctx, c, endpoint)
	if err != nil {
		return nil, err
	}
	return out.Reports, nil
}
