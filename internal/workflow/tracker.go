// Package workflow drives an attendance pass end to end: open the camera,
// wait for readiness, capture, submit, classify. It owns the daily gate
// that keeps a student from re-submitting after a successful match.
package workflow

import (
	"context"
	"sync"
	"time"

	"github.com/Gani505-dotcom/Smart-Attendance-Verification-System/internal/api"
)

// todayAPI is the slice of the attendance client the tracker needs.
type todayAPI interface {
	TodayAttendance(ctx context.Context) (*api.AttendanceRecord, error)
}

// Tracker knows whether attendance has already been recorded today. The
// server remains the source of truth; the tracker is a local gate that
// saves a camera round trip when the answer is already known.
type Tracker struct {
	client todayAPI
	now    func() time.Time

	mu     sync.Mutex
	record *api.AttendanceRecord
}

func NewTracker(client todayAPI) *Tracker {
	return &Tracker{client: client, now: time.Now}
}

// Refresh queries the server for today's attendance record. A nil record
// means nothing has been marked yet.
func (t *Tracker) Refresh(ctx context.Context) error {
	record, err := t.client.TodayAttendance(ctx)
	if err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.record = record
	return nil
}

// Mark records a successful submission locally so the gate closes without
// another server round trip.
func (t *Tracker) Mark(record *api.AttendanceRecord) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.record = record
}

// Gated reports whether attendance is already marked for the current day.
// A record from a previous day does not gate: the date rolls over at local
// midnight and the next pass starts fresh.
func (t *Tracker) Gated() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.record == nil {
		return false
	}
	return t.record.Date == t.now().Format("2006-01-02")
}

// Record returns the attendance record gating today, nil when open.
func (t *Tracker) Record() *api.AttendanceRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.record == nil || t.record.Date != t.now().Format("2006-01-02") {
		return nil
	}
	return t.record
}
