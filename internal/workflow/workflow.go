package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Gani505-dotcom/Smart-Attendance-Verification-System/internal/api"
)

// Phase of the attendance pass.
type Phase int

const (
	Idle Phase = iota
	CameraStarting
	Ready
	Capturing
	Submitting
	Done
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case CameraStarting:
		return "camera starting"
	case Ready:
		return "ready"
	case Capturing:
		return "capturing"
	case Submitting:
		return "submitting"
	case Done:
		return "done"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// ErrBusy is returned when a submission is already in flight. The trigger
// is ignored rather than queued.
var ErrBusy = errors.New("a submission is already in flight")

// ErrGated is returned when attendance has already been recorded today.
var ErrGated = errors.New("attendance already marked today")

// ErrCancelled is returned when the pass was cancelled while an attempt
// was in flight; whatever the server answered is discarded.
var ErrCancelled = errors.New("attendance pass cancelled")

// Camera is the slice of the capture session the runner drives.
type Camera interface {
	Open(ctx context.Context) error
	Capture(ctx context.Context) ([]byte, error)
	CaptureBurst(ctx context.Context, count int, progress func(i int)) ([][]byte, error)
	Close()
	Ready() bool
}

// marker is the slice of the attendance client the runner submits through.
type marker interface {
	MarkAttendance(ctx context.Context, frame []byte) (*api.Outcome, error)
	MarkAttendanceBurst(ctx context.Context, frames [][]byte) (*api.Outcome, error)
}

// Runner walks one attendance pass through its phases. The camera is held
// from Start until a terminal outcome or Cancel; retryable outcomes keep
// it open so the next attempt needs no new device negotiation.
type Runner struct {
	camera  Camera
	client  marker
	tracker *Tracker

	burst    int         // frames per attempt; 0 or 1 submits a single frame
	progress func(i int) // optional per-frame callback during a burst

	onUnauthorized func() // invoked when the server rejects the credential

	mu    sync.Mutex
	phase Phase
	gen   int // bumped by Cancel to orphan in-flight attempts
}

// Option configures a Runner.
type Option func(*Runner)

// WithBurst makes every attempt capture and submit count frames for
// liveness checking.
func WithBurst(count int, progress func(i int)) Option {
	return func(r *Runner) {
		r.burst = count
		r.progress = progress
	}
}

// WithUnauthorizedHook registers a callback for credential rejection, e.g.
// clearing the stored session file.
func WithUnauthorizedHook(hook func()) Option {
	return func(r *Runner) {
		r.onUnauthorized = hook
	}
}

func NewRunner(cam Camera, client marker, tracker *Tracker, opts ...Option) *Runner {
	r := &Runner{camera: cam, client: client, tracker: tracker}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Phase returns the current phase.
func (r *Runner) Phase() Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase
}

// Start acquires the camera and waits for stream readiness. It refuses to
// start when today's attendance is already recorded, and leaves the runner
// idle when the device fails.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.phase != Idle && r.phase != Done {
		r.mu.Unlock()
		return ErrBusy
	}
	if r.tracker != nil && r.tracker.Gated() {
		r.mu.Unlock()
		return ErrGated
	}
	gen := r.gen
	r.phase = CameraStarting
	r.mu.Unlock()

	if err := r.camera.Open(ctx); err != nil {
		r.setPhase(gen, Idle)
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gen != gen {
		// Cancelled while the camera was opening. Cancel already closed it,
		// but the open may have re-acquired the device; release again.
		r.camera.Close()
		return ErrCancelled
	}
	r.phase = Ready
	return nil
}

// Attempt captures frames and submits them, returning the classified
// outcome. A terminal outcome releases the camera and ends the pass;
// a retryable outcome keeps the camera open so the caller can attempt
// again immediately. Calling Attempt while a submission is in flight
// returns ErrBusy.
func (r *Runner) Attempt(ctx context.Context) (*api.Outcome, error) {
	r.mu.Lock()
	switch r.phase {
	case Capturing, Submitting:
		r.mu.Unlock()
		return nil, ErrBusy
	case Ready:
	default:
		phase := r.phase
		r.mu.Unlock()
		return nil, fmt.Errorf("cannot attempt from phase %q", phase)
	}
	gen := r.gen
	r.phase = Capturing
	r.mu.Unlock()

	frames, err := r.capture(ctx)
	if err != nil {
		r.setPhase(gen, Ready)
		return nil, err
	}

	if !r.setPhase(gen, Submitting) {
		return nil, ErrCancelled
	}

	outcome, err := r.submit(ctx, frames)

	r.mu.Lock()
	if r.gen != gen {
		// Cancelled mid-flight; the camera is gone and the answer,
		// whatever it was, no longer belongs to anyone.
		r.mu.Unlock()
		return nil, ErrCancelled
	}

	if err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			r.phase = Idle
			r.mu.Unlock()
			r.camera.Close()
			if r.onUnauthorized != nil {
				r.onUnauthorized()
			}
			return nil, err
		}
		r.phase = Ready
		r.mu.Unlock()
		return nil, err
	}

	if outcome.Terminal() {
		r.phase = Done
		r.mu.Unlock()
		r.camera.Close()
		r.recordOutcome(ctx, outcome)
		return outcome, nil
	}

	r.phase = Ready
	r.mu.Unlock()
	if outcome.Kind == api.OutcomeAlreadyMarked {
		// The server already holds today's record; close the gate but
		// leave the camera open like any other rejection.
		r.recordOutcome(ctx, outcome)
	}
	return outcome, nil
}

// Cancel aborts the pass from any phase. The camera is released and any
// attempt still in flight is orphaned: its result will be discarded.
func (r *Runner) Cancel() {
	r.mu.Lock()
	r.gen++
	r.phase = Idle
	r.mu.Unlock()
	r.camera.Close()
}

func (r *Runner) capture(ctx context.Context) ([][]byte, error) {
	if r.burst > 1 {
		return r.camera.CaptureBurst(ctx, r.burst, r.progress)
	}
	frame, err := r.camera.Capture(ctx)
	if err != nil {
		return nil, err
	}
	return [][]byte{frame}, nil
}

func (r *Runner) submit(ctx context.Context, frames [][]byte) (*api.Outcome, error) {
	if len(frames) > 1 {
		return r.client.MarkAttendanceBurst(ctx, frames)
	}
	return r.client.MarkAttendance(ctx, frames[0])
}

// recordOutcome closes the daily gate. A match carries the new record; an
// already-marked refusal does not, so the gate is re-read from the server.
func (r *Runner) recordOutcome(ctx context.Context, outcome *api.Outcome) {
	if r.tracker == nil {
		return
	}
	if outcome.Record != nil {
		r.tracker.Mark(outcome.Record)
		return
	}
	_ = r.tracker.Refresh(ctx)
}

// setPhase transitions to next unless the generation has moved on. Reports
// whether the transition happened.
func (r *Runner) setPhase(gen int, next Phase) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gen != gen {
		return false
	}
	r.phase = next
	return true
}
