// Package camera owns the capture device for the duration of one attendance
// or enrollment workflow. A session is exclusively held: it must be closed on
// every exit path, and closing is safe from any state.
package camera

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
)

// State of a camera session.
type State int

const (
	Closed State = iota
	Opening
	Open
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Opening:
		return "opening"
	case Open:
		return "open"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ErrNotReady is returned when a capture is attempted before the session has
// a usable video stream. Local condition, no device interaction happens.
var ErrNotReady = errors.New("camera session is not ready")

// ErrAlreadyOpen is returned when Open is called while a prior session for
// the same device is still held.
var ErrAlreadyOpen = errors.New("camera session already open")

// DeviceError wraps a hardware-level failure (absent device, denied access,
// broken grabber). Fatal to the current attempt; the user must re-trigger
// the open.
type DeviceError struct {
	Err error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("camera device error: %v", e.Err)
}

func (e *DeviceError) Unwrap() error {
	return e.Err
}

// Driver produces raw encoded frames from a capture source.
type Driver interface {
	// Grab returns one encoded frame (JPEG or PNG bytes) from the device.
	Grab(ctx context.Context) ([]byte, error)
	// Close releases any resources held by the driver. Must be idempotent.
	Close() error
	// Name identifies the driver for error messages.
	Name() string
}

// Session represents ownership of the capture device. At most one session
// per device may be open; the zero resolution means "whatever the stream
// delivers".
type Session struct {
	driver  Driver
	quality int

	mu     sync.Mutex
	state  State
	width  int
	height int
}

// NewSession wraps a driver. Quality is the JPEG encode quality used by
// Capture; values outside 1..100 fall back to 95.
func NewSession(driver Driver, quality int) *Session {
	if quality < 1 || quality > 100 {
		quality = 95
	}
	return &Session{driver: driver, quality: quality}
}

// State returns the current session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Ready reports whether the stream has delivered usable dimensions. Opening
// alone is not enough: a session becomes ready only once the first frame
// with non-zero bounds has been read.
func (s *Session) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == Open && s.width > 0 && s.height > 0
}

// Resolution returns the native stream dimensions, zero before Ready.
func (s *Session) Resolution() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

// Open acquires the device. It suspends until the device delivers its first
// decodable frame (the readiness signal) or fails. Opening an already open
// session is an error; a device failure leaves the session closed.
func (s *Session) Open(ctx context.Context) error {
	s.mu.Lock()
	if s.state != Closed {
		s.mu.Unlock()
		return ErrAlreadyOpen
	}
	s.state = Opening
	s.mu.Unlock()

	frame, err := s.driver.Grab(ctx)
	if err != nil {
		s.reset()
		return &DeviceError{Err: err}
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(frame))
	if err != nil || cfg.Width == 0 || cfg.Height == 0 {
		s.reset()
		if err == nil {
			err = errors.New("stream delivered a frame without dimensions")
		}
		return &DeviceError{Err: fmt.Errorf("%s: %w", s.driver.Name(), err)}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Opening {
		// Closed while the grab was in flight; stay closed.
		return &DeviceError{Err: errors.New("session closed during open")}
	}
	s.state = Open
	s.width = cfg.Width
	s.height = cfg.Height
	return nil
}

// Close releases the device. Idempotent and safe from any state, including
// while an Open is still in flight.
func (s *Session) Close() {
	s.reset()
	_ = s.driver.Close()
}

func (s *Session) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Closed
	s.width = 0
	s.height = 0
}
