package camera

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"testing"
	"time"
)

// fakeDriver serves pre-encoded frames and counts device interactions.
type fakeDriver struct {
	frames [][]byte
	err    error
	grabs  int
	closes int
}

func (d *fakeDriver) Grab(ctx context.Context) ([]byte, error) {
	d.grabs++
	if d.err != nil {
		return nil, d.err
	}
	frame := d.frames[0]
	if len(d.frames) > 1 {
		d.frames = d.frames[1:]
	}
	return frame, nil
}

func (d *fakeDriver) Close() error {
	d.closes++
	return nil
}

func (d *fakeDriver) Name() string {
	return "fake"
}

func encodeFrame(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("could not encode test frame: %v", err)
	}
	return buf.Bytes()
}

func TestSessionOpen(t *testing.T) {
	driver := &fakeDriver{frames: [][]byte{encodeFrame(t, 64, 48)}}
	session := NewSession(driver, 95)

	if session.Ready() {
		t.Fatal("session must not be ready before open")
	}
	if err := session.Open(context.Background()); err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if session.State() != Open {
		t.Fatalf("expected state open, got %s", session.State())
	}
	if !session.Ready() {
		t.Fatal("session with decoded dimensions must be ready")
	}
	w, h := session.Resolution()
	if w != 64 || h != 48 {
		t.Fatalf("expected 64x48, got %dx%d", w, h)
	}
}

func TestSessionOpenTwice(t *testing.T) {
	driver := &fakeDriver{frames: [][]byte{encodeFrame(t, 64, 48)}}
	session := NewSession(driver, 95)

	if err := session.Open(context.Background()); err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if err := session.Open(context.Background()); !errors.Is(err, ErrAlreadyOpen) {
		t.Fatalf("expected ErrAlreadyOpen, got %v", err)
	}
}

func TestSessionOpenDeviceFailure(t *testing.T) {
	driver := &fakeDriver{err: errors.New("device busy")}
	session := NewSession(driver, 95)

	err := session.Open(context.Background())
	var devErr *DeviceError
	if !errors.As(err, &devErr) {
		t.Fatalf("expected DeviceError, got %v", err)
	}
	if session.State() != Closed {
		t.Fatalf("failed open must leave the session closed, got %s", session.State())
	}
	if session.Ready() {
		t.Fatal("failed session must not be ready")
	}
}

func TestSessionOpenUndecodableFrame(t *testing.T) {
	driver := &fakeDriver{frames: [][]byte{[]byte("not an image")}}
	session := NewSession(driver, 95)

	err := session.Open(context.Background())
	var devErr *DeviceError
	if !errors.As(err, &devErr) {
		t.Fatalf("expected DeviceError for an undecodable frame, got %v", err)
	}
	if session.State() != Closed {
		t.Fatalf("expected closed state, got %s", session.State())
	}
}

func TestSessionCloseIdempotent(t *testing.T) {
	driver := &fakeDriver{frames: [][]byte{encodeFrame(t, 32, 32)}}
	session := NewSession(driver, 95)

	// Closing a never-opened session is safe.
	session.Close()
	session.Close()

	if err := session.Open(context.Background()); err != nil {
		t.Fatalf("open after close failed: %v", err)
	}
	session.Close()
	session.Close()
	if session.State() != Closed {
		t.Fatalf("expected closed, got %s", session.State())
	}
	if session.Ready() {
		t.Fatal("closed session must not be ready")
	}
	if driver.closes < 2 {
		t.Fatalf("expected driver close calls, got %d", driver.closes)
	}
}

func TestSessionReopenAfterClose(t *testing.T) {
	frame := encodeFrame(t, 32, 32)
	driver := &fakeDriver{frames: [][]byte{frame, frame}}
	session := NewSession(driver, 95)

	if err := session.Open(context.Background()); err != nil {
		t.Fatalf("first open failed: %v", err)
	}
	session.Close()
	if err := session.Open(context.Background()); err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	if !session.Ready() {
		t.Fatal("reopened session must be ready")
	}
}

// blockingDriver parks Grab until released, so a test can close the session
// while the open is still in flight.
type blockingDriver struct {
	release chan struct{}
	frame   []byte
}

func (d *blockingDriver) Grab(ctx context.Context) ([]byte, error) {
	<-d.release
	return d.frame, nil
}

func (d *blockingDriver) Close() error { return nil }

func (d *blockingDriver) Name() string { return "blocking" }

func TestSessionCloseDuringOpen(t *testing.T) {
	driver := &blockingDriver{release: make(chan struct{}), frame: encodeFrame(t, 16, 16)}
	session := NewSession(driver, 95)

	done := make(chan error, 1)
	go func() {
		done <- session.Open(context.Background())
	}()

	// Wait for the open to take the opening state, then pull it down.
	deadline := time.Now().Add(time.Second)
	for session.State() != Opening {
		if time.Now().After(deadline) {
			t.Fatal("session never entered the opening state")
		}
		time.Sleep(time.Millisecond)
	}
	session.Close()
	close(driver.release)

	err := <-done
	var devErr *DeviceError
	if !errors.As(err, &devErr) {
		t.Fatalf("open interrupted by close must fail with DeviceError, got %v", err)
	}
	if session.State() != Closed {
		t.Fatalf("expected closed after interrupted open, got %s", session.State())
	}
}
