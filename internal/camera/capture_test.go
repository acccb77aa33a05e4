package camera

import (
	"bytes"
	"context"
	"errors"
	"image"
	"testing"
)

func openSession(t *testing.T, driver Driver) *Session {
	t.Helper()
	session := NewSession(driver, 90)
	if err := session.Open(context.Background()); err != nil {
		t.Fatalf("open failed: %v", err)
	}
	t.Cleanup(session.Close)
	return session
}

func TestCaptureBeforeReady(t *testing.T) {
	driver := &fakeDriver{frames: [][]byte{encodeFrame(t, 32, 32)}}
	session := NewSession(driver, 90)

	_, err := session.Capture(context.Background())
	var capErr *CaptureError
	if !errors.As(err, &capErr) {
		t.Fatalf("expected CaptureError, got %v", err)
	}
	if !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady in the chain, got %v", err)
	}
	if driver.grabs != 0 {
		t.Fatalf("capture before ready must not touch the device, got %d grabs", driver.grabs)
	}
}

func TestCaptureEncodesJPEG(t *testing.T) {
	driver := &fakeDriver{frames: [][]byte{encodeFrame(t, 64, 48)}}
	session := openSession(t, driver)

	frame, err := session.Capture(context.Background())
	if err != nil {
		t.Fatalf("capture failed: %v", err)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(frame))
	if err != nil {
		t.Fatalf("captured frame does not decode: %v", err)
	}
	if format != "jpeg" {
		t.Fatalf("expected jpeg output, got %s", format)
	}
	if cfg.Width != 64 || cfg.Height != 48 {
		t.Fatalf("expected 64x48 output, got %dx%d", cfg.Width, cfg.Height)
	}
}

func TestCaptureScalesChangedStream(t *testing.T) {
	// Session opens at 64x48, then the stream starts delivering 128x96.
	driver := &fakeDriver{frames: [][]byte{encodeFrame(t, 64, 48), encodeFrame(t, 128, 96)}}
	session := openSession(t, driver)

	frame, err := session.Capture(context.Background())
	if err != nil {
		t.Fatalf("capture failed: %v", err)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(frame))
	if err != nil {
		t.Fatalf("captured frame does not decode: %v", err)
	}
	if cfg.Width != 64 || cfg.Height != 48 {
		t.Fatalf("output must keep session resolution 64x48, got %dx%d", cfg.Width, cfg.Height)
	}
}

func TestCaptureDeviceFailure(t *testing.T) {
	driver := &fakeDriver{frames: [][]byte{encodeFrame(t, 32, 32)}}
	session := openSession(t, driver)

	driver.err = errors.New("frame dropped")
	_, err := session.Capture(context.Background())
	var capErr *CaptureError
	if !errors.As(err, &capErr) {
		t.Fatalf("expected CaptureError, got %v", err)
	}
}

func TestCaptureBurst(t *testing.T) {
	frame := encodeFrame(t, 32, 32)
	driver := &fakeDriver{frames: [][]byte{frame}}
	session := openSession(t, driver)

	var ticks []int
	frames, err := session.CaptureBurst(context.Background(), 5, func(i int) {
		ticks = append(ticks, i)
	})
	if err != nil {
		t.Fatalf("burst failed: %v", err)
	}
	if len(frames) != 5 {
		t.Fatalf("expected 5 frames, got %d", len(frames))
	}
	if len(ticks) != 5 || ticks[0] != 0 || ticks[4] != 4 {
		t.Fatalf("unexpected progress ticks: %v", ticks)
	}
	for i, f := range frames {
		if len(f) == 0 {
			t.Fatalf("frame %d is empty", i)
		}
	}
	// Open grabbed once, each burst frame grabs fresh.
	if driver.grabs != 6 {
		t.Fatalf("expected 6 grabs, got %d", driver.grabs)
	}
}

func TestCaptureBurstCancelled(t *testing.T) {
	driver := &fakeDriver{frames: [][]byte{encodeFrame(t, 32, 32)}}
	session := openSession(t, driver)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := session.CaptureBurst(ctx, 3, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
}

func TestCaptureBurstInvalidCount(t *testing.T) {
	driver := &fakeDriver{frames: [][]byte{encodeFrame(t, 32, 32)}}
	session := openSession(t, driver)

	if _, err := session.CaptureBurst(context.Background(), 0, nil); err == nil {
		t.Fatal("expected error for zero burst size")
	}
}
