package camera

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
)

// CaptureError is a local, non-retryable-without-recapture failure: the
// session was not ready or the encode step produced nothing. No network
// traffic is involved.
type CaptureError struct {
	Err error
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("frame capture failed: %v", e.Err)
}

func (e *CaptureError) Unwrap() error {
	return e.Err
}

// Capture samples the current video frame, renders it onto a pixel buffer
// at the stream's native dimensions and encodes it as JPEG. The returned
// bytes are immutable and owned by the caller; every retry needs a fresh
// Capture, frames are never reused.
func (s *Session) Capture(ctx context.Context) ([]byte, error) {
	if !s.Ready() {
		return nil, &CaptureError{Err: ErrNotReady}
	}

	raw, err := s.driver.Grab(ctx)
	if err != nil {
		return nil, &CaptureError{Err: err}
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, &CaptureError{Err: fmt.Errorf("could not decode frame: %w", err)}
	}

	width, height := s.Resolution()
	buf := image.NewRGBA(image.Rect(0, 0, width, height))
	if b := img.Bounds(); b.Dx() == width && b.Dy() == height {
		draw.Copy(buf, image.Point{}, img, b, draw.Src, nil)
	} else {
		// Stream resolution changed mid-session; scale onto the fixed buffer.
		draw.CatmullRom.Scale(buf, buf.Bounds(), img, b, draw.Src, nil)
	}

	var out bytes.Buffer
	if err := jpeg.Encode(&out, buf, &jpeg.Options{Quality: s.quality}); err != nil {
		return nil, &CaptureError{Err: fmt.Errorf("could not encode frame: %w", err)}
	}
	if out.Len() == 0 {
		return nil, &CaptureError{Err: errors.New("encode produced no data")}
	}

	return out.Bytes(), nil
}

// CaptureBurst captures count consecutive frames for liveness checking.
// Each frame is a fresh capture; a failure mid-burst aborts the whole burst.
// The optional progress callback is invoked after each captured frame.
func (s *Session) CaptureBurst(ctx context.Context, count int, progress func(i int)) ([][]byte, error) {
	if count < 1 {
		return nil, &CaptureError{Err: fmt.Errorf("invalid burst size %d", count)}
	}

	frames := make([][]byte, 0, count)
	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			return nil, &CaptureError{Err: err}
		}
		frame, err := s.Capture(ctx)
		if err != nil {
			return nil, err
		}
		frames = append(frames, frame)
		if progress != nil {
			progress(i)
		}
	}
	return frames, nil
}
