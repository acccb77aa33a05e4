package camera

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// CommandDriver grabs frames by shelling out to a system frame grabber.
// This is the portable way for a CLI to reach V4L2/AVFoundation devices
// without cgo; ffmpeg and fswebcam are supported out of the box.
type CommandDriver struct {
	command string
	device  string
	width   int
	height  int
}

// NewCommandDriver builds a driver for the given grabber binary and device.
func NewCommandDriver(command, device string, width, height int) (*CommandDriver, error) {
	if command == "" {
		return nil, errors.New("no frame grabber command configured")
	}
	if _, err := exec.LookPath(command); err != nil {
		return nil, fmt.Errorf("frame grabber %q not found: %w", command, err)
	}
	return &CommandDriver{command: command, device: device, width: width, height: height}, nil
}

// Grab runs the grabber for a single frame written to stdout.
func (d *CommandDriver) Grab(ctx context.Context) ([]byte, error) {
	args := d.args()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, d.command, args...) //nolint:gosec // command and device come from local configuration
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			return nil, fmt.Errorf("%s failed: %s", d.command, lastLine(detail))
		}
		return nil, fmt.Errorf("%s failed: %w", d.command, err)
	}

	if stdout.Len() == 0 {
		return nil, errors.New("grabber produced no frame data")
	}
	return stdout.Bytes(), nil
}

// Close is a no-op: the grabber holds the device only for the duration of
// one Grab call.
func (d *CommandDriver) Close() error {
	return nil
}

func (d *CommandDriver) Name() string {
	return fmt.Sprintf("%s(%s)", filepath.Base(d.command), d.device)
}

// args builds the grabber invocation for a single-frame JPEG on stdout.
func (d *CommandDriver) args() []string {
	size := fmt.Sprintf("%dx%d", d.width, d.height)
	switch filepath.Base(d.command) {
	case "fswebcam":
		return []string{"-d", d.device, "-r", size, "--no-banner", "--jpeg", "95", "-"}
	default: // ffmpeg-compatible
		return []string{
			"-hide_banner", "-loglevel", "error",
			"-f", "v4l2", "-video_size", size,
			"-i", d.device,
			"-frames:v", "1",
			"-f", "image2", "-",
		}
	}
}

// lastLine returns the final non-empty line of grabber stderr, which is
// where both ffmpeg and fswebcam put the actual failure reason.
func lastLine(s string) string {
	lines := strings.Split(s, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return s
}
