package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

type Config struct {
	API     APIConfig
	Camera  CameraConfig
	Session SessionConfig
	Server  ServerConfig
}

type APIConfig struct {
	URL     string        // base URL of the attendance service (e.g. http://localhost:5000)
	Timeout time.Duration // per-request bound for recognition submissions
}

type CameraConfig struct {
	Driver  string // "command" (default) or "dir"
	Command string // frame grabber binary for the command driver (defaults to ffmpeg)
	Device  string // device path passed to the grabber (e.g. /dev/video0)
	Dir     string // spool directory for the dir driver
	Width   int    // target capture width
	Height  int    // target capture height
	Quality int    // JPEG encode quality for captured frames
}

type SessionConfig struct {
	Path string // session file location, defaults to ~/.config/attendance/session.json
}

type ServerConfig struct {
	JWTSecret    string // signing key for the stub recognition server
	TokenTTL     time.Duration
	Threshold    float64 // match confidence threshold (percent)
	GalleryPath  string  // optional gob snapshot of the enrolled gallery
	MaxImageSize int64   // request body limit for image uploads
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envDuration reads an environment variable as a time.Duration.
func envDuration(key string, defaultVal time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return defaultVal
}

// envString reads an environment variable with a fallback.
func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

// defaultSessionPath resolves the session file location under the user
// config directory. Falls back to the working directory when the config
// directory cannot be determined.
func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "attendance-session.json"
	}
	return filepath.Join(dir, "attendance", "session.json")
}

func Load() *Config {
	return &Config{
		API: APIConfig{
			URL:     envString("ATTENDANCE_API_URL", "http://localhost:5000"),
			Timeout: envDuration("ATTENDANCE_API_TIMEOUT", 30*time.Second),
		},
		Camera: CameraConfig{
			Driver:  envString("ATTENDANCE_CAMERA_DRIVER", "command"),
			Command: envString("ATTENDANCE_CAMERA_COMMAND", "ffmpeg"),
			Device:  envString("ATTENDANCE_CAMERA_DEVICE", "/dev/video0"),
			Dir:     os.Getenv("ATTENDANCE_CAMERA_DIR"),
			Width:   envInt("ATTENDANCE_CAMERA_WIDTH", 640),
			Height:  envInt("ATTENDANCE_CAMERA_HEIGHT", 480),
			Quality: envInt("ATTENDANCE_CAMERA_QUALITY", 95),
		},
		Session: SessionConfig{
			Path: envString("ATTENDANCE_SESSION_FILE", defaultSessionPath()),
		},
		Server: ServerConfig{
			JWTSecret:    envString("ATTENDANCE_JWT_SECRET", "attendance-dev-secret-change-in-production"),
			TokenTTL:     envDuration("ATTENDANCE_TOKEN_TTL", time.Hour),
			Threshold:    60,
			GalleryPath:  os.Getenv("ATTENDANCE_GALLERY_SNAPSHOT"),
			MaxImageSize: 2 << 20, // matches the service's 2MB upload limit
		},
	}
}
