package camera

import (
	"fmt"

	"github.com/Gani505-dotcom/Smart-Attendance-Verification-System/internal/config"
)

// NewDriver picks the frame source configured in cfg.
func NewDriver(cfg config.CameraConfig) (Driver, error) {
	switch cfg.Driver {
	case "command", "":
		return NewCommandDriver(cfg.Command, cfg.Device, cfg.Width, cfg.Height)
	case "dir":
		return NewDirDriver(cfg.Dir)
	default:
		return nil, fmt.Errorf("unknown camera driver %q", cfg.Driver)
	}
}
