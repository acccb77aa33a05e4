package camera

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DirDriver reads frames from a spool directory where an external process
// (a phone app, a cron job, another grabber) drops image files. Grab picks
// the newest image each time, so the spool behaves like a slow live feed.
type DirDriver struct {
	dir string
}

func NewDirDriver(dir string) (*DirDriver, error) {
	if dir == "" {
		return nil, errors.New("no frame directory configured")
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("frame directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("frame directory %s is not a directory", dir)
	}
	return &DirDriver{dir: dir}, nil
}

// Grab returns the contents of the newest image file in the directory.
func (d *DirDriver) Grab(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, err
	}

	var newest string
	var newestMod time.Time
	for _, entry := range entries {
		if entry.IsDir() || !isImageFile(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().After(newestMod) {
			newest = entry.Name()
			newestMod = info.ModTime()
		}
	}
	if newest == "" {
		return nil, fmt.Errorf("no image files in %s", d.dir)
	}

	return os.ReadFile(filepath.Join(d.dir, newest))
}

func (d *DirDriver) Close() error {
	return nil
}

func (d *DirDriver) Name() string {
	return "dir(" + d.dir + ")"
}

func isImageFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png":
		return true
	}
	return false
}
