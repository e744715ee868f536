// Package capture loads configuration space dumps from the
// filesystem: files saved from lspci or similar tools, or the live
// per-device config attributes sysfs exposes under
// /sys/bus/pci/devices.
package capture

import (
	"fmt"

	"github.com/pcikit/pcikit"
	"github.com/pcikit/pcikit/internal/mmfile"
)

// Capture is an open configuration space dump. Close releases the
// underlying mapping; decoded values must not be used after that.
type Capture struct {
	path    string
	cs      *pcikit.ConfigSpace
	cleanup func() error
}

// Open maps the file at path and wraps it as a configuration space.
//
// Example:
//
//	cc, err := capture.Open("/sys/bus/pci/devices/0000:00:1f.2/config")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer cc.Close()
//	h := cc.ConfigSpace().Header()
func Open(path string) (*Capture, error) {
	data, cleanup, err := mmfile.Map(path)
	if err != nil {
		return nil, fmt.Errorf("capture: open %s: %w", path, err)
	}
	cs, err := pcikit.New(data)
	if err != nil {
		if cleanup != nil {
			cleanup()
		}
		return nil, fmt.Errorf("capture: %s: %w", path, err)
	}
	return &Capture{path: path, cs: cs, cleanup: cleanup}, nil
}

// ConfigSpace returns the decoded configuration space.
func (c *Capture) ConfigSpace() *pcikit.ConfigSpace { return c.cs }

// Path returns the file the capture was opened from.
func (c *Capture) Path() string { return c.path }

// Close releases the mapping. It is safe to call more than once.
func (c *Capture) Close() error {
	if c.cleanup == nil {
		return nil
	}
	cleanup := c.cleanup
	c.cleanup = nil
	return cleanup()
}
