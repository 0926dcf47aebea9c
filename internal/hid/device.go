// Package hid abstracts the HID transport used to reach ATK/VXE mice. The
// protocol layer only ever needs to open a matching interface, write a
// report, read one back within a deadline, and close the handle.
package hid

import (
	"errors"
	"fmt"
	"time"
)

//go:generate mockgen -source=device.go -destination=mocks/device_mock.go -package=mocks

// ErrDeviceNotFound is returned by Open when no HID interface matches the
// requested vendor, product and usage ids.
var ErrDeviceNotFound = errors.New("no matching HID device found")

// OpenError reports an OS-level failure while opening an interface that does
// exist.
type OpenError struct {
	Path string
	Err  error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("failed to open HID device %s: %v", e.Path, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

// DeviceInfo describes one enumerated HID interface.
type DeviceInfo struct {
	Path         string
	VendorID     uint16
	ProductID    uint16
	Serial       string
	Manufacturer string
	Product      string
	UsagePage    uint16
	Usage        uint16
	Interface    int
}

// Device represents an open HID handle. The interface is deliberately narrow
// so device interactions can be mocked in tests.
type Device interface {
	// Write sends one report to the device. The first byte is the report id.
	Write(p []byte) (int, error)

	// ReadWithTimeout reads one report from the device, waiting at most
	// timeout. A return of (0, nil) means the timeout expired.
	ReadWithTimeout(p []byte, timeout time.Duration) (int, error)

	// Close closes the device handle.
	Close() error

	// Info returns information about the device.
	Info() DeviceInfo
}
