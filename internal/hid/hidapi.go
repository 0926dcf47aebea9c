package hid

import (
	"fmt"
	"time"

	hidapi "github.com/sstallion/go-hid"
)

// Init initializes the underlying hidapi library. It must be called once
// before any enumeration or open.
func Init() error {
	return hidapi.Init()
}

// Exit releases the hidapi library.
func Exit() error {
	return hidapi.Exit()
}

// HIDAPIDevice wraps an sstallion/go-hid device to implement the Device
// interface.
type HIDAPIDevice struct {
	device *hidapi.Device
	info   DeviceInfo
}

// Verify HIDAPIDevice implements Device interface.
var _ Device = (*HIDAPIDevice)(nil)

// Write sends one report to the device.
func (d *HIDAPIDevice) Write(p []byte) (int, error) {
	return d.device.Write(p)
}

// ReadWithTimeout reads one report from the device with a bounded wait.
func (d *HIDAPIDevice) ReadWithTimeout(p []byte, timeout time.Duration) (int, error) {
	return d.device.ReadWithTimeout(p, timeout)
}

// Close closes the device handle.
func (d *HIDAPIDevice) Close() error {
	return d.device.Close()
}

// Info returns information about the device.
func (d *HIDAPIDevice) Info() DeviceInfo {
	return d.info
}

// Enumerate lists HID interfaces matching the given vendor, product and usage
// ids. Mice expose their configuration reports on a vendor-defined usage
// collection, so the usage filter is what separates the control interface
// from the boot mouse interface on the same device.
func Enumerate(vendorID, productID, usagePage, usage uint16) ([]DeviceInfo, error) {
	var infos []DeviceInfo

	err := hidapi.Enumerate(vendorID, productID, func(info *hidapi.DeviceInfo) error {
		if info.UsagePage != usagePage || info.Usage != usage {
			return nil
		}
		infos = append(infos, DeviceInfo{
			Path:         info.Path,
			VendorID:     info.VendorID,
			ProductID:    info.ProductID,
			Serial:       info.SerialNbr,
			Manufacturer: info.MfrStr,
			Product:      info.ProductStr,
			UsagePage:    info.UsagePage,
			Usage:        info.Usage,
			Interface:    info.InterfaceNbr,
		})
		return nil
	})
	// hidapi reports an empty device list as an error; treat it as no matches.
	if err != nil && len(infos) == 0 {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate HID devices: %w", err)
	}
	return infos, nil
}

// OpenInfo opens the interface described by a previous enumeration.
func OpenInfo(info DeviceInfo) (*HIDAPIDevice, error) {
	device, err := hidapi.OpenPath(info.Path)
	if err != nil {
		return nil, &OpenError{Path: info.Path, Err: err}
	}
	return &HIDAPIDevice{device: device, info: info}, nil
}

// Open opens the first HID interface matching the given vendor, product and
// usage ids. It returns ErrDeviceNotFound when nothing matches and OpenError
// when a matching interface cannot be opened.
func Open(vendorID, productID, usagePage, usage uint16) (*HIDAPIDevice, error) {
	infos, err := Enumerate(vendorID, productID, usagePage, usage)
	if err != nil {
		return nil, err
	}
	if len(infos) == 0 {
		return nil, fmt.Errorf("%w: vendor=0x%04x product=0x%04x usage_page=0x%04x usage=0x%04x",
			ErrDeviceNotFound, vendorID, productID, usagePage, usage)
	}
	return OpenInfo(infos[0])
}
