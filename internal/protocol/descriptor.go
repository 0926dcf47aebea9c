// Package protocol implements the reverse-engineered command format spoken by
// ATK/VXE mice and their wireless receivers over a vendor-defined HID collection.
package protocol

import "fmt"

// headerLen is the number of fixed header bytes preceding the payload region:
// command id, status, EEPROM address (big-endian word) and valid data length.
const headerLen = 5

// Descriptor binds the layout constants of one command kind. Implementations
// are zero-sized marker types so that Command can be parameterized over the
// layout without carrying runtime state.
type Descriptor interface {
	// BaseOffset is the byte offset within the packet where the payload begins.
	BaseOffset() int

	// ReportID is the HID report id prefixed on the wire. It also seeds the
	// packet checksum.
	ReportID() byte

	// CmdLen is the total packet length in bytes, excluding the report id.
	CmdLen() int
}

// Standard describes the 16-byte command used by every ATK/VXE device observed
// so far. The values were captured from real receiver traffic.
type Standard struct{}

func (Standard) BaseOffset() int { return 0x05 }
func (Standard) ReportID() byte  { return 0x08 }
func (Standard) CmdLen() int     { return 0x10 }

// validateDescriptor rejects layouts that cannot hold the fixed header, the
// checksum byte, or place the payload past the end of the packet. A violation
// is a bug in a new command definition, so New panics instead of returning it.
func validateDescriptor(d Descriptor) error {
	switch {
	case d.BaseOffset() < headerLen:
		return fmt.Errorf("base offset 0x%x overlaps the %d-byte header", d.BaseOffset(), headerLen)
	case d.BaseOffset() >= d.CmdLen():
		return fmt.Errorf("base offset 0x%x is not inside a 0x%x-byte command", d.BaseOffset(), d.CmdLen())
	}
	return nil
}

// payloadCapacity is the number of payload bytes between the base offset and
// the trailing checksum byte.
func payloadCapacity(d Descriptor) int {
	return d.CmdLen() - d.BaseOffset() - 1
}
