package protocol

import (
	"errors"
	"fmt"
)

// ErrOutOfBounds is returned when a payload write does not fit the region
// between the base offset and the checksum byte. The command is left
// untouched.
var ErrOutOfBounds = errors.New("protocol: payload write out of bounds")

// ErrMalformedPacket marks decode failures on received frames. LengthError
// and ChecksumError wrap it so callers can match the broad class with
// errors.Is and still inspect the specifics with errors.As.
var ErrMalformedPacket = errors.New("protocol: malformed packet")

// ErrOffsetNotAligned is returned by SetDataByteWithChecksum for odd offsets;
// the device stores checked values as (value, complement) byte pairs.
var ErrOffsetNotAligned = errors.New("protocol: offset not aligned to a byte pair")

// ErrDataTooLarge is returned when a valid data length exceeds the payload
// capacity of the descriptor.
var ErrDataTooLarge = errors.New("protocol: data length exceeds payload capacity")

// LengthError reports a received frame whose size does not match the
// descriptor's command length, or a declared valid length that cannot fit.
type LengthError struct {
	Expected int
	Actual   int
}

func (e *LengthError) Error() string {
	return fmt.Sprintf("invalid packet length: expected %d, got %d", e.Expected, e.Actual)
}

func (e *LengthError) Unwrap() error { return ErrMalformedPacket }

// ChecksumError reports a received frame whose trailing checksum does not
// match the checksum recomputed over the received bytes.
type ChecksumError struct {
	Expected byte
	Actual   byte
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("checksum mismatch: expected 0x%02x, got 0x%02x", e.Expected, e.Actual)
}

func (e *ChecksumError) Unwrap() error { return ErrMalformedPacket }

// UnknownCommandIDError reports a wire byte that maps to no known command id.
type UnknownCommandIDError byte

func (e UnknownCommandIDError) Error() string {
	return fmt.Sprintf("unknown command id 0x%02x", byte(e))
}

func (e UnknownCommandIDError) Unwrap() error { return ErrMalformedPacket }

// UnknownEEPROMAddressError reports a wire word that maps to no known EEPROM
// address.
type UnknownEEPROMAddressError uint16

func (e UnknownEEPROMAddressError) Error() string {
	return fmt.Sprintf("unknown EEPROM address 0x%04x", uint16(e))
}

func (e UnknownEEPROMAddressError) Unwrap() error { return ErrMalformedPacket }
