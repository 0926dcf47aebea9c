package protocol

import (
	"encoding/binary"
	"fmt"
)

// complementBase is the constant the firmware subtracts values from, both for
// the packet checksum and for the per-setting complement bytes in EEPROM.
const complementBase = 0x55

/*
Command is a single fixed-length packet exchanged with the device, generic
over the Descriptor that pins its layout:

	┌────────────┬────────┬────────────────┬──────────────┬─────────┬──────────┐
	│ Command ID │ Status │ EEPROM Address │ Valid Length │ Payload │ Checksum │
	│   1 byte   │ 1 byte │  2 bytes (BE)  │    1 byte    │  ...    │  1 byte  │
	└────────────┴────────┴────────────────┴──────────────┴─────────┴──────────┘

The payload starts at the descriptor's base offset; any gap between the header
and the base offset stays zero on the wire. The checksum occupies the last
byte and is recomputed on every Encode, never set directly.
*/
type Command[D Descriptor] struct {
	desc    D
	id      CommandID
	status  byte
	address EEPROMAddress
	dataLen int
	data    []byte
}

// New returns an all-zero command bound to the descriptor D. It panics when D
// violates the descriptor invariants, since that is a bug in a command
// definition rather than a recoverable condition.
func New[D Descriptor]() *Command[D] {
	var d D
	if err := validateDescriptor(d); err != nil {
		panic(fmt.Sprintf("protocol: invalid descriptor %T: %v", d, err))
	}
	return &Command[D]{
		desc: d,
		data: make([]byte, payloadCapacity(d)),
	}
}

// ID returns the command identifier.
func (c *Command[D]) ID() CommandID { return c.id }

// SetID sets the command identifier.
func (c *Command[D]) SetID(id CommandID) { c.id = id }

// Status returns the status byte. On responses it carries the device's result
// code for the request.
func (c *Command[D]) Status() byte { return c.status }

// SetStatus sets the status byte.
func (c *Command[D]) SetStatus(status byte) { c.status = status }

// Address returns the EEPROM address the command targets.
func (c *Command[D]) Address() EEPROMAddress { return c.address }

// SetAddress sets the EEPROM address the command targets.
func (c *Command[D]) SetAddress(addr EEPROMAddress) { c.address = addr }

// Data returns a read-only view of the payload region. Callers must not
// retain it across mutations.
func (c *Command[D]) Data() []byte { return c.data }

// DataLen returns the declared valid length of the payload. It bounds how
// many payload bytes carry meaning, not the fixed packet size.
func (c *Command[D]) DataLen() int { return c.dataLen }

// SetDataLen declares how many payload bytes are valid. For reads this is the
// number of bytes requested from the device.
func (c *Command[D]) SetDataLen(n int) error {
	if n < 0 || n > payloadCapacity(c.desc) {
		return fmt.Errorf("%w: %d > %d", ErrDataTooLarge, n, payloadCapacity(c.desc))
	}
	c.dataLen = n
	return nil
}

// SetData copies p into the payload region starting at offset (relative to
// the base offset). Bytes outside [offset, offset+len(p)) keep their previous
// value. A write that does not fit fails with ErrOutOfBounds and leaves the
// payload untouched. The valid length grows to cover the written range.
func (c *Command[D]) SetData(p []byte, offset int) error {
	if offset < 0 || offset+len(p) > len(c.data) {
		return fmt.Errorf("%w: %d bytes at offset %d, capacity %d",
			ErrOutOfBounds, len(p), offset, len(c.data))
	}
	copy(c.data[offset:], p)
	if offset+len(p) > c.dataLen {
		c.dataLen = offset + len(p)
	}
	return nil
}

// SetDataByte writes a single payload byte at offset.
func (c *Command[D]) SetDataByte(value byte, offset int) error {
	return c.SetData([]byte{value}, offset)
}

// SetDataByteWithChecksum writes value at an even offset and its complement
// (0x55 - value) at the following byte, the layout the firmware expects for
// checked EEPROM settings. Odd offsets fail with ErrOffsetNotAligned.
func (c *Command[D]) SetDataByteWithChecksum(value byte, offset int) error {
	if offset%2 != 0 {
		return fmt.Errorf("%w: %d", ErrOffsetNotAligned, offset)
	}
	return c.SetData([]byte{value, complementBase - value}, offset)
}

// Checksum computes the integrity byte the command would carry on the wire in
// its current state.
func (c *Command[D]) Checksum() byte {
	raw := c.Encode()
	return raw[len(raw)-1]
}

// Encode serializes the command into exactly CmdLen bytes, laying out the
// header at fixed offsets, the payload at the base offset, and computing the
// checksum last.
func (c *Command[D]) Encode() []byte {
	raw := make([]byte, c.desc.CmdLen())
	raw[0] = byte(c.id)
	raw[1] = c.status
	binary.BigEndian.PutUint16(raw[2:4], uint16(c.address))
	raw[4] = byte(c.dataLen)
	copy(raw[c.desc.BaseOffset():len(raw)-1], c.data)
	raw[len(raw)-1] = Checksum(c.desc.ReportID(), raw[:len(raw)-1])
	return raw
}

// Decode parses a received frame into a fresh command bound to D. It fails
// with a MalformedPacket error on length or checksum mismatch and with an
// unknown-code error when the id or address bytes map to no known variant.
func Decode[D Descriptor](raw []byte) (*Command[D], error) {
	c := New[D]()
	d := c.desc

	if len(raw) != d.CmdLen() {
		return nil, &LengthError{Expected: d.CmdLen(), Actual: len(raw)}
	}

	want := Checksum(d.ReportID(), raw[:len(raw)-1])
	if got := raw[len(raw)-1]; got != want {
		return nil, &ChecksumError{Expected: want, Actual: got}
	}

	id, err := ParseCommandID(raw[0])
	if err != nil {
		return nil, err
	}

	addr, err := ParseEEPROMAddress(binary.BigEndian.Uint16(raw[2:4]))
	if err != nil {
		return nil, err
	}

	dataLen := int(raw[4])
	if dataLen > payloadCapacity(d) {
		return nil, &LengthError{Expected: payloadCapacity(d), Actual: dataLen}
	}

	c.id = id
	c.status = raw[1]
	c.address = addr
	c.dataLen = dataLen
	copy(c.data, raw[d.BaseOffset():len(raw)-1])
	return c, nil
}

// String renders the command for logs and debugging. The format is not part
// of the protocol contract.
func (c *Command[D]) String() string {
	return fmt.Sprintf("id=%s status=0x%02x addr=%s len=%d data=%x",
		c.id, c.status, c.address, c.dataLen, c.data[:c.dataLen])
}
