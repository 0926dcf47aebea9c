// Package mouse drives ATK/VXE mice over their vendor HID interface: framing
// protocol commands into reports, the request/response exchange, and the
// queries the daemon exposes (battery, report rate, link state).
package mouse

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/atk-tools/atkd/internal/hid"
	"github.com/atk-tools/atkd/internal/protocol"
)

// DefaultReadTimeout bounds how long a response read may block. Receivers
// answer within a few milliseconds; anything longer means the report was
// swallowed.
const DefaultReadTimeout = 500 * time.Millisecond

// ErrMouseClosed is returned when an operation is attempted on a closed mouse.
var ErrMouseClosed = errors.New("mouse is closed")

// ErrReadTimeout is returned (wrapped in a ReadError) when no response report
// arrives within the read timeout. The response stream position is then
// indeterminate; callers should issue a fresh read before the next command.
var ErrReadTimeout = errors.New("timed out waiting for response report")

// ErrUnexpectedResponse is returned by Exchange when the response carries a
// different command id than the request.
var ErrUnexpectedResponse = errors.New("unexpected response command")

// WriteError reports a transport failure while sending a command, including
// short writes.
type WriteError struct {
	Err error
}

func (e *WriteError) Error() string { return fmt.Sprintf("failed to write report: %v", e.Err) }
func (e *WriteError) Unwrap() error { return e.Err }

// ReadError reports a transport failure or timeout while reading a response.
type ReadError struct {
	Err error
}

func (e *ReadError) Error() string { return fmt.Sprintf("failed to read report: %v", e.Err) }
func (e *ReadError) Unwrap() error { return e.Err }

// IsDeviceGoneError reports whether err indicates the device was unplugged or
// otherwise stopped answering, as opposed to a protocol or argument problem.
// A read timeout does not count: a sleeping wireless mouse also produces one.
func IsDeviceGoneError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, syscall.ENODEV) || errors.Is(err, syscall.ENXIO) || errors.Is(err, syscall.EIO) {
		return true
	}

	// hidapi often surfaces disconnects as plain error strings.
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "no such device") || strings.Contains(msg, "device disconnected")
}

// Mouse owns one open HID handle for one physical device. Methods serialize
// on an internal mutex; the protocol has no multiplexing, so there is never
// more than one request in flight per mouse.
type Mouse struct {
	device      hid.Device
	mu          sync.Mutex
	closed      bool
	readTimeout time.Duration
}

// NewMouse wraps an open HID device.
func NewMouse(device hid.Device) *Mouse {
	return &Mouse{device: device, readTimeout: DefaultReadTimeout}
}

// Open finds and opens the vendor interface of a mouse matching the given
// ids. It fails with hid.ErrDeviceNotFound when nothing matches and
// hid.OpenError on an OS-level open failure.
func Open(vendorID, productID, usagePage, usage uint16) (*Mouse, error) {
	device, err := hid.Open(vendorID, productID, usagePage, usage)
	if err != nil {
		return nil, err
	}
	return NewMouse(device), nil
}

// SetReadTimeout overrides the response read deadline.
func (m *Mouse) SetReadTimeout(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readTimeout = d
}

// Serial returns the serial number of the mouse.
func (m *Mouse) Serial() string {
	return m.device.Info().Serial
}

// ProductName returns the product name of the mouse.
func (m *Mouse) ProductName() string {
	return m.device.Info().Product
}

// Info returns the enumeration record of the underlying interface.
func (m *Mouse) Info() hid.DeviceInfo {
	return m.device.Info()
}

// Close closes the underlying HID handle. Closing twice is a no-op.
func (m *Mouse) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	return m.device.Close()
}

// Send frames the command with its descriptor's report id and writes it to
// the device. Go methods cannot introduce type parameters, so Send, Read and
// Exchange are package functions over the command's descriptor.
func Send[D protocol.Descriptor](m *Mouse, cmd *protocol.Command[D]) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return sendLocked(m, cmd)
}

// Read reads one response report with a bounded timeout and decodes it into a
// fresh command bound to D.
func Read[D protocol.Descriptor](m *Mouse) (*protocol.Command[D], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return readLocked[D](m)
}

// Exchange sends a command and reads its response, holding the device for the
// whole round trip. The response must echo the request's command id.
func Exchange[D protocol.Descriptor](m *Mouse, cmd *protocol.Command[D]) (*protocol.Command[D], error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := sendLocked(m, cmd); err != nil {
		return nil, err
	}
	resp, err := readLocked[D](m)
	if err != nil {
		return nil, err
	}
	if resp.ID() != cmd.ID() {
		return nil, fmt.Errorf("%w: sent %s, received %s", ErrUnexpectedResponse, cmd.ID(), resp.ID())
	}
	return resp, nil
}

func sendLocked[D protocol.Descriptor](m *Mouse, cmd *protocol.Command[D]) error {
	if m.closed {
		return ErrMouseClosed
	}

	var d D
	packet := cmd.Encode()
	frame := make([]byte, 0, len(packet)+1)
	frame = append(frame, d.ReportID())
	frame = append(frame, packet...)

	n, err := m.device.Write(frame)
	if err != nil {
		return &WriteError{Err: err}
	}
	if n != len(frame) {
		return &WriteError{Err: fmt.Errorf("short write: %d of %d bytes", n, len(frame))}
	}

	log.Debug().
		Str("serial", m.device.Info().Serial).
		Stringer("command", cmd).
		Hex("frame", frame).
		Msg("Sent report")
	return nil
}

func readLocked[D protocol.Descriptor](m *Mouse) (*protocol.Command[D], error) {
	if m.closed {
		return nil, ErrMouseClosed
	}

	var d D
	buf := make([]byte, d.CmdLen()+1)
	n, err := m.device.ReadWithTimeout(buf, m.readTimeout)
	if err != nil {
		return nil, &ReadError{Err: err}
	}
	if n == 0 {
		return nil, &ReadError{Err: ErrReadTimeout}
	}

	raw := buf[:n]
	// Responses arrive with the report id as their first byte; strip it so
	// the decoder sees only the packet.
	if n == d.CmdLen()+1 && raw[0] == d.ReportID() {
		raw = raw[1:]
	}

	cmd, err := protocol.Decode[D](raw)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("serial", m.device.Info().Serial).
		Stringer("command", cmd).
		Msg("Received report")
	return cmd, nil
}
