// SPDX-License-Identifier: GPL-3.0-only

// Package dbus provides the D-Bus service exposing connected ATK and VXE mice.
package dbus

import (
	"errors"
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/atk-tools/atkd/internal/hid"
	"github.com/atk-tools/atkd/internal/mouse"
)

// ErrEmptySerial is returned when an empty serial number is provided.
var ErrEmptySerial = errors.New("serial cannot be empty")

// ErrRateLimitExceeded is returned when configuration writes exceed the rate
// limit. Every settings change burns an EEPROM write cycle.
var ErrRateLimitExceeded = errors.New("rate limit exceeded")

const (
	// rateLimitPerSecond is the maximum number of settings writes per second.
	rateLimitPerSecond = 2

	// rateLimitBurst is the maximum burst size for settings writes.
	rateLimitBurst = 2
)

const (
	// ServiceName is the D-Bus service name.
	ServiceName = "io.github.atktools.AtkMouse"

	// ObjectPath is the D-Bus object path.
	ObjectPath = "/io/github/atktools/AtkMouse"

	// InterfaceName is the D-Bus interface name.
	InterfaceName = "io.github.atktools.AtkMouse"
)

// IntrospectXML is the D-Bus introspection XML for the service.
const IntrospectXML = `
<node name="` + ObjectPath + `">
  <interface name="` + InterfaceName + `">
    <method name="ListMice">
      <arg name="mice" type="a(ss)" direction="out"/>
    </method>
    <method name="GetBattery">
      <arg name="serial" type="s" direction="in"/>
      <arg name="level" type="u" direction="out"/>
      <arg name="charging" type="b" direction="out"/>
    </method>
    <method name="GetOnline">
      <arg name="serial" type="s" direction="in"/>
      <arg name="online" type="b" direction="out"/>
    </method>
    <method name="GetFirmwareVersion">
      <arg name="serial" type="s" direction="in"/>
      <arg name="version" type="s" direction="out"/>
    </method>
    <method name="GetReportRate">
      <arg name="serial" type="s" direction="in"/>
      <arg name="rate" type="u" direction="out"/>
    </method>
    <method name="SetReportRate">
      <arg name="serial" type="s" direction="in"/>
      <arg name="rate" type="u" direction="in"/>
    </method>
    <signal name="MouseAdded">
      <arg name="serial" type="s"/>
      <arg name="productName" type="s"/>
    </signal>
    <signal name="MouseRemoved">
      <arg name="serial" type="s"/>
    </signal>
    <signal name="BatteryChanged">
      <arg name="serial" type="s"/>
      <arg name="level" type="u"/>
      <arg name="charging" type="b"/>
    </signal>
  </interface>
  ` + introspect.IntrospectDataString + `
</node>
`

// MouseManager is an interface for managing mice.
// This allows for mocking in tests.
type MouseManager interface {
	// ListMice returns information about all connected mice.
	ListMice() []hid.DeviceInfo

	// GetMouse returns a mouse by serial number.
	GetMouse(serial string) (*mouse.Mouse, error)

	// RefreshMice re-enumerates connected mice.
	RefreshMice() error
}

// DeviceErrorHandler is called when a transport error (e.g., receiver
// unplugged) is detected. This allows the caller to trigger recovery actions
// like re-enumerating mice.
type DeviceErrorHandler func(serial string, err error)

// MouseInfo represents mouse information returned via D-Bus.
// Serializes to D-Bus type (ss) - a struct containing serial and product name.
type MouseInfo struct {
	Serial      string
	ProductName string
}

// Server implements the D-Bus service for mouse control.
//
// Thread safety:
//   - The underlying Manager and Mouse types are individually thread-safe.
//   - The connMu mutex protects the D-Bus connection field for signal emission.
//   - The handlerMu mutex protects the deviceErrorHandler field.
type Server struct {
	conn               *dbus.Conn
	connMu             sync.RWMutex // Protects conn field only
	manager            MouseManager
	rateLimiter        *rate.Limiter
	handlerMu          sync.RWMutex // Protects deviceErrorHandler
	deviceErrorHandler DeviceErrorHandler
}

// NewServer creates a new D-Bus server with the given mouse manager.
func NewServer(manager MouseManager) *Server {
	return &Server{
		manager:     manager,
		rateLimiter: rate.NewLimiter(rateLimitPerSecond, rateLimitBurst),
	}
}

// Start connects to the session bus and exports the service.
func (s *Server) Start() error {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}

	// Ensure connection is closed if setup fails
	success := false
	defer func() {
		if !success {
			if closeErr := conn.Close(); closeErr != nil {
				log.Error().Err(closeErr).Msg("Failed to close D-Bus connection during cleanup")
			}
		}
	}()

	// Export the server object
	err = conn.Export(s, ObjectPath, InterfaceName)
	if err != nil {
		return fmt.Errorf("failed to export server: %w", err)
	}

	// Export introspectable interface
	err = conn.Export(introspect.Introspectable(IntrospectXML), ObjectPath, "org.freedesktop.DBus.Introspectable")
	if err != nil {
		return fmt.Errorf("failed to export introspectable: %w", err)
	}

	// Request the service name
	reply, err := conn.RequestName(ServiceName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("failed to request name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("name %s already taken", ServiceName)
	}

	// Store connection with mutex protection
	s.connMu.Lock()
	s.conn = conn
	s.connMu.Unlock()

	success = true
	log.Info().Str("service", ServiceName).Msg("D-Bus service started")
	return nil
}

// Stop disconnects from the session bus.
func (s *Server) Stop() error {
	s.connMu.Lock()
	conn := s.conn
	s.conn = nil
	s.connMu.Unlock()

	if conn != nil {
		return conn.Close()
	}
	return nil
}

// SetDeviceErrorHandler sets the callback invoked when transport errors are
// detected. This is typically used to trigger recovery actions like
// re-enumerating mice when a receiver is found to be unplugged during an
// exchange.
//
// This method is thread-safe and can be called at any time.
func (s *Server) SetDeviceErrorHandler(handler DeviceErrorHandler) {
	s.handlerMu.Lock()
	defer s.handlerMu.Unlock()
	s.deviceErrorHandler = handler
}

// handleDeviceError checks if the error indicates a gone device and triggers recovery.
// Returns true if the error was a transport error and recovery was triggered.
func (s *Server) handleDeviceError(serial string, err error) bool {
	if err == nil || !mouse.IsDeviceGoneError(err) {
		return false
	}

	log.Warn().
		Err(err).
		Str("serial", serial).
		Msg("Device error detected, triggering recovery")

	s.handlerMu.RLock()
	handler := s.deviceErrorHandler
	s.handlerMu.RUnlock()

	if handler != nil {
		// Run recovery asynchronously to not block the D-Bus response
		go handler(serial, err)
	}

	return true
}

// ListMice returns a list of all connected mice.
// Returns an array of structs: [{Serial, ProductName}, ...]
func (s *Server) ListMice() ([]MouseInfo, *dbus.Error) {
	mice := s.manager.ListMice()
	result := make([]MouseInfo, len(mice))
	for i, info := range mice {
		result[i] = MouseInfo{Serial: info.Serial, ProductName: info.Product}
	}

	log.Debug().Int("count", len(result)).Msg("Listed mice")
	return result, nil
}

// GetBattery returns the battery level of a mouse as a percentage (0-100)
// and whether it is currently charging.
func (s *Server) GetBattery(serial string) (uint32, bool, *dbus.Error) {
	if serial == "" {
		return 0, false, dbus.MakeFailedError(ErrEmptySerial)
	}

	m, err := s.manager.GetMouse(serial)
	if err != nil {
		log.Error().Err(err).Str("serial", serial).Msg("Failed to get mouse")
		return 0, false, dbus.MakeFailedError(err)
	}

	status, err := m.Battery()
	if err != nil {
		s.handleDeviceError(serial, err)
		log.Error().Err(err).Str("serial", serial).Msg("Failed to query battery")
		return 0, false, dbus.MakeFailedError(err)
	}

	log.Debug().Str("serial", serial).Int("level", status.Level).Bool("charging", status.Charging).Msg("Got battery status")
	// #nosec G115 -- the device reports 0-100
	return uint32(status.Level), status.Charging, nil
}

// GetOnline reports whether the wireless mouse paired to a receiver is awake.
func (s *Server) GetOnline(serial string) (bool, *dbus.Error) {
	if serial == "" {
		return false, dbus.MakeFailedError(ErrEmptySerial)
	}

	m, err := s.manager.GetMouse(serial)
	if err != nil {
		log.Error().Err(err).Str("serial", serial).Msg("Failed to get mouse")
		return false, dbus.MakeFailedError(err)
	}

	online, err := m.Online()
	if err != nil {
		s.handleDeviceError(serial, err)
		log.Error().Err(err).Str("serial", serial).Msg("Failed to query online state")
		return false, dbus.MakeFailedError(err)
	}

	return online, nil
}

// GetFirmwareVersion returns the firmware version string of a mouse.
func (s *Server) GetFirmwareVersion(serial string) (string, *dbus.Error) {
	if serial == "" {
		return "", dbus.MakeFailedError(ErrEmptySerial)
	}

	m, err := s.manager.GetMouse(serial)
	if err != nil {
		log.Error().Err(err).Str("serial", serial).Msg("Failed to get mouse")
		return "", dbus.MakeFailedError(err)
	}

	version, err := m.FirmwareVersion()
	if err != nil {
		s.handleDeviceError(serial, err)
		log.Error().Err(err).Str("serial", serial).Msg("Failed to query firmware version")
		return "", dbus.MakeFailedError(err)
	}

	return version, nil
}

// GetReportRate returns the polling rate of a mouse in hertz.
func (s *Server) GetReportRate(serial string) (uint32, *dbus.Error) {
	if serial == "" {
		return 0, dbus.MakeFailedError(ErrEmptySerial)
	}

	m, err := s.manager.GetMouse(serial)
	if err != nil {
		log.Error().Err(err).Str("serial", serial).Msg("Failed to get mouse")
		return 0, dbus.MakeFailedError(err)
	}

	hz, err := m.ReportRate()
	if err != nil {
		s.handleDeviceError(serial, err)
		log.Error().Err(err).Str("serial", serial).Msg("Failed to query report rate")
		return 0, dbus.MakeFailedError(err)
	}

	// #nosec G115 -- supported rates top out at 1000
	return uint32(hz), nil
}

// SetReportRate sets the polling rate of a mouse in hertz.
// Supported rates are 125, 250, 500 and 1000.
func (s *Server) SetReportRate(serial string, hz uint32) *dbus.Error {
	if !s.rateLimiter.Allow() {
		log.Warn().Msg("Rate limit exceeded for SetReportRate")
		return dbus.MakeFailedError(ErrRateLimitExceeded)
	}

	if serial == "" {
		return dbus.MakeFailedError(ErrEmptySerial)
	}

	m, err := s.manager.GetMouse(serial)
	if err != nil {
		log.Error().Err(err).Str("serial", serial).Msg("Failed to get mouse")
		return dbus.MakeFailedError(err)
	}

	if err := m.SetReportRate(int(hz)); err != nil {
		s.handleDeviceError(serial, err)
		log.Error().Err(err).Str("serial", serial).Msg("Failed to set report rate")
		return dbus.MakeFailedError(err)
	}

	log.Debug().Str("serial", serial).Uint32("rate", hz).Msg("Set report rate")
	return nil
}

// EmitBatteryChanged emits the BatteryChanged signal.
func (s *Server) EmitBatteryChanged(serial string, level uint32, charging bool) {
	s.connMu.RLock()
	conn := s.conn
	s.connMu.RUnlock()

	if conn == nil {
		return
	}

	err := conn.Emit(ObjectPath, InterfaceName+".BatteryChanged", serial, level, charging)
	if err != nil {
		log.Error().Err(err).Msg("Failed to emit BatteryChanged signal")
	}
}

// EmitMouseAdded emits the MouseAdded signal.
func (s *Server) EmitMouseAdded(serial, productName string) {
	s.connMu.RLock()
	conn := s.conn
	s.connMu.RUnlock()

	if conn == nil {
		return
	}

	err := conn.Emit(ObjectPath, InterfaceName+".MouseAdded", serial, productName)
	if err != nil {
		log.Error().Err(err).Msg("Failed to emit MouseAdded signal")
	}
	log.Info().Str("serial", serial).Str("product", productName).Msg("Mouse added")
}

// EmitMouseRemoved emits the MouseRemoved signal.
func (s *Server) EmitMouseRemoved(serial string) {
	s.connMu.RLock()
	conn := s.conn
	s.connMu.RUnlock()

	if conn == nil {
		return
	}

	err := conn.Emit(ObjectPath, InterfaceName+".MouseRemoved", serial)
	if err != nil {
		log.Error().Err(err).Msg("Failed to emit MouseRemoved signal")
	}
	log.Info().Str("serial", serial).Msg("Mouse removed")
}
