// SPDX-License-Identifier: GPL-3.0-only

package mouse

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/atk-tools/atkd/internal/hid"
)

// Manager handles the lifecycle of the connected supported mice.
type Manager struct {
	mice       map[string]*Mouse // serial -> mouse
	mu         sync.RWMutex
	enumerator func() ([]hid.DeviceInfo, error)
	opener     func(info hid.DeviceInfo) (hid.Device, error)
}

// ManagerOption is a functional option for configuring a Manager.
type ManagerOption func(*Manager)

// WithEnumerator sets a custom device enumerator for testing.
func WithEnumerator(fn func() ([]hid.DeviceInfo, error)) ManagerOption {
	return func(m *Manager) {
		m.enumerator = fn
	}
}

// WithOpener sets a custom device opener for testing.
func WithOpener(fn func(info hid.DeviceInfo) (hid.Device, error)) ManagerOption {
	return func(m *Manager) {
		m.opener = fn
	}
}

// NewManager creates a new mouse manager.
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		mice:       make(map[string]*Mouse),
		enumerator: enumerateSupported,
		opener:     defaultOpener,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// enumerateSupported lists the vendor interfaces of every known mouse or
// receiver currently attached.
func enumerateSupported() ([]hid.DeviceInfo, error) {
	var mice []hid.DeviceInfo
	for vendor, products := range SupportedDevices {
		infos, err := hid.Enumerate(vendor, 0, VendorUsagePage, VendorUsage)
		if err != nil {
			return nil, err
		}
		for _, info := range infos {
			if _, ok := products[info.ProductID]; ok {
				mice = append(mice, info)
			}
		}
	}
	return mice, nil
}

// defaultOpener wraps hid.OpenInfo to match the expected signature.
func defaultOpener(info hid.DeviceInfo) (hid.Device, error) {
	return hid.OpenInfo(info)
}

// ListMice returns information about all connected mice.
func (m *Manager) ListMice() []hid.DeviceInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	infos := make([]hid.DeviceInfo, 0, len(m.mice))
	for _, mouse := range m.mice {
		infos = append(infos, mouse.Info())
	}
	return infos
}

// GetMouse returns a mouse by serial number.
func (m *Manager) GetMouse(serial string) (*Mouse, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	mouse, ok := m.mice[serial]
	if !ok {
		return nil, fmt.Errorf("mouse with serial %s not found", serial)
	}
	return mouse, nil
}

// RefreshMice re-enumerates connected mice and updates the internal state.
// It opens newly attached mice and closes disconnected ones.
func (m *Manager) RefreshMice() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, err := m.enumerator()
	if err != nil {
		return fmt.Errorf("failed to enumerate mice: %w", err)
	}

	currentSerials := make(map[string]hid.DeviceInfo)
	for _, info := range current {
		currentSerials[info.Serial] = info
	}

	// Find and close disconnected mice
	for serial, mouse := range m.mice {
		if _, exists := currentSerials[serial]; !exists {
			log.Info().Str("serial", serial).Msg("Mouse disconnected")
			if err := mouse.Close(); err != nil {
				log.Warn().Err(err).Str("serial", serial).Msg("Failed to close disconnected mouse")
			}
			delete(m.mice, serial)
		}
	}

	// Open newly attached mice
	for serial, info := range currentSerials {
		if _, exists := m.mice[serial]; !exists {
			device, err := m.opener(info)
			if err != nil {
				log.Error().Err(err).Str("serial", serial).Msg("Failed to open mouse")
				continue
			}
			m.mice[serial] = NewMouse(device)
			log.Info().Str("serial", serial).Str("product", info.Product).Msg("Mouse connected")
		}
	}

	return nil
}

// Close closes all open mice.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for serial, mouse := range m.mice {
		if err := mouse.Close(); err != nil {
			log.Error().Err(err).Str("serial", serial).Msg("Failed to close mouse")
		}
		delete(m.mice, serial)
	}
	return nil
}

// Count returns the number of connected mice.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.mice)
}
