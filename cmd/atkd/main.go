// Package main provides the entry point for the ATK mouse daemon.
package main

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/atk-tools/atkd/internal/dbus"
	"github.com/atk-tools/atkd/internal/hid"
	"github.com/atk-tools/atkd/internal/mouse"
	"github.com/atk-tools/atkd/internal/udev"
)

var (
	verbose      bool
	pollInterval time.Duration
	rootCmd      = &cobra.Command{
		Use:   "atkd",
		Short: "D-Bus daemon for ATK and VXE mice",
		Long: `atkd is a D-Bus service that talks to ATK and VXE gaming mice over
their vendor USB HID interface.

It exposes methods for listing connected mice, querying battery state and
firmware versions, reading and changing the polling rate, and emits signals
when mice are connected or disconnected or their battery state changes.`,
		Run: func(cmd *cobra.Command, args []string) {
			run()
		},
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().DurationVar(&pollInterval, "poll-interval", time.Minute,
		"How often to poll battery state (0 disables polling)")
}

func run() {
	// Configure logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	log.Info().Msg("Starting atkd")

	if err := hid.Init(); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize hidapi")
	}
	defer func() {
		if err := hid.Exit(); err != nil {
			log.Error().Err(err).Msg("Failed to release hidapi")
		}
	}()

	// Initialize mouse manager
	manager := mouse.NewManager()
	if err := manager.RefreshMice(); err != nil {
		log.Error().Err(err).Msg("Failed to enumerate mice")
	}

	mouseCount := manager.Count()
	if mouseCount == 0 {
		log.Warn().Msg("No supported mice found")
	} else {
		log.Info().Int("count", mouseCount).Msg("Found supported mice")
	}

	// Initialize D-Bus server
	server := dbus.NewServer(manager)
	if err := server.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start D-Bus server")
	}
	server.SetDeviceErrorHandler(createDeviceErrorHandler(manager, server))

	// Initialize udev monitor for hot-plug detection
	monitor := udev.NewMonitor(createHotplugHandler(manager, server))
	monitor.SetRecoveryHandler(createRecoveryHandler(manager, server))
	if err := monitor.Start(); err != nil {
		log.Error().Err(err).Msg("Failed to start udev monitor (hot-plug detection disabled)")
	}

	// Start battery polling
	pollStop := make(chan struct{})
	var pollDone sync.WaitGroup
	if pollInterval > 0 {
		pollDone.Add(1)
		go func() {
			defer pollDone.Done()
			pollBatteries(manager, server, pollInterval, pollStop)
		}()
	}

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	log.Info().Msg("Daemon running, press Ctrl+C to stop")
	<-sigChan

	// Cleanup
	log.Info().Msg("Shutting down...")
	close(pollStop)
	pollDone.Wait()
	if err := monitor.Stop(); err != nil {
		log.Error().Err(err).Msg("Failed to stop udev monitor")
	}
	if err := server.Stop(); err != nil {
		log.Error().Err(err).Msg("Failed to stop D-Bus server")
	}
	if err := manager.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close mouse manager")
	}

	log.Info().Msg("Daemon stopped")
}

// refreshMu serializes mouse refresh operations to prevent race conditions
// between hotplug handlers and recovery handlers.
var refreshMu sync.Mutex

// getMiceSnapshot returns the currently connected mice keyed by serial.
func getMiceSnapshot(manager *mouse.Manager) map[string]hid.DeviceInfo {
	snapshot := make(map[string]hid.DeviceInfo)
	for _, info := range manager.ListMice() {
		snapshot[info.Serial] = info
	}
	return snapshot
}

// mouseChanges describes the difference between two mouse snapshots.
type mouseChanges struct {
	added   []hid.DeviceInfo
	removed []string
}

// diffMice compares two snapshots and returns which mice appeared and which
// disappeared.
func diffMice(oldMice, newMice map[string]hid.DeviceInfo) mouseChanges {
	var changes mouseChanges

	for serial, info := range newMice {
		if _, exists := oldMice[serial]; !exists {
			changes.added = append(changes.added, info)
		}
	}

	for serial := range oldMice {
		if _, exists := newMice[serial]; !exists {
			changes.removed = append(changes.removed, serial)
		}
	}

	return changes
}

// emitMouseChanges emits D-Bus signals for every detected change.
func emitMouseChanges(server *dbus.Server, changes mouseChanges) {
	for _, info := range changes.added {
		server.EmitMouseAdded(info.Serial, info.Product)
	}
	for _, serial := range changes.removed {
		server.EmitMouseRemoved(serial)
	}
}

// refreshMiceWithRetry attempts to refresh mice with linear backoff.
// It retries up to maxRetries times with increasing delays between attempts
// and reports whether any mice were found.
func refreshMiceWithRetry(manager *mouse.Manager, maxRetries int) (bool, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			// Linear backoff: 500ms, 1000ms, 1500ms, ...
			backoff := time.Duration(attempt) * 500 * time.Millisecond
			log.Debug().
				Int("attempt", attempt).
				Dur("backoff", backoff).
				Msg("Retrying mouse refresh")
			time.Sleep(backoff)
		}

		if err := manager.RefreshMice(); err != nil {
			lastErr = err
			log.Warn().
				Err(err).
				Int("attempt", attempt+1).
				Int("maxRetries", maxRetries+1).
				Msg("Mouse refresh failed")
			continue
		}

		// Success
		if attempt > 0 {
			log.Info().Int("attempts", attempt+1).Msg("Mouse refresh succeeded after retry")
		}
		return manager.Count() > 0, nil
	}
	return false, lastErr
}

// createHotplugHandler returns an event handler that refreshes mice and emits D-Bus signals.
// The handler uses the shared refreshMu to prevent race conditions with recovery handlers.
func createHotplugHandler(manager *mouse.Manager, server *dbus.Server) udev.EventHandler {
	return func(event udev.Event) {
		// Use shared mutex to serialize with recovery handler
		refreshMu.Lock()
		defer refreshMu.Unlock()

		oldMice := getMiceSnapshot(manager)

		// For add events, wait for the device to fully initialize.
		// USB devices need time to enumerate all interfaces before HID is accessible.
		// Remove events don't need this delay as the device is already gone.
		if event.Type == udev.EventAdd {
			time.Sleep(500 * time.Millisecond)
		}

		// Refresh mice with retry logic for resilience
		found, err := refreshMiceWithRetry(manager, 3)
		if err != nil {
			log.Error().Err(err).Msg("Failed to refresh mice after hot-plug event (all retries exhausted)")
			return
		}

		// An empty enumeration after an add event means HID is not ready yet;
		// skip the diff so a transient miss cannot emit spurious removals.
		if !found && event.Type == udev.EventAdd {
			log.Warn().Msg("No mice found after add event, skipping signal emission")
			return
		}

		emitMouseChanges(server, diffMice(oldMice, getMiceSnapshot(manager)))
	}
}

// createRecoveryHandler returns a handler for netlink buffer overflow recovery.
// It triggers a mouse refresh to recover from potentially missed udev events.
// The handler uses the shared refreshMu to prevent race conditions with hotplug handlers.
func createRecoveryHandler(manager *mouse.Manager, server *dbus.Server) udev.RecoveryHandler {
	return func() {
		// Use shared mutex to serialize with hotplug handler
		refreshMu.Lock()
		defer refreshMu.Unlock()

		log.Info().Msg("Performing recovery refresh after netlink buffer overflow")

		oldMice := getMiceSnapshot(manager)

		// Wait a moment for any pending USB operations to settle
		time.Sleep(500 * time.Millisecond)

		if _, err := refreshMiceWithRetry(manager, 3); err != nil {
			log.Error().Err(err).Msg("Recovery refresh failed (all retries exhausted)")
			return
		}

		newMice := getMiceSnapshot(manager)
		emitMouseChanges(server, diffMice(oldMice, newMice))

		log.Info().Int("mice", len(newMice)).Msg("Recovery refresh completed")
	}
}

// createDeviceErrorHandler returns a handler for transport errors detected
// during D-Bus method calls, such as a receiver unplugged mid-exchange.
func createDeviceErrorHandler(manager *mouse.Manager, server *dbus.Server) dbus.DeviceErrorHandler {
	return func(serial string, err error) {
		refreshMu.Lock()
		defer refreshMu.Unlock()

		log.Info().Str("serial", serial).Msg("Refreshing mice after device error")

		oldMice := getMiceSnapshot(manager)
		if _, refreshErr := refreshMiceWithRetry(manager, 1); refreshErr != nil {
			log.Error().Err(refreshErr).Msg("Refresh after device error failed")
			return
		}

		emitMouseChanges(server, diffMice(oldMice, getMiceSnapshot(manager)))
	}
}

// pollBatteries periodically queries the battery state of every connected
// mouse and emits BatteryChanged when it moves. Sleeping wireless mice time
// out on the query; that is expected and only logged at debug level.
func pollBatteries(manager *mouse.Manager, server *dbus.Server, interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := make(map[string]mouse.BatteryStatus)

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		for _, info := range manager.ListMice() {
			m, err := manager.GetMouse(info.Serial)
			if err != nil {
				continue
			}

			status, err := m.Battery()
			if err != nil {
				log.Debug().Err(err).Str("serial", info.Serial).Msg("Battery poll failed")
				delete(last, info.Serial)
				continue
			}

			if prev, ok := last[info.Serial]; ok && prev.Level == status.Level && prev.Charging == status.Charging {
				continue
			}
			last[info.Serial] = status

			log.Debug().
				Str("serial", info.Serial).
				Int("level", status.Level).
				Bool("charging", status.Charging).
				Msg("Battery state changed")
			// #nosec G115 -- the device reports 0-100
			server.EmitBatteryChanged(info.Serial, uint32(status.Level), status.Charging)
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("Failed to execute command")
	}
}
