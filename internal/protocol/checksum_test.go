package protocol_test

import (
	"testing"

	"github.com/atk-tools/atkd/internal/protocol"
	"github.com/stretchr/testify/assert"
)

// Frames captured from a VXE Dragonfly R1 Pro Max receiver (report id 0x08).
var (
	capturedBatteryQuery = []byte{
		0x04, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x49,
	}
	capturedBatteryResponse = []byte{
		0x04, 0x00, 0x00, 0x00, 0x02, 0x41, 0x00, 0x0f,
		0x83, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x74,
	}
)

func TestChecksum_CapturedTraffic(t *testing.T) {
	tests := []struct {
		name  string
		frame []byte
	}{
		{name: "battery query", frame: capturedBatteryQuery},
		{name: "battery response", frame: capturedBatteryResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := protocol.Checksum(0x08, tt.frame[:len(tt.frame)-1])
			assert.Equal(t, tt.frame[len(tt.frame)-1], got)
		})
	}
}

func TestChecksum_Deterministic(t *testing.T) {
	packet := make([]byte, 15)
	for i := range packet {
		packet[i] = byte(i * 17)
	}

	first := protocol.Checksum(0x08, packet)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, protocol.Checksum(0x08, packet))
	}
}

func TestChecksum_ReportIDSeedsSum(t *testing.T) {
	packet := []byte{0x04, 0x00, 0x00}
	assert.NotEqual(t, protocol.Checksum(0x08, packet), protocol.Checksum(0x09, packet))
}

func TestChecksum_WrapsAround(t *testing.T) {
	// 0x55 - 0xff must wrap rather than go negative.
	assert.Equal(t, byte(0x56), protocol.Checksum(0x00, []byte{0xff}))
}
