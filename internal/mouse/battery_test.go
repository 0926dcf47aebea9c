package mouse_test

import (
	"testing"
	"time"

	"github.com/atk-tools/atkd/internal/mouse"
	"github.com/atk-tools/atkd/internal/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// reply frames a packet with the standard report id the way the receiver
// sends it back.
func reply(packet []byte) []byte {
	frame := make([]byte, 0, len(packet)+1)
	frame = append(frame, 0x08)
	frame = append(frame, packet...)
	return frame
}

func TestMouse_Battery(t *testing.T) {
	mockDevice := newMockDevice(t)
	mockDevice.EXPECT().Write(gomock.Any()).DoAndReturn(func(p []byte) (int, error) {
		return len(p), nil
	})
	mockDevice.EXPECT().ReadWithTimeout(gomock.Any(), gomock.Any()).DoAndReturn(
		func(p []byte, _ time.Duration) (int, error) {
			return copy(p, capturedBatteryResponse), nil
		},
	)

	m := mouse.NewMouse(mockDevice)
	status, err := m.Battery()
	require.NoError(t, err)

	assert.Equal(t, 65, status.Level)
	assert.False(t, status.Charging)
	assert.Equal(t, uint16(3971), status.Voltage)
}

func TestMouse_Battery_Charging(t *testing.T) {
	packet := protocol.New[protocol.Standard]()
	packet.SetID(protocol.CmdGetBatteryLevel)
	require.NoError(t, packet.SetData([]byte{0x54, 0x01, 0x0f, 0xa0}, 0))

	mockDevice := newMockDevice(t)
	mockDevice.EXPECT().Write(gomock.Any()).DoAndReturn(func(p []byte) (int, error) {
		return len(p), nil
	})
	mockDevice.EXPECT().ReadWithTimeout(gomock.Any(), gomock.Any()).DoAndReturn(
		func(p []byte, _ time.Duration) (int, error) {
			return copy(p, reply(packet.Encode())), nil
		},
	)

	m := mouse.NewMouse(mockDevice)
	status, err := m.Battery()
	require.NoError(t, err)

	assert.Equal(t, 84, status.Level)
	assert.True(t, status.Charging)
	assert.Equal(t, uint16(4000), status.Voltage)
}

func TestMouse_Battery_ReadTimeout(t *testing.T) {
	mockDevice := newMockDevice(t)
	mockDevice.EXPECT().Write(gomock.Any()).DoAndReturn(func(p []byte) (int, error) {
		return len(p), nil
	})
	mockDevice.EXPECT().ReadWithTimeout(gomock.Any(), gomock.Any()).Return(0, nil)

	m := mouse.NewMouse(mockDevice)
	_, err := m.Battery()
	assert.ErrorIs(t, err, mouse.ErrReadTimeout)
}

func TestMouse_Online(t *testing.T) {
	tests := []struct {
		name string
		flag byte
		want bool
	}{
		{name: "mouse online", flag: 0x01, want: true},
		{name: "mouse sleeping", flag: 0x00, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			packet := protocol.New[protocol.Standard]()
			packet.SetID(protocol.CmdGetWirelessMouseOnline)
			require.NoError(t, packet.SetDataByte(tt.flag, 0))

			mockDevice := newMockDevice(t)
			mockDevice.EXPECT().Write(gomock.Any()).DoAndReturn(func(p []byte) (int, error) {
				return len(p), nil
			})
			mockDevice.EXPECT().ReadWithTimeout(gomock.Any(), gomock.Any()).DoAndReturn(
				func(p []byte, _ time.Duration) (int, error) {
					return copy(p, reply(packet.Encode())), nil
				},
			)

			m := mouse.NewMouse(mockDevice)
			online, err := m.Online()
			require.NoError(t, err)
			assert.Equal(t, tt.want, online)
		})
	}
}

func TestMouse_FirmwareVersion(t *testing.T) {
	packet := protocol.New[protocol.Standard]()
	packet.SetID(protocol.CmdGetMouseVersion)
	require.NoError(t, packet.SetData([]byte{0x01, 0x2a}, 0))

	mockDevice := newMockDevice(t)
	mockDevice.EXPECT().Write(gomock.Any()).DoAndReturn(func(p []byte) (int, error) {
		return len(p), nil
	})
	mockDevice.EXPECT().ReadWithTimeout(gomock.Any(), gomock.Any()).DoAndReturn(
		func(p []byte, _ time.Duration) (int, error) {
			return copy(p, reply(packet.Encode())), nil
		},
	)

	m := mouse.NewMouse(mockDevice)
	version, err := m.FirmwareVersion()
	require.NoError(t, err)
	assert.Equal(t, "1.42", version)
}
