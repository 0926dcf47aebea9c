package mouse

import (
	"encoding/binary"
	"fmt"

	"github.com/atk-tools/atkd/internal/protocol"
)

// BatteryStatus is one sample of the battery telemetry a wireless mouse
// reports through its receiver.
type BatteryStatus struct {
	Level    int    // charge percentage, 0-100
	Charging bool   //
	Voltage  uint16 // cell voltage in millivolts
}

func (b BatteryStatus) String() string {
	return fmt.Sprintf("%d%% (%d mV, charging=%t)", b.Level, b.Voltage, b.Charging)
}

// Battery queries the current battery status. Responses declare two valid
// payload bytes, but the voltage word follows the charging flag regardless.
func (m *Mouse) Battery() (BatteryStatus, error) {
	cmd := protocol.New[protocol.Standard]()
	cmd.SetID(protocol.CmdGetBatteryLevel)

	resp, err := Exchange(m, cmd)
	if err != nil {
		return BatteryStatus{}, fmt.Errorf("battery query: %w", err)
	}

	data := resp.Data()
	return BatteryStatus{
		Level:    int(data[0]),
		Charging: data[1] == 0x01,
		Voltage:  binary.BigEndian.Uint16(data[2:4]),
	}, nil
}

// Online reports whether the wireless mouse is awake and paired to its
// receiver. A sleeping mouse still enumerates through the receiver but will
// not answer configuration commands.
func (m *Mouse) Online() (bool, error) {
	cmd := protocol.New[protocol.Standard]()
	cmd.SetID(protocol.CmdGetWirelessMouseOnline)

	resp, err := Exchange(m, cmd)
	if err != nil {
		return false, fmt.Errorf("online query: %w", err)
	}
	return resp.Data()[0] != 0, nil
}

// FirmwareVersion queries the mouse firmware revision.
func (m *Mouse) FirmwareVersion() (string, error) {
	cmd := protocol.New[protocol.Standard]()
	cmd.SetID(protocol.CmdGetMouseVersion)

	resp, err := Exchange(m, cmd)
	if err != nil {
		return "", fmt.Errorf("version query: %w", err)
	}
	data := resp.Data()
	return fmt.Sprintf("%d.%d", data[0], data[1]), nil
}
