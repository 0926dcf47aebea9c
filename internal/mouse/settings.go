package mouse

import (
	"fmt"

	"github.com/atk-tools/atkd/internal/protocol"
	"github.com/atk-tools/atkd/internal/reportrate"
)

// ReportRate reads the configured polling rate in hertz from EEPROM.
func (m *Mouse) ReportRate() (int, error) {
	cmd := protocol.New[protocol.Standard]()
	cmd.SetID(protocol.CmdGetEEPROM)
	cmd.SetAddress(protocol.AddrReportRate)
	// Request the value byte and its complement.
	if err := cmd.SetDataLen(2); err != nil {
		return 0, err
	}

	resp, err := Exchange(m, cmd)
	if err != nil {
		return 0, fmt.Errorf("report rate query: %w", err)
	}

	hz, err := reportrate.FromDivisor(resp.Data()[0])
	if err != nil {
		return 0, fmt.Errorf("report rate query: %w", err)
	}
	return hz, nil
}

// SetReportRate writes a polling rate in hertz to EEPROM. The register is a
// checked setting, so the divisor is written together with its complement
// byte.
func (m *Mouse) SetReportRate(hz int) error {
	divisor, err := reportrate.ToDivisor(hz)
	if err != nil {
		return err
	}

	cmd := protocol.New[protocol.Standard]()
	cmd.SetID(protocol.CmdSetEEPROM)
	cmd.SetAddress(protocol.AddrReportRate)
	if err := cmd.SetDataByteWithChecksum(divisor, 0); err != nil {
		return err
	}

	if _, err := Exchange(m, cmd); err != nil {
		return fmt.Errorf("report rate update: %w", err)
	}
	return nil
}
