package protocol_test

import (
	"errors"
	"testing"

	"github.com/atk-tools/atkd/internal/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wideDescriptor exercises layout genericity with a larger packet and a gap
// of reserved bytes between the header and the payload.
type wideDescriptor struct{}

func (wideDescriptor) BaseOffset() int { return 0x08 }
func (wideDescriptor) ReportID() byte  { return 0x05 }
func (wideDescriptor) CmdLen() int     { return 0x20 }

// badDescriptor places the payload on top of the header.
type badDescriptor struct{}

func (badDescriptor) BaseOffset() int { return 0x03 }
func (badDescriptor) ReportID() byte  { return 0x05 }
func (badDescriptor) CmdLen() int     { return 0x10 }

func TestNew_Defaults(t *testing.T) {
	cmd := protocol.New[protocol.Standard]()

	assert.Equal(t, protocol.CmdNone, cmd.ID())
	assert.Equal(t, byte(0), cmd.Status())
	assert.Equal(t, protocol.AddrReportRate, cmd.Address())
	assert.Equal(t, 0, cmd.DataLen())
	assert.Equal(t, make([]byte, 10), cmd.Data())
}

func TestNew_PanicsOnInvalidDescriptor(t *testing.T) {
	require.Panics(t, func() { protocol.New[badDescriptor]() })
}

func TestCommand_Encode_MatchesCapturedBatteryQuery(t *testing.T) {
	cmd := protocol.New[protocol.Standard]()
	cmd.SetID(protocol.CmdGetBatteryLevel)

	assert.Equal(t, capturedBatteryQuery, cmd.Encode())
}

func TestCommand_Encode_HeaderAndChecksumPlacement(t *testing.T) {
	cmd := protocol.New[protocol.Standard]()
	cmd.SetID(protocol.CmdGetBatteryLevel)
	cmd.SetStatus(0x01)

	raw := cmd.Encode()
	require.Len(t, raw, 0x10)
	assert.Equal(t, byte(protocol.CmdGetBatteryLevel), raw[0])
	assert.Equal(t, byte(0x01), raw[1])
	assert.Equal(t, protocol.Checksum(0x08, raw[:15]), raw[15])
}

func TestCommand_Encode_LengthInvariant(t *testing.T) {
	std := protocol.New[protocol.Standard]()
	require.NoError(t, std.SetData([]byte{0xde, 0xad, 0xbe, 0xef}, 3))
	assert.Len(t, std.Encode(), 0x10)

	wide := protocol.New[wideDescriptor]()
	require.NoError(t, wide.SetData([]byte{0x01}, 0))
	assert.Len(t, wide.Encode(), 0x20)
}

func TestCommand_SetData_WriteThenReadBack(t *testing.T) {
	cmd := protocol.New[protocol.Standard]()
	require.NoError(t, cmd.SetData([]byte{0x10, 0x20, 0x30}, 0))

	assert.Equal(t, []byte{0x10, 0x20, 0x30}, cmd.Data()[:3])
	assert.Equal(t, 3, cmd.DataLen())

	raw := cmd.Encode()
	assert.Equal(t, []byte{0x10, 0x20, 0x30}, raw[5:8])
}

func TestCommand_SetData_OffsetWithinPayload(t *testing.T) {
	cmd := protocol.New[protocol.Standard]()
	require.NoError(t, cmd.SetData([]byte{0xaa, 0xbb}, 4))

	raw := cmd.Encode()
	assert.Equal(t, []byte{0x00, 0x00, 0x00, 0x00, 0xaa, 0xbb}, raw[5:11])
}

func TestCommand_SetData_OutOfBounds(t *testing.T) {
	tests := []struct {
		name   string
		data   []byte
		offset int
	}{
		{name: "payload longer than capacity", data: make([]byte, 11), offset: 0},
		{name: "offset pushes past capacity", data: []byte{0x01, 0x02}, offset: 9},
		{name: "negative offset", data: []byte{0x01}, offset: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := protocol.New[protocol.Standard]()
			err := cmd.SetData(tt.data, tt.offset)
			require.ErrorIs(t, err, protocol.ErrOutOfBounds)

			// A failed write must not mutate the payload.
			assert.Equal(t, make([]byte, 10), cmd.Data())
			assert.Equal(t, 0, cmd.DataLen())
		})
	}
}

func TestCommand_SetDataByteWithChecksum(t *testing.T) {
	cmd := protocol.New[protocol.Standard]()
	require.NoError(t, cmd.SetDataByteWithChecksum(0x02, 0))

	assert.Equal(t, byte(0x02), cmd.Data()[0])
	assert.Equal(t, byte(0x53), cmd.Data()[1])
}

func TestCommand_SetDataByteWithChecksum_OddOffset(t *testing.T) {
	cmd := protocol.New[protocol.Standard]()
	err := cmd.SetDataByteWithChecksum(0x02, 1)
	assert.ErrorIs(t, err, protocol.ErrOffsetNotAligned)
}

func TestCommand_SetDataLen(t *testing.T) {
	cmd := protocol.New[protocol.Standard]()
	require.NoError(t, cmd.SetDataLen(10))
	assert.Equal(t, 10, cmd.DataLen())

	assert.ErrorIs(t, cmd.SetDataLen(11), protocol.ErrDataTooLarge)
	assert.ErrorIs(t, cmd.SetDataLen(-1), protocol.ErrDataTooLarge)
}

func TestDecode_RoundTrip(t *testing.T) {
	cmd := protocol.New[protocol.Standard]()
	cmd.SetID(protocol.CmdSetEEPROM)
	cmd.SetStatus(0x01)
	cmd.SetAddress(protocol.AddrMotionSync)
	require.NoError(t, cmd.SetDataByteWithChecksum(0x01, 0))

	decoded, err := protocol.Decode[protocol.Standard](cmd.Encode())
	require.NoError(t, err)
	assert.Equal(t, cmd, decoded)
}

func TestDecode_RoundTrip_WideDescriptor(t *testing.T) {
	cmd := protocol.New[wideDescriptor]()
	cmd.SetID(protocol.CmdDownloadData)
	cmd.SetAddress(protocol.AddrMacro3)
	require.NoError(t, cmd.SetData([]byte{0x01, 0x02, 0x03, 0x04, 0x05}, 2))

	decoded, err := protocol.Decode[wideDescriptor](cmd.Encode())
	require.NoError(t, err)
	assert.Equal(t, cmd, decoded)
}

func TestDecode_CapturedBatteryResponse(t *testing.T) {
	cmd, err := protocol.Decode[protocol.Standard](capturedBatteryResponse)
	require.NoError(t, err)

	assert.Equal(t, protocol.CmdGetBatteryLevel, cmd.ID())
	assert.Equal(t, byte(0x00), cmd.Status())
	assert.Equal(t, protocol.AddrReportRate, cmd.Address())
	assert.Equal(t, 2, cmd.DataLen())
	assert.Equal(t, byte(0x41), cmd.Data()[0])
}

func TestDecode_LengthMismatch(t *testing.T) {
	_, err := protocol.Decode[protocol.Standard](make([]byte, 17))
	require.ErrorIs(t, err, protocol.ErrMalformedPacket)

	var lengthErr *protocol.LengthError
	require.ErrorAs(t, err, &lengthErr)
	assert.Equal(t, 16, lengthErr.Expected)
	assert.Equal(t, 17, lengthErr.Actual)
}

func TestDecode_SingleByteCorruptionDetected(t *testing.T) {
	cmd := protocol.New[protocol.Standard]()
	cmd.SetID(protocol.CmdGetEEPROM)
	cmd.SetAddress(protocol.AddrCurrentDpi)
	require.NoError(t, cmd.SetDataLen(2))
	frame := cmd.Encode()

	for i := range frame {
		corrupted := make([]byte, len(frame))
		copy(corrupted, frame)
		corrupted[i] ^= 0x40

		_, err := protocol.Decode[protocol.Standard](corrupted)
		assert.ErrorIs(t, err, protocol.ErrMalformedPacket, "flipped bit in byte %d went undetected", i)
	}
}

func TestDecode_UnknownCommandID(t *testing.T) {
	frame := make([]byte, 0x10)
	frame[0] = 0xee
	frame[15] = protocol.Checksum(0x08, frame[:15])

	_, err := protocol.Decode[protocol.Standard](frame)
	var unknownID protocol.UnknownCommandIDError
	require.ErrorAs(t, err, &unknownID)
	assert.Equal(t, byte(0xee), byte(unknownID))
}

func TestDecode_UnknownEEPROMAddress(t *testing.T) {
	frame := make([]byte, 0x10)
	frame[0] = byte(protocol.CmdGetEEPROM)
	frame[2] = 0xbe
	frame[3] = 0xef
	frame[15] = protocol.Checksum(0x08, frame[:15])

	_, err := protocol.Decode[protocol.Standard](frame)
	var unknownAddr protocol.UnknownEEPROMAddressError
	require.ErrorAs(t, err, &unknownAddr)
	assert.Equal(t, uint16(0xbeef), uint16(unknownAddr))
}

func TestDecode_DeclaredLengthExceedsCapacity(t *testing.T) {
	frame := make([]byte, 0x10)
	frame[0] = byte(protocol.CmdGetEEPROM)
	frame[4] = 0xff
	frame[15] = protocol.Checksum(0x08, frame[:15])

	_, err := protocol.Decode[protocol.Standard](frame)
	assert.ErrorIs(t, err, protocol.ErrMalformedPacket)
}

func TestDecode_BadChecksumReportsBothValues(t *testing.T) {
	frame := make([]byte, 0x10)
	frame[15] = 0x00 // correct value would be 0x4d

	_, err := protocol.Decode[protocol.Standard](frame)
	var checksumErr *protocol.ChecksumError
	require.ErrorAs(t, err, &checksumErr)
	assert.Equal(t, protocol.Checksum(0x08, frame[:15]), checksumErr.Expected)
	assert.Equal(t, byte(0x00), checksumErr.Actual)
	assert.True(t, errors.Is(err, protocol.ErrMalformedPacket))
}

func TestCommand_String(t *testing.T) {
	cmd := protocol.New[protocol.Standard]()
	cmd.SetID(protocol.CmdGetBatteryLevel)
	require.NoError(t, cmd.SetData([]byte{0x41}, 0))

	s := cmd.String()
	assert.Contains(t, s, "GetBatteryLevel")
	assert.Contains(t, s, "ReportRate")
}
