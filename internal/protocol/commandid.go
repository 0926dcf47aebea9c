package protocol

// CommandID identifies the operation a command performs. The values are
// reverse-engineered and fixed by the device firmware.
type CommandID byte

const (
	// CmdNone is not a valid wire command; it is the zero value of a freshly
	// constructed packet.
	CmdNone CommandID = iota

	CmdDownloadData
	CmdDownloadDriverStatus
	CmdGetWirelessMouseOnline
	CmdGetBatteryLevel
	CmdSetWirelessDonglePair
	CmdGetWirelessDonglePairResult
	CmdSetEEPROM
	CmdGetEEPROM
	CmdRestoreFactory
	CmdReportMouseStatus
	CmdReserved1
	CmdReserved2
	CmdEnterUSBUpgradeMode
	CmdGetCurrentConfig
	CmdSetCurrentConfig
	CmdGetMouseCIDMID
	CmdReserved3
	CmdGetMouseVersion
	CmdDongleExitPair
	CmdSet4KRGBMode
	CmdGet4KRGBMode
	CmdSetFarDistanceMode
	CmdGetFarDistanceMode
	CmdSetDongleLightMode
	CmdGetDongleLightMode
	CmdReportMouseUpgradeErrorStatus
	CmdReportMouseUpgradeStatus

	maxCommandID = CmdReportMouseUpgradeStatus
)

// ParseCommandID maps a wire byte to its command id. Unknown bytes are a
// decode error, never silently coerced to a default.
func ParseCommandID(b byte) (CommandID, error) {
	if b > byte(maxCommandID) {
		return CmdNone, UnknownCommandIDError(b)
	}
	return CommandID(b), nil
}

func (id CommandID) String() string {
	switch id {
	case CmdNone:
		return "None"
	case CmdDownloadData:
		return "DownloadData"
	case CmdDownloadDriverStatus:
		return "DownloadDriverStatus"
	case CmdGetWirelessMouseOnline:
		return "GetWirelessMouseOnline"
	case CmdGetBatteryLevel:
		return "GetBatteryLevel"
	case CmdSetWirelessDonglePair:
		return "SetWirelessDonglePair"
	case CmdGetWirelessDonglePairResult:
		return "GetWirelessDonglePairResult"
	case CmdSetEEPROM:
		return "SetEEPROM"
	case CmdGetEEPROM:
		return "GetEEPROM"
	case CmdRestoreFactory:
		return "RestoreFactory"
	case CmdReportMouseStatus:
		return "ReportMouseStatus"
	case CmdReserved1:
		return "Reserved1"
	case CmdReserved2:
		return "Reserved2"
	case CmdEnterUSBUpgradeMode:
		return "EnterUSBUpgradeMode"
	case CmdGetCurrentConfig:
		return "GetCurrentConfig"
	case CmdSetCurrentConfig:
		return "SetCurrentConfig"
	case CmdGetMouseCIDMID:
		return "GetMouseCIDMID"
	case CmdReserved3:
		return "Reserved3"
	case CmdGetMouseVersion:
		return "GetMouseVersion"
	case CmdDongleExitPair:
		return "DongleExitPair"
	case CmdSet4KRGBMode:
		return "Set4KRGBMode"
	case CmdGet4KRGBMode:
		return "Get4KRGBMode"
	case CmdSetFarDistanceMode:
		return "SetFarDistanceMode"
	case CmdGetFarDistanceMode:
		return "GetFarDistanceMode"
	case CmdSetDongleLightMode:
		return "SetDongleLightMode"
	case CmdGetDongleLightMode:
		return "GetDongleLightMode"
	case CmdReportMouseUpgradeErrorStatus:
		return "ReportMouseUpgradeErrorStatus"
	case CmdReportMouseUpgradeStatus:
		return "ReportMouseUpgradeStatus"
	default:
		return "Unknown"
	}
}
