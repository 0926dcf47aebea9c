package protocol

import "fmt"

// EEPROMAddress identifies a configuration register inside the mouse. Most
// single-byte settings are stored as a (value, complement) pair, so each datum
// address is followed by a CRC address holding 0x55 minus the value.
type EEPROMAddress uint16

const (
	AddrReportRate    EEPROMAddress = 0x00
	AddrReportRateCrc EEPROMAddress = 0x01
	AddrMaxDpi        EEPROMAddress = 0x02
	AddrMaxDpiCrc     EEPROMAddress = 0x03
	AddrCurrentDpi    EEPROMAddress = 0x04
	AddrCurrentDpiCrc EEPROMAddress = 0x05
	AddrSilentHeight  EEPROMAddress = 0x0a
	AddrSilentHeightCrc EEPROMAddress = 0x0b

	// Pairwise DPI profiles and their colors.
	AddrDpiPair1      EEPROMAddress = 0x0c
	AddrDpiPair3      EEPROMAddress = 0x14
	AddrDpiPair5      EEPROMAddress = 0x1c
	AddrDpiPair7      EEPROMAddress = 0x24
	AddrDpiPair1Color EEPROMAddress = 0x2c
	AddrDpiPair3Color EEPROMAddress = 0x34
	AddrDpiPair5Color EEPROMAddress = 0x3c
	AddrDpiPair7Color EEPROMAddress = 0x44

	// RGB lighting.
	AddrDpiRgbLightingEffects         EEPROMAddress = 0x4c
	AddrDpiRgbLightingEffectsCrc      EEPROMAddress = 0x4d
	AddrDpiRgbLongBrightBrightness    EEPROMAddress = 0x4e
	AddrDpiRgbLongBrightBrightnessCrc EEPROMAddress = 0x4f
	AddrDpiRgbLongBrightSpeed         EEPROMAddress = 0x50
	AddrDpiRgbLongBrightSpeedCrc      EEPROMAddress = 0x51
	AddrDpiRgbEnable                  EEPROMAddress = 0x52
	AddrDpiRgbEnableCrc               EEPROMAddress = 0x53

	AddrArticleLampR                 EEPROMAddress = 0x54
	AddrArticleLampG                 EEPROMAddress = 0x55
	AddrArticleLampB                 EEPROMAddress = 0x56
	AddrArticleLampCrc               EEPROMAddress = 0x57
	AddrArticleLampEffects           EEPROMAddress = 0x58
	AddrArticleLampEffectsCrc        EEPROMAddress = 0x59
	AddrArticleLampLongBrightness    EEPROMAddress = 0x5a
	AddrArticleLampLongBrightnessCrc EEPROMAddress = 0x5b
	AddrArticleLampBreathingSpeed    EEPROMAddress = 0x5c
	AddrArticleLampBreathingSpeedCrc EEPROMAddress = 0x5d
	AddrArticleLampEnergySaving      EEPROMAddress = 0x5e
	AddrArticleLampEnergySavingCrc   EEPROMAddress = 0x5f

	// Sensor and radio behavior.
	AddrStabilizationTime    EEPROMAddress = 0xa9
	AddrStabilizationTimeCrc EEPROMAddress = 0xaa
	AddrMotionSync           EEPROMAddress = 0xab
	AddrMotionSyncCrc        EEPROMAddress = 0xac
	AddrCloseLedTime         EEPROMAddress = 0xad
	AddrCloseLedTimeCrc      EEPROMAddress = 0xae
	AddrLinearCorrection     EEPROMAddress = 0xaf
	AddrLinearCorrectionCrc  EEPROMAddress = 0xb0
	AddrRippleControl        EEPROMAddress = 0xb1
	AddrRippleControlCrc     EEPROMAddress = 0xb2
	AddrMoveCloseLights      EEPROMAddress = 0xb3
	AddrMoveCloseLightsCrc   EEPROMAddress = 0xb4
	AddrSensorEnable         EEPROMAddress = 0xb5
	AddrSensorEnableCrc      EEPROMAddress = 0xb6
	AddrSensorTime           EEPROMAddress = 0xb7
	AddrSensorTimeCrc        EEPROMAddress = 0xb8
	AddrSensorMode           EEPROMAddress = 0xb9
	AddrSensorModeCrc        EEPROMAddress = 0xba
	AddrRfTxTime             EEPROMAddress = 0xbb
	AddrRfTxTimeCrc          EEPROMAddress = 0xbc

	// Button bindings.
	AddrKey0  EEPROMAddress = 0x60
	AddrKey1  EEPROMAddress = 0x64
	AddrKey2  EEPROMAddress = 0x68
	AddrKey3  EEPROMAddress = 0x6c
	AddrKey4  EEPROMAddress = 0x70
	AddrKey5  EEPROMAddress = 0x74
	AddrKey6  EEPROMAddress = 0x78
	AddrKey7  EEPROMAddress = 0x7c
	AddrKey8  EEPROMAddress = 0x80
	AddrKey9  EEPROMAddress = 0x84
	AddrKey10 EEPROMAddress = 0x88
	AddrKey11 EEPROMAddress = 0x8c
	AddrKey12 EEPROMAddress = 0x90
	AddrKey13 EEPROMAddress = 0x94
	AddrKey14 EEPROMAddress = 0x98
	AddrKey15 EEPROMAddress = 0x9c

	// Shortcut key slots.
	AddrKeyShortcuts0  EEPROMAddress = 0x100
	AddrKeyShortcuts1  EEPROMAddress = 0x120
	AddrKeyShortcuts2  EEPROMAddress = 0x140
	AddrKeyShortcuts3  EEPROMAddress = 0x160
	AddrKeyShortcuts4  EEPROMAddress = 0x180
	AddrKeyShortcuts5  EEPROMAddress = 0x1a0
	AddrKeyShortcuts6  EEPROMAddress = 0x1c0
	AddrKeyShortcuts7  EEPROMAddress = 0x1e0
	AddrKeyShortcuts8  EEPROMAddress = 0x200
	AddrKeyShortcuts9  EEPROMAddress = 0x220
	AddrKeyShortcuts10 EEPROMAddress = 0x240
	AddrKeyShortcuts11 EEPROMAddress = 0x260
	AddrKeyShortcuts12 EEPROMAddress = 0x280
	AddrKeyShortcuts13 EEPROMAddress = 0x2a0
	AddrKeyShortcuts14 EEPROMAddress = 0x2c0
	AddrKeyShortcuts15 EEPROMAddress = 0x2e0

	// Macro slots.
	AddrMacro0  EEPROMAddress = 0x300
	AddrMacro1  EEPROMAddress = 0x480
	AddrMacro2  EEPROMAddress = 0x600
	AddrMacro3  EEPROMAddress = 0x780
	AddrMacro4  EEPROMAddress = 0x900
	AddrMacro5  EEPROMAddress = 0xa80
	AddrMacro6  EEPROMAddress = 0xc00
	AddrMacro7  EEPROMAddress = 0xd80
	AddrMacro8  EEPROMAddress = 0xf00
	AddrMacro9  EEPROMAddress = 0x1080
	AddrMacro10 EEPROMAddress = 0x1200
	AddrMacro11 EEPROMAddress = 0x1380
	AddrMacro12 EEPROMAddress = 0x1500
	AddrMacro13 EEPROMAddress = 0x1680
	AddrMacro14 EEPROMAddress = 0x1800
	AddrMacro15 EEPROMAddress = 0x1980
)

// eepromAddressNames doubles as the set of valid wire values and the source of
// symbolic names for logging.
var eepromAddressNames = map[EEPROMAddress]string{
	AddrReportRate:                    "ReportRate",
	AddrReportRateCrc:                 "ReportRateCrc",
	AddrMaxDpi:                        "MaxDpi",
	AddrMaxDpiCrc:                     "MaxDpiCrc",
	AddrCurrentDpi:                    "CurrentDpi",
	AddrCurrentDpiCrc:                 "CurrentDpiCrc",
	AddrSilentHeight:                  "SilentHeight",
	AddrSilentHeightCrc:               "SilentHeightCrc",
	AddrDpiPair1:                      "DpiPair1",
	AddrDpiPair3:                      "DpiPair3",
	AddrDpiPair5:                      "DpiPair5",
	AddrDpiPair7:                      "DpiPair7",
	AddrDpiPair1Color:                 "DpiPair1Color",
	AddrDpiPair3Color:                 "DpiPair3Color",
	AddrDpiPair5Color:                 "DpiPair5Color",
	AddrDpiPair7Color:                 "DpiPair7Color",
	AddrDpiRgbLightingEffects:         "DpiRgbLightingEffects",
	AddrDpiRgbLightingEffectsCrc:      "DpiRgbLightingEffectsCrc",
	AddrDpiRgbLongBrightBrightness:    "DpiRgbLongBrightBrightness",
	AddrDpiRgbLongBrightBrightnessCrc: "DpiRgbLongBrightBrightnessCrc",
	AddrDpiRgbLongBrightSpeed:         "DpiRgbLongBrightSpeed",
	AddrDpiRgbLongBrightSpeedCrc:      "DpiRgbLongBrightSpeedCrc",
	AddrDpiRgbEnable:                  "DpiRgbEnable",
	AddrDpiRgbEnableCrc:               "DpiRgbEnableCrc",
	AddrArticleLampR:                  "ArticleLampR",
	AddrArticleLampG:                  "ArticleLampG",
	AddrArticleLampB:                  "ArticleLampB",
	AddrArticleLampCrc:                "ArticleLampCrc",
	AddrArticleLampEffects:            "ArticleLampEffects",
	AddrArticleLampEffectsCrc:         "ArticleLampEffectsCrc",
	AddrArticleLampLongBrightness:     "ArticleLampLongBrightness",
	AddrArticleLampLongBrightnessCrc:  "ArticleLampLongBrightnessCrc",
	AddrArticleLampBreathingSpeed:     "ArticleLampBreathingSpeed",
	AddrArticleLampBreathingSpeedCrc:  "ArticleLampBreathingSpeedCrc",
	AddrArticleLampEnergySaving:       "ArticleLampEnergySaving",
	AddrArticleLampEnergySavingCrc:    "ArticleLampEnergySavingCrc",
	AddrStabilizationTime:             "StabilizationTime",
	AddrStabilizationTimeCrc:          "StabilizationTimeCrc",
	AddrMotionSync:                    "MotionSync",
	AddrMotionSyncCrc:                 "MotionSyncCrc",
	AddrCloseLedTime:                  "CloseLedTime",
	AddrCloseLedTimeCrc:               "CloseLedTimeCrc",
	AddrLinearCorrection:              "LinearCorrection",
	AddrLinearCorrectionCrc:           "LinearCorrectionCrc",
	AddrRippleControl:                 "RippleControl",
	AddrRippleControlCrc:              "RippleControlCrc",
	AddrMoveCloseLights:               "MoveCloseLights",
	AddrMoveCloseLightsCrc:            "MoveCloseLightsCrc",
	AddrSensorEnable:                  "SensorEnable",
	AddrSensorEnableCrc:               "SensorEnableCrc",
	AddrSensorTime:                    "SensorTime",
	AddrSensorTimeCrc:                 "SensorTimeCrc",
	AddrSensorMode:                    "SensorMode",
	AddrSensorModeCrc:                 "SensorModeCrc",
	AddrRfTxTime:                      "RfTxTime",
	AddrRfTxTimeCrc:                   "RfTxTimeCrc",
	AddrKey0:                          "Key0",
	AddrKey1:                          "Key1",
	AddrKey2:                          "Key2",
	AddrKey3:                          "Key3",
	AddrKey4:                          "Key4",
	AddrKey5:                          "Key5",
	AddrKey6:                          "Key6",
	AddrKey7:                          "Key7",
	AddrKey8:                          "Key8",
	AddrKey9:                          "Key9",
	AddrKey10:                         "Key10",
	AddrKey11:                         "Key11",
	AddrKey12:                         "Key12",
	AddrKey13:                         "Key13",
	AddrKey14:                         "Key14",
	AddrKey15:                         "Key15",
	AddrKeyShortcuts0:                 "KeyShortcuts0",
	AddrKeyShortcuts1:                 "KeyShortcuts1",
	AddrKeyShortcuts2:                 "KeyShortcuts2",
	AddrKeyShortcuts3:                 "KeyShortcuts3",
	AddrKeyShortcuts4:                 "KeyShortcuts4",
	AddrKeyShortcuts5:                 "KeyShortcuts5",
	AddrKeyShortcuts6:                 "KeyShortcuts6",
	AddrKeyShortcuts7:                 "KeyShortcuts7",
	AddrKeyShortcuts8:                 "KeyShortcuts8",
	AddrKeyShortcuts9:                 "KeyShortcuts9",
	AddrKeyShortcuts10:                "KeyShortcuts10",
	AddrKeyShortcuts11:                "KeyShortcuts11",
	AddrKeyShortcuts12:                "KeyShortcuts12",
	AddrKeyShortcuts13:                "KeyShortcuts13",
	AddrKeyShortcuts14:                "KeyShortcuts14",
	AddrKeyShortcuts15:                "KeyShortcuts15",
	AddrMacro0:                        "Macro0",
	AddrMacro1:                        "Macro1",
	AddrMacro2:                        "Macro2",
	AddrMacro3:                        "Macro3",
	AddrMacro4:                        "Macro4",
	AddrMacro5:                        "Macro5",
	AddrMacro6:                        "Macro6",
	AddrMacro7:                        "Macro7",
	AddrMacro8:                        "Macro8",
	AddrMacro9:                        "Macro9",
	AddrMacro10:                       "Macro10",
	AddrMacro11:                       "Macro11",
	AddrMacro12:                       "Macro12",
	AddrMacro13:                       "Macro13",
	AddrMacro14:                       "Macro14",
	AddrMacro15:                       "Macro15",
}

// ParseEEPROMAddress maps a wire word to its EEPROM address. Unknown words are
// a decode error so that protocol drift is never silently misread.
func ParseEEPROMAddress(v uint16) (EEPROMAddress, error) {
	addr := EEPROMAddress(v)
	if _, ok := eepromAddressNames[addr]; !ok {
		return 0, UnknownEEPROMAddressError(v)
	}
	return addr, nil
}

func (a EEPROMAddress) String() string {
	if name, ok := eepromAddressNames[a]; ok {
		return name
	}
	return fmt.Sprintf("EEPROMAddress(0x%04x)", uint16(a))
}
