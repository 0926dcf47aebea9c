// SPDX-License-Identifier: GPL-3.0-only

// Package reportrate converts between USB polling rates in hertz and the
// divisor encoding ATK/VXE mice store in the ReportRate EEPROM register.
package reportrate

import (
	"errors"
	"fmt"
)

// The register holds 1000/rate for the rates a 1 kHz receiver supports.
const (
	Divisor125Hz  byte = 8
	Divisor250Hz  byte = 4
	Divisor500Hz  byte = 2
	Divisor1000Hz byte = 1
)

// ErrUnsupportedRate is returned for polling rates the receiver cannot run.
var ErrUnsupportedRate = errors.New("unsupported report rate")

// ErrUnknownDivisor is returned when the device reports a divisor outside the
// known encoding.
var ErrUnknownDivisor = errors.New("unknown report rate divisor")

var rateToDivisor = map[int]byte{
	125:  Divisor125Hz,
	250:  Divisor250Hz,
	500:  Divisor500Hz,
	1000: Divisor1000Hz,
}

var divisorToRate = map[byte]int{
	Divisor125Hz:  125,
	Divisor250Hz:  250,
	Divisor500Hz:  500,
	Divisor1000Hz: 1000,
}

// ToDivisor converts a polling rate in hertz to its wire divisor.
func ToDivisor(hz int) (byte, error) {
	divisor, ok := rateToDivisor[hz]
	if !ok {
		return 0, fmt.Errorf("%w: %d Hz", ErrUnsupportedRate, hz)
	}
	return divisor, nil
}

// FromDivisor converts a wire divisor back to a polling rate in hertz.
func FromDivisor(divisor byte) (int, error) {
	hz, ok := divisorToRate[divisor]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnknownDivisor, divisor)
	}
	return hz, nil
}

// Supported returns the polling rates the encoding can express, ascending.
func Supported() []int {
	return []int{125, 250, 500, 1000}
}
