//go:build !linux

package adc

import "errors"

// RealConfig describes the ADS1115 wiring and the controller's raw scale.
type RealConfig struct {
	Bus           string
	Address       uint16
	Channel       int
	MaxAnalog     int
	SupplyVoltage float64
}

// RealReader is not available on non-Linux platforms.
type RealReader struct{}

// NewRealReader returns an error on non-Linux platforms.
func NewRealReader(cfg RealConfig) (*RealReader, error) {
	return nil, errors.New("adc: not supported on this platform (requires Linux)")
}

// Read is not implemented on non-Linux platforms.
func (r *RealReader) Read() (int, error) {
	return 0, errors.New("adc: not supported")
}

// Close is not implemented on non-Linux platforms.
func (r *RealReader) Close() error {
	return nil
}
