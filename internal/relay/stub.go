//go:build !linux

package relay

import "errors"

// RealWriter is not available on non-Linux platforms.
type RealWriter struct{}

// NewRealWriter returns an error on non-Linux platforms.
func NewRealWriter(chipName string, relayPin, ledPin int) (*RealWriter, error) {
	return nil, errors.New("relay: not supported on this platform (requires Linux)")
}

// SetLoadConnected is not implemented on non-Linux platforms.
func (w *RealWriter) SetLoadConnected(connected bool) error {
	return errors.New("relay: not supported")
}

// Close is not implemented on non-Linux platforms.
func (w *RealWriter) Close() error {
	return nil
}
