// Package relay drives the load relay and its indicator LED.
// The real implementation uses Linux GPIO character device.
// The fake implementation allows testing without hardware.
package relay

// Writer sets the load connection output.
type Writer interface {
	// SetLoadConnected closes the relay and lights the indicator when true,
	// opens the relay and darkens the indicator when false.
	SetLoadConnected(connected bool) error

	// Close opens the relay and releases GPIO resources.
	Close() error
}

// Pin definitions (BCM numbering)
const (
	DefaultPinRelay = 17
	DefaultPinLED   = 27
	NoPin           = -1 // disables the indicator LED
)
