// Package adc provides raw supply voltage sampling with hardware abstraction.
// The real implementation uses an ADS1115 over I2C via periph.io.
// The fake implementation allows testing without hardware.
package adc

import "math"

// Reader samples the supply voltage.
type Reader interface {
	// Read returns one raw sample on the controller's [0, MaxAnalog] scale.
	Read() (int, error)

	// Close releases ADC resources.
	Close() error
}

// Defaults for the ADS1115 breakout (ADDR pin tied to GND).
const (
	DefaultBus     = ""
	DefaultAddress = 0x48
	DefaultChannel = 0
)

// VoltsToRaw re-expresses a measured voltage as counts of maxAnalog relative
// to supply. Like a converter whose reference is the supply rail, it
// saturates: readings above the rail give maxAnalog and negative readings
// give 0.
func VoltsToRaw(volts, supply float64, maxAnalog int) int {
	raw := int(math.Round(volts / supply * float64(maxAnalog)))
	if raw < 0 {
		return 0
	}
	if raw > maxAnalog {
		return maxAnalog
	}
	return raw
}
