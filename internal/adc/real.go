//go:build linux

package adc

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ads1x15"
	"periph.io/x/host/v3"
)

// RealConfig describes the ADS1115 wiring and the controller's raw scale.
type RealConfig struct {
	Bus           string // I2C bus name, "" for the first available
	Address       uint16
	Channel       int // single-ended input 0-3
	MaxAnalog     int
	SupplyVoltage float64
}

var channels = []ads1x15.Channel{
	ads1x15.Channel0,
	ads1x15.Channel1,
	ads1x15.Channel2,
	ads1x15.Channel3,
}

// RealReader samples an ADS1115 single-ended input.
type RealReader struct {
	bus       i2c.BusCloser
	pin       ads1x15.PinADC
	supply    float64
	maxAnalog int
}

// NewRealReader opens the I2C bus and configures the ADC channel.
func NewRealReader(cfg RealConfig) (*RealReader, error) {
	if cfg.Channel < 0 || cfg.Channel >= len(channels) {
		return nil, fmt.Errorf("invalid adc channel %d", cfg.Channel)
	}

	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init periph host: %w", err)
	}

	bus, err := i2creg.Open(cfg.Bus)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus %q: %w", cfg.Bus, err)
	}

	opts := ads1x15.DefaultOpts
	opts.I2cAddress = cfg.Address
	dev, err := ads1x15.NewADS1115(bus, &opts)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("open ads1115 at %#x: %w", cfg.Address, err)
	}

	// Full-scale range is chosen by the driver to cover the supply rail.
	fullScale := physic.ElectricPotential(cfg.SupplyVoltage * float64(physic.Volt))
	pin, err := dev.PinForChannel(channels[cfg.Channel], fullScale, 128*physic.Hertz, ads1x15.BestQuality)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("configure channel %d: %w", cfg.Channel, err)
	}

	return &RealReader{
		bus:       bus,
		pin:       pin,
		supply:    cfg.SupplyVoltage,
		maxAnalog: cfg.MaxAnalog,
	}, nil
}

// Read performs one conversion and returns it on the [0, MaxAnalog] scale.
func (r *RealReader) Read() (int, error) {
	sample, err := r.pin.Read()
	if err != nil {
		return 0, fmt.Errorf("read adc: %w", err)
	}
	volts := float64(sample.V) / float64(physic.Volt)
	return VoltsToRaw(volts, r.supply, r.maxAnalog), nil
}

// Close halts the channel and releases the bus.
func (r *RealReader) Close() error {
	var errs []error

	if r.pin != nil {
		if err := r.pin.Halt(); err != nil {
			errs = append(errs, fmt.Errorf("halt adc pin: %w", err))
		}
	}
	if r.bus != nil {
		if err := r.bus.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close i2c bus: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
