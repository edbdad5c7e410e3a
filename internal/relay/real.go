//go:build linux

package relay

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealWriter drives the relay and LED through the Linux GPIO character device.
type RealWriter struct {
	chip     *gpiocdev.Chip
	relayPin *gpiocdev.Line
	ledPin   *gpiocdev.Line
}

// NewRealWriter requests the relay line (and the LED line unless ledPin is NoPin)
// as outputs driven low, so the load starts disconnected.
func NewRealWriter(chipName string, relayPin, ledPin int) (*RealWriter, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	relayLine, err := chip.RequestLine(relayPin, gpiocdev.AsOutput(0), gpiocdev.WithConsumer("battery-cutoff"))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request relay pin %d: %w", relayPin, err)
	}

	w := &RealWriter{chip: chip, relayPin: relayLine}

	if ledPin != NoPin {
		ledLine, err := chip.RequestLine(ledPin, gpiocdev.AsOutput(0), gpiocdev.WithConsumer("battery-cutoff"))
		if err != nil {
			relayLine.Close()
			chip.Close()
			return nil, fmt.Errorf("request led pin %d: %w", ledPin, err)
		}
		w.ledPin = ledLine
	}

	return w, nil
}

// SetLoadConnected drives relay and LED high when connected, low otherwise.
func (w *RealWriter) SetLoadConnected(connected bool) error {
	v := 0
	if connected {
		v = 1
	}

	if err := w.relayPin.SetValue(v); err != nil {
		return fmt.Errorf("set relay pin: %w", err)
	}
	if w.ledPin != nil {
		if err := w.ledPin.SetValue(v); err != nil {
			return fmt.Errorf("set led pin: %w", err)
		}
	}
	return nil
}

// Close opens the relay, turns the LED off and releases the lines.
// The load is left disconnected once nothing is monitoring the battery.
func (w *RealWriter) Close() error {
	var errs []error

	if w.relayPin != nil {
		if err := w.relayPin.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("open relay: %w", err))
		}
		if err := w.relayPin.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close relay pin: %w", err))
		}
	}
	if w.ledPin != nil {
		if err := w.ledPin.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("led off: %w", err))
		}
		if err := w.ledPin.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close led pin: %w", err))
		}
	}
	if w.chip != nil {
		if err := w.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
