// Package telemetry writes the CSV decision stream to a serial line.
//
// The stream starts with a banner and a header line, then carries one
// record per decision:
//
//	Initialised...
//	time,voltage,hasdropped
//	1001,5.000,0
//	2002,2.151,1
//
// The third column is the oscillation count; its header name is kept for
// compatibility with existing log consumers.
package telemetry

import (
	"fmt"
	"io"
	"strconv"

	"go.bug.st/serial"

	"github.com/sweeney/battery-cutoff/internal/logic"
)

const (
	// Banner is written once when the stream opens.
	Banner = "Initialised..."
	// Header names the record columns.
	Header = "time,voltage,hasdropped"
	// DefaultBaudRate matches the reference firmware.
	DefaultBaudRate = 9600

	lineEnd = "\r\n"
)

// FormatLine renders one record without the line terminator.
func FormatLine(t logic.Telemetry) string {
	return strconv.FormatInt(t.Millis, 10) + "," +
		strconv.FormatFloat(t.Voltage, 'f', 3, 64) + "," +
		strconv.FormatUint(uint64(t.Oscillations), 10)
}

// Writer emits telemetry lines to an underlying stream.
// Not safe for concurrent use.
type Writer struct {
	w      io.Writer
	closer io.Closer
}

// NewWriter wraps w. Close on the returned Writer does not close w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// OpenSerial opens the named serial port at the given baud rate.
func OpenSerial(port string, baudRate int) (*Writer, error) {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	p, err := serial.Open(port, &serial.Mode{BaudRate: baudRate})
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", port, err)
	}
	return &Writer{w: p, closer: p}, nil
}

// WriteHeader writes the banner and column header.
func (w *Writer) WriteHeader() error {
	if _, err := io.WriteString(w.w, Banner+lineEnd+Header+lineEnd); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	return nil
}

// Write emits one record.
func (w *Writer) Write(t logic.Telemetry) error {
	if _, err := io.WriteString(w.w, FormatLine(t)+lineEnd); err != nil {
		return fmt.Errorf("write telemetry: %w", err)
	}
	return nil
}

// Close closes the serial port, if the Writer owns one.
func (w *Writer) Close() error {
	if w.closer == nil {
		return nil
	}
	return w.closer.Close()
}
