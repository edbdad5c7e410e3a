package relay

// FakeWriter is a test double that records output changes.
type FakeWriter struct {
	// Connected is the last value written.
	Connected bool

	// Writes contains every value passed to SetLoadConnected.
	Writes []bool

	// Closed tracks if Close was called
	Closed bool

	// WriteError, if set, will be returned by SetLoadConnected.
	WriteError error
}

// NewFakeWriter creates a FakeWriter with the relay open.
func NewFakeWriter() *FakeWriter {
	return &FakeWriter{}
}

// SetLoadConnected records the value.
func (f *FakeWriter) SetLoadConnected(connected bool) error {
	if f.WriteError != nil {
		return f.WriteError
	}
	f.Connected = connected
	f.Writes = append(f.Writes, connected)
	return nil
}

// Close opens the relay and marks the writer as closed.
func (f *FakeWriter) Close() error {
	f.Connected = false
	f.Closed = true
	return nil
}
