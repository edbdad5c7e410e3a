package internal

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/sweeney/battery-cutoff/internal/adc"
	"github.com/sweeney/battery-cutoff/internal/logic"
	"github.com/sweeney/battery-cutoff/internal/mqtt"
	"github.com/sweeney/battery-cutoff/internal/relay"
	"github.com/sweeney/battery-cutoff/internal/status"
	"github.com/sweeney/battery-cutoff/internal/telemetry"
)

// pipeline wires the controller to fakes the way runLoop does.
type pipeline struct {
	ctrl    *logic.Controller
	reader  *adc.FakeReader
	out     *relay.FakeWriter
	serial  *bytes.Buffer
	tw      *telemetry.Writer
	pub     *mqtt.FakePublisher
	tracker *status.Tracker
	start   time.Time
}

func newPipeline(t *testing.T, samples []int) *pipeline {
	t.Helper()
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	serial := &bytes.Buffer{}
	p := &pipeline{
		ctrl:    logic.NewController(logic.DefaultConfig(), start),
		reader:  adc.NewFakeReader(samples),
		out:     relay.NewFakeWriter(),
		serial:  serial,
		tw:      telemetry.NewWriter(serial),
		pub:     mqtt.NewFakePublisher(),
		tracker: status.NewTracker(start, status.Config{}),
		start:   start,
	}
	if err := p.tw.WriteHeader(); err != nil {
		t.Fatalf("header: %v", err)
	}
	return p
}

// interval is just over the default sample interval, so every poll decides.
const interval = time.Second + time.Millisecond

// poll simulates n polls at the given spacing.
func (p *pipeline) poll(t *testing.T, n int, every time.Duration) {
	t.Helper()
	for i := 1; i <= n; i++ {
		now := p.start.Add(time.Duration(i) * every)
		if !p.ctrl.Due(now) {
			continue
		}
		raw, err := p.reader.Read()
		if err != nil {
			t.Fatalf("poll %d: adc read error: %v", i, err)
		}
		d, err := p.ctrl.Tick(now, raw)
		if err != nil {
			t.Fatalf("poll %d: tick error: %v", i, err)
		}
		if err := p.out.SetLoadConnected(d.Connect); err != nil {
			t.Fatalf("poll %d: relay error: %v", i, err)
		}
		if err := p.tw.Write(d.Telemetry); err != nil {
			t.Fatalf("poll %d: telemetry error: %v", i, err)
		}
		if d.Changed {
			p.pub.PublishEvent(*d)
		}
		p.pub.Publish(*d)
		p.tracker.Update(*d, p.ctrl.HasDroppedLow(), p.ctrl.CountsSnapshot())
	}
}

func relayToggles(writes []bool) int {
	n := 0
	for i := 1; i < len(writes); i++ {
		if writes[i] != writes[i-1] {
			n++
		}
	}
	return n
}

// TestIntegrationNoisyThreshold feeds a discharge that hovers around the
// cutoff with ±1 LSB noise, then a recharge. The relay must switch exactly
// twice after the initial connect, while every dip back below the cutoff
// still counts as a drop edge.
func TestIntegrationNoisyThreshold(t *testing.T) {
	var samples []int
	for raw := 1023; raw > 460; raw -= 40 {
		samples = append(samples, raw)
	}
	// 450 = 2.199V (below), 451 = 2.204V (above); noise straddles the cutoff.
	for i := 0; i < 20; i++ {
		samples = append(samples, 450+i%2, 451-i%2)
	}
	for raw := 452; raw <= 1023; raw += 25 {
		samples = append(samples, raw)
	}

	p := newPipeline(t, samples)
	p.poll(t, len(samples), interval)

	if got := len(p.out.Writes); got != len(samples) {
		t.Fatalf("expected %d relay writes, got %d", len(samples), got)
	}
	if got := relayToggles(p.out.Writes); got != 2 {
		t.Errorf("expected 2 relay toggles, got %d", got)
	}
	// 11 dips below the cutoff plus one recovery
	if got := p.ctrl.Oscillations(); got != 12 {
		t.Errorf("expected 12 oscillations, got %d", got)
	}

	// initial connect, drop, recover
	if len(p.pub.Events) != 3 {
		t.Fatalf("expected 3 load events, got %d", len(p.pub.Events))
	}
	var ev mqtt.EventPayload
	if err := json.Unmarshal(p.pub.EventPayloads[1], &ev); err != nil {
		t.Fatalf("unmarshal event: %v", err)
	}
	if ev.Load.Event != mqtt.EventLoadDisconnected || ev.Load.Transition != "DROP" {
		t.Errorf("unexpected drop event %+v", ev.Load)
	}

	snap := p.tracker.Snapshot()
	if snap.State != logic.StateEngaged || snap.HasDroppedLow {
		t.Errorf("expected recovered tracker state, got %+v", snap)
	}
	if snap.Counts.Drops != 11 || snap.Counts.Recovers != 1 {
		t.Errorf("unexpected counts %+v", snap.Counts)
	}
}

// TestIntegrationRepeatedCycles runs several full discharge/recharge cycles.
func TestIntegrationRepeatedCycles(t *testing.T) {
	var samples []int
	for c := 0; c < 5; c++ {
		samples = append(samples, 900, 600, 440, 400, 455, 465, 470, 481, 700)
	}

	p := newPipeline(t, samples)
	p.poll(t, len(samples), interval)

	if got := p.ctrl.Oscillations(); got != 10 {
		t.Errorf("expected 10 oscillations, got %d", got)
	}
	if got := relayToggles(p.out.Writes); got != 10 {
		t.Errorf("expected 10 relay toggles, got %d", got)
	}
}

// TestIntegrationFastPollingOneDecisionPerInterval polls ten times per interval.
func TestIntegrationFastPollingOneDecisionPerInterval(t *testing.T) {
	p := newPipeline(t, []int{1023, 440, 480})
	p.poll(t, 35, 100*time.Millisecond)

	if p.reader.Reads != 3 {
		t.Errorf("expected 3 ADC reads, got %d", p.reader.Reads)
	}

	lines := strings.Split(strings.TrimSuffix(p.serial.String(), "\r\n"), "\r\n")
	want := []string{
		telemetry.Banner,
		telemetry.Header,
		"1100,5.000,0",
		"2200,2.151,1",
		"3300,2.346,2",
	}
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %d: %q", len(want), len(lines), lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d: got %q, want %q", i, lines[i], want[i])
		}
	}
}
