// Command battery-cutoff samples a battery voltage and disconnects the load
// through a relay before the battery is damaged, reconnecting it with hysteresis.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/battery-cutoff/internal/adc"
	"github.com/sweeney/battery-cutoff/internal/config"
	"github.com/sweeney/battery-cutoff/internal/logic"
	"github.com/sweeney/battery-cutoff/internal/mqtt"
	"github.com/sweeney/battery-cutoff/internal/relay"
	"github.com/sweeney/battery-cutoff/internal/status"
	"github.com/sweeney/battery-cutoff/internal/telemetry"
	"github.com/sweeney/battery-cutoff/internal/web"
)

func main() {
	configPath := flag.String("config", "/etc/battery-cutoff.yaml", "Path to YAML config (defaults are used if missing)")
	printState := flag.Bool("print-state", false, "Print current voltage and exit")
	writeConfig := flag.String("write-config", "", "Write the effective config to this path and exit")

	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}

	if *writeConfig != "" {
		if err := cfg.Save(*writeConfig); err != nil {
			log.Fatalf("fatal: %v", err)
		}
		return
	}

	if err := run(cfg, *printState); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(cfg *config.Config, printState bool) error {
	lc := cfg.Logic()

	// Initialize ADC
	reader, err := adc.NewRealReader(adc.RealConfig{
		Bus:           cfg.ADC.Bus,
		Address:       cfg.ADC.Address,
		Channel:       cfg.ADC.Channel,
		MaxAnalog:     lc.MaxAnalog,
		SupplyVoltage: lc.SupplyVoltage,
	})
	if err != nil {
		return fmt.Errorf("init adc: %w", err)
	}
	defer reader.Close()

	// Print state mode
	if printState {
		raw, err := reader.Read()
		if err != nil {
			return fmt.Errorf("read adc: %w", err)
		}
		v := logic.NewController(lc, time.Now()).Scale(raw)
		fmt.Printf("raw: %d, voltage: %.3f V, cutoff: %.3f V\n", raw, v, lc.Cutoff)
		return nil
	}

	// Relay lines start low: load disconnected until the first decision.
	out, err := relay.NewRealWriter(cfg.Relay.Chip, cfg.Relay.Pin, cfg.Relay.LEDPin)
	if err != nil {
		return fmt.Errorf("init relay: %w", err)
	}
	defer func() {
		if err := out.Close(); err != nil {
			log.Printf("relay close: %v", err)
		}
	}()

	// Telemetry stream
	tw := telemetry.NewWriter(os.Stdout)
	if cfg.Serial.Port != "" {
		tw, err = telemetry.OpenSerial(cfg.Serial.Port, cfg.Serial.BaudRate)
		if err != nil {
			return fmt.Errorf("init telemetry: %w", err)
		}
	}
	defer tw.Close()

	tracker := status.NewTracker(time.Now(), status.Config{
		PollMs:           cfg.Poll.Milliseconds(),
		SampleIntervalMs: lc.SampleInterval.Milliseconds(),
		Cutoff:           lc.Cutoff,
		TogglePoint:      lc.TogglePoint,
		HeartbeatMs:      cfg.MQTT.Heartbeat.Milliseconds(),
		Broker:           cfg.MQTT.Broker,
		HTTPAddr:         cfg.HTTP.Addr,
		SerialPort:       cfg.Serial.Port,
	})

	// Initialize MQTT (optional)
	var publisher mqtt.Publisher
	var mqttStatus mqtt.ConnectionStatus
	if cfg.MQTT.Broker != "" {
		p, err := mqtt.NewRealPublisher(cfg.MQTT.Broker, cfg.MQTT.ClientID, cfg.MQTT.BufferSize)
		if err != nil {
			return fmt.Errorf("init mqtt: %w", err)
		}
		defer p.Close()
		publisher, mqttStatus = p, p

		tracker.SetMQTTConnected(p.IsConnected())
		snap := tracker.Snapshot()
		startupEvent := mqtt.SystemEvent{
			Timestamp:  snap.Now,
			Event:      "STARTUP",
			Retained:   true,
			RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
		}
		if err := publisher.PublishSystem(startupEvent); err != nil {
			log.Printf("failed to publish startup event: %v", err)
		} else {
			log.Printf("published startup event")
		}
	}

	// Start HTTP status server
	if cfg.HTTP.Addr != "" {
		srv := web.New(cfg.HTTP.Addr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", cfg.HTTP.Addr)
	}

	log.Printf("started: cutoff=%.3fV toggle=%.3fV interval=%v poll=%v broker=%q heartbeat=%v",
		lc.Cutoff, lc.TogglePoint, lc.SampleInterval, cfg.Poll, cfg.MQTT.Broker, cfg.MQTT.Heartbeat)

	ticker := time.NewTicker(cfg.Poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(lc, reader, out, tw, publisher, mqttStatus, tracker, cfg.MQTT.Heartbeat, time.Now, ticker.C, sigCh)
}

func runLoop(lc logic.Config, reader adc.Reader, out relay.Writer, tw *telemetry.Writer, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, heartbeat time.Duration, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	ctrl := logic.NewController(lc, now())

	if err := tw.WriteHeader(); err != nil {
		log.Printf("telemetry error: %v", err)
	}

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			if publisher == nil {
				return nil
			}
			signalName := signalString(s)
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if tracker != nil {
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
				event.RawPayload = status.FormatStatusEvent(tracker.Snapshot(), "SHUTDOWN", signalName)
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case <-tick:
			t := now()
			if !ctrl.Due(t) {
				continue
			}

			raw, err := reader.Read()
			if err != nil {
				log.Printf("adc read error: %v", err)
				continue
			}

			d, err := ctrl.Tick(t, raw)
			if err != nil {
				log.Printf("sample skipped: %v", err)
				if tracker != nil {
					tracker.SetCounts(ctrl.CountsSnapshot())
				}
				continue
			}
			if d == nil {
				continue
			}

			// Driven every decision so a failed write is retried next interval.
			if err := out.SetLoadConnected(d.Connect); err != nil {
				log.Printf("relay write error: %v", err)
			}

			if err := tw.Write(d.Telemetry); err != nil {
				log.Printf("telemetry error: %v", err)
			}

			if d.Changed {
				log.Printf("load %s: voltage=%.3fV transition=%q oscillations=%d",
					d.State, d.Telemetry.Voltage, d.Transition, d.Telemetry.Oscillations)
			}

			if publisher != nil {
				if d.Changed {
					if err := publisher.PublishEvent(*d); err != nil {
						log.Printf("publish event error: %v", err)
					}
				}
				if err := publisher.Publish(*d); err != nil {
					log.Printf("publish error: %v", err)
				}
			}

			// Update status tracker for HTTP consumers
			if tracker != nil {
				tracker.Update(*d, ctrl.HasDroppedLow(), ctrl.CountsSnapshot())
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
			}

			// Check for heartbeat
			if hbData := ctrl.CheckHeartbeat(t, heartbeat); hbData != nil && publisher != nil {
				log.Printf("heartbeat: uptime=%v state=%s voltage=%.3fV oscillations=%d decisions=%d",
					hbData.Uptime, hbData.State, hbData.Voltage, hbData.Oscillations, hbData.Counts.Decisions)

				hbEvent := mqtt.SystemEvent{
					Timestamp: hbData.Timestamp,
					Event:     "HEARTBEAT",
				}
				if tracker != nil {
					hbEvent.RawPayload = status.FormatStatusEvent(tracker.Snapshot(), "HEARTBEAT", "")
				}
				if err := publisher.PublishSystem(hbEvent); err != nil {
					log.Printf("heartbeat publish error: %v", err)
				}
			}
		}
	}
}

func signalString(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}
