// Package config loads the daemon configuration from YAML.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/battery-cutoff/internal/adc"
	"github.com/sweeney/battery-cutoff/internal/logic"
	"github.com/sweeney/battery-cutoff/internal/relay"
	"github.com/sweeney/battery-cutoff/internal/telemetry"
)

// Config represents the daemon configuration.
type Config struct {
	Poll       time.Duration    `yaml:"poll"` // loop polling interval
	Controller ControllerConfig `yaml:"controller"`
	ADC        ADCConfig        `yaml:"adc"`
	Relay      RelayConfig      `yaml:"relay"`
	Serial     SerialConfig     `yaml:"serial"`
	MQTT       MQTTConfig       `yaml:"mqtt"`
	HTTP       HTTPConfig       `yaml:"http"`
}

// ControllerConfig contains the cutoff policy parameters.
type ControllerConfig struct {
	Cutoff         float64       `yaml:"cutoff"`       // volts
	TogglePoint    float64       `yaml:"toggle_point"` // volts above cutoff
	SampleInterval time.Duration `yaml:"sample_interval"`
	MaxAnalog      int           `yaml:"max_analog"`
	SupplyVoltage  float64       `yaml:"supply_voltage"`
}

// ADCConfig describes the ADS1115 wiring.
type ADCConfig struct {
	Bus     string `yaml:"bus"`
	Address uint16 `yaml:"address"`
	Channel int    `yaml:"channel"`
}

// RelayConfig contains GPIO output lines (BCM numbering, -1 disables the LED).
type RelayConfig struct {
	Chip   string `yaml:"chip"`
	Pin    int    `yaml:"pin"`
	LEDPin int    `yaml:"led_pin"`
}

// SerialConfig contains the telemetry port. An empty port writes to stdout.
type SerialConfig struct {
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`
}

// MQTTConfig contains broker settings. An empty broker disables MQTT.
type MQTTConfig struct {
	Broker     string        `yaml:"broker"`
	ClientID   string        `yaml:"client_id"`
	Heartbeat  time.Duration `yaml:"heartbeat"` // 0 disables
	BufferSize int           `yaml:"buffer_size"`
}

// HTTPConfig contains the status server address. Empty disables it.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns a default configuration matching the reference hardware.
func Default() *Config {
	lc := logic.DefaultConfig()
	return &Config{
		Poll: 100 * time.Millisecond,
		Controller: ControllerConfig{
			Cutoff:         lc.Cutoff,
			TogglePoint:    lc.TogglePoint,
			SampleInterval: lc.SampleInterval,
			MaxAnalog:      lc.MaxAnalog,
			SupplyVoltage:  lc.SupplyVoltage,
		},
		ADC: ADCConfig{
			Bus:     adc.DefaultBus,
			Address: adc.DefaultAddress,
			Channel: adc.DefaultChannel,
		},
		Relay: RelayConfig{
			Chip:   "gpiochip0",
			Pin:    relay.DefaultPinRelay,
			LEDPin: relay.DefaultPinLED,
		},
		Serial: SerialConfig{
			Port:     "",
			BaudRate: telemetry.DefaultBaudRate,
		},
		MQTT: MQTTConfig{
			Broker:     "tcp://192.168.1.200:1883",
			ClientID:   "battery-cutoff",
			Heartbeat:  15 * time.Minute,
			BufferSize: 100,
		},
		HTTP: HTTPConfig{
			Addr: ":80",
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Logic returns the controller parameters.
func (c *Config) Logic() logic.Config {
	return logic.Config{
		Cutoff:         c.Controller.Cutoff,
		TogglePoint:    c.Controller.TogglePoint,
		SampleInterval: c.Controller.SampleInterval,
		MaxAnalog:      c.Controller.MaxAnalog,
		SupplyVoltage:  c.Controller.SupplyVoltage,
	}
}

// Validate checks the controller parameters and loop settings.
func (c *Config) Validate() error {
	if err := c.Logic().Validate(); err != nil {
		return err
	}
	if c.Poll <= 0 {
		return fmt.Errorf("poll must be positive, got %v", c.Poll)
	}
	if c.Poll > c.Controller.SampleInterval {
		return fmt.Errorf("poll %v must not exceed sample interval %v", c.Poll, c.Controller.SampleInterval)
	}
	if c.ADC.Channel < 0 || c.ADC.Channel > 3 {
		return fmt.Errorf("adc channel must be 0-3, got %d", c.ADC.Channel)
	}
	return nil
}

// ensureDefaults fills zero values that have no meaning with defaults.
// TogglePoint and pin numbers are left alone: zero is a valid setting for them.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Poll == 0 {
		c.Poll = def.Poll
	}

	if c.Controller.Cutoff == 0 {
		c.Controller.Cutoff = def.Controller.Cutoff
	}
	if c.Controller.SampleInterval == 0 {
		c.Controller.SampleInterval = def.Controller.SampleInterval
	}
	if c.Controller.MaxAnalog == 0 {
		c.Controller.MaxAnalog = def.Controller.MaxAnalog
	}
	if c.Controller.SupplyVoltage == 0 {
		c.Controller.SupplyVoltage = def.Controller.SupplyVoltage
	}

	if c.ADC.Address == 0 {
		c.ADC.Address = def.ADC.Address
	}

	if c.Relay.Chip == "" {
		c.Relay.Chip = def.Relay.Chip
	}

	if c.Serial.BaudRate == 0 {
		c.Serial.BaudRate = def.Serial.BaudRate
	}

	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = def.MQTT.ClientID
	}
	if c.MQTT.BufferSize == 0 {
		c.MQTT.BufferSize = def.MQTT.BufferSize
	}
}
