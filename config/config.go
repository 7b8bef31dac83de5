// Package config loads the daemon configuration and owns the modem's
// physical-layer tunables.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ystepanoff/acomm/driver/serial"
	"github.com/ystepanoff/acomm/param"
	proto "github.com/ystepanoff/acomm/protocol"
)

type Config struct {
	Modem     ModemConfig     `yaml:"modem"`
	Transport TransportConfig `yaml:"transport"`
	Storage   StorageConfig   `yaml:"storage"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
}

// ModemConfig seeds the registry. The framing parameters belong to the
// protocol package and are applied after it has registered them.
type ModemConfig struct {
	ID              uint8  `yaml:"id"`
	Stationary      bool   `yaml:"stationary"`
	ErrorCorrection string `yaml:"error_correction"`
	Device          `yaml:",inline"`
}

type TransportConfig struct {
	Driver      string        `yaml:"driver"` // stub or serial
	Serial      serial.Config `yaml:"serial"`
	QueueLength int           `yaml:"queue_length"`
	Content     string        `yaml:"content"`
	PayloadBits []int         `yaml:"payload_bits"`
}

type StorageConfig struct {
	Backend     string `yaml:"backend"` // none, leveldb or yaml
	Path        string `yaml:"path"`
	LoadOnStart bool   `yaml:"load_on_start"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

type MQTTConfig struct {
	Enabled        bool          `yaml:"enabled"`
	Broker         string        `yaml:"broker"`
	Username       string        `yaml:"username"`
	Password       string        `yaml:"password"`
	TopicPrefix    string        `yaml:"topic_prefix"`
	QoS            byte          `yaml:"qos"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

func Default() *Config {
	return &Config{
		Modem: ModemConfig{
			ErrorCorrection: proto.DefaultMethod.String(),
			Device:          DefaultDevice(),
		},
		Transport: TransportConfig{
			Driver:      "stub",
			QueueLength: 16,
			Content:     proto.ContentString.String(),
		},
		Storage: StorageConfig{Backend: "none"},
		Metrics: MetricsConfig{Listen: ":9108"},
		MQTT: MQTTConfig{
			TopicPrefix:    "acomm",
			ConnectTimeout: 10 * time.Second,
		},
	}
}

// Load reads a YAML file over the defaults and validates the result.
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if _, err := proto.ParseMethod(c.Modem.ErrorCorrection); err != nil {
		return fmt.Errorf("modem.error_correction: %w", err)
	}
	r, err := param.New()
	if err != nil {
		return err
	}
	dev := c.Modem.Device
	if err := dev.RegisterParams(r); err != nil {
		return fmt.Errorf("modem: %w", err)
	}

	switch c.Transport.Driver {
	case "stub":
	case "serial":
		if c.Transport.Serial.Device == "" {
			return fmt.Errorf("%w: transport.serial.device is required", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: transport.driver %q", ErrInvalidConfig, c.Transport.Driver)
	}
	if c.Transport.QueueLength < 1 {
		return fmt.Errorf("%w: transport.queue_length must be positive", ErrInvalidConfig)
	}
	if _, err := proto.ParseContentType(c.Transport.Content); err != nil {
		return fmt.Errorf("transport.content: %w", err)
	}
	for _, n := range c.Transport.PayloadBits {
		if n < 1 || n > proto.MaxPacketBits {
			return fmt.Errorf("%w: transport.payload_bits entry %d", ErrInvalidConfig, n)
		}
	}

	switch c.Storage.Backend {
	case "none":
	case "leveldb", "yaml":
		if c.Storage.Path == "" {
			return fmt.Errorf("%w: storage.path is required for %s", ErrInvalidConfig, c.Storage.Backend)
		}
	default:
		return fmt.Errorf("%w: storage.backend %q", ErrInvalidConfig, c.Storage.Backend)
	}

	if c.Metrics.Enabled && c.Metrics.Listen == "" {
		return fmt.Errorf("%w: metrics.listen is required", ErrInvalidConfig)
	}
	if c.MQTT.Enabled {
		if c.MQTT.Broker == "" {
			return fmt.Errorf("%w: mqtt.broker is required", ErrInvalidConfig)
		}
		if c.MQTT.QoS > 2 {
			return fmt.Errorf("%w: mqtt.qos %d", ErrInvalidConfig, c.MQTT.QoS)
		}
	}
	return nil
}

// Apply writes the framing settings into a registry on which the protocol
// package has registered its parameters.
func (m ModemConfig) Apply(r *param.Registry) error {
	method, err := proto.ParseMethod(m.ErrorCorrection)
	if err != nil {
		return err
	}
	var stationary uint8
	if m.Stationary {
		stationary = 1
	}
	if err := r.SetUint8(param.ModemID, m.ID); err != nil {
		return err
	}
	if err := r.SetUint8(param.StationaryFlag, stationary); err != nil {
		return err
	}
	return r.SetUint8(param.ErrorCorrection, uint8(method))
}
