package service

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/volley-protocol/volley-go/pkg/launcher"
	"github.com/volley-protocol/volley-go/pkg/log"
	"github.com/volley-protocol/volley-go/pkg/transport"
)

// Config configures a LauncherService.
type Config struct {
	// Name is the user-facing launcher name, also used as the mDNS
	// instance name.
	Name string `yaml:"name"`

	// Model is the hardware model designation.
	Model string `yaml:"model"`

	// SerialNumber identifies this unit in advertisements and log
	// events.
	SerialNumber string `yaml:"serial_number"`

	// ListenAddress is the control listener address (e.g. ":8617").
	ListenAddress string `yaml:"listen_address"`

	// PanelAddress is the browser panel address (e.g. ":8080").
	// Empty disables the panel.
	PanelAddress string `yaml:"panel_address"`

	// Timings holds the firing state machine configuration.
	Timings launcher.Config `yaml:"timings"`

	// TickInterval is the control loop poll period. Zero means
	// launcher.DefaultTickInterval.
	TickInterval time.Duration `yaml:"tick_interval"`

	// DisableDiscovery turns mDNS advertising off.
	DisableDiscovery bool `yaml:"disable_discovery"`

	// Logger receives protocol events (optional).
	Logger log.Logger `yaml:"-"`
}

// applyDefaults fills zero fields with usable values.
func (c *Config) applyDefaults() {
	if c.Name == "" {
		c.Name = "Volley Launcher"
	}
	if c.Model == "" {
		c.Model = "volley"
	}
	if c.ListenAddress == "" {
		c.ListenAddress = fmt.Sprintf(":%d", transport.DefaultPort)
	}
	if c.Logger == nil {
		c.Logger = &log.NoopLogger{}
	}
}

// Validate checks the configuration. Timings are validated by the
// controller itself; this covers the service-level fields.
func (c *Config) Validate() error {
	if c.SerialNumber == "" {
		return fmt.Errorf("%w: serial number required", ErrInvalidConfig)
	}
	if c.TickInterval < 0 {
		return fmt.Errorf("%w: tick interval must not be negative", ErrInvalidConfig)
	}
	return nil
}

// ParseConfig decodes a YAML service configuration. Unknown keys are
// rejected so a typo in a config file fails loudly instead of silently
// running with a default.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// LoadConfig loads and parses a YAML service configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return ParseConfig(data)
}
