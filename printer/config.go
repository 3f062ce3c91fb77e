package printer

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultWidth is the character width of an 80mm thermal roll.
const DefaultWidth = 42

// Config maps devices to CUPS printer names and sets the receipt layout.
type Config struct {
	Printers map[string]string `yaml:"printers"`
	Width    int               `yaml:"width"`
	Timezone string            `yaml:"timezone"`
	Timeout  time.Duration     `yaml:"timeout"`

	location *time.Location
}

// LoadConfig reads the YAML file at path. When path is empty the fallback
// device->printer map is used with default layout settings.
func LoadConfig(path string, fallback map[string]string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read printer config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse printer config: %w", err)
		}
	}
	if len(cfg.Printers) == 0 {
		cfg.Printers = make(map[string]string, len(fallback))
		for device, name := range fallback {
			cfg.Printers[device] = name
		}
	}
	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() error {
	if c.Width <= 0 {
		c.Width = DefaultWidth
	}
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
	c.location = time.Local
	if c.Timezone != "" {
		loc, err := time.LoadLocation(c.Timezone)
		if err != nil {
			return fmt.Errorf("invalid printer timezone %q: %w", c.Timezone, err)
		}
		c.location = loc
	}
	return nil
}

// Location is the zone receipt dates are printed in.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.Local
	}
	return c.location
}

// PrinterFor returns the printer configured for deviceID.
func (c *Config) PrinterFor(deviceID string) (string, bool) {
	name, ok := c.Printers[deviceID]
	return name, ok && name != ""
}
