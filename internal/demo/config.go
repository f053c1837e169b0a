package demo

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Config sizes the producer/consumer workload.
type Config struct {
	Producers  int `toml:"producers"`
	Consumers  int `toml:"consumers"`
	BufferSize int `toml:"buffer_size"`
	// Items is the number of items each producer emits.
	Items     int `toml:"items"`
	StackSize int `toml:"stack_size"`
}

// DefaultConfig returns one producer, one consumer, a 5-slot buffer and
// four items.
func DefaultConfig() Config {
	return Config{
		Producers:  1,
		Consumers:  1,
		BufferSize: 5,
		Items:      4,
	}
}

// LoadConfig decodes a TOML file on top of DefaultConfig. Unknown keys are
// rejected.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return cfg, fmt.Errorf("load config %s: unknown key %q", path, undecoded[0].String())
	}
	return cfg, cfg.Validate()
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	switch {
	case c.Producers < 1:
		return fmt.Errorf("producers must be at least 1, got %d", c.Producers)
	case c.Consumers < 1:
		return fmt.Errorf("consumers must be at least 1, got %d", c.Consumers)
	case c.BufferSize < 1:
		return fmt.Errorf("buffer_size must be at least 1, got %d", c.BufferSize)
	case c.Items < 0:
		return fmt.Errorf("items must not be negative, got %d", c.Items)
	case c.StackSize < 0:
		return fmt.Errorf("stack_size must not be negative, got %d", c.StackSize)
	}
	return nil
}
