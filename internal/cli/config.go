package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	defaultLogLevel        = "warning"
	defaultPollBufferSize  = 128
	defaultSignalBatchSize = 16
)

// Config is the optional YAML config file of the reactor command.
type Config struct {
	LogLevel        string `yaml:"log_level"`
	PollBufferSize  int    `yaml:"poll_buffer_size"`
	SignalBatchSize int    `yaml:"signal_batch_size"`
}

// DefaultConfig returns the config used when no file is given.
func DefaultConfig() Config {
	return Config{
		LogLevel:        defaultLogLevel,
		PollBufferSize:  defaultPollBufferSize,
		SignalBatchSize: defaultSignalBatchSize,
	}
}

// LoadConfig reads a config file, applying defaults for omitted fields.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file: %w", err)
	}
	return &cfg, nil
}

// Validate checks the config values.
func (x *Config) Validate() error {
	if _, err := parseLevel(x.LogLevel); err != nil {
		return err
	}
	if x.PollBufferSize <= 0 {
		return fmt.Errorf("poll_buffer_size must be positive, got %d", x.PollBufferSize)
	}
	if x.SignalBatchSize <= 0 {
		return fmt.Errorf("signal_batch_size must be positive, got %d", x.SignalBatchSize)
	}
	return nil
}
