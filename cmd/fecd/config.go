package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fecviz/feccore/fec"
)

// Config is the fecd service configuration, loaded from a YAML file with
// every field optional.
type Config struct {
	Addr string `yaml:"addr"`

	LDPC struct {
		FlipProb float64 `yaml:"flip_prob"`
		MaxIter  int     `yaml:"max_iter"`
		Damping  float64 `yaml:"damping"`
	} `yaml:"ldpc"`

	Polar struct {
		ErasureProb float64 `yaml:"erasure_prob"`
	} `yaml:"polar"`

	Limits struct {
		// MaxBodyBytes bounds a single API request body.
		MaxBodyBytes int64 `yaml:"max_body_bytes"`
		// MaxWordLen bounds codeword and matrix dimensions in requests.
		MaxWordLen int `yaml:"max_word_len"`
	} `yaml:"limits"`
}

func defaultConfig() *Config {
	cfg := &Config{Addr: ":8080"}
	cfg.LDPC.FlipProb = 0.1
	cfg.LDPC.MaxIter = 20
	cfg.LDPC.Damping = fec.DefaultLDPCDamping
	cfg.Polar.ErasureProb = 0.5
	cfg.Limits.MaxBodyBytes = 1 << 20
	cfg.Limits.MaxWordLen = 4096
	return cfg
}

// loadConfig reads path over the defaults; an empty path returns the defaults.
func loadConfig(path string) (*Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr must not be empty")
	}
	if c.LDPC.FlipProb <= 0 || c.LDPC.FlipProb >= 0.5 {
		return fmt.Errorf("ldpc.flip_prob %g outside (0, 0.5)", c.LDPC.FlipProb)
	}
	if c.LDPC.MaxIter <= 0 {
		return fmt.Errorf("ldpc.max_iter must be positive")
	}
	if c.LDPC.Damping <= 0 || c.LDPC.Damping > 1 {
		return fmt.Errorf("ldpc.damping %g outside (0, 1]", c.LDPC.Damping)
	}
	if c.Polar.ErasureProb <= 0 || c.Polar.ErasureProb >= 1 {
		return fmt.Errorf("polar.erasure_prob %g outside (0, 1)", c.Polar.ErasureProb)
	}
	if c.Limits.MaxBodyBytes <= 0 || c.Limits.MaxWordLen <= 0 {
		return fmt.Errorf("limits must be positive")
	}
	return nil
}
