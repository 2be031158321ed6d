package server

import "time"

// Config holds the settings needed to build a GenericAPIServer.
type Config struct {
	BindAddress  string
	BindPort     int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// NewConfig returns a Config with production-reasonable defaults.
func NewConfig() *Config {
	return &Config{
		BindAddress:  "0.0.0.0",
		BindPort:     8080,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
}

type completedConfig struct {
	*Config
}

// Complete fills in any zero-valued fields before New is called.
func (c *Config) Complete() completedConfig {
	if c.BindAddress == "" {
		c.BindAddress = "0.0.0.0"
	}
	if c.BindPort == 0 {
		c.BindPort = 8080
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 15 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 15 * time.Second
	}
	return completedConfig{c}
}
