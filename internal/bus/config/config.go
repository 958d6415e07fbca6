package config

import (
	"errors"

	"bus-tracker/internal/bus/domain/service"

	"github.com/caarlos0/env/v6"
)

// Config holds configuration for the bus module
type Config struct {
	// AccessPolicy is the CEL rule guarding edit, update and delete.
	// "true" lets any driver touch any bus.
	AccessPolicy string `env:"BUS_ACCESS_POLICY" envDefault:"bus.driverId == actor.userId"`
	Collection   string `env:"BUS_COLLECTION" envDefault:"buses"`
}

// LoadConfig loads the bus configuration from the environment
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.New("failed to load bus configuration: " + err.Error())
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate compiles the access policy once so a bad rule fails at startup
func (c *Config) Validate() error {
	if c.Collection == "" {
		return errors.New("bus_collection is required")
	}
	if _, err := service.NewOwnershipPolicy(c.AccessPolicy); err != nil {
		return err
	}
	return nil
}
