package config

import (
	"fmt"
	"maps"
	"slices"

	"github.com/kbukum/wirekit/docs"
	"github.com/kbukum/wirekit/logger"
	"github.com/kbukum/wirekit/observability"
	"github.com/kbukum/wirekit/server"
	"github.com/kbukum/wirekit/validation"
)

// SettingEnvironment is the resolver setting derived from Environment when
// Settings does not set it explicitly.
const SettingEnvironment = "environment"

var environments = []string{"development", "staging", "production"}

// ServiceConfig is the configuration of one wirekit application. Projects
// extend it by embedding:
//
//	type InventoryConfig struct {
//	    config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
//	    Warehouse string `yaml:"warehouse" mapstructure:"warehouse"`
//	}
type ServiceConfig struct {
	Name        string               `yaml:"name" mapstructure:"name" validate:"required"`
	Environment string               `yaml:"environment" mapstructure:"environment"`
	Version     string               `yaml:"version" mapstructure:"version"`
	Debug       bool                 `yaml:"debug" mapstructure:"debug"`
	Logging     logger.Config        `yaml:"logging" mapstructure:"logging"`
	Server      server.Config        `yaml:"server" mapstructure:"server"`
	Docs        docs.Config          `yaml:"docs" mapstructure:"docs"`
	Telemetry   observability.Config `yaml:"telemetry" mapstructure:"telemetry"`

	// Settings are the environment settings service variants are matched
	// against. Viper lower-cases keys read from files and the environment.
	Settings map[string]string `yaml:"settings" mapstructure:"settings"`
}

// GetServiceConfig returns the base ServiceConfig. It is promoted to
// embedding structs.
func (c *ServiceConfig) GetServiceConfig() *ServiceConfig {
	return c
}

// ApplyDefaults fills unset fields of every section.
func (c *ServiceConfig) ApplyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Environment == "development" {
		c.Debug = true
	}
	if c.Version == "" {
		c.Version = "dev"
	}
	c.Logging.ApplyDefaults()
	if c.Debug && c.Logging.Level == "info" {
		c.Logging.Level = "debug"
	}
	c.Server.ApplyDefaults()
	c.Docs.ApplyDefaults()
	c.Telemetry.ApplyDefaults()
}

// Validate checks tag constraints first, then each section's own rules.
func (c *ServiceConfig) Validate() error {
	if err := validation.Struct(c); err != nil {
		return err
	}
	if !slices.Contains(environments, c.Environment) {
		return fmt.Errorf("config.environment must be one of %v (got: %s)", environments, c.Environment)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("config.logging: %w", err)
	}
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("config.server: %w", err)
	}
	if err := c.Docs.Validate(); err != nil {
		return fmt.Errorf("config.docs: %w", err)
	}
	if err := c.Telemetry.Validate(); err != nil {
		return fmt.Errorf("config.telemetry: %w", err)
	}
	return nil
}

// ResolverSettings returns a copy of Settings with the environment key
// filled from Environment unless set explicitly.
func (c *ServiceConfig) ResolverSettings() map[string]string {
	settings := maps.Clone(c.Settings)
	if settings == nil {
		settings = make(map[string]string, 1)
	}
	if _, ok := settings[SettingEnvironment]; !ok && c.Environment != "" {
		settings[SettingEnvironment] = c.Environment
	}
	return settings
}

// ServiceInfo identifies the service on exported telemetry.
func (c *ServiceConfig) ServiceInfo() observability.ServiceInfo {
	return observability.ServiceInfo{Name: c.Name, Version: c.Version, Environment: c.Environment}
}
