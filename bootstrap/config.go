package bootstrap

import (
	"github.com/kbukum/wirekit/config"
)

// Config is the constraint for application configuration types. Any struct
// embedding config.ServiceConfig satisfies it through promoted methods:
//
//	type InventoryConfig struct {
//	    config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
//	    Warehouse string `yaml:"warehouse" mapstructure:"warehouse"`
//	}
//
//	app, err := bootstrap.NewApp(&cfg)
type Config interface {
	GetServiceConfig() *config.ServiceConfig
	ApplyDefaults()
	Validate() error
}
