package docs

import (
	"fmt"
	"strings"
)

// Config controls the endpoint documentation listing.
type Config struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// Path is where the JSON listing is served.
	Path string `yaml:"path" mapstructure:"path"`
	// Roots are the directories scanned for controller method comments.
	Roots []string `yaml:"roots" mapstructure:"roots"`
}

// ApplyDefaults fills the listing path and scan roots.
func (c *Config) ApplyDefaults() {
	if c.Path == "" {
		c.Path = "/_docs"
	}
	if len(c.Roots) == 0 {
		c.Roots = []string{"."}
	}
}

// Validate checks that the listing path is absolute.
func (c *Config) Validate() error {
	if c.Enabled && !strings.HasPrefix(c.Path, "/") {
		return fmt.Errorf("docs.path must start with / (got: %s)", c.Path)
	}
	return nil
}
