package configsets

import (
	"strings"

	"github.com/mfulz/setgeist/protocol"
)

const (
	// DefaultConfigSetName is the base used by CREATE when none is given.
	DefaultConfigSetName = "_default"

	// AutoCreatedSuffix marks configsets created implicitly for a collection.
	AutoCreatedSuffix = ".AUTOCREATED"
)

// Config holds handler configuration options.
type Config struct {
	// PropertyPrefix selects the parameters that become configset properties.
	PropertyPrefix string `mapstructure:"property_prefix"`

	// DefaultConfigSet is the base configset for CREATE without baseConfigSet.
	DefaultConfigSet string `mapstructure:"default_configset"`
}

// DefaultConfig returns a configuration with the standard prefix and base.
func DefaultConfig() Config {
	return Config{
		PropertyPrefix:   protocol.PropertyPrefix,
		DefaultConfigSet: DefaultConfigSetName,
	}
}

// WithPropertyPrefix returns a copy of the config with the prefix set.
func (c Config) WithPropertyPrefix(prefix string) Config {
	c.PropertyPrefix = prefix
	return c
}

// WithDefaultConfigSet returns a copy of the config with the default base set.
func (c Config) WithDefaultConfigSet(name string) Config {
	c.DefaultConfigSet = name
	return c
}

// normalized fills empty fields from DefaultConfig.
func (c Config) normalized() Config {
	def := DefaultConfig()
	if c.PropertyPrefix == "" {
		c.PropertyPrefix = def.PropertyPrefix
	}
	if c.DefaultConfigSet == "" {
		c.DefaultConfigSet = def.DefaultConfigSet
	}
	return c
}

// AutoCreatedName returns the name of the configset auto-created for name.
func AutoCreatedName(name string) string {
	return name + AutoCreatedSuffix
}

// IsAutoCreated reports whether name carries the auto-created suffix.
func IsAutoCreated(name string) bool {
	return strings.HasSuffix(name, AutoCreatedSuffix)
}
