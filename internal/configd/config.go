// Package configd loads the setgeistd configuration file with Viper and
// registers the result for the rest of the daemon.
package configd

import (
	"fmt"
	"time"

	"github.com/mfulz/setgeist/internal/acl"
	"github.com/mfulz/setgeist/internal/cluster"
	"github.com/mfulz/setgeist/internal/configloader"
	"github.com/mfulz/setgeist/internal/configsets"
	"github.com/mfulz/setgeist/internal/logging"
	"github.com/mfulz/setgeist/internal/store"
	"github.com/spf13/viper"
)

// Config represents the full structure of setgeistd.yaml.
type Config struct {
	Logger      logging.Config     `mapstructure:"log"`
	ACL         acl.ACLConfig      `mapstructure:"acl"`
	Control     ControlMultiConfig `mapstructure:"control"`
	Store       store.Options      `mapstructure:"store"`
	Cluster     cluster.Config     `mapstructure:"cluster"`
	ConfigSets  configsets.Config  `mapstructure:"configsets"`
	Collections map[string]string  `mapstructure:"collections"` // collection -> configset
}

// ControlInstance describes a single control listener.
type ControlInstance struct {
	Name    string `mapstructure:"name"`
	Enabled bool   `mapstructure:"enabled"`
	Mode    string `mapstructure:"mode"`   // "unix" or "tcp"
	Listen  string `mapstructure:"listen"` // socket path or host:port
}

// ControlMultiConfig lists the control listeners.
type ControlMultiConfig struct {
	Instances []ControlInstance `mapstructure:"instances"`
}

// Enabled returns the enabled control instances.
func (c ControlMultiConfig) Enabled() []ControlInstance {
	var out []ControlInstance
	for _, inst := range c.Instances {
		if inst.Enabled {
			out = append(out, inst)
		}
	}
	return out
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.to_stdout", true)
	v.SetDefault("store.dsn", "file:/var/lib/setgeist/configsets.db")
	v.SetDefault("store.timeout", store.DefaultTimeout)
	v.SetDefault("configsets.property_prefix", configsets.DefaultConfig().PropertyPrefix)
	v.SetDefault("configsets.default_configset", configsets.DefaultConfigSetName)
}

// Load reads and validates the config file at path.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config unmarshal failed: %w", err)
	}
	if err := cfg.finalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) finalize() error {
	for i, inst := range c.Control.Instances {
		if inst.Name == "" {
			c.Control.Instances[i].Name = fmt.Sprintf("%s-%d", inst.Mode, i)
		}
		if !inst.Enabled {
			continue
		}
		if inst.Mode != "unix" && inst.Mode != "tcp" {
			return fmt.Errorf("control instance %d: unsupported mode %q", i, inst.Mode)
		}
		if inst.Listen == "" {
			return fmt.Errorf("control instance %d: listen address missing", i)
		}
	}
	if c.Store.Timeout <= 0 {
		c.Store.Timeout = store.DefaultTimeout
	}
	if c.Store.Timeout < time.Second {
		return fmt.Errorf("store timeout %s is too short", c.Store.Timeout)
	}
	if c.Store.DefaultConfigSet == "" {
		c.Store.DefaultConfigSet = c.ConfigSets.DefaultConfigSet
	}
	c.Store.Collections = c.Collections
	return nil
}

// LoadConfig loads setgeistd.yaml from path, or from the resolved default
// location when path is empty, re-initializes logging and registers the
// config.
func LoadConfig(path string) error {
	if path == "" {
		var err error
		path, err = configloader.ResolveConfigPath("setgeistd", "setgeistd.yaml")
		if err != nil {
			return err
		}
	}

	cfg, err := Load(path)
	if err != nil {
		return err
	}

	configloader.SetConfig(&cfg.Logger)
	if err := logging.Init(); err != nil {
		return fmt.Errorf("[setgeistd] failed to init logger: %w", err)
	}

	configloader.SetConfig(cfg)
	return nil
}

// Get returns the registered daemon config.
func Get() *Config {
	return configloader.MustGetConfig[*Config]()
}
