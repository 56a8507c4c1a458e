// Package configcli loads the setgeistctl configuration: user tokens and the
// daemons the client can talk to.
package configcli

import (
	"fmt"
	"sort"

	"github.com/mfulz/setgeist/internal/configloader"
	"github.com/mfulz/setgeist/internal/logging"
	"github.com/spf13/viper"
)

// UserConfig holds the token of one logical user.
type UserConfig struct {
	Token string `mapstructure:"token"`
}

// DaemonConfig is one connection target, either a unix socket or TCP.
type DaemonConfig struct {
	Socket string `mapstructure:"socket,omitempty"`
	TCP    string `mapstructure:"tcp,omitempty"`
}

// Config holds the entire client-side configuration.
type Config struct {
	Users         map[string]UserConfig   `mapstructure:"users"`
	Daemons       map[string]DaemonConfig `mapstructure:"daemons"`
	DefaultUser   string                  `mapstructure:"default_user"`
	DefaultDaemon string                  `mapstructure:"default_daemon"`
	Logger        logging.Config          `mapstructure:"log"`
}

// Load reads the client config at path.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.to_stderr", true)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config unmarshal failed: %w", err)
	}
	for name, d := range cfg.Daemons {
		if (d.Socket == "") == (d.TCP == "") {
			return nil, fmt.Errorf("daemon %s: exactly one of socket or tcp must be set", name)
		}
	}
	return &cfg, nil
}

// LoadConfig loads setgeistctl.yaml from path, or from the resolved default
// location when path is empty, and registers it with its log section.
func LoadConfig(path string) error {
	if path == "" {
		var err error
		path, err = configloader.ResolveConfigPath("setgeistctl", "setgeistctl.yaml")
		if err != nil {
			return err
		}
	}

	cfg, err := Load(path)
	if err != nil {
		return err
	}

	configloader.SetConfig(cfg)
	configloader.SetConfig(&cfg.Logger)
	return logging.Init()
}

// Daemon returns the connection target for name, falling back to
// DefaultDaemon and then to the only configured daemon.
func (c *Config) Daemon(name string) (DaemonConfig, error) {
	name, err := pick(name, c.DefaultDaemon, keys(c.Daemons), "daemon")
	if err != nil {
		return DaemonConfig{}, err
	}
	d, ok := c.Daemons[name]
	if !ok {
		return DaemonConfig{}, fmt.Errorf("unknown daemon: %s", name)
	}
	return d, nil
}

// User returns the name and token for user with the same fallback rules as
// Daemon.
func (c *Config) User(name string) (string, UserConfig, error) {
	name, err := pick(name, c.DefaultUser, keys(c.Users), "user")
	if err != nil {
		return "", UserConfig{}, err
	}
	u, ok := c.Users[name]
	if !ok {
		return "", UserConfig{}, fmt.Errorf("unknown user: %s", name)
	}
	return name, u, nil
}

func pick(name, def string, all []string, kind string) (string, error) {
	switch {
	case name != "":
		return name, nil
	case def != "":
		return def, nil
	case len(all) == 1:
		return all[0], nil
	}
	return "", fmt.Errorf("no %s selected and %d configured", kind, len(all))
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
