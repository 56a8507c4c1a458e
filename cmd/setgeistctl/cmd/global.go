// Package cmd provides the setgeistctl commands for managing configsets
// through the setgeistd control interface.
package cmd

import (
	"time"

	"github.com/mfulz/setgeist/internal/configcli"
	"github.com/mfulz/setgeist/internal/configloader"
	"github.com/mfulz/setgeist/internal/controlcli"
	"github.com/spf13/cobra"
)

var (
	configPath    string
	daemonName    string
	controlUser   string
	overrideAddr  string
	overrideToken string
	outputFormat  string
	timeout       time.Duration
)

// BindGlobalFlags registers the connection and output flags on root.
func BindGlobalFlags(root *cobra.Command) {
	flags := root.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "Client config file (default: resolved setgeistctl.yaml)")
	flags.StringVarP(&daemonName, "daemon", "d", "", "Daemon name from the client config")
	flags.StringVarP(&controlUser, "user", "u", "", "Control user to authenticate as")
	flags.StringVar(&overrideAddr, "addr", "", "Direct daemon address (unix socket path or host:port)")
	flags.StringVar(&overrideToken, "token", "", "Auth token for --addr")
	flags.StringVarP(&outputFormat, "output", "o", "text", "Output format: text, json or yaml")
	flags.DurationVar(&timeout, "timeout", controlcli.DefaultTimeout, "Request timeout")
}

// ConfigPath returns the --config flag value.
func ConfigPath() string {
	return configPath
}

// DirectMode reports whether --addr bypasses the client config.
func DirectMode() bool {
	return overrideAddr != ""
}

func target() controlcli.Target {
	return controlcli.Target{
		Daemon:  daemonName,
		User:    controlUser,
		Addr:    overrideAddr,
		Token:   overrideToken,
		Timeout: timeout,
	}
}

// clientConfig returns the loaded client config, or nil in direct mode.
func clientConfig() *configcli.Config {
	cfg, _ := configloader.TryGetConfig[*configcli.Config]()
	return cfg
}
