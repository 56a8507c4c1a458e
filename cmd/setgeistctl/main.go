// Command setgeistctl manages configsets on a setgeistd daemon through its
// control interface (unix socket or TCP).
package main

import (
	"fmt"
	"os"

	"github.com/mfulz/setgeist/cmd/setgeistctl/cmd"
	"github.com/mfulz/setgeist/internal/configcli"
	"github.com/mfulz/setgeist/internal/logging"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "setgeistctl",
	Short:         "Control interface for the setgeist daemon",
	Long:          `setgeistctl lists, creates, deletes and uploads configsets managed by setgeistd.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(c *cobra.Command, args []string) error {
		err := configcli.LoadConfig(cmd.ConfigPath())
		if err != nil && !cmd.DirectMode() {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err != nil {
			logging.Log.Debugf("[setgeistctl] no client config: %v", err)
		}
		return nil
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	cmd.BindGlobalFlags(rootCmd)
	rootCmd.AddCommand(cmd.ConfigSetCmd)
	rootCmd.AddCommand(cmd.PingCmd)
}
