package cmd

import (
	"fmt"

	"github.com/mfulz/setgeist/internal/controlcli"
	"github.com/spf13/cobra"
)

// PingCmd checks that the daemon answers and reports its state.
var PingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check the daemon and its cluster attachment",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := controlcli.Ping(clientConfig(), target())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if done, err := render(out, outputFormat, res); done {
			return err
		}
		fmt.Fprintf(out, "Service:      %s\nNode:         %s\nDescription:  %s\nCoordinated:  %v\n",
			res.Service, res.Node, res.Description, res.Coordinated)
		return nil
	},
}
