// Command setgeistd is the setgeist daemon. It loads its configuration,
// opens the configset store, joins the cluster and serves the control
// interface on every enabled unix/tcp instance until SIGINT or SIGTERM.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mfulz/setgeist/internal/acl"
	"github.com/mfulz/setgeist/internal/cluster"
	"github.com/mfulz/setgeist/internal/configd"
	"github.com/mfulz/setgeist/internal/configsets"
	"github.com/mfulz/setgeist/internal/control"
	"github.com/mfulz/setgeist/internal/logging"
	"github.com/mfulz/setgeist/internal/store"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "setgeistd",
	Short:         "setgeist configset management daemon",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return run(ctx)
	},
}

func run(ctx context.Context) error {
	if err := configd.LoadConfig(configPath); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg := configd.Get()
	log := logging.Log
	log.Infof("[setgeistd] configuration loaded")

	if err := acl.Init(cfg.ACL, acl.KnownPermissions()); err != nil {
		return fmt.Errorf("failed to init acl: %w", err)
	}

	storeOpts := cfg.Store
	storeOpts.Logger = log
	st, err := store.Open(ctx, storeOpts)
	if err != nil {
		return err
	}
	defer st.Close()

	node := cluster.NewNode(cfg.Cluster)
	if !node.IsClusterCoordinated() {
		log.Warnf("[setgeistd] node is not cluster-coordinated, configset requests will be rejected")
	}

	handler := configsets.NewHandler(node, st, cfg.ConfigSets, configsets.WithLogger(log))
	server := control.NewServer(control.NewDispatcher(control.GlobalACL, handler, node, log), log)

	instances := cfg.Control.Enabled()
	if len(instances) == 0 {
		return fmt.Errorf("no control instance enabled")
	}
	for _, inst := range instances {
		if _, err := server.Listen(inst); err != nil {
			_ = server.Close()
			return err
		}
	}

	log.Infof("[setgeistd] daemon is running, waiting for control requests")
	<-ctx.Done()

	log.Infof("[setgeistd] termination signal received, shutting down")
	if err := server.Close(); err != nil {
		log.Warnf("[setgeistd] closing control listeners: %v", err)
	}
	log.Infof("[setgeistd] shutdown complete")
	_ = log.Sync()
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logging.Log.Errorf("[setgeistd] %v", err)
		_ = logging.Log.Sync()
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "Config file (default: resolved setgeistd.yaml)")
}
