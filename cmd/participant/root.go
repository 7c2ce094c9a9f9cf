package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"idsim/internal/platform/config"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func newRootCmd() *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:           "participant",
		Short:         "Simulated participant of an identity verification network",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (yaml, json or toml)")

	for _, role := range []struct {
		name  string
		short string
	}{
		{config.RoleIdP, "Run an identity provider"},
		{config.RoleRP, "Run a relying party"},
		{config.RoleAS, "Run an authoritative source"},
	} {
		role := role
		root.AddCommand(&cobra.Command{
			Use:   role.name,
			Short: role.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, err := config.Load(role.name, configFile)
				if err != nil {
					return err
				}
				ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
				defer stop()
				return run(ctx, cfg)
			},
		})
	}
	return root
}
