package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/convergo/internal/config"
	"github.com/alexisbeaulieu97/convergo/internal/hosts"
	"github.com/alexisbeaulieu97/convergo/internal/logger"
	"github.com/alexisbeaulieu97/convergo/internal/reconcile"
)

func newHostsCmd(root *rootFlags) *cobra.Command {
	params := hosts.Params{}

	cmd := &cobra.Command{
		Use:   "hosts",
		Short: "Ensure an entry is present in or absent from a hosts file",
		Long: `Hosts locates an existing entry by address or primary name and rewrites it
in place when it differs, so an entry is never duplicated. Comments and blank
lines are preserved. With state=absent exactly one of --ip or --hostname
selects the entry to remove.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runModule(cmd, root, config.ModuleHosts, func(ctx context.Context, log *logger.Logger) (*reconcile.Outcome, error) {
				return runHosts(ctx, params, root.check, log)
			})
		},
	}

	cmd.Flags().StringVar(&params.IP, "ip", "", "Address column of the entry")
	cmd.Flags().StringVar(&params.Hostname, "hostname", "", "Primary name of the entry")
	cmd.Flags().StringVar(&params.Aliases, "aliases", "", "Comma separated aliases, order-sensitive")
	cmd.Flags().StringVar(&params.State, "state", "present", "present or absent")
	cmd.Flags().StringVar(&params.Path, "path", hosts.DefaultPath, "Hosts file to manage")
	cmd.Flags().BoolVar(&params.Backup, "backup", false, "Keep a timestamped copy of the file before changing it")

	return cmd
}
