package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/convergo/internal/compute"
	"github.com/alexisbeaulieu97/convergo/internal/compute/cloudstack"
	"github.com/alexisbeaulieu97/convergo/internal/config"
	"github.com/alexisbeaulieu97/convergo/internal/logger"
	"github.com/alexisbeaulieu97/convergo/internal/reconcile"
)

func newCloudStackCmd(root *rootFlags) *cobra.Command {
	params := cloudstack.Params{}
	var insecure bool

	cmd := &cobra.Command{
		Use:   "cloudstack",
		Short: "Ensure a CloudStack virtual machine is running, stopped or destroyed",
		Long: `Cloudstack matches virtual machines by exact name. Tags are reset in place and
the machine is started or stopped to match the requested state. Credentials
fall back to CLOUDSTACK_API_KEY, CLOUDSTACK_SECRET_KEY and CLOUDSTACK_ENDPOINT;
the zone falls back to CLOUDSTACK_ZONE.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if insecure {
				verify := false
				params.VerifySSL = &verify
			}
			return runModule(cmd, root, config.ModuleCloudStack, func(ctx context.Context, log *logger.Logger) (*reconcile.Outcome, error) {
				return runCloudStack(ctx, params, root.check, log)
			})
		},
	}

	cmd.Flags().StringVar(&params.APIKey, "api-key", "", "API key")
	cmd.Flags().StringVar(&params.SecretKey, "secret-key", "", "API secret key")
	cmd.Flags().StringVar(&params.APIHost, "api-host", "", "API host or URL")
	cmd.Flags().StringVar(&params.Name, "name", "", "Virtual machine name")
	cmd.Flags().StringVar(&params.TemplateID, "template-id", "", "Template id")
	cmd.Flags().StringVar(&params.OfferingID, "offering-id", "", "Service offering id")
	cmd.Flags().StringVar(&params.ZoneID, "zone-id", "", "Zone id")
	cmd.Flags().StringVar(&params.KeyName, "key-name", "", "SSH keypair name")
	cmd.Flags().StringVar(&params.NetworkID, "network-id", "", "Network id")
	cmd.Flags().StringToStringVar(&params.Meta, "meta", nil, "Tags as key=value pairs")
	cmd.Flags().BoolVar(&params.Wait, "wait", false, "Wait for the machine to settle")
	cmd.Flags().IntVar(&params.WaitFor, "wait-for", int(compute.DefaultWaitTimeout.Seconds()), "Seconds to wait")
	cmd.Flags().StringVar(&params.State, "state", "present", "present, stopped or absent")
	cmd.Flags().BoolVar(&params.Expunge, "expunge", false, "Expunge instead of leaving the machine recoverable")
	cmd.Flags().BoolVar(&insecure, "insecure", false, "Skip TLS certificate verification")

	return cmd
}
