package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/convergo/internal/compute"
	"github.com/alexisbeaulieu97/convergo/internal/compute/rackspace"
	"github.com/alexisbeaulieu97/convergo/internal/config"
	"github.com/alexisbeaulieu97/convergo/internal/logger"
	"github.com/alexisbeaulieu97/convergo/internal/reconcile"
)

func newRaxCmd(root *rootFlags) *cobra.Command {
	params := rackspace.Params{}

	cmd := &cobra.Command{
		Use:   "rax",
		Short: "Ensure a Rackspace cloud server exists or is deleted",
		Long: `Rax matches servers by exact name. Metadata differences are reset in place;
flavor and image are only set at creation. Credentials fall back to
RAX_CREDS_FILE, RAX_USERNAME, RAX_API_KEY, RAX_REGION and RAX_IDENTITY_ENDPOINT.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runModule(cmd, root, config.ModuleRackspace, func(ctx context.Context, log *logger.Logger) (*reconcile.Outcome, error) {
				return runRax(ctx, params, root.check, log)
			})
		},
	}

	cmd.Flags().StringVar(&params.State, "state", "present", "present (active) or absent (deleted)")
	cmd.Flags().StringVar(&params.Credentials, "credentials", "", "YAML file with username and api_key")
	cmd.Flags().StringVar(&params.Username, "username", "", "Account username")
	cmd.Flags().StringVar(&params.APIKey, "api-key", "", "Account API key")
	cmd.Flags().StringVar(&params.Region, "region", "", "Region, e.g. DFW")
	cmd.Flags().StringVar(&params.IdentityEndpoint, "identity-endpoint", "", "Identity service URL")
	cmd.Flags().StringVar(&params.Name, "name", "", "Server name")
	cmd.Flags().StringVar(&params.Flavor, "flavor", "", "Flavor id")
	cmd.Flags().StringVar(&params.Image, "image", "", "Image id")
	cmd.Flags().StringToStringVar(&params.Meta, "meta", nil, "Metadata as key=value pairs")
	cmd.Flags().StringVar(&params.KeyName, "key-name", "", "Keypair to install")
	cmd.Flags().StringToStringVar(&params.Files, "file", nil, "Files to inject as remote=local pairs")
	cmd.Flags().StringVar(&params.DiskConfig, "disk-config", "", "auto or manual")
	cmd.Flags().BoolVar(&params.Wait, "wait", false, "Wait for the server to become active or be deleted")
	cmd.Flags().IntVar(&params.WaitTimeout, "wait-timeout", int(compute.DefaultWaitTimeout.Seconds()), "Seconds to wait")

	return cmd
}
