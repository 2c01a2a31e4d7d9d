package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/convergo/internal/config"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Display build information and the supported modules",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "convergo %s\ncommit: %s\nbuilt: %s\nmodules: %s\n",
				version, commit, date, strings.Join(config.Modules(), ", "))
			return nil
		},
	}

	return cmd
}
