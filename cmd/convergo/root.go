package main

import (
	"github.com/spf13/cobra"
)

type rootFlags struct {
	verbose bool
	check   bool
	output  string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "convergo",
		Short:         "Convergo reconciles hosts entries and cloud instances to a declared state",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return validateOutputFormat(flags.output)
		},
	}

	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().BoolVar(&flags.check, "check", false, "Report what would change without changing anything")
	cmd.PersistentFlags().StringVarP(&flags.output, "output", "o", outputJSON, "Result format: json, yaml or text")

	cmd.AddCommand(newHostsCmd(flags))
	cmd.AddCommand(newRaxCmd(flags))
	cmd.AddCommand(newCloudStackCmd(flags))
	cmd.AddCommand(newRunCmd(flags))
	cmd.AddCommand(newVersionCmd())

	return cmd
}
