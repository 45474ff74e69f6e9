// Package cli implements the tipctl command tree: offline access to
// the distribution engine without a running server.
package cli

import "github.com/spf13/cobra"

var (
	version = "dev"
	commit  = "none"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "tipctl",
		Short:         "Compute tip pool distributions from the command line",
		Long:          "tipctl splits a tip pool across partners proportionally to hours worked, reconciles rounding to the cent, and breaks each payout into bills.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newComputeCmd())
	cmd.AddCommand(newProfilesCmd())
	cmd.AddCommand(newParseCmd())
	return cmd
}

func Execute() error {
	return newRootCmd().Execute()
}
