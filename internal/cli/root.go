package cli

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var version = "0.1.0"

// RootCmd represents the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use:     "loopdial",
	Short:   "An HTTP client that finds the loopback address that actually listens",
	Version: version,
	Long: `Loopdial is a small terminal HTTP client for services on your own machine.
When the target host is localhost, *.localhost, 127.0.0.1 or ::1, it probes
the loopback candidates for a live listener instead of trusting name
resolution alone, so a server bound only to ::1 (or only to 127.0.0.1) is
still reached. Every response is annotated with its elapsed request time.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if debug, _ := cmd.Flags().GetBool("debug"); debug {
			logrus.SetLevel(logrus.DebugLevel)
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute runs the root command and returns its error, letting main pick the
// exit code.
func Execute() error {
	return RootCmd.Execute()
}

func init() {
	RootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging (resolver trace)")

	RootCmd.AddCommand(getCmd)
	RootCmd.AddCommand(postCmd)
	RootCmd.AddCommand(headCmd)
}
