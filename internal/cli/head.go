package cli

import (
	"github.com/spf13/cobra"
)

var headCmd = &cobra.Command{
	Use:   "head URL",
	Short: "Make a HEAD request to the specified URL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return executeRequest(cmd, "HEAD", args[0], "")
	},
}

func init() {
	addRequestFlags(headCmd)
}
