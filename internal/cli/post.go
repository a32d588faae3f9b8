package cli

import (
	"github.com/spf13/cobra"
)

var postCmd = &cobra.Command{
	Use:   "post URL",
	Short: "Make a POST request to the specified URL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		body, _ := cmd.Flags().GetString("data")
		return executeRequest(cmd, "POST", args[0], body)
	},
}

func init() {
	addRequestFlags(postCmd)
	postCmd.Flags().StringP("data", "d", "", "Request body (sent as-is; set Content-Type yourself)")
}
