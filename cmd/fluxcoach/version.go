package fluxcoach

import (
	"fmt"

	"github.com/spf13/cobra"
)

var version = "0.3.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the fluxcoach version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "fluxcoach %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
