package fluxcoach

import (
	"fmt"

	"github.com/spf13/cobra"

	"fluxcoach/internal/store"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the database and apply migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(st store.Store) error {
			path, err := resolveDBPath()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Initialized database at %s\n", path)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
