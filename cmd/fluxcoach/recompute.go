package fluxcoach

import (
	"fmt"

	"github.com/spf13/cobra"

	"fluxcoach/internal/recompute"
	"fluxcoach/internal/store"
)

var recomputeFrom string

var recomputeCmd = &cobra.Command{
	Use:   "recompute",
	Short: "Rebuild computed state from a date forward to today",
	Long: "Walks the daily chain forward from the earliest pending date (or --from), " +
		"rebuilding trend weight and TDEE day-by-day. Each day is persisted before " +
		"the next, so an interrupted walk resumes where it stopped.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(st store.Store) error {
			logger, err := newLogger()
			if err != nil {
				return err
			}
			defer logger.Sync()

			orch := recompute.New(st, logger)
			var days int
			if recomputeFrom != "" {
				days, err = orch.RecalculateFrom(cmd.Context(), recomputeFrom)
			} else {
				days, err = orch.Run(cmd.Context())
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recomputed %d day(s)\n", days)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(recomputeCmd)
	recomputeCmd.Flags().StringVar(&recomputeFrom, "from", "", "Recompute from this date (YYYY-MM-DD)")
}
