package fluxcoach

import (
	"fmt"

	"github.com/spf13/cobra"

	"fluxcoach/internal/recompute"
	"fluxcoach/internal/store"
)

var checkinDate string

var checkinCmd = &cobra.Command{
	Use:   "checkin",
	Short: "Build and store the weekly check-in for the enclosing Monday-Sunday week",
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := parseDateOrToday(checkinDate)
		if err != nil {
			return err
		}
		return withStore(func(st store.Store) error {
			orch := recompute.New(st, nil)
			checkIn, err := orch.CheckInForDate(date)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if checkIn == nil {
				fmt.Fprintln(out, "No computed data in that week yet; log some days and recompute first")
				return nil
			}
			fmt.Fprintf(out, "Week %s .. %s\n", checkIn.WeekStart, checkIn.WeekEnd)
			fmt.Fprintf(out, "Average TDEE: %.0f kcal/day\n", checkIn.AverageTdeeKcal)
			fmt.Fprintf(out, "Suggested calories: %.0f kcal/day\n", checkIn.SuggestedCalories)
			fmt.Fprintf(out, "Adherence: %.0f%%\n", checkIn.AdherenceScore*100)
			fmt.Fprintf(out, "Confidence: %s\n", checkIn.Confidence)
			fmt.Fprintf(out, "Trend weight: %s -> %s (%+.2f kg)\n",
				displayWeight(st, checkIn.TrendWeightStartKg),
				displayWeight(st, checkIn.TrendWeightEndKg),
				checkIn.WeeklyChangeKg)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(checkinCmd)
	checkinCmd.Flags().StringVar(&checkinDate, "date", "", "Any date inside the week (YYYY-MM-DD, default today)")
}
