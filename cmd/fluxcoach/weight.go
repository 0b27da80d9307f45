package fluxcoach

import (
	"fmt"

	"github.com/spf13/cobra"

	"fluxcoach/internal/engine"
	"fluxcoach/internal/model"
	"fluxcoach/internal/store"
)

var weightCmd = &cobra.Command{
	Use:   "weight",
	Short: "Record scale weights and inspect the trend series",
}

var (
	weightDate  string
	weightValue float64
	weightUnit  string
)

var weightAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a scale weight for a day",
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := parseDateOrToday(weightDate)
		if err != nil {
			return err
		}
		weightKg, err := parseWeightToKg(weightValue, weightUnit)
		if err != nil {
			return err
		}
		return withStore(func(st store.Store) error {
			log, err := st.DailyLog(date)
			if err != nil {
				return err
			}
			if log == nil {
				log = &model.DailyLog{Date: date, Status: model.LogStatusComplete}
			}
			log.ScaleWeightKg = &weightKg
			if err := st.PutDailyLog(*log); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s on %s\n", displayWeight(st, weightKg), date)
			return recomputeAndReport(cmd, st)
		})
	},
}

var (
	trendFrom string
	trendTo   string
)

var weightTrendCmd = &cobra.Command{
	Use:   "trend",
	Short: "Show the gap-filled daily trend-weight series",
	RunE: func(cmd *cobra.Command, args []string) error {
		from, err := parseDateOrToday(trendFrom)
		if err != nil {
			return err
		}
		to, err := parseDateOrToday(trendTo)
		if err != nil {
			return err
		}
		return withStore(func(st store.Store) error {
			entries, err := st.ScaleWeights()
			if err != nil {
				return err
			}
			start, err := model.ParseDate(from)
			if err != nil {
				return err
			}
			end, err := model.ParseDate(to)
			if err != nil {
				return err
			}
			series, err := engine.CalculateTrendWeights(entries, start, end, nil)
			if err != nil {
				return err
			}
			if len(series) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No weight entries recorded")
				return nil
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "DATE\tSCALE\tTREND")
			for _, p := range series {
				scale := "-"
				if p.ScaleWeightKg != nil {
					scale = displayWeight(st, *p.ScaleWeightKg)
				}
				fmt.Fprintf(out, "%s\t%s\t%s\n", model.FormatDate(p.Date), scale, displayWeight(st, p.TrendWeightKg))
			}
			fmt.Fprintf(out, "Weekly change: %+.2f kg\n", engine.WeeklyWeightChange(series))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(weightCmd)
	weightCmd.AddCommand(weightAddCmd, weightTrendCmd)

	weightAddCmd.Flags().StringVar(&weightDate, "date", "", "Day of the measurement (YYYY-MM-DD, default today)")
	weightAddCmd.Flags().Float64Var(&weightValue, "weight", 0, "Scale weight")
	weightAddCmd.Flags().StringVar(&weightUnit, "unit", "kg", "Weight unit (kg or lb)")
	_ = weightAddCmd.MarkFlagRequired("weight")

	weightTrendCmd.Flags().StringVar(&trendFrom, "from", "", "Series start (YYYY-MM-DD, default today)")
	weightTrendCmd.Flags().StringVar(&trendTo, "to", "", "Series end (YYYY-MM-DD, default today)")
}
