package fluxcoach

import (
	"fmt"

	"github.com/spf13/cobra"

	"fluxcoach/internal/engine"
	"fluxcoach/internal/model"
	"fluxcoach/internal/store"
)

var statusDate string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show a day's computed state, calorie target, and goal progress",
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := parseDateOrToday(statusDate)
		if err != nil {
			return err
		}
		return withStore(func(st store.Store) error {
			out := cmd.OutOrStdout()
			state, err := st.ComputedState(date)
			if err != nil {
				return err
			}
			if state == nil {
				fmt.Fprintf(out, "No computed state for %s; run recompute first\n", date)
				return nil
			}
			p, err := st.Profile()
			if err != nil {
				return err
			}
			next, err := model.AddDays(date, 1)
			if err != nil {
				return err
			}
			daysTracked, err := st.CountTrackedDaysBefore(next)
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "Date: %s\n", state.Date)
			fmt.Fprintf(out, "Trend weight: %s (%+.2f kg)\n", displayWeight(st, state.TrendWeightKg), state.WeightDeltaKg)
			fmt.Fprintf(out, "Estimated TDEE: %.0f ± %.0f kcal/day\n", state.EstimatedTdeeKcal, state.FluxConfidenceKcal)
			if daysTracked < 7 {
				fmt.Fprintln(out, "Still learning: the estimate settles after a week of complete logs")
			}

			target, err := engine.CalorieTarget(state.EstimatedTdeeKcal, p.GoalType, p.GoalRateKgPerWeek)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Calorie target (%s): %.0f kcal/day\n", p.GoalType, target)

			log, err := st.DailyLog(date)
			if err != nil {
				return err
			}
			if engine.DetectPartialLogging(log, state.EstimatedTdeeKcal) {
				fmt.Fprintln(out, "Warning: logged calories look partial for this day")
			}

			if p.TargetWeightKg == nil {
				return nil
			}
			weights, err := st.ScaleWeights()
			if err != nil {
				return err
			}
			if len(weights) == 0 {
				return nil
			}
			start := weights[0].WeightKg
			progress := engine.GoalProgress(start, state.TrendWeightKg, *p.TargetWeightKg)
			fmt.Fprintf(out, "Goal progress: %.0f%%\n", progress)

			rate := p.GoalRateKgPerWeek
			if p.GoalType == model.GoalLose {
				rate = -rate
			}
			if weeks := engine.WeeksToGoal(state.TrendWeightKg, *p.TargetWeightKg, rate); weeks != nil {
				fmt.Fprintf(out, "Estimated weeks to goal: %d\n", *weeks)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().StringVar(&statusDate, "date", "", "Day to inspect (YYYY-MM-DD, default today)")
}
