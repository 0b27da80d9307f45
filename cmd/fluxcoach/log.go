package fluxcoach

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"fluxcoach/internal/model"
	"fluxcoach/internal/recompute"
	"fluxcoach/internal/store"
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Record and inspect daily nutrition logs",
}

var (
	logDate     string
	logCalories float64
	logProtein  float64
	logCarbs    float64
	logFat      float64
	logSteps    int
)

var logSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Record a day's nutrition (omit a flag to leave it untracked; 0 means fasted)",
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := parseDateOrToday(logDate)
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
			flags := cmd.Flags()
			if flags.Changed("calories") {
				log.Calories = model.TrackedNutrient(logCalories)
			}
			if flags.Changed("protein") {
				log.ProteinG = model.TrackedNutrient(logProtein)
			}
			if flags.Changed("carbs") {
				log.CarbsG = model.TrackedNutrient(logCarbs)
			}
			if flags.Changed("fat") {
				log.FatG = model.TrackedNutrient(logFat)
			}
			if flags.Changed("steps") {
				v := logSteps
				log.Steps = &v
			}
			if err := st.PutDailyLog(*log); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged %s\n", date)
			return recomputeAndReport(cmd, st)
		})
	},
}

var logStatusDate string

var logStatusCmd = &cobra.Command{
	Use:   "status <complete|partial|skipped>",
	Short: "Explicitly mark how a day should be treated",
	Long: "An explicit status overrides the raw data: a day marked skipped never " +
		"contributes to the TDEE estimate, even if calories were logged.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		status := model.LogStatus(args[0])
		if !status.Valid() {
			return fmt.Errorf("invalid status %q (use complete, partial, or skipped)", args[0])
		}
		date, err := parseDateOrToday(logStatusDate)
		if err != nil {
			return err
		}
		return withStore(func(st store.Store) error {
			log, err := st.DailyLog(date)
			if err != nil {
				return err
			}
			if log == nil {
				log = &model.DailyLog{Date: date}
			}
			log.Status = status
			if err := st.PutDailyLog(*log); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Marked %s as %s\n", date, status)
			return recomputeAndReport(cmd, st)
		})
	},
}

var logShowDate string

var logShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show a day's raw log",
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := parseDateOrToday(logShowDate)
		if err != nil {
			return err
		}
		return withStore(func(st store.Store) error {
			log, err := st.DailyLog(date)
			if err != nil {
				return err
			}
			if log == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "No log for %s\n", date)
				return nil
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Date: %s\nStatus: %s\n", log.Date, log.Status)
			if log.ScaleWeightKg != nil {
				fmt.Fprintf(out, "Scale weight: %s\n", displayWeight(st, *log.ScaleWeightKg))
			}
			printNutrient(out, "Calories", log.Calories, "kcal")
			printNutrient(out, "Protein", log.ProteinG, "g")
			printNutrient(out, "Carbs", log.CarbsG, "g")
			printNutrient(out, "Fat", log.FatG, "g")
			if log.Steps != nil {
				fmt.Fprintf(out, "Steps: %d\n", *log.Steps)
			}
			return nil
		})
	},
}

func printNutrient(out io.Writer, name string, n model.Nutrient, unit string) {
	if v, ok := n.Get(); ok {
		fmt.Fprintf(out, "%s: %.0f %s\n", name, v, unit)
	} else {
		fmt.Fprintf(out, "%s: untracked\n", name)
	}
}

// recomputeAndReport cascades the computed-state chain after any raw
// log mutation and reports how many days were rebuilt.
func recomputeAndReport(cmd *cobra.Command, st store.Store) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	orch := recompute.New(st, logger)
	days, err := orch.Run(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Recomputed %d day(s)\n", days)
	return nil
}

func init() {
	rootCmd.AddCommand(logCmd)
	logCmd.AddCommand(logSetCmd, logStatusCmd, logShowCmd)

	logSetCmd.Flags().StringVar(&logDate, "date", "", "Day to log (YYYY-MM-DD, default today)")
	logSetCmd.Flags().Float64Var(&logCalories, "calories", 0, "Calories eaten (0 = deliberate fast)")
	logSetCmd.Flags().Float64Var(&logProtein, "protein", 0, "Protein in grams")
	logSetCmd.Flags().Float64Var(&logCarbs, "carbs", 0, "Carbs in grams")
	logSetCmd.Flags().Float64Var(&logFat, "fat", 0, "Fat in grams")
	logSetCmd.Flags().IntVar(&logSteps, "steps", 0, "Step count for the day")

	logStatusCmd.Flags().StringVar(&logStatusDate, "date", "", "Day to mark (YYYY-MM-DD, default today)")
	logShowCmd.Flags().StringVar(&logShowDate, "date", "", "Day to show (YYYY-MM-DD, default today)")
}
