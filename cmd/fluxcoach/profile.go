package fluxcoach

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"fluxcoach/internal/engine"
	"fluxcoach/internal/model"
	"fluxcoach/internal/store"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage goals and the BMR profile",
}

var (
	profileHeight    float64
	profileBirthDate string
	profileSex       string
	profileAthlete   bool
	profileGoal      string
	profileRate      float64
	profileTarget    float64
	profileUnit      string
)

var profileSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set profile fields; unset flags keep their current values",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(st store.Store) error {
			p, err := st.Profile()
			if err != nil {
				return err
			}
			prevGoal := p.GoalType
			flags := cmd.Flags()
			if flags.Changed("height") {
				v := profileHeight
				p.HeightCm = &v
			}
			if flags.Changed("birth-date") {
				bd, err := model.ParseDate(profileBirthDate)
				if err != nil {
					return err
				}
				p.BirthDate = &bd
			}
			if flags.Changed("sex") {
				p.Sex = model.Sex(profileSex)
			}
			if flags.Changed("athlete") {
				p.Athlete = profileAthlete
			}
			if flags.Changed("goal") {
				goal := model.GoalType(profileGoal)
				if !goal.Valid() {
					return fmt.Errorf("invalid goal %q (use lose, gain, or maintain)", profileGoal)
				}
				p.GoalType = goal
			}
			if flags.Changed("rate") {
				p.GoalRateKgPerWeek = profileRate
			}
			if flags.Changed("target-weight") {
				kg, err := parseWeightToKg(profileTarget, profileUnit)
				if err != nil {
					return err
				}
				p.TargetWeightKg = &kg
			}
			if err := st.PutProfile(p); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Profile updated")
			if p.GoalType != prevGoal {
				if err := printGoalTransition(out, st, prevGoal, p.GoalType); err != nil {
					return err
				}
			}
			return nil
		})
	},
}

// printGoalTransition previews the expected one-time TDEE step for a
// goal switch, anchored on the latest computed state. No state, no
// prediction.
func printGoalTransition(out io.Writer, st store.Store, from, to model.GoalType) error {
	last, ok, err := st.LastComputedDate()
	if err != nil || !ok {
		return err
	}
	state, err := st.ComputedState(last)
	if err != nil || state == nil {
		return err
	}
	predicted := engine.PredictGoalTransitionTdee(state.EstimatedTdeeKcal, from, to, state.TrendWeightKg)
	fmt.Fprintf(out, "Expected TDEE after switching %s -> %s: %.0f kcal/day (currently %.0f)\n",
		from, to, predicted, state.EstimatedTdeeKcal)
	return nil
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the profile and the cold-start TDEE estimate",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(st store.Store) error {
			p, err := st.Profile()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Goal: %s at %.2f kg/week\n", p.GoalType, p.GoalRateKgPerWeek)
			if p.TargetWeightKg != nil {
				fmt.Fprintf(out, "Target weight: %s\n", displayWeight(st, *p.TargetWeightKg))
			}
			if p.HeightCm != nil {
				fmt.Fprintf(out, "Height: %.0f cm\n", *p.HeightCm)
			}
			if p.BirthDate != nil {
				fmt.Fprintf(out, "Birth date: %s\n", model.FormatDate(*p.BirthDate))
			}
			if p.Sex != "" {
				fmt.Fprintf(out, "Sex: %s\n", p.Sex)
			}
			if p.Athlete {
				fmt.Fprintln(out, "Athlete: yes")
			}

			weights, err := st.ScaleWeights()
			if err != nil {
				return err
			}
			if len(weights) == 0 {
				return nil
			}
			current := weights[len(weights)-1].WeightKg
			if cold := engine.ColdStartTdee(p, current, time.Now()); cold != nil {
				fmt.Fprintf(out, "Cold-start TDEE estimate: %.0f kcal/day\n", *cold)
			} else {
				fmt.Fprintln(out, "Cold-start TDEE estimate: unavailable (set height, birth-date, and sex)")
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileSetCmd, profileShowCmd)

	profileSetCmd.Flags().Float64Var(&profileHeight, "height", 0, "Height in cm")
	profileSetCmd.Flags().StringVar(&profileBirthDate, "birth-date", "", "Birth date (YYYY-MM-DD)")
	profileSetCmd.Flags().StringVar(&profileSex, "sex", "", "Sex for the BMR formula (male or female)")
	profileSetCmd.Flags().BoolVar(&profileAthlete, "athlete", false, "Athlete status (raises the cold-start estimate)")
	profileSetCmd.Flags().StringVar(&profileGoal, "goal", "", "Goal type (lose, gain, maintain)")
	profileSetCmd.Flags().Float64Var(&profileRate, "rate", 0, "Goal rate in kg/week")
	profileSetCmd.Flags().Float64Var(&profileTarget, "target-weight", 0, "Target weight")
	profileSetCmd.Flags().StringVar(&profileUnit, "unit", "kg", "Unit for --target-weight (kg or lb)")
}
