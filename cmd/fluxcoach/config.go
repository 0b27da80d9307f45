package fluxcoach

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"fluxcoach/internal/store"
)

const configKeyWeightUnit = "weight_unit"

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage display preferences",
}

var configSetUnitCmd = &cobra.Command{
	Use:   "set-unit <kg|lb>",
	Short: "Set the weight display unit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		unit := strings.ToLower(strings.TrimSpace(args[0]))
		if unit != "kg" && unit != "lb" {
			return fmt.Errorf("invalid unit %q (use kg or lb)", args[0])
		}
		return withStore(func(st store.Store) error {
			if err := st.SetConfig(configKeyWeightUnit, unit); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Weight display unit set to %s\n", unit)
			return nil
		})
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(st store.Store) error {
			unit, ok, err := st.GetConfig(configKeyWeightUnit)
			if err != nil {
				return err
			}
			if !ok {
				unit = "kg"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "weight_unit: %s\n", unit)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configSetUnitCmd, configShowCmd)
}
