package fluxcoach

import (
	"fmt"
	"strings"
	"time"

	"fluxcoach/internal/app"
	"fluxcoach/internal/db"
	"fluxcoach/internal/model"
	"fluxcoach/internal/store"
)

func resolveDBPath() (string, error) {
	if strings.TrimSpace(dbPath) != "" {
		return dbPath, nil
	}
	return app.DefaultDBPath()
}

func withStore(run func(store.Store) error) error {
	path, err := resolveDBPath()
	if err != nil {
		return err
	}
	if err := app.EnsureDBDir(path); err != nil {
		return err
	}
	sqldb, err := db.Open(path)
	if err != nil {
		return err
	}
	defer sqldb.Close()

	if err := db.ApplyMigrations(sqldb); err != nil {
		return err
	}
	return run(store.NewSQLite(sqldb))
}

// parseDateOrToday accepts an empty value as the local calendar today.
func parseDateOrToday(value string) (string, error) {
	if strings.TrimSpace(value) == "" {
		return model.FormatDate(time.Now()), nil
	}
	t, err := model.ParseDate(value)
	if err != nil {
		return "", err
	}
	return model.FormatDate(t), nil
}

// displayWeight renders kilograms in the configured display unit.
func displayWeight(st store.Store, weightKg float64) string {
	unit, ok, err := st.GetConfig(configKeyWeightUnit)
	if err != nil || !ok {
		unit = "kg"
	}
	switch strings.ToLower(unit) {
	case "lb", "lbs":
		return fmt.Sprintf("%.1f lb", weightKg/0.45359237)
	default:
		return fmt.Sprintf("%.1f kg", weightKg)
	}
}

// parseWeightToKg converts a CLI weight in the given unit to kilograms.
func parseWeightToKg(value float64, unit string) (float64, error) {
	if value <= 0 {
		return 0, fmt.Errorf("weight must be > 0")
	}
	u := strings.ToLower(strings.TrimSpace(unit))
	if u == "" {
		u = "kg"
	}
	switch u {
	case "kg":
		return value, nil
	case "lb", "lbs":
		return value * 0.45359237, nil
	default:
		return 0, fmt.Errorf("invalid weight unit %q (use kg or lb)", unit)
	}
}
