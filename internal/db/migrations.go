package db

import (
	"database/sql"
	"fmt"
)

type migration struct {
	version int
	name    string
	sql     string
}

var migrations = []migration{
	{
		version: 1,
		name:    "initial_schema",
		sql: `
CREATE TABLE IF NOT EXISTS schema_migrations (
  version INTEGER PRIMARY KEY,
  name TEXT NOT NULL,
  applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS daily_logs (
  date TEXT PRIMARY KEY,
  scale_weight_kg REAL CHECK(scale_weight_kg IS NULL OR scale_weight_kg > 0),
  calories REAL CHECK(calories IS NULL OR calories >= 0),
  protein_g REAL CHECK(protein_g IS NULL OR protein_g >= 0),
  carbs_g REAL CHECK(carbs_g IS NULL OR carbs_g >= 0),
  fat_g REAL CHECK(fat_g IS NULL OR fat_g >= 0),
  steps INTEGER CHECK(steps IS NULL OR steps >= 0),
  log_status TEXT NOT NULL DEFAULT 'complete' CHECK(log_status IN ('complete', 'partial', 'skipped')),
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS computed_states (
  date TEXT PRIMARY KEY,
  trend_weight_kg REAL NOT NULL,
  raw_tdee_kcal REAL NOT NULL,
  estimated_tdee_kcal REAL NOT NULL,
  flux_confidence_kcal REAL NOT NULL,
  energy_density REAL NOT NULL,
  weight_delta_kg REAL NOT NULL,
  updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS profile (
  id INTEGER PRIMARY KEY CHECK(id = 1),
  height_cm REAL CHECK(height_cm IS NULL OR height_cm > 0),
  birth_date TEXT,
  sex TEXT CHECK(sex IS NULL OR sex IN ('male', 'female')),
  athlete INTEGER NOT NULL DEFAULT 0,
  goal_type TEXT NOT NULL DEFAULT 'maintain' CHECK(goal_type IN ('lose', 'gain', 'maintain')),
  goal_rate_kg_per_week REAL NOT NULL DEFAULT 0.5 CHECK(goal_rate_kg_per_week >= 0),
  target_weight_kg REAL CHECK(target_weight_kg IS NULL OR target_weight_kg > 0),
  calorie_goal INTEGER CHECK(calorie_goal IS NULL OR calorie_goal >= 0),
  protein_goal_g REAL CHECK(protein_goal_g IS NULL OR protein_goal_g >= 0),
  carbs_goal_g REAL CHECK(carbs_goal_g IS NULL OR carbs_goal_g >= 0),
  fat_goal_g REAL CHECK(fat_goal_g IS NULL OR fat_goal_g >= 0),
  updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS weekly_checkins (
  week_start TEXT PRIMARY KEY,
  week_end TEXT NOT NULL,
  average_tdee_kcal REAL NOT NULL,
  suggested_calories REAL NOT NULL,
  adherence_score REAL NOT NULL,
  confidence TEXT NOT NULL CHECK(confidence IN ('learning', 'low', 'medium', 'high')),
  trend_weight_start_kg REAL NOT NULL,
  trend_weight_end_kg REAL NOT NULL,
  weekly_change_kg REAL NOT NULL,
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS app_config (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`,
	},
	{
		version: 2,
		name:    "scale_weight_index",
		sql: `
CREATE INDEX IF NOT EXISTS idx_daily_logs_scale_weight ON daily_logs(date) WHERE scale_weight_kg IS NOT NULL;
`,
	},
}

func ApplyMigrations(db *sql.DB) error {
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS schema_migrations (
  version INTEGER PRIMARY KEY,
  name TEXT NOT NULL,
  applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`); err != nil {
		return fmt.Errorf("ensure schema_migrations table: %w", err)
	}

	for _, m := range migrations {
		var exists int
		err := db.QueryRow(`SELECT 1 FROM schema_migrations WHERE version = ?`, m.version).Scan(&exists)
		if err == nil {
			continue
		}
		if err != sql.ErrNoRows {
			return fmt.Errorf("check migration version %d: %w", m.version, err)
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration tx: %w", err)
		}

		if _, err := tx.Exec(m.sql); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply migration version %d (%s): %w", m.version, m.name, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations(version, name) VALUES(?, ?)`, m.version, m.name); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration version %d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration version %d: %w", m.version, err)
		}
	}

	return nil
}
