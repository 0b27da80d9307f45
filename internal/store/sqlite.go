package store

import (
	"database/sql"
	"fmt"
	"strings"

	"fluxcoach/internal/model"
)

// pendingCursorKey is the app_config key holding the earliest date
// still pending recompute. A date with no computed_states row is
// implicitly pending regardless of the cursor.
const pendingCursorKey = "recompute_pending_from"

// SQLite implements Store over a single-user SQLite database.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{db: db}
}

func (s *SQLite) DailyLog(date string) (*model.DailyLog, error) {
	if _, err := model.ParseDate(date); err != nil {
		return nil, err
	}
	row := s.db.QueryRow(`
SELECT date, scale_weight_kg, calories, protein_g, carbs_g, fat_g, steps, log_status, created_at, updated_at
FROM daily_logs
WHERE date = ?
`, date)
	log, err := scanDailyLog(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load daily log %s: %w", date, err)
	}
	return log, nil
}

func (s *SQLite) DailyLogRange(start, end string) ([]model.DailyLog, error) {
	if err := validateRange(start, end); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(`
SELECT date, scale_weight_kg, calories, protein_g, carbs_g, fat_g, steps, log_status, created_at, updated_at
FROM daily_logs
WHERE date >= ? AND date <= ?
ORDER BY date ASC
`, start, end)
	if err != nil {
		return nil, fmt.Errorf("list daily logs %s..%s: %w", start, end, err)
	}
	defer rows.Close()

	logs := make([]model.DailyLog, 0)
	for rows.Next() {
		log, err := scanDailyLog(rows)
		if err != nil {
			return nil, fmt.Errorf("scan daily log: %w", err)
		}
		logs = append(logs, *log)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate daily logs: %w", err)
	}
	return logs, nil
}

func (s *SQLite) PutDailyLog(log model.DailyLog) error {
	if _, err := model.ParseDate(log.Date); err != nil {
		return err
	}
	if log.Status == "" {
		log.Status = model.LogStatusComplete
	}
	if !log.Status.Valid() {
		return fmt.Errorf("invalid log status %q", log.Status)
	}
	if log.ScaleWeightKg != nil && *log.ScaleWeightKg <= 0 {
		return fmt.Errorf("scale weight must be > 0 kg, got %.2f", *log.ScaleWeightKg)
	}
	for _, n := range []struct {
		name string
		val  model.Nutrient
	}{
		{"calories", log.Calories},
		{"protein", log.ProteinG},
		{"carbs", log.CarbsG},
		{"fat", log.FatG},
	} {
		if v, ok := n.val.Get(); ok && v < 0 {
			return fmt.Errorf("%s must be >= 0, got %.1f", n.name, v)
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin daily log tx: %w", err)
	}
	_, err = tx.Exec(`
INSERT INTO daily_logs(date, scale_weight_kg, calories, protein_g, carbs_g, fat_g, steps, log_status)
VALUES(?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(date) DO UPDATE SET
  scale_weight_kg=excluded.scale_weight_kg,
  calories=excluded.calories,
  protein_g=excluded.protein_g,
  carbs_g=excluded.carbs_g,
  fat_g=excluded.fat_g,
  steps=excluded.steps,
  log_status=excluded.log_status,
  updated_at=CURRENT_TIMESTAMP
`, log.Date, log.ScaleWeightKg,
		nullFromNutrient(log.Calories), nullFromNutrient(log.ProteinG),
		nullFromNutrient(log.CarbsG), nullFromNutrient(log.FatG),
		log.Steps, string(log.Status))
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("upsert daily log %s: %w", log.Date, err)
	}
	if err := markPendingTx(tx, log.Date); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit daily log %s: %w", log.Date, err)
	}
	return nil
}

func (s *SQLite) EarliestLogDate() (string, bool, error) {
	var date sql.NullString
	if err := s.db.QueryRow(`SELECT MIN(date) FROM daily_logs`).Scan(&date); err != nil {
		return "", false, fmt.Errorf("earliest log date: %w", err)
	}
	if !date.Valid {
		return "", false, nil
	}
	return date.String, true, nil
}

func (s *SQLite) ScaleWeights() ([]model.WeightEntry, error) {
	rows, err := s.db.Query(`
SELECT date, scale_weight_kg
FROM daily_logs
WHERE scale_weight_kg IS NOT NULL
ORDER BY date ASC
`)
	if err != nil {
		return nil, fmt.Errorf("list scale weights: %w", err)
	}
	defer rows.Close()

	entries := make([]model.WeightEntry, 0)
	for rows.Next() {
		var date string
		var weight float64
		if err := rows.Scan(&date, &weight); err != nil {
			return nil, fmt.Errorf("scan scale weight: %w", err)
		}
		day, err := model.ParseDate(date)
		if err != nil {
			return nil, err
		}
		entries = append(entries, model.WeightEntry{Date: day, WeightKg: weight})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scale weights: %w", err)
	}
	return entries, nil
}

func (s *SQLite) CountTrackedDaysBefore(date string) (int, error) {
	if _, err := model.ParseDate(date); err != nil {
		return 0, err
	}
	var count int
	err := s.db.QueryRow(`
SELECT COUNT(*)
FROM daily_logs
WHERE date < ? AND calories IS NOT NULL AND log_status != 'skipped'
`, date).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count tracked days before %s: %w", date, err)
	}
	return count, nil
}

func (s *SQLite) ComputedState(date string) (*model.ComputedState, error) {
	if _, err := model.ParseDate(date); err != nil {
		return nil, err
	}
	row := s.db.QueryRow(computedStateColumns+` WHERE date = ?`, date)
	st, err := scanComputedState(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load computed state %s: %w", date, err)
	}
	return st, nil
}

func (s *SQLite) ComputedStateRange(start, end string) ([]model.ComputedState, error) {
	if err := validateRange(start, end); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(computedStateColumns+` WHERE date >= ? AND date <= ? ORDER BY date ASC`, start, end)
	if err != nil {
		return nil, fmt.Errorf("list computed states %s..%s: %w", start, end, err)
	}
	defer rows.Close()

	states := make([]model.ComputedState, 0)
	for rows.Next() {
		st, err := scanComputedState(rows)
		if err != nil {
			return nil, fmt.Errorf("scan computed state: %w", err)
		}
		states = append(states, *st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate computed states: %w", err)
	}
	return states, nil
}

func (s *SQLite) LatestComputedStateBefore(date string) (*model.ComputedState, error) {
	if _, err := model.ParseDate(date); err != nil {
		return nil, err
	}
	row := s.db.QueryRow(computedStateColumns+` WHERE date < ? ORDER BY date DESC LIMIT 1`, date)
	st, err := scanComputedState(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load computed state before %s: %w", date, err)
	}
	return st, nil
}

func (s *SQLite) LastComputedDate() (string, bool, error) {
	var date sql.NullString
	if err := s.db.QueryRow(`SELECT MAX(date) FROM computed_states`).Scan(&date); err != nil {
		return "", false, fmt.Errorf("last computed date: %w", err)
	}
	if !date.Valid {
		return "", false, nil
	}
	return date.String, true, nil
}

func (s *SQLite) PersistRecomputedDay(state model.ComputedState, nextPending string) error {
	if _, err := model.ParseDate(state.Date); err != nil {
		return err
	}
	if _, err := model.ParseDate(nextPending); err != nil {
		return err
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin recompute tx: %w", err)
	}
	_, err = tx.Exec(`
INSERT INTO computed_states(date, trend_weight_kg, raw_tdee_kcal, estimated_tdee_kcal, flux_confidence_kcal, energy_density, weight_delta_kg)
VALUES(?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(date) DO UPDATE SET
  trend_weight_kg=excluded.trend_weight_kg,
  raw_tdee_kcal=excluded.raw_tdee_kcal,
  estimated_tdee_kcal=excluded.estimated_tdee_kcal,
  flux_confidence_kcal=excluded.flux_confidence_kcal,
  energy_density=excluded.energy_density,
  weight_delta_kg=excluded.weight_delta_kg,
  updated_at=CURRENT_TIMESTAMP
`, state.Date, state.TrendWeightKg, state.RawTdeeKcal, state.EstimatedTdeeKcal,
		state.FluxConfidenceKcal, state.EnergyDensity, state.WeightDeltaKg)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("upsert computed state %s: %w", state.Date, err)
	}
	if err := setConfigTx(tx, pendingCursorKey, nextPending); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit computed state %s: %w", state.Date, err)
	}
	return nil
}

func (s *SQLite) EarliestPending() (string, bool, error) {
	return s.GetConfig(pendingCursorKey)
}

func (s *SQLite) MarkPending(date string) error {
	if _, err := model.ParseDate(date); err != nil {
		return err
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin mark pending tx: %w", err)
	}
	if err := markPendingTx(tx, date); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit mark pending: %w", err)
	}
	return nil
}

func (s *SQLite) ClearPending() error {
	if _, err := s.db.Exec(`DELETE FROM app_config WHERE key = ?`, pendingCursorKey); err != nil {
		return fmt.Errorf("clear pending cursor: %w", err)
	}
	return nil
}

func (s *SQLite) Profile() (model.Profile, error) {
	p := model.Profile{
		GoalType:          model.GoalMaintain,
		GoalRateKgPerWeek: 0.5,
	}
	var (
		birthDate sql.NullString
		sex       sql.NullString
		athlete   int
		goalType  string
	)
	err := s.db.QueryRow(`
SELECT height_cm, birth_date, sex, athlete, goal_type, goal_rate_kg_per_week,
       target_weight_kg, calorie_goal, protein_goal_g, carbs_goal_g, fat_goal_g, updated_at
FROM profile
WHERE id = 1
`).Scan(&p.HeightCm, &birthDate, &sex, &athlete, &goalType, &p.GoalRateKgPerWeek,
		&p.TargetWeightKg, &p.CalorieGoal, &p.ProteinGoalG, &p.CarbsGoalG, &p.FatGoalG, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return p, nil
	}
	if err != nil {
		return p, fmt.Errorf("load profile: %w", err)
	}
	if birthDate.Valid {
		bd, err := model.ParseDate(birthDate.String)
		if err != nil {
			return p, fmt.Errorf("profile birth date: %w", err)
		}
		p.BirthDate = &bd
	}
	if sex.Valid {
		p.Sex = model.Sex(sex.String)
	}
	p.Athlete = athlete != 0
	p.GoalType = model.GoalType(goalType)
	return p, nil
}

func (s *SQLite) PutProfile(p model.Profile) error {
	if p.GoalType == "" {
		p.GoalType = model.GoalMaintain
	}
	if !p.GoalType.Valid() {
		return fmt.Errorf("invalid goal type %q", p.GoalType)
	}
	if p.GoalRateKgPerWeek < 0 {
		return fmt.Errorf("goal rate must be >= 0 kg/week, got %.2f", p.GoalRateKgPerWeek)
	}
	if p.Sex != "" && p.Sex != model.SexMale && p.Sex != model.SexFemale {
		return fmt.Errorf("invalid sex %q", p.Sex)
	}
	var birthDate *string
	if p.BirthDate != nil {
		v := model.FormatDate(*p.BirthDate)
		birthDate = &v
	}
	var sex *string
	if p.Sex != "" {
		v := string(p.Sex)
		sex = &v
	}
	athlete := 0
	if p.Athlete {
		athlete = 1
	}
	_, err := s.db.Exec(`
INSERT INTO profile(id, height_cm, birth_date, sex, athlete, goal_type, goal_rate_kg_per_week,
                    target_weight_kg, calorie_goal, protein_goal_g, carbs_goal_g, fat_goal_g)
VALUES(1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  height_cm=excluded.height_cm,
  birth_date=excluded.birth_date,
  sex=excluded.sex,
  athlete=excluded.athlete,
  goal_type=excluded.goal_type,
  goal_rate_kg_per_week=excluded.goal_rate_kg_per_week,
  target_weight_kg=excluded.target_weight_kg,
  calorie_goal=excluded.calorie_goal,
  protein_goal_g=excluded.protein_goal_g,
  carbs_goal_g=excluded.carbs_goal_g,
  fat_goal_g=excluded.fat_goal_g,
  updated_at=CURRENT_TIMESTAMP
`, p.HeightCm, birthDate, sex, athlete, string(p.GoalType), p.GoalRateKgPerWeek,
		p.TargetWeightKg, p.CalorieGoal, p.ProteinGoalG, p.CarbsGoalG, p.FatGoalG)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

func (s *SQLite) WeeklyCheckIn(weekStart string) (*model.WeeklyCheckIn, error) {
	if _, err := model.ParseDate(weekStart); err != nil {
		return nil, err
	}
	var c model.WeeklyCheckIn
	var confidence string
	err := s.db.QueryRow(`
SELECT week_start, week_end, average_tdee_kcal, suggested_calories, adherence_score,
       confidence, trend_weight_start_kg, trend_weight_end_kg, weekly_change_kg, created_at
FROM weekly_checkins
WHERE week_start = ?
`, weekStart).Scan(&c.WeekStart, &c.WeekEnd, &c.AverageTdeeKcal, &c.SuggestedCalories,
		&c.AdherenceScore, &confidence, &c.TrendWeightStartKg, &c.TrendWeightEndKg,
		&c.WeeklyChangeKg, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load weekly check-in %s: %w", weekStart, err)
	}
	c.Confidence = model.ConfidenceLevel(confidence)
	return &c, nil
}

func (s *SQLite) PutWeeklyCheckIn(c model.WeeklyCheckIn) error {
	if _, err := model.ParseDate(c.WeekStart); err != nil {
		return err
	}
	if _, err := model.ParseDate(c.WeekEnd); err != nil {
		return err
	}
	_, err := s.db.Exec(`
INSERT INTO weekly_checkins(week_start, week_end, average_tdee_kcal, suggested_calories,
                            adherence_score, confidence, trend_weight_start_kg,
                            trend_weight_end_kg, weekly_change_kg)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(week_start) DO UPDATE SET
  week_end=excluded.week_end,
  average_tdee_kcal=excluded.average_tdee_kcal,
  suggested_calories=excluded.suggested_calories,
  adherence_score=excluded.adherence_score,
  confidence=excluded.confidence,
  trend_weight_start_kg=excluded.trend_weight_start_kg,
  trend_weight_end_kg=excluded.trend_weight_end_kg,
  weekly_change_kg=excluded.weekly_change_kg
`, c.WeekStart, c.WeekEnd, c.AverageTdeeKcal, c.SuggestedCalories, c.AdherenceScore,
		string(c.Confidence), c.TrendWeightStartKg, c.TrendWeightEndKg, c.WeeklyChangeKg)
	if err != nil {
		return fmt.Errorf("upsert weekly check-in %s: %w", c.WeekStart, err)
	}
	return nil
}

func (s *SQLite) GetConfig(key string) (string, bool, error) {
	key = strings.TrimSpace(strings.ToLower(key))
	if key == "" {
		return "", false, fmt.Errorf("config key is required")
	}
	var value string
	err := s.db.QueryRow(`SELECT value FROM app_config WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get config %q: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLite) SetConfig(key, value string) error {
	key = strings.TrimSpace(strings.ToLower(key))
	if key == "" {
		return fmt.Errorf("config key is required")
	}
	_, err := s.db.Exec(`
INSERT INTO app_config(key, value, updated_at)
VALUES(?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at
`, key, strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("set config %q: %w", key, err)
	}
	return nil
}

const computedStateColumns = `
SELECT date, trend_weight_kg, raw_tdee_kcal, estimated_tdee_kcal, flux_confidence_kcal, energy_density, weight_delta_kg, updated_at
FROM computed_states`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDailyLog(row rowScanner) (*model.DailyLog, error) {
	var (
		log      model.DailyLog
		weight   sql.NullFloat64
		calories sql.NullFloat64
		protein  sql.NullFloat64
		carbs    sql.NullFloat64
		fat      sql.NullFloat64
		steps    sql.NullInt64
		status   string
	)
	if err := row.Scan(&log.Date, &weight, &calories, &protein, &carbs, &fat, &steps,
		&status, &log.CreatedAt, &log.UpdatedAt); err != nil {
		return nil, err
	}
	if weight.Valid {
		v := weight.Float64
		log.ScaleWeightKg = &v
	}
	log.Calories = nutrientFromNull(calories)
	log.ProteinG = nutrientFromNull(protein)
	log.CarbsG = nutrientFromNull(carbs)
	log.FatG = nutrientFromNull(fat)
	if steps.Valid {
		v := int(steps.Int64)
		log.Steps = &v
	}
	log.Status = model.LogStatus(status)
	return &log, nil
}

func scanComputedState(row rowScanner) (*model.ComputedState, error) {
	var st model.ComputedState
	if err := row.Scan(&st.Date, &st.TrendWeightKg, &st.RawTdeeKcal, &st.EstimatedTdeeKcal,
		&st.FluxConfidenceKcal, &st.EnergyDensity, &st.WeightDeltaKg, &st.UpdatedAt); err != nil {
		return nil, err
	}
	return &st, nil
}

func markPendingTx(tx *sql.Tx, date string) error {
	var current string
	err := tx.QueryRow(`SELECT value FROM app_config WHERE key = ?`, pendingCursorKey).Scan(&current)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("read pending cursor: %w", err)
	}
	if err == nil && current <= date {
		return nil
	}
	return setConfigTx(tx, pendingCursorKey, date)
}

func setConfigTx(tx *sql.Tx, key, value string) error {
	_, err := tx.Exec(`
INSERT INTO app_config(key, value, updated_at)
VALUES(?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at
`, key, value)
	if err != nil {
		return fmt.Errorf("set config %q: %w", key, err)
	}
	return nil
}

func nutrientFromNull(v sql.NullFloat64) model.Nutrient {
	if !v.Valid {
		return model.UntrackedNutrient()
	}
	return model.TrackedNutrient(v.Float64)
}

func nullFromNutrient(n model.Nutrient) any {
	if v, ok := n.Get(); ok {
		return v
	}
	return nil
}

func validateRange(start, end string) error {
	if _, err := model.ParseDate(start); err != nil {
		return err
	}
	if _, err := model.ParseDate(end); err != nil {
		return err
	}
	if end < start {
		return fmt.Errorf("range end %s is before start %s", end, start)
	}
	return nil
}
