package store_test

import (
	"path/filepath"
	"testing"
	"time"

	"fluxcoach/internal/db"
	"fluxcoach/internal/model"
	"fluxcoach/internal/store"
)

func newTestStore(t *testing.T) *store.SQLite {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fluxcoach.db")
	sqldb, err := db.Open(path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = sqldb.Close() })
	if err := db.ApplyMigrations(sqldb); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return store.NewSQLite(sqldb)
}

func TestDailyLogRoundTrip(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)

	weight := 84.6
	steps := 9500
	in := model.DailyLog{
		Date:          "2026-03-02",
		ScaleWeightKg: &weight,
		Calories:      model.TrackedNutrient(2150),
		ProteinG:      model.TrackedNutrient(160),
		Steps:         &steps,
		Status:        model.LogStatusComplete,
	}
	if err := st.PutDailyLog(in); err != nil {
		t.Fatalf("put daily log: %v", err)
	}

	got, err := st.DailyLog("2026-03-02")
	if err != nil {
		t.Fatalf("load daily log: %v", err)
	}
	if got == nil {
		t.Fatalf("expected stored log")
	}
	if got.ScaleWeightKg == nil || *got.ScaleWeightKg != 84.6 {
		t.Fatalf("expected weight 84.6, got %v", got.ScaleWeightKg)
	}
	if v, ok := got.Calories.Get(); !ok || v != 2150 {
		t.Fatalf("expected tracked calories 2150, got %v tracked=%v", v, ok)
	}
	// Unset nutrients stay untracked, not zero.
	if got.CarbsG.Tracked() || got.FatG.Tracked() {
		t.Fatalf("expected carbs and fat untracked")
	}
	if got.Steps == nil || *got.Steps != 9500 {
		t.Fatalf("expected steps 9500, got %v", got.Steps)
	}
	if got.Status != model.LogStatusComplete {
		t.Fatalf("expected complete status, got %s", got.Status)
	}
}

func TestDailyLogMissingReturnsNil(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)

	got, err := st.DailyLog("2026-03-02")
	if err != nil {
		t.Fatalf("load daily log: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for missing log, got %+v", got)
	}
}

func TestDailyLogDistinguishesZeroFromUntracked(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)

	if err := st.PutDailyLog(model.DailyLog{
		Date:     "2026-03-02",
		Calories: model.TrackedNutrient(0),
	}); err != nil {
		t.Fatalf("put fasting log: %v", err)
	}
	got, err := st.DailyLog("2026-03-02")
	if err != nil {
		t.Fatalf("load fasting log: %v", err)
	}
	if v, ok := got.Calories.Get(); !ok || v != 0 {
		t.Fatalf("expected a tracked zero, got %v tracked=%v", v, ok)
	}
}

func TestPutDailyLogValidation(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)

	if err := st.PutDailyLog(model.DailyLog{Date: "not-a-date"}); err == nil {
		t.Fatalf("expected invalid date to be rejected")
	}
	bad := -1.0
	if err := st.PutDailyLog(model.DailyLog{Date: "2026-03-02", ScaleWeightKg: &bad}); err == nil {
		t.Fatalf("expected non-positive weight to be rejected")
	}
	if err := st.PutDailyLog(model.DailyLog{Date: "2026-03-02", Calories: model.TrackedNutrient(-50)}); err == nil {
		t.Fatalf("expected negative calories to be rejected")
	}
	if err := st.PutDailyLog(model.DailyLog{Date: "2026-03-02", Status: model.LogStatus("bogus")}); err == nil {
		t.Fatalf("expected unknown status to be rejected")
	}
}

func TestPutDailyLogMarksPendingAtEarliestEdit(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)

	if err := st.PutDailyLog(model.DailyLog{Date: "2026-03-05", Calories: model.TrackedNutrient(2000)}); err != nil {
		t.Fatalf("put log: %v", err)
	}
	pending, ok, err := st.EarliestPending()
	if err != nil {
		t.Fatalf("earliest pending: %v", err)
	}
	if !ok || pending != "2026-03-05" {
		t.Fatalf("expected pending cursor 2026-03-05, got %q ok=%v", pending, ok)
	}

	// An earlier edit pulls the cursor back; a later one leaves it alone.
	if err := st.PutDailyLog(model.DailyLog{Date: "2026-03-03", Calories: model.TrackedNutrient(1900)}); err != nil {
		t.Fatalf("put earlier log: %v", err)
	}
	if err := st.PutDailyLog(model.DailyLog{Date: "2026-03-08", Calories: model.TrackedNutrient(2100)}); err != nil {
		t.Fatalf("put later log: %v", err)
	}
	pending, ok, err = st.EarliestPending()
	if err != nil {
		t.Fatalf("earliest pending: %v", err)
	}
	if !ok || pending != "2026-03-03" {
		t.Fatalf("expected pending cursor 2026-03-03, got %q ok=%v", pending, ok)
	}

	if err := st.ClearPending(); err != nil {
		t.Fatalf("clear pending: %v", err)
	}
	if _, ok, _ := st.EarliestPending(); ok {
		t.Fatalf("expected no pending cursor after clear")
	}
}

func TestPersistRecomputedDayAdvancesCursor(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)

	state := model.ComputedState{
		Date:               "2026-03-02",
		TrendWeightKg:      84.6,
		RawTdeeKcal:        2510,
		EstimatedTdeeKcal:  2500,
		FluxConfidenceKcal: 250,
		EnergyDensity:      7700,
		WeightDeltaKg:      -0.05,
	}
	if err := st.PersistRecomputedDay(state, "2026-03-03"); err != nil {
		t.Fatalf("persist recomputed day: %v", err)
	}

	got, err := st.ComputedState("2026-03-02")
	if err != nil {
		t.Fatalf("load computed state: %v", err)
	}
	if got == nil || got.EstimatedTdeeKcal != 2500 || got.TrendWeightKg != 84.6 {
		t.Fatalf("unexpected stored state %+v", got)
	}

	pending, ok, err := st.EarliestPending()
	if err != nil {
		t.Fatalf("earliest pending: %v", err)
	}
	if !ok || pending != "2026-03-03" {
		t.Fatalf("expected cursor advanced to 2026-03-03, got %q ok=%v", pending, ok)
	}
}

func TestScaleWeightsSortedAndFiltered(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)

	w1, w2 := 85.0, 84.4
	logs := []model.DailyLog{
		{Date: "2026-03-04", ScaleWeightKg: &w2},
		{Date: "2026-03-01", ScaleWeightKg: &w1},
		{Date: "2026-03-02", Calories: model.TrackedNutrient(2000)}, // no weight
	}
	for _, l := range logs {
		if err := st.PutDailyLog(l); err != nil {
			t.Fatalf("put log %s: %v", l.Date, err)
		}
	}

	entries, err := st.ScaleWeights()
	if err != nil {
		t.Fatalf("scale weights: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 weight entries, got %d", len(entries))
	}
	if !entries[0].Date.Before(entries[1].Date) {
		t.Fatalf("expected entries sorted ascending")
	}
	if entries[0].WeightKg != 85 || entries[1].WeightKg != 84.4 {
		t.Fatalf("unexpected weights %v", entries)
	}
}

func TestCountTrackedDaysBefore(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)

	logs := []model.DailyLog{
		{Date: "2026-03-01", Calories: model.TrackedNutrient(2000)},
		{Date: "2026-03-02", Calories: model.TrackedNutrient(2100), Status: model.LogStatusSkipped},
		{Date: "2026-03-03"}, // untracked
		{Date: "2026-03-04", Calories: model.TrackedNutrient(1900)},
	}
	for _, l := range logs {
		if err := st.PutDailyLog(l); err != nil {
			t.Fatalf("put log %s: %v", l.Date, err)
		}
	}

	count, err := st.CountTrackedDaysBefore("2026-03-05")
	if err != nil {
		t.Fatalf("count tracked days: %v", err)
	}
	// Skipped and untracked days do not count.
	if count != 2 {
		t.Fatalf("expected 2 tracked days, got %d", count)
	}

	count, err = st.CountTrackedDaysBefore("2026-03-01")
	if err != nil {
		t.Fatalf("count tracked days: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 tracked days before first log, got %d", count)
	}
}

func TestComputedStateQueries(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)

	for i, date := range []string{"2026-03-02", "2026-03-03", "2026-03-04"} {
		state := model.ComputedState{
			Date:               date,
			TrendWeightKg:      84.5 - 0.1*float64(i),
			RawTdeeKcal:        2500,
			EstimatedTdeeKcal:  2500,
			FluxConfidenceKcal: 250,
			EnergyDensity:      7700,
		}
		if err := st.PersistRecomputedDay(state, "2026-03-05"); err != nil {
			t.Fatalf("persist state %s: %v", date, err)
		}
	}

	states, err := st.ComputedStateRange("2026-03-02", "2026-03-03")
	if err != nil {
		t.Fatalf("range query: %v", err)
	}
	if len(states) != 2 {
		t.Fatalf("expected 2 states in range, got %d", len(states))
	}

	anchor, err := st.LatestComputedStateBefore("2026-03-04")
	if err != nil {
		t.Fatalf("anchor query: %v", err)
	}
	if anchor == nil || anchor.Date != "2026-03-03" {
		t.Fatalf("expected anchor 2026-03-03, got %+v", anchor)
	}

	anchor, err = st.LatestComputedStateBefore("2026-03-02")
	if err != nil {
		t.Fatalf("anchor query: %v", err)
	}
	if anchor != nil {
		t.Fatalf("expected no anchor before first state, got %+v", anchor)
	}

	last, ok, err := st.LastComputedDate()
	if err != nil {
		t.Fatalf("last computed date: %v", err)
	}
	if !ok || last != "2026-03-04" {
		t.Fatalf("expected last computed 2026-03-04, got %q ok=%v", last, ok)
	}

	if _, err := st.ComputedStateRange("2026-03-04", "2026-03-02"); err == nil {
		t.Fatalf("expected reversed range to fail")
	}
}

func TestEarliestLogDate(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)

	_, ok, err := st.EarliestLogDate()
	if err != nil {
		t.Fatalf("earliest log date: %v", err)
	}
	if ok {
		t.Fatalf("expected no earliest date on empty database")
	}

	for _, date := range []string{"2026-03-05", "2026-03-02"} {
		if err := st.PutDailyLog(model.DailyLog{Date: date, Calories: model.TrackedNutrient(2000)}); err != nil {
			t.Fatalf("put log %s: %v", date, err)
		}
	}
	earliest, ok, err := st.EarliestLogDate()
	if err != nil {
		t.Fatalf("earliest log date: %v", err)
	}
	if !ok || earliest != "2026-03-02" {
		t.Fatalf("expected earliest 2026-03-02, got %q ok=%v", earliest, ok)
	}
}

func TestProfileDefaultsAndRoundTrip(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)

	p, err := st.Profile()
	if err != nil {
		t.Fatalf("default profile: %v", err)
	}
	if p.GoalType != model.GoalMaintain || p.GoalRateKgPerWeek != 0.5 {
		t.Fatalf("unexpected defaults %+v", p)
	}

	height := 180.0
	birth := time.Date(1996, time.March, 15, 0, 0, 0, 0, time.Local)
	target := 80.0
	in := model.Profile{
		HeightCm:          &height,
		BirthDate:         &birth,
		Sex:               model.SexMale,
		Athlete:           true,
		GoalType:          model.GoalLose,
		GoalRateKgPerWeek: 0.4,
		TargetWeightKg:    &target,
	}
	if err := st.PutProfile(in); err != nil {
		t.Fatalf("put profile: %v", err)
	}

	got, err := st.Profile()
	if err != nil {
		t.Fatalf("load profile: %v", err)
	}
	if got.HeightCm == nil || *got.HeightCm != 180 {
		t.Fatalf("expected height 180, got %v", got.HeightCm)
	}
	if got.BirthDate == nil || !got.BirthDate.Equal(birth) {
		t.Fatalf("expected birth date %s, got %v", birth, got.BirthDate)
	}
	if got.Sex != model.SexMale || !got.Athlete {
		t.Fatalf("expected male athlete, got %+v", got)
	}
	if got.GoalType != model.GoalLose || got.GoalRateKgPerWeek != 0.4 {
		t.Fatalf("unexpected goal fields %+v", got)
	}
	if got.TargetWeightKg == nil || *got.TargetWeightKg != 80 {
		t.Fatalf("expected target weight 80, got %v", got.TargetWeightKg)
	}

	if err := st.PutProfile(model.Profile{GoalType: model.GoalType("bulk")}); err == nil {
		t.Fatalf("expected invalid goal type to be rejected")
	}
	if err := st.PutProfile(model.Profile{GoalRateKgPerWeek: -0.5}); err == nil {
		t.Fatalf("expected negative goal rate to be rejected")
	}
}

func TestWeeklyCheckInRoundTrip(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)

	got, err := st.WeeklyCheckIn("2026-03-02")
	if err != nil {
		t.Fatalf("missing check-in: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for missing check-in")
	}

	in := model.WeeklyCheckIn{
		WeekStart:          "2026-03-02",
		WeekEnd:            "2026-03-08",
		AverageTdeeKcal:    2500,
		SuggestedCalories:  1950,
		AdherenceScore:     1,
		Confidence:         model.ConfidenceHigh,
		TrendWeightStartKg: 84.5,
		TrendWeightEndKg:   84.0,
		WeeklyChangeKg:     -0.5,
	}
	if err := st.PutWeeklyCheckIn(in); err != nil {
		t.Fatalf("put check-in: %v", err)
	}
	// Re-running a week overwrites its row.
	in.SuggestedCalories = 2000
	if err := st.PutWeeklyCheckIn(in); err != nil {
		t.Fatalf("overwrite check-in: %v", err)
	}

	got, err = st.WeeklyCheckIn("2026-03-02")
	if err != nil {
		t.Fatalf("load check-in: %v", err)
	}
	if got == nil || got.SuggestedCalories != 2000 || got.Confidence != model.ConfidenceHigh {
		t.Fatalf("unexpected check-in %+v", got)
	}
	if got.WeekEnd != "2026-03-08" || got.WeeklyChangeKg != -0.5 {
		t.Fatalf("unexpected check-in fields %+v", got)
	}
}

func TestConfigRoundTrip(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)

	_, ok, err := st.GetConfig("weight_unit")
	if err != nil {
		t.Fatalf("get missing config: %v", err)
	}
	if ok {
		t.Fatalf("expected missing key")
	}

	if err := st.SetConfig("Weight_Unit", " lb "); err != nil {
		t.Fatalf("set config: %v", err)
	}
	value, ok, err := st.GetConfig("weight_unit")
	if err != nil {
		t.Fatalf("get config: %v", err)
	}
	if !ok || value != "lb" {
		t.Fatalf("expected normalized value lb, got %q ok=%v", value, ok)
	}

	if err := st.SetConfig("", "x"); err == nil {
		t.Fatalf("expected empty key to be rejected")
	}
}
