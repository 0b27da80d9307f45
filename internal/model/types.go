package model

import "time"

// LogStatus is the user-facing treatment of a tracked day. An explicit
// status set by the user overrides whatever the raw data suggests.
type LogStatus string

const (
	LogStatusComplete LogStatus = "complete"
	LogStatusPartial  LogStatus = "partial"
	LogStatusSkipped  LogStatus = "skipped"
)

func (s LogStatus) Valid() bool {
	switch s {
	case LogStatusComplete, LogStatusPartial, LogStatusSkipped:
		return true
	}
	return false
}

type GoalType string

const (
	GoalLose     GoalType = "lose"
	GoalGain     GoalType = "gain"
	GoalMaintain GoalType = "maintain"
)

func (g GoalType) Valid() bool {
	switch g {
	case GoalLose, GoalGain, GoalMaintain:
		return true
	}
	return false
}

type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
)

type ConfidenceLevel string

const (
	ConfidenceLearning ConfidenceLevel = "learning"
	ConfidenceLow      ConfidenceLevel = "low"
	ConfidenceMedium   ConfidenceLevel = "medium"
	ConfidenceHigh     ConfidenceLevel = "high"
)

// DailyLog is the raw per-day record: scale weight, nutrition and an
// optional explicit status override. Nutrition fields are tri-state
// (untracked / zero / value) via Nutrient.
type DailyLog struct {
	Date          string // YYYY-MM-DD, local calendar day
	ScaleWeightKg *float64
	Calories      Nutrient
	ProteinG      Nutrient
	CarbsG        Nutrient
	FatG          Nutrient
	Steps         *int
	Status        LogStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Tracked reports whether the day has trackable nutrition at all.
func (l *DailyLog) Tracked() bool {
	return l != nil && l.Calories.Tracked()
}

// ComputedState is the derived per-day record. It is a pure function
// of the previous day's ComputedState and the day's DailyLog, and is
// written only by the recompute orchestrator.
type ComputedState struct {
	Date               string
	TrendWeightKg      float64
	RawTdeeKcal        float64
	EstimatedTdeeKcal  float64
	FluxConfidenceKcal float64 // ± kcal uncertainty band
	EnergyDensity      float64 // kcal per kg of body-mass change used in the back-solve
	WeightDeltaKg      float64
	UpdatedAt          time.Time
}

// Profile holds the single user's goals and BMR inputs. BMR fields are
// optional; cold-start estimation degrades gracefully without them.
type Profile struct {
	HeightCm          *float64
	BirthDate         *time.Time
	Sex               Sex // empty when not set
	Athlete           bool
	GoalType          GoalType
	GoalRateKgPerWeek float64
	TargetWeightKg    *float64
	CalorieGoal       *int
	ProteinGoalG      *float64
	CarbsGoalG        *float64
	FatGoalG          *float64
	UpdatedAt         time.Time
}

// WeeklyCheckIn aggregates a Monday-Sunday window of computed states
// and logs into the weekly coaching snapshot.
type WeeklyCheckIn struct {
	WeekStart          string
	WeekEnd            string
	AverageTdeeKcal    float64
	SuggestedCalories  float64
	AdherenceScore     float64
	Confidence         ConfidenceLevel
	TrendWeightStartKg float64
	TrendWeightEndKg   float64
	WeeklyChangeKg     float64
	CreatedAt          time.Time
}

// WeightEntry is a dated raw scale measurement.
type WeightEntry struct {
	Date     time.Time
	WeightKg float64
}
