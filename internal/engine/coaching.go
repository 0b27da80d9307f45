package engine

import (
	"fmt"
	"math"
	"time"

	"fluxcoach/internal/model"
)

const (
	// Hard safety bounds on any suggested daily target.
	MinCalorieTarget = 1200.0
	MaxCalorieTarget = 6000.0

	// Maintenance drift dead-band and its fixed micro-adjustment.
	MaintenanceToleranceKg  = 1.5
	MaintenanceMicroAdjKcal = 150.0

	DefaultGoalRateKgPerWeek = 0.5

	adherenceWindowDays  = 7
	partialLogFraction   = 0.5
	progressOvershootCap = 150.0
)

// GoalAdjustment converts a goal type and weekly rate into a signed
// daily kcal adjustment. Losses price body mass at the fat-weighted
// density, gains at the lean-weighted one.
func GoalAdjustment(goal model.GoalType, rateKgPerWeek float64) (float64, error) {
	if rateKgPerWeek < 0 {
		return 0, fmt.Errorf("goal rate must be >= 0 kg/week, got %.2f", rateKgPerWeek)
	}
	switch goal {
	case model.GoalLose:
		return -math.Round(rateKgPerWeek * EnergyDensityDeficitKcalPerKg / 7), nil
	case model.GoalGain:
		return math.Round(rateKgPerWeek * EnergyDensitySurplusKcalPerKg / 7), nil
	case model.GoalMaintain:
		return 0, nil
	default:
		return 0, fmt.Errorf("unknown goal type %q", goal)
	}
}

// CalorieTarget is TDEE plus the goal adjustment, clamped to the hard
// safety floor/ceiling.
func CalorieTarget(tdee float64, goal model.GoalType, rateKgPerWeek float64) (float64, error) {
	adj, err := GoalAdjustment(goal, rateKgPerWeek)
	if err != nil {
		return 0, err
	}
	target := tdee + adj
	if target < MinCalorieTarget {
		target = MinCalorieTarget
	}
	if target > MaxCalorieTarget {
		target = MaxCalorieTarget
	}
	return target, nil
}

// AdherenceScore is the fraction of a fixed 7-day window whose logs
// are complete with tracked calories. The denominator stays 7 even
// when fewer logs are supplied, so a short window cannot score 1.
func AdherenceScore(logs []model.DailyLog) float64 {
	complete := 0
	for i := range logs {
		if logs[i].Status == model.LogStatusComplete && logs[i].Calories.Tracked() {
			complete++
		}
	}
	score := float64(complete) / adherenceWindowDays
	if score > 1 {
		score = 1
	}
	return score
}

// UpdateEligibility reports whether a week has enough complete logs to
// justify a calorie-target update. Warning is empty when none applies.
type UpdateEligibility struct {
	CanUpdate   bool
	Warning     string
	MissingDays int
}

func WeeklyUpdateEligibility(logs []model.DailyLog) UpdateEligibility {
	complete := 0
	for i := range logs {
		if logs[i].Status == model.LogStatusComplete && logs[i].Calories.Tracked() {
			complete++
		}
	}
	missing := adherenceWindowDays - complete
	if missing < 0 {
		missing = 0
	}
	out := UpdateEligibility{
		CanUpdate:   missing < 4,
		MissingDays: missing,
	}
	if missing >= 2 {
		out.Warning = fmt.Sprintf("%d of 7 days are missing complete logs; the weekly update may be unreliable", missing)
	}
	return out
}

type DriftStatus string

const (
	DriftWithin DriftStatus = "within"
	DriftAbove  DriftStatus = "above"
	DriftBelow  DriftStatus = "below"
)

// DriftResult describes maintenance drift against the target weight
// and the dead-band controller's output.
type DriftResult struct {
	Status           DriftStatus
	AdjustedCalories float64
	DriftKg          float64
}

// CheckMaintenanceDrift applies a dead-band controller: within ±1.5 kg
// (inclusive) calories are untouched; above applies a fixed micro-cut,
// below a fixed micro-bulk. The adjustment does not scale with drift.
func CheckMaintenanceDrift(currentWeightKg, targetWeightKg, currentCalories float64) DriftResult {
	drift := currentWeightKg - targetWeightKg
	out := DriftResult{Status: DriftWithin, AdjustedCalories: currentCalories, DriftKg: drift}
	if math.Abs(drift) <= MaintenanceToleranceKg {
		return out
	}
	if drift > 0 {
		out.Status = DriftAbove
		out.AdjustedCalories = currentCalories - MaintenanceMicroAdjKcal
	} else {
		out.Status = DriftBelow
		out.AdjustedCalories = currentCalories + MaintenanceMicroAdjKcal
	}
	return out
}

// DetectPartialLogging flags a day whose tracked calories are
// implausibly low against the TDEE. Untracked days and deliberate
// fasts (tracked zero) are not partial.
func DetectPartialLogging(log *model.DailyLog, tdee float64) bool {
	if log == nil {
		return false
	}
	calories, tracked := log.Calories.Get()
	return tracked && calories > 0 && calories < partialLogFraction*tdee
}

// DetermineLogStatus derives a status for a day that has no explicit
// user override.
func DetermineLogStatus(log *model.DailyLog, tdee float64) model.LogStatus {
	if log == nil || !log.Calories.Tracked() {
		return model.LogStatusSkipped
	}
	if DetectPartialLogging(log, tdee) {
		return model.LogStatusPartial
	}
	return model.LogStatusComplete
}

// CheckInInput carries a week's worth of raw and computed data.
type CheckInInput struct {
	WeekStart   time.Time
	WeekEnd     time.Time
	Logs        []model.DailyLog
	States      []model.ComputedState
	Profile     model.Profile
	DaysTracked int
}

// BuildWeeklyCheckIn aggregates the inclusive window into a check-in.
// Returns nil when no computed state falls inside the window.
//
// Maintenance targets self-correct: instead of a static TDEE target,
// the drift controller is run against the stated target weight using
// the window's ending trend weight.
func BuildWeeklyCheckIn(in CheckInInput) (*model.WeeklyCheckIn, error) {
	if in.WeekEnd.Before(in.WeekStart) {
		return nil, fmt.Errorf("check-in week end %s is before start %s",
			model.FormatDate(in.WeekEnd), model.FormatDate(in.WeekStart))
	}
	startKey := model.FormatDate(in.WeekStart)
	endKey := model.FormatDate(in.WeekEnd)

	states := make([]model.ComputedState, 0, len(in.States))
	for _, s := range in.States {
		if s.Date >= startKey && s.Date <= endKey {
			states = append(states, s)
		}
	}
	if len(states) == 0 {
		return nil, nil
	}

	var sum float64
	for _, s := range states {
		sum += s.EstimatedTdeeKcal
	}
	avgTdee := sum / float64(len(states))
	endTrend := states[len(states)-1].TrendWeightKg

	logs := make([]model.DailyLog, 0, len(in.Logs))
	for _, l := range in.Logs {
		if l.Date >= startKey && l.Date <= endKey {
			logs = append(logs, l)
		}
	}

	rate := in.Profile.GoalRateKgPerWeek
	if rate == 0 {
		rate = DefaultGoalRateKgPerWeek
	}
	var suggested float64
	if in.Profile.GoalType == model.GoalMaintain && in.Profile.TargetWeightKg != nil {
		suggested = CheckMaintenanceDrift(endTrend, *in.Profile.TargetWeightKg, avgTdee).AdjustedCalories
	} else {
		var err error
		suggested, err = CalorieTarget(avgTdee, in.Profile.GoalType, rate)
		if err != nil {
			return nil, err
		}
	}

	eligibility := WeeklyUpdateEligibility(logs)
	return &model.WeeklyCheckIn{
		WeekStart:          startKey,
		WeekEnd:            endKey,
		AverageTdeeKcal:    avgTdee,
		SuggestedCalories:  suggested,
		AdherenceScore:     AdherenceScore(logs),
		Confidence:         DetermineConfidenceLevel(in.DaysTracked, eligibility.MissingDays),
		TrendWeightStartKg: states[0].TrendWeightKg,
		TrendWeightEndKg:   endTrend,
		WeeklyChangeKg:     endTrend - states[0].TrendWeightKg,
	}, nil
}

// GoalProgress reports percent progress from start toward target.
// Capped at 150 on overshoot; deliberately uncapped below zero so a
// regression past the starting weight reads as "moved away from goal".
func GoalProgress(startWeightKg, currentWeightKg, targetWeightKg float64) float64 {
	if targetWeightKg == startWeightKg || currentWeightKg == targetWeightKg {
		return 100
	}
	p := (currentWeightKg - startWeightKg) / (targetWeightKg - startWeightKg) * 100
	if p > progressOvershootCap {
		p = progressOvershootCap
	}
	return p
}

// WeeksToGoal estimates weeks to reach the target at the signed weekly
// rate. Nil when the rate is zero or points away from the target; zero
// when already there.
func WeeksToGoal(currentWeightKg, targetWeightKg, rateKgPerWeek float64) *int {
	if rateKgPerWeek == 0 {
		return nil
	}
	diff := targetWeightKg - currentWeightKg
	if diff == 0 {
		weeks := 0
		return &weeks
	}
	if (diff < 0) != (rateKgPerWeek < 0) {
		return nil
	}
	weeks := int(math.Ceil(math.Abs(diff) / math.Abs(rateKgPerWeek)))
	return &weeks
}
