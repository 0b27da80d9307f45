package engine

import (
	"math"
	"time"

	"fluxcoach/internal/model"
)

const (
	// Energy densities are asymmetric on purpose: losses are
	// fat-weighted, gains are lean-tissue-weighted.
	EnergyDensityDeficitKcalPerKg = 7700.0
	EnergyDensitySurplusKcalPerKg = 5500.0

	// TDEE smoothing: slow by default, more responsive on days with a
	// large step-count surge over the rolling baseline.
	DefaultSmoothingAlpha    = 0.05
	ResponsiveSmoothingAlpha = 0.1
	StepSurgeThreshold       = 0.20

	// Flux band bounds: held/untracked days report the high-uncertainty
	// constant; long tracking history bottoms out at the floor.
	HoldFluxRangeKcal = 500.0
	MinFluxRangeKcal  = 100.0

	// Cold start: BMR scaled by a default activity factor, with a bump
	// for athletes, and a flat fallback when the profile is incomplete.
	DefaultActivityFactor = 1.55
	AthleteActivityBonus  = 1.10
	FallbackTdeeKcal      = 2000.0

	learningWindowDays = 7
)

// CalculateRawTdee back-solves a single day's TDEE from the energy
// balance identity: TDEE = intake - weightDelta*density. Deficit days
// (delta < 0) use the fat-weighted density; zero or positive deltas
// use the surplus density.
func CalculateRawTdee(calories, weightDeltaKg float64) (rawTdee, energyDensity float64) {
	energyDensity = EnergyDensitySurplusKcalPerKg
	if weightDeltaKg < 0 {
		energyDensity = EnergyDensityDeficitKcalPerKg
	}
	return calories - weightDeltaKg*energyDensity, energyDensity
}

// SmoothTdee folds a raw estimate into the smoothed TDEE. A step-count
// delta fraction of at least 20% over the rolling baseline switches to
// the responsive alpha for that day only. Rounded to whole kcal.
func SmoothTdee(raw, prevSmoothed float64, stepDeltaFraction *float64) float64 {
	alpha := DefaultSmoothingAlpha
	if stepDeltaFraction != nil && *stepDeltaFraction >= StepSurgeThreshold {
		alpha = ResponsiveSmoothingAlpha
	}
	return math.Round(raw*alpha + prevSmoothed*(1-alpha))
}

// MifflinStJeorBmr computes resting expenditure, rounded to whole kcal.
func MifflinStJeorBmr(weightKg, heightCm float64, ageYears int, sex model.Sex) float64 {
	bmr := 10*weightKg + 6.25*heightCm - 5*float64(ageYears)
	if sex == model.SexMale {
		bmr += 5
	} else {
		bmr -= 161
	}
	return math.Round(bmr)
}

// ColdStartTdee estimates TDEE from the profile alone, for the period
// before enough history exists to back-solve. Returns nil when height,
// birth date, or sex is missing; callers fall back to FallbackTdeeKcal.
func ColdStartTdee(p model.Profile, currentWeightKg float64, asOf time.Time) *float64 {
	if p.HeightCm == nil || p.BirthDate == nil || p.Sex == "" {
		return nil
	}
	age := ageYears(*p.BirthDate, asOf)
	if age < 0 {
		return nil
	}
	tdee := MifflinStJeorBmr(currentWeightKg, *p.HeightCm, age, p.Sex) * DefaultActivityFactor
	if p.Athlete {
		tdee *= AthleteActivityBonus
	}
	tdee = math.Round(tdee)
	return &tdee
}

func ageYears(birthDate, asOf time.Time) int {
	years := asOf.Year() - birthDate.Year()
	if asOf.Before(birthDate.AddDate(years, 0, 0)) {
		years--
	}
	return years
}

// DetermineConfidenceLevel grades the estimate by history length and
// window completeness.
func DetermineConfidenceLevel(daysTracked, missingDaysInWindow int) model.ConfidenceLevel {
	if daysTracked < learningWindowDays {
		return model.ConfidenceLearning
	}
	switch {
	case missingDaysInWindow <= 1:
		return model.ConfidenceHigh
	case missingDaysInWindow <= 3:
		return model.ConfidenceMedium
	default:
		return model.ConfidenceLow
	}
}

// FluxRange sizes the ± uncertainty band: wide with little history,
// shrinking toward a 100 kcal floor, widened by observed variance.
func FluxRange(daysTracked int, varianceKcal2 float64) float64 {
	base := HoldFluxRangeKcal / (1 + float64(daysTracked)/7)
	if base < MinFluxRangeKcal {
		base = MinFluxRangeKcal
	}
	return math.Round(base + math.Sqrt(varianceKcal2))
}

// PredictGoalTransitionTdee applies a one-time step adjustment when the
// user switches goal type: moving toward a bulk raises expenditure,
// moving toward a cut lowers it, scaled by body weight. Identity
// transitions return currentTdee unchanged.
func PredictGoalTransitionTdee(currentTdee float64, fromGoal, toGoal model.GoalType, bodyWeightKg float64) float64 {
	if fromGoal == toGoal {
		return currentTdee
	}
	steps := goalRank(toGoal) - goalRank(fromGoal)
	return math.Round(currentTdee + float64(steps)*1.5*bodyWeightKg)
}

func goalRank(g model.GoalType) int {
	switch g {
	case model.GoalLose:
		return -1
	case model.GoalGain:
		return 1
	default:
		return 0
	}
}

// StateInput carries one day of inputs for the state transition.
type StateInput struct {
	Date              string
	TrendWeightKg     float64
	PrevTrendWeightKg float64
	Log               *model.DailyLog
	PrevTdeeKcal      float64
	DaysTracked       int
	StepDeltaFraction *float64
	RawTdeeVariance   float64
}

// BuildComputedState is the per-day state-transition function.
//
// Hold rule: with no log, untracked nutrition, or an explicit skipped
// status, both TDEE fields hold the previous estimate and the band
// widens to the high-uncertainty constant. An explicit skip wins even
// when calorie data is present. The trend weight (and therefore the
// recorded weight delta) still advances on held days.
func BuildComputedState(in StateInput) model.ComputedState {
	delta := in.TrendWeightKg - in.PrevTrendWeightKg
	density := EnergyDensitySurplusKcalPerKg
	if delta < 0 {
		density = EnergyDensityDeficitKcalPerKg
	}

	hold := in.Log == nil || !in.Log.Calories.Tracked() || in.Log.Status == model.LogStatusSkipped
	if hold {
		return model.ComputedState{
			Date:               in.Date,
			TrendWeightKg:      in.TrendWeightKg,
			RawTdeeKcal:        in.PrevTdeeKcal,
			EstimatedTdeeKcal:  in.PrevTdeeKcal,
			FluxConfidenceKcal: HoldFluxRangeKcal,
			EnergyDensity:      density,
			WeightDeltaKg:      delta,
		}
	}

	calories, _ := in.Log.Calories.Get()
	raw, density := CalculateRawTdee(calories, delta)
	return model.ComputedState{
		Date:               in.Date,
		TrendWeightKg:      in.TrendWeightKg,
		RawTdeeKcal:        raw,
		EstimatedTdeeKcal:  SmoothTdee(raw, in.PrevTdeeKcal, in.StepDeltaFraction),
		FluxConfidenceKcal: FluxRange(in.DaysTracked, in.RawTdeeVariance),
		EnergyDensity:      density,
		WeightDeltaKg:      delta,
	}
}
