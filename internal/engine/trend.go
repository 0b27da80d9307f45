package engine

import (
	"fmt"
	"sort"
	"time"

	"fluxcoach/internal/model"
)

// DefaultTrendAlpha is the EMA smoothing factor for trend weight.
const DefaultTrendAlpha = 0.1

// TrendPoint is one day of the dense trend-weight series. ScaleWeightKg
// is the raw input fed into the EMA for that day: a real measurement,
// an interpolated value, or nil when nothing bounds the day.
type TrendPoint struct {
	Date          time.Time
	ScaleWeightKg *float64
	TrendWeightKg float64
}

// UpdateTrendWeight advances the EMA latent weight by one day. A nil
// rawWeight holds the previous trend unchanged.
func UpdateTrendWeight(prevTrend float64, rawWeight *float64, alpha float64) float64 {
	if rawWeight == nil {
		return prevTrend
	}
	return *rawWeight*alpha + prevTrend*(1-alpha)
}

// InterpolateWeight linearly interpolates between two measurements by
// elapsed calendar days. Equal start/end dates return startW.
func InterpolateWeight(startW, endW float64, startDate, endDate, targetDate time.Time) float64 {
	total := daysBetween(startDate, endDate)
	if total == 0 {
		return startW
	}
	frac := float64(daysBetween(startDate, targetDate)) / float64(total)
	return startW + (endW-startW)*frac
}

// daysBetween counts calendar days from a to b. Normalized to UTC so
// a DST-shortened or -lengthened local day still counts as one.
func daysBetween(a, b time.Time) int {
	ua := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}

// WeightLookup resolves the raw scale weight for a calendar day from a
// set of measurements: an exact match, an interpolated value when the
// day lies strictly between two measurements, or nil. It never
// fabricates values before the first or after the last measurement.
type WeightLookup struct {
	entries []model.WeightEntry // sorted by date ascending
}

func NewWeightLookup(entries []model.WeightEntry) *WeightLookup {
	sorted := make([]model.WeightEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})
	return &WeightLookup{entries: sorted}
}

// WeightOn returns the raw weight input for date, or nil.
func (l *WeightLookup) WeightOn(date time.Time) *float64 {
	n := len(l.entries)
	if n == 0 {
		return nil
	}
	day := model.Midnight(date)
	i := sort.Search(n, func(i int) bool {
		return !model.Midnight(l.entries[i].Date).Before(day)
	})
	if i < n && model.Midnight(l.entries[i].Date).Equal(day) {
		w := l.entries[i].WeightKg
		return &w
	}
	// No exact measurement: interpolate only when bounded on both sides.
	if i == 0 || i == n {
		return nil
	}
	prev, next := l.entries[i-1], l.entries[i]
	w := InterpolateWeight(prev.WeightKg, next.WeightKg,
		model.Midnight(prev.Date), model.Midnight(next.Date), day)
	return &w
}

// CalculateTrendWeights walks day-by-day from startDate to endDate
// inclusive, feeding each day's raw input (measured, interpolated, or
// absent) into the trend EMA. The seed defaults to the earliest
// measurement's raw weight. Empty entries yield an empty series.
func CalculateTrendWeights(entries []model.WeightEntry, startDate, endDate time.Time, initialTrend *float64) ([]TrendPoint, error) {
	if endDate.Before(startDate) {
		return nil, fmt.Errorf("trend range end %s is before start %s",
			model.FormatDate(endDate), model.FormatDate(startDate))
	}
	if len(entries) == 0 {
		return []TrendPoint{}, nil
	}
	lookup := NewWeightLookup(entries)

	trend := lookup.entries[0].WeightKg
	if initialTrend != nil {
		trend = *initialTrend
	}

	points := make([]TrendPoint, 0)
	for d := model.Midnight(startDate); !d.After(model.Midnight(endDate)); d = d.AddDate(0, 0, 1) {
		raw := lookup.WeightOn(d)
		trend = UpdateTrendWeight(trend, raw, DefaultTrendAlpha)
		points = append(points, TrendPoint{Date: d, ScaleWeightKg: raw, TrendWeightKg: trend})
	}
	return points, nil
}

// WeeklyWeightChange is the difference between the latest trend weight
// and the trend weight 7 entries back (index 0 when the series is
// shorter). Fewer than 2 points yield 0.
func WeeklyWeightChange(series []TrendPoint) float64 {
	if len(series) < 2 {
		return 0
	}
	last := len(series) - 1
	back := last - 7
	if back < 0 {
		back = 0
	}
	return series[last].TrendWeightKg - series[back].TrendWeightKg
}
