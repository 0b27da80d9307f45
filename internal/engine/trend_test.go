package engine

import (
	"math"
	"testing"
	"time"

	"fluxcoach/internal/model"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func floatPtr(v float64) *float64 {
	return &v
}

func TestUpdateTrendWeightHoldsWithoutMeasurement(t *testing.T) {
	for _, prev := range []float64{0, 62.5, 85, 120.3} {
		if got := UpdateTrendWeight(prev, nil, DefaultTrendAlpha); got != prev {
			t.Fatalf("expected hold at %.2f, got %.2f", prev, got)
		}
	}
}

func TestUpdateTrendWeightStaysBetweenInputs(t *testing.T) {
	for _, alpha := range []float64{0.05, 0.1, 0.3, 0.5, 0.9, 0.99} {
		for _, tc := range [][2]float64{{80, 82}, {82, 80}, {85, 85}, {60, 100}} {
			prev, raw := tc[0], tc[1]
			got := UpdateTrendWeight(prev, &raw, alpha)
			lo, hi := math.Min(prev, raw), math.Max(prev, raw)
			if got < lo || got > hi {
				t.Fatalf("alpha=%.2f prev=%.1f raw=%.1f: %.4f escapes [%.1f, %.1f]", alpha, prev, raw, got, lo, hi)
			}
		}
	}
}

func TestInterpolateWeight(t *testing.T) {
	start := day(2026, 3, 2)
	end := day(2026, 3, 6)

	mid := InterpolateWeight(80, 78, start, end, day(2026, 3, 4))
	if math.Abs(mid-79) > 1e-9 {
		t.Fatalf("expected midpoint 79, got %.4f", mid)
	}
	if got := InterpolateWeight(80, 78, start, start, start); got != 80 {
		t.Fatalf("expected startW for zero-length span, got %.4f", got)
	}
}

func TestInterpolateWeightAcrossDSTChange(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tz database unavailable: %v", err)
	}
	// US clocks spring forward on 2026-03-08, so that local day is only
	// 23 hours long. It still counts as one calendar day.
	start := time.Date(2026, time.March, 7, 0, 0, 0, 0, loc)
	end := time.Date(2026, time.March, 9, 0, 0, 0, 0, loc)
	target := time.Date(2026, time.March, 8, 0, 0, 0, 0, loc)
	if got := InterpolateWeight(80, 82, start, end, target); math.Abs(got-81) > 1e-9 {
		t.Fatalf("expected midpoint 81, got %.6f", got)
	}
}

func TestWeightLookupNeverExtrapolates(t *testing.T) {
	lookup := NewWeightLookup([]model.WeightEntry{
		{Date: day(2026, 3, 4), WeightKg: 84.4},
		{Date: day(2026, 3, 1), WeightKg: 85},
	})

	if got := lookup.WeightOn(day(2026, 2, 28)); got != nil {
		t.Fatalf("expected nil before first measurement, got %.4f", *got)
	}
	if got := lookup.WeightOn(day(2026, 3, 5)); got != nil {
		t.Fatalf("expected nil after last measurement, got %.4f", *got)
	}
	if got := lookup.WeightOn(day(2026, 3, 1)); got == nil || *got != 85 {
		t.Fatalf("expected exact match 85, got %v", got)
	}
	got := lookup.WeightOn(day(2026, 3, 2))
	if got == nil || math.Abs(*got-84.8) > 1e-9 {
		t.Fatalf("expected interpolated 84.8, got %v", got)
	}
}

func TestCalculateTrendWeightsGapFillAndHold(t *testing.T) {
	entries := []model.WeightEntry{
		{Date: day(2026, 3, 2), WeightKg: 80},
		{Date: day(2026, 3, 5), WeightKg: 77},
	}
	series, err := CalculateTrendWeights(entries, day(2026, 3, 2), day(2026, 3, 6), nil)
	if err != nil {
		t.Fatalf("calculate trend weights: %v", err)
	}
	if len(series) != 5 {
		t.Fatalf("expected 5 points, got %d", len(series))
	}

	// Seeded from the first raw measurement, day one converges to it.
	if math.Abs(series[0].TrendWeightKg-80) > 1e-9 {
		t.Fatalf("expected day-1 trend 80, got %.4f", series[0].TrendWeightKg)
	}
	// Interior days are interpolated between the two real measurements.
	if series[1].ScaleWeightKg == nil || math.Abs(*series[1].ScaleWeightKg-79) > 1e-9 {
		t.Fatalf("expected interpolated 79 on day 2, got %v", series[1].ScaleWeightKg)
	}
	want := 79*DefaultTrendAlpha + 80*(1-DefaultTrendAlpha)
	if math.Abs(series[1].TrendWeightKg-want) > 1e-9 {
		t.Fatalf("expected day-2 trend %.4f, got %.4f", want, series[1].TrendWeightKg)
	}
	// Past the last measurement the raw input is absent and the trend holds.
	if series[4].ScaleWeightKg != nil {
		t.Fatalf("expected no raw input past last measurement, got %.4f", *series[4].ScaleWeightKg)
	}
	if series[4].TrendWeightKg != series[3].TrendWeightKg {
		t.Fatalf("expected trend to hold past last measurement")
	}
}

func TestCalculateTrendWeightsRespectsInitialTrend(t *testing.T) {
	entries := []model.WeightEntry{{Date: day(2026, 3, 2), WeightKg: 80}}
	series, err := CalculateTrendWeights(entries, day(2026, 3, 2), day(2026, 3, 2), floatPtr(82))
	if err != nil {
		t.Fatalf("calculate trend weights: %v", err)
	}
	want := 80*DefaultTrendAlpha + 82*(1-DefaultTrendAlpha)
	if math.Abs(series[0].TrendWeightKg-want) > 1e-9 {
		t.Fatalf("expected seeded trend %.4f, got %.4f", want, series[0].TrendWeightKg)
	}
}

func TestCalculateTrendWeightsEmptyEntries(t *testing.T) {
	series, err := CalculateTrendWeights(nil, day(2026, 3, 2), day(2026, 3, 6), nil)
	if err != nil {
		t.Fatalf("calculate trend weights: %v", err)
	}
	if len(series) != 0 {
		t.Fatalf("expected empty series, got %d points", len(series))
	}
}

func TestCalculateTrendWeightsRejectsReversedRange(t *testing.T) {
	entries := []model.WeightEntry{{Date: day(2026, 3, 2), WeightKg: 80}}
	if _, err := CalculateTrendWeights(entries, day(2026, 3, 6), day(2026, 3, 2), nil); err == nil {
		t.Fatalf("expected reversed range to fail")
	}
}

func TestWeeklyWeightChange(t *testing.T) {
	if got := WeeklyWeightChange(nil); got != 0 {
		t.Fatalf("expected 0 for empty series, got %.4f", got)
	}
	if got := WeeklyWeightChange([]TrendPoint{{TrendWeightKg: 80}}); got != 0 {
		t.Fatalf("expected 0 for single point, got %.4f", got)
	}

	series := make([]TrendPoint, 10)
	for i := range series {
		series[i] = TrendPoint{TrendWeightKg: 80 - 0.1*float64(i)}
	}
	got := WeeklyWeightChange(series)
	want := series[9].TrendWeightKg - series[2].TrendWeightKg
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("expected weekly change %.4f, got %.4f", want, got)
	}

	short := series[:3]
	got = WeeklyWeightChange(short)
	want = short[2].TrendWeightKg - short[0].TrendWeightKg
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("expected short-series change %.4f, got %.4f", want, got)
	}
}
