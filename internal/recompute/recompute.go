// Package recompute walks the daily chain forward, rebuilding computed
// state day-by-day. It is the only component with side effects; every
// engine call underneath it is a pure function, which is what makes
// the walk idempotent and resumable.
package recompute

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"fluxcoach/internal/engine"
	"fluxcoach/internal/model"
	"fluxcoach/internal/store"
)

// historyWindowDays bounds the rolling calendar-day windows used for
// the step-count baseline and the raw-TDEE variance feeding the flux
// band. Both windows are rebuilt from persisted data when a walk
// starts mid-chain, so a resumed or partial walk produces the same
// states as an uninterrupted one.
const historyWindowDays = 7

// Orchestrator drives the recompute cascade over a Store. The caller
// must guarantee at most one concurrent run per user database; the
// chain has a hard day-to-day data dependency and cannot be
// parallelized within a user.
type Orchestrator struct {
	Store store.Store
	Log   *zap.Logger
	Now   func() time.Time
}

func New(st store.Store, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{Store: st, Log: logger, Now: time.Now}
}

// RecalculateFrom marks date (and implicitly every later date) pending
// and runs the walk to today. Returns the count of days recomputed.
func (o *Orchestrator) RecalculateFrom(ctx context.Context, date string) (int, error) {
	parsed, err := model.ParseDate(date)
	if err != nil {
		return 0, err
	}
	today := model.Midnight(o.Now())
	if parsed.After(today) {
		return 0, fmt.Errorf("recompute date %s is after today %s", date, model.FormatDate(today))
	}
	if err := o.Store.MarkPending(model.FormatDate(parsed)); err != nil {
		return 0, err
	}
	return o.Run(ctx)
}

// Run resumes the walk from the earliest pending date. With no cursor
// set it continues from the day after the last computed state (dates
// with no state are implicitly pending). Each day is persisted before
// the walk advances, so an abort at any point leaves a valid prefix
// and a later Run picks up exactly where this one stopped.
func (o *Orchestrator) Run(ctx context.Context) (int, error) {
	today := model.FormatDate(o.Now())

	start, ok, err := o.startDate(today)
	if err != nil || !ok {
		return 0, err
	}
	start, err = o.rebase(start)
	if err != nil {
		return 0, err
	}

	prevTrend, prevTdee, daysTracked, err := o.anchor(start)
	if err != nil {
		return 0, err
	}

	weights, err := o.Store.ScaleWeights()
	if err != nil {
		return 0, err
	}
	lookup := engine.NewWeightLookup(weights)

	histStart, err := model.AddDays(start, -historyWindowDays)
	if err != nil {
		return 0, err
	}
	logs, err := o.Store.DailyLogRange(histStart, today)
	if err != nil {
		return 0, err
	}
	byDate := make(map[string]*model.DailyLog, len(logs))
	for i := range logs {
		byDate[logs[i].Date] = &logs[i]
	}
	stepHist := seedSteps(logs, start)
	rawHist, err := o.seedRawTdee(histStart, start, byDate)
	if err != nil {
		return 0, err
	}

	o.Log.Info("recompute walk starting",
		zap.String("from", start),
		zap.String("to", today),
		zap.Int("days_tracked", daysTracked))

	count := 0
	startDay, err := model.ParseDate(start)
	if err != nil {
		return 0, err
	}
	endDay, err := model.ParseDate(today)
	if err != nil {
		return 0, err
	}
	for d := startDay; !d.After(endDay); d = d.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			// Safe stopping point: every prior day is already persisted.
			return count, fmt.Errorf("recompute interrupted before %s: %w", model.FormatDate(d), err)
		}
		date := model.FormatDate(d)
		log := byDate[date]

		cutoff, err := model.AddDays(date, -historyWindowDays)
		if err != nil {
			return count, err
		}
		stepHist = pruneWindow(stepHist, cutoff)
		rawHist = pruneWindow(rawHist, cutoff)

		raw := lookup.WeightOn(d)
		trend := engine.UpdateTrendWeight(prevTrend, raw, engine.DefaultTrendAlpha)

		st := engine.BuildComputedState(engine.StateInput{
			Date:              date,
			TrendWeightKg:     trend,
			PrevTrendWeightKg: prevTrend,
			Log:               log,
			PrevTdeeKcal:      prevTdee,
			DaysTracked:       daysTracked,
			StepDeltaFraction: stepDeltaFraction(stepHist, log),
			RawTdeeVariance:   variance(rawHist),
		})

		nextPending, err := model.AddDays(date, 1)
		if err != nil {
			return count, err
		}
		if err := o.Store.PersistRecomputedDay(st, nextPending); err != nil {
			return count, fmt.Errorf("recompute aborted at %s: %w", date, err)
		}
		o.Log.Debug("recomputed day",
			zap.String("date", date),
			zap.Float64("trend_kg", st.TrendWeightKg),
			zap.Float64("tdee_kcal", st.EstimatedTdeeKcal))

		if counted(log) {
			daysTracked++
			rawHist = append(rawHist, histEntry{date: date, val: st.RawTdeeKcal})
			if log.Steps != nil {
				stepHist = append(stepHist, histEntry{date: date, val: float64(*log.Steps)})
			}
		}
		prevTrend, prevTdee = trend, st.EstimatedTdeeKcal
		count++
	}

	if err := o.Store.ClearPending(); err != nil {
		return count, err
	}
	o.Log.Info("recompute walk finished", zap.Int("days", count))
	return count, nil
}

// startDate resolves where the walk begins: the pending cursor if set,
// otherwise the first never-computed day.
func (o *Orchestrator) startDate(today string) (string, bool, error) {
	pending, ok, err := o.Store.EarliestPending()
	if err != nil {
		return "", false, err
	}
	if !ok {
		last, haveLast, err := o.Store.LastComputedDate()
		if err != nil {
			return "", false, err
		}
		if haveLast {
			next, err := model.AddDays(last, 1)
			if err != nil {
				return "", false, err
			}
			pending = next
		} else {
			earliest, haveLogs, err := o.Store.EarliestLogDate()
			if err != nil {
				return "", false, err
			}
			if !haveLogs {
				return "", false, nil
			}
			pending = earliest
		}
	}
	if pending > today {
		return "", false, nil
	}
	return pending, true, nil
}

// rebase pulls the start back to the earliest raw log when no anchor
// state exists before it, so the chain invariant holds from day one.
func (o *Orchestrator) rebase(start string) (string, error) {
	st, err := o.Store.LatestComputedStateBefore(start)
	if err != nil {
		return "", err
	}
	if st != nil {
		return start, nil
	}
	earliest, ok, err := o.Store.EarliestLogDate()
	if err != nil {
		return "", err
	}
	if ok && earliest < start {
		return earliest, nil
	}
	return start, nil
}

// anchor loads the last known-good state strictly before start, or
// seeds the chain from the first raw weight and the cold-start TDEE.
func (o *Orchestrator) anchor(start string) (prevTrend, prevTdee float64, daysTracked int, err error) {
	st, err := o.Store.LatestComputedStateBefore(start)
	if err != nil {
		return 0, 0, 0, err
	}
	if st != nil {
		tracked, err := o.Store.CountTrackedDaysBefore(start)
		if err != nil {
			return 0, 0, 0, err
		}
		return st.TrendWeightKg, st.EstimatedTdeeKcal, tracked, nil
	}

	profile, err := o.Store.Profile()
	if err != nil {
		return 0, 0, 0, err
	}
	weights, err := o.Store.ScaleWeights()
	if err != nil {
		return 0, 0, 0, err
	}
	var seedWeight float64
	if len(weights) > 0 {
		seedWeight = weights[0].WeightKg
	}
	prevTrend = seedWeight
	prevTdee = engine.FallbackTdeeKcal
	if cold := engine.ColdStartTdee(profile, seedWeight, o.Now()); cold != nil {
		prevTdee = *cold
	} else {
		o.Log.Info("profile incomplete, using fallback cold-start TDEE",
			zap.Float64("tdee_kcal", engine.FallbackTdeeKcal))
	}
	return prevTrend, prevTdee, 0, nil
}

// CheckInForDate builds, persists and returns the weekly check-in for
// the Monday-Sunday week enclosing date. Returns nil when the window
// has no computed state.
func (o *Orchestrator) CheckInForDate(date string) (*model.WeeklyCheckIn, error) {
	day, err := model.ParseDate(date)
	if err != nil {
		return nil, err
	}
	weekStart := engine.WeekStart(day)
	weekEnd := engine.WeekEnd(day)
	startKey := model.FormatDate(weekStart)
	endKey := model.FormatDate(weekEnd)

	states, err := o.Store.ComputedStateRange(startKey, endKey)
	if err != nil {
		return nil, err
	}
	logs, err := o.Store.DailyLogRange(startKey, endKey)
	if err != nil {
		return nil, err
	}
	profile, err := o.Store.Profile()
	if err != nil {
		return nil, err
	}
	next, err := model.AddDays(endKey, 1)
	if err != nil {
		return nil, err
	}
	daysTracked, err := o.Store.CountTrackedDaysBefore(next)
	if err != nil {
		return nil, err
	}

	checkIn, err := engine.BuildWeeklyCheckIn(engine.CheckInInput{
		WeekStart:   weekStart,
		WeekEnd:     weekEnd,
		Logs:        logs,
		States:      states,
		Profile:     profile,
		DaysTracked: daysTracked,
	})
	if err != nil || checkIn == nil {
		return checkIn, err
	}
	if err := o.Store.PutWeeklyCheckIn(*checkIn); err != nil {
		return nil, err
	}
	return checkIn, nil
}

// counted reports whether a day contributes to tracked history.
func counted(log *model.DailyLog) bool {
	return log != nil && log.Calories.Tracked() && log.Status != model.LogStatusSkipped
}

// histEntry is one dated sample in a rolling history window.
type histEntry struct {
	date string
	val  float64
}

// seedSteps collects step counts from the counted history days
// preceding start.
func seedSteps(logs []model.DailyLog, start string) []histEntry {
	hist := make([]histEntry, 0, historyWindowDays)
	for i := range logs {
		if logs[i].Date >= start {
			break
		}
		if logs[i].Steps != nil && counted(&logs[i]) {
			hist = append(hist, histEntry{date: logs[i].Date, val: float64(*logs[i].Steps)})
		}
	}
	return hist
}

// seedRawTdee rebuilds the raw-TDEE variance window from the states
// persisted for the counted days preceding start.
func (o *Orchestrator) seedRawTdee(histStart, start string, byDate map[string]*model.DailyLog) ([]histEntry, error) {
	dayBefore, err := model.AddDays(start, -1)
	if err != nil {
		return nil, err
	}
	states, err := o.Store.ComputedStateRange(histStart, dayBefore)
	if err != nil {
		return nil, err
	}
	hist := make([]histEntry, 0, historyWindowDays)
	for _, st := range states {
		if counted(byDate[st.Date]) {
			hist = append(hist, histEntry{date: st.Date, val: st.RawTdeeKcal})
		}
	}
	return hist, nil
}

// stepDeltaFraction compares the day's steps against the rolling
// baseline; nil when either side is missing.
func stepDeltaFraction(hist []histEntry, log *model.DailyLog) *float64 {
	if log == nil || log.Steps == nil || len(hist) == 0 {
		return nil
	}
	var sum float64
	for _, h := range hist {
		sum += h.val
	}
	baseline := sum / float64(len(hist))
	if baseline <= 0 {
		return nil
	}
	frac := (float64(*log.Steps) - baseline) / baseline
	return &frac
}

// pruneWindow drops samples dated before cutoff. Windows cover the
// previous historyWindowDays calendar days only.
func pruneWindow(hist []histEntry, cutoff string) []histEntry {
	i := 0
	for i < len(hist) && hist[i].date < cutoff {
		i++
	}
	return hist[i:]
}

func variance(hist []histEntry) float64 {
	if len(hist) < 2 {
		return 0
	}
	var sum float64
	for _, h := range hist {
		sum += h.val
	}
	mean := sum / float64(len(hist))
	var sq float64
	for _, h := range hist {
		sq += (h.val - mean) * (h.val - mean)
	}
	return sq / float64(len(hist))
}
