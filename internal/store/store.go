// Package store is the persistence port for the recompute core. The
// orchestrator receives a Store rather than reaching for any ambient
// database handle; the SQLite implementation lives alongside it.
package store

import "fluxcoach/internal/model"

// Store is the per-user keyed record store. All entities are scoped to
// the single user owning the database and keyed by local calendar date
// (YYYY-MM-DD); chronological order is the only structural relation.
type Store interface {
	// DailyLog returns the raw log for a date, or nil when absent.
	DailyLog(date string) (*model.DailyLog, error)
	// DailyLogRange returns logs within [start, end] inclusive, ascending.
	DailyLogRange(start, end string) ([]model.DailyLog, error)
	// PutDailyLog upserts a raw log and, in the same transaction, marks
	// the date (and implicitly every later date) pending recompute.
	PutDailyLog(log model.DailyLog) error
	// EarliestLogDate is the first raw log date, if any exist.
	EarliestLogDate() (string, bool, error)
	// ScaleWeights lists all dated scale measurements, ascending.
	ScaleWeights() ([]model.WeightEntry, error)
	// CountTrackedDaysBefore counts days strictly before date with
	// tracked calories and no explicit skip.
	CountTrackedDaysBefore(date string) (int, error)

	// ComputedState returns the derived state for a date, or nil.
	ComputedState(date string) (*model.ComputedState, error)
	// ComputedStateRange returns states within [start, end] inclusive, ascending.
	ComputedStateRange(start, end string) ([]model.ComputedState, error)
	// LatestComputedStateBefore returns the newest state strictly before
	// date, or nil — the recompute anchor lookup.
	LatestComputedStateBefore(date string) (*model.ComputedState, error)
	// LastComputedDate is the newest computed date, if any.
	LastComputedDate() (string, bool, error)
	// PersistRecomputedDay writes one recomputed day and advances the
	// pending cursor to nextPending in a single transaction, so a crash
	// at any day boundary leaves a valid resumable prefix.
	PersistRecomputedDay(state model.ComputedState, nextPending string) error

	// EarliestPending reports the recompute cursor, if set.
	EarliestPending() (string, bool, error)
	// MarkPending moves the cursor back to date if it is earlier than
	// the current cursor (or unset).
	MarkPending(date string) error
	// ClearPending removes the cursor after a completed walk.
	ClearPending() error

	// Profile returns the user profile; defaults apply when never set.
	Profile() (model.Profile, error)
	PutProfile(p model.Profile) error

	// WeeklyCheckIn returns the stored check-in for a week start, or nil.
	WeeklyCheckIn(weekStart string) (*model.WeeklyCheckIn, error)
	PutWeeklyCheckIn(c model.WeeklyCheckIn) error

	GetConfig(key string) (string, bool, error)
	SetConfig(key, value string) error
}
