package service

import (
	"time"

	"github.com/placebadges/acquisition/internal/core/domain"
)

// DefaultStaleWindow is the maximum age of a reading that may still be acted upon.
const DefaultStaleWindow = 5 * time.Minute

// UpdateResult describes what FreshnessTracker.Update did with a reading.
type UpdateResult string

const (
	// UpdateStored: there was no current reading; the incoming one was stored.
	UpdateStored UpdateResult = "stored"
	// UpdateReplaced: the incoming reading was newer and replaced the current one.
	UpdateReplaced UpdateResult = "replaced"
	// UpdateConflict: the incoming reading was not newer; the current one was cleared.
	UpdateConflict UpdateResult = "conflict"
)

// FreshnessTracker holds the single best known reading.
//
// An incoming reading with the same or an earlier timestamp than the current
// one is treated as a conflicting signal: the current reading is dropped and
// nothing is stored until the next update.
//
// Not safe for concurrent use; the pipeline owns it.
type FreshnessTracker struct {
	staleWindow time.Duration
	current     *domain.PositionReading
}

// NewFreshnessTracker returns a tracker expiring readings older than
// staleWindow. A non-positive window selects DefaultStaleWindow.
func NewFreshnessTracker(staleWindow time.Duration) *FreshnessTracker {
	if staleWindow <= 0 {
		staleWindow = DefaultStaleWindow
	}
	return &FreshnessTracker{staleWindow: staleWindow}
}

// StaleWindow returns the configured staleness window.
func (t *FreshnessTracker) StaleWindow() time.Duration {
	return t.staleWindow
}

// Update applies an incoming reading.
func (t *FreshnessTracker) Update(r domain.PositionReading) UpdateResult {
	if t.current == nil {
		t.current = &r
		return UpdateStored
	}
	if r.After(*t.current) {
		t.current = &r
		return UpdateReplaced
	}
	t.current = nil
	return UpdateConflict
}

// Seed stores a provisional reading (typically the provider's last known one)
// when the tracker is empty and the reading is not stale at now. It reports
// whether the reading was kept.
func (t *FreshnessTracker) Seed(r domain.PositionReading, now time.Time) bool {
	if t.current != nil || t.isStale(r, now) {
		return false
	}
	t.current = &r
	return true
}

// CurrentFresh returns a copy of the current reading if it is still within the
// staleness window at now. A stale reading is cleared as a side effect.
func (t *FreshnessTracker) CurrentFresh(now time.Time) (domain.PositionReading, bool) {
	if t.current == nil {
		return domain.PositionReading{}, false
	}
	if t.isStale(*t.current, now) {
		t.current = nil
		return domain.PositionReading{}, false
	}
	return *t.current, true
}

// Held reports whether a reading is stored, without checking its age.
func (t *FreshnessTracker) Held() bool {
	return t.current != nil
}

// Clear drops the current reading.
func (t *FreshnessTracker) Clear() {
	t.current = nil
}

func (t *FreshnessTracker) isStale(r domain.PositionReading, now time.Time) bool {
	return r.AgeAt(now) > t.staleWindow
}
