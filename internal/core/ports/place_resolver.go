package ports

import "github.com/placebadges/acquisition/internal/core/domain"

// ResolutionHandle controls one in-flight resolution task.
type ResolutionHandle interface {
	// ID is the task identity used to discard stale outcomes.
	ID() string
	// Cancel stops the task. A task cancelled before reaching a terminal
	// state never invokes its deliver callback.
	Cancel()
	// Done is closed once the task reached a terminal state.
	Done() <-chan struct{}
	// Outcome returns the terminal outcome. Valid after Done is closed.
	Outcome() domain.ResolutionOutcome
	Status() domain.TaskStatus
}

// PlaceResolver resolves readings into places off the caller's goroutine.
type PlaceResolver interface {
	// ResolveAsync starts resolving reading and returns immediately. deliver is
	// invoked at most once, from a resolver goroutine, with the terminal outcome.
	ResolveAsync(reading domain.PositionReading, networkAvailable bool, deliver func(domain.ResolutionOutcome)) ResolutionHandle
}
