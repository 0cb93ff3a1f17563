package domain

import (
	"errors"
	"fmt"
)

// TaskStatus is the lifecycle state of a single place resolution.
type TaskStatus string

const (
	TaskCreated   TaskStatus = "created"
	TaskRunning   TaskStatus = "running"
	TaskSucceeded TaskStatus = "succeeded"
	TaskFailed    TaskStatus = "failed"
	TaskCancelled TaskStatus = "cancelled"
)

// Terminal reports whether no further transition is possible from s.
func (s TaskStatus) Terminal() bool {
	return s == TaskSucceeded || s == TaskFailed || s == TaskCancelled
}

// Resolution failures. None of them is fatal to the pipeline.
var (
	ErrNetworkUnavailable = errors.New("network unavailable")
	ErrLookupTimeout      = errors.New("lookup timed out")
	ErrMalformedResponse  = errors.New("malformed lookup response")
	ErrNoResultFound      = errors.New("no place found")
)

// Pipeline rejections surfaced to the user.
var (
	ErrNoCurrentReading   = errors.New("no current position reading")
	ErrAlreadyAcquired    = errors.New("place already acquired here")
	ErrResolutionInFlight = errors.New("a place resolution is already in progress")
	ErrPipelineStopped    = errors.New("acquisition pipeline is not running")
)

var ErrUnknownFixture = errors.New("unknown mock fixture")

// ErrorKind classifies a resolution failure for logs and metrics.
type ErrorKind string

const (
	KindNetworkUnavailable ErrorKind = "network_unavailable"
	KindLookupTimeout      ErrorKind = "lookup_timeout"
	KindMalformedResponse  ErrorKind = "malformed_response"
	KindNoResultFound      ErrorKind = "no_result_found"
	KindCancelled          ErrorKind = "cancelled"
	KindUnknown            ErrorKind = "unknown"
)

// KindOf maps err onto the resolution failure taxonomy.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNetworkUnavailable):
		return KindNetworkUnavailable
	case errors.Is(err, ErrLookupTimeout):
		return KindLookupTimeout
	case errors.Is(err, ErrMalformedResponse):
		return KindMalformedResponse
	case errors.Is(err, ErrNoResultFound):
		return KindNoResultFound
	default:
		return KindUnknown
	}
}

// ResolutionOutcome is the single terminal result of a resolution task.
type ResolutionOutcome struct {
	TaskID string
	Status TaskStatus
	Place  *PlaceRecord // set when Status == TaskSucceeded
	Err    error        // set when Status == TaskFailed
}

// Succeeded builds a successful outcome for taskID.
func Succeeded(taskID string, p PlaceRecord) ResolutionOutcome {
	return ResolutionOutcome{TaskID: taskID, Status: TaskSucceeded, Place: &p}
}

// Failed builds a failed outcome for taskID.
func Failed(taskID string, err error) ResolutionOutcome {
	return ResolutionOutcome{TaskID: taskID, Status: TaskFailed, Err: err}
}

// Cancelled builds a cancelled outcome for taskID.
func Cancelled(taskID string) ResolutionOutcome {
	return ResolutionOutcome{TaskID: taskID, Status: TaskCancelled}
}

// Kind returns the failure classification, or "" for a success.
func (o ResolutionOutcome) Kind() ErrorKind {
	switch o.Status {
	case TaskCancelled:
		return KindCancelled
	case TaskFailed:
		return KindOf(o.Err)
	default:
		return ""
	}
}

func (o ResolutionOutcome) String() string {
	switch o.Status {
	case TaskSucceeded:
		return fmt.Sprintf("%s: succeeded (%s)", o.TaskID, o.Place.Name)
	case TaskFailed:
		return fmt.Sprintf("%s: failed (%v)", o.TaskID, o.Err)
	default:
		return fmt.Sprintf("%s: %s", o.TaskID, o.Status)
	}
}
