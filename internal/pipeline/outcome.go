package pipeline

import (
	"errors"
	"fmt"

	"github.com/rewired-gh/racepace/internal/models"
)

var (
	// ErrInvalidDistance is returned when lap normalization is asked to divide by a non-positive distance.
	ErrInvalidDistance = errors.New("track distance must be positive")
	// ErrMalformedLap is returned for provider laps that fail validation.
	ErrMalformedLap = errors.New("malformed lap record")
)

// Status classifies the outcome of processing one event.
type Status int

const (
	StatusProcessed Status = iota
	StatusSkipped
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusProcessed:
		return "processed"
	case StatusSkipped:
		return "skipped"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Stage names the step of event processing at which an error occurred.
type Stage string

const (
	StageSession   Stage = "session"
	StageNormalize Stage = "normalize"
)

// EventError represents a per-event error during processing
type EventError struct {
	Event string
	Stage Stage
	Err   error
}

func (e *EventError) Error() string {
	return fmt.Sprintf("event %s failed at %s: %v", e.Event, e.Stage, e.Err)
}

func (e *EventError) Unwrap() error {
	return e.Err
}

// Outcome is the result of processing one event. Exactly one of Record
// (processed), SkipReason (skipped) or Err (failed) is meaningful, per Status.
type Outcome struct {
	Event      models.Event
	Status     Status
	Record     *models.RaceRecord
	SkipReason string
	Err        *EventError
}

func processed(event models.Event, record *models.RaceRecord) Outcome {
	return Outcome{Event: event, Status: StatusProcessed, Record: record}
}

func skipped(event models.Event, reason string) Outcome {
	return Outcome{Event: event, Status: StatusSkipped, SkipReason: reason}
}

func failed(event models.Event, stage Stage, err error) Outcome {
	return Outcome{Event: event, Status: StatusFailed, Err: &EventError{Event: event.Name, Stage: stage, Err: err}}
}

// PersistenceError wraps a failure of the persistence sink.
type PersistenceError struct {
	Season int
	Err    error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to persist season %d: %v", e.Season, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
