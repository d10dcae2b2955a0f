// Package models defines the core domain entities for racepace.
// These models represent scheduled events, loaded race sessions, and the
// normalized race records that make up a season document.
// Raw entities include built-in validation so malformed provider data is caught
// before it reaches a season document.
//
// Terminology:
//   - Event: one race weekend in a season's schedule.
//   - Session: one timed session of an event. Only the race session is used.
package models

import (
	"errors"
	"time"

	"github.com/aarondl/opt/omit"
)

// Event represents one scheduled event of a season as reported by the session provider.
type Event struct {
	Key   string        // Provider-specific identifier (e.g. OpenF1 meeting key)
	Name  string        // Display name, e.g. "Monaco Grand Prix"
	Round omit.Val[int] // Position in the season; unset for non-championship events such as testing
	Date  time.Time
}

// RoundNumber returns the round and whether it is known.
func (e Event) RoundNumber() (int, bool) {
	return e.Round.Get()
}

// Validate checks that all event fields are valid.
func (e *Event) Validate() error {
	if e.Name == "" {
		return errors.New("event name must not be empty")
	}
	if round, ok := e.Round.Get(); ok && round < 0 {
		return errors.New("round number must not be negative")
	}
	return nil
}
