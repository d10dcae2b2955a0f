package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aarondl/opt/omit"
)

var (
	// ErrSessionNotFound is returned by providers when an event has no session of the requested kind.
	ErrSessionNotFound = errors.New("session not found")
	// ErrDriverNotFound is returned when a driver identifier cannot be resolved within a session.
	ErrDriverNotFound = errors.New("driver not found")
)

// SessionKind identifies a session within an event.
type SessionKind string

const (
	SessionSprint SessionKind = "Sprint"
	SessionRace   SessionKind = "Race"
)

// Compound is the tyre compound used for a lap.
type Compound string

const (
	CompoundSoft         Compound = "SOFT"
	CompoundMedium       Compound = "MEDIUM"
	CompoundHard         Compound = "HARD"
	CompoundIntermediate Compound = "INTERMEDIATE"
	CompoundWet          Compound = "WET"
	CompoundUnknown      Compound = "UNKNOWN"
)

// ParseCompound maps a provider label onto a Compound. Empty labels map to CompoundUnknown.
func ParseCompound(label string) Compound {
	label = strings.ToUpper(strings.TrimSpace(label))
	if label == "" {
		return CompoundUnknown
	}
	return Compound(label)
}

// Lap is one driver's one lap as reported by the provider.
type Lap struct {
	DriverID string
	Compound Compound
	Number   int
	Time     omit.Val[time.Duration] // Unset for untimed laps (e.g. red flag laps)
}

// Validate checks that all lap fields are valid.
func (l *Lap) Validate() error {
	if l.DriverID == "" {
		return errors.New("driver ID must not be empty")
	}
	if l.Number < 1 {
		return fmt.Errorf("lap number %d must be positive", l.Number)
	}
	if t, ok := l.Time.Get(); ok && t < 0 {
		return fmt.Errorf("lap time %v must not be negative", t)
	}
	return nil
}

// Driver holds the identity of one participant of a session.
type Driver struct {
	ID        string
	FirstName string
	LastName  string
	Acronym   string
	TeamName  string
}

// WeatherSamples holds the raw weather observations of a session, one slice per channel.
type WeatherSamples struct {
	AirTemperature   []float64
	TrackTemperature []float64
	Humidity         []float64
}

// RaceSession is a fully loaded session: laps, weather and driver lookups are populated.
type RaceSession struct {
	Kind      SessionKind
	Date      time.Time // session start; zero when the provider does not report it
	TotalLaps omit.Val[int]
	Weather   WeatherSamples
	Laps      []Lap
	Drivers   map[string]Driver // keyed by Lap.DriverID
}

// Driver resolves a driver identifier within the session.
func (s *RaceSession) Driver(id string) (Driver, error) {
	d, ok := s.Drivers[id]
	if !ok {
		return Driver{}, fmt.Errorf("%w: %s", ErrDriverNotFound, id)
	}
	return d, nil
}
