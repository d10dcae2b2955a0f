package models

import (
	"encoding/json"
	"time"

	"github.com/aarondl/opt/omit"
	"github.com/shopspring/decimal"
)

// Unknown is written in place of values that could not be derived.
const Unknown = "Unknown"

// DateLayout is the layout of event dates in the season document.
const DateLayout = "2006-01-02 15:04:05"

// WeatherSummary is the mean of each weather channel over a session.
// A channel without observations is unset.
type WeatherSummary struct {
	AirTemperature   omit.Val[float64]
	TrackTemperature omit.Val[float64]
	Humidity         omit.Val[float64]
}

// RaceInfo is the race information block of a race record.
type RaceInfo struct {
	TrackName    string
	TrackLength  decimal.Decimal // km
	EventName    string
	Date         time.Time
	Round        int
	TotalLaps    omit.Val[int]
	RaceDistance omit.Val[decimal.Decimal] // km; unset when total laps is unknown
	Weather      WeatherSummary
}

// NormalizedLap is a timed lap expressed per kilometre of track.
type NormalizedLap struct {
	Compound   Compound
	DriverName string
	LapNumber  int
	LapTime    decimal.Decimal // seconds, 3 decimals
	Pace       decimal.Decimal // seconds per km, 3 decimals
}

// RaceRecord is the full output for one processed event.
type RaceRecord struct {
	Info RaceInfo
	Laps []NormalizedLap
}

// SeasonDocument lists the race records of a season in schedule order.
type SeasonDocument []RaceRecord

type weatherJSON struct {
	AirTemperature   any `json:"Air Temperature"`
	TrackTemperature any `json:"Track Temperature"`
	Humidity         any `json:"Humidity"`
}

type raceInfoJSON struct {
	TrackName    string         `json:"Track Name"`
	TrackLength  string         `json:"Track Length"`
	EventName    string         `json:"Event Name"`
	Date         string         `json:"Date"`
	RoundNumber  int            `json:"Round Number"`
	TotalLaps    *int           `json:"Total Laps"`
	RaceDistance string         `json:"Race Distance"`
	Weather      WeatherSummary `json:"Weather"`
}

type lapJSON struct {
	Compound   Compound `json:"Compound"`
	DriverName string   `json:"Driver Name"`
	LapTime    string   `json:"Lap Time"`
	LapNumber  int      `json:"Lap Number"`
	Pace       string   `json:"Normalized Lap Time (s/km)"`
}

type raceRecordJSON struct {
	Info RaceInfo        `json:"Race Information"`
	Laps []NormalizedLap `json:"Lap Data"`
}

// FormatKm renders a distance the way the season document stores it.
func FormatKm(km decimal.Decimal) string {
	return km.StringFixed(3) + " km"
}

func readingOrUnknown(v omit.Val[float64]) any {
	if f, ok := v.Get(); ok {
		return f
	}
	return Unknown
}

// MarshalJSON implements json.Marshaler.
func (w WeatherSummary) MarshalJSON() ([]byte, error) {
	return json.Marshal(weatherJSON{
		AirTemperature:   readingOrUnknown(w.AirTemperature),
		TrackTemperature: readingOrUnknown(w.TrackTemperature),
		Humidity:         readingOrUnknown(w.Humidity),
	})
}

// MarshalJSON implements json.Marshaler.
func (r RaceInfo) MarshalJSON() ([]byte, error) {
	distance := Unknown
	if d, ok := r.RaceDistance.Get(); ok {
		distance = FormatKm(d)
	}
	var totalLaps *int
	if n, ok := r.TotalLaps.Get(); ok {
		totalLaps = &n
	}
	return json.Marshal(raceInfoJSON{
		TrackName:    r.TrackName,
		TrackLength:  FormatKm(r.TrackLength),
		EventName:    r.EventName,
		Date:         r.Date.Format(DateLayout),
		RoundNumber:  r.Round,
		TotalLaps:    totalLaps,
		RaceDistance: distance,
		Weather:      r.Weather,
	})
}

// MarshalJSON implements json.Marshaler.
func (l NormalizedLap) MarshalJSON() ([]byte, error) {
	return json.Marshal(lapJSON{
		Compound:   l.Compound,
		DriverName: l.DriverName,
		LapTime:    l.LapTime.StringFixed(3) + " s",
		LapNumber:  l.LapNumber,
		Pace:       l.Pace.StringFixed(3),
	})
}

// MarshalJSON implements json.Marshaler. Lap Data is always an array, never null.
func (r RaceRecord) MarshalJSON() ([]byte, error) {
	laps := r.Laps
	if laps == nil {
		laps = []NormalizedLap{}
	}
	return json.Marshal(raceRecordJSON{Info: r.Info, Laps: laps})
}
