package models

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aarondl/opt/omit"
	"github.com/shopspring/decimal"
)

func TestLapValidate(t *testing.T) {
	tests := []struct {
		name    string
		lap     Lap
		wantErr bool
	}{
		{
			name: "valid timed lap",
			lap: Lap{
				DriverID: "1",
				Compound: CompoundSoft,
				Number:   12,
				Time:     omit.From(92 * time.Second),
			},
			wantErr: false,
		},
		{
			name: "valid untimed lap",
			lap: Lap{
				DriverID: "1",
				Compound: CompoundHard,
				Number:   1,
			},
			wantErr: false,
		},
		{
			name: "empty driver",
			lap: Lap{
				Compound: CompoundSoft,
				Number:   3,
			},
			wantErr: true,
		},
		{
			name: "zero lap number",
			lap: Lap{
				DriverID: "44",
				Compound: CompoundMedium,
				Number:   0,
			},
			wantErr: true,
		},
		{
			name: "negative lap time",
			lap: Lap{
				DriverID: "44",
				Compound: CompoundMedium,
				Number:   4,
				Time:     omit.From(-time.Second),
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.lap.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Lap.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEventValidate(t *testing.T) {
	tests := []struct {
		name    string
		event   Event
		wantErr bool
	}{
		{name: "valid event", event: Event{Name: "Monaco Grand Prix", Round: omit.From(6)}},
		{name: "testing without round", event: Event{Name: "Pre-Season Testing"}},
		{name: "empty name", event: Event{Round: omit.From(1)}, wantErr: true},
		{name: "negative round", event: Event{Name: "X", Round: omit.From(-1)}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.event.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Event.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseCompound(t *testing.T) {
	tests := []struct {
		label    string
		expected Compound
	}{
		{"SOFT", CompoundSoft},
		{"medium", CompoundMedium},
		{" Hard ", CompoundHard},
		{"", CompoundUnknown},
	}

	for _, tt := range tests {
		if got := ParseCompound(tt.label); got != tt.expected {
			t.Errorf("ParseCompound(%q) = %s, expected %s", tt.label, got, tt.expected)
		}
	}
}

func TestRaceSessionDriver(t *testing.T) {
	s := &RaceSession{Drivers: map[string]Driver{"16": {ID: "16", LastName: "Leclerc"}}}

	d, err := s.Driver("16")
	if err != nil {
		t.Fatalf("Driver failed: %v", err)
	}
	if d.LastName != "Leclerc" {
		t.Errorf("Expected Leclerc, got %s", d.LastName)
	}

	if _, err := s.Driver("99"); !errors.Is(err, ErrDriverNotFound) {
		t.Errorf("Expected ErrDriverNotFound, got %v", err)
	}
}

func TestRaceRecordMarshalJSON(t *testing.T) {
	record := RaceRecord{
		Info: RaceInfo{
			TrackName:   "Monaco Grand Prix",
			TrackLength: decimal.RequireFromString("3.337"),
			EventName:   "Monaco Grand Prix",
			Date:        time.Date(2023, 5, 28, 0, 0, 0, 0, time.UTC),
			Round:       6,
			Weather: WeatherSummary{
				AirTemperature: omit.From(21.5),
			},
		},
	}

	data, err := json.Marshal(record)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	got := string(data)

	for _, want := range []string{
		`"Race Information":{"Track Name":"Monaco Grand Prix"`,
		`"Track Length":"3.337 km"`,
		`"Date":"2023-05-28 00:00:00"`,
		`"Round Number":6`,
		`"Total Laps":null`,
		`"Race Distance":"Unknown"`,
		`"Weather":{"Air Temperature":21.5,"Track Temperature":"Unknown","Humidity":"Unknown"}`,
		`"Lap Data":[]`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("Expected %s in %s", want, got)
		}
	}
}

func TestNormalizedLapMarshalJSON(t *testing.T) {
	lap := NormalizedLap{
		Compound:   CompoundSoft,
		DriverName: "Verstappen",
		LapNumber:  7,
		LapTime:    decimal.RequireFromString("72.5"),
		Pace:       decimal.RequireFromString("21.726"),
	}

	data, err := json.Marshal(lap)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	expected := `{"Compound":"SOFT","Driver Name":"Verstappen","Lap Time":"72.500 s","Lap Number":7,"Normalized Lap Time (s/km)":"21.726"}`
	if string(data) != expected {
		t.Errorf("Unexpected JSON:\n got  %s\n want %s", data, expected)
	}
}
