// Package pipeline turns a season's schedule into a season document.
//
// A Processor handles one event: it resolves the circuit's lap distance, loads
// the race session from the provider, summarizes weather and normalizes lap
// times per kilometre. Every event yields an Outcome (processed, skipped or
// failed); per-event errors never abort a season.
//
// An Aggregator runs the Processor over a full schedule, keeps successful
// records in schedule order and hands the finished document to a Sink.
package pipeline

import (
	"context"

	"github.com/aarondl/opt/omit"
	"github.com/shopspring/decimal"

	"github.com/rewired-gh/racepace/internal/logger"
	"github.com/rewired-gh/racepace/internal/models"
)

// Provider supplies schedules and fully loaded sessions.
type Provider interface {
	EventSchedule(ctx context.Context, season int) ([]models.Event, error)
	RaceSession(ctx context.Context, season, round int, kind models.SessionKind) (*models.RaceSession, error)
}

// TrackTable resolves an event name to its lap distance in kilometres.
type TrackTable interface {
	DistanceOf(eventName string) (float64, bool)
}

// Processor builds race records for single events of one season.
type Processor struct {
	provider Provider
	tracks   TrackTable
	season   int
}

// NewProcessor creates a Processor for the given season.
func NewProcessor(provider Provider, tracks TrackTable, season int) *Processor {
	return &Processor{
		provider: provider,
		tracks:   tracks,
		season:   season,
	}
}

// Process builds the race record of one event. It never returns an error:
// failures are reported through the Outcome.
func (p *Processor) Process(ctx context.Context, event models.Event) Outcome {
	logger.Info("Processing event: %s", event.Name)

	distanceKm, known := p.tracks.DistanceOf(event.Name)
	round, hasRound := event.RoundNumber()
	if !known || !hasRound {
		reason := "missing round number"
		if !known {
			reason = "missing track length"
		}
		logger.Info("Skipping %s due to %s", event.Name, reason)
		return skipped(event, reason)
	}

	session, err := p.provider.RaceSession(ctx, p.season, round, models.SessionRace)
	if err != nil {
		return failed(event, StageSession, err)
	}

	laps, err := NormalizeLaps(session.Laps, distanceKm, session)
	if err != nil {
		return failed(event, StageNormalize, err)
	}

	date := event.Date
	if !session.Date.IsZero() {
		date = session.Date
	}

	trackLength := decimal.NewFromFloat(distanceKm)
	info := models.RaceInfo{
		TrackName:   event.Name,
		TrackLength: trackLength,
		EventName:   event.Name,
		Date:        date,
		Round:       round,
		TotalLaps:   session.TotalLaps,
		Weather:     SummarizeWeather(session.Weather),
	}
	if total, ok := session.TotalLaps.Get(); ok && total > 0 {
		info.RaceDistance = omit.From(trackLength.Mul(decimal.NewFromInt(int64(total))).Round(precision))
	}

	logger.Debug("Built record for %s: %d normalized laps", event.Name, len(laps))
	return processed(event, &models.RaceRecord{Info: info, Laps: laps})
}
