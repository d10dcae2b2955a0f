package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/rewired-gh/racepace/internal/logger"
	"github.com/rewired-gh/racepace/internal/models"
)

// Sink persists a finished season document and returns where it was written.
type Sink interface {
	SaveSeason(season int, doc models.SeasonDocument) (string, error)
}

// Summary describes one season run.
type Summary struct {
	RunID      string
	Season     int
	Outcomes   []Outcome // schedule order
	OutputPath string
	Duration   time.Duration
}

// Count returns the number of outcomes with the given status.
func (s Summary) Count(status Status) int {
	n := 0
	for _, o := range s.Outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}

// Failures returns the failed outcomes in schedule order.
func (s Summary) Failures() []Outcome {
	var result []Outcome
	for _, o := range s.Outcomes {
		if o.Status == StatusFailed {
			result = append(result, o)
		}
	}
	return result
}

// Aggregator builds and persists season documents.
type Aggregator struct {
	provider Provider
	tracks   TrackTable
	sink     Sink
	workers  int
}

// NewAggregator creates an Aggregator. workers below 1 means sequential processing.
func NewAggregator(provider Provider, tracks TrackTable, sink Sink, workers int) *Aggregator {
	if workers < 1 {
		workers = 1
	}
	return &Aggregator{
		provider: provider,
		tracks:   tracks,
		sink:     sink,
		workers:  workers,
	}
}

// Run processes every event of the season and persists the resulting document.
// Per-event failures are reported in the Summary; only a schedule fetch failure,
// cancellation or a persistence failure return an error.
func (a *Aggregator) Run(ctx context.Context, season int) (models.SeasonDocument, Summary, error) {
	startTime := time.Now()
	summary := Summary{RunID: uuid.New().String(), Season: season}
	logger.Info("Starting season %d (run %s)", season, summary.RunID)

	events, err := a.provider.EventSchedule(ctx, season)
	if err != nil {
		return nil, summary, fmt.Errorf("failed to fetch event schedule: %w", err)
	}
	logger.Info("Fetched %d events for season %d", len(events), season)

	outcomes, err := a.processAll(ctx, season, events)
	if err != nil {
		return nil, summary, err
	}
	// An event interrupted mid-fetch is recorded as failed; the run as a whole is not persisted.
	if err := ctx.Err(); err != nil {
		return nil, summary, err
	}
	summary.Outcomes = outcomes

	doc := make(models.SeasonDocument, 0, len(outcomes))
	for _, o := range outcomes {
		switch o.Status {
		case StatusProcessed:
			doc = append(doc, *o.Record)
		case StatusFailed:
			logger.Error("Error processing %s: %v", o.Event.Name, o.Err.Err)
		}
	}

	path, err := a.sink.SaveSeason(season, doc)
	if err != nil {
		return doc, summary, &PersistenceError{Season: season, Err: err}
	}
	summary.OutputPath = path
	summary.Duration = time.Since(startTime)

	logger.Info("Season %d completed in %v: %d processed, %d skipped, %d failed",
		season, summary.Duration,
		summary.Count(StatusProcessed), summary.Count(StatusSkipped), summary.Count(StatusFailed))

	return doc, summary, nil
}

// processAll runs the processor over events and returns outcomes indexed by schedule position.
func (a *Aggregator) processAll(ctx context.Context, season int, events []models.Event) ([]Outcome, error) {
	processor := NewProcessor(a.provider, a.tracks, season)
	outcomes := make([]Outcome, len(events))

	if a.workers == 1 {
		for i, event := range events {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			outcomes[i] = processor.Process(ctx, event)
		}
		return outcomes, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i, event := range events {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcomes[i] = processor.Process(gctx, event)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}
