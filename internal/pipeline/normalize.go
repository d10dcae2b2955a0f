package pipeline

import (
	"fmt"
	"slices"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/rewired-gh/racepace/internal/models"
)

// precision is the number of decimals kept for lap times, paces and distances.
const precision = 3

// DriverLookup resolves driver identifiers to drivers.
type DriverLookup interface {
	Driver(id string) (models.Driver, error)
}

// NormalizeLaps converts raw laps into per-kilometre records.
//
// Laps are grouped by driver (ascending driver ID), then by compound in the order
// each compound first appears for that driver; laps inside a compound keep their
// input order. Untimed laps are dropped. The output order is part of the document
// format and must stay stable.
func NormalizeLaps(laps []models.Lap, distanceKm float64, drivers DriverLookup) ([]models.NormalizedLap, error) {
	if !(distanceKm > 0) {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidDistance, distanceKm)
	}
	for i := range laps {
		if err := laps[i].Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedLap, err)
		}
	}

	km := decimal.NewFromFloat(distanceKm)
	byDriver := lo.GroupBy(laps, func(l models.Lap) string { return l.DriverID })
	driverIDs := lo.Keys(byDriver)
	slices.Sort(driverIDs)

	result := make([]models.NormalizedLap, 0, len(laps))
	for _, id := range driverIDs {
		driverLaps := byDriver[id]
		compounds := lo.Uniq(lo.Map(driverLaps, func(l models.Lap, _ int) models.Compound { return l.Compound }))

		var name string
		resolved := false
		for _, compound := range compounds {
			for _, lap := range driverLaps {
				if lap.Compound != compound {
					continue
				}
				elapsed, timed := lap.Time.Get()
				if !timed {
					continue
				}

				if !resolved {
					driver, err := drivers.Driver(id)
					if err != nil {
						return nil, err
					}
					name = driver.LastName
					resolved = true
				}

				seconds := decimal.NewFromFloat(elapsed.Seconds())
				result = append(result, models.NormalizedLap{
					Compound:   compound,
					DriverName: name,
					LapNumber:  lap.Number,
					LapTime:    seconds.Round(precision),
					Pace:       seconds.Div(km).Round(precision),
				})
			}
		}
	}

	return result, nil
}
