package pipeline

import (
	"github.com/aarondl/opt/omit"
	"gonum.org/v1/gonum/stat"

	"github.com/rewired-gh/racepace/internal/models"
)

// SummarizeWeather averages each weather channel. Empty channels stay unset.
func SummarizeWeather(samples models.WeatherSamples) models.WeatherSummary {
	return models.WeatherSummary{
		AirTemperature:   mean(samples.AirTemperature),
		TrackTemperature: mean(samples.TrackTemperature),
		Humidity:         mean(samples.Humidity),
	}
}

func mean(xs []float64) omit.Val[float64] {
	if len(xs) == 0 {
		return omit.Val[float64]{}
	}
	return omit.From(stat.Mean(xs, nil))
}
