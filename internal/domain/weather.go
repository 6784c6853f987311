package domain

import (
	"context"
	"encoding/json"
	"time"
)

// MaxForecastEntries bounds the hourly forecast window kept in a snapshot.
const MaxForecastEntries = 8

// ForecastEntry is one hourly forecast step.
type ForecastEntry struct {
	Time              time.Time `json:"time"`
	Temperature       float64   `json:"temp"`
	Humidity          float64   `json:"humidity"`
	Description       string    `json:"description"`
	PrecipProbability float64   `json:"pop"`  // percent
	PrecipMM          float64   `json:"rain"` // millimetres
}

// DailyForecast is one day of the multi-day outlook.
type DailyForecast struct {
	Date        time.Time `json:"date"`
	TempMax     float64   `json:"temp_max"`
	TempMin     float64   `json:"temp_min"`
	Description string    `json:"description"`
	PrecipMM    float64   `json:"precip"`
	Humidity    float64   `json:"humidity"`
}

// WeatherSnapshot is the normalized current weather and near-term forecast for a location.
type WeatherSnapshot struct {
	Location    string  `json:"location"`
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	Description string  `json:"description"`
	WindSpeed   float64 `json:"wind_speed"`

	// RainNext3h is expected rainfall (mm) over the next three hours. It stays
	// zero for providers that do not report it.
	RainNext3h float64 `json:"rain_next_3h"`

	Forecast []ForecastEntry `json:"forecast"`
	Daily    []DailyForecast `json:"daily,omitempty"`
}

// WeatherResult is either a snapshot or the error that prevented building one.
// The zero value reports ErrNoWeather.
type WeatherResult struct {
	snapshot WeatherSnapshot
	err      error
	ok       bool
}

// WeatherOK wraps a successfully fetched snapshot.
func WeatherOK(s WeatherSnapshot) WeatherResult {
	return WeatherResult{snapshot: s, ok: true}
}

// WeatherFailed wraps a fetch failure. A nil err yields ErrNoWeather.
func WeatherFailed(err error) WeatherResult {
	if err == nil {
		err = ErrNoWeather
	}
	return WeatherResult{err: err}
}

// Snapshot returns the snapshot, or the error when the fetch failed.
func (r WeatherResult) Snapshot() (WeatherSnapshot, error) {
	if !r.ok {
		return WeatherSnapshot{}, r.Err()
	}
	return r.snapshot, nil
}

// Err returns nil for a successful result.
func (r WeatherResult) Err() error {
	if r.ok {
		return nil
	}
	if r.err == nil {
		return ErrNoWeather
	}
	return r.err
}

// MarshalJSON encodes the snapshot, or {"error": "..."} for a failed result.
func (r WeatherResult) MarshalJSON() ([]byte, error) {
	if err := r.Err(); err != nil {
		return json.Marshal(struct {
			Error string `json:"error"`
		}{Error: err.Error()})
	}
	return json.Marshal(r.snapshot)
}

// WeatherProvider fetches weather for a place name. Failures are reported
// inside the result, never as a panic.
type WeatherProvider interface {
	FetchWeather(ctx context.Context, location string) WeatherResult
}
