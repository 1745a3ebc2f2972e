package weather

import (
	"math"
	"time"
)

// Location is a named point we track weather for.
type Location struct {
	Name      string  `json:"name" mapstructure:"name" validate:"required"`
	Latitude  float64 `json:"latitude" mapstructure:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" mapstructure:"longitude" validate:"gte=-180,lte=180"`
}

// DefaultLocations returns the three cities shown on the board.
func DefaultLocations() []Location {
	return []Location{
		{Name: "Ялта", Latitude: 44.49, Longitude: 34.16},
		{Name: "Москва", Latitude: 55.75, Longitude: 37.61},
		{Name: "С. Петербург", Latitude: 59.93, Longitude: 30.33},
	}
}

// MaxForecastDays caps the daily series kept per snapshot.
const MaxForecastDays = 5

// DailyForecast is one day of the short-range forecast.
// Date is the calendar day exactly as returned upstream (YYYY-MM-DD).
type DailyForecast struct {
	Date string `json:"date"`
	Min  int    `json:"min"`
	Max  int    `json:"max"`
	Code int    `json:"code"`
}

// WeatherSnapshot is the normalized current + forecast view of one location.
type WeatherSnapshot struct {
	City string `json:"city"`
	// Location duplicates City; consumers still read it.
	Location string          `json:"location"`
	Temp     int             `json:"temp"`
	Code     int             `json:"code"`
	Forecast []DailyForecast `json:"forecast"`
}

// FetchState is what consumers observe. Snapshots is either empty or holds
// one entry per location, in location order, and is never mutated in place.
type FetchState struct {
	Snapshots []WeatherSnapshot `json:"snapshots"`
	Loading   bool              `json:"loading"`
	Error     *string           `json:"error"`
	UpdatedAt time.Time         `json:"updatedAt,omitempty"`
}

// Round rounds half-up (2.5 -> 3, -2.5 -> -2).
func Round(v float64) int {
	f := math.Floor(v)
	if v-f >= 0.5 {
		f++
	}
	return int(f)
}
