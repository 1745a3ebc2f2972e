package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-board/internal/weather"
)

const (
	DefaultOpenMeteoURL = "https://api.open-meteo.com/v1/forecast"
	DefaultTimezone     = "Europe/Moscow"
)

var (
	// ErrMissingCurrent is returned when the payload lacks current temperature or code.
	ErrMissingCurrent = errors.New("open-meteo response has no current conditions")
	errDailyMismatch  = errors.New("open-meteo daily series are shorter than daily.time")
)

// OpenMeteoOptions configures an OpenMeteoProvider. Zero values fall back to defaults.
type OpenMeteoOptions struct {
	BaseURL    string
	Timezone   string
	MaxRetries int
}

// OpenMeteoProvider implements the weather.Provider interface for Open-Meteo.
type OpenMeteoProvider struct {
	name     string
	baseURL  string
	timezone string
	httpCfg  HTTPClientConfig
	circuit  *gobreaker.CircuitBreaker
}

func NewOpenMeteoProvider(client *http.Client, opts OpenMeteoOptions) *OpenMeteoProvider {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultOpenMeteoURL
	}
	if opts.Timezone == "" {
		opts.Timezone = DefaultTimezone
	}

	return &OpenMeteoProvider{
		name:     "openmeteo",
		baseURL:  opts.BaseURL,
		timezone: opts.Timezone,
		httpCfg: HTTPClientConfig{
			Client: client,
			Backoff: BackoffConfig{
				MaxRetries:      opts.MaxRetries,
				InitialInterval: 500 * time.Millisecond,
				MaxInterval:     5 * time.Second,
			},
		},
		circuit: newCircuitBreaker("openmeteo"),
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

// forecastURL builds the request for one location.
func (p *OpenMeteoProvider) forecastURL(loc weather.Location) string {
	values := url.Values{}
	values.Set("latitude", strconv.FormatFloat(loc.Latitude, 'f', -1, 64))
	values.Set("longitude", strconv.FormatFloat(loc.Longitude, 'f', -1, 64))
	values.Set("current", "temperature_2m,weather_code")
	values.Set("daily", "weather_code,temperature_2m_max,temperature_2m_min")
	values.Set("timezone", p.timezone)

	return fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
}

func (p *OpenMeteoProvider) Fetch(ctx context.Context, loc weather.Location) (weather.WeatherSnapshot, error) {
	buildRequest := func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, p.forecastURL(loc), nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return weather.WeatherSnapshot{}, err
	}
	defer resp.Body.Close()

	var payload openMeteoResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.WeatherSnapshot{}, fmt.Errorf("failed to decode response: %w", err)
	}

	return payload.toSnapshot(loc)
}

type openMeteoResponse struct {
	Current *struct {
		Temperature *float64 `json:"temperature_2m"`
		WeatherCode *int     `json:"weather_code"`
	} `json:"current"`
	Daily *struct {
		Time           []string  `json:"time"`
		TemperatureMax []float64 `json:"temperature_2m_max"`
		TemperatureMin []float64 `json:"temperature_2m_min"`
		WeatherCode    []int     `json:"weather_code"`
	} `json:"daily"`
}

func (r openMeteoResponse) toSnapshot(loc weather.Location) (weather.WeatherSnapshot, error) {
	if r.Current == nil || r.Current.Temperature == nil || r.Current.WeatherCode == nil {
		return weather.WeatherSnapshot{}, ErrMissingCurrent
	}

	forecast := []weather.DailyForecast{}
	if r.Daily != nil {
		d := r.Daily
		n := min(weather.MaxForecastDays, len(d.Time))
		if len(d.TemperatureMax) < n || len(d.TemperatureMin) < n || len(d.WeatherCode) < n {
			return weather.WeatherSnapshot{}, errDailyMismatch
		}
		for i := 0; i < n; i++ {
			forecast = append(forecast, weather.DailyForecast{
				Date: d.Time[i],
				Max:  weather.Round(d.TemperatureMax[i]),
				Min:  weather.Round(d.TemperatureMin[i]),
				Code: d.WeatherCode[i],
			})
		}
	}

	return weather.WeatherSnapshot{
		City:     loc.Name,
		Location: loc.Name,
		Temp:     weather.Round(*r.Current.Temperature),
		Code:     *r.Current.WeatherCode,
		Forecast: forecast,
	}, nil
}
