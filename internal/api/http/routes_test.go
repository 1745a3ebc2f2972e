package httpapi

import (
	"bufio"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-board/internal/store"
	"github.com/i474232898/weather-board/internal/weather"
)

func newApp(states StateSource) *fiber.App {
	app := fiber.New()
	RegisterRoutes(app, states)
	return app
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestGetWeatherEmpty(t *testing.T) {
	app := newApp(store.NewMemoryStore())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/weather", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	decode(t, resp, &body)
	assert.Equal(t, []interface{}{}, body["snapshots"])
	assert.Equal(t, false, body["loading"])
	assert.Nil(t, body["error"])
	assert.NotContains(t, body, "updatedAt")
}

func TestGetWeatherAnnotatesCategories(t *testing.T) {
	s := store.NewMemoryStore()
	s.Succeed([]weather.WeatherSnapshot{
		{
			City: "Москва", Location: "Москва", Temp: 4, Code: 45,
			Forecast: []weather.DailyForecast{{Date: "2026-10-19", Min: 1, Max: 6, Code: 95}},
		},
	})
	s.Begin()
	s.Fail(weather.FailureMessage)

	resp, err := newApp(s).Test(httptest.NewRequest(http.MethodGet, "/api/v1/weather", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body stateView
	decode(t, resp, &body)

	require.Len(t, body.Snapshots, 1)
	snap := body.Snapshots[0]
	assert.Equal(t, "Москва", snap.City)
	assert.Equal(t, weather.CategoryFog, snap.Category)
	assert.Equal(t, "fog", snap.Icon)
	require.Len(t, snap.Forecast, 1)
	assert.Equal(t, "2026-10-19", snap.Forecast[0].Date)
	assert.Equal(t, 6, snap.Forecast[0].Max)
	assert.Equal(t, weather.CategoryThunderstorm, snap.Forecast[0].Category)
	assert.Equal(t, "lightning", snap.Forecast[0].Icon)

	assert.False(t, body.Loading)
	require.NotNil(t, body.Error)
	assert.Equal(t, weather.FailureMessage, *body.Error)
	assert.NotNil(t, body.UpdatedAt)
}

func TestCategoryEndpoint(t *testing.T) {
	app := newApp(store.NewMemoryStore())

	tests := []struct {
		query    string
		status   int
		category string
		icon     string
	}{
		{"code=0", http.StatusOK, "clear", "sun"},
		{"code=63", http.StatusOK, "rain", "rain"},
		{"code=-1", http.StatusOK, "cloudy", "cloud"},
		{"code=100", http.StatusOK, "thunderstorm", "lightning"},
		{"", http.StatusBadRequest, "", ""},
		{"code=abc", http.StatusBadRequest, "", ""},
		{"code=2.5", http.StatusBadRequest, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/weather/category?"+tt.query, nil))
			require.NoError(t, err)
			require.Equal(t, tt.status, resp.StatusCode)
			if tt.status != http.StatusOK {
				return
			}

			var body map[string]interface{}
			decode(t, resp, &body)
			assert.Equal(t, tt.category, body["category"])
			assert.Equal(t, tt.icon, body["icon"])
		})
	}
}

func TestStreamStates(t *testing.T) {
	updates := make(chan weather.FetchState, 2)
	msg := weather.FailureMessage
	updates <- weather.FetchState{Loading: true}
	updates <- weather.FetchState{Error: &msg}
	close(updates)

	var buf bytes.Buffer
	streamStates(bufio.NewWriter(&buf), updates)

	events := strings.Split(strings.TrimSpace(buf.String()), "\n\n")
	require.Len(t, events, 2)

	var first, second stateView
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(events[0], "data: ")), &first))
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(events[1], "data: ")), &second))
	assert.True(t, first.Loading)
	require.NotNil(t, second.Error)
	assert.Equal(t, msg, *second.Error)
}
