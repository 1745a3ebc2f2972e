package httpapi

import (
	"bufio"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"github.com/i474232898/weather-board/internal/weather"
)

const streamHeartbeat = 15 * time.Second

var validate = validator.New()

// StateSource exposes the observable weather state.
type StateSource interface {
	Snapshot() weather.FetchState
	Subscribe() (<-chan weather.FetchState, func())
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, states StateSource) {
	v1 := app.Group("/api/v1")

	v1.Get("/weather", func(c *fiber.Ctx) error {
		return c.JSON(newStateView(states.Snapshot()))
	})

	v1.Get("/weather/stream", func(c *fiber.Ctx) error {
		c.Set("Content-Type", "text/event-stream")
		c.Set("Cache-Control", "no-cache")
		c.Set("Connection", "keep-alive")

		updates, cancel := states.Subscribe()
		c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
			defer cancel()
			streamStates(w, updates)
		}))
		return nil
	})

	v1.Get("/weather/category", func(c *fiber.Ctx) error {
		q := categoryQuery{Code: c.Query("code")}
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		code, err := strconv.Atoi(q.Code)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "code must be an integer")
		}

		cat := weather.Classify(code)
		return c.JSON(fiber.Map{
			"code":     code,
			"category": cat,
			"icon":     cat.Icon(),
		})
	})
}

// streamStates writes one SSE event per state until the client goes away.
func streamStates(w *bufio.Writer, updates <-chan weather.FetchState) {
	heartbeat := time.NewTicker(streamHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case st, ok := <-updates:
			if !ok {
				return
			}
			data, err := json.Marshal(newStateView(st))
			if err != nil {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
		}

		if err := w.Flush(); err != nil {
			return
		}
	}
}

// categoryQuery holds query parameters for the category endpoint.
type categoryQuery struct {
	Code string `validate:"required"`
}

type dailyView struct {
	weather.DailyForecast
	Category weather.Category `json:"category"`
	Icon     string           `json:"icon"`
}

type snapshotView struct {
	City     string           `json:"city"`
	Location string           `json:"location"`
	Temp     int              `json:"temp"`
	Code     int              `json:"code"`
	Category weather.Category `json:"category"`
	Icon     string           `json:"icon"`
	Forecast []dailyView      `json:"forecast"`
}

type stateView struct {
	Snapshots []snapshotView `json:"snapshots"`
	Loading   bool           `json:"loading"`
	Error     *string        `json:"error"`
	UpdatedAt *time.Time     `json:"updatedAt,omitempty"`
}

func newStateView(st weather.FetchState) stateView {
	view := stateView{
		Snapshots: make([]snapshotView, 0, len(st.Snapshots)),
		Loading:   st.Loading,
		Error:     st.Error,
	}
	if !st.UpdatedAt.IsZero() {
		ts := st.UpdatedAt
		view.UpdatedAt = &ts
	}

	for _, s := range st.Snapshots {
		cat := weather.Classify(s.Code)
		sv := snapshotView{
			City:     s.City,
			Location: s.Location,
			Temp:     s.Temp,
			Code:     s.Code,
			Category: cat,
			Icon:     cat.Icon(),
			Forecast: make([]dailyView, 0, len(s.Forecast)),
		}
		for _, d := range s.Forecast {
			dc := weather.Classify(d.Code)
			sv.Forecast = append(sv.Forecast, dailyView{DailyForecast: d, Category: dc, Icon: dc.Icon()})
		}
		view.Snapshots = append(view.Snapshots, sv)
	}
	return view
}
