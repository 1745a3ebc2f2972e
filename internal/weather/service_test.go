package weather_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-board/internal/logger"
	"github.com/i474232898/weather-board/internal/store"
	"github.com/i474232898/weather-board/internal/weather"
)

// stubProvider answers per location name; unknown names fail.
type stubProvider struct {
	mu      sync.Mutex
	results map[string]weather.WeatherSnapshot
	errs    map[string]error
	block   chan struct{}
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) Fetch(ctx context.Context, loc weather.Location) (weather.WeatherSnapshot, error) {
	if p.block != nil {
		select {
		case <-p.block:
		case <-ctx.Done():
			return weather.WeatherSnapshot{}, ctx.Err()
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err, ok := p.errs[loc.Name]; ok {
		return weather.WeatherSnapshot{}, err
	}
	snap, ok := p.results[loc.Name]
	if !ok {
		return weather.WeatherSnapshot{}, errors.New("unknown location")
	}
	return snap, nil
}

func (p *stubProvider) set(name string, temp int, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		p.errs[name] = err
		return
	}
	delete(p.errs, name)
	p.results[name] = weather.WeatherSnapshot{City: name, Location: name, Temp: temp}
}

func newStub() *stubProvider {
	p := &stubProvider{
		results: make(map[string]weather.WeatherSnapshot),
		errs:    make(map[string]error),
	}
	for i, loc := range weather.DefaultLocations() {
		p.set(loc.Name, i, nil)
	}
	return p
}

func TestRunSuccess(t *testing.T) {
	st := store.NewMemoryStore()
	svc := weather.NewService(st, newStub(), weather.DefaultLocations(), logger.Nop())

	require.NoError(t, svc.Run(context.Background()))

	state := svc.State()
	assert.False(t, state.Loading)
	assert.Nil(t, state.Error)
	require.Len(t, state.Snapshots, 3)
	for i, loc := range weather.DefaultLocations() {
		assert.Equal(t, loc.Name, state.Snapshots[i].City)
		assert.Equal(t, i, state.Snapshots[i].Temp)
	}
}

func TestRunFailureKeepsStaleSnapshots(t *testing.T) {
	st := store.NewMemoryStore()
	p := newStub()
	svc := weather.NewService(st, p, weather.DefaultLocations(), logger.Nop())

	require.NoError(t, svc.Run(context.Background()))
	before := svc.State().Snapshots

	errNet := errors.New("connection refused")
	p.set("Москва", 0, errNet)
	p.set("Ялта", 99, nil)

	err := svc.Run(context.Background())
	assert.ErrorIs(t, err, errNet)
	assert.Contains(t, err.Error(), "Москва")

	state := svc.State()
	assert.False(t, state.Loading)
	require.NotNil(t, state.Error)
	assert.Equal(t, weather.FailureMessage, *state.Error)
	assert.Equal(t, before, state.Snapshots)
	assert.Equal(t, 0, state.Snapshots[0].Temp, "no partial update")
}

func TestRunFailureOnFirstCycleLeavesEmptyList(t *testing.T) {
	st := store.NewMemoryStore()
	p := newStub()
	p.set("С. Петербург", 0, errors.New("bad payload"))
	svc := weather.NewService(st, p, weather.DefaultLocations(), logger.Nop())

	require.Error(t, svc.Run(context.Background()))

	state := svc.State()
	assert.Empty(t, state.Snapshots)
	assert.NotNil(t, state.Error)
	assert.False(t, state.Loading)
}

func TestRunRecoversAfterFailure(t *testing.T) {
	st := store.NewMemoryStore()
	p := newStub()
	p.set("Ялта", 0, errors.New("timeout"))
	svc := weather.NewService(st, p, weather.DefaultLocations(), logger.Nop())

	require.Error(t, svc.Run(context.Background()))
	p.set("Ялта", 5, nil)
	require.NoError(t, svc.Run(context.Background()))

	state := svc.State()
	assert.Nil(t, state.Error)
	assert.Len(t, state.Snapshots, 3)
	assert.Equal(t, 5, state.Snapshots[0].Temp)
}

func TestRunLoadingWhileInFlight(t *testing.T) {
	st := store.NewMemoryStore()
	p := newStub()
	p.block = make(chan struct{})
	svc := weather.NewService(st, p, weather.DefaultLocations(), logger.Nop())

	done := make(chan error, 1)
	go func() { done <- svc.Run(context.Background()) }()

	require.Eventually(t, func() bool { return svc.State().Loading }, time.Second, 5*time.Millisecond)

	// a second cycle while the first is running is dropped
	assert.ErrorIs(t, svc.Run(context.Background()), weather.ErrCycleInFlight)
	assert.True(t, svc.State().Loading)

	close(p.block)
	require.NoError(t, <-done)
	assert.False(t, svc.State().Loading)
}

func TestLocationsAreCopied(t *testing.T) {
	locs := weather.DefaultLocations()
	svc := weather.NewService(store.NewMemoryStore(), newStub(), locs, logger.Nop())

	locs[0].Name = "changed"
	assert.Equal(t, "Ялта", svc.Locations()[0].Name)
}
