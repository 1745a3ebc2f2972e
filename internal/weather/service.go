package weather

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/weather-board/internal/logger"
)

// FailureMessage is the user-facing error published after a failed cycle.
const FailureMessage = "Failed to load weather"

// ErrCycleInFlight is returned by Run when another cycle has not finished yet.
var ErrCycleInFlight = errors.New("fetch cycle already in flight")

// Service runs fetch cycles for a fixed list of locations and publishes the
// outcome into a Store.
type Service struct {
	store     Store
	provider  Provider
	locations []Location
	log       logger.Logger

	running atomic.Bool
}

// NewService creates a new Service. The locations slice is copied.
func NewService(store Store, provider Provider, locations []Location, log logger.Logger) *Service {
	locs := make([]Location, len(locations))
	copy(locs, locations)

	return &Service{
		store:     store,
		provider:  provider,
		locations: locs,
		log:       log.WithField("component", "weather_service"),
	}
}

// Locations returns the tracked locations in publication order.
func (s *Service) Locations() []Location {
	out := make([]Location, len(s.locations))
	copy(out, s.locations)
	return out
}

// State returns the latest published state.
func (s *Service) State() FetchState {
	return s.store.Snapshot()
}

// Run executes one fetch cycle. Every location is fetched concurrently; the
// snapshots are only replaced when all of them succeed. On failure the
// previous snapshots stay in place and the store carries FailureMessage.
// The returned error is the underlying cause, already logged.
func (s *Service) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		s.log.Debugf("skipping cycle: previous one still running")
		return ErrCycleInFlight
	}
	defer s.running.Store(false)

	log := s.log.WithField("cycle", uuid.NewString())
	started := time.Now()

	s.store.Begin()

	snapshots, err := All(ctx, len(s.locations), func(ctx context.Context, i int) (WeatherSnapshot, error) {
		loc := s.locations[i]
		snap, err := s.provider.Fetch(ctx, loc)
		if err != nil {
			return WeatherSnapshot{}, fmt.Errorf("%s: %w", loc.Name, err)
		}
		return snap, nil
	})
	if err != nil {
		log.WithError(err).Errorf("error fetching weather from %s", s.provider.Name())
		s.store.Fail(FailureMessage)
		return err
	}

	s.store.Succeed(snapshots)
	log.Infof("fetched weather for %d locations in %v", len(snapshots), time.Since(started))
	return nil
}
