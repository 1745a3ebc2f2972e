package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/weather-board/internal/logger"
	"github.com/i474232898/weather-board/internal/weather"
)

const defaultCycleTimeout = time.Minute

// Runner executes a single fetch cycle.
type Runner interface {
	Run(ctx context.Context) error
}

// Scheduler owns the repeating fetch schedule. The schedule runs while at
// least one consumer is attached: the first Attach runs a cycle right away
// and then every interval, the last Detach stops it. In-flight cycles are
// never cancelled by Detach.
type Scheduler struct {
	runner   Runner
	interval time.Duration
	timeout  time.Duration
	log      logger.Logger

	mu        sync.Mutex
	consumers int
	cron      *gocron.Scheduler
}

// New creates a new Scheduler. timeout bounds each cycle; zero means one minute.
func New(runner Runner, interval, timeout time.Duration, log logger.Logger) *Scheduler {
	if timeout <= 0 {
		timeout = defaultCycleTimeout
	}
	return &Scheduler{
		runner:   runner,
		interval: interval,
		timeout:  timeout,
		log:      log.WithField("component", "scheduler"),
	}
}

// Attach registers a consumer, starting a fresh schedule if it is the first one.
func (s *Scheduler) Attach() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.consumers == 0 {
		if err := s.start(); err != nil {
			return err
		}
	}
	s.consumers++
	return nil
}

// Detach unregisters a consumer and stops the schedule once none are left.
// It does not wait for a cycle that is already running.
func (s *Scheduler) Detach() {
	s.mu.Lock()
	if s.consumers == 0 {
		s.mu.Unlock()
		return
	}
	s.consumers--

	var cron *gocron.Scheduler
	if s.consumers == 0 {
		cron = s.cron
		s.cron = nil
	}
	s.mu.Unlock()

	if cron != nil {
		// gocron's Stop blocks until the running job returns.
		go cron.Stop()
		s.log.Infof("refresh schedule stopped")
	}
}

// Running reports whether a schedule is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cron != nil
}

func (s *Scheduler) start() error {
	if s.interval <= 0 {
		return errors.New("scheduler: interval must be positive")
	}

	cron := gocron.NewScheduler(time.UTC)
	_, err := cron.Every(s.interval).StartImmediately().SingletonMode().Do(s.runCycle)
	if err != nil {
		return err
	}

	cron.StartAsync()
	s.cron = cron
	s.log.Infof("refresh schedule started, every %v", s.interval)
	return nil
}

func (s *Scheduler) runCycle() {
	s.log.Debugf("running weather fetch job")

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	err := s.runner.Run(ctx)
	switch {
	case errors.Is(err, weather.ErrCycleInFlight):
		s.log.Debugf("previous cycle still running, tick skipped")
	case err != nil:
		// already logged by the runner; the next tick tries again
		s.log.Debugf("weather fetch job failed")
	default:
		s.log.Debugf("completed weather fetch job")
	}
}
