package store

import (
	"sync"
	"time"

	"github.com/i474232898/weather-board/internal/weather"
)

// MemoryStore is a concurrency-safe, observable in-memory holder of the
// current weather.FetchState. Every change is pushed to subscribers.
type MemoryStore struct {
	mu sync.RWMutex

	state weather.FetchState
	now   func() time.Time

	nextID int
	subs   map[int]chan weather.FetchState
}

// NewMemoryStore creates an empty store: no snapshots, not loading, no error.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:  time.Now,
		subs: make(map[int]chan weather.FetchState),
	}
}

// Snapshot returns the current state. The returned slice must not be modified.
func (s *MemoryStore) Snapshot() weather.FetchState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Begin marks a cycle as in flight.
func (s *MemoryStore) Begin() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Loading = true
	s.notify()
}

// Succeed replaces the snapshots wholesale, clears the error and ends loading.
func (s *MemoryStore) Succeed(snapshots []weather.WeatherSnapshot) {
	fresh := make([]weather.WeatherSnapshot, len(snapshots))
	copy(fresh, snapshots)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = weather.FetchState{
		Snapshots: fresh,
		Loading:   false,
		Error:     nil,
		UpdatedAt: s.now().UTC(),
	}
	s.notify()
}

// Fail keeps the previous snapshots, records message and ends loading.
func (s *MemoryStore) Fail(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg := message
	s.state.Error = &msg
	s.state.Loading = false
	s.notify()
}

// Subscribe returns a channel that receives the state after every change,
// starting with the current one. A slow reader only sees the newest state.
// The returned func unsubscribes and closes the channel.
func (s *MemoryStore) Subscribe() (<-chan weather.FetchState, func()) {
	ch := make(chan weather.FetchState, 1)

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	ch <- s.state
	s.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			close(ch)
			s.mu.Unlock()
		})
	}
	return ch, cancel
}

// notify must be called with s.mu held for writing.
func (s *MemoryStore) notify() {
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- s.state
	}
}
