package weather

import (
	"context"
)

// Provider abstracts the upstream weather source (Open-Meteo in production).
type Provider interface {
	Name() string
	Fetch(ctx context.Context, loc Location) (WeatherSnapshot, error)
}

// Store is the observable state holder the fetcher writes into.
type Store interface {
	Snapshot() FetchState
	Begin()
	Succeed(snapshots []WeatherSnapshot)
	Fail(message string)
}
