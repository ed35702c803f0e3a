package eventstore

import (
	"context"
	"time"
)

// Store persists and retrieves events.
type Store interface {
	// Append records an event, keeping its timestamp.
	Append(ctx context.Context, event Event) error

	// GetByRunID returns every event of a run in append order.
	GetByRunID(ctx context.Context, runID string) ([]Event, error)

	// GetRange returns events whose timestamp lies within [start, end].
	GetRange(ctx context.Context, start, end time.Time) ([]Event, error)

	Close() error
}
