package store

import (
	"context"
	"errors"

	"weekcal/internal/model"
)

// ErrNotFound is returned by Get when no schedule exists under the key
// (never stored, expired, or swept). Callers surface it as the
// "generate first" precondition error.
var ErrNotFound = errors.New("store: schedule not found")

// Store holds the most recent parsed schedule per session key so exports can
// run later without re-submitting the source text. Entries are working
// state with a TTL, not durable data.
type Store interface {
	Get(ctx context.Context, key string) (*model.Schedule, error)
	Put(ctx context.Context, key string, sched *model.Schedule) error
	Delete(ctx context.Context, key string) error
}
