package cache

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrMiss is returned by a layer that does not hold the entry.
	ErrMiss = errors.New("cache miss")
	// ErrTooLarge is returned when an entry can never fit into a layer.
	ErrTooLarge = errors.New("entry exceeds cache capacity")
)

// Layer is one level of the artifact cache. Entries are keyed by attachment
// id; artifacts are immutable so entries never need revalidation.
type Layer interface {
	Name() string
	Get(ctx context.Context, id uuid.UUID) ([]byte, error)
	Set(ctx context.Context, id uuid.UUID, data []byte) error
	Delete(ctx context.Context, id uuid.UUID) error
	Clear(ctx context.Context) error
	Stats(ctx context.Context) LayerStats
}

type LayerStats struct {
	Name      string  `json:"name"`
	Objects   int     `json:"objects"`
	SizeBytes int64   `json:"sizeBytes"`
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	HitRate   float64 `json:"hitRate"`
}

func hitRate(hits, misses int64) float64 {
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total) * 100
}
