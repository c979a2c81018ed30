package cache

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"ifc-service/internal/metrics"
)

// Tiered is a read-through cache over ordered layers, fastest first. A hit in
// a slower layer is promoted into every faster one.
type Tiered struct {
	layers  []Layer
	metrics *metrics.Lifecycle
	log     zerolog.Logger
}

func NewTiered(log zerolog.Logger, m *metrics.Lifecycle, layers ...Layer) *Tiered {
	return &Tiered{layers: layers, metrics: m, log: log}
}

// Get looks id up layer by layer. dm may be nil.
func (t *Tiered) Get(ctx context.Context, id uuid.UUID, dm *metrics.DownloadMetrics) ([]byte, bool) {
	for i, layer := range t.layers {
		var attempt *metrics.LayerAttempt
		if dm != nil {
			attempt = dm.StartLayer(layer.Name())
		}
		data, err := layer.Get(ctx, id)
		hit := err == nil
		if dm != nil {
			var layerErr error
			if err != nil && !errors.Is(err, ErrMiss) {
				layerErr = err
			}
			dm.EndLayer(attempt, hit, layerErr)
		}
		if !hit {
			t.metrics.CacheEvent(layer.Name(), "miss")
			if !errors.Is(err, ErrMiss) {
				t.log.Warn().Err(err).Str("layer", layer.Name()).Str("attachment_id", id.String()).Msg("cache layer read failed")
			}
			continue
		}
		t.metrics.CacheEvent(layer.Name(), "hit")
		for _, faster := range t.layers[:i] {
			t.store(ctx, faster, id, data)
		}
		return data, true
	}
	return nil, false
}

// Set writes data into every layer. Failures are logged only.
func (t *Tiered) Set(ctx context.Context, id uuid.UUID, data []byte) {
	for _, layer := range t.layers {
		t.store(ctx, layer, id, data)
	}
}

// Invalidate removes id from every layer.
func (t *Tiered) Invalidate(ctx context.Context, id uuid.UUID) {
	for _, layer := range t.layers {
		if err := layer.Delete(ctx, id); err != nil {
			t.log.Warn().Err(err).Str("layer", layer.Name()).Str("attachment_id", id.String()).Msg("cache invalidation failed")
		}
	}
}

// Clear empties every layer and returns the first error.
func (t *Tiered) Clear(ctx context.Context) error {
	var first error
	for _, layer := range t.layers {
		if err := layer.Clear(ctx); err != nil && first == nil {
			first = err
		}
		t.metrics.SetCacheSize(layer.Name(), 0)
	}
	return first
}

func (t *Tiered) Stats(ctx context.Context) []LayerStats {
	stats := make([]LayerStats, 0, len(t.layers))
	for _, layer := range t.layers {
		stats = append(stats, layer.Stats(ctx))
	}
	return stats
}

func (t *Tiered) store(ctx context.Context, layer Layer, id uuid.UUID, data []byte) {
	if err := layer.Set(ctx, id, data); err != nil {
		if !errors.Is(err, ErrTooLarge) {
			t.log.Warn().Err(err).Str("layer", layer.Name()).Str("attachment_id", id.String()).Msg("cache store failed")
		}
		return
	}
	t.metrics.CacheEvent(layer.Name(), "set")
	t.metrics.SetCacheSize(layer.Name(), layer.Stats(ctx).SizeBytes)
}
