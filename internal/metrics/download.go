package metrics

import (
	"fmt"
	"sync"
	"time"
)

// DownloadMetrics holds latency measurements for one artifact download.
type DownloadMetrics struct {
	mu sync.Mutex

	start        time.Time
	lookupStart  time.Time
	storageStart time.Time

	TotalLatencyMs   float64
	LookupLatencyMs  float64
	StorageLatencyMs float64
	Layers           []LayerAttempt

	AttachmentID   string
	Size           int64
	CacheHit       bool
	CacheLayerUsed string
}

// LayerAttempt is one cache layer lookup.
type LayerAttempt struct {
	Layer     string
	start     time.Time
	LatencyMs float64
	Hit       bool
	Error     string
}

func NewDownloadMetrics(attachmentID string) *DownloadMetrics {
	return &DownloadMetrics{start: time.Now(), AttachmentID: attachmentID}
}

func (m *DownloadMetrics) StartLookup() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookupStart = time.Now()
}

func (m *DownloadMetrics) EndLookup() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LookupLatencyMs = sinceMs(m.lookupStart)
}

// StartLayer starts timing a cache layer lookup.
func (m *DownloadMetrics) StartLayer(layer string) *LayerAttempt {
	return &LayerAttempt{Layer: layer, start: time.Now()}
}

// EndLayer records the outcome of a cache layer lookup.
func (m *DownloadMetrics) EndLayer(attempt *LayerAttempt, hit bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	attempt.LatencyMs = sinceMs(attempt.start)
	attempt.Hit = hit
	if err != nil {
		attempt.Error = err.Error()
	}
	m.Layers = append(m.Layers, *attempt)
	if hit {
		m.CacheHit = true
		m.CacheLayerUsed = attempt.Layer
	}
}

func (m *DownloadMetrics) StartStorage() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.storageStart = time.Now()
}

func (m *DownloadMetrics) EndStorage() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StorageLatencyMs = sinceMs(m.storageStart)
}

func (m *DownloadMetrics) SetSize(size int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Size = size
}

// Finalize stops the total timer.
func (m *DownloadMetrics) Finalize() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TotalLatencyMs = sinceMs(m.start)
}

// Headers returns the measurements as HTTP response headers.
func (m *DownloadMetrics) Headers() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()

	headers := map[string]string{
		"X-Latency-Total-Ms":  formatFloat(m.TotalLatencyMs),
		"X-Latency-Lookup-Ms": formatFloat(m.LookupLatencyMs),
		"X-Cache-Hit":         fmt.Sprintf("%t", m.CacheHit),
		"X-Object-Size-Bytes": fmt.Sprintf("%d", m.Size),
	}
	if m.CacheHit {
		headers["X-Cache-Layer-Used"] = m.CacheLayerUsed
	}
	var waterfall float64
	for _, layer := range m.Layers {
		headers["X-Latency-Cache-"+layer.Layer+"-Ms"] = formatFloat(layer.LatencyMs)
		waterfall += layer.LatencyMs
	}
	if waterfall > 0 {
		headers["X-Latency-Cache-Waterfall-Ms"] = formatFloat(waterfall)
	}
	if m.StorageLatencyMs > 0 {
		headers["X-Latency-Storage-Ms"] = formatFloat(m.StorageLatencyMs)
	}
	return headers
}

func sinceMs(t time.Time) float64 {
	if t.IsZero() {
		return 0
	}
	return float64(time.Since(t).Microseconds()) / 1000.0
}

func formatFloat(f float64) string {
	return fmt.Sprintf("%.2f", f)
}
