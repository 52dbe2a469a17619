package agent

import (
	"sync/atomic"
	"time"
)

// HealthStatus tracks run liveness for the probe endpoint.
type HealthStatus struct {
	collecting   atomic.Bool
	samples      atomic.Int64
	fetchErrors  atomic.Int64
	lastSampleAt atomic.Int64
}

func NewHealthStatus() *HealthStatus {
	return &HealthStatus{}
}

func (h *HealthStatus) SetCollecting(on bool) {
	h.collecting.Store(on)
}

func (h *HealthStatus) MarkSample(ts time.Time) {
	h.samples.Add(1)
	h.lastSampleAt.Store(ts.UnixNano())
}

func (h *HealthStatus) MarkFetchError() {
	h.fetchErrors.Add(1)
}

func (h *HealthStatus) Snapshot() map[string]any {
	out := map[string]any{
		"collecting":   h.collecting.Load(),
		"samples":      h.samples.Load(),
		"fetch_errors": h.fetchErrors.Load(),
	}
	if v := h.lastSampleAt.Load(); v > 0 {
		out["last_sample_at"] = time.Unix(0, v).UTC()
	}
	return out
}
