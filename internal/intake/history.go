// Package intake records historical submission timestamps so peak
// predictions can run without the caller supplying history on every call.
package intake

import (
	"sync"
	"time"
)

const defaultHistorySize = 10000

// History is a bounded, concurrency-safe record of submission times.
// Oldest entries are discarded once the bound is reached.
type History struct {
	mu     sync.Mutex
	max    int
	stamps []time.Time
}

func NewHistory(max int) *History {
	if max <= 0 {
		max = defaultHistorySize
	}
	return &History{max: max}
}

func (h *History) Record(t time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stamps = append(h.stamps, t)
	if len(h.stamps) > h.max {
		h.stamps = h.stamps[len(h.stamps)-h.max:]
	}
}

// Timestamps returns the recorded history as RFC 3339 strings, the form the
// peak predictor accepts.
func (h *History) Timestamps() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.stamps))
	for i, t := range h.stamps {
		out[i] = t.Format(time.RFC3339)
	}
	return out
}

func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.stamps)
}
