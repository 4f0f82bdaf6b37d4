// Package audit emits routing-decision events to configurable sinks so
// operators can review and tune engine behavior after the fact.
package audit

import (
	"strings"
	"time"
)

// Levels control how much request text is carried in an event.
const (
	LevelMetadata = "metadata" // decision fields only
	LevelFull     = "full"     // decision fields plus a bounded text preview
)

const previewLimit = 200

// Event is the canonical decision record.
type Event struct {
	Version    string    `json:"version"`
	Timestamp  time.Time `json:"timestamp"`
	RequestID  string    `json:"request_id"`
	Operation  string    `json:"operation"` // route | auto_reply
	Department string    `json:"department,omitempty"`
	Intent     string    `json:"intent,omitempty"`
	Confidence float64   `json:"confidence"`
	Candidates int       `json:"candidates,omitempty"`
	Preview    string    `json:"preview,omitempty"`
	LatencyMs  float64   `json:"latency_ms"`
}

// NewEvent assembles an event, applying the logging level to the preview.
func NewEvent(level, requestID, operation, text string) *Event {
	ev := &Event{
		Version:   "1",
		Timestamp: time.Now().UTC(),
		RequestID: requestID,
		Operation: operation,
	}
	if strings.EqualFold(strings.TrimSpace(level), LevelFull) {
		ev.Preview = truncatePreview(text)
	}
	return ev
}

func truncatePreview(text string) string {
	runes := []rune(text)
	if len(runes) <= previewLimit {
		return text
	}
	return string(runes[:previewLimit]) + "..."
}
