// Package store reads the engine's dynamic configuration (department
// directory, tuning overrides) from an external key-value store. The engine
// only ever reads; seeding the store is an operator concern.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/muwajjih-ai/muwajjih/internal/engine"
)

// Well-known configuration keys.
const (
	DepartmentsKey = "routing.departments"
	TuningKey      = "routing.tuning"
)

// ErrNotFound reports a missing key. Callers treat it as "no configuration"
// rather than a failure.
var ErrNotFound = errors.New("store: key not found")

// KV is a minimal read-only key-value client.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
}

// Source adapts a KV into the engine's ConfigSource. Missing or malformed
// values degrade to an empty directory and default tuning; an evaluation is
// never failed on configuration problems.
type Source struct {
	kv KV
}

func NewSource(kv KV) *Source {
	return &Source{kv: kv}
}

func (s *Source) Snapshot(ctx context.Context) engine.Snapshot {
	snap := engine.Snapshot{Tuning: engine.DefaultTuning()}
	if s == nil || s.kv == nil {
		return snap
	}

	if raw, ok := s.fetch(ctx, DepartmentsKey); ok {
		var entries []engine.DirectoryEntry
		if err := json.Unmarshal(raw, &entries); err != nil {
			log.Printf("[store] malformed %s, using empty directory: %v", DepartmentsKey, err)
		} else {
			snap.Entries = entries
		}
	}

	if raw, ok := s.fetch(ctx, TuningKey); ok {
		var overlay engine.TuningOverlay
		if err := json.Unmarshal(raw, &overlay); err != nil {
			log.Printf("[store] malformed %s, using default tuning: %v", TuningKey, err)
		} else {
			snap.Tuning = overlay.Resolve()
		}
	}

	return snap
}

func (s *Source) fetch(ctx context.Context, key string) ([]byte, bool) {
	raw, err := s.kv.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.Printf("[store] fetch %s: %v", key, err)
		}
		return nil, false
	}
	return raw, true
}
