// Package engine turns free-form citizen request text into routing
// suggestions, canned-answer replies and peak-hour predictions. Every
// operation is a pure, synchronous function over its input and a read-only
// configuration snapshot; nothing here owns persistence or escalates errors.
package engine

import "context"

// Snapshot is a read-only view of the externally configured directory and
// tuning, fetched fresh for each evaluation.
type Snapshot struct {
	Entries []DirectoryEntry
	Tuning  Tuning
}

// ConfigSource supplies configuration snapshots. Implementations degrade to
// an empty directory and default tuning instead of failing the call.
type ConfigSource interface {
	Snapshot(ctx context.Context) Snapshot
}

// Engine evaluates request text against the fixed pattern library and the
// dynamic directory. Safe for concurrent use; it holds no mutable state.
type Engine struct {
	src ConfigSource
}

// New creates an engine reading directory/tuning from src. A nil src runs
// with an empty directory and defaults, which is valid for rule-only use.
func New(src ConfigSource) *Engine {
	return &Engine{src: src}
}

func (e *Engine) snapshot(ctx context.Context) Snapshot {
	if e == nil || e.src == nil {
		return Snapshot{Tuning: DefaultTuning()}
	}
	return e.src.Snapshot(ctx)
}

// AutoReply returns a canned answer for the first matching intent, or the
// documented fallbacks for empty and unmatched text.
func (e *Engine) AutoReply(text string) AutoReply {
	return classifyIntent(text)
}

// SuggestDepartment is the production routing path: stored configuration,
// winner-only post-hoc boosts, diagnostics dropped.
func (e *Engine) SuggestDepartment(ctx context.Context, text string) RoutingSuggestion {
	snap := e.snapshot(ctx)
	out, _, _ := suggest(text, snap.Entries, snap.Tuning, true)
	return out
}

// DebugSuggest is the tuning facade: explicit overrides instead of stored
// tuning, no post-hoc winner boosts, and full provenance in the result. The
// asymmetry with SuggestDepartment is deliberate so debug output stays
// comparable against production scoring.
func (e *Engine) DebugSuggest(ctx context.Context, text string, opts TuningOverlay) DebugResult {
	snap := e.snapshot(ctx)
	result, candidates, invalid := suggest(text, snap.Entries, opts.Resolve(), false)
	sortCandidates(candidates)
	if candidates == nil {
		candidates = []ScoredCandidate{}
	}
	if invalid == nil {
		invalid = []Diagnostic{}
	}
	return DebugResult{Result: result, Candidates: candidates, InvalidRegex: invalid}
}

// PredictPeaks forwards to the package-level predictor; it needs no
// configuration snapshot.
func (e *Engine) PredictPeaks(timestamps []string) []PeakPrediction {
	return PredictPeaks(timestamps)
}

// RuleCount reports the size of the fixed department rule table.
func RuleCount() int {
	return len(departmentRules)
}
