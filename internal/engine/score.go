package engine

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

const (
	// dynamicCandidateThreshold keeps noisy partial alias hits from becoming
	// routing decisions: a directory entry must accumulate strictly more than
	// this before it competes with the fixed rules.
	dynamicCandidateThreshold = 0.5

	// selfReferenceBoost rewards text that literally names the winning
	// department while other directory names are also present.
	selfReferenceBoost = 0.05

	confidenceFloor = 0.5
	confidenceCeil  = 1.0

	// maxMatchBytes bounds pattern matching on hostile or very long input.
	maxMatchBytes = 8 << 10

	sourceRule    = "rule"
	sourceDynamic = "dynamic"
)

// Adjustment records one boost or penalty applied outside the pattern loop.
type Adjustment struct {
	Label string  `json:"label"`
	Delta float64 `json:"delta"`
}

// ScoredCandidate is a provisional department suggestion with full scoring
// provenance. Transient, never persisted.
type ScoredCandidate struct {
	Department   string       `json:"department"`
	Score        float64      `json:"score"`
	Source       string       `json:"source"` // rule | dynamic
	Matched      []string     `json:"matched,omitempty"`
	AliasHits    []string     `json:"alias_hits,omitempty"`
	NegativeHits []string     `json:"negative_hits,omitempty"`
	Adjustments  []Adjustment `json:"adjustments,omitempty"`
}

// RoutingSuggestion is the engine's routing answer. Confidence never drops
// below 0.5: a positively resolved suggestion is always at least coin-flip-plus.
type RoutingSuggestion struct {
	Department string  `json:"department"`
	Reason     string  `json:"reason"`
	Confidence float64 `json:"confidence"`
}

// DebugResult is the tuning facade's output: the routing answer plus every
// candidate (sorted by descending score) and all malformed-pattern diagnostics.
type DebugResult struct {
	Result       RoutingSuggestion `json:"result"`
	Candidates   []ScoredCandidate `json:"candidates"`
	InvalidRegex []Diagnostic      `json:"invalid_regex"`
}

var (
	complaintIndicator = regexp.MustCompile(`شكوى|تظلم|اعتراض`)
	techIndicator      = regexp.MustCompile(`عطل|لا يعمل|توقف|شبكة|سيرفر`)
)

// suggest is the single scoring core shared by the production and debug
// entry points. The only behavioral difference is the production-only
// post-hoc boosts applied to the winner.
func suggest(text string, entries []DirectoryEntry, tn Tuning, production bool) (RoutingSuggestion, []ScoredCandidate, []Diagnostic) {
	text = boundText(text)
	lower := strings.ToLower(text)

	var (
		candidates []ScoredCandidate
		invalid    []Diagnostic
		bestIdx    = -1
		bestDynIdx = -1
	)

	// Fixed rules. A rule with zero positive hits produces no candidate,
	// so a negative-only match can never route on its own.
	for _, r := range effectiveRules(tn) {
		score := r.Base
		var matched []string
		for i, re := range r.pos {
			if re.MatchString(text) {
				score += r.Weight
				matched = append(matched, r.Positive[i])
			}
		}
		if len(matched) == 0 {
			continue
		}
		var negHits []string
		for i, re := range r.neg {
			if re.MatchString(text) {
				score -= tn.RuleNegPenalty
				negHits = append(negHits, r.Negative[i])
			}
		}
		candidates = append(candidates, ScoredCandidate{
			Department:   r.Department,
			Score:        score,
			Source:       sourceRule,
			Matched:      matched,
			NegativeHits: negHits,
		})
		if bestIdx < 0 || score > candidates[bestIdx].Score {
			bestIdx = len(candidates) - 1
		}
	}

	// Dynamic directory entries.
	for _, en := range entries {
		name := strings.ToLower(strings.TrimSpace(en.Name))
		if name == "" {
			continue
		}

		var (
			score       float64
			aliasHits   []string
			negHits     []string
			adjustments []Adjustment
		)

		if tn.DynName && strings.Contains(lower, name) {
			score += tn.DynNameBoost
			adjustments = append(adjustments, Adjustment{Label: "name", Delta: tn.DynNameBoost})
		}
		if tn.DynAliases {
			for _, a := range en.Aliases {
				m, err := resolveMatcher(a)
				if err != nil {
					invalid = append(invalid, Diagnostic{Department: en.Name, Pattern: a, Err: err.Error(), Kind: kindAlias})
					continue
				}
				if m.matches(text, lower) {
					score += tn.DynAliasBoost
					aliasHits = append(aliasHits, a)
				}
			}
		}
		if tn.DynNegatives {
			for _, n := range en.Negatives {
				m, err := resolveMatcher(n)
				if err != nil {
					invalid = append(invalid, Diagnostic{Department: en.Name, Pattern: n, Err: err.Error(), Kind: kindNegative})
					continue
				}
				if m.matches(text, lower) {
					score -= tn.DynNegPenalty
					negHits = append(negHits, n)
				}
			}
		}

		if score <= dynamicCandidateThreshold {
			continue
		}
		candidates = append(candidates, ScoredCandidate{
			Department:   en.Name,
			Score:        score,
			Source:       sourceDynamic,
			AliasHits:    aliasHits,
			NegativeHits: negHits,
			Adjustments:  adjustments,
		})
		if bestDynIdx < 0 || score > candidates[bestDynIdx].Score {
			bestDynIdx = len(candidates) - 1
		}
	}

	// The best dynamic entry only displaces the best rule when strictly greater.
	winIdx := bestIdx
	if bestDynIdx >= 0 && (winIdx < 0 || candidates[bestDynIdx].Score > candidates[winIdx].Score) {
		winIdx = bestDynIdx
	}

	if winIdx < 0 {
		return fallbackSuggestion(text, lower, entries), candidates, invalid
	}

	if production {
		applyWinnerBoosts(&candidates[winIdx], text, lower, entries, tn)
	}

	win := candidates[winIdx]
	reason := ruleJustification(win.Department)
	if win.Source == sourceDynamic || reason == "" {
		reason = fmt.Sprintf("تطابق مع دليل الإدارات: %s", win.Department)
	}
	return RoutingSuggestion{
		Department: win.Department,
		Reason:     reason,
		Confidence: clampConfidence(win.Score),
	}, candidates, invalid
}

// applyWinnerBoosts runs the production-only post-hoc adjustments: the
// literal self-reference boost, then a second, capped application of the
// matching directory entry's alias boosts and negative penalties, on top
// of what candidate generation already counted.
func applyWinnerBoosts(win *ScoredCandidate, text, lower string, entries []DirectoryEntry, tn Tuning) {
	dep := strings.ToLower(win.Department)

	if strings.Contains(lower, dep) && anyEntryNamed(entries, lower) {
		win.Score += selfReferenceBoost
		win.Adjustments = append(win.Adjustments, Adjustment{Label: "self_reference", Delta: selfReferenceBoost})
	}

	en := matchingEntry(entries, dep)
	if en == nil {
		return
	}

	aliasBoost := math.Min(0.06, tn.DynAliasBoost/2)
	negPenalty := math.Min(0.12, tn.DynNegPenalty)

	for _, a := range en.Aliases {
		m, err := resolveMatcher(a)
		if err != nil {
			continue
		}
		if m.matches(text, lower) {
			win.Score += aliasBoost
			win.Adjustments = append(win.Adjustments, Adjustment{Label: "directory_alias", Delta: aliasBoost})
		}
	}
	for _, n := range en.Negatives {
		m, err := resolveMatcher(n)
		if err != nil {
			continue
		}
		if m.matches(text, lower) {
			win.Score -= negPenalty
			win.Adjustments = append(win.Adjustments, Adjustment{Label: "directory_negative", Delta: -negPenalty})
		}
	}
}

func anyEntryNamed(entries []DirectoryEntry, lower string) bool {
	for _, en := range entries {
		name := strings.ToLower(strings.TrimSpace(en.Name))
		if name != "" && strings.Contains(lower, name) {
			return true
		}
	}
	return false
}

// matchingEntry finds the directory entry whose name substring-matches the
// winning department label in either direction.
func matchingEntry(entries []DirectoryEntry, lowerDep string) *DirectoryEntry {
	for i, en := range entries {
		name := strings.ToLower(strings.TrimSpace(en.Name))
		if name == "" {
			continue
		}
		if strings.Contains(lowerDep, name) || strings.Contains(name, lowerDep) {
			return &entries[i]
		}
	}
	return nil
}

// fallbackSuggestion resolves the no-candidate case, in fixed priority:
// complaint wording, technical-fault wording, a literal directory name in
// the text, then the generic inquiries desk.
func fallbackSuggestion(text, lower string, entries []DirectoryEntry) RoutingSuggestion {
	if complaintIndicator.MatchString(text) {
		return RoutingSuggestion{
			Department: DeptLegal,
			Reason:     "النص يتضمن صيغة شكوى أو تظلم",
			Confidence: 0.65,
		}
	}
	if techIndicator.MatchString(text) {
		return RoutingSuggestion{
			Department: DeptIT,
			Reason:     "النص يشير إلى عطل تقني",
			Confidence: 0.66,
		}
	}
	for _, en := range entries {
		name := strings.ToLower(strings.TrimSpace(en.Name))
		if name != "" && strings.Contains(lower, name) {
			return RoutingSuggestion{
				Department: en.Name,
				Reason:     fmt.Sprintf("اسم الإدارة %q ورد في نص الطلب", en.Name),
				Confidence: 0.62,
			}
		}
	}
	return RoutingSuggestion{
		Department: DeptInquiries,
		Reason:     "لم يتم التعرف على تصنيف واضح، تم التحويل إلى الاستعلامات العامة",
		Confidence: 0.6,
	}
}

func clampConfidence(score float64) float64 {
	if score < confidenceFloor {
		return confidenceFloor
	}
	if score > confidenceCeil {
		return confidenceCeil
	}
	return score
}

// boundText truncates oversized input at a rune boundary before matching.
func boundText(text string) string {
	if len(text) <= maxMatchBytes {
		return text
	}
	cut := maxMatchBytes
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}

func sortCandidates(candidates []ScoredCandidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
}
