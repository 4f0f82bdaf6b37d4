package engine

import "math"

// Default boost/penalty magnitudes. Magnitudes are always applied as
// absolute values; only the toggles decide whether a contribution runs.
const (
	defaultDynNameBoost   = 0.72
	defaultDynAliasBoost  = 0.08
	defaultRuleNegPenalty = 0.12
	defaultDynNegPenalty  = 0.12
)

// Tuning is the fully resolved parameter set the scoring core runs with.
type Tuning struct {
	// RuleInclude drops a fixed rule entirely when its department maps to false.
	RuleInclude map[string]bool
	// RuleOverrides replaces base/weight of a fixed rule, leaving patterns untouched.
	RuleOverrides map[string]RuleOverride

	DynName      bool
	DynAliases   bool
	DynNegatives bool

	DynNameBoost   float64
	DynAliasBoost  float64
	RuleNegPenalty float64
	DynNegPenalty  float64
}

// RuleOverride carries optional replacements for a rule's base score and
// per-match weight.
type RuleOverride struct {
	Base   *float64 `json:"base,omitempty"`
	Weight *float64 `json:"weight,omitempty"`
}

// DefaultTuning returns the documented defaults: all signal families on,
// standard boost/penalty magnitudes.
func DefaultTuning() Tuning {
	return Tuning{
		DynName:        true,
		DynAliases:     true,
		DynNegatives:   true,
		DynNameBoost:   defaultDynNameBoost,
		DynAliasBoost:  defaultDynAliasBoost,
		RuleNegPenalty: defaultRuleNegPenalty,
		DynNegPenalty:  defaultDynNegPenalty,
	}
}

// TuningOverlay is the wire form of tuning overrides: pointer fields so an
// absent JSON field keeps its default instead of zeroing it.
type TuningOverlay struct {
	RuleInclude   map[string]bool         `json:"ruleInclude,omitempty"`
	RuleOverrides map[string]RuleOverride `json:"ruleOverrides,omitempty"`

	DynName      *bool `json:"dynName,omitempty"`
	DynAliases   *bool `json:"dynAliases,omitempty"`
	DynNegatives *bool `json:"dynNegatives,omitempty"`

	DynNameBoost   *float64 `json:"dynNameBoost,omitempty"`
	DynAliasBoost  *float64 `json:"dynAliasBoost,omitempty"`
	RuleNegPenalty *float64 `json:"ruleNegPenalty,omitempty"`
	DynNegPenalty  *float64 `json:"dynNegPenalty,omitempty"`
}

// Resolve merges the overlay onto the defaults. Magnitudes go through
// math.Abs so a caller can never flip the sign of a boost or penalty.
func (o TuningOverlay) Resolve() Tuning {
	t := DefaultTuning()

	if o.RuleInclude != nil {
		t.RuleInclude = o.RuleInclude
	}
	if o.RuleOverrides != nil {
		t.RuleOverrides = o.RuleOverrides
	}

	if o.DynName != nil {
		t.DynName = *o.DynName
	}
	if o.DynAliases != nil {
		t.DynAliases = *o.DynAliases
	}
	if o.DynNegatives != nil {
		t.DynNegatives = *o.DynNegatives
	}

	if o.DynNameBoost != nil {
		t.DynNameBoost = math.Abs(*o.DynNameBoost)
	}
	if o.DynAliasBoost != nil {
		t.DynAliasBoost = math.Abs(*o.DynAliasBoost)
	}
	if o.RuleNegPenalty != nil {
		t.RuleNegPenalty = math.Abs(*o.RuleNegPenalty)
	}
	if o.DynNegPenalty != nil {
		t.DynNegPenalty = math.Abs(*o.DynNegPenalty)
	}

	return t
}

// effectiveRules applies RuleInclude / RuleOverrides to the fixed table.
func effectiveRules(t Tuning) []compiledRule {
	out := make([]compiledRule, 0, len(compiledRules))
	for _, r := range compiledRules {
		if inc, ok := t.RuleInclude[r.Department]; ok && !inc {
			continue
		}
		if ov, ok := t.RuleOverrides[r.Department]; ok {
			if ov.Base != nil {
				r.Base = *ov.Base
			}
			if ov.Weight != nil {
				r.Weight = *ov.Weight
			}
		}
		out = append(out, r)
	}
	return out
}
