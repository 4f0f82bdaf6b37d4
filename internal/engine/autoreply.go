package engine

import "strings"

// AutoReply is a canned-answer suggestion for a common intent.
type AutoReply struct {
	Intent     Intent  `json:"intent"`
	Answer     string  `json:"answer"`
	Confidence float64 `json:"confidence"`
}

const (
	clarifyAnswer  = "يرجى توضيح الاستفسار"
	deferralAnswer = "شكراً لتواصلكم، سيتم تحويل استفساركم إلى الموظف المختص للرد عليكم في أقرب وقت."

	emptyInputConfidence = 0.2
	matchedConfidence    = 0.85
	deferralConfidence   = 0.5
)

// classifyIntent scans the intent table in declaration order and returns the
// first rule with any matching pattern. First-match-wins, not best-match.
func classifyIntent(text string) AutoReply {
	if strings.TrimSpace(text) == "" {
		return AutoReply{Intent: IntentUnknown, Answer: clarifyAnswer, Confidence: emptyInputConfidence}
	}

	lower := strings.ToLower(text)
	for _, r := range intentRules {
		for _, p := range r.Patterns {
			if strings.Contains(lower, strings.ToLower(p)) {
				return AutoReply{Intent: r.Intent, Answer: r.Answer, Confidence: matchedConfidence}
			}
		}
	}

	return AutoReply{Intent: IntentUnknown, Answer: deferralAnswer, Confidence: deferralConfidence}
}
