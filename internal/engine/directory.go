package engine

import (
	"fmt"
	"regexp"
	"strings"
)

// DirectoryEntry is a runtime-configured organizational unit. Aliases and
// negatives are either literal substrings or /pattern/flags regex literals.
type DirectoryEntry struct {
	Name      string   `json:"name"`
	Aliases   []string `json:"aliases,omitempty"`
	Negatives []string `json:"negatives,omitempty"`
}

const (
	kindAlias    = "alias"
	kindNegative = "negative"
)

// Diagnostic records one alias/negative that failed to compile. Collected
// instead of propagated so a single bad pattern never aborts an evaluation.
type Diagnostic struct {
	Department string `json:"department"`
	Pattern    string `json:"pattern"`
	Err        string `json:"error"`
	Kind       string `json:"kind"` // alias | negative
}

// matcher evaluates one alias/negative against the request text: regex form
// against the original text, literal form against the lower-cased copy.
type matcher struct {
	re  *regexp.Regexp
	lit string
}

func (m matcher) matches(text, lower string) bool {
	if m.re != nil {
		return m.re.MatchString(text)
	}
	return m.lit != "" && strings.Contains(lower, m.lit)
}

var regexLiteral = regexp.MustCompile(`^/(.*)/([a-zA-Z]*)$`)

// resolveMatcher parses a directory pattern. A value shaped like
// /pattern/flags compiles as a regular expression (flags i, m, s honored);
// anything else is a case-insensitive literal substring.
func resolveMatcher(raw string) (matcher, error) {
	s := strings.TrimSpace(raw)
	g := regexLiteral.FindStringSubmatch(s)
	if g == nil {
		return matcher{lit: strings.ToLower(s)}, nil
	}

	var flags strings.Builder
	for _, f := range g[2] {
		switch f {
		case 'i', 'm', 's':
			flags.WriteRune(f)
		default:
			return matcher{}, fmt.Errorf("unsupported regex flag %q in %q", string(f), raw)
		}
	}

	src := g[1]
	if flags.Len() > 0 {
		src = "(?" + flags.String() + ")" + src
	}
	re, err := regexp.Compile(src)
	if err != nil {
		return matcher{}, err
	}
	return matcher{re: re}, nil
}
