package masking

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hfi/secure-mask/pkg/placeholder"
)

// Match is one occurrence found by a pass matcher
type Match struct {
	// Groups holds the full match at index 0 followed by the capture groups.
	// Optional groups that did not participate are empty.
	Groups []string
	// Start and End delimit the match within Input
	Start int
	End   int
	// Input is the text the pass is scanning
	Input string
}

// Group returns capture group i, or "" if it does not exist
func (m Match) Group(i int) string {
	if i < 0 || i >= len(m.Groups) {
		return ""
	}
	return m.Groups[i]
}

// Preceding returns the byte right before the match, or 0 at the start of input
func (m Match) Preceding() byte {
	if m.Start == 0 {
		return 0
	}
	return m.Input[m.Start-1]
}

// Run is the per-call state threaded through every pass
type Run struct {
	Patterns *PatternSet
	Counters *placeholder.Counters
}

// replace runs fn over every match of a named matcher in text.
// An absent matcher leaves text unchanged.
func (r *Run) replace(matcher, text string, fn func(Match) string) string {
	re := r.Patterns.pattern(matcher)
	if re == nil {
		return text
	}
	return replaceAllFunc(re, text, fn)
}

// ReplaceFunc returns the replacement for one match
type ReplaceFunc func(m Match, r *Run) string

// Pass is one global find-and-replace sweep in the pipeline
type Pass struct {
	// Name identifies the pass in configuration and diagnostics
	Name string
	// Matcher is the name of the PatternSet entry the pass scans for
	Matcher string
	// Replace builds the replacement for each match
	Replace ReplaceFunc
	// Optional passes only run when explicitly enabled
	Optional bool
}

// Apply runs the pass over text and returns the rewritten text
func (p Pass) Apply(text string, r *Run) (string, error) {
	re := r.Patterns.pattern(p.Matcher)
	if re == nil {
		return "", fmt.Errorf("pass %q: %w: %s", p.Name, ErrUnknownMatcher, p.Matcher)
	}
	return replaceAllFunc(re, text, func(m Match) string {
		return p.Replace(m, r)
	}), nil
}

// replaceAllFunc replaces every non-overlapping match left to right.
// Callbacks run in match order so counters advance in source order.
func replaceAllFunc(re *regexp.Regexp, text string, fn func(Match) string) string {
	locs := re.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))

	last := 0
	for _, loc := range locs {
		groups := make([]string, len(loc)/2)
		for i := range groups {
			if loc[2*i] >= 0 {
				groups[i] = text[loc[2*i]:loc[2*i+1]]
			}
		}

		b.WriteString(text[last:loc[0]])
		b.WriteString(fn(Match{
			Groups: groups,
			Start:  loc[0],
			End:    loc[1],
			Input:  text,
		}))
		last = loc[1]
	}
	b.WriteString(text[last:])

	return b.String()
}

// splitTopLevel splits s on sep, ignoring separators nested in <>, () or [].
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<', '(', '[':
			depth++
		case '>', ')', ']':
			if depth > 0 {
				depth--
			}
		case sep:
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}
