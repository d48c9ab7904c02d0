package masking

import (
	"fmt"
	"regexp"
	"sort"
)

// Matcher is a named, compiled recognizer for one syntactic fragment
type Matcher struct {
	Name        string
	Pattern     *regexp.Regexp
	Description string
}

// PatternSet is the immutable collection of matchers for one source language
type PatternSet struct {
	matchers map[string]*Matcher
}

// matcherDef is the uncompiled form of a Matcher
type matcherDef struct {
	name        string
	pattern     string
	description string
}

// language couples a pattern table entry with the ordered passes that consume it.
// Capture shapes are language specific, so every language brings its own passes.
type language struct {
	matchers []matcherDef
	passes   []Pass
}

// languages is the pattern table. New languages are added here.
var languages = map[string]language{
	"Java": {matchers: javaMatchers, passes: javaPasses},
}

// SupportedLanguages returns the pattern table keys in sorted order
func SupportedLanguages() []string {
	names := make([]string, 0, len(languages))
	for name := range languages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BuildPatternSet compiles the matchers registered for a language
func BuildPatternSet(lang string) (*PatternSet, error) {
	entry, ok := languages[lang]
	if !ok {
		return nil, &UnsupportedLanguageError{Language: lang}
	}
	return compilePatternSet(lang, entry.matchers)
}

func compilePatternSet(lang string, defs []matcherDef) (*PatternSet, error) {
	ps := &PatternSet{
		matchers: make(map[string]*Matcher, len(defs)),
	}

	for _, d := range defs {
		compiled, err := regexp.Compile(d.pattern)
		if err != nil {
			return nil, fmt.Errorf("failed to compile %s matcher %q: %w", lang, d.name, err)
		}
		if _, dup := ps.matchers[d.name]; dup {
			return nil, fmt.Errorf("duplicate %s matcher %q", lang, d.name)
		}
		ps.matchers[d.name] = &Matcher{
			Name:        d.name,
			Pattern:     compiled,
			Description: d.description,
		}
	}

	return ps, nil
}

// Get returns a matcher by name
func (p *PatternSet) Get(name string) (*Matcher, bool) {
	m, ok := p.matchers[name]
	return m, ok
}

// pattern returns the compiled pattern of a matcher, or nil when absent
func (p *PatternSet) pattern(name string) *regexp.Regexp {
	if m, ok := p.matchers[name]; ok {
		return m.Pattern
	}
	return nil
}
