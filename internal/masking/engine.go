// Package masking rewrites source code into an anonymized form in which
// identifiers, type names, route paths and doc references are replaced by
// sequentially numbered placeholders.
//
// Matching is heuristic: every language registers a set of text patterns and an
// ordered list of passes, and Mask folds the input through the passes. No syntax
// tree is built, so unrecognized constructs are left untouched.
package masking

import (
	"fmt"
	"sync"

	"github.com/hfi/secure-mask/pkg/placeholder"
)

// Options controls which passes the engine runs
type Options struct {
	// TypeNames enables the optional capitalized type name pass
	TypeNames bool

	// DisabledPasses lists pass names that are skipped
	DisabledPasses []string
}

// Result contains the output of one masking run
type Result struct {
	// Text is the masked source
	Text string
	// Language is the pattern table key that was used
	Language string
	// Counts holds how many placeholders were issued per category
	Counts map[placeholder.Category]int
}

// Total returns the number of placeholders issued in the run
func (r *Result) Total() int {
	total := 0
	for _, n := range r.Counts {
		total += n
	}
	return total
}

type compiledLanguage struct {
	patterns *PatternSet
	passes   []Pass
}

// Engine masks source text. It is immutable after New and safe for concurrent use.
type Engine struct {
	languages map[string]*compiledLanguage
	options   Options
}

// New builds the pattern table for every registered language
func New(opts Options) (*Engine, error) {
	disabled := make(map[string]bool, len(opts.DisabledPasses))
	for _, name := range opts.DisabledPasses {
		disabled[name] = true
	}

	e := &Engine{
		languages: make(map[string]*compiledLanguage, len(languages)),
		options:   opts,
	}

	for name, entry := range languages {
		ps, err := BuildPatternSet(name)
		if err != nil {
			return nil, err
		}

		passes := make([]Pass, 0, len(entry.passes))
		for _, p := range entry.passes {
			if _, ok := ps.Get(p.Matcher); !ok {
				return nil, fmt.Errorf("%s pass %q: %w: %s", name, p.Name, ErrUnknownMatcher, p.Matcher)
			}
			if disabled[p.Name] || (p.Optional && !opts.TypeNames) {
				continue
			}
			passes = append(passes, p)
		}

		e.languages[name] = &compiledLanguage{patterns: ps, passes: passes}
	}

	return e, nil
}

// Mask rewrites source and returns the masked text.
// It fails with *UnsupportedLanguageError before any pass runs when language is unknown.
func (e *Engine) Mask(source, language string) (string, error) {
	res, err := e.MaskWithStats(source, language)
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

// MaskWithStats is Mask plus the per-category placeholder counts
func (e *Engine) MaskWithStats(source, language string) (*Result, error) {
	lang, ok := e.languages[language]
	if !ok {
		return nil, &UnsupportedLanguageError{Language: language}
	}

	run := &Run{
		Patterns: lang.patterns,
		Counters: placeholder.NewCounters(),
	}

	masked := source
	for _, p := range lang.passes {
		out, err := p.Apply(masked, run)
		if err != nil {
			return nil, err
		}
		masked = out
	}

	return &Result{
		Text:     masked,
		Language: language,
		Counts:   run.Counters.Snapshot(),
	}, nil
}

// Languages returns the supported language keys in sorted order
func (e *Engine) Languages() []string {
	return SupportedLanguages()
}

// Supports reports whether a language has a pattern table entry
func (e *Engine) Supports(language string) bool {
	_, ok := e.languages[language]
	return ok
}

// Passes returns the names of the passes that run for a language, in order
func (e *Engine) Passes(language string) ([]string, error) {
	lang, ok := e.languages[language]
	if !ok {
		return nil, &UnsupportedLanguageError{Language: language}
	}
	names := make([]string, len(lang.passes))
	for i, p := range lang.passes {
		names[i] = p.Name
	}
	return names, nil
}

var defaultEngine = sync.OnceValues(func() (*Engine, error) {
	return New(Options{})
})

// Mask masks source with an engine using default options
func Mask(source, language string) (string, error) {
	e, err := defaultEngine()
	if err != nil {
		return "", err
	}
	return e.Mask(source, language)
}
