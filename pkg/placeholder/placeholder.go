// Package placeholder generates and recognizes the numbered tokens that replace
// masked source fragments.
package placeholder

import (
	"regexp"
	"sort"
	"strconv"
)

// Category is a class of syntactic construct with its own counter
type Category string

const (
	Class       Category = "class"
	Interface   Category = "interface"
	Constructor Category = "constructor"
	Method      Category = "method"
	Var         Category = "var"
	Param       Category = "param"
	Type        Category = "type"
	DocParam    Category = "docParam"
	DocReturn   Category = "docReturn"
	Annotation  Category = "annotation"
)

// prefixes maps each category to the identifier prefix of its tokens.
// Annotation tokens are path literals and are built by the caller.
var prefixes = map[Category]string{
	Class:       "Class",
	Interface:   "Interface",
	Constructor: "Constructor",
	Method:      "method",
	Var:         "var",
	Param:       "param",
	Type:        "Type",
	DocParam:    "param",
	DocReturn:   "result",
}

// tokenPattern matches any identifier-shaped token emitted by Counters
var tokenPattern = regexp.MustCompile(`\b(?:Class|Interface|Constructor|method|var|param|Type|result)[1-9][0-9]*\b`)

// Categories returns all known categories in a stable order
func Categories() []Category {
	return []Category{Class, Interface, Constructor, Method, Var, Param, Type, DocParam, DocReturn, Annotation}
}

// Counters holds the next number to assign per category for a single masking run.
// It is not safe for concurrent use; every run creates its own.
type Counters struct {
	next map[Category]int
}

// NewCounters creates counters with every category starting at 1
func NewCounters() *Counters {
	c := &Counters{next: make(map[Category]int, len(prefixes)+1)}
	for _, cat := range Categories() {
		c.next[cat] = 1
	}
	return c
}

// Next returns the current number for a category and advances it
func (c *Counters) Next(cat Category) int {
	n, ok := c.next[cat]
	if !ok {
		n = 1
	}
	c.next[cat] = n + 1
	return n
}

// Token returns the next placeholder token for a category, e.g. "Class3"
func (c *Counters) Token(cat Category) string {
	return prefixes[cat] + strconv.Itoa(c.Next(cat))
}

// Issued returns how many numbers have been handed out for a category
func (c *Counters) Issued(cat Category) int {
	n, ok := c.next[cat]
	if !ok {
		return 0
	}
	return n - 1
}

// Snapshot returns the issued count of every category that was used
func (c *Counters) Snapshot() map[Category]int {
	out := make(map[Category]int)
	for cat := range c.next {
		if n := c.Issued(cat); n > 0 {
			out[cat] = n
		}
	}
	return out
}

// IsPlaceholder checks if an identifier is exactly a generated token
func IsPlaceholder(s string) bool {
	loc := tokenPattern.FindStringIndex(s)
	return loc != nil && loc[0] == 0 && loc[1] == len(s)
}

// SortedCategories returns the keys of a snapshot in a stable order
func SortedCategories(snapshot map[Category]int) []Category {
	cats := make([]Category, 0, len(snapshot))
	for cat := range snapshot {
		cats = append(cats, cat)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })
	return cats
}
