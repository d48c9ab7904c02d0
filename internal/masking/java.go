package masking

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/hfi/secure-mask/pkg/placeholder"
)

// genericClause matches a type argument list such as <K, List<V>> or <T extends Foo>
const genericClause = `<(?:[\w$.?\[\]&<>]|,\s*|\s+(?:extends|super)\s+)*>`

// javaType matches a possibly qualified, generic or array type
const javaType = `[A-Za-z_$][\w$.]*(?:` + genericClause + `)?(?:\[\])*`

// paramList matches a parameter list body, allowing annotation arguments one level deep
const paramList = `((?:[^()]|\([^()]*\))*)`

var javaMatchers = []matcherDef{
	{
		name:        "type_name",
		pattern:     `\b([A-Z][\w$]*(?:` + genericClause + `)?)(\s+)`,
		description: "Capitalized identifier followed by whitespace",
	},
	{
		name:        "javadoc",
		pattern:     `(?s)/\*\*.*?\*/`,
		description: "Javadoc comment block",
	},
	{
		name:        "doc_param",
		pattern:     `@param[ \t]+(<?[\w$]+>?)`,
		description: "@param tag inside a doc block",
	},
	{
		name:        "doc_label",
		pattern:     `(?m)^([ \t]*\*?[ \t]*)(引数|パラメータ|Parameter|Param|Argument|Arg)([ \t]*[:：][ \t]*)([\w$]+)`,
		description: "Descriptive parameter label line inside a doc block",
	},
	{
		name:        "doc_return",
		pattern:     `@return[ \t]+(\S+)`,
		description: "@return tag inside a doc block",
	},
	{
		name:        "field",
		pattern:     `\b((?:public|private|protected)(?:\s+static)?)(\s+final)?\s+(` + javaType + `)\s+([A-Za-z_$][\w$]*)\s*;`,
		description: "modifier [final] Type name;",
	},
	{
		name:        "field_access",
		pattern:     `\bthis\.([A-Za-z_$][\w$]*)((?:\.[A-Za-z_$][\w$]*)*)(\s*[(;=])`,
		description: "this.name( / this.name; / this.name = and dotted chains",
	},
	{
		name:        "route_annotation",
		pattern:     `@(GetMapping|PostMapping|PutMapping|DeleteMapping|PatchMapping|RequestMapping)\s*\(\s*((?:value|path)\s*=\s*)?"([^"]+)"\s*\)`,
		description: "Web framework route annotation with a path literal",
	},
	{
		name: "declaration",
		pattern: `\b(class|interface|enum)(\s+)([A-Z][\w$]*)(\s*` + genericClause + `)?` +
			`(\s+extends\s+[^{;]+?)?(?:\s+implements\s+([^{;]+?))?(\s*)\{`,
		description: "class|interface|enum Name<T> [extends X] [implements A, B] {",
	},
	{
		name:        "constructor",
		pattern:     `\b(public|protected|private)(\s+)([A-Z][\w$]*)\s*\(` + paramList + `\)(\s*throws\s+[^{;]+?)?\s*\{`,
		description: "modifier Name(params) {",
	},
	{
		name: "method",
		pattern: `\b(public|private|protected|static|final|synchronized|abstract|default|native)(\s+)` +
			`([\w$<>\[\],.?&\s]+)\s+([A-Za-z_$][\w$]*)\s*\(` + paramList + `\)(\s*throws\s+[^{;]+?)?\s*\{`,
		description: "modifiers ReturnType name(params) {",
	},
	{
		name:        "param_annotation",
		pattern:     `@(RequestParam|PathVariable|RequestHeader)(\s*\([^)]*\))?\s+(final\s+)?(` + javaType + `)\s+([A-Za-z_$][\w$]*)`,
		description: "@RequestParam Type name",
	},
	{
		name: "variable",
		pattern: `\b((?:[a-z_$][\w$]*\.)*[A-Z][\w$]*(?:\.[A-Z][\w$]*)*(?:` + genericClause + `)?(?:\[\])*` +
			`|(?:boolean|byte|char|short|int|long|float|double|var)(?:\[\])*)` +
			`\s+([A-Za-z_$][\w$]*)(\s*)(==|=|;)`,
		description: "Type name = / Type name;",
	},
}

// javaPasses is the pipeline order. Later passes expect the output of earlier ones.
var javaPasses = []Pass{
	{Name: "type_names", Matcher: "type_name", Replace: maskTypeName, Optional: true},
	{Name: "javadoc", Matcher: "javadoc", Replace: maskJavadoc},
	{Name: "fields", Matcher: "field", Replace: maskField},
	{Name: "field_access", Matcher: "field_access", Replace: maskFieldAccess},
	{Name: "route_annotations", Matcher: "route_annotation", Replace: maskRouteAnnotation},
	{Name: "declarations", Matcher: "declaration", Replace: maskDeclaration},
	{Name: "constructors", Matcher: "constructor", Replace: maskConstructor},
	{Name: "methods", Matcher: "method", Replace: maskMethod},
	{Name: "param_annotations", Matcher: "param_annotation", Replace: maskParamAnnotation},
	{Name: "variables", Matcher: "variable", Replace: maskVariable},
}

func maskTypeName(m Match, r *Run) string {
	switch m.Preceding() {
	case '@', '.':
		return m.Group(0)
	}
	if placeholder.IsPlaceholder(m.Group(1)) {
		return m.Group(0)
	}
	return r.Counters.Token(placeholder.Type) + m.Group(2)
}

// maskJavadoc rewrites tags only inside the matched block
func maskJavadoc(m Match, r *Run) string {
	block := m.Group(0)

	block = r.replace("doc_param", block, func(Match) string {
		return "@param " + r.Counters.Token(placeholder.DocParam)
	})
	block = r.replace("doc_label", block, func(l Match) string {
		return l.Group(1) + l.Group(2) + l.Group(3) + r.Counters.Token(placeholder.DocParam)
	})
	block = r.replace("doc_return", block, func(Match) string {
		return "@return " + r.Counters.Token(placeholder.DocReturn)
	})

	return block
}

func maskField(m Match, r *Run) string {
	if placeholder.IsPlaceholder(m.Group(4)) {
		return m.Group(0)
	}

	var b strings.Builder
	b.WriteString(m.Group(1))
	if m.Group(2) != "" {
		b.WriteString(" final")
	}
	b.WriteString(" ")
	b.WriteString(r.Counters.Token(placeholder.Type))
	b.WriteString(" ")
	b.WriteString(r.Counters.Token(placeholder.Var))
	b.WriteString(";")
	return b.String()
}

// maskFieldAccess assigns a new number per occurrence, never per field name
func maskFieldAccess(m Match, r *Run) string {
	if placeholder.IsPlaceholder(m.Group(1)) {
		return m.Group(0)
	}
	return "this." + r.Counters.Token(placeholder.Var) + m.Group(2) + m.Group(3)
}

func maskRouteAnnotation(m Match, r *Run) string {
	annotation := m.Group(1)
	path := "/" + strings.ToLower(annotation) + strconv.Itoa(r.Counters.Next(placeholder.Annotation))
	return "@" + annotation + "(" + m.Group(2) + `"` + path + `")`
}

func maskDeclaration(m Match, r *Run) string {
	var b strings.Builder
	b.WriteString(m.Group(1))
	b.WriteString(m.Group(2))
	b.WriteString(r.Counters.Token(placeholder.Class))
	b.WriteString(m.Group(4))
	b.WriteString(m.Group(5))

	if list := m.Group(6); list != "" {
		var names []string
		for _, name := range splitTopLevel(list, ',') {
			if strings.TrimSpace(name) == "" {
				continue
			}
			names = append(names, r.Counters.Token(placeholder.Interface))
		}
		b.WriteString(" implements ")
		b.WriteString(strings.Join(names, ", "))
	}

	b.WriteString(m.Group(7))
	b.WriteString("{")
	return b.String()
}

func maskConstructor(m Match, r *Run) string {
	name := r.Counters.Token(placeholder.Constructor)
	params := maskParams(m.Group(4), r)
	return m.Group(1) + m.Group(2) + name + "(" + params + ")" + m.Group(5) + " {"
}

// maskMethod keeps modifiers, return type, parameters and throws clause verbatim
func maskMethod(m Match, r *Run) string {
	name := r.Counters.Token(placeholder.Method)
	return m.Group(1) + m.Group(2) + m.Group(3) + " " + name + "(" + m.Group(5) + ")" + m.Group(6) + " {"
}

func maskParamAnnotation(m Match, r *Run) string {
	if placeholder.IsPlaceholder(m.Group(5)) {
		return m.Group(0)
	}
	return "@" + m.Group(1) + m.Group(2) + " " + m.Group(3) + m.Group(4) + " " + r.Counters.Token(placeholder.Param)
}

// maskVariable is the catch-all; anything an earlier pass produced is left alone
func maskVariable(m Match, r *Run) string {
	name := m.Group(2)
	if m.Group(4) == "==" || placeholder.IsPlaceholder(name) || name == "instanceof" {
		return m.Group(0)
	}
	typ := r.Counters.Token(placeholder.Type)
	v := r.Counters.Token(placeholder.Var)
	return typ + " " + v + m.Group(3) + m.Group(4)
}

// maskParams rewrites "A a, final B b" to "Type1 var1, final Type2 var2"
func maskParams(list string, r *Run) string {
	if strings.TrimSpace(list) == "" {
		return list
	}

	parts := splitTopLevel(list, ',')
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, maskParam(p, r))
	}
	return strings.Join(out, ", ")
}

func maskParam(p string, r *Run) string {
	idx := strings.LastIndexFunc(p, unicode.IsSpace)
	if idx < 0 {
		return p
	}

	mods, typ := splitParamModifiers(strings.TrimSpace(p[:idx]))
	if typ == "" {
		return p
	}

	varargs := ""
	if strings.HasSuffix(typ, "...") {
		varargs = "..."
	}

	masked := r.Counters.Token(placeholder.Type) + varargs + " " + r.Counters.Token(placeholder.Var)
	if len(mods) == 0 {
		return masked
	}
	return strings.Join(mods, " ") + " " + masked
}

// splitParamModifiers peels leading annotations and "final" off a parameter head
func splitParamModifiers(head string) ([]string, string) {
	var mods []string
	for {
		if strings.HasPrefix(head, "@") {
			end := annotationEnd(head)
			if end >= len(head) {
				return mods, ""
			}
			mods = append(mods, head[:end])
			head = strings.TrimSpace(head[end:])
			continue
		}
		if rest, ok := strings.CutPrefix(head, "final"); ok && rest != "" && unicode.IsSpace(rune(rest[0])) {
			mods = append(mods, "final")
			head = strings.TrimSpace(rest)
			continue
		}
		break
	}
	return mods, head
}

// annotationEnd returns the index just past an annotation at the start of s,
// including a parenthesized argument list
func annotationEnd(s string) int {
	i := 1
	for i < len(s) && (s[i] == '.' || s[i] == '_' || s[i] == '$' || isAlnum(s[i])) {
		i++
	}

	j := i
	for j < len(s) && unicode.IsSpace(rune(s[j])) {
		j++
	}
	if j >= len(s) || s[j] != '(' {
		return i
	}

	depth := 0
	for ; j < len(s); j++ {
		switch s[j] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return j + 1
			}
		}
	}
	return len(s)
}

func isAlnum(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}
