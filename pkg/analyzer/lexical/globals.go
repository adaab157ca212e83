package lexical

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/panbanda/cppsmell/pkg/models"
)

// declarationPattern matches a simple variable declaration starting a line:
// optional qualifiers, a type, a name, optional array bounds and an optional
// initializer or further declarators, ending in a semicolon.
var declarationPattern = regexp.MustCompile(
	`(?m)^[ \t]*((?:(?:static|extern|const|constexpr|volatile|unsigned|signed|long|short|inline|thread_local|mutable)\s+)*` +
		`([A-Za-z_][\w:]*)(?:\s*<[^;{}()]*>)?[\s*&]+)` +
		`([A-Za-z_]\w*)\s*(?:\[[^\]\n]*\]\s*)*(?:[=,][^;{}]*(?:\{[^{}]*\}[^;{}]*)?)?;`)

var notTypes = map[string]bool{
	"return": true, "using": true, "typedef": true, "namespace": true,
	"class": true, "struct": true, "enum": true, "union": true,
	"template": true, "friend": true, "goto": true, "case": true,
	"delete": true, "throw": true, "else": true, "break": true,
	"continue": true, "public": true, "private": true, "protected": true,
	"co_return": true, "co_yield": true, "new": true, "operator": true,
}

// GlobalVariables flags variable declarations at file scope (brace depth
// zero). Declarations inside namespaces are not file scope here.
type GlobalVariables struct {
	threshold models.Threshold
}

// NewGlobalVariables creates a global-variable detector.
func NewGlobalVariables(th models.Threshold) *GlobalVariables {
	return &GlobalVariables{threshold: th}
}

// Kind implements Detector.
func (d *GlobalVariables) Kind() models.SmellKind { return models.SmellGlobalVariables }

// Detect implements Detector.
func (d *GlobalVariables) Detect(src *Source) []models.Finding {
	var findings []models.Finding
	text := src.Masked

	depth, scanned := 0, 0
	for _, m := range declarationPattern.FindAllStringSubmatchIndex(text, -1) {
		start := m[0]
		depth = braceDepth(text[scanned:start], depth)
		scanned = start
		if depth != 0 {
			continue
		}

		typ := text[m[4]:m[5]]
		name := text[m[6]:m[7]]
		if notTypes[typ] || notTypes[name] {
			continue
		}
		if !d.threshold.Exceeded(1) {
			continue
		}

		decl := collapse(text[m[2]:m[3]] + name)
		findings = append(findings, newFinding(src, models.SmellGlobalVariables, src.LineAt(m[6]), name,
			fmt.Sprintf("Global variable %q declared as %q", name, strings.TrimSpace(decl)),
			d.threshold.Severity(1)))
	}
	return findings
}

// braceDepth advances a running brace depth over text. Stray closing braces
// never push the depth below zero.
func braceDepth(text string, depth int) int {
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
		}
	}
	return depth
}
