// Package lexical detects smells by pattern matching over raw source text.
//
// These detectors are approximate: they never build a syntax tree, so they
// can misread macros, templates and unusual formatting. They never fail on
// malformed input and are pure functions of the file name and text.
package lexical

import (
	"regexp"

	"github.com/panbanda/cppsmell/pkg/models"
)

// Detector finds one kind of smell in a source file.
type Detector interface {
	Kind() models.SmellKind
	Detect(src *Source) []models.Finding
}

// Default returns the lexical detectors in registration order.
func Default(th models.Thresholds) []Detector {
	return []Detector{
		NewLongParameterList(th.Get(models.RuleLongParameterList)),
		NewGlobalVariables(th.Get(models.RuleGlobalVariable)),
		NewDuplicateCode(th.Get(models.RuleDuplicateCodeChars)),
		NewPrimitiveObsession(th.Get(models.RulePrimitiveObsession)),
		NewInappropriateIntimacy(th.Get(models.RuleInappropriateIntimacy)),
		NewComplexCondition(th.Get(models.RuleComplexCondition)),
		NewDeepNesting(th.Get(models.RuleDeepNesting)),
	}
}

// Run applies every detector to src and concatenates the findings in
// detector order.
func Run(src *Source, detectors []Detector) []models.Finding {
	findings := make([]models.Finding, 0)
	for _, d := range detectors {
		findings = append(findings, d.Detect(src)...)
	}
	return findings
}

// signaturePattern matches a function definition head up to its opening
// brace: name, parameter list, trailing qualifiers and an optional
// constructor initializer list.
var signaturePattern = regexp.MustCompile(
	`\b([A-Za-z_]\w*)\s*\(([^(){};]*)\)\s*(?:const\s*)?(?:noexcept\s*)?(?:override\s*)?(?:final\s*)?(?::[^{};]*)?\{`)

var notFunctions = map[string]bool{
	"if": true, "while": true, "for": true, "switch": true, "catch": true,
	"return": true, "sizeof": true, "else": true, "do": true, "alignof": true,
	"decltype": true, "static_assert": true, "defined": true, "__attribute__": true,
}

type signature struct {
	name   string
	params []string
	offset int
}

func signatures(src *Source) []signature {
	var sigs []signature
	for _, m := range signaturePattern.FindAllStringSubmatchIndex(src.Masked, -1) {
		name := src.Masked[m[2]:m[3]]
		if notFunctions[name] {
			continue
		}
		sigs = append(sigs, signature{
			name:   name,
			params: splitParams(src.Masked[m[4]:m[5]]),
			offset: m[2],
		})
	}
	return sigs
}

// splitParams splits a parameter list on top-level commas, ignoring commas
// inside template arguments. A lone "void" means no parameters.
func splitParams(list string) []string {
	var params []string
	depth, start := 0, 0
	flush := func(end int) {
		if p := collapse(list[start:end]); p != "" {
			params = append(params, p)
		}
	}
	for i := 0; i < len(list); i++ {
		switch list[i] {
		case '<', '[', '{':
			depth++
		case '>', ']', '}':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				flush(i)
				start = i + 1
			}
		}
	}
	flush(len(list))

	if len(params) == 1 && params[0] == "void" {
		return nil
	}
	return params
}

func newFinding(src *Source, kind models.SmellKind, line int, entity, desc string, sev models.Severity) models.Finding {
	return models.Finding{
		Kind:        kind,
		File:        src.File,
		Line:        line,
		Excerpt:     models.Excerpt(src.Text, line),
		Entity:      entity,
		Description: desc,
		Suggestion:  kind.Suggestion(),
		Severity:    sev,
	}
}
