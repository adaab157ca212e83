package lexical

import (
	"fmt"
	"regexp"

	"github.com/cespare/xxhash/v2"
	"github.com/panbanda/cppsmell/pkg/models"
)

// bodyPattern matches a braced block with at most two levels of nested
// braces.
const bodyPattern = `\{(?:[^{}]|\{(?:[^{}]|\{[^{}]*\})*\})*\}`

var functionBodyPattern = regexp.MustCompile(
	`\b([A-Za-z_]\w*)\s*\([^(){};]*\)\s*(?:const\s*)?(?:noexcept\s*)?(?:override\s*)?(?:final\s*)?(` + bodyPattern + `)`)

// DuplicateCode flags functions whose whitespace-normalized body repeats an
// earlier function's body in the same file. Each repeat is reported once,
// against the first occurrence.
type DuplicateCode struct {
	threshold models.Threshold
}

// NewDuplicateCode creates a duplicate-body detector.
func NewDuplicateCode(th models.Threshold) *DuplicateCode {
	return &DuplicateCode{threshold: th}
}

// Kind implements Detector.
func (d *DuplicateCode) Kind() models.SmellKind { return models.SmellDuplicateCode }

type bodyOccurrence struct {
	name string
	line int
	body string
}

// Detect implements Detector.
func (d *DuplicateCode) Detect(src *Source) []models.Finding {
	var findings []models.Finding
	seen := make(map[uint64][]bodyOccurrence)

	for _, m := range functionBodyPattern.FindAllStringSubmatchIndex(src.Masked, -1) {
		name := src.Masked[m[2]:m[3]]
		if notFunctions[name] {
			continue
		}

		body := collapse(src.Stripped[m[4]:m[5]])
		if !d.threshold.Exceeded(len(body)) {
			continue
		}

		line := src.LineAt(m[2])
		key := xxhash.Sum64String(body)

		var first *bodyOccurrence
		for i := range seen[key] {
			if seen[key][i].body == body {
				first = &seen[key][i]
				break
			}
		}
		if first == nil {
			seen[key] = append(seen[key], bodyOccurrence{name: name, line: line, body: body})
			continue
		}

		f := newFinding(src, models.SmellDuplicateCode, line, name,
			fmt.Sprintf("Function %q duplicates the body of %q at line %d (%d normalized characters)",
				name, first.name, first.line, len(body)),
			d.threshold.Severity(len(body)))
		findings = append(findings, f)
	}
	return findings
}
