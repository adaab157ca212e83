package lexical

import (
	"fmt"
	"regexp"

	"github.com/panbanda/cppsmell/pkg/models"
)

var ifPattern = regexp.MustCompile(`\bif\s*(?:constexpr\s*)?\(`)

// operatorPattern lists longer tokens first so shifts, compound shifts and
// arrows are consumed whole and can be skipped.
var operatorPattern = regexp.MustCompile(`<<=|>>=|<=>|&&|\|\||==|!=|<=|>=|->|<<|>>|<|>|\band\b|\bor\b`)

var conditionOperators = map[string]bool{
	"&&": true, "||": true, "and": true, "or": true,
	"==": true, "!=": true, "<=": true, ">=": true, "<": true, ">": true,
}

// ComplexCondition flags if-conditions with too many logical and relational
// operators.
type ComplexCondition struct {
	threshold models.Threshold
}

// NewComplexCondition creates a complex-condition detector.
func NewComplexCondition(th models.Threshold) *ComplexCondition {
	return &ComplexCondition{threshold: th}
}

// Kind implements Detector.
func (d *ComplexCondition) Kind() models.SmellKind { return models.SmellComplexCondition }

// Detect implements Detector.
func (d *ComplexCondition) Detect(src *Source) []models.Finding {
	var findings []models.Finding
	text := src.Masked

	for _, m := range ifPattern.FindAllStringIndex(text, -1) {
		open := m[1] - 1
		end := matchClose(text, open)
		if end < 0 {
			continue
		}
		cond := text[open+1 : end]
		n := countOperators(cond)
		if !d.threshold.Exceeded(n) {
			continue
		}

		entity := models.Truncate(collapse(src.Stripped[open+1:end]), 60)
		findings = append(findings, newFinding(src, models.SmellComplexCondition, src.LineAt(m[0]), entity,
			fmt.Sprintf("Condition has %d logical/relational operators (threshold %d)", n, d.threshold.Trigger),
			d.threshold.Severity(n)))
	}
	return findings
}

func countOperators(cond string) int {
	n := 0
	for _, op := range operatorPattern.FindAllString(cond, -1) {
		if conditionOperators[op] {
			n++
		}
	}
	return n
}
