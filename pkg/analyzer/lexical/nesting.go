package lexical

import (
	"fmt"

	"github.com/panbanda/cppsmell/pkg/models"
)

// DeepNesting flags top-level brace runs whose nesting gets too deep. A run
// starts when the depth leaves zero and ends when it returns to zero; each
// run yields at most one finding, placed at the line of its deepest point.
type DeepNesting struct {
	threshold models.Threshold
}

// NewDeepNesting creates a deep-nesting detector.
func NewDeepNesting(th models.Threshold) *DeepNesting {
	return &DeepNesting{threshold: th}
}

// Kind implements Detector.
func (d *DeepNesting) Kind() models.SmellKind { return models.SmellDeepNesting }

// Detect implements Detector.
func (d *DeepNesting) Detect(src *Source) []models.Finding {
	var findings []models.Finding
	text := src.Masked

	depth, runMax, runLine, line := 0, 0, 0, 1
	emit := func() {
		if d.threshold.Exceeded(runMax) {
			findings = append(findings, newFinding(src, models.SmellDeepNesting, runLine,
				fmt.Sprintf("depth %d", runMax),
				fmt.Sprintf("Code is nested %d levels deep (threshold %d)", runMax, d.threshold.Trigger),
				d.threshold.Severity(runMax)))
		}
		runMax, runLine = 0, 0
	}

	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\n':
			line++
		case '{':
			depth++
			if depth > runMax {
				runMax, runLine = depth, line
			}
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 {
				emit()
			}
		}
	}
	// unterminated run at end of file
	if depth > 0 {
		emit()
	}
	return findings
}
