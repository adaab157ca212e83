// Package structural detects smells that need a syntax tree: long
// functions and large classes.
package structural

import (
	"fmt"

	"github.com/panbanda/cppsmell/pkg/analyzer/metrics"
	"github.com/panbanda/cppsmell/pkg/ast"
	"github.com/panbanda/cppsmell/pkg/models"
)

// Unit is one parsed translation unit handed to every detector.
type Unit struct {
	File    string
	Source  string
	Root    ast.Node
	Metrics *metrics.Calculator
}

// NewUnit builds a Unit from a parsed tree.
func NewUnit(file string, tree ast.Tree) *Unit {
	root := tree.Root()
	return &Unit{
		File:    file,
		Source:  string(tree.Source()),
		Root:    root,
		Metrics: metrics.New(root),
	}
}

// Detector finds one kind of smell in a unit. Detectors hold no mutable
// state and are safe for concurrent use.
type Detector interface {
	Kind() models.SmellKind
	Detect(u *Unit) []models.Finding
}

// Default returns the tree-based detectors in registration order.
func Default(th models.Thresholds) []Detector {
	return []Detector{
		NewLongFunction(th.Get(models.RuleLongFunctionLines)),
		NewLargeClass(th.Get(models.RuleLargeClassLines), th.Get(models.RuleLargeClassMethods)),
	}
}

// Run applies every detector to u and concatenates the findings in
// detector order.
func Run(u *Unit, detectors []Detector) []models.Finding {
	findings := make([]models.Finding, 0)
	for _, d := range detectors {
		findings = append(findings, d.Detect(u)...)
	}
	return findings
}

// LongFunction flags function bodies longer than the threshold.
type LongFunction struct {
	threshold models.Threshold
}

// NewLongFunction creates a long-function detector.
func NewLongFunction(th models.Threshold) *LongFunction {
	return &LongFunction{threshold: th}
}

// Kind implements Detector.
func (d *LongFunction) Kind() models.SmellKind { return models.SmellLongFunction }

// Detect implements Detector.
func (d *LongFunction) Detect(u *Unit) []models.Finding {
	var findings []models.Finding
	for _, fn := range ast.FindAll(u.Root, "function_definition") {
		body := fn.Field("body")
		if body == nil {
			continue
		}
		lines := ast.LineCount(body.Text())
		if !d.threshold.Exceeded(lines) {
			continue
		}

		name := metrics.FunctionName(fn)
		if name == "" {
			name = "<anonymous>"
		}
		m := models.FunctionMetrics(metrics.Complexity(fn), lines, metrics.Coupling(fn))
		line := fn.StartLine()

		findings = append(findings, models.Finding{
			Kind:        models.SmellLongFunction,
			File:        u.File,
			Line:        line,
			EndLine:     line + lines,
			Excerpt:     models.Excerpt(u.Source, line),
			Entity:      name,
			Description: fmt.Sprintf("Function %q has %d lines (threshold %d)", name, lines, d.threshold.Trigger),
			Suggestion:  models.SmellLongFunction.Suggestion(),
			Severity:    d.threshold.Severity(lines),
			Metrics:     &m,
		})
	}
	return findings
}

// LargeClass flags classes and structs whose body is too long or that
// define too many methods. Severity is the higher of the two measurements.
type LargeClass struct {
	lines   models.Threshold
	methods models.Threshold
}

// NewLargeClass creates a large-class detector.
func NewLargeClass(lines, methods models.Threshold) *LargeClass {
	return &LargeClass{lines: lines, methods: methods}
}

// Kind implements Detector.
func (d *LargeClass) Kind() models.SmellKind { return models.SmellLargeClass }

// Detect implements Detector.
func (d *LargeClass) Detect(u *Unit) []models.Finding {
	var findings []models.Finding
	for _, cls := range ast.FindAll(u.Root, "class_specifier", "struct_specifier") {
		body := cls.Field("body")
		if body == nil {
			continue
		}
		lines := ast.LineCount(body.Text())
		methods := metrics.MethodCount(cls)

		tooLong := d.lines.Exceeded(lines)
		tooMany := d.methods.Exceeded(methods)
		if !tooLong && !tooMany {
			continue
		}

		var severity models.Severity
		if tooLong {
			severity = d.lines.Severity(lines)
		}
		if tooMany {
			severity = models.MaxSeverity(severity, d.methods.Severity(methods))
		}

		name := metrics.ClassName(cls)
		if name == "" {
			name = "<anonymous>"
		}
		m := u.Metrics.Compute(cls)
		line := cls.StartLine()

		findings = append(findings, models.Finding{
			Kind:    models.SmellLargeClass,
			File:    u.File,
			Line:    line,
			EndLine: cls.EndLine(),
			Excerpt: models.Excerpt(u.Source, line),
			Entity:  name,
			Description: fmt.Sprintf("Class %q has %d lines and %d methods (thresholds %d lines, %d methods)",
				name, lines, methods, d.lines.Trigger, d.methods.Trigger),
			Suggestion: models.SmellLargeClass.Suggestion(),
			Severity:   severity,
			Metrics:    &m,
		})
	}
	return findings
}
