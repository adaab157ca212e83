package models

import (
	"fmt"
	"strings"
)

// SmellKind identifies one kind of code smell. The set is closed.
type SmellKind string

const (
	SmellLongFunction          SmellKind = "LongFunction"
	SmellLargeClass            SmellKind = "LargeClass"
	SmellDuplicateCode         SmellKind = "DuplicateCode"
	SmellPrimitiveObsession    SmellKind = "PrimitiveObsession"
	SmellLongParameterList     SmellKind = "LongParameterList"
	SmellInappropriateIntimacy SmellKind = "InappropriateIntimacy"
	SmellGlobalVariables       SmellKind = "GlobalVariables"
	SmellComplexCondition      SmellKind = "ComplexCondition"
	SmellDeepNesting           SmellKind = "DeepNesting"
)

// AllSmellKinds returns every smell kind in a fixed order.
func AllSmellKinds() []SmellKind {
	return []SmellKind{
		SmellLongFunction,
		SmellLargeClass,
		SmellDuplicateCode,
		SmellPrimitiveObsession,
		SmellLongParameterList,
		SmellInappropriateIntimacy,
		SmellGlobalVariables,
		SmellComplexCondition,
		SmellDeepNesting,
	}
}

// Valid reports whether k is one of the known smell kinds.
func (k SmellKind) Valid() bool {
	for _, known := range AllSmellKinds() {
		if k == known {
			return true
		}
	}
	return false
}

// Label returns a human-readable name ("Long Function").
func (k SmellKind) Label() string {
	var b strings.Builder
	for i, r := range string(k) {
		if i > 0 && r >= 'A' && r <= 'Z' {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Suggestion returns the default refactoring guidance for the smell.
func (k SmellKind) Suggestion() string {
	switch k {
	case SmellLongFunction:
		return "Extract cohesive blocks into well-named helper functions."
	case SmellLargeClass:
		return "Split the class along its responsibilities (Extract Class)."
	case SmellDuplicateCode:
		return "Extract the shared body into a single function and call it from both places."
	case SmellPrimitiveObsession:
		return "Introduce small value types for domain concepts instead of raw primitives."
	case SmellLongParameterList:
		return "Group related parameters into a struct or introduce a parameter object."
	case SmellInappropriateIntimacy:
		return "Move the behavior next to the data it uses or hide it behind methods on the accessed object."
	case SmellGlobalVariables:
		return "Encapsulate the state in a class or pass it explicitly; mark true constants const or constexpr."
	case SmellComplexCondition:
		return "Extract the condition into a named predicate function or explanatory variables."
	case SmellDeepNesting:
		return "Use guard clauses and early returns, or extract nested blocks into functions."
	default:
		return ""
	}
}

// Severity is the impact level of a finding.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// AllSeverities returns every severity from lowest to highest.
func AllSeverities() []Severity {
	return []Severity{SeverityLow, SeverityMedium, SeverityHigh}
}

// Weight returns a numeric weight for sorting (higher = more severe).
func (s Severity) Weight() int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// AtLeast reports whether s is as severe as min.
func (s Severity) AtLeast(min Severity) bool {
	return s.Weight() >= min.Weight()
}

// ParseSeverity converts a string to a Severity.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return SeverityLow, nil
	case "medium", "med":
		return SeverityMedium, nil
	case "high":
		return SeverityHigh, nil
	default:
		return "", fmt.Errorf("unknown severity %q (want low, medium or high)", s)
	}
}

// MaxSeverity returns the more severe of a and b.
func MaxSeverity(a, b Severity) Severity {
	if b.Weight() > a.Weight() {
		return b
	}
	return a
}

// Finding is one detected smell. Findings are created by a detector and
// never modified afterwards.
type Finding struct {
	ID          string    `json:"id"`
	Kind        SmellKind `json:"type"`
	File        string    `json:"file"`
	Line        int       `json:"line"`
	EndLine     int       `json:"end_line,omitempty"`
	Excerpt     string    `json:"code_snippet"`
	Entity      string    `json:"entity"`
	Description string    `json:"description"`
	Suggestion  string    `json:"suggestion"`
	Severity    Severity  `json:"severity"`
	Metrics     *Metrics  `json:"metrics,omitempty"`
}
