package models

import (
	"fmt"
	"sort"
)

// Rule names one tunable detector threshold.
type Rule string

const (
	RuleLongFunctionLines     Rule = "long_function_lines"
	RuleLargeClassLines       Rule = "large_class_lines"
	RuleLargeClassMethods     Rule = "large_class_methods"
	RuleLongParameterList     Rule = "long_parameter_list"
	RuleGlobalVariable        Rule = "global_variable"
	RuleDuplicateCodeChars    Rule = "duplicate_code_chars"
	RulePrimitiveObsession    Rule = "primitive_obsession"
	RuleInappropriateIntimacy Rule = "inappropriate_intimacy"
	RuleComplexCondition      Rule = "complex_condition"
	RuleDeepNesting           Rule = "deep_nesting"
)

// AllRules returns every rule in a fixed order.
func AllRules() []Rule {
	return []Rule{
		RuleLongFunctionLines,
		RuleLargeClassLines,
		RuleLargeClassMethods,
		RuleLongParameterList,
		RuleGlobalVariable,
		RuleDuplicateCodeChars,
		RulePrimitiveObsession,
		RuleInappropriateIntimacy,
		RuleComplexCondition,
		RuleDeepNesting,
	}
}

// Threshold maps a measured value to a reporting decision and a severity.
// A value is reported when it exceeds Trigger. It is high when it exceeds
// High, medium when it exceeds Medium, and Base otherwise. A zero Medium or
// High disables that tier.
type Threshold struct {
	Trigger int      `koanf:"trigger" toml:"trigger" json:"trigger" yaml:"trigger"`
	Medium  int      `koanf:"medium" toml:"medium" json:"medium" yaml:"medium"`
	High    int      `koanf:"high" toml:"high" json:"high" yaml:"high"`
	Base    Severity `koanf:"base" toml:"base" json:"base" yaml:"base"`
}

// Exceeded reports whether v should produce a finding.
func (t Threshold) Exceeded(v int) bool {
	return v > t.Trigger
}

// Severity returns the severity for a reported value.
func (t Threshold) Severity(v int) Severity {
	switch {
	case t.High > 0 && v > t.High:
		return SeverityHigh
	case t.Medium > 0 && v > t.Medium:
		return SeverityMedium
	default:
		return t.Base
	}
}

// Validate checks that the tiers are ordered and the base severity is known.
func (t Threshold) Validate() error {
	if t.Trigger < 0 || t.Medium < 0 || t.High < 0 {
		return fmt.Errorf("negative bound in %+v", t)
	}
	if t.Medium > 0 && t.Medium < t.Trigger {
		return fmt.Errorf("medium bound %d below trigger %d", t.Medium, t.Trigger)
	}
	if t.High > 0 && t.High < t.Trigger {
		return fmt.Errorf("high bound %d below trigger %d", t.High, t.Trigger)
	}
	if t.High > 0 && t.Medium > 0 && t.High < t.Medium {
		return fmt.Errorf("high bound %d below medium bound %d", t.High, t.Medium)
	}
	if _, err := ParseSeverity(string(t.Base)); err != nil {
		return fmt.Errorf("base: %w", err)
	}
	return nil
}

// Thresholds is the full threshold table keyed by rule.
type Thresholds map[Rule]Threshold

// DefaultThresholds returns the built-in threshold table.
func DefaultThresholds() Thresholds {
	return Thresholds{
		RuleLongFunctionLines:     {Trigger: 20, Medium: 30, High: 40, Base: SeverityLow},
		RuleLargeClassLines:       {Trigger: 200, High: 500, Base: SeverityMedium},
		RuleLargeClassMethods:     {Trigger: 10, High: 20, Base: SeverityMedium},
		RuleLongParameterList:     {Trigger: 4, Medium: 5, High: 7, Base: SeverityLow},
		RuleGlobalVariable:        {Base: SeverityMedium},
		RuleDuplicateCodeChars:    {Trigger: 100, Base: SeverityHigh},
		RulePrimitiveObsession:    {Trigger: 1, Base: SeverityMedium},
		RuleInappropriateIntimacy: {Trigger: 5, High: 10, Base: SeverityMedium},
		RuleComplexCondition:      {Trigger: 3, High: 5, Base: SeverityMedium},
		RuleDeepNesting:           {Trigger: 3, High: 4, Base: SeverityMedium},
	}
}

// Get returns the threshold for r, falling back to the default when the
// table has no entry.
func (t Thresholds) Get(r Rule) Threshold {
	if th, ok := t[r]; ok {
		return th
	}
	return DefaultThresholds()[r]
}

// Merge returns a copy of t with every entry of overrides applied.
func (t Thresholds) Merge(overrides Thresholds) Thresholds {
	out := make(Thresholds, len(t)+len(overrides))
	for r, th := range t {
		out[r] = th
	}
	for r, th := range overrides {
		out[r] = th
	}
	return out
}

// Validate checks every entry and rejects unknown rules.
func (t Thresholds) Validate() error {
	known := make(map[Rule]bool)
	for _, r := range AllRules() {
		known[r] = true
	}

	rules := make([]string, 0, len(t))
	for r := range t {
		rules = append(rules, string(r))
	}
	sort.Strings(rules)

	for _, name := range rules {
		r := Rule(name)
		if !known[r] {
			return fmt.Errorf("unknown threshold rule %q", name)
		}
		if err := t[r].Validate(); err != nil {
			return fmt.Errorf("threshold %s: %w", name, err)
		}
	}
	return nil
}
