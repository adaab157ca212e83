package models

// Metrics are the six quality metrics of one analyzable unit (a file, a
// function or a class).
type Metrics struct {
	// Base 1 plus one per decision point.
	CyclomaticComplexity int `json:"cyclomatic_complexity"`

	LinesOfCode int `json:"lines_of_code"`

	// Function definitions at or below the unit.
	MethodCount int `json:"method_count"`

	// Longest base-class chain; 0 without inheritance.
	InheritanceDepth int `json:"inheritance_depth"`

	// Distinct non-std symbol roots referenced.
	CouplingCount int `json:"coupling_count"`

	// Share of method pairs that touch a common field, in [0,1].
	CohesionScore float64 `json:"cohesion_score"`
}

// FunctionMetrics returns the metrics snapshot attached to a single function:
// one method, no inheritance, trivially cohesive.
func FunctionMetrics(complexity, lines, coupling int) Metrics {
	return Metrics{
		CyclomaticComplexity: complexity,
		LinesOfCode:          lines,
		MethodCount:          1,
		InheritanceDepth:     0,
		CouplingCount:        coupling,
		CohesionScore:        1,
	}
}

// AverageMetrics holds per-field means across a corpus.
type AverageMetrics struct {
	CyclomaticComplexity float64 `json:"cyclomatic_complexity"`
	LinesOfCode          float64 `json:"lines_of_code"`
	MethodCount          float64 `json:"method_count"`
	InheritanceDepth     float64 `json:"inheritance_depth"`
	CouplingCount        float64 `json:"coupling_count"`
	CohesionScore        float64 `json:"cohesion_score"`
}
