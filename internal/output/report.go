package output

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/panbanda/cppsmell/pkg/models"
)

// ReportOptions controls what a smell report contains.
type ReportOptions struct {
	// Summary drops the per-file and per-finding listings.
	Summary bool
	// MinSeverity hides findings below it. Stats are never filtered.
	MinSeverity models.Severity
	// Ref names the git revision analyzed, if any.
	Ref string
}

// FileEntry is the per-file part of a report.
type FileEntry struct {
	FileName   string         `json:"file_name"`
	Language   string         `json:"language"`
	SmellCount int            `json:"smell_count"`
	Metrics    models.Metrics `json:"metrics"`
	Failed     bool           `json:"failed,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// ReportData is the structured form of a smell report.
type ReportData struct {
	Ref     string             `json:"ref,omitempty"`
	Summary models.CorpusStats `json:"summary"`
	Files   []FileEntry        `json:"files,omitempty"`
	Smells  []models.Finding   `json:"smells,omitempty"`
}

// SortFindings orders findings by file then line, keeping detector order
// for findings on the same line.
func SortFindings(findings []models.Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		if findings[i].File != findings[j].File {
			return findings[i].File < findings[j].File
		}
		return findings[i].Line < findings[j].Line
	})
}

// FilterFindings returns the findings of results at or above min, sorted.
// An empty min keeps everything.
func FilterFindings(results []models.FileResult, min models.Severity) []models.Finding {
	var out []models.Finding
	for _, r := range results {
		for _, f := range r.Findings {
			if min == "" || f.Severity.AtLeast(min) {
				out = append(out, f)
			}
		}
	}
	SortFindings(out)
	return out
}

// NewReportData assembles the structured report.
func NewReportData(stats models.CorpusStats, results []models.FileResult, opts ReportOptions) ReportData {
	data := ReportData{Ref: opts.Ref, Summary: stats}
	if opts.Summary {
		return data
	}

	data.Files = make([]FileEntry, 0, len(results))
	for _, r := range results {
		data.Files = append(data.Files, FileEntry{
			FileName:   r.FileName,
			Language:   r.Language,
			SmellCount: len(r.Findings),
			Metrics:    r.Metrics,
			Failed:     r.Failed,
			Error:      r.Error,
		})
	}
	data.Smells = FilterFindings(results, opts.MinSeverity)
	return data
}

// NewSmellReport builds the renderable smell report.
func NewSmellReport(stats models.CorpusStats, results []models.FileResult, opts ReportOptions) *Report {
	data := NewReportData(stats, results, opts)

	summary := fmt.Sprintf("Files analyzed: %d (%d failed)\nTotal smells: %d\nTotal lines: %d",
		stats.TotalFiles, stats.FailedFiles, stats.TotalSmells, stats.TotalLines)
	if opts.Ref != "" {
		summary = "Revision: " + opts.Ref + "\n" + summary
	}

	sections := []Renderable{
		&Section{Title: "Summary", Content: summary},
		byTypeTable(stats),
		bySeverityTable(stats),
		worstFilesTable(stats),
		averagesTable(stats),
	}

	if !opts.Summary {
		if failed := failedTable(results); failed != nil {
			sections = append(sections, failed)
		}
		sections = append(sections, findingsTable(data.Smells, opts.MinSeverity))
	}

	return &Report{
		Title:    "C/C++ Code Smell Report",
		Sections: sections,
		Data:     data,
	}
}

func byTypeTable(stats models.CorpusStats) *Table {
	rows := make([][]string, 0, len(models.AllSmellKinds()))
	for _, k := range models.AllSmellKinds() {
		rows = append(rows, []string{
			k.Label(),
			strconv.Itoa(stats.SmellsByType[k]),
			strconv.Itoa(stats.FilesAffectedByType[k]),
		})
	}
	return NewTable("Smells by Type", []string{"Type", "Count", "Files"}, rows,
		[]string{"Total", strconv.Itoa(stats.TotalSmells), ""}, nil)
}

func bySeverityTable(stats models.CorpusStats) *Table {
	sevs := models.AllSeverities()
	rows := make([][]string, 0, len(sevs))
	for i := len(sevs) - 1; i >= 0; i-- {
		rows = append(rows, []string{string(sevs[i]), strconv.Itoa(stats.SmellsBySeverity[sevs[i]])})
	}
	return NewTable("Smells by Severity", []string{"Severity", "Count"}, rows, nil, nil)
}

func worstFilesTable(stats models.CorpusStats) *Table {
	rows := make([][]string, 0, len(stats.WorstFiles))
	for _, fc := range stats.WorstFiles {
		rows = append(rows, []string{fc.FileName, strconv.Itoa(fc.Count)})
	}
	return NewTable("Worst Files", []string{"File", "Smells"}, rows, nil, nil)
}

func averagesTable(stats models.CorpusStats) *Table {
	a := stats.AverageMetrics
	rows := [][]string{
		{"Cyclomatic complexity", formatFloat(a.CyclomaticComplexity)},
		{"Lines of code", formatFloat(a.LinesOfCode)},
		{"Method count", formatFloat(a.MethodCount)},
		{"Inheritance depth", formatFloat(a.InheritanceDepth)},
		{"Coupling count", formatFloat(a.CouplingCount)},
		{"Cohesion score", formatFloat(a.CohesionScore)},
	}
	return NewTable("Average Metrics", []string{"Metric", "Average"}, rows, nil, nil)
}

func failedTable(results []models.FileResult) *Table {
	var rows [][]string
	for _, r := range results {
		if r.Failed {
			rows = append(rows, []string{r.FileName, r.Error})
		}
	}
	if len(rows) == 0 {
		return nil
	}
	return NewTable("Analysis Failed", []string{"File", "Error"}, rows, nil, nil)
}

func findingsTable(findings []models.Finding, min models.Severity) *Table {
	title := "Smells"
	if min != "" && min != models.SeverityLow {
		title = fmt.Sprintf("Smells (%s and above)", min)
	}

	rows := make([][]string, 0, len(findings))
	for _, f := range findings {
		rows = append(rows, []string{
			string(f.Severity),
			f.Kind.Label(),
			fmt.Sprintf("%s:%d", f.File, f.Line),
			models.Truncate(f.Entity, 40),
			f.Description,
		})
	}
	return NewTable(title, []string{"Severity", "Type", "Location", "Entity", "Description"}, rows, nil, nil)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
