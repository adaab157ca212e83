package models

import "time"

// FileResult is the analysis outcome for one input file.
type FileResult struct {
	FileName     string    `json:"file_name"`
	Language     string    `json:"language"`
	FileSize     int64     `json:"file_size"`
	ContentHash  string    `json:"content_hash,omitempty"`
	Findings     []Finding `json:"smells"`
	FindingCount int       `json:"smell_count"`
	Timestamp    time.Time `json:"timestamp"`
	Metrics      Metrics   `json:"metrics"`

	// Failed marks a degraded result: the file could not be parsed, so it
	// carries zero metrics and no findings.
	Failed bool   `json:"failed,omitempty"`
	Error  string `json:"error,omitempty"`
}

// FailedFileResult builds the degraded result for a file that could not be
// analyzed.
func FailedFileResult(name string, size int64, err error) FileResult {
	msg := "analysis failed"
	if err != nil {
		msg = err.Error()
	}
	return FileResult{
		FileName:  name,
		FileSize:  size,
		Findings:  []Finding{},
		Timestamp: time.Now().UTC(),
		Failed:    true,
		Error:     msg,
	}
}

// FileCount pairs a file name with its finding count.
type FileCount struct {
	FileName string `json:"file_name"`
	Count    int    `json:"count"`
}

// CorpusStats summarizes one batch of FileResults. It is rebuilt from
// scratch for every batch.
type CorpusStats struct {
	GeneratedAt         time.Time         `json:"generated_at"`
	TotalFiles          int               `json:"total_files"`
	TotalSmells         int               `json:"total_smells"`
	FailedFiles         int               `json:"failed_files"`
	TotalLines          int               `json:"total_lines"`
	SmellsByType        map[SmellKind]int `json:"smells_by_type"`
	SmellsBySeverity    map[Severity]int  `json:"smells_by_severity"`
	SmellsByFile        map[string]int    `json:"smells_by_file"`
	FilesAffectedByType map[SmellKind]int `json:"files_affected_by_type"`
	WorstFiles          []FileCount       `json:"worst_files"`
	AverageMetrics      AverageMetrics    `json:"average_metrics"`
}
