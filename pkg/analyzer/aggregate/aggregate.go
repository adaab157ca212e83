// Package aggregate reduces a batch of FileResults into CorpusStats.
package aggregate

import (
	"sort"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/panbanda/cppsmell/pkg/models"
	"gonum.org/v1/gonum/stat"
)

// DefaultTopFiles is the number of worst files reported.
const DefaultTopFiles = 5

type options struct {
	top int
	now func() time.Time
}

// Option configures Aggregate.
type Option func(*options)

// WithTopFiles changes how many worst files are kept. Values below 1 are
// ignored.
func WithTopFiles(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.top = n
		}
	}
}

// WithClock sets the GeneratedAt source.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// Aggregate computes corpus statistics. It performs no I/O and does not
// modify results. Failed files are counted and contribute zero metrics to
// the averages.
func Aggregate(results []models.FileResult, opts ...Option) models.CorpusStats {
	o := options{top: DefaultTopFiles, now: func() time.Time { return time.Now().UTC() }}
	for _, opt := range opts {
		opt(&o)
	}

	stats := models.CorpusStats{
		GeneratedAt:         o.now(),
		TotalFiles:          len(results),
		SmellsByType:        make(map[models.SmellKind]int, len(models.AllSmellKinds())),
		SmellsBySeverity:    make(map[models.Severity]int, len(models.AllSeverities())),
		SmellsByFile:        make(map[string]int, len(results)),
		FilesAffectedByType: make(map[models.SmellKind]int, len(models.AllSmellKinds())),
		WorstFiles:          []models.FileCount{},
	}
	for _, k := range models.AllSmellKinds() {
		stats.SmellsByType[k] = 0
		stats.FilesAffectedByType[k] = 0
	}
	for _, s := range models.AllSeverities() {
		stats.SmellsBySeverity[s] = 0
	}

	affected := make(map[models.SmellKind]*roaring.Bitmap)
	counts := make([]models.FileCount, 0, len(results))

	for i, r := range results {
		n := len(r.Findings)
		stats.TotalSmells += n
		stats.TotalLines += r.Metrics.LinesOfCode
		stats.SmellsByFile[r.FileName] += n
		counts = append(counts, models.FileCount{FileName: r.FileName, Count: n})
		if r.Failed {
			stats.FailedFiles++
		}

		for _, f := range r.Findings {
			stats.SmellsByType[f.Kind]++
			stats.SmellsBySeverity[f.Severity]++

			bm, ok := affected[f.Kind]
			if !ok {
				bm = roaring.New()
				affected[f.Kind] = bm
			}
			bm.Add(uint32(i))
		}
	}

	for k, bm := range affected {
		stats.FilesAffectedByType[k] = int(bm.GetCardinality())
	}

	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})
	if len(counts) > o.top {
		counts = counts[:o.top]
	}
	stats.WorstFiles = append(stats.WorstFiles, counts...)

	stats.AverageMetrics = averages(results)
	return stats
}

func averages(results []models.FileResult) models.AverageMetrics {
	if len(results) == 0 {
		return models.AverageMetrics{}
	}

	n := len(results)
	cc := make([]float64, n)
	loc := make([]float64, n)
	methods := make([]float64, n)
	depth := make([]float64, n)
	coupling := make([]float64, n)
	cohesion := make([]float64, n)
	for i, r := range results {
		m := r.Metrics
		cc[i] = float64(m.CyclomaticComplexity)
		loc[i] = float64(m.LinesOfCode)
		methods[i] = float64(m.MethodCount)
		depth[i] = float64(m.InheritanceDepth)
		coupling[i] = float64(m.CouplingCount)
		cohesion[i] = m.CohesionScore
	}

	return models.AverageMetrics{
		CyclomaticComplexity: stat.Mean(cc, nil),
		LinesOfCode:          stat.Mean(loc, nil),
		MethodCount:          stat.Mean(methods, nil),
		InheritanceDepth:     stat.Mean(depth, nil),
		CouplingCount:        stat.Mean(coupling, nil),
		CohesionScore:        stat.Mean(cohesion, nil),
	}
}
