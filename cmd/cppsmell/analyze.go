package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/panbanda/cppsmell/internal/history"
	"github.com/panbanda/cppsmell/internal/output"
	"github.com/panbanda/cppsmell/internal/progress"
	"github.com/panbanda/cppsmell/internal/service/analysis"
	"github.com/panbanda/cppsmell/internal/vcs"
	"github.com/panbanda/cppsmell/pkg/config"
	"github.com/panbanda/cppsmell/pkg/models"
	"github.com/urfave/cli/v2"
)

func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format: text, json, markdown, yaml, toon (default from config)",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Write output to file",
		},
		&cli.BoolFlag{
			Name:  "no-color",
			Usage: "Disable colored output",
		},
	}
}

func analyzeCmd() *cli.Command {
	flags := append(outputFlags(),
		&cli.StringFlag{
			Name:  "ref",
			Usage: "Analyze the files at a git revision instead of the working tree",
		},
		&cli.BoolFlag{
			Name:  "summary",
			Usage: "Print corpus statistics only",
		},
		&cli.StringFlag{
			Name:  "min-severity",
			Usage: "Hide findings below this severity: low, medium, high",
		},
		&cli.StringFlag{
			Name:  "fail-on",
			Usage: "Exit non-zero when a finding at or above this severity exists",
		},
		&cli.BoolFlag{
			Name:  "history",
			Usage: "Record this run in the history database",
		},
		&cli.StringFlag{
			Name:  "history-db",
			Usage: "History database path (default from config)",
		},
		&cli.BoolFlag{
			Name:  "no-progress",
			Usage: "Hide the progress bar",
		},
	)
	return &cli.Command{
		Name:      "analyze",
		Aliases:   []string{"a"},
		Usage:     "Detect code smells in C and C++ sources",
		ArgsUsage: "[path...]",
		Flags:     flags,
		Action:    runAnalyzeCmd,
	}
}

// parseSeverityFlag parses an optional severity flag value.
func parseSeverityFlag(c *cli.Context, name string) (models.Severity, error) {
	v := c.String(name)
	if v == "" {
		return "", nil
	}
	sev, err := models.ParseSeverity(v)
	if err != nil {
		return "", fmt.Errorf("--%s: %w", name, err)
	}
	return sev, nil
}

// getFormat returns the --format value, falling back to the config.
func getFormat(c *cli.Context, cfg *config.Config) (output.Format, error) {
	name := c.String("format")
	if name == "" {
		name = cfg.Output.Format
	}
	format := output.ParseFormat(name)
	if format == output.FormatText && strings.ToLower(strings.TrimSpace(name)) != "text" {
		return "", fmt.Errorf("unknown format %q (valid: %v)", name, config.Formats)
	}
	return format, nil
}

// newFormatter writes to --output when set, else to the app's stdout.
func newFormatter(c *cli.Context, cfg *config.Config) (*output.Formatter, error) {
	format, err := getFormat(c, cfg)
	if err != nil {
		return nil, err
	}
	colored := cfg.Output.Color && !c.Bool("no-color")
	if path := c.String("output"); path != "" {
		return output.NewFormatter(format, path, colored)
	}
	return output.NewWriterFormatter(format, c.App.Writer, colored), nil
}

func runAnalyzeCmd(c *cli.Context) error {
	loaded, err := loadConfig(c)
	if err != nil {
		return err
	}
	cfg := loaded.Config

	logger, err := newLogger(c, cfg)
	if err != nil {
		return err
	}
	if loaded.Source != "" {
		logger.Debug("config loaded", "path", loaded.Source)
	}

	minSeverity, err := parseSeverityFlag(c, "min-severity")
	if err != nil {
		return err
	}
	failOn, err := parseSeverityFlag(c, "fail-on")
	if err != nil {
		return err
	}

	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()

	paths := getPaths(c)
	ref := c.String("ref")
	startedAt := time.Now().UTC()

	svc := analysis.New(analysis.WithConfig(cfg), analysis.WithLogger(logger))
	defer svc.Close()

	collected, err := svc.Collect(c.Context, paths, ref)
	if err != nil {
		return err
	}
	if len(collected.Inputs) == 0 {
		warnf(c, "No C or C++ source files found")
		return nil
	}
	if n := len(collected.Skipped); n > 0 {
		warnf(c, "Skipped %d file(s) larger than %d bytes", n, cfg.Analysis.MaxFileSize)
	}
	if n := collected.Errors.Len(); n > 0 {
		warnf(c, "Could not read %d file(s)", n)
	}

	var tracker *progress.Tracker
	if !c.Bool("no-progress") {
		tracker = progress.NewTrackerTo(c.App.ErrWriter, "Analyzing", len(collected.Inputs))
	}
	res, err := svc.Analyze(c.Context, collected, tracker.Tick)
	if err != nil {
		tracker.FinishError(err)
		return fmt.Errorf("analysis failed: %w", err)
	}
	tracker.FinishSuccess()

	if res.Stats.FailedFiles > 0 {
		warnf(c, "%d file(s) could not be parsed", res.Stats.FailedFiles)
	}

	report := output.NewSmellReport(res.Stats, res.Results, output.ReportOptions{
		Summary:     c.Bool("summary"),
		MinSeverity: minSeverity,
		Ref:         ref,
	})
	if err := formatter.Output(report); err != nil {
		return err
	}

	if c.Bool("history") || cfg.History.Enabled {
		if err := recordRun(c, cfg, startedAt, paths[0], res); err != nil {
			return err
		}
	}

	if failOn != "" && anyAtLeast(res.Results, failOn) {
		return fmt.Errorf("%w (%s)", errFailOn, failOn)
	}
	return nil
}

func recordRun(c *cli.Context, cfg *config.Config, startedAt time.Time, path string, res *analysis.Result) error {
	ref := res.Ref
	if ref == "" {
		// Working tree runs are labelled with the checked-out branch when
		// there is one.
		ref, _ = vcs.CurrentRef(path)
		if dirty, err := vcs.IsDirty(path); ref != "" && err == nil && dirty {
			ref += "+dirty"
		}
	}

	store, err := history.Open(historyPath(c, cfg))
	if err != nil {
		return err
	}
	defer store.Close()

	id, err := store.Record(c.Context, startedAt, ref, res.Stats, res.Results)
	if err != nil {
		return fmt.Errorf("failed to record history: %w", err)
	}
	infof(c, "Recorded run %d", id)
	return nil
}

func historyPath(c *cli.Context, cfg *config.Config) string {
	if p := c.String("history-db"); p != "" {
		return p
	}
	return cfg.History.Path
}

// anyAtLeast reports whether any finding is at or above min.
func anyAtLeast(results []models.FileResult, min models.Severity) bool {
	for _, r := range results {
		for _, f := range r.Findings {
			if f.Severity.AtLeast(min) {
				return true
			}
		}
	}
	return false
}
