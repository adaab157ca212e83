package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/panbanda/cppsmell/internal/history"
	"github.com/panbanda/cppsmell/internal/output"
	"github.com/panbanda/cppsmell/pkg/models"
	"github.com/urfave/cli/v2"
)

func historyCmd() *cli.Command {
	flags := append(outputFlags(),
		&cli.IntFlag{
			Name:    "limit",
			Aliases: []string{"n"},
			Value:   10,
			Usage:   "Number of runs to list",
		},
		&cli.Int64Flag{
			Name:  "run",
			Usage: "Show the per-file rows of one run",
		},
		&cli.StringFlag{
			Name:  "history-db",
			Usage: "History database path (default from config)",
		},
	)
	return &cli.Command{
		Name:   "history",
		Usage:  "List recorded analysis runs",
		Flags:  flags,
		Action: runHistoryCmd,
	}
}

func runHistoryCmd(c *cli.Context) error {
	loaded, err := loadConfig(c)
	if err != nil {
		return err
	}
	cfg := loaded.Config

	path := historyPath(c, cfg)
	if _, err := os.Stat(path); err != nil {
		warnf(c, "No history recorded at %s (run analyze --history)", path)
		return nil
	}

	store, err := history.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()

	if id := c.Int64("run"); id > 0 {
		files, err := store.Files(c.Context, id)
		if err != nil {
			return err
		}
		return formatter.Output(runFilesTable(id, files))
	}

	runs, err := store.Recent(c.Context, c.Int("limit"))
	if err != nil {
		return err
	}
	return formatter.Output(runsTable(runs))
}

func runsTable(runs []history.Run) *output.Table {
	headers := []string{"ID", "Started", "Ref", "Files", "Failed", "Smells"}
	for _, k := range models.AllSmellKinds() {
		headers = append(headers, string(k))
	}

	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		row := []string{
			strconv.FormatInt(r.ID, 10),
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Ref,
			strconv.Itoa(r.TotalFiles),
			strconv.Itoa(r.FailedFiles),
			strconv.Itoa(r.TotalSmells),
		}
		for _, k := range models.AllSmellKinds() {
			row = append(row, strconv.Itoa(r.SmellsByType[k]))
		}
		rows = append(rows, row)
	}
	if runs == nil {
		runs = []history.Run{}
	}
	return output.NewTable("Analysis History", headers, rows, nil, runs)
}

func runFilesTable(id int64, files []history.FileRecord) *output.Table {
	rows := make([][]string, 0, len(files))
	for _, f := range files {
		status := ""
		if f.Failed {
			status = "failed"
		}
		hash := f.ContentHash
		if len(hash) > 12 {
			hash = hash[:12]
		}
		rows = append(rows, []string{f.FileName, strconv.Itoa(f.SmellCount), hash, status})
	}
	if files == nil {
		files = []history.FileRecord{}
	}
	return output.NewTable(fmt.Sprintf("Run %d", id),
		[]string{"File", "Smells", "Content Hash", "Status"}, rows, nil, files)
}
