package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/panbanda/cppsmell/pkg/config"
	"github.com/urfave/cli/v2"
)

var (
	version = "dev"
	commit  = "none"    //nolint:unused // set via ldflags at build time
	date    = "unknown" //nolint:unused // set via ldflags at build time
)

// errFailOn is returned by analyze when --fail-on matched a finding.
var errFailOn = errors.New("findings at or above the --fail-on severity")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(os.Stdout, os.Stderr).RunContext(ctx, os.Args); err != nil {
		if errors.Is(err, errFailOn) {
			color.Yellow("%v", err)
		} else {
			color.Red("Error: %v", err)
		}
		os.Exit(1)
	}
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:    "cppsmell",
		Usage:   "C and C++ code smell detector",
		Version: version,
		Description: `cppsmell parses C and C++ sources with tree-sitter and reports code smells:
long functions, large classes, duplicate code, primitive obsession, long
parameter lists, inappropriate intimacy, global variables, complex
conditions and deep nesting.`,
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (TOML, YAML, or JSON)",
				EnvVars: []string{"CPPSMELL_CONFIG"},
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging",
			},
		},
		// Errors are reported once by main.
		ExitErrHandler: func(*cli.Context, error) {},
		Commands: []*cli.Command{
			analyzeCmd(),
			mcpCmd(),
			configCmd(),
			historyCmd(),
		},
	}
}

// getPaths returns paths from positional args, defaulting to ["."]
func getPaths(c *cli.Context) []string {
	if c.Args().Len() > 0 {
		return c.Args().Slice()
	}
	return []string{"."}
}

// loadConfig loads the file named by --config, or searches the default
// locations when the flag is empty.
func loadConfig(c *cli.Context) (*config.LoadResult, error) {
	var opts []config.LoadOption
	if path := c.String("config"); path != "" {
		opts = append(opts, config.WithPath(path))
	}
	return config.LoadConfig(opts...)
}

// newLogger builds the stderr logger. --verbose forces debug level.
func newLogger(c *cli.Context, cfg *config.Config) (*slog.Logger, error) {
	level, err := cfg.Log.SlogLevel()
	if err != nil {
		return nil, err
	}
	if c.Bool("verbose") {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(c.App.ErrWriter, &slog.HandlerOptions{Level: level})), nil
}

// warnf prints a yellow status line on stderr.
func warnf(c *cli.Context, format string, args ...any) {
	fmt.Fprintln(c.App.ErrWriter, color.YellowString(format, args...))
}

// infof prints a cyan status line on stderr.
func infof(c *cli.Context, format string, args ...any) {
	fmt.Fprintln(c.App.ErrWriter, color.CyanString(format, args...))
}
