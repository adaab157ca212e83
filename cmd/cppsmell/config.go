package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/panbanda/cppsmell/pkg/config"
	"github.com/pelletier/go-toml"
	"github.com/urfave/cli/v2"
)

func configCmd() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration management commands",
		Subcommands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Write a default cppsmell.toml",
				Description: `Creates a configuration file with the default settings and thresholds.

Examples:
  cppsmell config init                          # Creates cppsmell.toml
  cppsmell config init -o .cppsmell/cppsmell.toml
  cppsmell config init --force                  # Overwrite existing file`,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Value:   "cppsmell.toml",
						Usage:   "Output file path",
					},
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Overwrite existing config file",
					},
				},
				Action: runConfigInit,
			},
			{
				Name:   "show",
				Usage:  "Show the effective configuration",
				Action: runConfigShow,
			},
			{
				Name:   "validate",
				Usage:  "Validate a configuration file",
				Action: runConfigValidate,
			},
		},
	}
}

func runConfigInit(c *cli.Context) error {
	outputPath := c.String("output")

	if _, err := os.Stat(outputPath); err == nil && !c.Bool("force") {
		return fmt.Errorf("config file %q already exists (use --force to overwrite)", outputPath)
	}

	if dir := filepath.Dir(outputPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %q: %w", dir, err)
		}
	}

	content, err := generateDefaultConfig()
	if err != nil {
		return err
	}
	if err := os.WriteFile(outputPath, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintln(c.App.Writer, color.GreenString("Created %s", outputPath))
	return nil
}

func generateDefaultConfig() (string, error) {
	content, err := toml.Marshal(config.DefaultConfig())
	if err != nil {
		return "", fmt.Errorf("failed to marshal config to TOML: %w", err)
	}

	var buf strings.Builder
	buf.WriteString("# cppsmell configuration\n")
	buf.WriteString("# A finding is reported when its value exceeds trigger; medium and high\n")
	buf.WriteString("# raise the severity above base (0 disables a level).\n\n")
	buf.Write(content)
	return buf.String(), nil
}

func runConfigShow(c *cli.Context) error {
	loaded, err := loadConfig(c)
	if err != nil {
		return err
	}

	if loaded.Source != "" {
		fmt.Fprintf(c.App.Writer, "# Configuration from: %s\n\n", loaded.Source)
	} else {
		fmt.Fprintln(c.App.Writer, "# Default configuration (no config file found)")
	}

	content, err := toml.Marshal(loaded.Config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	_, err = c.App.Writer.Write(content)
	return err
}

func runConfigValidate(c *cli.Context) error {
	loaded, err := loadConfig(c)
	if err != nil {
		return fmt.Errorf("configuration invalid: %w", err)
	}

	if loaded.Source != "" {
		fmt.Fprintln(c.App.Writer, color.GreenString("Configuration valid: %s", loaded.Source))
	} else {
		fmt.Fprintln(c.App.Writer, color.YellowString("No config file found. Default configuration is valid."))
	}
	return nil
}
