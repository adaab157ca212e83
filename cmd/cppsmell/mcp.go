package main

import (
	"fmt"

	"github.com/panbanda/cppsmell/internal/mcpserver"
	"github.com/panbanda/cppsmell/internal/service/analysis"
	"github.com/urfave/cli/v2"
)

func mcpCmd() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Start MCP (Model Context Protocol) server for LLM tool integration",
		Description: `Starts an MCP server over stdio transport that exposes the smell
detector as tools that LLMs can invoke.

To use with Claude Desktop, add to your config:
  {
    "mcpServers": {
      "cppsmell": {
        "command": "cppsmell",
        "args": ["mcp"]
      }
    }
  }

Available tools:
  - analyze_smells     Detect code smells in C/C++ files or directories
  - get_original_text  Return the text of a file analyzed in this session`,
		Action: runMCPCmd,
		Subcommands: []*cli.Command{
			{
				Name:   "manifest",
				Usage:  "Print the MCP registry manifest (server.json)",
				Action: runMCPManifestCmd,
			},
		},
	}
}

func runMCPCmd(c *cli.Context) error {
	loaded, err := loadConfig(c)
	if err != nil {
		return err
	}
	logger, err := newLogger(c, loaded.Config)
	if err != nil {
		return err
	}

	svc := analysis.New(analysis.WithConfig(loaded.Config), analysis.WithLogger(logger))
	defer svc.Close()

	logger.Info("mcp server starting", "version", version)
	return mcpserver.NewServer(version, svc).Run(c.Context)
}

func runMCPManifestCmd(c *cli.Context) error {
	data, err := mcpserver.GenerateManifest(version)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.App.Writer, string(data))
	return err
}
