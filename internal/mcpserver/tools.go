package mcpserver

import (
	"bytes"
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/panbanda/cppsmell/internal/output"
	"github.com/panbanda/cppsmell/pkg/models"
)

// AnalyzeInput is the input of analyze_smells.
type AnalyzeInput struct {
	Paths       []string `json:"paths,omitempty" jsonschema:"Files or directories to analyze. Defaults to current directory if empty."`
	Format      string   `json:"format,omitempty" jsonschema:"Output format: toon (default), json, yaml or markdown."`
	MinSeverity string   `json:"min_severity,omitempty" jsonschema:"Hide findings below this severity: low, medium or high."`
	Ref         string   `json:"ref,omitempty" jsonschema:"Git revision to read the files from instead of the working tree."`
	Summary     bool     `json:"summary,omitempty" jsonschema:"Return corpus statistics only, without individual findings."`
}

// OriginalTextInput is the input of get_original_text.
type OriginalTextInput struct {
	File string `json:"file" jsonschema:"File name exactly as reported by analyze_smells."`
}

func getPaths(input AnalyzeInput) []string {
	if len(input.Paths) == 0 {
		return []string{"."}
	}
	return input.Paths
}

func getFormat(input AnalyzeInput) output.Format {
	switch input.Format {
	case "json":
		return output.FormatJSON
	case "markdown", "md":
		return output.FormatMarkdown
	case "yaml", "yml":
		return output.FormatYAML
	default:
		return output.FormatTOON
	}
}

func formatOutput(data any, format output.Format) (string, error) {
	var buf bytes.Buffer
	if err := output.NewWriterFormatter(format, &buf, false).Output(data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func toolResult(data any, format output.Format) (*mcp.CallToolResult, any, error) {
	text, err := formatOutput(data, format)
	if err != nil {
		return nil, nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}, nil, nil
}

func toolError(msg string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: "Error: " + msg},
		},
		IsError: true,
	}, nil, nil
}

func (s *Server) handleAnalyzeSmells(ctx context.Context, req *mcp.CallToolRequest, input AnalyzeInput) (*mcp.CallToolResult, any, error) {
	var minSeverity models.Severity
	if input.MinSeverity != "" {
		sev, err := models.ParseSeverity(input.MinSeverity)
		if err != nil {
			return toolError(err.Error())
		}
		minSeverity = sev
	}

	collected, err := s.svc.Collect(ctx, getPaths(input), input.Ref)
	if err != nil {
		return toolError(err.Error())
	}
	if len(collected.Inputs) == 0 {
		return toolError("no C or C++ source files found")
	}

	res, err := s.svc.Analyze(ctx, collected, nil)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, nil, err
		}
		return toolError(err.Error())
	}

	report := output.NewSmellReport(res.Stats, res.Results, output.ReportOptions{
		Summary:     input.Summary,
		MinSeverity: minSeverity,
		Ref:         input.Ref,
	})
	return toolResult(report, getFormat(input))
}

func (s *Server) handleGetOriginalText(ctx context.Context, req *mcp.CallToolRequest, input OriginalTextInput) (*mcp.CallToolResult, any, error) {
	if input.File == "" {
		return toolError("file is required")
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: s.svc.GetOriginalText(input.File)},
		},
	}, nil, nil
}
