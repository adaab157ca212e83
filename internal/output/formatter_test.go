package output

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/panbanda/cppsmell/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input string
		want  Format
	}{
		{"text", FormatText},
		{"TEXT", FormatText},
		{"json", FormatJSON},
		{"markdown", FormatMarkdown},
		{"md", FormatMarkdown},
		{"yaml", FormatYAML},
		{"yml", FormatYAML},
		{"toon", FormatTOON},
		{" JSON ", FormatJSON},
		{"", FormatText},
		{"pdf", FormatText},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseFormat(tt.input))
		})
	}
}

func TestNewFormatterWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")

	f, err := NewFormatter(FormatJSON, path, true)
	require.NoError(t, err)
	assert.False(t, f.Colored(), "files are never colored")
	require.NoError(t, f.Output(map[string]int{"a": 1}))
	require.NoError(t, f.Close())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a": 1}`, string(content))
}

func TestNewFormatterInvalidPath(t *testing.T) {
	_, err := NewFormatter(FormatText, filepath.Join(t.TempDir(), "missing", "out.txt"), false)
	assert.Error(t, err)
}

type sample struct {
	FileName string `json:"file_name"`
	Count    int    `json:"count"`
}

func TestStructuredFormatsShareJSONKeys(t *testing.T) {
	data := []sample{{FileName: "a.cpp", Count: 2}}

	var buf bytes.Buffer
	require.NoError(t, NewWriterFormatter(FormatYAML, &buf, false).Output(data))
	var decoded []map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "a.cpp", decoded[0]["file_name"])
	assert.Equal(t, 2, decoded[0]["count"])

	buf.Reset()
	require.NoError(t, NewWriterFormatter(FormatTOON, &buf, false).Output(data))
	assert.Contains(t, buf.String(), "file_name")
	assert.Contains(t, buf.String(), "a.cpp")

	buf.Reset()
	require.NoError(t, NewWriterFormatter(FormatJSON, &buf, false).Output(data))
	var js []sample
	require.NoError(t, json.Unmarshal(buf.Bytes(), &js))
	assert.Equal(t, data, js)
}

func TestTableRender(t *testing.T) {
	table := NewTable("Worst Files", []string{"File", "Smells"},
		[][]string{{"a.cpp", "5"}, {"b.cpp", "3"}}, []string{"Total", "8"}, nil)

	var text bytes.Buffer
	require.NoError(t, table.RenderText(&text, false))
	assert.Contains(t, text.String(), "Worst Files")
	assert.Contains(t, text.String(), "a.cpp")
	assert.Contains(t, text.String(), "8")

	var md bytes.Buffer
	require.NoError(t, table.RenderMarkdown(&md))
	assert.Contains(t, md.String(), "## Worst Files")
	assert.Contains(t, md.String(), "| File | Smells |")
	assert.Contains(t, md.String(), "| --- | --- |")
	assert.Contains(t, md.String(), "| a.cpp | 5 |")
	assert.Contains(t, md.String(), "| Total | 8 |")

	rows, ok := table.RenderData().([]map[string]string)
	require.True(t, ok)
	assert.Equal(t, "b.cpp", rows[1]["File"])
}

func TestSectionRender(t *testing.T) {
	s := &Section{Title: "Summary", Content: "Total smells: 3"}

	var text bytes.Buffer
	require.NoError(t, s.RenderText(&text, false))
	assert.Equal(t, "Summary\n=======\nTotal smells: 3\n", text.String())

	var md bytes.Buffer
	require.NoError(t, s.RenderMarkdown(&md))
	assert.Equal(t, "## Summary\n\nTotal smells: 3\n\n", md.String())
}

func TestFormatterOutputRawMarkdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewWriterFormatter(FormatMarkdown, &buf, false).Output(map[string]int{"x": 1}))
	assert.True(t, strings.HasPrefix(buf.String(), "```json\n"))
	assert.True(t, strings.HasSuffix(buf.String(), "```\n"))
}

func TestSeverityColor(t *testing.T) {
	prev := color.NoColor
	color.NoColor = false
	t.Cleanup(func() { color.NoColor = prev })

	assert.Contains(t, SeverityColor(models.SeverityHigh, "high"), "\x1b[31m")
	assert.Contains(t, SeverityColor(models.SeverityMedium, "medium"), "\x1b[33m")
	assert.Contains(t, SeverityColor(models.SeverityLow, "low"), "\x1b[32m")
	assert.Equal(t, "plain", SeverityColor(models.Severity("other"), "plain"))
}

func TestTableColorsSeverityColumn(t *testing.T) {
	prev := color.NoColor
	color.NoColor = false
	t.Cleanup(func() { color.NoColor = prev })

	rows := [][]string{{"high", "long_function"}}
	table := NewTable("", []string{"Severity", "Type"}, rows, nil, nil)

	var plain bytes.Buffer
	require.NoError(t, table.RenderText(&plain, false))
	assert.NotContains(t, plain.String(), "\x1b[")

	var tinted bytes.Buffer
	require.NoError(t, table.RenderText(&tinted, true))
	assert.Contains(t, tinted.String(), "\x1b[31m")
	assert.Equal(t, "high", rows[0][0], "rows are not modified")
}
