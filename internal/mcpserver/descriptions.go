package mcpserver

// Tool descriptions with interpretation guidance for LLMs.

func describeSmells() string {
	return `Detects code smells in C and C++ sources: long functions, large classes, duplicate code, primitive obsession, long parameter lists, inappropriate intimacy, global variables, complex conditions and deep nesting.

USE WHEN:
- Reviewing C/C++ code before a refactor or code review
- Finding the files that most need attention
- Checking a git revision (ref) instead of the working tree

INTERPRETING RESULTS:
- Severity is low, medium or high; high findings deserve attention first
- worst_files ranks files by finding count
- Findings are heuristic: no macro expansion, no cross-file analysis
- Files marked failed could not be parsed and carry no findings

METRICS RETURNED:
- Summary: totals, smells by type and severity, files affected per type, average metrics
- Findings: file, line, kind, entity, severity, description, suggestion, excerpt`
}

func describeOriginalText() string {
	return `Returns the source text of a file analyzed earlier by analyze_smells in this session.

USE WHEN:
- Looking at the code around a reported finding
- Quoting the exact text that was analyzed (including a past git revision)

INTERPRETING RESULTS:
- The text is exactly what the engine analyzed
- "not available" means the file was never analyzed by this server

METRICS RETURNED:
- The raw file text`
}
