// Package history builds the project's statistical reports: the git-history
// time series written to docs/HISTORY.md and the local filesystem snapshot
// behind the stats command.
package history

import (
	"path/filepath"
	"strings"
)

// ContentMetrics are the per-file counters the reports aggregate.
type ContentMetrics struct {
	LOC    int // non-blank lines
	TODOs  int
	FIXMEs int
}

// AnalyzeContent counts non-blank lines and debt markers.
func AnalyzeContent(content string) ContentMetrics {
	var m ContentMetrics
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		m.LOC++
		if strings.Contains(line, "TO"+"DO") {
			m.TODOs++
		}
		if strings.Contains(line, "FIX"+"ME") {
			m.FIXMEs++
		}
	}
	return m
}

var testSuffixes = []string{
	".test.js", ".test.jsx", ".test.ts", ".test.tsx",
	".spec.js", ".spec.jsx", ".spec.ts", ".spec.tsx",
	"_test.py", "_test.go",
}

// IsTestFile applies the path heuristics for test code: a test directory
// segment, a test_ prefix, or one of the common test-file suffixes.
func IsTestFile(path string) bool {
	lower := strings.ToLower(filepath.ToSlash(path))
	for _, part := range strings.Split(lower, "/") {
		if part == "test" || part == "tests" || part == "__tests__" {
			return true
		}
	}
	base := filepath.Base(lower)
	if strings.HasPrefix(base, "test_") {
		return true
	}
	for _, suffix := range testSuffixes {
		if strings.HasSuffix(base, suffix) {
			return true
		}
	}
	return false
}

// langForExt buckets extensions into report languages. JS and TS share a
// bucket in the history table.
var langForExt = map[string]string{
	".py":   "python",
	".go":   "go",
	".js":   "typescript",
	".jsx":  "typescript",
	".ts":   "typescript",
	".tsx":  "typescript",
	".md":   "markdown",
	".css":  "css",
	".sh":   "shell",
	".json": "json",
}

var lockFiles = map[string]bool{
	"package-lock.json": true,
	"pnpm-lock.yaml":    true,
	"yarn.lock":         true,
	"poetry.lock":       true,
	"go.sum":            true,
}

func isLockFile(path string) bool {
	return lockFiles[filepath.Base(path)]
}
