package history

import (
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ade-dev/ade/internal/gitio"
	"github.com/ade-dev/ade/internal/ignore"
)

// LangStats accumulates metrics for one language in the working tree.
type LangStats struct {
	Files, LOC, TODOs, FIXMEs int
	TestFiles, TestLOC        int
}

// Snapshot is the current-state counterpart of CommitStats: metrics of the
// checked-out tree rather than of a commit.
type Snapshot struct {
	Languages map[string]*LangStats
	Total     LangStats
}

// defaultLanguages are always reported alongside whatever the project
// configuration enables.
var defaultLanguages = []string{"markdown", "css", "shell", "json"}

// Analyze scans the working tree under root. Enabled lists the languages to
// report; nil means every language known to langForExt. Tracked files come
// from git when available, a filesystem walk otherwise.
func Analyze(root string, enabled []string) (*Snapshot, error) {
	wanted := languageSet(enabled)

	files, err := listFiles(root)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{Languages: make(map[string]*LangStats)}
	for _, rel := range files {
		lang, ok := langForExt[strings.ToLower(filepath.Ext(rel))]
		if !ok || !wanted[lang] {
			continue
		}
		if isLockFile(rel) {
			continue
		}
		content, err := os.ReadFile(filepath.Join(root, rel))
		if err != nil {
			continue
		}
		m := AnalyzeContent(string(content))

		ls := snap.Languages[lang]
		if ls == nil {
			ls = &LangStats{}
			snap.Languages[lang] = ls
		}
		if IsTestFile(rel) {
			ls.TestFiles++
			ls.TestLOC += m.LOC
			snap.Total.TestFiles++
			snap.Total.TestLOC += m.LOC
		} else {
			ls.Files++
			ls.LOC += m.LOC
			snap.Total.Files++
			snap.Total.LOC += m.LOC
		}
		ls.TODOs += m.TODOs
		ls.FIXMEs += m.FIXMEs
		snap.Total.TODOs += m.TODOs
		snap.Total.FIXMEs += m.FIXMEs
	}
	return snap, nil
}

func languageSet(enabled []string) map[string]bool {
	wanted := make(map[string]bool)
	if len(enabled) == 0 {
		for _, lang := range langForExt {
			wanted[lang] = true
		}
		return wanted
	}
	for _, lang := range enabled {
		wanted[strings.ToLower(lang)] = true
	}
	for _, lang := range defaultLanguages {
		wanted[lang] = true
	}
	return wanted
}

// listFiles returns repo-relative paths, preferring git's view of tracked
// plus unignored untracked files.
func listFiles(root string) ([]string, error) {
	tracked, err := gitio.LsFiles(root)
	if err == nil {
		others, _ := gitio.LsFilesOthers(root)
		return append(tracked, others...), nil
	}

	matcher := ignore.NewMatcher(nil)
	var files []string
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		if d.IsDir() {
			if rel != "." && matcher.ShouldIgnore(rel, true) {
				return filepath.SkipDir
			}
			return nil
		}
		if matcher.ShouldIgnore(rel, false) {
			return nil
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}
	return files, nil
}

// sortedLanguages returns the snapshot's languages largest first, ties
// broken alphabetically.
func (s *Snapshot) sortedLanguages() []string {
	names := make([]string, 0, len(s.Languages))
	for name := range s.Languages {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := s.Languages[names[i]], s.Languages[names[j]]
		if a.LOC != b.LOC {
			return a.LOC > b.LOC
		}
		return names[i] < names[j]
	})
	return names
}

// WriteText prints the snapshot as an aligned plain-text table.
func (s *Snapshot) WriteText(w io.Writer) {
	fmt.Fprintln(w, "Current Project Statistics")
	fmt.Fprintln(w, strings.Repeat("=", 70))
	fmt.Fprintf(w, "%-12s %8s %10s %8s %10s %7s %7s\n",
		"Language", "Files", "LOC", "T-Files", "T-LOC", "TODO", "FIXME")
	fmt.Fprintln(w, strings.Repeat("-", 70))
	for _, name := range s.sortedLanguages() {
		ls := s.Languages[name]
		fmt.Fprintf(w, "%-12s %8d %10d %8d %10d %7d %7d\n",
			name, ls.Files, ls.LOC, ls.TestFiles, ls.TestLOC, ls.TODOs, ls.FIXMEs)
	}
	fmt.Fprintln(w, strings.Repeat("-", 70))
	fmt.Fprintf(w, "%-12s %8d %10d %8d %10d %7d %7d\n",
		"Total", s.Total.Files, s.Total.LOC, s.Total.TestFiles, s.Total.TestLOC, s.Total.TODOs, s.Total.FIXMEs)
	fmt.Fprintf(w, "\nTest density: %.1f%%\n", density(s.Total.TestLOC, s.Total.LOC))
}

// WriteMarkdown prints the snapshot as a markdown table with one metric per
// row and one column per language.
func (s *Snapshot) WriteMarkdown(w io.Writer) {
	names := s.sortedLanguages()

	fmt.Fprintln(w, "## Current Project Statistics")
	fmt.Fprintln(w)
	fmt.Fprint(w, "| Metric |")
	for _, name := range names {
		fmt.Fprintf(w, " %s |", name)
	}
	fmt.Fprintln(w, " Total |")
	fmt.Fprint(w, "| :--- |")
	for range names {
		fmt.Fprint(w, " ---: |")
	}
	fmt.Fprintln(w, " ---: |")

	row := func(label string, get func(*LangStats) int, total int) {
		fmt.Fprintf(w, "| %s |", label)
		for _, name := range names {
			fmt.Fprintf(w, " %d |", get(s.Languages[name]))
		}
		fmt.Fprintf(w, " %d |\n", total)
	}
	row("Files", func(l *LangStats) int { return l.Files }, s.Total.Files)
	row("LOC", func(l *LangStats) int { return l.LOC }, s.Total.LOC)
	row("Test Files", func(l *LangStats) int { return l.TestFiles }, s.Total.TestFiles)
	row("Test LOC", func(l *LangStats) int { return l.TestLOC }, s.Total.TestLOC)
	row("TODOs", func(l *LangStats) int { return l.TODOs }, s.Total.TODOs)
	row("FIXMEs", func(l *LangStats) int { return l.FIXMEs }, s.Total.FIXMEs)
	fmt.Fprintln(w)
}

// configTestResult mirrors one entry of logs/config_test_results.json, where
// integration runs record per-configuration outcomes.
type configTestResult struct {
	Config    string `json:"config"`
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// WriteConfigResults appends a table of recorded configuration test outcomes
// when logs/config_test_results.json exists. Absence is not an error.
func WriteConfigResults(w io.Writer, root string) error {
	path := filepath.Join(root, "logs", "config_test_results.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var results []configTestResult
	if err := json.Unmarshal(data, &results); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(results) == 0 {
		return nil
	}

	fmt.Fprintln(w, "## Configuration Test Results")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "| Configuration | Status | Last Run |")
	fmt.Fprintln(w, "| :--- | :--- | :--- |")
	for _, r := range results {
		fmt.Fprintf(w, "| %s | %s | %s |\n", r.Config, r.Status, r.Timestamp)
	}
	fmt.Fprintln(w)
	return nil
}
