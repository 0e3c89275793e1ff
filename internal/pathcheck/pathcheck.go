// Package pathcheck scans project files for absolute paths that would break
// on any machine but the author's: file:///home/... URLs and literal
// project-root prefixes.
package pathcheck

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/ade-dev/ade/internal/fileutil"
	"github.com/ade-dev/ade/internal/gitio"
	"github.com/ade-dev/ade/internal/ignore"
)

var homeURLPattern = regexp.MustCompile(`file:///home/[\w.-]+/`)

// binaryExtensions are never scanned.
var binaryExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".ico": true,
	".pdf": true, ".zip": true, ".tar": true, ".gz": true, ".mp4": true,
	".db": true,
}

// defaultExcludes always skip, matched against both the relative path and
// the base name.
var defaultExcludes = []string{
	".gitmodules",
	"full_config.yaml",
}

// Finding is one offending line.
type Finding struct {
	File string // repo-relative
	Line int
	Text string
}

// Checker scans a repository for absolute path references.
type Checker struct {
	Root     string
	Excludes []string
	Owned    func(path string) bool // nil means everything is owned
	Out      io.Writer
}

func NewChecker(root string) *Checker {
	return &Checker{Root: root, Out: os.Stdout}
}

// patterns returns what counts as an absolute path: home-directory URLs plus
// the project root itself.
func (c *Checker) patterns() []*regexp.Regexp {
	return []*regexp.Regexp{
		homeURLPattern,
		regexp.MustCompile(regexp.QuoteMeta(c.Root)),
	}
}

// CheckContent reports offending lines in one file's content. A line is
// flagged at most once.
func CheckContent(content string, patterns []*regexp.Regexp) []Finding {
	var findings []Finding
	for i, line := range strings.Split(content, "\n") {
		for _, pattern := range patterns {
			if pattern.MatchString(line) {
				findings = append(findings, Finding{Line: i + 1, Text: strings.TrimSpace(line)})
				break
			}
		}
	}
	return findings
}

// Run scans every tracked and unignored untracked file and writes a report.
// It returns the findings so callers can decide the exit status.
func (c *Checker) Run() ([]Finding, error) {
	fmt.Fprintf(c.Out, "scanning for absolute paths in %s\n", c.Root)

	files, err := c.files()
	if err != nil {
		return nil, err
	}
	patterns := c.patterns()

	var all []Finding
	badFiles := 0
	for _, rel := range files {
		if c.excluded(rel) {
			continue
		}
		if binaryExtensions[strings.ToLower(filepath.Ext(rel))] {
			continue
		}
		path := filepath.Join(c.Root, rel)
		if c.Owned != nil && !c.Owned(path) {
			continue
		}
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(c.Out, "error reading %s: %v\n", rel, err)
			continue
		}

		findings := CheckContent(string(data), patterns)
		if len(findings) == 0 {
			continue
		}
		badFiles++
		fmt.Fprintf(c.Out, "\nabsolute path(s) found in %s:\n", rel)
		for i := range findings {
			findings[i].File = rel
			fmt.Fprintf(c.Out, "  L%d: %s\n", findings[i].Line, findings[i].Text)
		}
		all = append(all, findings...)
	}

	if badFiles > 0 {
		fmt.Fprintf(c.Out, "\ntotal: %d files with absolute paths, use relative paths instead\n", badFiles)
	} else {
		fmt.Fprintln(c.Out, "no absolute paths found")
	}
	return all, nil
}

func (c *Checker) excluded(rel string) bool {
	name := filepath.Base(rel)
	for _, pattern := range append(append([]string{}, defaultExcludes...), c.Excludes...) {
		if ok, _ := filepath.Match(pattern, rel); ok {
			return true
		}
		if ok, _ := filepath.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

// files lists candidates from git, falling back to a filesystem walk outside
// a repository.
func (c *Checker) files() ([]string, error) {
	tracked, err := gitio.LsFiles(c.Root)
	if err == nil {
		others, _ := gitio.LsFilesOthers(c.Root)
		out := fileutil.DedupeStrings(append(tracked, others...))
		sort.Strings(out)
		return out, nil
	}

	matcher := ignore.NewMatcher(nil)
	var out []string
	walkErr := filepath.WalkDir(c.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(c.Root, path)
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
		out = append(out, filepath.ToSlash(rel))
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}
	sort.Strings(out)
	return out, nil
}
