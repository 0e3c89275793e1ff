// Package docgen builds the generated documentation tree under docs/gen:
// the design spec aggregated from inline doc blocks, the project structure
// map, and the Doxygen/TypeDoc/PDF outputs around it.
package docgen

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ade-dev/ade/internal/ignore"
	"github.com/ade-dev/ade/internal/parser"
)

const docMarker = "## @DOC"

var markdownLink = regexp.MustCompile(`(!?\[.*?\])\((.*?)\)`)

// Extractor collects inline documentation blocks from source files. A block
// starts at a comment reading "## @DOC" and continues through the contiguous
// comment lines that follow; blank lines inside a run are allowed. Markdown
// files use the marker line directly and capture through end of file.
type Extractor struct {
	Registry *parser.Registry
	GenDir   string // links in captured text are rewritten relative to this
}

// Extract walks the project and returns captured documentation keyed by
// slash-separated path relative to root. Files that fail to parse are
// reported through warn and skipped.
func (e *Extractor) Extract(root string, matcher *ignore.Matcher, warn func(format string, args ...any)) (map[string]string, error) {
	docs := make(map[string]string)

	err := filepath.Walk(root, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		relPath, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		if matcher != nil && matcher.ShouldIgnore(relPath, info.IsDir()) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() {
			return nil
		}
		// The generated spec itself must not feed back into extraction.
		if strings.Contains(filepath.Base(path), "DESIGN_SPEC") {
			return nil
		}

		text, err := e.extractFile(path)
		if err != nil {
			if warn != nil {
				warn("warning: could not read %s: %v", relPath, err)
			}
			return nil
		}
		if text != "" {
			docs[filepath.ToSlash(relPath)] = text
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}
	return docs, nil
}

func (e *Extractor) extractFile(path string) (string, error) {
	if strings.EqualFold(filepath.Ext(path), ".md") {
		return e.extractMarkdown(path)
	}

	p, ok := e.Registry.ParserForFile(path)
	if !ok {
		return "", nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	comments, err := p.Comments(path, content)
	if err != nil {
		return "", err
	}
	return e.assembleBlocks(comments, string(content), p.LineCommentPrefix(), filepath.Dir(path)), nil
}

// assembleBlocks joins every doc block found in a file's comments. Multiple
// blocks concatenate in order, matching how the line scanner this replaced
// accumulated them.
func (e *Extractor) assembleBlocks(comments []parser.Comment, content, prefix, dir string) string {
	srcLines := strings.Split(content, "\n")
	captured := make([]string, 0)

	for i := 0; i < len(comments); i++ {
		if !isDocStart(comments[i].Text, prefix) {
			continue
		}

		lastLine := comments[i].Line
		for j := i + 1; j < len(comments); j++ {
			c := comments[j]
			if !strings.HasPrefix(strings.TrimSpace(c.Text), prefix) {
				break
			}
			// A gap is fine as long as the skipped source lines are blank.
			if c.Line > lastLine+1 {
				if !linesBlank(srcLines, lastLine+1, c.Line-1) {
					break
				}
				for k := lastLine + 1; k < c.Line; k++ {
					captured = append(captured, "")
				}
			}
			captured = append(captured, e.rewriteLinks(stripMarker(c.Text, prefix), dir))
			lastLine = c.Line
			i = j
		}
	}
	return strings.Join(captured, "\n")
}

func (e *Extractor) extractMarkdown(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	lines := strings.Split(string(data), "\n")
	dir := filepath.Dir(path)
	captured := make([]string, 0)
	capturing := false
	for _, line := range lines {
		if !capturing {
			if strings.HasPrefix(strings.TrimSpace(line), docMarker) {
				capturing = true
			}
			continue
		}
		captured = append(captured, e.rewriteLinks(line, dir))
	}
	return strings.TrimRight(strings.Join(captured, "\n"), "\n"), nil
}

// rewriteLinks repoints relative markdown links so they stay valid from the
// generated docs directory.
func (e *Extractor) rewriteLinks(line, sourceDir string) string {
	if e.GenDir == "" {
		return line
	}
	return markdownLink.ReplaceAllStringFunc(line, func(match string) string {
		m := markdownLink.FindStringSubmatch(match)
		url := m[2]
		if url == "" || strings.HasPrefix(url, "http") || strings.HasPrefix(url, "#") ||
			strings.HasPrefix(url, "mailto:") {
			return match
		}
		target := filepath.Join(sourceDir, filepath.FromSlash(url))
		rel, err := filepath.Rel(e.GenDir, target)
		if err != nil {
			return match
		}
		return m[1] + "(" + filepath.ToSlash(rel) + ")"
	})
}

func isDocStart(text, prefix string) bool {
	t := strings.TrimSpace(text)
	if prefix == "//" {
		t = strings.TrimSpace(strings.TrimPrefix(t, "//"))
	}
	return strings.HasPrefix(t, docMarker)
}

// stripMarker removes one comment marker and at most one following space, so
// markdown headers inside blocks ("# ### Header") keep their hashes.
func stripMarker(text, prefix string) string {
	t := strings.TrimSpace(text)
	if strings.HasPrefix(t, prefix+" ") {
		return t[len(prefix)+1:]
	}
	return strings.TrimPrefix(t, prefix)
}

func linesBlank(lines []string, from, to int) bool {
	for n := from; n <= to; n++ {
		if n-1 < 0 || n-1 >= len(lines) {
			return false
		}
		if strings.TrimSpace(lines[n-1]) != "" {
			return false
		}
	}
	return true
}
