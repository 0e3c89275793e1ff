package diagram

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var figureHeader = regexp.MustCompile(`^figure (\d+): (.*)$`)

// Locate scans a markdown document for diagram blocks: raw fenced mermaid/dot
// code blocks and blocks already rewritten into "figure N" form. Matches are
// consumed strictly left to right without overlap, and figure indices are
// assigned sequentially across both kinds. docDir is the directory of the
// document, used to resolve source links in the older figure convention.
func Locate(doc, docDir string) []Block {
	s := newScanner(doc, docDir)
	blocks := make([]Block, 0)

	for i := 0; i < len(s.lines); {
		line := strings.TrimRight(s.lines[i], " \t\r")

		var blk Block
		var next int
		var ok bool
		switch {
		case line == "```mermaid" || line == "```dot":
			blk, next, ok = s.parseRawFence(i)
		case figureHeader.MatchString(line):
			blk, next, ok = s.parseFigureBlock(i)
		default:
			i++
			continue
		}

		if !ok {
			// Malformed structure: leave the span alone and keep
			// scanning from the next line.
			i++
			continue
		}
		blk.Index = len(blocks) + 1
		blocks = append(blocks, blk)
		i = next
	}

	return blocks
}

type scanner struct {
	doc    string
	docDir string
	lines  []string
	starts []int
}

func newScanner(doc, docDir string) *scanner {
	lines := strings.Split(doc, "\n")
	starts := make([]int, len(lines))
	offset := 0
	for i, line := range lines {
		starts[i] = offset
		offset += len(line) + 1
	}
	return &scanner{doc: doc, docDir: docDir, lines: lines, starts: starts}
}

func (s *scanner) trimmed(i int) string {
	return strings.TrimSpace(s.lines[i])
}

// lineEnd returns the byte offset one past line i, excluding its newline.
func (s *scanner) lineEnd(i int) int {
	return s.starts[i] + len(s.lines[i])
}

// parseRawFence consumes a ```mermaid or ```dot fence starting at line i.
func (s *scanner) parseRawFence(i int) (Block, int, bool) {
	kind := Kind(strings.TrimPrefix(strings.TrimRight(s.lines[i], " \t\r"), "```"))

	for j := i + 1; j < len(s.lines); j++ {
		if s.trimmed(j) != "```" {
			continue
		}
		content := strings.TrimSpace(strings.Join(s.lines[i+1:j], "\n"))
		if content == "" {
			return Block{}, 0, false
		}
		return Block{
			Kind:   kind,
			Source: content,
			Start:  s.starts[i],
			End:    s.lineEnd(j),
		}, j + 1, true
	}
	// No closing fence.
	return Block{}, 0, false
}

// parseFigureBlock consumes an already-canonical figure block starting at the
// "figure N: caption" header on line i. Two conventions are accepted: the
// current one with a <details> source disclosure, and the older one with a
// bare source link whose target file holds the diagram source.
func (s *scanner) parseFigureBlock(i int) (Block, int, bool) {
	m := figureHeader.FindStringSubmatch(strings.TrimRight(s.lines[i], " \t\r"))
	caption := strings.TrimSpace(m[2])

	j := i + 1
	if j >= len(s.lines) || s.trimmed(j) != "" {
		return Block{}, 0, false
	}
	j = s.skipBlank(j)
	if j >= len(s.lines) || !isImageLine(s.trimmed(j)) {
		return Block{}, 0, false
	}
	j = s.skipBlank(j + 1)
	if j >= len(s.lines) {
		return Block{}, 0, false
	}

	if target, ok := sourceLinkTarget(s.trimmed(j)); ok {
		return s.finishLinkedFigure(i, j, caption, target)
	}
	return s.finishDetailsFigure(i, j, caption)
}

// finishLinkedFigure resolves the older convention where the figure carries a
// "[... source](path)" line; the linked file provides the source text.
func (s *scanner) finishLinkedFigure(start, j int, caption, target string) (Block, int, bool) {
	var kind Kind
	switch strings.ToLower(filepath.Ext(target)) {
	case ".dot":
		kind = Dot
	case ".mmd":
		kind = Mermaid
	default:
		return Block{}, 0, false
	}

	path := target
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.docDir, filepath.FromSlash(target))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Block{}, 0, false
	}
	source := strings.TrimSpace(string(data))
	if source == "" {
		return Block{}, 0, false
	}

	return Block{
		Kind:      kind,
		Source:    source,
		Start:     s.starts[start],
		End:       s.lineEnd(j),
		Canonical: true,
		Caption:   caption,
	}, j + 1, true
}

// finishDetailsFigure parses the current convention: a <details> region with
// a "{Mermaid|Graphviz} Source" summary wrapping a fenced source block.
func (s *scanner) finishDetailsFigure(start, j int, caption string) (Block, int, bool) {
	if s.trimmed(j) != "<details>" {
		return Block{}, 0, false
	}
	j++
	if j >= len(s.lines) || !isSourceSummary(s.trimmed(j)) {
		return Block{}, 0, false
	}

	j = s.skipBlank(j + 1)
	if j >= len(s.lines) {
		return Block{}, 0, false
	}
	fence := s.trimmed(j)
	if fence != "```mermaid" && fence != "```dot" {
		return Block{}, 0, false
	}
	kind := Kind(strings.TrimPrefix(fence, "```"))

	open := j
	closing := -1
	for k := open + 1; k < len(s.lines); k++ {
		if s.trimmed(k) == "```" {
			closing = k
			break
		}
	}
	if closing == -1 {
		return Block{}, 0, false
	}
	source := strings.TrimSpace(strings.Join(s.lines[open+1:closing], "\n"))
	if source == "" {
		return Block{}, 0, false
	}

	j = s.skipBlank(closing + 1)
	if j >= len(s.lines) || s.trimmed(j) != "</details>" {
		return Block{}, 0, false
	}

	return Block{
		Kind:      kind,
		Source:    source,
		Start:     s.starts[start],
		End:       s.lineEnd(j),
		Canonical: true,
		Caption:   caption,
	}, j + 1, true
}

func (s *scanner) skipBlank(j int) int {
	for j < len(s.lines) && s.trimmed(j) == "" {
		j++
	}
	return j
}

func isImageLine(line string) bool {
	return strings.HasPrefix(line, "![") &&
		strings.Contains(line, "](") &&
		strings.HasSuffix(line, ")")
}

func isSourceSummary(line string) bool {
	return strings.HasPrefix(line, "<summary>") &&
		strings.HasSuffix(line, " Source</summary>")
}

// sourceLinkTarget extracts the link target from a legacy
// "[figure N: caption source](path)" line.
func sourceLinkTarget(line string) (string, bool) {
	if !strings.HasPrefix(line, "[") || !strings.HasSuffix(line, ")") {
		return "", false
	}
	idx := strings.Index(line, " source](")
	if idx == -1 {
		return "", false
	}
	target := strings.TrimSuffix(line[idx+len(" source]("):], ")")
	target = strings.TrimSpace(target)
	if target == "" {
		return "", false
	}
	return target, true
}
