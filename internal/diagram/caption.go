package diagram

import (
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	graphvizLabel  = regexp.MustCompile(`label\s*=\s*"(.*?)"`)
	captionComment = regexp.MustCompile(`(?i)<!--\s*caption:\s*(.*?)\s*-->`)
	nonNameChars   = regexp.MustCompile(`[^\w\s-]`)
	separatorRuns  = regexp.MustCompile(`[-\s]+`)
)

// ExtractCaption derives a title for a diagram block. Precedence: frontmatter
// title, graphviz label, a caption comment on the last non-blank line before
// the block, then the literal "diagram". Never returns an empty string.
func ExtractCaption(source, doc string, start int) string {
	if title := frontmatterTitle(source); title != "" {
		return title
	}
	if m := graphvizLabel.FindStringSubmatch(source); m != nil {
		if label := strings.TrimSpace(m[1]); label != "" {
			return label
		}
	}
	if start > 0 && start <= len(doc) {
		prefix := strings.TrimSpace(doc[:start])
		lines := strings.Split(prefix, "\n")
		last := strings.TrimSpace(lines[len(lines)-1])
		if m := captionComment.FindStringSubmatch(last); m != nil {
			if caption := strings.TrimSpace(m[1]); caption != "" {
				return caption
			}
		}
	}
	return "diagram"
}

// frontmatterTitle reads the title out of a leading YAML frontmatter fence,
// the convention mermaid uses for diagram titles.
func frontmatterTitle(source string) string {
	lines := strings.Split(source, "\n")
	i := 0
	for i < len(lines) && strings.TrimSpace(lines[i]) == "" {
		i++
	}
	if i >= len(lines) || strings.TrimSpace(lines[i]) != "---" {
		return ""
	}

	body := make([]string, 0)
	closed := false
	for j := i + 1; j < len(lines); j++ {
		if strings.TrimSpace(lines[j]) == "---" {
			closed = true
			break
		}
		body = append(body, lines[j])
	}
	if !closed {
		return ""
	}

	var meta struct {
		Title string `yaml:"title"`
	}
	if err := yaml.Unmarshal([]byte(strings.Join(body, "\n")), &meta); err != nil {
		// Frontmatter that is not strict YAML still counts if a title
		// line is recognizable.
		for _, line := range body {
			if rest, ok := strings.CutPrefix(strings.TrimSpace(line), "title:"); ok {
				return strings.TrimSpace(rest)
			}
		}
		return ""
	}
	return strings.TrimSpace(meta.Title)
}

// SanitizeName maps a caption to a filename-safe slug: non-word characters
// stripped, lowercased, whitespace and hyphen runs collapsed to underscores.
// Empty input yields an empty string; the caller supplies the fallback.
func SanitizeName(text string) string {
	s := nonNameChars.ReplaceAllString(text, "")
	s = strings.ToLower(strings.TrimSpace(s))
	return separatorRuns.ReplaceAllString(s, "_")
}
