package docgen

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"
)

// A diagram link annotation: a comment reading "See architecture: [..](..)"
// followed by an "@diagram: name.svg" tag naming the artifact the link must
// point at.
var diagramLink = regexp.MustCompile(
	`(\s*(?:#|//)\s*See architecture:\s*)(\[.*?\]\(.*?\))(\s*<!--\s*@diagram:\s*(.*?)\s*-->)`)

var linkTitle = regexp.MustCompile(`\[(.*?)\]`)

var linkableExts = map[string]bool{
	".go": true, ".py": true, ".js": true, ".jsx": true,
	".ts": true, ".tsx": true, ".sh": true, ".md": true,
}

// UpdateDiagramLinks repoints @diagram-tagged links at the artifact's actual
// location under the docs tree, preserving the link text. Returns the number
// of links rewritten.
func UpdateDiagramLinks(root, docsDir, genImagesDir string, out func(format string, args ...any)) (int, error) {
	updates := 0

	err := filepath.Walk(root, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if info.IsDir() {
			base := filepath.Base(path)
			if base == ".git" || base == "node_modules" || base == "gen" {
				return filepath.SkipDir
			}
			return nil
		}
		if !linkableExts[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil || !utf8.Valid(data) {
			return nil
		}
		content := string(data)

		updated := diagramLink.ReplaceAllStringFunc(content, func(match string) string {
			m := diagramLink.FindStringSubmatch(match)
			loc := findArtifact(m[4], docsDir, genImagesDir)
			if loc == "" {
				return match
			}
			rel, err := filepath.Rel(filepath.Dir(path), loc)
			if err != nil {
				return match
			}

			title := m[4]
			if tm := linkTitle.FindStringSubmatch(m[2]); tm != nil {
				title = tm[1]
			}
			newLink := fmt.Sprintf("[%s](%s)", title, filepath.ToSlash(rel))
			if newLink == m[2] {
				return match
			}
			updates++
			return m[1] + newLink + m[3]
		})

		if updated != content {
			if err := os.WriteFile(path, []byte(updated), info.Mode().Perm()); err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}
			if out != nil {
				if rel, err := filepath.Rel(root, path); err == nil {
					out("updated diagram links in %s", rel)
				}
			}
		}
		return nil
	})
	if err != nil {
		return updates, err
	}
	return updates, nil
}

func findArtifact(name, docsDir, genImagesDir string) string {
	candidates := []string{
		filepath.Join(docsDir, "assets", "diagrams", name),
		filepath.Join(docsDir, "assets", "images", name),
		filepath.Join(genImagesDir, name),
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}
