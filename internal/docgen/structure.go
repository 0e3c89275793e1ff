package docgen

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ade-dev/ade/internal/fileutil"
)

var nodeIDChars = regexp.MustCompile(`[^a-zA-Z0-9]`)

var structureSkipDirs = map[string]bool{
	"node_modules": true,
	"venv":         true,
	"env":          true,
	"__pycache__":  true,
	"dist":         true,
	"build":        true,
}

var structureExts = map[string]bool{
	".go": true, ".py": true, ".js": true, ".jsx": true,
	".ts": true, ".tsx": true, ".sh": true, ".md": true,
}

// BuildStructureDot renders the project tree as a graphviz digraph: folders
// as folder-shaped nodes, code files colored by language, documented files
// marked and carrying the first doc line as a tooltip.
func BuildStructureDot(root string, docs map[string]string) (string, error) {
	var b strings.Builder
	b.WriteString("digraph ProjectStructure {\n")
	b.WriteString("  node [shape=box, style=filled, fillcolor=white, fontname=\"Helvetica\"];\n")
	b.WriteString("  edge [color=\"#666666\"];\n")
	b.WriteString("  bgcolor=\"transparent\";\n")
	fmt.Fprintf(&b, "  label=%q;\n", filepath.Base(root)+" Structure")
	b.WriteString("  labelloc=\"t\";\n")

	seenDirs := make(map[string]bool)
	err := filepath.Walk(root, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil || rel == "." {
			return nil
		}

		base := filepath.Base(path)
		if info.IsDir() {
			if strings.HasPrefix(base, ".") || structureSkipDirs[base] {
				return filepath.SkipDir
			}
			id := nodeID(rel)
			if !seenDirs[id] {
				fmt.Fprintf(&b, "  %s [label=%q, shape=folder, fillcolor=\"#E3F2FD\"];\n", id, base+"/")
				seenDirs[id] = true
			}
			if parent := filepath.Dir(rel); parent != "." {
				fmt.Fprintf(&b, "  %s -> %s;\n", nodeID(parent), id)
			}
			return nil
		}

		if !structureExts[strings.ToLower(filepath.Ext(base))] {
			return nil
		}

		label := base
		tooltip := ""
		if doc, ok := docs[filepath.ToSlash(rel)]; ok {
			label += " *"
			tooltip = firstDocLine(doc)
		}
		fmt.Fprintf(&b, "  %s [label=%q, fillcolor=%q, tooltip=%q];\n",
			nodeID(rel), label, fileColor(base), tooltip)
		if parent := filepath.Dir(rel); parent != "." {
			fmt.Fprintf(&b, "  %s -> %s;\n", nodeID(parent), nodeID(rel))
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to walk %s: %w", root, err)
	}

	b.WriteString("}\n")
	return b.String(), nil
}

// GenerateStructureMap writes the structure digraph next to svgPath and
// renders it with graphviz. Missing dot is a soft skip.
func GenerateStructureMap(root, svgPath string, docs map[string]string, warn func(format string, args ...any)) error {
	if _, err := exec.LookPath("dot"); err != nil {
		if warn != nil {
			warn("warning: 'dot' not found, structure map skipped")
		}
		return nil
	}

	content, err := BuildStructureDot(root, docs)
	if err != nil {
		return err
	}
	dotPath := strings.TrimSuffix(svgPath, filepath.Ext(svgPath)) + ".dot"
	changed, err := fileutil.WriteIfChangedTracked(dotPath, []byte(content))
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", dotPath, err)
	}
	if !changed {
		if _, statErr := os.Stat(svgPath); statErr == nil {
			return nil
		}
	}

	if out, err := exec.Command("dot", "-Tsvg", dotPath, "-o", svgPath).CombinedOutput(); err != nil {
		return fmt.Errorf("failed to render structure map: %v: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

func nodeID(rel string) string {
	return nodeIDChars.ReplaceAllString(rel, "_")
}

func fileColor(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".py":
		return "#FFF3E0"
	case ".js", ".jsx", ".ts", ".tsx":
		return "#FFF8E1"
	case ".go":
		return "#E0F2F1"
	case ".sh":
		return "#ECEFF1"
	default:
		return "#FFFFFF"
	}
}

func firstDocLine(doc string) string {
	for _, line := range strings.Split(doc, "\n") {
		if s := strings.TrimSpace(line); s != "" {
			return s
		}
	}
	return ""
}
