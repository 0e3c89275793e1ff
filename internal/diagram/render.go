package diagram

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Renderer turns diagram source text into an SVG file on disk. The exec
// implementation shells out to graphviz and mermaid-cli; tests substitute a
// stub so reconciliation can run without either installed.
type Renderer interface {
	Render(kind Kind, source, svgPath string) error
}

// ExecRenderer renders via the system `dot` binary for graphviz and
// `npx @mermaid-js/mermaid-cli` for mermaid. A missing binary surfaces as a
// render error; it is never retried within a run.
type ExecRenderer struct{}

func (ExecRenderer) Render(kind Kind, source, svgPath string) error {
	srcPath := strings.TrimSuffix(svgPath, filepath.Ext(svgPath)) + kind.SourceExt()
	if err := os.WriteFile(srcPath, []byte(source), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", srcPath, err)
	}

	var cmd *exec.Cmd
	switch kind {
	case Dot:
		cmd = exec.Command("dot", "-Tsvg", "-Gbgcolor=white", srcPath, "-o", svgPath)
	case Mermaid:
		cmd = exec.Command("npx", "-y", "@mermaid-js/mermaid-cli", "-i", srcPath, "-o", svgPath, "-b", "white")
	default:
		return fmt.Errorf("unknown diagram kind %q", kind)
	}

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%s render failed: %v: %s", kind, err, firstLine(msg))
		}
		return fmt.Errorf("%s render failed: %w", kind, err)
	}
	return nil
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx != -1 {
		return s[:idx]
	}
	return s
}
