package docgen

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ade-dev/ade/internal/languages"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func newExtractor(root string) *Extractor {
	return &Extractor{
		Registry: languages.NewDefaultRegistry(),
		GenDir:   filepath.Join(root, "docs", "gen"),
	}
}

func TestExtractPythonDocBlock(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "tool.py"), `## @DOC
# ### Tool Overview
# Does the thing.
#
# Second paragraph.
import sys

# unrelated comment
`)

	docs, err := newExtractor(root).Extract(root, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	got, ok := docs["tool.py"]
	if !ok {
		t.Fatalf("tool.py not captured: %v", docs)
	}
	want := "### Tool Overview\nDoes the thing.\n\nSecond paragraph."
	if got != want {
		t.Fatalf("captured %q, want %q", got, want)
	}
}

func TestExtractGoDocBlock(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "main.go"), `package main

// ## @DOC
// ### Entry Point
// Starts the service.
func main() {}
`)

	docs, err := newExtractor(root).Extract(root, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := "### Entry Point\nStarts the service."
	if docs["main.go"] != want {
		t.Fatalf("captured %q, want %q", docs["main.go"], want)
	}
}

func TestExtractStopsAtCode(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "run.sh"), `#!/bin/sh
## @DOC
# In the block.
echo hi
# Not in the block.
`)

	docs, err := newExtractor(root).Extract(root, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if docs["run.sh"] != "In the block." {
		t.Fatalf("captured %q", docs["run.sh"])
	}
}

func TestExtractMarkdownCapturesToEOF(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "notes.md"), "intro\n\n## @DOC\nFirst line.\nSecond line.\n")

	docs, err := newExtractor(root).Extract(root, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if docs["notes.md"] != "First line.\nSecond line." {
		t.Fatalf("captured %q", docs["notes.md"])
	}
}

func TestExtractRewritesRelativeLinks(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "sub", "page.md"),
		"## @DOC\nSee [guide](../guide.md) and [site](https://example.com) and [anchor](#top).\n")

	docs, err := newExtractor(root).Extract(root, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	got := docs["sub/page.md"]
	if !strings.Contains(got, "[guide](../../guide.md)") {
		t.Fatalf("relative link not rewritten: %q", got)
	}
	if !strings.Contains(got, "[site](https://example.com)") || !strings.Contains(got, "[anchor](#top)") {
		t.Fatalf("absolute links must be untouched: %q", got)
	}
}

func TestExtractSkipsGeneratedSpec(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "proj_DESIGN_SPEC.md"), "## @DOC\nloop\n")

	docs, err := newExtractor(root).Extract(root, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 0 {
		t.Fatalf("generated spec must not be re-extracted: %v", docs)
	}
}

func TestWriteDesignSpec(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "gen", "demo_DESIGN_SPEC.md")
	docs := map[string]string{
		"b/tool.py": "tool docs",
		"a/main.go": "entry docs",
	}

	if err := WriteDesignSpec(docs, out, "demo"); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	if !strings.HasPrefix(text, "# Automated Design Specification: demo\n") {
		t.Fatalf("missing title:\n%s", text)
	}
	// Sections sorted by path.
	if strings.Index(text, "a/main.go") > strings.Index(text, "b/tool.py") {
		t.Fatalf("sections out of order:\n%s", text)
	}
	if !strings.Contains(text, "## [a/main.go](../a/main.go)") {
		t.Fatalf("missing section link:\n%s", text)
	}
}

func TestWriteDesignSpecEmptyWritesNothing(t *testing.T) {
	out := filepath.Join(t.TempDir(), "spec.md")
	if err := WriteDesignSpec(nil, out, "demo"); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Fatalf("spec written for empty docs")
	}
}
