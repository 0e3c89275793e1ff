package docgen

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestUpdateDiagramLinks(t *testing.T) {
	root := t.TempDir()
	docsDir := filepath.Join(root, "docs")
	writeFile(t, filepath.Join(docsDir, "assets", "diagrams", "flow.svg"), "<svg/>")

	srcPath := filepath.Join(root, "pkg", "main.py")
	writeFile(t, srcPath,
		"# See architecture: [Flow Diagram](wrong/path.svg) <!-- @diagram: flow.svg -->\nprint('hi')\n")

	updates, err := UpdateDiagramLinks(root, docsDir, filepath.Join(docsDir, "gen", "images"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if updates != 1 {
		t.Fatalf("expected 1 update, got %d", updates)
	}

	data, err := os.ReadFile(srcPath)
	if err != nil {
		t.Fatal(err)
	}
	got := string(data)
	if !strings.Contains(got, "[Flow Diagram](../docs/assets/diagrams/flow.svg)") {
		t.Fatalf("link not repointed (title must survive):\n%s", got)
	}
	if !strings.Contains(got, "<!-- @diagram: flow.svg -->") {
		t.Fatalf("tag must survive:\n%s", got)
	}
}

func TestUpdateDiagramLinksMissingArtifact(t *testing.T) {
	root := t.TempDir()
	srcPath := filepath.Join(root, "main.py")
	original := "# See architecture: [x](y.svg) <!-- @diagram: absent.svg -->\n"
	writeFile(t, srcPath, original)

	updates, err := UpdateDiagramLinks(root, filepath.Join(root, "docs"), filepath.Join(root, "docs", "gen", "images"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if updates != 0 {
		t.Fatalf("expected no updates, got %d", updates)
	}
	data, _ := os.ReadFile(srcPath)
	if string(data) != original {
		t.Fatalf("file with missing artifact changed:\n%s", data)
	}
}

func TestFixDoxygenLinks(t *testing.T) {
	htmlDir := t.TempDir()
	writeFile(t, filepath.Join(htmlDir, "md_docs_guide.html"), "<html/>")
	writeFile(t, filepath.Join(htmlDir, "index.html"),
		`<a href="docs/guide.md#setup">guide</a> <a href="missing/page.md">missing</a>`)

	if err := FixDoxygenLinks(htmlDir); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(htmlDir, "index.html"))
	if err != nil {
		t.Fatal(err)
	}
	got := string(data)
	if !strings.Contains(got, `href="md_docs_guide.html#setup"`) {
		t.Fatalf("resolvable link not rewritten:\n%s", got)
	}
	if !strings.Contains(got, `href="missing/page.md"`) {
		t.Fatalf("unresolvable link must stay:\n%s", got)
	}
}
