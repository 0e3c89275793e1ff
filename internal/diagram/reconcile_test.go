package diagram

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ade-dev/ade/internal/ignore"
)

// stubRenderer records render requests and writes a placeholder SVG unless
// told to fail, so reconciliation runs without graphviz or mermaid-cli.
type stubRenderer struct {
	calls []string
	fail  bool
}

func (s *stubRenderer) Render(kind Kind, source, svgPath string) error {
	s.calls = append(s.calls, filepath.Base(svgPath))
	if s.fail {
		return errors.New("render failed")
	}
	return os.WriteFile(svgPath, []byte("<svg/>"), 0644)
}

func newTestReconciler(root string) (*Reconciler, *stubRenderer) {
	stub := &stubRenderer{}
	r := NewReconciler(root, stub)
	r.Out = io.Discard
	return r, stub
}

func writeDoc(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func readDoc(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

const dotDoc = "# Architecture\n\nOverview below.\n\n" +
	fence + "dot\ndigraph G { label=\"System Architecture\"; A -> B; }\n" + fence + "\n\nDone.\n"

func TestReconcileRewritesDotBlock(t *testing.T) {
	root := t.TempDir()
	docPath := filepath.Join(root, "arch.md")
	writeDoc(t, docPath, dotDoc)

	r, stub := newTestReconciler(root)
	res, err := r.Run(nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Documents != 1 || res.Changed != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(stub.calls) != 1 {
		t.Fatalf("expected 1 render, got %d", len(stub.calls))
	}

	got := readDoc(t, docPath)
	for _, want := range []string{
		"figure 1: System Architecture",
		"![figure 1: System Architecture](docs/assets/diagrams/arch_1_system_architecture.svg)",
		"<summary>Graphviz Source</summary>",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("document missing %q:\n%s", want, got)
		}
	}
	if !strings.HasPrefix(got, "# Architecture\n") || !strings.HasSuffix(got, "Done.\n") {
		t.Fatalf("surrounding prose disturbed:\n%s", got)
	}

	svg := filepath.Join(r.DiagramsDir(), "arch_1_system_architecture.svg")
	src := filepath.Join(r.DiagramsDir(), "arch_1_system_architecture.dot")
	if _, err := os.Stat(svg); err != nil {
		t.Fatalf("missing svg: %v", err)
	}
	data, err := os.ReadFile(src)
	if err != nil {
		t.Fatalf("missing tracking file: %v", err)
	}
	if string(data) != `digraph G { label="System Architecture"; A -> B; }` {
		t.Fatalf("tracking file content: %q", data)
	}
}

func TestReconcileIsIdempotent(t *testing.T) {
	root := t.TempDir()
	docPath := filepath.Join(root, "arch.md")
	writeDoc(t, docPath, dotDoc)

	r, _ := newTestReconciler(root)
	if _, err := r.Run(nil, nil); err != nil {
		t.Fatal(err)
	}
	first := readDoc(t, docPath)

	r2, stub2 := newTestReconciler(root)
	res, err := r2.Run(nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Changed != 0 || res.Deleted != 0 {
		t.Fatalf("second run must be a no-op: %+v", res)
	}
	if len(stub2.calls) != 0 {
		t.Fatalf("second run recompiled: %v", stub2.calls)
	}
	if got := readDoc(t, docPath); got != first {
		t.Fatalf("document drifted between runs:\n%s", got)
	}
}

func TestReconcileNumbersMixedKinds(t *testing.T) {
	root := t.TempDir()
	docPath := filepath.Join(root, "flows.md")
	writeDoc(t, docPath,
		fence+"mermaid\ngraph TD\n    A --> B\n"+fence+"\n\n"+
			fence+"mermaid\nsequenceDiagram\n    A->>B: hi\n"+fence+"\n\n"+
			fence+"dot\ndigraph G { X -> Y; }\n"+fence+"\n")

	r, stub := newTestReconciler(root)
	if _, err := r.Run(nil, nil); err != nil {
		t.Fatal(err)
	}
	if len(stub.calls) != 3 {
		t.Fatalf("expected 3 renders, got %v", stub.calls)
	}

	got := readDoc(t, docPath)
	for _, want := range []string{"figure 1: diagram", "figure 2: diagram", "figure 3: diagram"} {
		if !strings.Contains(got, want) {
			t.Fatalf("missing %q in:\n%s", want, got)
		}
	}
	for _, name := range []string{"flows_1_diagram.mmd", "flows_2_diagram.mmd", "flows_3_diagram.dot"} {
		if _, err := os.Stat(filepath.Join(r.DiagramsDir(), name)); err != nil {
			t.Fatalf("missing artifact %s", name)
		}
	}
}

func TestReconcileRecompilesOnSourceChange(t *testing.T) {
	root := t.TempDir()
	docPath := filepath.Join(root, "arch.md")
	writeDoc(t, docPath, dotDoc)

	r, _ := newTestReconciler(root)
	if _, err := r.Run(nil, nil); err != nil {
		t.Fatal(err)
	}

	// Edit the diagram source inside the canonical block; the caption
	// (from the graphviz label) stays put.
	edited := strings.Replace(readDoc(t, docPath), "A -> B;", "A -> C;", 1)
	writeDoc(t, docPath, edited)

	r2, stub2 := newTestReconciler(root)
	res, err := r2.Run(nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	// The document already holds the edited source in canonical form, so
	// only the artifacts are refreshed.
	if res.Changed != 0 {
		t.Fatalf("expected no document change, got %+v", res)
	}
	if len(stub2.calls) != 1 {
		t.Fatalf("expected exactly one recompile, got %v", stub2.calls)
	}
	data, err := os.ReadFile(filepath.Join(r2.DiagramsDir(), "arch_1_system_architecture.dot"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "A -> C;") {
		t.Fatalf("tracking file not refreshed: %q", data)
	}
}

func TestReconcileCheckModeWritesNothing(t *testing.T) {
	root := t.TempDir()
	docPath := filepath.Join(root, "arch.md")
	writeDoc(t, docPath, dotDoc)

	r, stub := newTestReconciler(root)
	r.Check = true
	res, err := r.Run(nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Changed != 1 {
		t.Fatalf("check mode must report the pending change: %+v", res)
	}
	if len(stub.calls) != 0 {
		t.Fatalf("check mode rendered: %v", stub.calls)
	}
	if got := readDoc(t, docPath); got != dotDoc {
		t.Fatalf("check mode modified the document:\n%s", got)
	}
	if _, err := os.Stat(r.DiagramsDir()); !os.IsNotExist(err) {
		t.Fatalf("check mode created the diagrams directory")
	}
}

func TestGarbageCollectionRemovesUnreferenced(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, filepath.Join(root, "arch.md"), dotDoc)

	r, _ := newTestReconciler(root)
	if _, err := r.Run(nil, nil); err != nil {
		t.Fatal(err)
	}

	rogue := filepath.Join(r.DiagramsDir(), "old_1_thing.svg")
	keep := filepath.Join(r.DiagramsDir(), "notes.txt")
	writeDoc(t, rogue, "<svg/>")
	writeDoc(t, keep, "not an artifact")

	res, err := r.Run(nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Deleted != 1 {
		t.Fatalf("expected 1 deletion, got %+v", res)
	}
	if _, err := os.Stat(rogue); !os.IsNotExist(err) {
		t.Fatalf("rogue artifact survived")
	}
	if _, err := os.Stat(keep); err != nil {
		t.Fatalf("non-artifact file deleted: %v", err)
	}
	if _, err := os.Stat(filepath.Join(r.DiagramsDir(), "arch_1_system_architecture.svg")); err != nil {
		t.Fatalf("referenced artifact deleted: %v", err)
	}
}

func TestCaptionChangeRenamesArtifacts(t *testing.T) {
	root := t.TempDir()
	docPath := filepath.Join(root, "states.md")
	writeDoc(t, docPath,
		fence+"mermaid\n---\ntitle: First Title\n---\ngraph TD\n    A --> B\n"+fence+"\n")

	r, _ := newTestReconciler(root)
	if _, err := r.Run(nil, nil); err != nil {
		t.Fatal(err)
	}
	oldSVG := filepath.Join(r.DiagramsDir(), "states_1_first_title.svg")
	if _, err := os.Stat(oldSVG); err != nil {
		t.Fatal(err)
	}

	edited := strings.Replace(readDoc(t, docPath), "title: First Title", "title: Second Title", 1)
	writeDoc(t, docPath, edited)

	r2, stub2 := newTestReconciler(root)
	res, err := r2.Run(nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(stub2.calls) != 1 {
		t.Fatalf("expected one recompile under the new name, got %v", stub2.calls)
	}
	// Old svg and tracking file both go.
	if res.Deleted != 2 {
		t.Fatalf("expected old artifacts collected, got %+v", res)
	}
	if _, err := os.Stat(oldSVG); !os.IsNotExist(err) {
		t.Fatalf("old artifact survived rename")
	}
	if _, err := os.Stat(filepath.Join(r2.DiagramsDir(), "states_1_second_title.svg")); err != nil {
		t.Fatalf("renamed artifact missing: %v", err)
	}
	if !strings.Contains(readDoc(t, docPath), "figure 1: Second Title") {
		t.Fatalf("header not renamed:\n%s", readDoc(t, docPath))
	}
}

func TestRenderFailureRetriesUntilSuccess(t *testing.T) {
	root := t.TempDir()
	docPath := filepath.Join(root, "arch.md")
	writeDoc(t, docPath, dotDoc)

	r, stub := newTestReconciler(root)
	stub.fail = true
	if _, err := r.Run(nil, nil); err != nil {
		t.Fatal(err)
	}
	if len(stub.calls) != 1 {
		t.Fatalf("expected one attempt, got %v", stub.calls)
	}
	// The document is rewritten and the source tracked even though the
	// render failed; the missing svg is what forces the retry.
	if _, err := os.Stat(filepath.Join(r.DiagramsDir(), "arch_1_system_architecture.dot")); err != nil {
		t.Fatalf("tracking file not written on failure: %v", err)
	}

	r2, stub2 := newTestReconciler(root)
	if _, err := r2.Run(nil, nil); err != nil {
		t.Fatal(err)
	}
	if len(stub2.calls) != 1 {
		t.Fatalf("expected a retry, got %v", stub2.calls)
	}

	r3, stub3 := newTestReconciler(root)
	if _, err := r3.Run(nil, nil); err != nil {
		t.Fatal(err)
	}
	if len(stub3.calls) != 0 {
		t.Fatalf("expected no further renders, got %v", stub3.calls)
	}
}

func TestRunRespectsIgnoreRules(t *testing.T) {
	root := t.TempDir()
	ignored := fence + "dot\ndigraph G { A -> B; }\n" + fence + "\n"
	writeDoc(t, filepath.Join(root, "node_modules", "pkg", "readme.md"), ignored)
	writeDoc(t, filepath.Join(root, "arch.md"), dotDoc)

	r, _ := newTestReconciler(root)
	res, err := r.Run(ignore.NewMatcher(nil), nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Documents != 1 {
		t.Fatalf("expected only the root document, got %+v", res)
	}
	if got := readDoc(t, filepath.Join(root, "node_modules", "pkg", "readme.md")); got != ignored {
		t.Fatalf("ignored document was rewritten:\n%s", got)
	}
}

func TestRunCompilesStandaloneDot(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, filepath.Join(root, "graphs", "deps.dot"), "digraph G { A -> B; }\n")

	r, stub := newTestReconciler(root)
	if _, err := r.Run(nil, nil); err != nil {
		t.Fatal(err)
	}
	if len(stub.calls) != 1 || stub.calls[0] != "deps.svg" {
		t.Fatalf("expected standalone compile, got %v", stub.calls)
	}
	if _, err := os.Stat(filepath.Join(root, "graphs", "deps.svg")); err != nil {
		t.Fatalf("sibling svg missing: %v", err)
	}
}

func TestRunFailsOnMissingRoot(t *testing.T) {
	r, stub := newTestReconciler(filepath.Join(t.TempDir(), "nonexistent"))
	if _, err := r.Run(nil, nil); err == nil {
		t.Fatal("expected an error for a missing root")
	}
	r.Check = true
	if _, err := r.Run(nil, nil); err == nil {
		t.Fatal("check mode must also fail on a missing root")
	}
	if len(stub.calls) != 0 {
		t.Fatalf("rendered against a missing root: %v", stub.calls)
	}
}

func TestRunFailsOnFileRoot(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "arch.md")
	writeDoc(t, file, dotDoc)

	r, _ := newTestReconciler(file)
	if _, err := r.Run(nil, nil); err == nil {
		t.Fatal("expected an error for a non-directory root")
	}
}

func TestLegacyLinkedFigureKeepsCaption(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, filepath.Join(root, "layout.dot"),
		"digraph G { label=\"System Architecture\"; A -> B; }\n")
	docPath := filepath.Join(root, "doc.md")
	writeDoc(t, docPath,
		"figure 4: System Layout\n\n"+
			"![figure 4: System Layout](layout.svg)\n\n"+
			"[figure 4: System Layout source](layout.dot)\n")

	r, _ := newTestReconciler(root)
	if _, err := r.Run(nil, nil); err != nil {
		t.Fatal(err)
	}

	got := readDoc(t, docPath)
	if !strings.Contains(got, "figure 1: System Layout") {
		t.Fatalf("author caption not preserved:\n%s", got)
	}
	if strings.Contains(got, "system_architecture") {
		t.Fatalf("caption re-derived from the diagram label:\n%s", got)
	}
	for _, name := range []string{"doc_1_system_layout.svg", "doc_1_system_layout.dot"} {
		if _, err := os.Stat(filepath.Join(r.DiagramsDir(), name)); err != nil {
			t.Fatalf("missing artifact %s: %v", name, err)
		}
	}
}

func TestReconcileDocumentRejectsBinary(t *testing.T) {
	root := t.TempDir()
	docPath := filepath.Join(root, "bad.md")
	if err := os.WriteFile(docPath, []byte{0xff, 0xfe, 0x00, 0x41}, 0644); err != nil {
		t.Fatal(err)
	}

	r, _ := newTestReconciler(root)
	if _, err := r.ReconcileDocument(docPath, NewValidFileSet()); !errors.Is(err, ErrNotText) {
		t.Fatalf("expected ErrNotText, got %v", err)
	}
}

func TestRunHonorsOwnershipFilter(t *testing.T) {
	root := t.TempDir()
	theirs := filepath.Join(root, "theirs.md")
	writeDoc(t, theirs, dotDoc)
	writeDoc(t, filepath.Join(root, "ours.md"), dotDoc)

	r, _ := newTestReconciler(root)
	res, err := r.Run(nil, func(path string) bool {
		return filepath.Base(path) == "ours.md"
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Documents != 1 || res.Changed != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if got := readDoc(t, theirs); got != dotDoc {
		t.Fatalf("unowned document was rewritten:\n%s", got)
	}
}
