package diagram

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ade-dev/ade/internal/fileutil"
	"github.com/ade-dev/ade/internal/ignore"
)

// ErrNotText marks a document that could not be decoded as UTF-8 text.
var ErrNotText = errors.New("not valid UTF-8 text")

// Leftover figure header lines from older conventions, stripped from the
// text between accepted blocks so reruns converge.
var strayFigureLines = regexp.MustCompile(`(?m)^figure \d+: .*\n+`)

var artifactExts = map[string]bool{".svg": true, ".dot": true, ".mmd": true}

// ValidFileSet collects the artifact paths still referenced by some document
// after reconciliation. It is built during a run and consumed once by the
// garbage collector; there is no state between runs beyond the files on disk.
type ValidFileSet map[string]bool

func NewValidFileSet() ValidFileSet {
	return make(ValidFileSet)
}

func (s ValidFileSet) Add(paths ...string) {
	for _, p := range paths {
		s[resolvePath(p)] = true
	}
}

func (s ValidFileSet) Has(path string) bool {
	return s[resolvePath(path)]
}

func resolvePath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}

// Reconciler rewrites markdown documents so every diagram block is in
// canonical figure form with an up-to-date compiled artifact. With Check set
// it only reports what would change and issues no writes at all.
type Reconciler struct {
	Root     string
	Renderer Renderer
	Check    bool
	Out      io.Writer
}

func NewReconciler(root string, renderer Renderer) *Reconciler {
	return &Reconciler{Root: root, Renderer: renderer, Out: os.Stdout}
}

// DiagramsDir is the shared artifact directory for the project.
func (r *Reconciler) DiagramsDir() string {
	return filepath.Join(r.Root, "docs", "assets", "diagrams")
}

// RunResult summarizes one full reconciliation pass.
type RunResult struct {
	Documents int
	Changed   int
	Deleted   int
}

// Run walks the project, compiles standalone .dot files, reconciles every
// markdown document, and finally garbage-collects unreferenced artifacts.
// The reconcile-all-then-collect order is load-bearing: collecting per
// document would delete artifacts owned by documents processed later.
func (r *Reconciler) Run(matcher *ignore.Matcher, owned func(string) bool) (RunResult, error) {
	result := RunResult{}
	info, err := os.Stat(r.Root)
	if err != nil {
		return result, fmt.Errorf("cannot access %s: %w", r.Root, err)
	}
	if !info.IsDir() {
		return result, fmt.Errorf("%s is not a directory", r.Root)
	}

	valid := NewValidFileSet()
	diagramsDir := r.DiagramsDir()

	var mdFiles []string
	err = filepath.Walk(r.Root, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		relPath, relErr := filepath.Rel(r.Root, path)
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

		switch strings.ToLower(filepath.Ext(path)) {
		case ".md":
			mdFiles = append(mdFiles, path)
		case ".dot":
			if strings.HasPrefix(path, diagramsDir+string(filepath.Separator)) {
				return nil
			}
			r.compileStandaloneDot(path)
		}
		return nil
	})
	if err != nil {
		return result, fmt.Errorf("failed to walk %s: %w", r.Root, err)
	}

	for _, mdFile := range mdFiles {
		if owned != nil && !owned(mdFile) {
			continue
		}
		result.Documents++
		changed, err := r.ReconcileDocument(mdFile, valid)
		if err != nil {
			fmt.Fprintf(r.Out, "warning: skipping %s: %v\n", mdFile, err)
			continue
		}
		if changed {
			result.Changed++
		}
	}

	if !r.Check {
		deleted, err := r.CollectGarbage(valid)
		if err != nil {
			return result, err
		}
		result.Deleted = deleted
	}
	return result, nil
}

func (r *Reconciler) compileStandaloneDot(path string) {
	if r.Check {
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(r.Out, "warning: failed to read %s: %v\n", path, err)
		return
	}
	svgPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".svg"
	fmt.Fprintf(r.Out, "compiling standalone dot: %s\n", filepath.Base(path))
	if err := r.Renderer.Render(Dot, strings.TrimSpace(string(data)), svgPath); err != nil {
		fmt.Fprintf(r.Out, "warning: %v\n", err)
	}
}

// ReconcileDocument brings one markdown document and its compiled artifacts
// into canonical form. Referenced artifact paths are added to valid. Returns
// whether the document changed (or would change, in check mode).
func (r *Reconciler) ReconcileDocument(docPath string, valid ValidFileSet) (bool, error) {
	data, err := os.ReadFile(docPath)
	if err != nil {
		return false, err
	}
	if !utf8.Valid(data) {
		return false, ErrNotText
	}
	content := string(data)
	docDir := filepath.Dir(docPath)

	blocks := Locate(content, docDir)
	if len(blocks) == 0 {
		return false, nil
	}

	diagramsDir := r.DiagramsDir()
	if !r.Check {
		if err := os.MkdirAll(diagramsDir, 0755); err != nil {
			return false, fmt.Errorf("failed to create %s: %w", diagramsDir, err)
		}
	}

	stem := strings.TrimSuffix(filepath.Base(docPath), filepath.Ext(docPath))
	fragments := make([]string, 0, len(blocks)*2+1)
	lastIdx := 0
	changed := false

	for _, blk := range blocks {
		caption := r.resolveCaption(blk, content, stem, diagramsDir)
		slug := SanitizeName(caption)
		if slug == "" {
			slug = "diagram"
		}

		name := fmt.Sprintf("%s_%d_%s", stem, blk.Index, slug)
		svgPath := filepath.Join(diagramsDir, name+".svg")
		srcPath := filepath.Join(diagramsDir, name+blk.Kind.SourceExt())
		valid.Add(svgPath, srcPath)

		if !r.Check && needsRecompile(svgPath, srcPath, blk.Source) {
			fmt.Fprintf(r.Out, "  compiling %s diagram: %s\n", blk.Kind, name)
			if err := r.Renderer.Render(blk.Kind, blk.Source, svgPath); err != nil {
				fmt.Fprintf(r.Out, "warning: %v\n", err)
			}
			// Track the requested source even when the render failed,
			// so reruns compare against the latest content. The missing
			// SVG keeps forcing retries until the render succeeds.
			if err := fileutil.WriteIfChanged(srcPath, []byte(blk.Source)); err != nil {
				return false, fmt.Errorf("failed to write %s: %w", srcPath, err)
			}
		}

		relSVG, relErr := filepath.Rel(docDir, svgPath)
		if relErr != nil {
			relSVG = svgPath
		}
		replacement := CanonicalText(blk.Index, caption, filepath.ToSlash(relSVG), blk.Kind, blk.Source)

		prefix := content[lastIdx:blk.Start]
		cleaned := strayFigureLines.ReplaceAllString(prefix, "")
		if cleaned != prefix {
			changed = true
		}
		fragments = append(fragments, cleaned, replacement)

		if strings.TrimSpace(content[blk.Start:blk.End]) != strings.TrimSpace(replacement) {
			changed = true
		}
		lastIdx = blk.End
	}
	fragments = append(fragments, content[lastIdx:])

	if changed && !r.Check {
		if err := os.WriteFile(docPath, []byte(strings.Join(fragments, "")), 0644); err != nil {
			return false, fmt.Errorf("failed to write %s: %w", docPath, err)
		}
		fmt.Fprintf(r.Out, "  updated %s\n", filepath.Base(docPath))
	}
	return changed, nil
}

// resolveCaption keeps the caption of a canonical block stable when its
// tracked source is unchanged or not tracked yet, and re-derives it when the
// source moved out from under the caption. Stability matters: the caption feeds the
// artifact filename, and renaming artifacts for no content change would make
// garbage-collection churn.
func (r *Reconciler) resolveCaption(blk Block, content, stem, diagramsDir string) string {
	if blk.Canonical && blk.Caption != "" {
		slug := SanitizeName(blk.Caption)
		if slug == "" {
			slug = "diagram"
		}
		name := fmt.Sprintf("%s_%d_%s", stem, blk.Index, slug)
		tracked, err := os.ReadFile(filepath.Join(diagramsDir, name+blk.Kind.SourceExt()))
		if os.IsNotExist(err) {
			// First sighting of an already-captioned figure, typically the
			// older link-only convention: keep the author's caption.
			return blk.Caption
		}
		if err == nil && strings.TrimSpace(string(tracked)) == blk.Source {
			return blk.Caption
		}
	}
	return ExtractCaption(blk.Source, content, blk.Start)
}

// Recompilation triggers when the rendered SVG is missing, the tracking file
// is missing, or the tracked source no longer matches the block.
func needsRecompile(svgPath, srcPath, source string) bool {
	if _, err := os.Stat(svgPath); err != nil {
		return true
	}
	tracked, err := os.ReadFile(srcPath)
	if err != nil {
		return true
	}
	return strings.TrimSpace(string(tracked)) != source
}

// CollectGarbage deletes artifacts in the diagrams directory that no
// reconciled document references. Call only after every document in the
// project has been processed.
func (r *Reconciler) CollectGarbage(valid ValidFileSet) (int, error) {
	dir := r.DiagramsDir()
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	deleted := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !artifactExts[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if valid.Has(path) {
			continue
		}
		if err := os.Remove(path); err != nil {
			fmt.Fprintf(r.Out, "warning: failed to delete %s: %v\n", path, err)
			continue
		}
		deleted++
	}
	return deleted, nil
}
