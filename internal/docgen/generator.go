package docgen

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ade-dev/ade/internal/ignore"
	"github.com/ade-dev/ade/internal/parser"
)

// Generator drives documentation generation for one project directory into a
// shared docs/gen output tree. Root is the project being documented; DocsDir
// is the docs directory the output tree lives under (the superproject's when
// running as a submodule).
type Generator struct {
	Root     string
	DocsDir  string
	Registry *parser.Registry
	Out      io.Writer
}

func NewGenerator(root, docsRoot string, registry *parser.Registry) *Generator {
	return &Generator{
		Root:     root,
		DocsDir:  docsRoot,
		Registry: registry,
		Out:      os.Stderr,
	}
}

// Options selects the optional generation stages.
type Options struct {
	PDF     bool
	SkipAPI bool // skip doxygen and typedoc
}

func (g *Generator) GenDir() string    { return filepath.Join(g.DocsDir, "gen") }
func (g *Generator) ImagesDir() string { return filepath.Join(g.GenDir(), "images") }

// Clean empties the generated docs directory so every run starts fresh.
func (g *Generator) Clean() error {
	genDir := g.GenDir()
	entries, err := os.ReadDir(genDir)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to list %s: %w", genDir, err)
	}
	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(genDir, entry.Name())); err != nil {
			return fmt.Errorf("failed to clean %s: %w", genDir, err)
		}
	}
	if err := os.MkdirAll(g.ImagesDir(), 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", g.ImagesDir(), err)
	}
	return nil
}

// Process documents one project: extract doc blocks, write the design spec,
// render the structure map, and run the optional API doc stages.
func (g *Generator) Process(projectPath, projectName string, matcher *ignore.Matcher, opts Options) error {
	fmt.Fprintf(g.Out, "processing project: %s\n", projectName)

	extractor := &Extractor{Registry: g.Registry, GenDir: g.GenDir()}
	docs, err := extractor.Extract(projectPath, matcher, g.warn)
	if err != nil {
		return err
	}

	specFile := filepath.Join(g.GenDir(), projectName+"_DESIGN_SPEC.md")
	if len(docs) == 0 {
		fmt.Fprintf(g.Out, "no doc blocks found for %s, skipping design spec\n", projectName)
	} else {
		fmt.Fprintf(g.Out, "writing design spec: %s\n", specFile)
		if err := WriteDesignSpec(docs, specFile, projectName); err != nil {
			return err
		}
		if opts.PDF {
			pdfFile := filepath.Join(g.GenDir(), projectName+"_DESIGN_SPEC.pdf")
			if err := GeneratePDF(specFile, pdfFile, g.warn); err != nil {
				g.warn("warning: %v", err)
			}
		}
	}

	// A spec at the old fixed location would shadow the generated one.
	legacy := filepath.Join(g.DocsDir, "DESIGN_SPEC.md")
	if _, err := os.Stat(legacy); err == nil {
		fmt.Fprintf(g.Out, "removing legacy spec file: %s\n", legacy)
		if err := os.Remove(legacy); err != nil {
			g.warn("warning: failed to remove %s: %v", legacy, err)
		}
	}

	structureSVG := filepath.Join(g.ImagesDir(), projectName+"_structure.svg")
	if err := GenerateStructureMap(projectPath, structureSVG, docs, g.warn); err != nil {
		g.warn("warning: %v", err)
	}

	if !opts.SkipAPI {
		if err := RunDoxygen(projectPath, g.GenDir(), projectName, g.DocsDir, g.warn); err != nil {
			g.warn("warning: %v", err)
		}
		if err := RunTypeDoc(projectPath, g.GenDir(), projectName, g.warn); err != nil {
			g.warn("warning: %v", err)
		}
	}
	return nil
}

func (g *Generator) warn(format string, args ...any) {
	fmt.Fprintf(g.Out, format+"\n", args...)
}
