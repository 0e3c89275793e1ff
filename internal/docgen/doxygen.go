package docgen

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
)

var mdHref = regexp.MustCompile(`href="([^"]+)\.md(#?[^"]*)"`)

// RunDoxygen writes a generated Doxyfile for the project and runs doxygen
// over it, then repairs markdown cross-links in the generated index page.
// A missing doxygen binary is a soft skip.
func RunDoxygen(projectPath, outputDir, projectName, docsDir string, warn func(format string, args ...any)) error {
	if _, err := exec.LookPath("doxygen"); err != nil {
		if warn != nil {
			warn("warning: 'doxygen' not found, api docs skipped")
		}
		return nil
	}

	doxyOut := filepath.Join(outputDir, "doxygen", projectName)
	if err := os.MkdirAll(doxyOut, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", doxyOut, err)
	}

	mainPage := ""
	readme := filepath.Join(projectPath, "README.md")
	if _, err := os.Stat(readme); err == nil {
		mainPage = "USE_MDFILE_AS_MAINPAGE = " + readme
	}

	doxyfile := fmt.Sprintf(`PROJECT_NAME           = %q
OUTPUT_DIRECTORY       = %q
INPUT                  = %q
RECURSIVE              = YES
FILE_PATTERNS          = *.go *.py *.js *.jsx *.ts *.tsx *.md *.sh
GENERATE_HTML          = YES
GENERATE_LATEX         = NO
WARN_IF_UNDOCUMENTED   = NO
QUIET                  = YES
FULL_PATH_NAMES        = NO
%s
HAVE_DOT               = YES
DOT_IMAGE_FORMAT       = svg
INTERACTIVE_SVG        = YES
UML_LOOK               = YES
CALL_GRAPH             = YES
CALLER_GRAPH           = YES
GRAPHICAL_HIERARCHY    = YES
DIRECTORY_GRAPH        = YES
IMAGE_PATH             = %q
EXCLUDE_PATTERNS       = **/node_modules/* **/venv/* **/.venv/* **/logs/* **/dist/* **/build/*
EXCLUDE                = %q
STRIP_FROM_PATH        = %q
`, projectName, doxyOut, projectPath, mainPage, docsDir, doxyOut, projectPath)

	doxyfilePath := filepath.Join(doxyOut, "Doxyfile")
	if err := os.WriteFile(doxyfilePath, []byte(doxyfile), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", doxyfilePath, err)
	}

	cmd := exec.Command("doxygen", doxyfilePath)
	cmd.Dir = doxyOut
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("doxygen failed for %s: %v: %s", projectName, err, firstLineOf(string(out)))
	}

	return FixDoxygenLinks(filepath.Join(doxyOut, "html"))
}

// FixDoxygenLinks rewrites href="path/to/file.md#anchor" references in the
// generated index.html to doxygen's md_* page names, when those pages exist.
func FixDoxygenLinks(htmlDir string) error {
	indexPath := filepath.Join(htmlDir, "index.html")
	data, err := os.ReadFile(indexPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	content := string(data)
	updated := mdHref.ReplaceAllStringFunc(content, func(match string) string {
		m := mdHref.FindStringSubmatch(match)
		page := "md_" + collapseUnderscores(m[1]) + ".html"
		if _, err := os.Stat(filepath.Join(htmlDir, page)); err != nil {
			return match
		}
		return fmt.Sprintf("href=%q", page+m[2])
	})

	if updated == content {
		return nil
	}
	return os.WriteFile(indexPath, []byte(updated), 0644)
}

// collapseUnderscores applies doxygen's markdown page naming: slashes, dots
// and dashes become underscores, with runs collapsed.
func collapseUnderscores(path string) string {
	replaced := strings.NewReplacer("/", "_", "-", "_", ".", "_").Replace(path)
	for strings.Contains(replaced, "__") {
		replaced = strings.ReplaceAll(replaced, "__", "_")
	}
	return replaced
}

func firstLineOf(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.IndexByte(s, '\n'); idx != -1 {
		return s[:idx]
	}
	return s
}
