// Package compliance lints the web frontend for design-system violations:
// hardcoded colors, excessive inline styles, btn-icon overrides, opacity
// modifiers on structural background tokens, and duplicate CSS selectors.
package compliance

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// truncate caps s at n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// Issue is one finding inside a file.
type Issue struct {
	Line   int
	Kind   string
	Detail string
}

var (
	rgbaPattern = regexp.MustCompile(`rgba?\([^)]+\)`)
	hexPattern  = regexp.MustCompile(`#[0-9a-fA-F]{3,6}\b`)

	// Transparent values are acceptable hardcoded colors.
	allowedColors = []*regexp.Regexp{
		regexp.MustCompile(`^rgba\(0,\s*0,\s*0,\s*0\)`),
		regexp.MustCompile(`^rgba\(255,\s*255,\s*255,\s*0\)`),
	}

	inlineStylePattern = regexp.MustCompile(`style=\{\{`)

	bgClassPattern = regexp.MustCompile(`\b(bg-([a-z0-9-]+)(/[a-z0-9]+)?)\b`)

	overrideBackground = regexp.MustCompile(`(background|backgroundColor)\s*:`)
	overrideColor      = regexp.MustCompile(`color\s*:\s*['"]?(#|rgba?|white|black)`)

	unusedCSSComment = regexp.MustCompile(`^\s*/\*\s*UNUSED REMOVED:.*?\*/\s*$`)
	cssComment       = regexp.MustCompile(`(?s)/\*.*?\*/`)
	cssSelector      = regexp.MustCompile(`(?m)^\s*([.#a-zA-Z][a-zA-Z0-9_\s:>-]+)\s*\{`)
)

// Background tokens the design system defines. Anything else drawn with an
// opacity modifier risks breaking contrast guarantees.
var validBgTokens = map[string]bool{
	"bg-bg-base":     true,
	"bg-bg-surface":  true,
	"bg-bg-elevated": true,
	"bg-bg-base-raw": true,
	"bg-primary":     true,
	"bg-danger":      true,
	"bg-transparent": true,
	"bg-accent":      true,
}

// Opacity modifiers are fine on these.
var opacityAllowedTokens = map[string]bool{
	"bg-black": true,
	"bg-white": true,
}

func skipLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	return strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "import")
}

// FindHardcodedColors reports rgba() values anywhere and hex values on
// style-ish lines, minus the transparent allow-list.
func FindHardcodedColors(content string) []Issue {
	var issues []Issue
	for i, line := range strings.Split(content, "\n") {
		if skipLine(line) {
			continue
		}
		for _, color := range rgbaPattern.FindAllString(line, -1) {
			allowed := false
			for _, ok := range allowedColors {
				if ok.MatchString(color) {
					allowed = true
					break
				}
			}
			if !allowed {
				issues = append(issues, Issue{Line: i + 1, Kind: "rgba", Detail: color})
			}
		}
		lower := strings.ToLower(line)
		if strings.Contains(lower, "style") || strings.Contains(lower, "color") {
			for _, color := range hexPattern.FindAllString(line, -1) {
				issues = append(issues, Issue{Line: i + 1, Kind: "hex", Detail: color})
			}
		}
	}
	return issues
}

// CountInlineStyles counts style={{ occurrences.
func CountInlineStyles(content string) int {
	return len(inlineStylePattern.FindAllString(content, -1))
}

// FindButtonIconOverrides flags background or color overrides inside
// className="btn-icon" elements, tracked by brace balance.
func FindButtonIconOverrides(content string) []Issue {
	var issues []Issue
	inBtnIcon := false
	braces := 0

	for i, line := range strings.Split(content, "\n") {
		if strings.Contains(line, `className="btn-icon"`) || strings.Contains(line, `className='btn-icon'`) {
			inBtnIcon = true
			braces = 0
		}
		if !inBtnIcon {
			continue
		}
		braces += strings.Count(line, "{") - strings.Count(line, "}")

		if overrideBackground.MatchString(line) {
			issues = append(issues, Issue{Line: i + 1, Kind: "background", Detail: truncate(strings.TrimSpace(line), 60)})
		}
		if overrideColor.MatchString(line) {
			issues = append(issues, Issue{Line: i + 1, Kind: "color", Detail: truncate(strings.TrimSpace(line), 60)})
		}
		if braces <= 0 {
			inBtnIcon = false
		}
	}
	return issues
}

// FindBackgroundViolations flags opacity modifiers on structural background
// tokens, where transparency breaks the contrast the token guarantees.
func FindBackgroundViolations(content string) []Issue {
	var issues []Issue
	for i, line := range strings.Split(content, "\n") {
		if skipLine(line) {
			continue
		}
		for _, m := range bgClassPattern.FindAllStringSubmatch(line, -1) {
			fullClass, opacity := m[1], m[3]
			baseName := "bg-" + m[2]
			if opacity == "" || opacityAllowedTokens[baseName] {
				continue
			}
			if validBgTokens[baseName] || strings.Contains(baseName, "bg-bg-") {
				issues = append(issues, Issue{
					Line:   i + 1,
					Kind:   "opacity",
					Detail: "opacity modifier forbidden on structural token: " + fullClass,
				})
			}
		}
	}
	return issues
}

// ScanDuplicateSelectors finds CSS selectors defined more than once,
// comments stripped first. Heuristic: selectors at line starts only.
func ScanDuplicateSelectors(content string) []string {
	stripped := cssComment.ReplaceAllString(content, "")

	counts := make(map[string]int)
	var order []string
	for _, m := range cssSelector.FindAllStringSubmatch(stripped, -1) {
		sel := strings.TrimSpace(m[1])
		if counts[sel] == 0 {
			order = append(order, sel)
		}
		counts[sel]++
	}

	var issues []string
	for _, sel := range order {
		if counts[sel] > 1 {
			issues = append(issues, fmt.Sprintf("duplicate selector %q appears %d times", sel, counts[sel]))
		}
	}
	return issues
}

// CleanUnusedComments drops lines that hold nothing but an
// "UNUSED REMOVED" marker comment and reports how many were removed.
func CleanUnusedComments(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	lines := strings.Split(string(data), "\n")
	kept := lines[:0]
	removed := 0
	for _, line := range lines {
		if unusedCSSComment.MatchString(line) {
			removed++
			continue
		}
		kept = append(kept, line)
	}
	if removed == 0 {
		return 0, nil
	}
	if err := os.WriteFile(path, []byte(strings.Join(kept, "\n")), 0644); err != nil {
		return 0, err
	}
	return removed, nil
}

const (
	inlineStyleThreshold        = 15
	inlineStyleRelaxedThreshold = 30
)

// Checker scans a project's web sources.
type Checker struct {
	Root   string
	SrcDir string // relative to Root

	// Components allowed the relaxed inline-style threshold, by file name.
	InlineStyleExceptions []string

	// MaxInline overrides the default inline-style threshold when positive.
	MaxInline int
}

func NewChecker(root string) *Checker {
	return &Checker{Root: root, SrcDir: filepath.Join("src", "web", "src")}
}

func (c *Checker) threshold(name string) int {
	for _, exception := range c.InlineStyleExceptions {
		if name == exception {
			return inlineStyleRelaxedThreshold
		}
	}
	if c.MaxInline > 0 {
		return c.MaxInline
	}
	return inlineStyleThreshold
}

// Result sums up one run.
type Result struct {
	FilesWithIssues    int
	ColorIssues        int
	StyleIssues        int
	OverrideIssues     int
	BackgroundIssues   int
	DuplicateSelectors int
}

func (r Result) Passed() bool {
	return r.ColorIssues == 0 && r.StyleIssues == 0 && r.OverrideIssues == 0 &&
		r.BackgroundIssues == 0 && r.DuplicateSelectors == 0
}

// Run checks index.css and every .jsx file under SrcDir, writing a report
// to w. Fix removes stale CSS comments before scanning.
func (c *Checker) Run(w io.Writer, fix bool) (Result, error) {
	srcDir := filepath.Join(c.Root, c.SrcDir)
	if _, err := os.Stat(srcDir); err != nil {
		return Result{}, fmt.Errorf("source directory %s not found: %w", srcDir, err)
	}

	indexCSS := filepath.Join(srcDir, "index.css")
	if fix {
		removed, err := CleanUnusedComments(indexCSS)
		if err != nil {
			return Result{}, err
		}
		if removed > 0 {
			fmt.Fprintf(w, "removed %d unused CSS comment lines from index.css\n\n", removed)
		}
	}

	fmt.Fprintln(w, "CSS Compliance Report")
	fmt.Fprintln(w, "=====================")
	fmt.Fprintln(w)

	var res Result

	if data, err := os.ReadFile(indexCSS); err == nil {
		if dupes := ScanDuplicateSelectors(string(data)); len(dupes) > 0 {
			res.DuplicateSelectors = len(dupes)
			res.FilesWithIssues++
			fmt.Fprintln(w, "index.css")
			fmt.Fprintf(w, "  Duplicate CSS selectors (%d):\n", len(dupes))
			writeCapped(w, dupes, 5)
			fmt.Fprintln(w)
		}
	}

	files, err := c.jsxFiles(srcDir)
	if err != nil {
		return Result{}, err
	}

	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		content := string(data)
		name := filepath.Base(path)
		var sections []string

		if colors := FindHardcodedColors(content); len(colors) > 0 {
			res.ColorIssues += len(colors)
			sections = append(sections, issueSection(fmt.Sprintf("Hardcoded colors (%d):", len(colors)), colors, 5))
		}
		if count := CountInlineStyles(content); count > c.threshold(name) {
			res.StyleIssues++
			sections = append(sections, fmt.Sprintf("  Excessive inline styles: %d (threshold: %d)", count, c.threshold(name)))
		}
		if overrides := FindButtonIconOverrides(content); len(overrides) > 0 {
			res.OverrideIssues += len(overrides)
			sections = append(sections, issueSection(fmt.Sprintf("btn-icon overrides (%d):", len(overrides)), overrides, 3))
		}
		if bg := FindBackgroundViolations(content); len(bg) > 0 {
			res.BackgroundIssues += len(bg)
			sections = append(sections, issueSection(fmt.Sprintf("Background/contrast risks (%d):", len(bg)), bg, 3))
		}

		if len(sections) > 0 {
			res.FilesWithIssues++
			fmt.Fprintln(w, name)
			for _, s := range sections {
				fmt.Fprintln(w, s)
			}
			fmt.Fprintln(w)
		}
	}

	fmt.Fprintln(w, "Summary")
	fmt.Fprintln(w, "-------")
	fmt.Fprintf(w, "Files with issues: %d\n", res.FilesWithIssues)
	fmt.Fprintf(w, "Hardcoded color occurrences: %d\n", res.ColorIssues)
	fmt.Fprintf(w, "Components exceeding inline style threshold: %d\n", res.StyleIssues)
	fmt.Fprintf(w, "btn-icon override violations: %d\n", res.OverrideIssues)
	fmt.Fprintf(w, "Background/contrast risks: %d\n", res.BackgroundIssues)
	fmt.Fprintf(w, "Duplicate CSS selectors: %d\n", res.DuplicateSelectors)
	fmt.Fprintln(w)
	if res.Passed() {
		fmt.Fprintln(w, "All checks passed.")
	} else {
		fmt.Fprintln(w, "Issues found - validation failed.")
	}

	return res, nil
}

func (c *Checker) jsxFiles(srcDir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == "node_modules" {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(path, ".jsx") || strings.HasSuffix(path, ".tsx") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func issueSection(heading string, issues []Issue, limit int) string {
	lines := []string{"  " + heading}
	for i, issue := range issues {
		if i == limit {
			lines = append(lines, fmt.Sprintf("    ... and %d more", len(issues)-limit))
			break
		}
		lines = append(lines, fmt.Sprintf("    L%d: %s - %s", issue.Line, issue.Kind, issue.Detail))
	}
	return strings.Join(lines, "\n")
}

func writeCapped(w io.Writer, lines []string, limit int) {
	for i, line := range lines {
		if i == limit {
			fmt.Fprintf(w, "    ... and %d more\n", len(lines)-limit)
			return
		}
		fmt.Fprintf(w, "    %s\n", line)
	}
}
