package history

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ade-dev/ade/internal/fileutil"
	"github.com/ade-dev/ade/internal/gitio"
)

// GitClient is the slice of git the history reporter needs. The real
// implementation shells out through gitio; tests substitute a fake repo.
type GitClient interface {
	Commits(since string, limit int) ([]gitio.Commit, error)
	FilesAt(hash string) ([]string, error)
	Show(hash, path string) (string, error)
}

type repoClient struct {
	dir string
}

func NewGitClient(dir string) GitClient {
	return repoClient{dir: dir}
}

func (c repoClient) Commits(since string, limit int) ([]gitio.Commit, error) {
	return gitio.Log(c.dir, since, limit)
}

func (c repoClient) FilesAt(hash string) ([]string, error) {
	return gitio.LsTree(c.dir, hash)
}

func (c repoClient) Show(hash, path string) (string, error) {
	return gitio.Show(c.dir, hash, path)
}

// CommitStats is the aggregated state of the project at one commit.
type CommitStats struct {
	Commit string // short hash
	Date   string
	Author string

	LOCPython, LOCGo, LOCTypescript  int
	LOCMarkdown, LOCCSS, LOCShell    int
	LOCJSON, LOCTotal                int
	TestFiles, TestLOCTotal          int
	TestLOCPython, TestLOCGo         int
	TestLOCTypescript, TestLOCShell  int
	TODOs, FIXMEs, MDTODOs, MDFIXMEs int
	OpenReqs, TotalReqs              int
	OpenIssues, TotalIssues          int
}

// AnalyzeCommit replays the content metrics for every tracked file at one
// commit. Unreadable files degrade to zero counts.
func AnalyzeCommit(git GitClient, commit gitio.Commit) (CommitStats, error) {
	stats := CommitStats{
		Commit: shortHash(commit.Hash),
		Date:   commit.Date,
		Author: commit.Author,
	}

	files, err := git.FilesAt(commit.Hash)
	if err != nil {
		return stats, err
	}

	for _, path := range files {
		switch path {
		case "docs/REQUIREMENTS.md":
			content, _ := git.Show(commit.Hash, path)
			stats.OpenReqs, stats.TotalReqs = ParseRequirements(content)
		case "docs/ISSUES.md":
			content, _ := git.Show(commit.Hash, path)
			stats.OpenIssues, stats.TotalIssues = ParseIssues(content)
		}

		lang, ok := langForExt[strings.ToLower(filepath.Ext(path))]
		if !ok {
			continue
		}
		content, err := git.Show(commit.Hash, path)
		if err != nil {
			continue
		}
		m := AnalyzeContent(content)

		if lang == "markdown" {
			stats.MDTODOs += m.TODOs
			stats.MDFIXMEs += m.FIXMEs
		} else {
			stats.TODOs += m.TODOs
			stats.FIXMEs += m.FIXMEs
		}

		if IsTestFile(path) {
			stats.TestFiles++
			stats.TestLOCTotal += m.LOC
			switch lang {
			case "python":
				stats.TestLOCPython += m.LOC
			case "go":
				stats.TestLOCGo += m.LOC
			case "typescript":
				stats.TestLOCTypescript += m.LOC
			case "shell":
				stats.TestLOCShell += m.LOC
			}
			continue
		}

		if lang == "json" && isLockFile(path) {
			continue
		}
		stats.LOCTotal += m.LOC
		switch lang {
		case "python":
			stats.LOCPython += m.LOC
		case "go":
			stats.LOCGo += m.LOC
		case "typescript":
			stats.LOCTypescript += m.LOC
		case "markdown":
			stats.LOCMarkdown += m.LOC
		case "css":
			stats.LOCCSS += m.LOC
		case "shell":
			stats.LOCShell += m.LOC
		case "json":
			stats.LOCJSON += m.LOC
		}
	}
	return stats, nil
}

const (
	tableHeader = "| Date | Commit | Author | Total | Py | Go | TS/JS | MD | CSS | SH | JSON | Tests | T-LOC | Py-T | Go-T | TS-T | SH-T | TODO (C/M) | FIXME (C/M) | Req | Iss |"
	tableSep    = "|---|---|---|---|---|---|---|---|---|---|---|---|---|---|---|---|---|---|---|---|---|"
)

func (s CommitStats) row() string {
	return fmt.Sprintf("| %s | `%s` | %s | %d | %d | %d | %d | %d | %d | %d | %d | %d | %d | %d | %d | %d | %d | %d / %d | %d / %d | %d / %d | %d / %d |",
		s.Date, s.Commit, s.Author,
		s.LOCTotal, s.LOCPython, s.LOCGo, s.LOCTypescript, s.LOCMarkdown, s.LOCCSS, s.LOCShell, s.LOCJSON,
		s.TestFiles, s.TestLOCTotal, s.TestLOCPython, s.TestLOCGo, s.TestLOCTypescript, s.TestLOCShell,
		s.TODOs, s.MDTODOs, s.FIXMEs, s.MDFIXMEs,
		s.OpenReqs, s.TotalReqs, s.OpenIssues, s.TotalIssues)
}

var (
	trackedCommit = regexp.MustCompile("\\|\\s*\\d{4}-\\d{2}-\\d{2}\\s*\\|\\s*`([^`]+)`")
	isoDate       = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// LastTrackedCommit finds the newest commit hash recorded in an existing
// report, the anchor for incremental runs.
func LastTrackedCommit(report string) string {
	for _, line := range strings.Split(report, "\n") {
		if m := trackedCommit.FindStringSubmatch(line); m != nil {
			return m[1]
		}
	}
	return ""
}

// ParseDataRow reads one table row back into stats, for rebuilding chart
// data from an existing report. Returns false for non-data lines.
func ParseDataRow(line string) (CommitStats, bool) {
	parts := splitRow(line)
	if len(parts) < 22 {
		return CommitStats{}, false
	}
	if !isoDate.MatchString(parts[1]) {
		return CommitStats{}, false
	}

	var s CommitStats
	s.Date = parts[1]
	s.Commit = strings.Trim(parts[2], "`")
	s.Author = parts[3]
	ints := []*int{
		&s.LOCTotal, &s.LOCPython, &s.LOCGo, &s.LOCTypescript, &s.LOCMarkdown,
		&s.LOCCSS, &s.LOCShell, &s.LOCJSON,
		&s.TestFiles, &s.TestLOCTotal, &s.TestLOCPython, &s.TestLOCGo,
		&s.TestLOCTypescript, &s.TestLOCShell,
	}
	for i, dst := range ints {
		v, err := strconv.Atoi(parts[4+i])
		if err != nil {
			return CommitStats{}, false
		}
		*dst = v
	}
	pairs := []struct{ a, b *int }{
		{&s.TODOs, &s.MDTODOs},
		{&s.FIXMEs, &s.MDFIXMEs},
		{&s.OpenReqs, &s.TotalReqs},
		{&s.OpenIssues, &s.TotalIssues},
	}
	for i, p := range pairs {
		a, b, ok := splitPair(parts[18+i])
		if !ok {
			return CommitStats{}, false
		}
		*p.a, *p.b = a, b
	}
	return s, true
}

func splitPair(s string) (int, int, bool) {
	halves := strings.SplitN(s, "/", 2)
	if len(halves) != 2 {
		return 0, 0, false
	}
	a, errA := strconv.Atoi(strings.TrimSpace(halves[0]))
	b, errB := strconv.Atoi(strings.TrimSpace(halves[1]))
	if errA != nil || errB != nil {
		return 0, 0, false
	}
	return a, b, true
}

// Reporter writes docs/HISTORY.md for a repository.
type Reporter struct {
	Root string
	Git  GitClient
	Out  io.Writer // progress output
	Now  func() time.Time
}

func NewReporter(root string) *Reporter {
	return &Reporter{Root: root, Git: NewGitClient(root), Out: os.Stderr, Now: time.Now}
}

// ReportOptions control the commit range and mode of a history run.
type ReportOptions struct {
	Limit       int
	Since       string
	Reverse     bool // oldest first in the table
	Incremental bool // prepend only commits newer than the report's top row
}

// ReportPath is where the history report lives.
func (r *Reporter) ReportPath() string {
	return filepath.Join(r.Root, "docs", "HISTORY.md")
}

// Run regenerates the history report. In incremental mode only commits newer
// than the last tracked row are analyzed and the existing rows are kept.
func (r *Reporter) Run(opts ReportOptions) error {
	outputPath := r.ReportPath()
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(outputPath), err)
	}

	since := opts.Since
	existing := ""
	if opts.Incremental {
		if data, err := os.ReadFile(outputPath); err == nil {
			existing = string(data)
			if last := LastTrackedCommit(existing); last != "" {
				fmt.Fprintf(r.Out, "incremental mode: resuming after %s\n", last)
				since = last
			}
		}
	}

	commits, err := r.Git.Commits(since, opts.Limit)
	if err != nil {
		return err
	}
	if len(commits) == 0 {
		fmt.Fprintln(r.Out, "no new commits to analyze")
		return nil
	}
	fmt.Fprintf(r.Out, "found %d commits to process\n", len(commits))

	if opts.Reverse {
		for i, j := 0, len(commits)-1; i < j; i, j = i+1, j-1 {
			commits[i], commits[j] = commits[j], commits[i]
		}
	}

	newStats := make([]CommitStats, 0, len(commits))
	for i, commit := range commits {
		fmt.Fprintf(r.Out, "[%d/%d] processing %s\n", i+1, len(commits), shortHash(commit.Hash))
		stats, err := AnalyzeCommit(r.Git, commit)
		if err != nil {
			fmt.Fprintf(r.Out, "warning: skipping %s: %v\n", shortHash(commit.Hash), err)
			continue
		}
		newStats = append(newStats, stats)
	}

	oldRows := existingRows(existing)
	daily := dailySeries(newStats, oldRows)

	var b strings.Builder
	b.WriteString("# Project History Analysis\n")
	fmt.Fprintf(&b, "Generated on %s\n\n", r.Now().Format(time.RFC3339))
	b.WriteString(r.summaryAndCharts(daily))
	b.WriteString("## Commit History\n")
	b.WriteString(tableHeader + "\n")
	b.WriteString(tableSep + "\n")
	for _, s := range newStats {
		b.WriteString(s.row() + "\n")
	}
	for _, row := range oldRows {
		b.WriteString(row + "\n")
	}

	if err := os.WriteFile(outputPath, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", outputPath, err)
	}
	fmt.Fprintf(r.Out, "report written to %s\n", outputPath)
	return nil
}

// existingRows extracts the data rows of a previous report, preserving their
// order (newest first).
func existingRows(report string) []string {
	if report == "" {
		return nil
	}
	rows := make([]string, 0)
	for _, line := range strings.Split(report, "\n") {
		if _, ok := ParseDataRow(line); ok {
			rows = append(rows, strings.TrimSpace(line))
		}
	}
	return rows
}

// dailySeries reduces stats to one point per day (the latest state of that
// day) sorted oldest first for charting.
func dailySeries(newStats []CommitStats, oldRows []string) []CommitStats {
	byDate := make(map[string]CommitStats)
	for _, row := range oldRows {
		if s, ok := ParseDataRow(row); ok {
			// Rows run newest first, so the first hit per date wins.
			if _, seen := byDate[s.Date]; !seen {
				byDate[s.Date] = s
			}
		}
	}
	for _, s := range newStats {
		if _, seen := byDate[s.Date]; !seen {
			byDate[s.Date] = s
		}
	}

	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	// ISO dates sort chronologically as strings.
	for i := 0; i < len(dates); i++ {
		for j := i + 1; j < len(dates); j++ {
			if dates[j] < dates[i] {
				dates[i], dates[j] = dates[j], dates[i]
			}
		}
	}
	series := make([]CommitStats, 0, len(dates))
	for _, d := range dates {
		series = append(series, byDate[d])
	}
	return series
}

func (r *Reporter) summaryAndCharts(daily []CommitStats) string {
	if len(daily) == 0 {
		return ""
	}
	first, latest := daily[0], daily[len(daily)-1]

	days := 1
	if d1, err1 := time.Parse("2006-01-02", first.Date); err1 == nil {
		if d2, err2 := time.Parse("2006-01-02", latest.Date); err2 == nil {
			if delta := int(d2.Sub(d1).Hours() / 24); delta > 1 {
				days = delta
			}
		}
	}

	var b strings.Builder
	b.WriteString("## Summary\n")
	fmt.Fprintf(&b, "- **Analysis Period**: %s to %s (%d days)\n", first.Date, latest.Date, days)
	fmt.Fprintf(&b, "- **Total Growth**: %+d LOC\n\n", latest.LOCTotal-first.LOCTotal)

	b.WriteString("### Test Density Analysis (Latest)\n")
	b.WriteString("| Language | Source LOC | Test LOC | Density % |\n")
	b.WriteString("| :--- | :--- | :--- | :--- |\n")
	fmt.Fprintf(&b, "| Python | %d | %d | %.1f%% |\n", latest.LOCPython, latest.TestLOCPython, density(latest.TestLOCPython, latest.LOCPython))
	fmt.Fprintf(&b, "| Go | %d | %d | %.1f%% |\n", latest.LOCGo, latest.TestLOCGo, density(latest.TestLOCGo, latest.LOCGo))
	fmt.Fprintf(&b, "| TS/JS | %d | %d | %.1f%% |\n", latest.LOCTypescript, latest.TestLOCTypescript, density(latest.TestLOCTypescript, latest.LOCTypescript))
	fmt.Fprintf(&b, "| Shell | %d | %d | %.1f%% |\n", latest.LOCShell, latest.TestLOCShell, density(latest.TestLOCShell, latest.LOCShell))
	fmt.Fprintf(&b, "| **Total** | **%d** | **%d** | **%.1f%%** |\n\n", latest.LOCTotal, latest.TestLOCTotal, density(latest.TestLOCTotal, latest.LOCTotal))

	b.WriteString("### Technical Debt (Latest)\n")
	b.WriteString("| Category | Progress / Count | Status |\n")
	b.WriteString("| :--- | :--- | :--- |\n")
	fmt.Fprintf(&b, "| Requirements | %d / %d | %d Pending |\n", latest.TotalReqs-latest.OpenReqs, latest.TotalReqs, latest.OpenReqs)
	fmt.Fprintf(&b, "| Issues | %d / %d | %d Open |\n", latest.TotalIssues-latest.OpenIssues, latest.TotalIssues, latest.OpenIssues)
	fmt.Fprintf(&b, "| TODOs | %d | code markers |\n", latest.TODOs)
	fmt.Fprintf(&b, "| FIXMEs | %d | code markers |\n\n", latest.FIXMEs)

	b.WriteString(r.charts(daily))
	return b.String()
}

// charts renders the three line charts to docs/history_assets and returns
// the markdown sections linking them.
func (r *Reporter) charts(daily []CommitStats) string {
	assetsDir := filepath.Join(r.Root, "docs", "history_assets")
	if err := os.MkdirAll(assetsDir, 0755); err != nil {
		fmt.Fprintf(r.Out, "warning: failed to create %s: %v\n", assetsDir, err)
		return ""
	}

	dates := make([]string, len(daily))
	for i, d := range daily {
		dates[i] = d.Date
	}
	pick := func(get func(CommitStats) int) []int {
		out := make([]int, len(daily))
		for i, d := range daily {
			out[i] = get(d)
		}
		return out
	}

	var b strings.Builder

	loc := NewLineChart("Source Lines of Code over Time")
	loc.SetXLabels(dates)
	loc.AddLine(pick(func(s CommitStats) int { return s.LOCTotal }), "Total", "#2196F3")
	loc.AddLine(pick(func(s CommitStats) int { return s.LOCPython }), "Python", "#4CAF50")
	loc.AddLine(pick(func(s CommitStats) int { return s.LOCGo }), "Go", "#00ACC1")
	loc.AddLine(pick(func(s CommitStats) int { return s.LOCTypescript }), "TS/JS", "#ff9800")
	loc.AddLine(pick(func(s CommitStats) int { return s.LOCCSS }), "CSS", "#9c27b0")
	loc.AddLine(pick(func(s CommitStats) int { return s.LOCShell }), "Shell", "#795548")
	b.WriteString("## Source Code Growth\n")
	b.WriteString(r.writeChart(loc, assetsDir, "loc_history"))

	test := NewLineChart("Test Lines of Code over Time")
	test.SetXLabels(dates)
	test.AddLine(pick(func(s CommitStats) int { return s.TestLOCTotal }), "Total", "#2196F3")
	test.AddLine(pick(func(s CommitStats) int { return s.TestLOCPython }), "Python", "#4CAF50")
	test.AddLine(pick(func(s CommitStats) int { return s.TestLOCGo }), "Go", "#00ACC1")
	test.AddLine(pick(func(s CommitStats) int { return s.TestLOCTypescript }), "TS/JS", "#ff9800")
	test.AddLine(pick(func(s CommitStats) int { return s.TestLOCShell }), "Shell", "#795548")
	b.WriteString("\n## Test Code Growth\n")
	b.WriteString(r.writeChart(test, assetsDir, "test_loc_history"))

	debt := NewLineChart("Technical Debt Markers")
	debt.SetXLabels(dates)
	debt.AddLine(pick(func(s CommitStats) int { return s.TODOs }), "TODOs", "#e91e63")
	debt.AddLine(pick(func(s CommitStats) int { return s.FIXMEs }), "FIXMEs", "#f44336")
	b.WriteString("\n## Technical Debt\n")
	b.WriteString(r.writeChart(debt, assetsDir, "debt_history"))
	b.WriteString("\n")

	return b.String()
}

func (r *Reporter) writeChart(chart *LineChart, assetsDir, name string) string {
	svg := chart.Generate()
	if svg == "" {
		return ""
	}
	svgPath := filepath.Join(assetsDir, name+".svg")
	if err := fileutil.WriteIfChanged(svgPath, []byte(svg)); err != nil {
		fmt.Fprintf(r.Out, "warning: failed to write %s: %v\n", svgPath, err)
		return ""
	}
	return fmt.Sprintf("![%s](history_assets/%s.svg)\n", chart.Title, name)
}

func density(test, source int) float64 {
	total := test + source
	if total == 0 {
		return 0
	}
	return float64(test) / float64(total) * 100
}

func shortHash(hash string) string {
	if len(hash) > 7 {
		return hash[:7]
	}
	return hash
}
