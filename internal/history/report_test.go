package history

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ade-dev/ade/internal/gitio"
)

// fakeGit serves canned commits newest first, each with its own tree.
type fakeGit struct {
	commits []gitio.Commit
	trees   map[string]map[string]string
}

func (f *fakeGit) Commits(since string, limit int) ([]gitio.Commit, error) {
	out := make([]gitio.Commit, 0, len(f.commits))
	for _, c := range f.commits {
		if since != "" && strings.HasPrefix(c.Hash, since) {
			break
		}
		out = append(out, c)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeGit) FilesAt(hash string) ([]string, error) {
	tree := f.trees[hash]
	files := make([]string, 0, len(tree))
	for path := range tree {
		files = append(files, path)
	}
	return files, nil
}

func (f *fakeGit) Show(hash, path string) (string, error) {
	if content, ok := f.trees[hash][path]; ok {
		return content, nil
	}
	return "", os.ErrNotExist
}

func testReporter(t *testing.T, git GitClient) *Reporter {
	t.Helper()
	return &Reporter{
		Root: t.TempDir(),
		Git:  git,
		Out:  io.Discard,
		Now:  func() time.Time { return time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC) },
	}
}

func twoCommitRepo() *fakeGit {
	return &fakeGit{
		commits: []gitio.Commit{
			{Hash: "bbbbbbb1111", Date: "2026-08-30", Author: "dana", Subject: "add tests"},
			{Hash: "aaaaaaa2222", Date: "2026-08-29", Author: "dana", Subject: "initial"},
		},
		trees: map[string]map[string]string{
			"aaaaaaa2222": {
				"main.go":   "package main\n\nfunc main() {}\n",
				"README.md": "# App\n\nNotes.\n",
			},
			"bbbbbbb1111": {
				"main.go":      "package main\n\nfunc main() {}\n",
				"main_test.go": "package main\n\nimport \"testing\"\n\nfunc TestMain(t *testing.T) {}\n",
				"README.md":    "# App\n\nNotes.\n",
				"docs/REQUIREMENTS.md": "| ID | Title | Status |\n|---|---|---|\n" +
					"| **REQ-001** | Ship | Planned |\n",
			},
		},
	}
}

func TestAnalyzeCommit(t *testing.T) {
	git := twoCommitRepo()
	stats, err := AnalyzeCommit(git, git.commits[0])
	if err != nil {
		t.Fatalf("AnalyzeCommit failed: %v", err)
	}
	if stats.Commit != "bbbbbbb" {
		t.Fatalf("short hash = %q", stats.Commit)
	}
	if stats.LOCGo != 2 {
		t.Errorf("go LOC = %d, want 2", stats.LOCGo)
	}
	if stats.TestFiles != 1 || stats.TestLOCGo != 3 {
		t.Errorf("test stats = %d files / %d LOC, want 1 / 3", stats.TestFiles, stats.TestLOCGo)
	}
	// README plus the requirements table.
	if stats.LOCMarkdown != 5 {
		t.Errorf("markdown LOC = %d, want 5", stats.LOCMarkdown)
	}
	if stats.OpenReqs != 1 || stats.TotalReqs != 1 {
		t.Errorf("requirements = %d/%d, want 1/1", stats.OpenReqs, stats.TotalReqs)
	}
}

func TestRowRoundTrip(t *testing.T) {
	stats := CommitStats{
		Commit: "abc1234", Date: "2026-08-30", Author: "dana",
		LOCTotal: 120, LOCGo: 80, LOCMarkdown: 40,
		TestFiles: 2, TestLOCTotal: 30, TestLOCGo: 30,
		TODOs: 3, MDTODOs: 1, OpenReqs: 2, TotalReqs: 5,
	}
	parsed, ok := ParseDataRow(stats.row())
	if !ok {
		t.Fatalf("row did not parse: %q", stats.row())
	}
	if parsed != stats {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", parsed, stats)
	}
}

func TestParseDataRowRejectsNonData(t *testing.T) {
	for _, line := range []string{tableHeader, tableSep, "", "plain text", "| 2026-08-30 | broken |"} {
		if _, ok := ParseDataRow(line); ok {
			t.Errorf("accepted non-data line %q", line)
		}
	}
}

func TestReporterWritesReport(t *testing.T) {
	r := testReporter(t, twoCommitRepo())
	if err := r.Run(ReportOptions{}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	data, err := os.ReadFile(r.ReportPath())
	if err != nil {
		t.Fatalf("report not written: %v", err)
	}
	report := string(data)

	for _, want := range []string{
		"# Project History Analysis",
		"## Summary",
		"## Commit History",
		tableHeader,
		"| 2026-08-30 | `bbbbbbb` | dana |",
		"| 2026-08-29 | `aaaaaaa` | dana |",
		"![Source Lines of Code over Time](history_assets/loc_history.svg)",
	} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q", want)
		}
	}

	for _, name := range []string{"loc_history.svg", "test_loc_history.svg", "debt_history.svg"} {
		if _, err := os.Stat(filepath.Join(r.Root, "docs", "history_assets", name)); err != nil {
			t.Errorf("chart %s not written: %v", name, err)
		}
	}

	// Newest commit comes first.
	if strings.Index(report, "`bbbbbbb`") > strings.Index(report, "`aaaaaaa`") {
		t.Error("rows are not newest first")
	}
}

func TestReporterIncremental(t *testing.T) {
	git := twoCommitRepo()
	r := testReporter(t, git)
	if err := r.Run(ReportOptions{}); err != nil {
		t.Fatalf("initial run failed: %v", err)
	}

	git.commits = append([]gitio.Commit{
		{Hash: "ccccccc3333", Date: "2026-08-31", Author: "kim", Subject: "more docs"},
	}, git.commits...)
	git.trees["ccccccc3333"] = map[string]string{
		"main.go":   "package main\n\nfunc main() {}\n",
		"README.md": "# App\n\nNotes.\n\nMore notes.\n",
	}

	if err := r.Run(ReportOptions{Incremental: true}); err != nil {
		t.Fatalf("incremental run failed: %v", err)
	}

	data, err := os.ReadFile(r.ReportPath())
	if err != nil {
		t.Fatal(err)
	}
	report := string(data)

	for _, hash := range []string{"`ccccccc`", "`bbbbbbb`", "`aaaaaaa`"} {
		if strings.Count(report, hash) != 1 {
			t.Errorf("expected exactly one row for %s, got %d", hash, strings.Count(report, hash))
		}
	}
	if strings.Index(report, "`ccccccc`") > strings.Index(report, "`bbbbbbb`") {
		t.Error("new commit should be prepended above older rows")
	}
}

func TestReporterIncrementalNoNewCommits(t *testing.T) {
	r := testReporter(t, twoCommitRepo())
	if err := r.Run(ReportOptions{}); err != nil {
		t.Fatalf("initial run failed: %v", err)
	}
	before, _ := os.ReadFile(r.ReportPath())

	if err := r.Run(ReportOptions{Incremental: true}); err != nil {
		t.Fatalf("no-op run failed: %v", err)
	}
	after, _ := os.ReadFile(r.ReportPath())
	if string(before) != string(after) {
		t.Error("report changed with no new commits")
	}
}

func TestLastTrackedCommit(t *testing.T) {
	report := "# Report\n\n" + tableHeader + "\n" + tableSep + "\n" +
		"| 2026-08-30 | `bbbbbbb` | dana | 5 | 0 | 5 | 0 | 0 | 0 | 0 | 0 | 0 | 0 | 0 | 0 | 0 | 0 | 0 / 0 | 0 / 0 | 0 / 0 | 0 / 0 |\n"
	if got := LastTrackedCommit(report); got != "bbbbbbb" {
		t.Fatalf("LastTrackedCommit = %q, want bbbbbbb", got)
	}
	if got := LastTrackedCommit("no table here"); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}

func TestReporterReverseOrder(t *testing.T) {
	r := testReporter(t, twoCommitRepo())
	if err := r.Run(ReportOptions{Reverse: true}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	data, _ := os.ReadFile(r.ReportPath())
	report := string(data)
	if strings.Index(report, "`aaaaaaa`") > strings.Index(report, "`bbbbbbb`") {
		t.Error("reverse mode should list oldest first")
	}
}
