// Package workflows keeps the two workflow directories of a scaffolded
// project in sync: .agent/workflows (the editor-facing copy) and
// agent_env/workflows (the shipped copy). Sync is two-way, newest wins.
package workflows

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// mtimeSlack absorbs filesystem timestamp granularity differences.
const mtimeSlack = time.Second

// frontmatter is the YAML block a workflow file opens with.
type frontmatter struct {
	Description string `yaml:"description"`
}

// HasDescription reports whether content opens with a frontmatter block
// carrying a non-empty description. Files without one stay out of
// agent_env, which only accepts self-describing workflows.
func HasDescription(content string) bool {
	if !strings.HasPrefix(content, "---") {
		return false
	}
	rest := strings.TrimPrefix(content, "---")
	rest = strings.TrimPrefix(rest, "\r\n")
	rest = strings.TrimPrefix(rest, "\n")

	end := strings.Index(rest, "\n---")
	if end < 0 {
		return false
	}

	var fm frontmatter
	if err := yaml.Unmarshal([]byte(rest[:end]), &fm); err != nil {
		return false
	}
	return strings.TrimSpace(fm.Description) != ""
}

// Result counts what one sync run did.
type Result struct {
	Synced  int
	Skipped int
}

// Syncer mirrors markdown workflows between the two directories.
type Syncer struct {
	Root string
	Out  io.Writer
}

func NewSyncer(root string) *Syncer {
	return &Syncer{Root: root, Out: os.Stdout}
}

func (s *Syncer) sourceDir() string { return filepath.Join(s.Root, ".agent", "workflows") }
func (s *Syncer) destDir() string   { return filepath.Join(s.Root, "agent_env", "workflows") }

// Run performs one two-way sync pass. New files are copied to the other
// side; files present on both sides follow the newer mtime. Copies toward
// agent_env require a frontmatter description.
func (s *Syncer) Run() (Result, error) {
	var res Result

	srcDir, destDir := s.sourceDir(), s.destDir()
	if _, err := os.Stat(srcDir); err != nil {
		return res, fmt.Errorf("source directory not found: %s", srcDir)
	}
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return res, err
	}

	names, err := markdownNames(srcDir, destDir)
	if err != nil {
		return res, err
	}

	fmt.Fprintf(s.Out, "syncing workflows between %s and %s\n", srcDir, destDir)

	for _, name := range names {
		srcPath := filepath.Join(srcDir, name)
		destPath := filepath.Join(destDir, name)
		srcInfo, srcErr := os.Stat(srcPath)
		destInfo, destErr := os.Stat(destPath)
		srcExists, destExists := srcErr == nil, destErr == nil

		switch {
		case srcExists && !destExists:
			if !s.copyToDest(name, srcPath, destPath, "new file", &res) {
				continue
			}
		case destExists && !srcExists:
			fmt.Fprintf(s.Out, "sync: %s (agent_env -> .agent) [new file]\n", name)
			if err := copyPreservingMtime(destPath, srcPath); err != nil {
				return res, err
			}
			res.Synced++
		case srcInfo.ModTime().After(destInfo.ModTime().Add(mtimeSlack)):
			if !s.copyToDest(name, srcPath, destPath, "newer", &res) {
				continue
			}
		case destInfo.ModTime().After(srcInfo.ModTime().Add(mtimeSlack)):
			fmt.Fprintf(s.Out, "sync: %s (agent_env -> .agent) [newer]\n", name)
			if err := copyPreservingMtime(destPath, srcPath); err != nil {
				return res, err
			}
			res.Synced++
		}
	}

	fmt.Fprintf(s.Out, "\nsync complete: %d files synced, %d skipped for missing descriptions\n",
		res.Synced, res.Skipped)
	return res, nil
}

// copyToDest copies toward agent_env after the description gate. Returns
// false when the file was skipped.
func (s *Syncer) copyToDest(name, srcPath, destPath, reason string, res *Result) bool {
	data, err := os.ReadFile(srcPath)
	if err != nil || !HasDescription(string(data)) {
		fmt.Fprintf(s.Out, "skip: %s is missing a frontmatter description\n", name)
		res.Skipped++
		return false
	}
	fmt.Fprintf(s.Out, "sync: %s (.agent -> agent_env) [%s]\n", name, reason)
	if err := copyPreservingMtime(srcPath, destPath); err != nil {
		fmt.Fprintf(s.Out, "error copying %s: %v\n", name, err)
		return false
	}
	res.Synced++
	return true
}

func markdownNames(dirs ...string) ([]string, error) {
	seen := make(map[string]bool)
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		for _, entry := range entries {
			if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".md") {
				seen[entry.Name()] = true
			}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// copyPreservingMtime copies src to dst and keeps src's mtime, so a synced
// pair compares equal on the next run.
func copyPreservingMtime(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	if err := os.WriteFile(dst, data, 0644); err != nil {
		return err
	}
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}
