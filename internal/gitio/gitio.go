// Package gitio wraps the git plumbing commands the tooling relies on. Every
// call shells out to the system git; callers degrade gracefully when a
// command fails (not a repository, shallow history, and so on).
package gitio

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

func output(dir string, args ...string) (string, error) {
	cmdArgs := append([]string{"-C", dir}, args...)
	out, err := exec.Command("git", cmdArgs...).Output()
	if err != nil {
		return "", fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}
	return strings.TrimSpace(string(out)), nil
}

// RepoRoot resolves the top-level directory of the repository containing dir.
func RepoRoot(dir string) (string, error) {
	root, err := output(dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", fmt.Errorf("not inside a git repository")
	}
	return root, nil
}

// SuperprojectRoot returns the working tree of the superproject when dir
// belongs to a submodule, or "" when it does not.
func SuperprojectRoot(dir string) string {
	root, err := output(dir, "rev-parse", "--show-superproject-working-tree")
	if err != nil {
		return ""
	}
	return root
}

// LsFiles lists tracked files relative to the repository root.
func LsFiles(dir string) ([]string, error) {
	out, err := output(dir, "ls-files")
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

// LsFilesOthers lists untracked files not covered by ignore rules.
func LsFilesOthers(dir string) ([]string, error) {
	out, err := output(dir, "ls-files", "--others", "--exclude-standard")
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

// Commit is one row of the history log.
type Commit struct {
	Hash    string
	Date    string // YYYY-MM-DD
	Author  string
	Subject string
}

// Log lists commits newest first. since limits the range to since..HEAD when
// non-empty; limit caps the count when positive.
func Log(dir, since string, limit int) ([]Commit, error) {
	args := []string{"log", "--pretty=%H|%ad|%an|%s", "--date=short"}
	if limit > 0 {
		args = append(args, "-n", strconv.Itoa(limit))
	}
	if since != "" {
		args = append(args, since+"..HEAD")
	}
	out, err := output(dir, args...)
	if err != nil {
		return nil, err
	}

	commits := make([]Commit, 0)
	for _, line := range splitLines(out) {
		if c, ok := ParseCommitLine(line); ok {
			commits = append(commits, c)
		}
	}
	return commits, nil
}

// ParseCommitLine splits one pretty-printed log line. The subject keeps any
// pipe characters it happens to contain.
func ParseCommitLine(line string) (Commit, bool) {
	parts := strings.SplitN(line, "|", 4)
	if len(parts) != 4 || parts[0] == "" {
		return Commit{}, false
	}
	return Commit{
		Hash:    parts[0],
		Date:    parts[1],
		Author:  parts[2],
		Subject: parts[3],
	}, true
}

// LsTree lists the file paths present in a commit.
func LsTree(dir, hash string) ([]string, error) {
	out, err := output(dir, "ls-tree", "-r", "--name-only", hash)
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

// Show reads the content of path at a commit.
func Show(dir, hash, path string) (string, error) {
	cmdArgs := []string{"-C", dir, "show", hash + ":" + path}
	out, err := exec.Command("git", cmdArgs...).Output()
	if err != nil {
		return "", fmt.Errorf("git show %s:%s: %w", hash, path, err)
	}
	return string(out), nil
}

// OriginURL returns the origin remote URL, or "" when there is none.
func OriginURL(dir string) string {
	url, err := output(dir, "remote", "get-url", "origin")
	if err != nil {
		return ""
	}
	return url
}

func splitLines(out string) []string {
	if out == "" {
		return nil
	}
	lines := strings.Split(out, "\n")
	result := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			result = append(result, line)
		}
	}
	return result
}
