package cli

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ade-dev/ade/internal/gitio"
	"github.com/ade-dev/ade/internal/ignore"
)

// projectRoot resolves the directory a command operates on: an explicit
// positional path wins, then the enclosing git toplevel, then the working
// directory.
func projectRoot(args []string) (string, error) {
	if len(args) == 1 {
		return filepath.Abs(args[0])
	}
	return resolveProjectRoot()
}

// resolveProjectRoot prefers the enclosing git toplevel so commands behave
// the same from any subdirectory.
func resolveProjectRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to resolve working directory: %w", err)
	}
	if root, err := gitio.RepoRoot(cwd); err == nil {
		return root, nil
	}
	return cwd, nil
}

// LoadIgnoreRules reads .adeignore from the project root. A missing file is
// not an error.
func LoadIgnoreRules(rootPath string) ([]string, error) {
	ignorePath := filepath.Join(rootPath, ".adeignore")
	f, err := os.Open(ignorePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read .adeignore: %w", err)
	}
	defer f.Close()

	rules := make([]string, 0)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rules = append(rules, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to parse .adeignore: %w", err)
	}

	return rules, nil
}

// docsRoot picks where generated docs live: the superproject's docs
// directory when running inside a submodule, the local one otherwise.
func docsRoot(rootPath string) string {
	if super := gitio.SuperprojectRoot(rootPath); super != "" {
		return filepath.Join(super, "docs")
	}
	return filepath.Join(rootPath, "docs")
}

func loadMatcher(rootPath string) (*ignore.Matcher, error) {
	rules, err := LoadIgnoreRules(rootPath)
	if err != nil {
		return nil, err
	}
	return ignore.NewMatcher(rules), nil
}
