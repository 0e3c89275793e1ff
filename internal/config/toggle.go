package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ade-dev/ade/internal/fileutil"
)

// Toggle sets a boolean key like "languages.python.enabled" by rewriting the
// config file line-wise, keeping comments and indentation intact. A missing
// config file is initialized from the bundled template first.
func Toggle(root, keyPath string, value bool) error {
	path, err := ensureConfigFile(root)
	if err != nil {
		return err
	}

	parts := strings.Split(keyPath, ".")
	if len(parts) < 2 {
		return fmt.Errorf("invalid config key %q", keyPath)
	}
	section := strings.Join(parts[:len(parts)-1], ".")
	key := parts[len(parts)-1]

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	lines := strings.Split(string(data), "\n")
	inSection := false
	replaced := false
	for i, line := range lines {
		stripped := strings.TrimSpace(line)
		if strings.HasPrefix(stripped, "[") && strings.HasSuffix(stripped, "]") {
			inSection = stripped[1:len(stripped)-1] == section
			continue
		}
		if !inSection || !strings.HasPrefix(stripped, key+" =") {
			continue
		}
		indent := line[:strings.Index(line, key)]
		lines[i] = indent + key + " = " + strconv.FormatBool(value)
		replaced = true
	}
	if !replaced {
		return fmt.Errorf("key %q not found in %s", keyPath, path)
	}

	content := fileutil.EnsureTrailingNewline(strings.Join(lines, "\n"))
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// ensureConfigFile returns the config path, copying the template into place
// when no config exists yet.
func ensureConfigFile(root string) (string, error) {
	if path, ok := FindPath(root); ok {
		return path, nil
	}

	template := filepath.Join(root, "config", "templates", "config.toml")
	data, err := os.ReadFile(template)
	if err != nil {
		return "", fmt.Errorf("no config file and no template at %s", template)
	}

	path := filepath.Join(root, "config.toml")
	if err := fileutil.WriteIfMissing(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to initialize %s: %w", path, err)
	}
	return path, nil
}
