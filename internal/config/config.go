// Package config reads and edits the project's config.toml: which languages
// and features are enabled, their pip extras and pytest markers. Queries are
// formatted for shell consumption; edits rewrite the file line-wise so
// comments and layout survive.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// Candidate locations relative to the project root, first hit wins.
var candidatePaths = []string{
	"config.toml",
	filepath.Join("agent_env", "config.toml"),
	filepath.Join(".agent", "config.toml"),
}

// Config is a loaded config.toml. Data is the raw decoded tree; Path is the
// file it came from, or "" when no config file exists.
type Config struct {
	Path string
	Data map[string]any
}

// Load finds and decodes the project config. A missing file is not an error:
// the result is an empty config that answers every query with defaults.
func Load(root string) (*Config, error) {
	path, ok := FindPath(root)
	if !ok {
		return &Config{Data: map[string]any{}}, nil
	}

	var data map[string]any
	if _, err := toml.DecodeFile(path, &data); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &Config{Path: path, Data: data}, nil
}

// FindPath locates the config file for a project root.
func FindPath(root string) (string, bool) {
	for _, rel := range candidatePaths {
		path := filepath.Join(root, rel)
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}
	return "", false
}

// Get resolves a dot-notation path like "languages.python.enabled".
func (c *Config) Get(path string) (any, bool) {
	var curr any = c.Data
	for _, key := range strings.Split(path, ".") {
		table, ok := curr.(map[string]any)
		if !ok {
			return nil, false
		}
		curr, ok = table[key]
		if !ok {
			return nil, false
		}
	}
	return curr, true
}

// FormatValue renders a config value the way shell scripts expect: booleans
// as true/false, lists space-joined, everything else via Sprint.
func FormatValue(v any) string {
	switch val := v.(type) {
	case bool:
		return strconv.FormatBool(val)
	case []any:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = fmt.Sprint(item)
		}
		return strings.Join(parts, " ")
	default:
		return fmt.Sprint(val)
	}
}

// Extras lists the pip extras of enabled features, sorted by feature name.
func (c *Config) Extras() []string {
	extras := make([]string, 0)
	c.eachSection("features", func(name string, section map[string]any) {
		if !boolValue(section, "enabled") {
			return
		}
		if extra, _ := section["extra"].(string); extra != "" {
			extras = append(extras, extra)
		}
	})
	return extras
}

// ExcludeMarkers builds the pytest marker expression that skips disabled
// features, e.g. `-m "not processing and not renderer"`. Empty when every
// feature with a marker is enabled.
func (c *Config) ExcludeMarkers() string {
	terms := make([]string, 0)
	c.eachSection("features", func(name string, section map[string]any) {
		if boolValue(section, "enabled") {
			return
		}
		if marker, _ := section["marker"].(string); marker != "" {
			terms = append(terms, "not "+marker)
		}
	})
	if len(terms) == 0 {
		return ""
	}
	return fmt.Sprintf("-m %q", strings.Join(terms, " and "))
}

// EnabledLanguages lists the enabled language keys, sorted.
func (c *Config) EnabledLanguages() []string {
	langs := make([]string, 0)
	c.eachSection("languages", func(name string, section map[string]any) {
		if boolValue(section, "enabled") {
			langs = append(langs, name)
		}
	})
	return langs
}

// eachSection visits the subtables of a top-level table in sorted key order,
// so output is stable run to run.
func (c *Config) eachSection(table string, visit func(name string, section map[string]any)) {
	top, _ := c.Data[table].(map[string]any)
	names := make([]string, 0, len(top))
	for name := range top {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if section, ok := top[name].(map[string]any); ok {
			visit(name, section)
		}
	}
}

func boolValue(section map[string]any, key string) bool {
	v, _ := section[key].(bool)
	return v
}
