package ignore

import (
	"path"
	"path/filepath"
	"strings"
)

// Directories no ade command should ever descend into. User rules from
// .adeignore are applied after these and may negate them.
var defaultRules = []string{
	".git/",
	"node_modules/",
	"__pycache__/",
	".venv/",
	"venv/",
	"dist/",
	"build/",
	"docs/gen/",
	"logs/",
}

type rule struct {
	pattern  string
	negated  bool
	dirOnly  bool
	anchored bool
}

// Matcher applies gitignore-like rules, last match wins.
type Matcher struct {
	rules []rule
}

func NewMatcher(userRules []string) *Matcher {
	all := append(append([]string{}, defaultRules...), userRules...)
	rules := make([]rule, 0, len(all))
	for _, line := range all {
		if r, ok := parseRule(line); ok {
			rules = append(rules, r)
		}
	}
	return &Matcher{rules: rules}
}

// ShouldIgnore reports whether relPath is excluded from scanning.
func (m *Matcher) ShouldIgnore(relPath string, isDir bool) bool {
	relPath = normalize(relPath)
	ignored := false
	for _, r := range m.rules {
		if r.matches(relPath, isDir) {
			ignored = !r.negated
		}
	}
	return ignored
}

func parseRule(line string) (rule, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return rule{}, false
	}

	r := rule{}
	if strings.HasPrefix(line, "!") {
		r.negated = true
		line = line[1:]
	}
	if strings.HasPrefix(line, "/") {
		r.anchored = true
		line = line[1:]
	}
	if strings.HasSuffix(line, "/") {
		r.dirOnly = true
		line = strings.TrimSuffix(line, "/")
	}

	line = normalize(line)
	if line == "" {
		return rule{}, false
	}
	r.pattern = line
	return r, true
}

func (r rule) matches(relPath string, isDir bool) bool {
	if r.dirOnly {
		return r.matchesDirectory(relPath, isDir)
	}
	if r.anchored {
		return matchPattern(r.pattern, relPath)
	}
	if strings.Contains(r.pattern, "/") {
		return matchAnySuffix(r.pattern, relPath)
	}
	for _, segment := range strings.Split(relPath, "/") {
		if matchPattern(r.pattern, segment) {
			return true
		}
	}
	return false
}

// matchesDirectory matches the directory itself and everything under it.
func (r rule) matchesDirectory(relPath string, isDir bool) bool {
	if r.anchored {
		return relPath == r.pattern || strings.HasPrefix(relPath, r.pattern+"/")
	}

	parts := strings.Split(relPath, "/")
	for i := range parts {
		prefix := strings.Join(parts[:i+1], "/")
		if prefix == r.pattern || strings.HasSuffix(prefix, "/"+r.pattern) {
			return true
		}
	}
	if isDir && !strings.Contains(r.pattern, "/") {
		return matchPattern(r.pattern, parts[len(parts)-1])
	}
	return false
}

func matchAnySuffix(pattern, relPath string) bool {
	parts := strings.Split(relPath, "/")
	for i := range parts {
		if matchPattern(pattern, strings.Join(parts[i:], "/")) {
			return true
		}
	}
	return false
}

// matchPattern is path.Match plus ** support across separators.
func matchPattern(pattern, value string) bool {
	if !strings.Contains(pattern, "**") {
		ok, err := path.Match(pattern, value)
		return err == nil && ok
	}

	parts := strings.SplitN(pattern, "**", 2)
	prefix := strings.TrimSuffix(parts[0], "/")
	rest := strings.TrimPrefix(parts[1], "/")

	if prefix != "" {
		if !strings.HasPrefix(value, prefix+"/") && value != prefix {
			return false
		}
		value = strings.TrimPrefix(strings.TrimPrefix(value, prefix), "/")
	}
	if rest == "" {
		return true
	}
	segments := strings.Split(value, "/")
	for i := range segments {
		if matchPattern(rest, strings.Join(segments[i:], "/")) {
			return true
		}
	}
	return false
}

func normalize(p string) string {
	p = filepath.ToSlash(p)
	p = strings.TrimPrefix(p, "./")
	return strings.TrimPrefix(p, "/")
}
