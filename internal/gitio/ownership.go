package gitio

import (
	"os/exec"
	"path/filepath"
	"strings"
)

// OwnershipGuard decides whether the current user may rewrite files in a
// repository. The gh login is resolved once; a repository is owned when its
// origin URL points at that user's namespace. When the login cannot be
// resolved, or a path is not inside a repository with an origin remote,
// everything is allowed.
type OwnershipGuard struct {
	login string
	cache map[string]bool // repo root -> owned
}

func NewOwnershipGuard() *OwnershipGuard {
	return &OwnershipGuard{login: ghLogin(), cache: make(map[string]bool)}
}

// Owns reports whether the repository containing path may be rewritten.
func (g *OwnershipGuard) Owns(path string) bool {
	if g.login == "" {
		return true
	}

	dir := path
	if info, err := filepath.Abs(path); err == nil {
		dir = info
	}
	dir = filepath.Dir(dir)

	root, err := RepoRoot(dir)
	if err != nil {
		return true
	}
	if owned, ok := g.cache[root]; ok {
		return owned
	}

	owned := true
	if owner := RepoOwner(OriginURL(root)); owner != "" {
		owned = strings.EqualFold(owner, g.login)
	}
	g.cache[root] = owned
	return owned
}

// RepoOwner extracts the owner segment from a remote URL. Both scp-like
// (git@host:owner/repo.git) and URL (https://host/owner/repo) forms are
// recognized; anything else yields "".
func RepoOwner(url string) string {
	url = strings.TrimSpace(url)
	if url == "" {
		return ""
	}

	var rest string
	if idx := strings.Index(url, "://"); idx != -1 {
		rest = url[idx+len("://"):]
		if slash := strings.IndexByte(rest, '/'); slash != -1 {
			rest = rest[slash+1:]
		} else {
			return ""
		}
	} else if idx := strings.IndexByte(url, ':'); idx != -1 {
		rest = url[idx+1:]
	} else {
		return ""
	}

	rest = strings.TrimPrefix(rest, "/")
	if slash := strings.IndexByte(rest, '/'); slash != -1 {
		return rest[:slash]
	}
	return ""
}

func ghLogin() string {
	out, err := exec.Command("gh", "api", "user", "-q", ".login").Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}
