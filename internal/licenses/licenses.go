// Package licenses aggregates third-party license metadata from the web
// frontend (license-checker) and the Python backend (pip-licenses) into the
// single licenses.json the settings UI ships.
package licenses

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Runner executes an external tool in dir and returns its stdout. It exists
// so tests can substitute canned output for npx and pip-licenses.
type Runner func(dir, name string, args ...string) ([]byte, error)

func execRunner(dir, name string, args ...string) ([]byte, error) {
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return nil, fmt.Errorf("%s failed: %s", name, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, err
	}
	return out, nil
}

// Updater collects and merges license information for one project.
type Updater struct {
	Root     string
	WebDir   string // relative to Root
	Run      Runner
	LookPath func(string) (string, error)
	Out      io.Writer
}

func NewUpdater(root string) *Updater {
	return &Updater{
		Root:     root,
		WebDir:   filepath.Join("src", "web"),
		Run:      execRunner,
		LookPath: exec.LookPath,
		Out:      os.Stderr,
	}
}

func (u *Updater) licensesDir() string { return filepath.Join(u.Root, "licenses") }

// FrontendFile is the raw license-checker output.
func (u *Updater) FrontendFile() string {
	return filepath.Join(u.licensesDir(), "frontend-licenses.json")
}

// BackendFile is the pip-licenses output, already in frontend schema.
func (u *Updater) BackendFile() string {
	return filepath.Join(u.licensesDir(), "backend-licenses.json")
}

// OutputFile is the merged file the settings feature reads.
func (u *Updater) OutputFile() string {
	return filepath.Join(u.Root, u.WebDir, "src", "features", "settings", "licenses.json")
}

// Update regenerates both sides and merges them.
func (u *Updater) Update() error {
	if err := u.GenerateFrontend(); err != nil {
		return err
	}
	if err := u.GenerateBackend(); err != nil {
		return err
	}
	return u.Merge()
}

// GenerateFrontend runs license-checker over the web package and writes the
// raw JSON to FrontendFile.
func (u *Updater) GenerateFrontend() error {
	fmt.Fprintln(u.Out, "generating frontend licenses")
	if _, err := u.LookPath("npx"); err != nil {
		return fmt.Errorf("npx not found, Node.js is required: %w", err)
	}
	if err := os.MkdirAll(u.licensesDir(), 0755); err != nil {
		return err
	}

	_, err := u.Run(filepath.Join(u.Root, u.WebDir), "npx",
		"license-checker", "--json",
		"--out", u.FrontendFile(),
		"--production", "--excludePrivatePackages")
	if err != nil {
		return fmt.Errorf("license-checker: %w", err)
	}
	return nil
}

// pipPackage is one entry of pip-licenses --format=json.
type pipPackage struct {
	Name    string `json:"Name"`
	Version string `json:"Version"`
	License string `json:"License"`
	URL     string `json:"URL"`
	Author  string `json:"Author"`
}

// pipCommand resolves how to invoke pip-licenses: the project venv first,
// then PATH, then uv's tool runner.
func (u *Updater) pipCommand() (name string, args []string, err error) {
	venv := filepath.Join(u.Root, ".venv", "bin", "pip-licenses")
	if _, statErr := os.Stat(venv); statErr == nil {
		return venv, nil, nil
	}
	if _, lookErr := u.LookPath("pip-licenses"); lookErr == nil {
		return "pip-licenses", nil, nil
	}
	if _, lookErr := u.LookPath("uv"); lookErr == nil {
		return "uv", []string{"tool", "run", "pip-licenses"}, nil
	}
	return "", nil, fmt.Errorf("pip-licenses not found (venv, PATH, or uv)")
}

// GenerateBackend runs pip-licenses and rewrites its output into the
// frontend schema: "name@version" keys with licenses/repository/publisher
// fields, tagged source=backend.
func (u *Updater) GenerateBackend() error {
	fmt.Fprintln(u.Out, "generating backend licenses")
	name, args, err := u.pipCommand()
	if err != nil {
		return err
	}
	args = append(args, "--format=json", "--with-urls", "--with-authors")

	out, err := u.Run(u.Root, name, args...)
	if err != nil {
		return fmt.Errorf("pip-licenses: %w", err)
	}

	var packages []pipPackage
	if err := json.Unmarshal(out, &packages); err != nil {
		return fmt.Errorf("failed to parse pip-licenses output: %w", err)
	}

	transformed := make(map[string]map[string]any, len(packages))
	for _, pkg := range packages {
		pkgName := pkg.Name
		if pkgName == "" {
			pkgName = "unknown"
		}
		version := pkg.Version
		if version == "" {
			version = "0.0.0"
		}
		license := pkg.License
		if license == "" {
			license = "UNKNOWN"
		}

		entry := map[string]any{
			"licenses": license,
			"source":   "backend",
		}
		if pkg.URL != "" {
			entry["repository"] = pkg.URL
		}
		if pkg.Author != "" {
			entry["publisher"] = pkg.Author
		}
		transformed[pkgName+"@"+version] = entry
	}

	if err := os.MkdirAll(u.licensesDir(), 0755); err != nil {
		return err
	}
	if err := writeJSON(u.BackendFile(), transformed); err != nil {
		return err
	}
	fmt.Fprintf(u.Out, "generated %d python package licenses\n", len(transformed))
	return nil
}

// Merge combines both intermediate files into OutputFile. Frontend entries
// get source=frontend and project-relative paths; backend entries win on key
// collisions.
func (u *Updater) Merge() error {
	fmt.Fprintln(u.Out, "merging licenses")

	frontend, err := readJSON(u.FrontendFile())
	if err != nil {
		return err
	}
	backend, err := readJSON(u.BackendFile())
	if err != nil {
		return err
	}

	merged := make(map[string]map[string]any, len(frontend)+len(backend))
	for key, entry := range frontend {
		entry["source"] = "frontend"
		for _, field := range []string{"path", "licenseFile"} {
			if value, ok := entry[field].(string); ok {
				entry[field] = u.relativize(value)
			}
		}
		merged[key] = entry
	}
	for key, entry := range backend {
		merged[key] = entry
	}

	if err := os.MkdirAll(filepath.Dir(u.OutputFile()), 0755); err != nil {
		return err
	}
	if err := writeJSON(u.OutputFile(), merged); err != nil {
		return err
	}
	fmt.Fprintf(u.Out, "merged %d frontend + %d backend = %d total licenses\n",
		len(frontend), len(backend), len(merged))
	return nil
}

// relativize strips the project root from absolute paths so the shipped
// file never leaks local directory layout.
func (u *Updater) relativize(path string) string {
	if path == "" || !filepath.IsAbs(path) {
		return path
	}
	rel, err := filepath.Rel(u.Root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return filepath.ToSlash(rel)
}

func readJSON(path string) (map[string]map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var out map[string]map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return out, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}
