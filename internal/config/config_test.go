package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleConfig = `# project configuration

[project]
name = "demo"
tags = ["alpha", "beta"]

[languages.python]
enabled = true

[languages.rust]
enabled = false

[features.processing]
enabled = true
extra = "processing"
marker = "processing"

[features.renderer]
enabled = false
extra = "renderer"
marker = "renderer"

[features.plain]
enabled = false
`

func writeConfig(t *testing.T, root, rel string) string {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFallbackLocations(t *testing.T) {
	root := t.TempDir()
	want := writeConfig(t, root, filepath.Join("agent_env", "config.toml"))

	cfg, err := Load(root)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Path != want {
		t.Fatalf("loaded %q, want %q", cfg.Path, want)
	}
}

func TestLoadMissingIsEmpty(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Path != "" {
		t.Fatalf("expected empty path, got %q", cfg.Path)
	}
	if _, ok := cfg.Get("languages.python.enabled"); ok {
		t.Fatalf("empty config must answer no queries")
	}
}

func TestGetAndFormat(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "config.toml")
	cfg, err := Load(root)
	if err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		path string
		want string
	}{
		{"project.name", "demo"},
		{"project.tags", "alpha beta"},
		{"languages.python.enabled", "true"},
		{"languages.rust.enabled", "false"},
	}
	for _, tc := range cases {
		v, ok := cfg.Get(tc.path)
		if !ok {
			t.Fatalf("Get(%q) missing", tc.path)
		}
		if got := FormatValue(v); got != tc.want {
			t.Fatalf("FormatValue(Get(%q)) = %q, want %q", tc.path, got, tc.want)
		}
	}

	if _, ok := cfg.Get("languages.go.enabled"); ok {
		t.Fatalf("expected miss for absent key")
	}
	if _, ok := cfg.Get("project.name.deeper"); ok {
		t.Fatalf("expected miss when descending into a scalar")
	}
}

func TestExtrasAndMarkers(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "config.toml")
	cfg, err := Load(root)
	if err != nil {
		t.Fatal(err)
	}

	if got := cfg.Extras(); len(got) != 1 || got[0] != "processing" {
		t.Fatalf("Extras() = %v", got)
	}
	if got := cfg.ExcludeMarkers(); got != `-m "not renderer"` {
		t.Fatalf("ExcludeMarkers() = %q", got)
	}
	if got := cfg.EnabledLanguages(); len(got) != 1 || got[0] != "python" {
		t.Fatalf("EnabledLanguages() = %v", got)
	}
}

func TestTogglePreservesComments(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "config.toml")

	if err := Toggle(root, "languages.rust.enabled", true); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(root, "config.toml"))
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	if !strings.Contains(text, "# project configuration") {
		t.Fatalf("comment lost:\n%s", text)
	}
	if !strings.Contains(text, "[languages.rust]\nenabled = true") {
		t.Fatalf("rust not enabled:\n%s", text)
	}
	// The python section keeps its own value.
	if !strings.Contains(text, "[languages.python]\nenabled = true") {
		t.Fatalf("python section disturbed:\n%s", text)
	}

	cfg, err := Load(root)
	if err != nil {
		t.Fatal(err)
	}
	if got := cfg.EnabledLanguages(); len(got) != 2 {
		t.Fatalf("EnabledLanguages() after toggle = %v", got)
	}
}

func TestToggleUnknownKey(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "config.toml")
	if err := Toggle(root, "languages.go.enabled", true); err == nil {
		t.Fatalf("expected error for unknown key")
	}
}

func TestToggleInitializesFromTemplate(t *testing.T) {
	root := t.TempDir()
	template := filepath.Join(root, "config", "templates", "config.toml")
	if err := os.MkdirAll(filepath.Dir(template), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(template, []byte(sampleConfig), 0644); err != nil {
		t.Fatal(err)
	}

	if err := Toggle(root, "features.renderer.enabled", true); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(root)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Path != filepath.Join(root, "config.toml") {
		t.Fatalf("template not copied to root: %q", cfg.Path)
	}
	if v, _ := cfg.Get("features.renderer.enabled"); v != true {
		t.Fatalf("renderer still disabled: %v", v)
	}
}
