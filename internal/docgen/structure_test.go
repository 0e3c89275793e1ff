package docgen

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestBuildStructureDot(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "main.go"), "package main")
	writeFile(t, filepath.Join(root, "scripts", "run.sh"), "echo hi")
	writeFile(t, filepath.Join(root, "node_modules", "dep", "index.js"), "x")
	writeFile(t, filepath.Join(root, ".hidden", "x.py"), "x")
	writeFile(t, filepath.Join(root, "data.bin"), "x")

	docs := map[string]string{"main.go": "### Entry\nStarts things."}
	dot, err := BuildStructureDot(root, docs)
	if err != nil {
		t.Fatal(err)
	}

	if !strings.HasPrefix(dot, "digraph ProjectStructure {") {
		t.Fatalf("unexpected preamble:\n%s", dot)
	}
	if !strings.Contains(dot, `label="main.go *"`) {
		t.Fatalf("documented file not marked:\n%s", dot)
	}
	if !strings.Contains(dot, `tooltip="### Entry"`) {
		t.Fatalf("tooltip missing:\n%s", dot)
	}
	if !strings.Contains(dot, `[label="scripts/", shape=folder`) {
		t.Fatalf("folder node missing:\n%s", dot)
	}
	if !strings.Contains(dot, "scripts -> scripts_run_sh;") {
		t.Fatalf("folder edge missing:\n%s", dot)
	}
	for _, absent := range []string{"node_modules", ".hidden", "data.bin"} {
		if strings.Contains(dot, absent) {
			t.Fatalf("%s must be excluded:\n%s", absent, dot)
		}
	}
}
