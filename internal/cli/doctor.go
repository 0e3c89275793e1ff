package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/ade-dev/ade/internal/config"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// externalTools are the commands ade shells out to, with what breaks when
// they are missing.
var externalTools = []struct {
	Name string
	Used string
}{
	{"git", "history reports, ownership checks, file listings"},
	{"dot", "graphviz diagram and structure map rendering"},
	{"npx", "mermaid rendering, typedoc, license-checker"},
	{"doxygen", "API documentation for C-family and Go sources"},
	{"pandoc", "PDF export of the design spec"},
	{"pip-licenses", "backend license manifest"},
	{"gh", "repository ownership resolution"},
}

type DoctorSummary struct {
	RootPath   string          `json:"root_path"`
	ConfigPath string          `json:"config_path,omitempty"`
	DocsGen    bool            `json:"docs_gen_present"`
	Tools      map[string]bool `json:"tools"`
	Missing    []string        `json:"missing"`
	Healthy    bool            `json:"healthy"`
}

func RunDoctor(cmd *cobra.Command, args []string) error {
	rootPath, err := resolveProjectRoot()
	if err != nil {
		return err
	}
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	summary := DoctorSummary{
		RootPath: rootPath,
		Tools:    make(map[string]bool, len(externalTools)),
	}

	for _, tool := range externalTools {
		_, lookErr := exec.LookPath(tool.Name)
		summary.Tools[tool.Name] = lookErr == nil
		if lookErr != nil {
			summary.Missing = append(summary.Missing, tool.Name)
		}
	}

	if path, ok := config.FindPath(rootPath); ok {
		summary.ConfigPath = path
	}
	_, statErr := os.Stat(filepath.Join(docsRoot(rootPath), "gen"))
	summary.DocsGen = statErr == nil

	// git and dot are the only tools every core command needs.
	summary.Healthy = summary.Tools["git"] && summary.Tools["dot"]

	if asJSON {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(summary)
	}

	ok := color.New(color.FgGreen).SprintFunc()
	bad := color.New(color.FgRed).SprintFunc()

	fmt.Printf("project root: %s\n", rootPath)
	if summary.ConfigPath != "" {
		fmt.Printf("config: %s\n", summary.ConfigPath)
	} else {
		fmt.Printf("config: %s\n", bad("not found"))
	}
	fmt.Printf("docs/gen: %t\n", summary.DocsGen)
	for _, tool := range externalTools {
		mark := ok("ok")
		if !summary.Tools[tool.Name] {
			mark = bad("missing")
		}
		fmt.Printf("%-14s %s  (%s)\n", tool.Name, mark, tool.Used)
	}
	if !summary.Healthy {
		fmt.Println(bad("doctor: issues found"))
		os.Exit(1)
	}
	fmt.Println(ok("doctor: ok"))
	return nil
}
