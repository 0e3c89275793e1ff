package docgen

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// RunTypeDoc generates TypeDoc output when the project contains TypeScript
// sources and a typedoc binary can be resolved (PATH, then the project's
// node_modules/.bin). Neither condition holding is a soft skip.
func RunTypeDoc(projectPath, outputDir, projectName string, warn func(format string, args ...any)) error {
	tsFiles, err := findTypeScriptFiles(projectPath)
	if err != nil {
		return err
	}
	if len(tsFiles) == 0 {
		return nil
	}

	bin := resolveTypedoc(projectPath)
	if bin == "" {
		if warn != nil {
			warn("warning: 'typedoc' not found for %s, falling back to doxygen", projectName)
		}
		return nil
	}

	tdOut := filepath.Join(outputDir, "typedoc", projectName)
	if err := os.MkdirAll(tdOut, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", tdOut, err)
	}

	args := []string{
		"--out", tdOut,
		"--exclude", "**/node_modules/**",
		"--hideGenerator",
		"--skipErrorChecking",
	}
	if _, err := os.Stat(filepath.Join(projectPath, "tsconfig.json")); err == nil {
		args = append(args, "--entryPointStrategy", "expand", projectPath)
	} else {
		args = append(args, tsFiles...)
	}

	if out, err := exec.Command(bin, args...).CombinedOutput(); err != nil {
		return fmt.Errorf("typedoc failed for %s: %v: %s", projectName, err, firstLineOf(string(out)))
	}
	return nil
}

func resolveTypedoc(projectPath string) string {
	if bin, err := exec.LookPath("typedoc"); err == nil {
		return bin
	}
	local := filepath.Join(projectPath, "node_modules", ".bin", "typedoc")
	if _, err := os.Stat(local); err == nil {
		return local
	}
	return ""
}

func findTypeScriptFiles(root string) ([]string, error) {
	files := make([]string, 0)
	err := filepath.Walk(root, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if info.IsDir() {
			if filepath.Base(path) == "node_modules" {
				return filepath.SkipDir
			}
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".ts", ".tsx":
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}
	return files, nil
}
