package docgen

import (
	"fmt"
	"os/exec"
	"path/filepath"
)

// GeneratePDF renders a markdown file to PDF with pandoc. Missing pandoc is
// a soft skip; a missing PDF engine is pandoc's problem to report.
func GeneratePDF(inputFile, outputFile string, warn func(format string, args ...any)) error {
	if _, err := exec.LookPath("pandoc"); err != nil {
		if warn != nil {
			warn("warning: 'pandoc' not found, pdf generation skipped")
		}
		return nil
	}

	args := []string{
		filepath.Base(inputFile),
		"-o", outputFile,
		"--from", "gfm",
		"--standalone",
		"--variable", "geometry:margin=1in",
	}
	if _, err := exec.LookPath("wkhtmltopdf"); err == nil {
		args = append(args, "--pdf-engine=wkhtmltopdf", "--pdf-engine-opt=--enable-local-file-access")
	}

	cmd := exec.Command("pandoc", args...)
	cmd.Dir = filepath.Dir(inputFile)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("pandoc failed for %s: %v: %s", filepath.Base(inputFile), err, firstLineOf(string(out)))
	}
	return nil
}
