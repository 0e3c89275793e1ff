package docgen

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ade-dev/ade/internal/fileutil"
)

// WriteDesignSpec aggregates captured doc blocks into one markdown file with
// a per-file section for every documented path, sorted for stable output.
func WriteDesignSpec(docs map[string]string, outFile, projectName string) error {
	if len(docs) == 0 {
		return nil
	}

	paths := make([]string, 0, len(docs))
	for path := range docs {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	var b strings.Builder
	fmt.Fprintf(&b, "# Automated Design Specification: %s\n\n", projectName)
	b.WriteString("> **Note**: This document is auto-generated from `## @DOC` blocks in the source code. \n\n")
	for _, path := range paths {
		fmt.Fprintf(&b, "## [%s](../%s)\n\n", path, path)
		b.WriteString(docs[path])
		b.WriteString("\n\n---\n\n")
	}

	if err := fileutil.WriteIfChanged(outFile, []byte(b.String())); err != nil {
		return fmt.Errorf("failed to write %s: %w", outFile, err)
	}
	return nil
}
