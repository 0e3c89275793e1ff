package cli

import (
	"fmt"
	"path/filepath"

	"github.com/ade-dev/ade/internal/config"
	"github.com/ade-dev/ade/internal/docgen"
	"github.com/ade-dev/ade/internal/languages"
	"github.com/spf13/cobra"
)

func RunDocument(cmd *cobra.Command, args []string) error {
	rootPath, err := projectRoot(args)
	if err != nil {
		return err
	}

	pdf, err := cmd.Flags().GetBool("pdf")
	if err != nil {
		return err
	}
	skipAPI, err := cmd.Flags().GetBool("skip-api-docs")
	if err != nil {
		return err
	}

	matcher, err := loadMatcher(rootPath)
	if err != nil {
		return err
	}

	// The scaffold config can turn the API doc stages off as a feature.
	if !skipAPI {
		cfg, cfgErr := config.Load(rootPath)
		if cfgErr == nil {
			if v, ok := cfg.Get("features.api_docs.enabled"); ok {
				if enabled, isBool := v.(bool); isBool && !enabled {
					skipAPI = true
				}
			}
		}
	}

	generator := docgen.NewGenerator(rootPath, docsRoot(rootPath), languages.NewDefaultRegistry())

	if err := generator.Clean(); err != nil {
		return fmt.Errorf("failed to clean docs/gen: %w", err)
	}

	projectName := filepath.Base(rootPath)
	fmt.Printf("generating documentation for %s\n", projectName)
	if err := generator.Process(rootPath, projectName, matcher, docgen.Options{PDF: pdf, SkipAPI: skipAPI}); err != nil {
		return err
	}
	fmt.Printf("documentation written to %s\n", generator.GenDir())
	return nil
}
