package cli

import (
	"bytes"
	"fmt"
	"os"

	"github.com/ade-dev/ade/internal/compliance"
	"github.com/ade-dev/ade/internal/gitio"
	"github.com/ade-dev/ade/internal/licenses"
	"github.com/ade-dev/ade/internal/pathcheck"
	"github.com/ade-dev/ade/internal/workflows"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func RunCheckCSS(cmd *cobra.Command, args []string) error {
	rootPath, err := projectRoot(args)
	if err != nil {
		return err
	}
	fix, err := cmd.Flags().GetBool("fix")
	if err != nil {
		return err
	}
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	maxInline, err := cmd.Flags().GetInt("max-inline")
	if err != nil {
		return err
	}

	checker := compliance.NewChecker(rootPath)
	checker.MaxInline = maxInline

	var buf bytes.Buffer
	res, err := checker.Run(&buf, fix)
	if err != nil {
		return err
	}

	if outputPath != "" {
		if err := os.WriteFile(outputPath, buf.Bytes(), 0644); err != nil {
			return err
		}
		fmt.Printf("report written to %s\n", outputPath)
	} else {
		os.Stdout.Write(buf.Bytes())
	}

	if !res.Passed() {
		os.Exit(1)
	}
	return nil
}

func RunCheckPaths(cmd *cobra.Command, args []string) error {
	rootPath, err := resolveProjectRoot()
	if err != nil {
		return err
	}
	excludes, err := cmd.Flags().GetStringArray("exclude")
	if err != nil {
		return err
	}

	checker := pathcheck.NewChecker(rootPath)
	checker.Excludes = excludes
	checker.Owned = gitio.NewOwnershipGuard().Owns

	findings, err := checker.Run()
	if err != nil {
		return err
	}
	if len(findings) > 0 {
		os.Exit(1)
	}
	return nil
}

func RunLicenses(cmd *cobra.Command, args []string) error {
	rootPath, err := projectRoot(args)
	if err != nil {
		return err
	}
	if err := licenses.NewUpdater(rootPath).Update(); err != nil {
		return err
	}
	color.New(color.FgGreen).Println("license information updated")
	return nil
}

func RunSyncWorkflows(cmd *cobra.Command, args []string) error {
	rootPath, err := projectRoot(args)
	if err != nil {
		return err
	}
	_, err = workflows.NewSyncer(rootPath).Run()
	return err
}
