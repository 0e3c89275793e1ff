package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ade-dev/ade/internal/diagram"
	"github.com/ade-dev/ade/internal/docgen"
	"github.com/ade-dev/ade/internal/gitio"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func RunDiagrams(cmd *cobra.Command, args []string) error {
	rootPath, err := projectRoot(args)
	if err != nil {
		return err
	}

	check, err := cmd.Flags().GetBool("check")
	if err != nil {
		return err
	}
	noLinks, err := cmd.Flags().GetBool("no-links")
	if err != nil {
		return err
	}

	matcher, err := loadMatcher(rootPath)
	if err != nil {
		return err
	}

	reconciler := diagram.NewReconciler(rootPath, diagram.ExecRenderer{})
	reconciler.Check = check

	guard := gitio.NewOwnershipGuard()
	res, err := reconciler.Run(matcher, guard.Owns)
	if err != nil {
		return err
	}

	fmt.Printf("documents scanned: %d\n", res.Documents)
	fmt.Printf("documents changed: %d\n", res.Changed)
	if res.Deleted > 0 {
		fmt.Printf("stale artifacts removed: %d\n", res.Deleted)
	}

	if check {
		if res.Changed > 0 {
			color.New(color.FgRed).Printf("check failed: %d documents out of date\n", res.Changed)
			os.Exit(1)
		}
		color.New(color.FgGreen).Println("all diagram figures up to date")
		return nil
	}

	if !noLinks {
		updated, err := docgen.UpdateDiagramLinks(rootPath,
			filepath.Join(rootPath, "docs"),
			filepath.Join(rootPath, "docs", "gen", "images"),
			func(format string, args ...any) { fmt.Printf(format+"\n", args...) })
		if err != nil {
			return err
		}
		if updated > 0 {
			fmt.Printf("architecture links repointed: %d\n", updated)
		}
	}
	return nil
}
