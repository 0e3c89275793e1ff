package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ade-dev/ade/internal/config"
	"github.com/ade-dev/ade/internal/history"
	"github.com/spf13/cobra"
)

func RunHistory(cmd *cobra.Command, args []string) error {
	rootPath, err := projectRoot(args)
	if err != nil {
		return err
	}

	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	since, err := cmd.Flags().GetString("since")
	if err != nil {
		return err
	}
	incremental, err := cmd.Flags().GetBool("incremental")
	if err != nil {
		return err
	}
	reverse, err := cmd.Flags().GetBool("reverse")
	if err != nil {
		return err
	}

	reporter := history.NewReporter(rootPath)
	return reporter.Run(history.ReportOptions{
		Limit:       limit,
		Since:       since,
		Incremental: incremental,
		Reverse:     reverse,
	})
}

func RunStats(cmd *cobra.Command, args []string) error {
	rootPath, err := projectRoot(args)
	if err != nil {
		return err
	}

	asMarkdown, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}
	dual, err := cmd.Flags().GetBool("dual")
	if err != nil {
		return err
	}

	cfg, err := config.Load(rootPath)
	if err != nil {
		return err
	}

	snap, err := history.Analyze(rootPath, cfg.EnabledLanguages())
	if err != nil {
		return err
	}

	if asMarkdown {
		snap.WriteMarkdown(os.Stdout)
	} else {
		snap.WriteText(os.Stdout)
	}
	if err := history.WriteConfigResults(os.Stdout, rootPath); err != nil {
		return err
	}

	if dual {
		statsPath := filepath.Join(rootPath, "docs", "STATS.md")
		if err := os.MkdirAll(filepath.Dir(statsPath), 0755); err != nil {
			return err
		}
		f, err := os.Create(statsPath)
		if err != nil {
			return err
		}
		defer f.Close()
		snap.WriteMarkdown(f)
		if err := history.WriteConfigResults(f, rootPath); err != nil {
			return err
		}
		fmt.Printf("\nstats written to %s\n", statsPath)
	}
	return nil
}
