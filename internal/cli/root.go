package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewRootCommand(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ade",
		Short: "Keep a self-documenting project scaffold in shape",
		Long: `Ade maintains the generated surfaces of a documented project:
numbered diagram figures in markdown, API documentation extracted
from @DOC comment blocks, git history reports, license manifests,
and the compliance checks that keep all of it honest.`,
	}

	// Generate Commands
	diagramsCmd := &cobra.Command{
		Use:   "diagrams [path]",
		Short: "Reconcile diagram blocks in markdown with rendered figures",
		Args:  cobra.MaximumNArgs(1),
		RunE:  RunDiagrams,
	}
	diagramsCmd.Flags().Bool("check", false, "Report stale figures without writing anything, exit 1 when dirty")
	diagramsCmd.Flags().Bool("no-links", false, "Skip repointing @diagram architecture links afterwards")

	documentCmd := &cobra.Command{
		Use:   "document [path]",
		Short: "Regenerate docs/gen from @DOC blocks and API doc tools",
		Args:  cobra.MaximumNArgs(1),
		RunE:  RunDocument,
	}
	documentCmd.Flags().Bool("pdf", false, "Also render the design spec to PDF via pandoc")
	documentCmd.Flags().Bool("skip-api-docs", false, "Skip doxygen and typedoc API documentation")

	historyCmd := &cobra.Command{
		Use:   "history [path]",
		Short: "Write docs/HISTORY.md with per-commit project metrics",
		Args:  cobra.MaximumNArgs(1),
		RunE:  RunHistory,
	}
	historyCmd.Flags().Int("limit", 0, "Maximum number of commits to analyze (0 = all)")
	historyCmd.Flags().String("since", "", "Only analyze commits after this ref or date")
	historyCmd.Flags().Bool("incremental", false, "Only analyze commits newer than the report's top row")
	historyCmd.Flags().Bool("reverse", false, "List oldest commits first")

	statsCmd := &cobra.Command{
		Use:   "stats [path]",
		Short: "Show current working-tree statistics per language",
		Args:  cobra.MaximumNArgs(1),
		RunE:  RunStats,
	}
	statsCmd.Flags().Bool("markdown", false, "Emit a markdown table instead of plain text")
	statsCmd.Flags().Bool("dual", false, "Print plain text and also write docs/STATS.md")

	licensesCmd := &cobra.Command{
		Use:   "licenses [path]",
		Short: "Regenerate the merged third-party license manifest",
		Args:  cobra.MaximumNArgs(1),
		RunE:  RunLicenses,
	}

	// Check Commands
	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Run compliance checks",
	}

	checkCSSCmd := &cobra.Command{
		Use:   "css [path]",
		Short: "Lint web sources for design-system violations",
		Args:  cobra.MaximumNArgs(1),
		RunE:  RunCheckCSS,
	}
	checkCSSCmd.Flags().Bool("fix", false, "Remove stale CSS comments before checking")
	checkCSSCmd.Flags().String("output", "", "Write the report to a file instead of stdout")
	checkCSSCmd.Flags().Int("max-inline", 0, "Override the inline-style threshold per component")

	checkPathsCmd := &cobra.Command{
		Use:   "paths",
		Short: "Flag absolute project paths in tracked files",
		RunE:  RunCheckPaths,
	}
	checkPathsCmd.Flags().StringArray("exclude", nil, "Glob pattern to exclude (repeatable)")

	checkCmd.AddCommand(checkCSSCmd, checkPathsCmd)

	syncWorkflowsCmd := &cobra.Command{
		Use:   "sync-workflows [path]",
		Short: "Two-way sync between .agent/workflows and agent_env/workflows",
		Args:  cobra.MaximumNArgs(1),
		RunE:  RunSyncWorkflows,
	}

	// Config Commands
	configCmd := newConfigCommand()

	serveCmd := &cobra.Command{
		Use:   "serve [path]",
		Short: "Serve docs/gen over HTTP",
		Args:  cobra.MaximumNArgs(1),
		RunE:  RunServe,
	}
	serveCmd.Flags().Int("port", 8080, "First port to try")

	doctorCmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check that the external tools ade shells out to are present",
		RunE:  RunDoctor,
	}
	doctorCmd.Flags().Bool("json", false, "Print machine-readable doctor output")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("ade %s\n", version)
		},
	}

	rootCmd.AddCommand(
		diagramsCmd,
		documentCmd,
		historyCmd,
		statsCmd,
		licensesCmd,
		checkCmd,
		syncWorkflowsCmd,
		configCmd,
		serveCmd,
		doctorCmd,
		versionCmd,
	)

	return rootCmd
}
