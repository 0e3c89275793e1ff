package cli

import (
	"fmt"
	"strings"

	"github.com/ade-dev/ade/internal/config"
	"github.com/spf13/cobra"
)

func newConfigCommand() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Read and toggle project configuration",
	}

	getCmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Print one config value by dotted path",
		Args:  cobra.ExactArgs(1),
		RunE:  runConfigGet,
	}

	getExtrasCmd := &cobra.Command{
		Use:   "get-extras",
		Short: "Print the dependency extras of enabled features",
		RunE:  runConfigGetExtras,
	}

	getMarkersCmd := &cobra.Command{
		Use:   "get-markers",
		Short: "Print the pytest marker expression excluding disabled features",
		RunE:  runConfigGetMarkers,
	}

	getLanguagesCmd := &cobra.Command{
		Use:   "get-enabled-languages",
		Short: "Print the languages the project enables",
		RunE:  runConfigGetLanguages,
	}

	enableCmd := &cobra.Command{
		Use:   "enable <key>",
		Short: "Set a boolean config key to true",
		Args:  cobra.ExactArgs(1),
		RunE:  func(cmd *cobra.Command, args []string) error { return runConfigToggle(args[0], true) },
	}

	disableCmd := &cobra.Command{
		Use:   "disable <key>",
		Short: "Set a boolean config key to false",
		Args:  cobra.ExactArgs(1),
		RunE:  func(cmd *cobra.Command, args []string) error { return runConfigToggle(args[0], false) },
	}

	configCmd.AddCommand(getCmd, getExtrasCmd, getMarkersCmd, getLanguagesCmd, enableCmd, disableCmd)
	return configCmd
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	value, ok := cfg.Get(args[0])
	if !ok {
		return fmt.Errorf("key %q not found", args[0])
	}
	fmt.Println(config.FormatValue(value))
	return nil
}

func runConfigGetExtras(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	fmt.Println(strings.Join(cfg.Extras(), " "))
	return nil
}

func runConfigGetMarkers(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	fmt.Println(cfg.ExcludeMarkers())
	return nil
}

func runConfigGetLanguages(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	fmt.Println(strings.Join(cfg.EnabledLanguages(), " "))
	return nil
}

func runConfigToggle(keyPath string, value bool) error {
	rootPath, err := resolveProjectRoot()
	if err != nil {
		return err
	}
	if err := config.Toggle(rootPath, keyPath, value); err != nil {
		return err
	}
	fmt.Printf("%s = %t\n", keyPath, value)
	return nil
}

func loadConfig() (*config.Config, error) {
	rootPath, err := resolveProjectRoot()
	if err != nil {
		return nil, err
	}
	return config.Load(rootPath)
}
