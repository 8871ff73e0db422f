// Package cmd provides the CLI commands for greenops.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/namansh70747/greenops-planner/internal/core"
	"github.com/namansh70747/greenops-planner/pkg/logger"
)

var (
	cfgFile string
	verbose bool

	cfg *core.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "greenops",
	Short: "Carbon-aware deployment planner",
	Long: `greenops ranks cloud regions by grid carbon intensity, latency and cost,
turns the rankings into deployment plans and keeps an analytics log of every
deployment it records.

Examples:
  greenops serve
  greenops plan --component api:web --user-region eu-west --preference max-green
  greenops analytics --file events.json`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

// Execute runs the CLI
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	defaultPath := os.Getenv("GREENOPS_CONFIG")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", defaultPath, "config file (default $GREENOPS_CONFIG, built-in defaults when unset)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(analyticsCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() error {
	loaded, err := core.LoadConfig(cfgFile)
	if err != nil {
		return err
	}
	if verbose {
		loaded.App.LogLevel = "debug"
	}
	if err := logger.Initialize(loaded.App.LogLevel, loaded.App.LogFormat); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
	}
	cfg = loaded
	return nil
}

// versionCmd prints version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", cfg.App.Name, cfg.App.Version)
	},
}
