package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/formscan/internal/api"
	"github.com/jackzampolin/formscan/internal/config"
	"github.com/jackzampolin/formscan/internal/engines"
	"github.com/jackzampolin/formscan/internal/home"
	"github.com/jackzampolin/formscan/internal/results"
	"github.com/jackzampolin/formscan/internal/svcctx"
	"github.com/jackzampolin/formscan/internal/template"
	"github.com/jackzampolin/formscan/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:   "formscan",
	Short: "Document field extraction with dual-engine OCR consensus",
	Long: `Formscan extracts named fields from scanned forms and documents.

The pipeline includes:
  - Automatic deskew and template-based ROI alignment
  - Per-field OCR with two engines cross-checked for consensus
  - Text normalization, correction history, and validation rules
  - A sqlite result store with a human review workflow`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.formscan/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "formscan home directory (default: ~/.formscan)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&verbose, "verbose", "v", false, "enable debug logging",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		api.SetOutputFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
}

// newLogger builds the CLI's structured logger.
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// buildServices wires up the stores and registries every command needs.
// The caller must Close the returned result store.
func buildServices() (*svcctx.Services, *config.Manager, error) {
	logger := newLogger()

	h, err := home.New(homeDir)
	if err != nil {
		return nil, nil, err
	}
	if err := h.EnsureExists(); err != nil {
		return nil, nil, err
	}

	configPath := cfgFile
	if configPath == "" && h.ConfigExists() {
		configPath = h.ConfigPath()
	}
	mgr, err := config.NewManager(configPath)
	if err != nil {
		return nil, nil, err
	}

	registry, err := engines.NewRegistry(mgr.Get().ToEngineRegistryConfig())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build engine registry: %w", err)
	}

	templates, err := template.NewStore(h.TemplatesPath())
	if err != nil {
		return nil, nil, err
	}
	resultStore, err := results.Open(h.DatabasePath())
	if err != nil {
		return nil, nil, err
	}

	return &svcctx.Services{
		Templates: templates,
		Results:   resultStore,
		Registry:  registry,
		ConfigMgr: mgr,
		Logger:    logger,
		Home:      h,
	}, mgr, nil
}
