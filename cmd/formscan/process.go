package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/formscan/internal/api"
	"github.com/jackzampolin/formscan/internal/ingest"
	"github.com/jackzampolin/formscan/internal/pipeline"
)

var (
	processTemplate  string
	processPrimary   string
	processSecondary string
	processBinarize  bool
)

var processCmd = &cobra.Command{
	Use:   "process <input>...",
	Short: "Run documents through the extraction pipeline",
	Long: `Process page images, directories, ZIP archives, or PDFs.

Each page is deskewed, its template ROIs are aligned, and every field is
read by the configured OCR engines. Results land in the sqlite store and
each document gets a workspace with its crops and extract.json.

Examples:
  formscan process scan.png --template invoice
  formscan process pages/ --template invoice
  formscan process batch.zip                  # auto-detect template per page`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		services, mgr, err := buildServices()
		if err != nil {
			return err
		}
		defer services.Results.Close()

		defaults := mgr.Get().Defaults
		primary := defaults.PrimaryEngine
		if processPrimary != "" {
			primary = processPrimary
		}
		secondary := defaults.SecondaryEngine
		if cmd.Flags().Changed("secondary") {
			secondary = processSecondary
		}
		templateName := defaults.Template
		if processTemplate != "" {
			templateName = processTemplate
		}

		extractDir, err := os.MkdirTemp("", "formscan-ingest-*")
		if err != nil {
			return err
		}
		pages, err := ingest.Collect(ctx, services.Logger, args, extractDir)
		if err != nil {
			return err
		}

		proc := &pipeline.Processor{
			Templates:       services.Templates,
			Results:         services.Results,
			Registry:        services.Registry,
			Home:            services.Home,
			Logger:          services.Logger,
			PrimaryEngine:   primary,
			SecondaryEngine: secondary,
			MaxWorkers:      defaults.MaxWorkers,
			Binarize:        processBinarize,
		}
		batch, err := proc.ProcessBatch(ctx, templateName, pages)
		if err != nil {
			return err
		}
		return api.Output(batch)
	},
}

func init() {
	processCmd.Flags().StringVarP(&processTemplate, "template", "t", "", "template name (default: auto-detect)")
	processCmd.Flags().StringVar(&processPrimary, "engine", "", "primary OCR engine (default: from config)")
	processCmd.Flags().StringVar(&processSecondary, "secondary", "", "secondary OCR engine; pass empty to disable cross-checking")
	processCmd.Flags().BoolVar(&processBinarize, "binarize", false, "threshold crops to black and white before OCR")

	rootCmd.AddCommand(processCmd)
}
