package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/formscan/internal/api"
)

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "Manage document templates",
}

var templatesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored templates",
	RunE: func(cmd *cobra.Command, args []string) error {
		services, _, err := buildServices()
		if err != nil {
			return err
		}
		defer services.Results.Close()

		names, err := services.Templates.List()
		if err != nil {
			return err
		}
		return api.Output(names)
	},
}

var templatesShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show one template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		services, _, err := buildServices()
		if err != nil {
			return err
		}
		defer services.Results.Close()

		tpl, err := services.Templates.Load(args[0])
		if err != nil {
			return err
		}
		return api.Output(tpl)
	},
}

var templatesCorrectCmd = &cobra.Command{
	Use:   "correct <name> <wrong> <correct>",
	Short: "Record a wrong/correct text pair on a template",
	Long: `Record a correction that future extractions of this template apply
after normalization. Corrections accumulate in order and are never
overwritten; recording the same pair twice keeps both entries.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		services, _, err := buildServices()
		if err != nil {
			return err
		}
		defer services.Results.Close()

		return services.Templates.AppendCorrection(args[0], args[1], args[2])
	},
}

func init() {
	templatesCmd.AddCommand(templatesListCmd)
	templatesCmd.AddCommand(templatesShowCmd)
	templatesCmd.AddCommand(templatesCorrectCmd)

	rootCmd.AddCommand(templatesCmd)
}
