package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/formscan/internal/config"
	"github.com/jackzampolin/formscan/internal/home"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the formscan home directory",
	Long: `Create the formscan home directory layout and a default config file.

The home directory holds templates, per-document workspaces, and the
results database. Existing config files are left untouched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := home.New(homeDir)
		if err != nil {
			return err
		}
		if err := h.EnsureExists(); err != nil {
			return err
		}

		if h.ConfigExists() {
			fmt.Printf("Config already exists at %s\n", h.ConfigPath())
			return nil
		}
		if err := config.WriteDefault(h.ConfigPath()); err != nil {
			return err
		}
		fmt.Printf("Initialized formscan home at %s\n", h.Path())
		fmt.Printf("Edit %s to configure OCR engines\n", h.ConfigPath())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
