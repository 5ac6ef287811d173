package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/formscan/internal/config"
	"github.com/jackzampolin/formscan/internal/engines"
	"github.com/jackzampolin/formscan/internal/server"
)

var (
	serveHost string
	servePort string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the formscan server",
	Long: `Start the formscan HTTP API server.

The server exposes templates, processing, and the review workflow over
HTTP. Config changes are hot-reloaded while the server runs.

Examples:
  formscan serve                    # Start on default port 8585
  formscan serve --port 3000        # Start on custom port
  formscan serve --host 0.0.0.0     # Bind to all interfaces`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		services, mgr, err := buildServices()
		if err != nil {
			return err
		}
		defer services.Results.Close()

		// Rebuild the engine registry when the config file changes.
		mgr.OnChange(func(c *config.Config) {
			registry, err := engines.NewRegistry(c.ToEngineRegistryConfig())
			if err != nil {
				services.Logger.Error("engine config reload failed", "error", err)
				return
			}
			services.Registry = registry
			services.Logger.Info("engine registry reloaded from config")
		})
		mgr.WatchConfig()

		port := servePort
		if port == "" {
			port = mgr.Get().Server.Port
		}
		srv, err := server.New(server.Config{
			Host:     serveHost,
			Port:     port,
			Services: services,
			Logger:   services.Logger,
		})
		if err != nil {
			return err
		}

		// Start server (blocks until shutdown)
		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1", "Host to bind to")
	serveCmd.Flags().StringVar(&servePort, "port", "", "Port to listen on (default: from config)")

	rootCmd.AddCommand(serveCmd)
}
