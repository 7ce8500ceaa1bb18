package main

import (
	"github.com/spf13/cobra"

	"github.com/replicatedhq/kots-sub006/internal/server"
)

// Serve command flags
var (
	serveHost     string
	servePort     int
	serveLogLevel string
	serveSlug     string
	serveSeedPath string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the reference console server",
	Long: `Start a local reference implementation of the console config API.

The server seeds its in-memory store from a YAML or JSON config tree and
serves the config, liveconfig, values, and file-download endpoints the
other commands talk to. Prometheus metrics are exposed on /metrics and
validation results stream over the /validation/ws WebSocket.

Useful for trying the editor without a real console, and as the backend
for end-to-end tests.`,
	Example: `  # Serve a config tree for app "myapp" on the default port
  kotsconfig serve --seed config.yaml

  # Custom slug and port, verbose logging
  kotsconfig serve --seed config.yaml --slug backoffice --port 8800 --log-level debug

  # Then, in another terminal:
  kotsconfig edit --url http://localhost:3000 --app myapp`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "0.0.0.0", "Listen address")
	serveCmd.Flags().IntVar(&servePort, "port", 3000, "Listen port")
	serveCmd.Flags().StringVar(&serveLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	serveCmd.Flags().StringVar(&serveSlug, "slug", "myapp", "App slug to register the seed config under")
	serveCmd.Flags().StringVar(&serveSeedPath, "seed", "", "Path to a YAML or JSON config tree to serve (required)")
	_ = serveCmd.MarkFlagRequired("seed")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	srv, err := server.New(&server.Config{
		Host:     serveHost,
		Port:     servePort,
		LogLevel: serveLogLevel,
		AppSlug:  serveSlug,
		SeedPath: serveSeedPath,
	})
	if err != nil {
		return err
	}

	return srv.Start()
}
