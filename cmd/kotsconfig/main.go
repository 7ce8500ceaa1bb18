// Kotsconfig is a command-line editor for application admin-console config.
//
// It fetches a config schema tree from the console API, applies edits with
// live validation, and saves new values back. Running without arguments
// launches the interactive terminal editor. A built-in reference server
// makes the tool usable end-to-end without a real console.
//
// Usage:
//
//	kotsconfig [command] [flags]
//
// See 'kotsconfig --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/replicatedhq/kots-sub006/internal/logging"
	"github.com/replicatedhq/kots-sub006/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "kotsconfig",
	Short: "Admin console configuration editor",
	Long: `A command-line editor for application admin-console configuration.

Fetches the config schema from the console API, applies edits with live
validation, and saves new values back. Console endpoints and credentials
are remembered in a local registry between runs.

If no command is specified, the interactive editor will launch automatically.`,
	Version: version.Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Silent unless KOTSCONFIG_LOG_LEVEL asks for output
		return logging.InitializeFromEnv()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default behavior: launch the interactive editor
		return runEdit(cmd, args)
	},
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("kotsconfig %s (commit: %s)\n", version.Version, version.Commit)
	},
}
