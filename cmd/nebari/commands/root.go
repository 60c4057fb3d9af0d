// Package commands defines the CLI command structure and flag bindings.
//
// Subcommands are attached through the plugin registry's subcommand hook
// so that third-party providers can contribute commands alongside the
// first-party set.
package commands

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/systemstart/nebari/pkg/logging"
	"github.com/systemstart/nebari/pkg/plugins"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
)

// SetVersionInfo records build-time version metadata.
func SetVersionInfo(v, c string) {
	version = v
	commit = c
}

// Root returns the root command for the nebari CLI.
func Root() *cobra.Command {
	var (
		loggingType string
		logLevel    string
	)

	cmd := &cobra.Command{
		Use:           "nebari",
		Short:         "Deploy and manage a cloud-hosted data science platform",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			includeEnv()
			return logging.Initialize(loggingType, logLevel)
		},
	}

	cmd.PersistentFlags().StringVar(&loggingType, "logging-type", logging.Tint, "logging type: json, text or tint")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "logging level: debug, info, warn, error")

	return cmd
}

// Hook returns the first-party subcommand provider.
func Hook(reg *plugins.Registry) plugins.SubcommandHook {
	return func(root *cobra.Command) {
		root.AddCommand(Init())
		root.AddCommand(Validate())
		root.AddCommand(Render(reg))
		root.AddCommand(Deploy(reg))
		root.AddCommand(Destroy(reg))
		root.AddCommand(Info(reg))
		root.AddCommand(Keycloak())
		root.AddCommand(Version())
	}
}

func includeEnv() {
	err := godotenv.Load()
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("failed to load .env", "error", err)
		}
		return
	}
	slog.Debug("using .env file")
}
