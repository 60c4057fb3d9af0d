package commands

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/systemstart/nebari/pkg/deploy"
	"github.com/systemstart/nebari/pkg/plugins"
)

// Render returns the render command.
//
// Render writes every stage's infrastructure definitions to the output
// directory without applying anything.
func Render(reg *plugins.Registry) *cobra.Command {
	var (
		configPath string
		outputDir  string
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render stage definitions without deploying",
		RunE: func(_ *cobra.Command, _ []string) error {
			env, err := buildEnvironment(configPath, outputDir, false)
			if err != nil {
				return err
			}

			ordered, err := plugins.AvailableStages(reg, env)
			if err != nil {
				return err
			}

			d := deploy.New(env.Config, env.OutputDirectory, ordered)
			if err := d.Render(); err != nil {
				return err
			}

			slog.Info("render complete", "stages", len(ordered), "output", outputDir)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to nebari configuration file (required)")
	cmd.Flags().StringVarP(&outputDir, "output", "o", ".", "Output directory for rendered stages")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}

// Validate returns the validate command.
func Validate() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration file",
		RunE: func(_ *cobra.Command, _ []string) error {
			if _, err := buildEnvironment(configPath, ".", false); err != nil {
				return err
			}
			slog.Info("configuration is valid", "config", configPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to nebari configuration file (required)")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}
