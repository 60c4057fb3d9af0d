package commands

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/systemstart/nebari/pkg/deploy"
	"github.com/systemstart/nebari/pkg/plugins"
)

// Deploy returns the deploy command.
//
// Deploy renders every stage and applies them in ascending priority
// order, stopping at the first failure.
func Deploy(reg *plugins.Registry) *cobra.Command {
	var (
		configPath string
		outputDir  string
	)

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy the platform described by the configuration file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := buildEnvironment(configPath, outputDir, true)
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

			outputs, err := d.Deploy(cmd.Context())
			if err != nil {
				return err
			}

			slog.Info("deployment complete", "stages", len(ordered), "outputs", len(outputs))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to nebari configuration file (required)")
	cmd.Flags().StringVarP(&outputDir, "output", "o", ".", "Output directory for rendered stages")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}
