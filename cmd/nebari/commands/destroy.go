package commands

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/systemstart/nebari/pkg/deploy"
	"github.com/systemstart/nebari/pkg/plugins"
	"github.com/systemstart/nebari/pkg/stages"
)

// Destroy returns the destroy command.
//
// Destroy tears down every stage in reverse deploy order. Individual
// stage failures do not stop the run; the per-stage result table is
// printed afterwards.
func Destroy(reg *plugins.Registry) *cobra.Command {
	var (
		configPath string
		outputDir  string
	)

	cmd := &cobra.Command{
		Use:   "destroy",
		Short: "Destroy the deployed platform",
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
			status, destroyErr := d.Destroy(cmd.Context())

			if err := printDestroyStatus(ordered, status); err != nil && destroyErr == nil {
				destroyErr = err
			}
			return destroyErr
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to nebari configuration file (required)")
	cmd.Flags().StringVarP(&outputDir, "output", "o", ".", "Output directory containing rendered stages")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}

func printDestroyStatus(ordered []stages.Stage, status stages.Status) error {
	data := pterm.TableData{{"stage", "result"}}
	for _, st := range ordered {
		result := "destroyed"
		if !status[stages.OutputKey(st.Name())] {
			result = "FAILED"
		}
		data = append(data, []string{st.Name(), result})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}
