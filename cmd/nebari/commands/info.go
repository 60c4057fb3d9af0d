package commands

import (
	"fmt"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/systemstart/nebari/pkg/plugins"
	"github.com/systemstart/nebari/pkg/stages"
)

// Info returns the info command: a read-only diagnostic view of the
// registered hooks and the final stage ordering.
func Info(reg *plugins.Registry) *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show registered hooks and the runtime stage ordering",
		RunE: func(_ *cobra.Command, _ []string) error {
			fmt.Printf("nebari version: %s\n\n", version)

			hookData := pterm.TableData{{"hook", "provider"}}
			for _, entry := range reg.Hooks() {
				hookData = append(hookData, []string{entry.Hook, entry.Provider})
			}
			if err := pterm.DefaultTable.WithHasHeader().WithData(hookData).Render(); err != nil {
				return err
			}
			fmt.Println()

			env := stages.Environment{}
			if configPath != "" {
				var err error
				env, err = buildEnvironment(configPath, ".", false)
				if err != nil {
					return err
				}
			}

			discovered, err := reg.DiscoverStages(env)
			if err != nil {
				return err
			}
			providers := make(map[stages.Stage]string, len(discovered))
			all := make([]stages.Stage, 0, len(discovered))
			for _, d := range discovered {
				providers[d.Stage] = d.Provider
				all = append(all, d.Stage)
			}

			stageData := pterm.TableData{{"name", "priority", "source"}}
			for _, st := range stages.Sort(all) {
				stageData = append(stageData, []string{
					st.Name(),
					strconv.Itoa(st.Priority()),
					providers[st],
				})
			}
			return pterm.DefaultTable.WithHasHeader().WithData(stageData).Render()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Optional configuration file for config-dependent stage sets")

	return cmd
}

// Version returns the version command.
func Version() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("nebari %s (%s)\n", version, commit)
		},
	}
}
