package commands

import (
	"fmt"

	"github.com/systemstart/nebari/pkg/provider/terraform"
	"github.com/systemstart/nebari/pkg/schema"
	"github.com/systemstart/nebari/pkg/stages"
)

// buildEnvironment loads the configuration and assembles the stage
// environment. The Terraform executor is only required for commands that
// actually touch infrastructure.
func buildEnvironment(configPath, outputDir string, withExecutor bool) (stages.Environment, error) {
	cfg, err := schema.Load(configPath)
	if err != nil {
		return stages.Environment{}, fmt.Errorf("loading configuration: %w", err)
	}

	env := stages.Environment{
		Config:          cfg,
		OutputDirectory: outputDir,
	}

	if withExecutor {
		executor, err := terraform.NewCLI()
		if err != nil {
			return stages.Environment{}, err
		}
		env.Executor = executor
	}

	return env, nil
}
