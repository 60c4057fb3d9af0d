// Package deploy drives the ordered stage pipeline end-to-end for
// render, deploy and destroy runs.
package deploy

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/systemstart/nebari/pkg/provider/cicd"
	"github.com/systemstart/nebari/pkg/schema"
	"github.com/systemstart/nebari/pkg/stages"
)

// Deployer walks an ordered stage list, threading the shared outputs
// mapping between stages. Each run owns a fresh outputs/status pair.
type Deployer struct {
	cfg       *schema.Config
	outputDir string
	stages    []stages.Stage
}

// New creates a Deployer over an already-ordered stage list.
func New(cfg *schema.Config, outputDir string, ordered []stages.Stage) *Deployer {
	return &Deployer{cfg: cfg, outputDir: outputDir, stages: ordered}
}

// Render writes every stage's rendered file set plus any CI/CD pipeline
// files under the output directory without touching infrastructure.
func (d *Deployer) Render() error {
	for _, st := range d.stages {
		files, err := st.Render()
		if err != nil {
			return err
		}
		if err := WriteFileSet(files); err != nil {
			return fmt.Errorf("stage %s: %w", st.Name(), err)
		}
		slog.Info("rendered stage", "stage", st.Name(), "files", len(files))
	}

	cicdFiles, err := cicd.Render(d.cfg, d.outputDir)
	if err != nil {
		return fmt.Errorf("rendering ci/cd pipeline: %w", err)
	}
	if len(cicdFiles) > 0 {
		if err := WriteFileSet(cicdFiles); err != nil {
			return fmt.Errorf("writing ci/cd pipeline: %w", err)
		}
		slog.Info("rendered ci/cd pipeline", "type", d.cfg.CICD.Type, "files", len(cicdFiles))
	}

	return nil
}

// Deploy runs the full pipeline: render, deploy and check per stage in
// ascending priority order, failing fast on the first error. An empty
// pipeline is a valid no-op. The accumulated outputs are returned even
// on failure so the caller can see how far the run got.
func (d *Deployer) Deploy(ctx context.Context) (stages.Outputs, error) {
	outputs := make(stages.Outputs)

	run := uuid.NewString()
	slog.Info("starting deployment", "run", run, "stages", len(d.stages))

	for i, st := range d.stages {
		slog.Info("deploying stage",
			"run", run,
			"stage", st.Name(),
			"priority", st.Priority(),
			"progress", fmt.Sprintf("%d/%d", i+1, len(d.stages)))

		files, err := st.Render()
		if err != nil {
			return outputs, err
		}
		if err := WriteFileSet(files); err != nil {
			return outputs, fmt.Errorf("stage %s: writing rendered files: %w", st.Name(), err)
		}

		if err := st.Deploy(ctx, outputs); err != nil {
			return outputs, err
		}

		if err := st.Check(ctx, outputs); err != nil {
			return outputs, err
		}

		slog.Info("stage deployed", "stage", st.Name())
	}

	return outputs, nil
}

// Destroy tears the pipeline down in descending priority order so
// dependents go before their dependencies. Individual stage failures are
// recorded in the returned status and never stop the run; the returned
// error summarizes any failures after all stages were attempted.
func (d *Deployer) Destroy(ctx context.Context) (stages.Status, error) {
	outputs := make(stages.Outputs)
	status := make(stages.Status)

	run := uuid.NewString()
	slog.Info("starting teardown", "run", run, "stages", len(d.stages))

	for _, st := range stages.Reversed(d.stages) {
		key := stages.OutputKey(st.Name())

		if err := st.Destroy(ctx, outputs, status); err != nil {
			slog.Error("stage teardown could not be attempted", "stage", st.Name(), "error", err)
		}
		if _, ok := status[key]; !ok {
			status[key] = false
		}
	}

	var failed []string
	for _, st := range d.stages {
		if !status[stages.OutputKey(st.Name())] {
			failed = append(failed, st.Name())
		}
	}
	if len(failed) > 0 {
		return status, fmt.Errorf("destroy failed for stages: %s", strings.Join(failed, ", "))
	}

	return status, nil
}
