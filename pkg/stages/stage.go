// Package stages defines the deployment stage contract and the shared
// lifecycle implementation for Terraform-backed stages.
//
// A stage is a named, prioritized unit of infrastructure definition.
// Stages are discovered through the plugin registry, ordered by priority,
// and driven through render, deploy, check and destroy by the deployment
// orchestrator. Results of each stage's apply are accumulated in an
// Outputs mapping that later stages may read.
package stages

import (
	"context"

	"github.com/systemstart/nebari/pkg/provider/terraform"
	"github.com/systemstart/nebari/pkg/schema"
)

// Outputs accumulates per-stage apply results, keyed by OutputKey.
// Once a stage completes deploy its entry is present and is not modified
// by any other stage for the remainder of the run.
type Outputs map[string]map[string]any

// Status records per-stage destroy success, keyed by OutputKey.
type Status map[string]bool

// OutputKey returns the Outputs/Status key for a stage name.
func OutputKey(name string) string {
	return "stages/" + name
}

// Environment carries the runtime dependencies stages are constructed with.
type Environment struct {
	Config          *schema.Config
	Executor        terraform.Executor
	OutputDirectory string
}

// Stage is the capability set every deployment stage implements.
type Stage interface {
	Name() string
	Priority() int

	// Render returns the stage's rendered file set: absolute output path
	// to file content. It must not mutate shared state.
	Render() (map[string][]byte, error)

	// InputVars derives the stage's Terraform input variables from the
	// accumulated outputs of earlier stages.
	InputVars(outputs Outputs) (map[string]any, error)

	// StateImports lists pre-existing resources to import into state
	// before apply.
	StateImports() []terraform.StateImport

	// Deploy applies the stage's rendered definitions and records the
	// resulting output mapping under OutputKey(Name()).
	Deploy(ctx context.Context, outputs Outputs) error

	// Check validates operational readiness after deploy. It must be
	// safe to call repeatedly.
	Check(ctx context.Context, outputs Outputs) error

	// Destroy tears the stage down, recording success under
	// OutputKey(Name()) in status. Destroy failures are recorded, not
	// returned; a non-nil error indicates the teardown could not even
	// be attempted.
	Destroy(ctx context.Context, outputs Outputs, status Status) error
}
