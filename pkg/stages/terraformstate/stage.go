// Package terraformstate provisions the remote state backend used by all
// later stages. It runs first so every subsequent apply can store its
// state remotely.
package terraformstate

import (
	"embed"
	"fmt"
	"io/fs"

	"github.com/systemstart/nebari/pkg/provider/terraform"
	"github.com/systemstart/nebari/pkg/schema"
	"github.com/systemstart/nebari/pkg/stages"
)

//go:embed all:template
var templates embed.FS

const (
	// StageName identifies this stage in outputs and on disk.
	StageName = "terraform-state"

	// StagePriority orders this stage before all infrastructure stages.
	StagePriority = 10
)

// Hook returns the stage definitions this package provides. Remote state
// is only provisioned for cloud providers with a managed state backend;
// local runs get no stage at all.
func Hook(env stages.Environment) ([]stages.Stage, error) {
	if env.Config != nil {
		switch env.Config.Provider {
		case schema.ProviderLocal, schema.ProviderExisting:
			return nil, nil
		}
		if env.Config.TerraformState.Type == schema.TerraformStateLocal {
			return nil, nil
		}
	}
	return []stages.Stage{New(env)}, nil
}

// New constructs the terraform-state stage.
func New(env stages.Environment) stages.Stage {
	tmpl, err := fs.Sub(templates, "template")
	if err != nil {
		panic(fmt.Sprintf("terraform-state templates missing: %v", err))
	}

	return &stages.TerraformStage{
		StageName:     StageName,
		StagePriority: StagePriority,
		TemplateFS:    tmpl,
		Env:           env,

		InputVarsFunc:    inputVars(env),
		StateImportsFunc: stateImports(env),
		// The state backend cannot store its own state remotely before
		// it exists.
		TerraformObjects: localBackend,
	}
}

func localBackend() []map[string]any {
	return []map[string]any{
		{
			"terraform": map[string]any{
				"backend": map[string]any{
					"local": map[string]any{
						"path": "terraform.tfstate",
					},
				},
			},
		},
	}
}

func inputVars(env stages.Environment) func(stages.Outputs) (map[string]any, error) {
	return func(stages.Outputs) (map[string]any, error) {
		cfg := env.Config
		return map[string]any{
			"name":           cfg.ProjectName,
			"namespace":      cfg.Namespace,
			"cloud_provider": cfg.Provider,
		}, nil
	}
}

// stateImports registers a pre-existing state bucket instead of creating
// one when terraform_state.type is "existing".
func stateImports(env stages.Environment) func() []terraform.StateImport {
	return func() []terraform.StateImport {
		cfg := env.Config
		if cfg.TerraformState.Type != schema.TerraformStateExisting {
			return nil
		}
		bucket := fmt.Sprintf("%s-%s-terraform-state", cfg.ProjectName, cfg.Namespace)
		switch cfg.Provider {
		case schema.ProviderAWS:
			return []terraform.StateImport{
				{Address: "module.terraform-state.aws_s3_bucket.terraform-state", ID: bucket},
				{Address: "module.terraform-state.aws_dynamodb_table.terraform-state-lock", ID: bucket + "-lock"},
			}
		case schema.ProviderGCP:
			return []terraform.StateImport{
				{Address: "module.terraform-state.google_storage_bucket.terraform-state", ID: bucket},
			}
		case schema.ProviderDO:
			return []terraform.StateImport{
				{Address: "module.terraform-state.digitalocean_spaces_bucket.terraform-state", ID: bucket},
			}
		default:
			return nil
		}
	}
}
