// Package infrastructure provisions the cloud substrate for the platform:
// the Kubernetes cluster (or connection to an existing one) every later
// stage deploys into. Its outputs carry the cluster credentials.
package infrastructure

import (
	"embed"
	"fmt"
	"io/fs"

	"github.com/systemstart/nebari/pkg/schema"
	"github.com/systemstart/nebari/pkg/stages"
)

//go:embed all:template
var templates embed.FS

const (
	StageName     = "infrastructure"
	StagePriority = 20
)

// Hook returns the stage definitions this package provides.
func Hook(env stages.Environment) ([]stages.Stage, error) {
	return []stages.Stage{New(env)}, nil
}

// New constructs the infrastructure stage.
func New(env stages.Environment) stages.Stage {
	tmpl, err := fs.Sub(templates, "template")
	if err != nil {
		panic(fmt.Sprintf("infrastructure templates missing: %v", err))
	}

	return &stages.TerraformStage{
		StageName:     StageName,
		StagePriority: StagePriority,
		TemplateFS:    tmpl,
		Env:           env,

		InputVarsFunc: inputVars(env),
	}
}

func inputVars(env stages.Environment) func(stages.Outputs) (map[string]any, error) {
	return func(stages.Outputs) (map[string]any, error) {
		cfg := env.Config
		vars := map[string]any{
			"name":           cfg.ProjectName,
			"namespace":      cfg.Namespace,
			"cloud_provider": cfg.Provider,
			"domain":         cfg.Domain,
		}
		switch cfg.Provider {
		case schema.ProviderGCP:
			if cfg.GoogleCloudPlatform != nil {
				vars["project_id"] = cfg.GoogleCloudPlatform.Project
				vars["region"] = cfg.GoogleCloudPlatform.Region
			}
		case schema.ProviderAWS:
			if cfg.AmazonWebServices != nil {
				vars["region"] = cfg.AmazonWebServices.Region
				vars["kubernetes_version"] = cfg.AmazonWebServices.KubernetesVersion
			}
		}
		return vars, nil
	}
}
