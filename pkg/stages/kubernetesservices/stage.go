// Package kubernetesservices deploys the platform services (hub, proxy,
// identity provider) into the cluster provisioned by the infrastructure
// stage. It reads that stage's outputs for cluster credentials and
// verifies the platform endpoint after deploy.
package kubernetesservices

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/systemstart/nebari/pkg/stages"
	"github.com/systemstart/nebari/pkg/stages/infrastructure"
)

//go:embed all:template
var templates embed.FS

const (
	StageName     = "kubernetes-services"
	StagePriority = 30
)

// Hook returns the stage definitions this package provides.
func Hook(env stages.Environment) ([]stages.Stage, error) {
	return []stages.Stage{New(env)}, nil
}

// New constructs the kubernetes-services stage.
func New(env stages.Environment) stages.Stage {
	tmpl, err := fs.Sub(templates, "template")
	if err != nil {
		panic(fmt.Sprintf("kubernetes-services templates missing: %v", err))
	}

	return &stages.TerraformStage{
		StageName:     StageName,
		StagePriority: StagePriority,
		TemplateFS:    tmpl,
		Env:           env,

		InputVarsFunc: inputVars(env),
		CheckFunc:     check(env),
	}
}

// inputVars threads the infrastructure stage's cluster credentials into
// this stage when they are available. Deploy order guarantees the
// predecessor entry is present; destroy runs in reverse with no
// accumulated outputs, so a missing entry must not abort teardown.
func inputVars(env stages.Environment) func(stages.Outputs) (map[string]any, error) {
	return func(outputs stages.Outputs) (map[string]any, error) {
		cfg := env.Config
		vars := map[string]any{
			"name":                  cfg.ProjectName,
			"namespace":             cfg.Namespace,
			"endpoint":              cfg.Domain,
			"initial-root-password": cfg.Security.Keycloak.InitialRootPassword,
		}
		if infra, ok := outputs[stages.OutputKey(infrastructure.StageName)]; ok {
			if creds, ok := infra["kubernetes_credentials"]; ok {
				vars["kubernetes_credentials"] = creds
			}
		}
		return vars, nil
	}
}

// check probes the platform endpoint; an unreachable endpoint means the
// preconditions for any later stage are not met.
func check(env stages.Environment) func(context.Context, stages.Outputs) error {
	return func(ctx context.Context, _ stages.Outputs) error {
		domain := env.Config.Domain
		if domain == "" {
			return nil
		}

		url := fmt.Sprintf("https://%s/_nebari/healthz", domain)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return fmt.Errorf("stage %s: building health check request: %w", StageName, err)
		}

		client := &http.Client{Timeout: 30 * time.Second}
		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("stage %s: platform endpoint %s unreachable: %w", StageName, domain, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("stage %s: platform endpoint %s returned %s", StageName, domain, resp.Status)
		}
		return nil
	}
}
