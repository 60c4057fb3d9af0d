// Package cicd renders continuous-integration pipeline files that
// redeploy the platform when its configuration changes.
package cicd

import (
	"bytes"
	"fmt"
	"path/filepath"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"github.com/systemstart/nebari/pkg/schema"
)

const githubWorkflowTemplate = `name: nebari-ops

on:
  push:
    branches:
      - {{ .Branch | default "main" }}
    paths:
      - "nebari-config.yaml"

env:
  NEBARI_GH_BRANCH: {{ .Branch | default "main" }}

jobs:
  deploy:
    runs-on: ubuntu-latest
    steps:
      - uses: actions/checkout@v4
      - uses: hashicorp/setup-terraform@v3
      - name: Deploy {{ .ProjectName }}
        env:
          GITHUB_TOKEN: {{ printf "${{ secrets.REPOSITORY_ACCESS_TOKEN }}" }}
        run: |
          nebari deploy -c nebari-config.yaml --disable-prompt
`

const gitlabPipelineTemplate = `render-nebari:
  image: alpine:latest
  rules:
    - if: $CI_COMMIT_BRANCH == "{{ .Branch | default "main" }}"
      changes:
        - nebari-config.yaml
  script:
    - nebari deploy -c nebari-config.yaml --disable-prompt
`

type pipelineData struct {
	ProjectName string
	Branch      string
}

// Render returns the CI/CD pipeline file set for the configured provider,
// keyed by absolute output path. A "none" CI provider yields no files.
func Render(cfg *schema.Config, outputDir string) (map[string][]byte, error) {
	var (
		tmplText string
		relPath  string
	)
	switch cfg.CICD.Type {
	case "", schema.CIProviderNone:
		return nil, nil
	case schema.CIProviderGitHubActions:
		tmplText = githubWorkflowTemplate
		relPath = filepath.Join(".github", "workflows", "nebari-ops.yaml")
	case schema.CIProviderGitLabCI:
		tmplText = gitlabPipelineTemplate
		relPath = ".gitlab-ci.yml"
	default:
		return nil, fmt.Errorf("unknown ci_cd.type: %s", cfg.CICD.Type)
	}

	tmpl, err := template.New("cicd").Funcs(sprig.FuncMap()).Parse(tmplText)
	if err != nil {
		return nil, fmt.Errorf("parsing pipeline template: %w", err)
	}

	var buf bytes.Buffer
	data := pipelineData{ProjectName: cfg.ProjectName, Branch: cfg.CICD.Branch}
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("executing pipeline template: %w", err)
	}

	return map[string][]byte{
		filepath.Join(outputDir, relPath): buf.Bytes(),
	}, nil
}
