package infrastructure

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systemstart/nebari/pkg/schema"
	"github.com/systemstart/nebari/pkg/stages"
)

func env(cfg *schema.Config) stages.Environment {
	return stages.Environment{Config: cfg, OutputDirectory: "/out"}
}

func TestHook(t *testing.T) {
	sts, err := Hook(env(&schema.Config{Provider: schema.ProviderLocal}))
	require.NoError(t, err)
	require.Len(t, sts, 1)
	assert.Equal(t, StageName, sts[0].Name())
	assert.Equal(t, StagePriority, sts[0].Priority())
}

func TestRender_IncludesTemplates(t *testing.T) {
	st := New(env(&schema.Config{ProjectName: "proj", Provider: schema.ProviderAWS}))

	files, err := st.Render()
	require.NoError(t, err)

	stageDir := filepath.Join("/out", "stages", StageName)
	assert.Contains(t, files, filepath.Join(stageDir, stages.DefinitionFilename))
	assert.Contains(t, files, filepath.Join(stageDir, "main.tf"))
	assert.Contains(t, files, filepath.Join(stageDir, "outputs.tf"))
}

func TestInputVars_Base(t *testing.T) {
	cfg := &schema.Config{
		ProjectName: "proj",
		Namespace:   "dev",
		Provider:    schema.ProviderLocal,
		Domain:      "example.com",
	}
	st := New(env(cfg))

	vars, err := st.InputVars(stages.Outputs{})
	require.NoError(t, err)
	assert.Equal(t, "proj", vars["name"])
	assert.Equal(t, "dev", vars["namespace"])
	assert.Equal(t, schema.ProviderLocal, vars["cloud_provider"])
	assert.Equal(t, "example.com", vars["domain"])
	assert.NotContains(t, vars, "region")
}

func TestInputVars_GCP(t *testing.T) {
	cfg := &schema.Config{
		ProjectName: "proj",
		Namespace:   "dev",
		Provider:    schema.ProviderGCP,
		Domain:      "example.com",
		GoogleCloudPlatform: &schema.GoogleCloudPlatform{
			Project: "my-gcp-project",
			Region:  "europe-west1",
		},
	}
	st := New(env(cfg))

	vars, err := st.InputVars(stages.Outputs{})
	require.NoError(t, err)
	assert.Equal(t, "my-gcp-project", vars["project_id"])
	assert.Equal(t, "europe-west1", vars["region"])
}

func TestInputVars_AWS(t *testing.T) {
	cfg := &schema.Config{
		ProjectName: "proj",
		Namespace:   "dev",
		Provider:    schema.ProviderAWS,
		Domain:      "example.com",
		AmazonWebServices: &schema.AmazonWebServices{
			Region:            "eu-central-1",
			KubernetesVersion: "1.29",
		},
	}
	st := New(env(cfg))

	vars, err := st.InputVars(stages.Outputs{})
	require.NoError(t, err)
	assert.Equal(t, "eu-central-1", vars["region"])
	assert.Equal(t, "1.29", vars["kubernetes_version"])
}
