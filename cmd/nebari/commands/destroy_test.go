package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systemstart/nebari/pkg/plugins"
	"github.com/systemstart/nebari/pkg/stages"
)

func TestDestroy(t *testing.T) {
	cmd := Destroy(plugins.NewRegistry())

	require.NotNil(t, cmd)
	assert.Equal(t, "destroy", cmd.Use)
	assert.NotNil(t, cmd.RunE)
}

func TestDestroy_Flags(t *testing.T) {
	cmd := Destroy(plugins.NewRegistry())

	config := cmd.Flags().Lookup("config")
	require.NotNil(t, config)
	assert.Equal(t, "c", config.Shorthand)

	output := cmd.Flags().Lookup("output")
	require.NotNil(t, output)
	assert.Equal(t, ".", output.DefValue)
}

func TestPrintDestroyStatus(t *testing.T) {
	ordered := []stages.Stage{
		&stages.TerraformStage{StageName: "infrastructure", StagePriority: 20},
		&stages.TerraformStage{StageName: "kubernetes-services", StagePriority: 30},
	}
	status := stages.Status{
		"stages/infrastructure":      true,
		"stages/kubernetes-services": false,
	}

	require.NoError(t, printDestroyStatus(ordered, status))
}
