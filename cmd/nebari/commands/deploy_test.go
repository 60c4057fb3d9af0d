package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systemstart/nebari/pkg/plugins"
)

func TestDeploy(t *testing.T) {
	cmd := Deploy(plugins.NewRegistry())

	require.NotNil(t, cmd)
	assert.Equal(t, "deploy", cmd.Use)
	assert.NotNil(t, cmd.RunE)
}

func TestDeploy_Flags(t *testing.T) {
	cmd := Deploy(plugins.NewRegistry())

	config := cmd.Flags().Lookup("config")
	require.NotNil(t, config)
	assert.Equal(t, "c", config.Shorthand)

	output := cmd.Flags().Lookup("output")
	require.NotNil(t, output)
	assert.Equal(t, "o", output.Shorthand)
	assert.Equal(t, ".", output.DefValue)
}

func TestDeploy_MissingConfigFails(t *testing.T) {
	cmd := Deploy(plugins.NewRegistry())
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config")
}
