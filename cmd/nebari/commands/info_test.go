package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systemstart/nebari/pkg/plugins"
)

func TestInfo(t *testing.T) {
	cmd := Info(plugins.NewRegistry())

	require.NotNil(t, cmd)
	assert.Equal(t, "info", cmd.Use)

	config := cmd.Flags().Lookup("config")
	require.NotNil(t, config)
	assert.Equal(t, "", config.DefValue, "config is optional for info")
}

func TestInfo_Execute(t *testing.T) {
	cmd := Info(coreRegistry())
	cmd.SetArgs([]string{"-c", writeTestConfig(t)})
	require.NoError(t, cmd.Execute())
}

func TestVersion(t *testing.T) {
	cmd := Version()

	require.NotNil(t, cmd)
	assert.Equal(t, "version", cmd.Use)
	assert.NotNil(t, cmd.Run)
}
