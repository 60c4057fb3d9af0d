package plugins

import (
	"errors"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systemstart/nebari/pkg/stages"
)

func stage(name string, priority int) stages.Stage {
	return &stages.TerraformStage{StageName: name, StagePriority: priority}
}

func hookFor(provided ...stages.Stage) StageHook {
	return func(stages.Environment) ([]stages.Stage, error) {
		return provided, nil
	}
}

func names(sts []stages.Stage) []string {
	result := make([]string, 0, len(sts))
	for _, st := range sts {
		result = append(result, st.Name())
	}
	return result
}

func TestDiscoverStages_FlattensProviders(t *testing.T) {
	r := NewRegistry()
	r.RegisterStages("core", hookFor(stage("a", 10), stage("b", 20)))
	r.RegisterStages("extra", hookFor(stage("c", 30)))

	discovered, err := r.DiscoverStages(stages.Environment{})
	require.NoError(t, err)
	require.Len(t, discovered, 3)

	assert.Equal(t, "core", discovered[0].Provider)
	assert.Equal(t, "a", discovered[0].Stage.Name())
	assert.Equal(t, "extra", discovered[2].Provider)
	assert.Equal(t, "c", discovered[2].Stage.Name())
}

func TestDiscoverStages_ProviderErrorIsFatal(t *testing.T) {
	wantErr := errors.New("missing credentials")

	r := NewRegistry()
	r.RegisterStages("core", hookFor(stage("a", 10)))
	r.RegisterStages("broken", func(stages.Environment) ([]stages.Stage, error) {
		return nil, wantErr
	})

	_, err := r.DiscoverStages(stages.Environment{})
	require.Error(t, err)
	assert.ErrorIs(t, err, wantErr)
	assert.Contains(t, err.Error(), "broken")
}

func TestStages_EmptyRegistry(t *testing.T) {
	r := NewRegistry()
	sts, err := r.Stages(stages.Environment{})
	require.NoError(t, err)
	assert.Empty(t, sts)
}

func TestAvailableStages_OrdersAndDeduplicates(t *testing.T) {
	r := NewRegistry()
	r.RegisterStages("core", hookFor(stage("infrastructure", 20), stage("terraform-state", 10)))
	// An override provider replaces a core stage under the same name at a
	// higher priority.
	r.RegisterStages("override", hookFor(stage("infrastructure", 25)))

	ordered, err := AvailableStages(r, stages.Environment{})
	require.NoError(t, err)

	assert.Equal(t, []string{"terraform-state", "infrastructure"}, names(ordered))
	assert.Equal(t, 25, ordered[1].Priority())
}

func TestApplySubcommands(t *testing.T) {
	r := NewRegistry()
	r.RegisterSubcommands("one", func(root *cobra.Command) {
		root.AddCommand(&cobra.Command{Use: "one"})
	})
	r.RegisterSubcommands("two", func(root *cobra.Command) {
		root.AddCommand(&cobra.Command{Use: "two"})
	})

	root := &cobra.Command{Use: "nebari"}
	r.ApplySubcommands(root)

	cmds := root.Commands()
	require.Len(t, cmds, 2)
	assert.Equal(t, "one", cmds[0].Use)
	assert.Equal(t, "two", cmds[1].Use)
}

func TestHooks_ListsAllRegistrations(t *testing.T) {
	r := NewRegistry()
	r.RegisterStages("core", hookFor())
	r.RegisterSubcommands("cli", func(*cobra.Command) {})

	entries := r.Hooks()
	require.Len(t, entries, 2)
	assert.Equal(t, HookEntry{Hook: HookStage, Provider: "core"}, entries[0])
	assert.Equal(t, HookEntry{Hook: HookSubcommand, Provider: "cli"}, entries[1])
}

func TestStageHook_ReceivesEnvironment(t *testing.T) {
	var seen stages.Environment

	r := NewRegistry()
	r.RegisterStages("core", func(env stages.Environment) ([]stages.Stage, error) {
		seen = env
		return nil, nil
	})

	env := stages.Environment{OutputDirectory: "/tmp/out"}
	_, err := r.DiscoverStages(env)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/out", seen.OutputDirectory)
}
