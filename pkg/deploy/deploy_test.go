package deploy

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systemstart/nebari/pkg/provider/terraform"
	"github.com/systemstart/nebari/pkg/schema"
	"github.com/systemstart/nebari/pkg/stages"
)

// fakeStage records lifecycle calls into a shared journal so tests can
// assert cross-stage ordering.
type fakeStage struct {
	name     string
	priority int
	journal  *[]string

	renderFiles map[string][]byte
	renderErr   error
	deployErr   error
	checkErr    error
	destroyErr  error

	// destroyOK is the status value recorded when Destroy runs cleanly.
	destroyOK bool

	seenOutputs stages.Outputs
}

func (f *fakeStage) log(op string) {
	if f.journal != nil {
		*f.journal = append(*f.journal, f.name+":"+op)
	}
}

func (f *fakeStage) Name() string  { return f.name }
func (f *fakeStage) Priority() int { return f.priority }

func (f *fakeStage) Render() (map[string][]byte, error) {
	f.log("render")
	if f.renderErr != nil {
		return nil, f.renderErr
	}
	return f.renderFiles, nil
}

func (f *fakeStage) InputVars(stages.Outputs) (map[string]any, error) {
	return map[string]any{}, nil
}

func (f *fakeStage) StateImports() []terraform.StateImport { return nil }

func (f *fakeStage) Deploy(_ context.Context, outputs stages.Outputs) error {
	f.log("deploy")
	f.seenOutputs = cloneOutputs(outputs)
	if f.deployErr != nil {
		return f.deployErr
	}
	outputs[stages.OutputKey(f.name)] = map[string]any{"stage": f.name}
	return nil
}

func (f *fakeStage) Check(context.Context, stages.Outputs) error {
	f.log("check")
	return f.checkErr
}

func (f *fakeStage) Destroy(_ context.Context, _ stages.Outputs, status stages.Status) error {
	f.log("destroy")
	if f.destroyErr != nil {
		return f.destroyErr
	}
	status[stages.OutputKey(f.name)] = f.destroyOK
	return nil
}

func cloneOutputs(outputs stages.Outputs) stages.Outputs {
	clone := make(stages.Outputs, len(outputs))
	for k, v := range outputs {
		clone[k] = v
	}
	return clone
}

func testConfig() *schema.Config {
	return &schema.Config{
		ProjectName: "proj",
		Namespace:   "dev",
		Provider:    schema.ProviderLocal,
	}
}

func TestDeploy_RunsStagesInOrder(t *testing.T) {
	var journal []string
	a := &fakeStage{name: "a", priority: 10, journal: &journal}
	b := &fakeStage{name: "b", priority: 20, journal: &journal}

	d := New(testConfig(), t.TempDir(), []stages.Stage{a, b})
	outputs, err := d.Deploy(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"a:render", "a:deploy", "a:check",
		"b:render", "b:deploy", "b:check",
	}, journal)
	assert.Contains(t, outputs, "stages/a")
	assert.Contains(t, outputs, "stages/b")
}

func TestDeploy_ThreadsOutputsForward(t *testing.T) {
	a := &fakeStage{name: "a", priority: 10}
	b := &fakeStage{name: "b", priority: 20}

	d := New(testConfig(), t.TempDir(), []stages.Stage{a, b})
	_, err := d.Deploy(context.Background())
	require.NoError(t, err)

	assert.Empty(t, a.seenOutputs)
	require.Contains(t, b.seenOutputs, "stages/a")
	assert.Equal(t, "a", b.seenOutputs["stages/a"]["stage"])
}

func TestDeploy_FailFastKeepsPartialOutputs(t *testing.T) {
	var journal []string
	a := &fakeStage{name: "a", priority: 10, journal: &journal}
	b := &fakeStage{name: "b", priority: 20, journal: &journal, deployErr: errors.New("boom")}
	c := &fakeStage{name: "c", priority: 30, journal: &journal}

	d := New(testConfig(), t.TempDir(), []stages.Stage{a, b, c})
	outputs, err := d.Deploy(context.Background())

	require.Error(t, err)
	assert.Contains(t, outputs, "stages/a")
	assert.NotContains(t, outputs, "stages/b")
	assert.NotContains(t, journal, "c:render")
}

func TestDeploy_CheckFailureStopsRun(t *testing.T) {
	a := &fakeStage{name: "a", priority: 10, checkErr: errors.New("unhealthy")}
	b := &fakeStage{name: "b", priority: 20}

	d := New(testConfig(), t.TempDir(), []stages.Stage{a, b})
	outputs, err := d.Deploy(context.Background())

	require.Error(t, err)
	assert.Contains(t, outputs, "stages/a", "deploy outputs survive a failed check")
	assert.NotContains(t, outputs, "stages/b")
}

func TestDeploy_EmptyPipeline(t *testing.T) {
	d := New(testConfig(), t.TempDir(), nil)
	outputs, err := d.Deploy(context.Background())
	require.NoError(t, err)
	assert.Empty(t, outputs)
}

func TestDestroy_ReverseOrder(t *testing.T) {
	var journal []string
	a := &fakeStage{name: "a", priority: 10, journal: &journal, destroyOK: true}
	b := &fakeStage{name: "b", priority: 20, journal: &journal, destroyOK: true}

	d := New(testConfig(), t.TempDir(), []stages.Stage{a, b})
	status, err := d.Destroy(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"b:destroy", "a:destroy"}, journal)
	assert.Equal(t, stages.Status{"stages/a": true, "stages/b": true}, status)
}

func TestDestroy_ContinuesPastFailures(t *testing.T) {
	var journal []string
	a := &fakeStage{name: "a", priority: 10, journal: &journal, destroyOK: true}
	b := &fakeStage{name: "b", priority: 20, journal: &journal, destroyErr: errors.New("refresh failed")}

	d := New(testConfig(), t.TempDir(), []stages.Stage{a, b})
	status, err := d.Destroy(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "b")
	assert.Contains(t, journal, "a:destroy", "later stages still run after a failure")
	assert.False(t, status["stages/b"], "failed stage gets a status entry")
	assert.True(t, status["stages/a"])
}

func TestDestroy_StatusCoversEveryStage(t *testing.T) {
	a := &fakeStage{name: "a", priority: 10, destroyOK: false}
	b := &fakeStage{name: "b", priority: 20, destroyOK: true}

	d := New(testConfig(), t.TempDir(), []stages.Stage{a, b})
	status, err := d.Destroy(context.Background())

	require.Error(t, err)
	require.Len(t, status, 2)
	assert.False(t, status["stages/a"])
	assert.True(t, status["stages/b"])
}

func TestRender_WritesStageAndPipelineFiles(t *testing.T) {
	outputDir := t.TempDir()
	st := &fakeStage{
		name:     "a",
		priority: 10,
		renderFiles: map[string][]byte{
			filepath.Join(outputDir, "stages", "a", "main.tf"): []byte("# main"),
		},
	}

	cfg := testConfig()
	cfg.CICD.Type = schema.CIProviderGitHubActions
	cfg.CICD.Branch = "main"

	d := New(cfg, outputDir, []stages.Stage{st})
	require.NoError(t, d.Render())

	data, err := os.ReadFile(filepath.Join(outputDir, "stages", "a", "main.tf"))
	require.NoError(t, err)
	assert.Equal(t, "# main", string(data))

	assert.FileExists(t, filepath.Join(outputDir, ".github", "workflows", "nebari-ops.yaml"))
}

func TestRender_StageErrorAborts(t *testing.T) {
	st := &fakeStage{name: "a", priority: 10, renderErr: errors.New("bad template")}

	d := New(testConfig(), t.TempDir(), []stages.Stage{st})
	require.Error(t, d.Render())
}

func TestWriteFileSet(t *testing.T) {
	dir := t.TempDir()
	files := map[string][]byte{
		filepath.Join(dir, "nested", "deep", "file.tf"): []byte("content"),
		filepath.Join(dir, "top.tf"):                    []byte("top"),
	}

	require.NoError(t, WriteFileSet(files))

	data, err := os.ReadFile(filepath.Join(dir, "nested", "deep", "file.tf"))
	require.NoError(t, err)
	assert.Equal(t, "content", string(data))
	assert.FileExists(t, filepath.Join(dir, "top.tf"))
}
