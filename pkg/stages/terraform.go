package stages

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/systemstart/nebari/pkg/provider/terraform"
)

// DefinitionFilename is the generated per-stage Terraform definition.
const DefinitionFilename = "_nebari.tf.json"

// TerraformStage is the shared lifecycle for Terraform-backed stages.
// Concrete stages construct one with their name, priority and template
// source, and supply override funcs for the hooks they customize. Hooks
// left nil get the base behavior: empty input variables, no state
// imports, no-op check.
type TerraformStage struct {
	StageName     string
	StagePriority int

	// TemplateFS is the stage's template tree, usually an embedded
	// filesystem rooted at the template directory. TemplateDirectory
	// may be set instead to read templates from disk.
	TemplateFS        fs.FS
	TemplateDirectory string

	// Include and Exclude filter which template files are rendered.
	// Empty Include renders everything.
	Include []string
	Exclude []string

	Env Environment

	InputVarsFunc    func(outputs Outputs) (map[string]any, error)
	StateImportsFunc func() []terraform.StateImport
	CheckFunc        func(ctx context.Context, outputs Outputs) error

	// TerraformObjects replaces the documents serialized into the
	// generated definition file. The default is the stage's
	// state-backend reference.
	TerraformObjects func() []map[string]any
}

func (s *TerraformStage) Name() string  { return s.StageName }
func (s *TerraformStage) Priority() int { return s.StagePriority }

// StageDirectory returns the stage's working directory under the shared
// output root: <output>/stages/<name>. Destroy uses the same convention.
func (s *TerraformStage) StageDirectory() string {
	return filepath.Join(s.Env.OutputDirectory, "stages", s.StageName)
}

func (s *TerraformStage) templateFS() (fs.FS, error) {
	if s.TemplateFS != nil {
		return s.TemplateFS, nil
	}
	if s.TemplateDirectory != "" {
		info, err := os.Stat(s.TemplateDirectory)
		if err != nil {
			return nil, fmt.Errorf("stage %s: template directory %s: %w", s.StageName, s.TemplateDirectory, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("stage %s: template path %s is not a directory", s.StageName, s.TemplateDirectory)
		}
		return os.DirFS(s.TemplateDirectory), nil
	}
	return nil, fmt.Errorf("stage %s: no template directory configured", s.StageName)
}

// Render returns the stage's rendered file set: the generated definition
// file plus every template file copied verbatim. It does not touch disk
// under the output root.
func (s *TerraformStage) Render() (map[string][]byte, error) {
	objects := []map[string]any{stateBackend(s.Env.Config, s.StageName)}
	if s.TerraformObjects != nil {
		objects = s.TerraformObjects()
	}
	definition, err := renderObjects(objects)
	if err != nil {
		return nil, fmt.Errorf("stage %s: %w", s.StageName, err)
	}

	dir := s.StageDirectory()
	contents := map[string][]byte{
		filepath.Join(dir, DefinitionFilename): definition,
	}

	fsys, err := s.templateFS()
	if err != nil {
		return nil, err
	}

	files, err := filterFiles(fsys, s.Include, s.Exclude)
	if err != nil {
		return nil, fmt.Errorf("stage %s: filtering template files: %w", s.StageName, err)
	}

	for _, file := range files {
		data, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, fmt.Errorf("stage %s: reading template %s: %w", s.StageName, file, err)
		}
		contents[filepath.Join(dir, filepath.FromSlash(file))] = data
	}

	return contents, nil
}

// InputVars derives the stage's Terraform input variables; the base
// behavior is an empty mapping.
func (s *TerraformStage) InputVars(outputs Outputs) (map[string]any, error) {
	if s.InputVarsFunc != nil {
		return s.InputVarsFunc(outputs)
	}
	return map[string]any{}, nil
}

func (s *TerraformStage) StateImports() []terraform.StateImport {
	if s.StateImportsFunc != nil {
		return s.StateImportsFunc()
	}
	return nil
}

// Deploy applies the stage. The stage working directory is held for the
// duration of the apply and released on every exit path.
func (s *TerraformStage) Deploy(ctx context.Context, outputs Outputs) error {
	dir := s.StageDirectory()

	release, err := acquireDirectory(dir)
	if err != nil {
		return fmt.Errorf("stage %s: acquiring working directory: %w", s.StageName, err)
	}
	defer release()

	vars, err := s.InputVars(outputs)
	if err != nil {
		return fmt.Errorf("stage %s: deriving input variables: %w", s.StageName, err)
	}

	opts := terraform.DefaultDeployOptions()
	opts.Imports = s.StateImports()

	out, err := s.Env.Executor.Deploy(ctx, dir, vars, opts)
	if err != nil {
		return fmt.Errorf("stage %s: deploy: %w", s.StageName, err)
	}

	outputs[OutputKey(s.StageName)] = out
	return nil
}

// Check runs the stage's post-deploy validation; the base behavior is a
// no-op.
func (s *TerraformStage) Check(ctx context.Context, outputs Outputs) error {
	if s.CheckFunc != nil {
		return s.CheckFunc(ctx, outputs)
	}
	return nil
}

// Destroy tears the stage down. A state-only init/import pass first
// brings the provisioning state in line with reality; the actual destroy
// then runs with errors recorded in status rather than returned. The
// returned error only ever reports that teardown could not be attempted.
// The stage working directory is held for the duration, as in Deploy.
func (s *TerraformStage) Destroy(ctx context.Context, outputs Outputs, status Status) error {
	key := OutputKey(s.StageName)
	dir := s.StageDirectory()

	release, err := acquireDirectory(dir)
	if err != nil {
		status[key] = false
		return fmt.Errorf("stage %s: acquiring working directory: %w", s.StageName, err)
	}
	defer release()

	vars, err := s.InputVars(outputs)
	if err != nil {
		status[key] = false
		return fmt.Errorf("stage %s: deriving input variables: %w", s.StageName, err)
	}

	refreshed, err := s.Env.Executor.Deploy(ctx, dir, vars, terraform.DeployOptions{
		Init:    true,
		Imports: s.StateImports(),
	})
	if err != nil {
		status[key] = false
		return fmt.Errorf("stage %s: refreshing state: %w", s.StageName, err)
	}
	outputs[key] = refreshed

	slog.Info("destroying stage", "stage", s.StageName, "dir", dir)

	_, err = s.Env.Executor.Deploy(ctx, dir, vars, terraform.DeployOptions{
		Destroy:      true,
		IgnoreErrors: true,
	})
	status[key] = err == nil
	return nil
}

const lockFilename = ".nebari.lock"

// acquireDirectory takes an exclusive lock on a stage working directory,
// returning the release func. Release is safe to call once on any exit
// path.
func acquireDirectory(dir string) (func(), error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating %s: %w", dir, err)
	}

	path := filepath.Join(dir, lockFilename)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		if os.IsExist(err) {
			return nil, fmt.Errorf("stage directory %s is locked by another run (remove %s if stale)", dir, path)
		}
		return nil, fmt.Errorf("locking %s: %w", dir, err)
	}
	_ = f.Close()

	return func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			slog.Warn("failed to release stage directory lock", "path", path, "error", err)
		}
	}, nil
}
