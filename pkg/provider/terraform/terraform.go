// Package terraform wraps the external Terraform CLI behind a narrow
// deploy/destroy contract. Stages never shell out themselves; everything
// goes through an Executor.
package terraform

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/hashicorp/terraform-exec/tfexec"
)

// StateImport describes a pre-existing resource that must be imported into
// state before apply instead of being created fresh.
type StateImport struct {
	Address string
	ID      string
}

// DeployOptions selects which Terraform operations a Deploy call performs.
type DeployOptions struct {
	Init         bool
	Imports      []StateImport
	Apply        bool
	Destroy      bool
	IgnoreErrors bool
}

// DefaultDeployOptions returns the options for a normal init+apply run.
func DefaultDeployOptions() DeployOptions {
	return DeployOptions{Init: true, Apply: true}
}

// Executor runs Terraform operations against a rendered stage directory.
type Executor interface {
	// Deploy runs the selected operations in dir with the given input
	// variables and returns the root module outputs.
	Deploy(ctx context.Context, dir string, vars map[string]any, opts DeployOptions) (map[string]any, error)
}

// CLI is the Executor backed by a local terraform binary.
type CLI struct {
	execPath string
}

// NewCLI locates the terraform binary on PATH.
func NewCLI() (*CLI, error) {
	path, err := exec.LookPath("terraform")
	if err != nil {
		return nil, fmt.Errorf("finding terraform binary: %w", err)
	}
	return &CLI{execPath: path}, nil
}

const varsFilename = "_nebari.auto.tfvars.json"

func (c *CLI) Deploy(ctx context.Context, dir string, vars map[string]any, opts DeployOptions) (map[string]any, error) {
	tf, err := tfexec.NewTerraform(dir, c.execPath)
	if err != nil {
		return nil, fmt.Errorf("preparing terraform in %s: %w", dir, err)
	}

	if err := writeVarsFile(dir, vars); err != nil {
		return nil, err
	}

	if opts.Init {
		if err := tf.Init(ctx, tfexec.Upgrade(false)); err != nil {
			return nil, fmt.Errorf("terraform init in %s: %w", dir, err)
		}
	}

	for _, imp := range opts.Imports {
		if err := tf.Import(ctx, imp.Address, imp.ID); err != nil {
			// Importing an already-imported resource is not an error.
			if isAlreadyManaged(err) {
				slog.Debug("resource already in state", "address", imp.Address)
				continue
			}
			return nil, fmt.Errorf("terraform import %s: %w", imp.Address, err)
		}
	}

	if opts.Apply {
		if err := tf.Apply(ctx); err != nil {
			return nil, fmt.Errorf("terraform apply in %s: %w", dir, err)
		}
	}

	if opts.Destroy {
		if err := tf.Destroy(ctx); err != nil {
			wrapped := fmt.Errorf("terraform destroy in %s: %w", dir, err)
			// With IgnoreErrors the failure is reported back as a value
			// for the caller's status bookkeeping instead of aborting
			// the surrounding run.
			if opts.IgnoreErrors {
				slog.Warn("terraform destroy failed", "dir", dir, "error", err)
			}
			return nil, wrapped
		}
		return map[string]any{}, nil
	}

	return c.outputs(ctx, tf)
}

func (c *CLI) outputs(ctx context.Context, tf *tfexec.Terraform) (map[string]any, error) {
	meta, err := tf.Output(ctx)
	if err != nil {
		return nil, fmt.Errorf("terraform output: %w", err)
	}

	out := make(map[string]any, len(meta))
	for name, m := range meta {
		var value any
		if err := json.Unmarshal(m.Value, &value); err != nil {
			return nil, fmt.Errorf("decoding output %q: %w", name, err)
		}
		out[name] = value
	}
	return out, nil
}

func writeVarsFile(dir string, vars map[string]any) error {
	if vars == nil {
		vars = map[string]any{}
	}
	data, err := json.MarshalIndent(vars, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding input variables: %w", err)
	}
	path := filepath.Join(dir, varsFilename)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func isAlreadyManaged(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "Resource already managed") ||
		strings.Contains(msg, "already managed by Terraform")
}
