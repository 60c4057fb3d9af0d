package stages

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/systemstart/nebari/pkg/schema"
)

// DefaultFileInclude matches every file in a stage's template directory.
const DefaultFileInclude = "**/*"

func globFS(fsys fs.FS, patterns []string) ([]string, error) {
	var result []string
	for _, pattern := range patterns {
		matches, err := doublestar.Glob(fsys, pattern)
		if err != nil {
			return nil, fmt.Errorf("glob %q: %w", pattern, err)
		}
		result = append(result, matches...)
	}
	slices.Sort(result)
	result = slices.Compact(result)
	return result, nil
}

// filterFiles resolves include/exclude glob patterns against a template
// filesystem, returning the matching regular files in sorted order.
func filterFiles(fsys fs.FS, include, exclude []string) ([]string, error) {
	if len(include) == 0 {
		include = []string{DefaultFileInclude}
	}

	included, err := globFS(fsys, include)
	if err != nil {
		return nil, fmt.Errorf("include filter: %w", err)
	}

	excluded, err := globFS(fsys, exclude)
	if err != nil {
		return nil, fmt.Errorf("exclude filter: %w", err)
	}

	var result []string
	for _, f := range included {
		info, err := fs.Stat(fsys, f)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", f, err)
		}
		if info.IsDir() {
			continue
		}
		if slices.Contains(excluded, f) {
			continue
		}
		result = append(result, f)
	}
	return result, nil
}

// stateBackend builds the Terraform document referencing the stage's
// provisioning-state backend, serialized into the generated
// _nebari.tf.json definition file.
func stateBackend(cfg *schema.Config, stageName string) map[string]any {
	stateType := schema.TerraformStateRemote
	if cfg != nil && cfg.TerraformState.Type != "" {
		stateType = cfg.TerraformState.Type
	}

	switch stateType {
	case schema.TerraformStateLocal:
		return map[string]any{
			"terraform": map[string]any{
				"backend": map[string]any{
					"local": map[string]any{
						"path": "terraform.tfstate",
					},
				},
			},
		}
	default:
		suffix := stageName
		namespace := "dev"
		if cfg != nil {
			suffix = cfg.ProjectName + "-" + stageName
			if cfg.Namespace != "" {
				namespace = cfg.Namespace
			}
		}
		return map[string]any{
			"terraform": map[string]any{
				"backend": map[string]any{
					"kubernetes": map[string]any{
						"secret_suffix": suffix,
						"namespace":     namespace,
					},
				},
			},
		}
	}
}

func renderObjects(objects []map[string]any) ([]byte, error) {
	merged := make(map[string]any)
	for _, obj := range objects {
		deepMerge(merged, obj)
	}
	data, err := json.MarshalIndent(merged, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding terraform objects: %w", err)
	}
	return data, nil
}

// deepMerge merges src into dst, descending into nested maps so multiple
// objects can contribute to the same terraform block.
func deepMerge(dst, src map[string]any) {
	for k, v := range src {
		if sv, ok := v.(map[string]any); ok {
			if dv, ok := dst[k].(map[string]any); ok {
				deepMerge(dv, sv)
				continue
			}
		}
		dst[k] = v
	}
}
