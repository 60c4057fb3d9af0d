package deploy

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteFileSet writes a rendered file set (absolute path to content) to
// disk, creating parent directories as needed.
func WriteFileSet(files map[string][]byte) error {
	for path, data := range files {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return fmt.Errorf("creating directory for %s: %w", path, err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}
	return nil
}
