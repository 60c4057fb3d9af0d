package schema

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Load reads a nebari-config.yaml file, sets FilePath, and validates it.
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	absPath, err := filepath.Abs(filename)
	if err != nil {
		return nil, fmt.Errorf("resolving absolute path: %w", err)
	}
	c.FilePath = absPath

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validating config %s: %w", filename, err)
	}

	return &c, nil
}

// Save writes the configuration to filename as YAML.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(filename, data, 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

const secureStringAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// RandomSecureString returns a random alphanumeric string of length n,
// suitable for generated initial passwords.
func RandomSecureString(n int) (string, error) {
	buf := make([]byte, n)
	max := big.NewInt(int64(len(secureStringAlphabet)))
	for i := range buf {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generating random string: %w", err)
		}
		buf[i] = secureStringAlphabet[idx.Int64()]
	}
	return string(buf), nil
}
