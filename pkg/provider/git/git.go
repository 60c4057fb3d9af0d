// Package git initializes the local deployment repository after the
// remote has been auto-provisioned.
package git

import (
	"errors"
	"fmt"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
)

// IsRepo reports whether path is inside an existing git repository.
func IsRepo(path string) bool {
	_, err := gogit.PlainOpen(path)
	return err == nil
}

// Init creates a git repository at path. Initializing an existing
// repository is not an error.
func Init(path string) error {
	_, err := gogit.PlainInit(path, false)
	if errors.Is(err, gogit.ErrRepositoryAlreadyExists) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("initializing git repository at %s: %w", path, err)
	}
	return nil
}

// AddRemote registers url under remoteName. An already-configured remote
// with the same name is left untouched.
func AddRemote(path, remoteName, url string) error {
	repo, err := gogit.PlainOpen(path)
	if err != nil {
		return fmt.Errorf("opening git repository at %s: %w", path, err)
	}

	_, err = repo.CreateRemote(&config.RemoteConfig{
		Name: remoteName,
		URLs: []string{url},
	})
	if errors.Is(err, gogit.ErrRemoteExists) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("adding remote %s: %w", remoteName, err)
	}
	return nil
}
