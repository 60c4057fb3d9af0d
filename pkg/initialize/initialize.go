// Package initialize builds the initial deployment configuration and
// optionally auto-provisions the remote deployment repository.
package initialize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"

	"github.com/systemstart/nebari/pkg/provider/git"
	"github.com/systemstart/nebari/pkg/provider/github"
	"github.com/systemstart/nebari/pkg/schema"
)

const welcomeHeaderText = "Your open source data science platform, hosted"

const welcomeMessage = `Welcome! Learn about the platform's features and configurations in ` +
	`<a href="https://www.nebari.dev/docs">the documentation</a>.`

// DefaultPasswordFilename is where the generated initial root password is
// stored for the operator.
const DefaultPasswordFilename = "NEBARI_DEFAULT_PASSWORD"

// Options are the non-interactive inputs to RenderConfig.
type Options struct {
	ProjectName    string
	Domain         string
	Provider       string
	Namespace      string
	CIProvider     string
	AuthProvider   string
	TerraformState string
	SSLCertEmail   string
	Version        string

	Repository              string
	RepositoryAutoProvision bool
}

// RenderConfig builds a validated configuration from opts, generating the
// identity provider's initial root password as a side effect.
func RenderConfig(opts Options) (*schema.Config, error) {
	if opts.Namespace == "" {
		opts.Namespace = "dev"
	}
	if opts.Provider == "" {
		opts.Provider = schema.ProviderLocal
	}
	if opts.CIProvider == "" {
		opts.CIProvider = schema.CIProviderNone
	}
	if opts.AuthProvider == "" {
		opts.AuthProvider = schema.AuthPassword
	}
	if opts.TerraformState == "" {
		opts.TerraformState = schema.TerraformStateRemote
	}

	rootPassword, err := schema.RandomSecureString(32)
	if err != nil {
		return nil, err
	}
	if err := writeDefaultPassword(rootPassword); err != nil {
		return nil, err
	}

	cfg := &schema.Config{
		ProjectName:   opts.ProjectName,
		Namespace:     opts.Namespace,
		NebariVersion: opts.Version,
		Provider:      opts.Provider,
		Domain:        opts.Domain,
		CICD:          schema.CICD{Type: opts.CIProvider},
		TerraformState: schema.TerraformState{
			Type: opts.TerraformState,
		},
		Security: schema.Security{
			Keycloak: schema.Keycloak{InitialRootPassword: rootPassword},
			Authentication: schema.Authentication{
				Type: opts.AuthProvider,
			},
		},
		Theme: schema.Theme{
			JupyterHub: schema.JupyterHubTheme{
				HubTitle:    fmt.Sprintf("Nebari - %s", opts.ProjectName),
				HubSubtitle: hubSubtitle(opts.Provider),
				Welcome:     welcomeMessage,
			},
		},
	}

	if opts.SSLCertEmail != "" {
		cfg.Certificate = &schema.Certificate{
			Type:      schema.CertificateLetsEncrypt,
			ACMEEmail: opts.SSLCertEmail,
		}
	}

	if opts.Provider == schema.ProviderGCP {
		if project := os.Getenv("PROJECT_ID"); project != "" {
			cfg.GoogleCloudPlatform = &schema.GoogleCloudPlatform{Project: project}
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func hubSubtitle(provider string) string {
	switch provider {
	case schema.ProviderDO:
		return welcomeHeaderText + " on Digital Ocean"
	case schema.ProviderGCP:
		return welcomeHeaderText + " on Google Cloud Platform"
	case schema.ProviderAzure:
		return welcomeHeaderText + " on Azure"
	case schema.ProviderAWS:
		return welcomeHeaderText + " on Amazon Web Services"
	default:
		return welcomeHeaderText
	}
}

func writeDefaultPassword(password string) error {
	path := filepath.Join(os.TempDir(), DefaultPasswordFilename)
	if err := os.WriteFile(path, []byte(password), 0o600); err != nil {
		return fmt.Errorf("writing default password file: %w", err)
	}
	slog.Info("initial root password stored", "path", path)
	return nil
}

var githubURLPattern = regexp.MustCompile(`^(?:https://)?github\.com/([^/]+)/([^/]+?)/?$`)

// ParseGitHubURL extracts owner and repository name from a GitHub
// repository URL.
func ParseGitHubURL(repository string) (owner, repo string, err error) {
	m := githubURLPattern.FindStringSubmatch(repository)
	if m == nil {
		return "", "", fmt.Errorf("repository %q is not a full GitHub repository URL", repository)
	}
	return m[1], m[2], nil
}

// providerSecrets lists which environment variables must be pushed to the
// deployment repository per cloud provider.
func providerSecrets(provider string) []string {
	switch provider {
	case schema.ProviderDO:
		return []string{
			"AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY",
			"SPACES_ACCESS_KEY_ID", "SPACES_SECRET_ACCESS_KEY",
			"DIGITALOCEAN_TOKEN",
		}
	case schema.ProviderAWS:
		return []string{"AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY"}
	case schema.ProviderGCP:
		return []string{"PROJECT_ID", "GOOGLE_CREDENTIALS"}
	case schema.ProviderAzure:
		return []string{"ARM_CLIENT_ID", "ARM_CLIENT_SECRET", "ARM_SUBSCRIPTION_ID", "ARM_TENANT_ID"}
	default:
		return nil
	}
}

// GitHubAutoProvision creates the deployment repository if it does not
// exist and pushes the provider credentials as Actions secrets. It
// returns the git URL for the provisioned repository.
func GitHubAutoProvision(ctx context.Context, cfg *schema.Config, client *github.Client, owner, repo string) (string, error) {
	_, err := client.GetRepository(ctx, owner, repo)
	switch {
	case errors.Is(err, github.ErrNotFound):
		description := fmt.Sprintf("Nebari %s-%s", cfg.ProjectName, cfg.Provider)
		homepage := fmt.Sprintf("https://%s", cfg.Domain)
		if _, err := client.CreateRepository(ctx, owner, repo, description, homepage); err != nil {
			return "", fmt.Errorf("unable to create repository github.com/%s/%s: %w", owner, repo, err)
		}
	case err != nil:
		return "", fmt.Errorf("checking repository github.com/%s/%s: %w", owner, repo, err)
	default:
		slog.Warn("repository already exists", "owner", owner, "repo", repo)
	}

	for _, name := range providerSecrets(cfg.Provider) {
		value := os.Getenv(name)
		if name == "GOOGLE_CREDENTIALS" {
			data, err := os.ReadFile(os.Getenv(name))
			if err != nil {
				return "", fmt.Errorf("reading GOOGLE_CREDENTIALS file: %w", err)
			}
			value = string(data)
		}
		if err := client.UpdateSecret(ctx, owner, repo, name, value); err != nil {
			return "", fmt.Errorf("unable to set secrets on github.com/%s/%s: %w", owner, repo, err)
		}
	}
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		if err := client.UpdateSecret(ctx, owner, repo, "REPOSITORY_ACCESS_TOKEN", token); err != nil {
			return "", fmt.Errorf("unable to set secrets on github.com/%s/%s: %w", owner, repo, err)
		}
	}

	return fmt.Sprintf("git@github.com:%s/%s.git", owner, repo), nil
}

// RepositoryInitialize makes dir a git repository pointing at gitURL as
// origin.
func RepositoryInitialize(dir, gitURL string) error {
	if !git.IsRepo(dir) {
		if err := git.Init(dir); err != nil {
			return err
		}
	}
	return git.AddRemote(dir, "origin", gitURL)
}
