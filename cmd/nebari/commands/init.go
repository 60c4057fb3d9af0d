package commands

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/systemstart/nebari/pkg/initialize"
	"github.com/systemstart/nebari/pkg/provider/github"
	"github.com/systemstart/nebari/pkg/schema"
)

// Init returns the init command.
//
// Init renders an initial configuration file from flags and can
// auto-provision the GitHub deployment repository.
func Init() *cobra.Command {
	var (
		opts       initialize.Options
		outputPath string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create an initial nebari configuration file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.Version = version

			cfg, err := initialize.RenderConfig(opts)
			if err != nil {
				return err
			}

			if opts.RepositoryAutoProvision {
				if err := autoProvision(cmd, cfg, opts.Repository); err != nil {
					return err
				}
			}

			if err := cfg.Save(outputPath); err != nil {
				return err
			}
			slog.Info("configuration written", "path", outputPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.ProjectName, "project-name", "p", "", "Project name (required)")
	cmd.Flags().StringVar(&opts.Domain, "domain", "", "Domain the platform will be served under")
	cmd.Flags().StringVar(&opts.Provider, "provider", schema.ProviderLocal, "Cloud provider: local, existing, aws, gcp, azure or do")
	cmd.Flags().StringVar(&opts.Namespace, "namespace", "dev", "Deployment namespace")
	cmd.Flags().StringVar(&opts.CIProvider, "ci-provider", schema.CIProviderNone, "CI provider: none, github-actions or gitlab-ci")
	cmd.Flags().StringVar(&opts.AuthProvider, "auth-provider", schema.AuthPassword, "Authentication provider: password, GitHub or Auth0")
	cmd.Flags().StringVar(&opts.TerraformState, "terraform-state", schema.TerraformStateRemote, "Terraform state mode: remote, local or existing")
	cmd.Flags().StringVar(&opts.SSLCertEmail, "ssl-cert-email", "", "Email for Let's Encrypt certificates")
	cmd.Flags().StringVar(&opts.Repository, "repository", "", "GitHub repository URL for the deployment")
	cmd.Flags().BoolVar(&opts.RepositoryAutoProvision, "repository-auto-provision", false, "Create the GitHub repository and set its secrets")
	cmd.Flags().StringVarP(&outputPath, "output", "o", schema.ConfigFilename, "Where to write the configuration file")
	_ = cmd.MarkFlagRequired("project-name")

	return cmd
}

func autoProvision(cmd *cobra.Command, cfg *schema.Config, repository string) error {
	owner, repo, err := initialize.ParseGitHubURL(repository)
	if err != nil {
		return err
	}

	client, err := github.NewClient(os.Getenv("GITHUB_USERNAME"), os.Getenv("GITHUB_TOKEN"))
	if err != nil {
		return err
	}

	gitURL, err := initialize.GitHubAutoProvision(cmd.Context(), cfg, client, owner, repo)
	if err != nil {
		return err
	}

	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	if err := initialize.RepositoryInitialize(cwd, gitURL); err != nil {
		return err
	}
	slog.Info("deployment repository provisioned", "remote", gitURL, "dir", filepath.Base(cwd))
	return nil
}
