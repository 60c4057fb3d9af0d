// Package schema defines the nebari configuration file format.
package schema

const (
	ConfigFilename = "nebari-config.yaml"

	ProviderLocal    = "local"
	ProviderExisting = "existing"
	ProviderAWS      = "aws"
	ProviderGCP      = "gcp"
	ProviderAzure    = "azure"
	ProviderDO       = "do"

	CIProviderNone          = "none"
	CIProviderGitHubActions = "github-actions"
	CIProviderGitLabCI      = "gitlab-ci"

	TerraformStateRemote   = "remote"
	TerraformStateLocal    = "local"
	TerraformStateExisting = "existing"

	AuthPassword = "password"
	AuthGitHub   = "GitHub"
	AuthAuth0    = "Auth0"

	CertificateSelfSigned  = "self-signed"
	CertificateLetsEncrypt = "lets-encrypt"
	CertificateExisting    = "existing"
)

// Config is the nebari-config.yaml configuration format.
type Config struct {
	ProjectName   string `yaml:"project_name"`
	Namespace     string `yaml:"namespace"`
	NebariVersion string `yaml:"nebari_version"`
	Provider      string `yaml:"provider"`
	Domain        string `yaml:"domain"`

	CICD           CICD           `yaml:"ci_cd"`
	TerraformState TerraformState `yaml:"terraform_state"`
	Security       Security       `yaml:"security"`
	Theme          Theme          `yaml:"theme"`

	Certificate *Certificate `yaml:"certificate,omitempty"`

	GoogleCloudPlatform *GoogleCloudPlatform `yaml:"google_cloud_platform,omitempty"`
	AmazonWebServices   *AmazonWebServices   `yaml:"amazon_web_services,omitempty"`

	// Set by the loader, not from YAML.
	FilePath string `yaml:"-"`
}

// CICD selects the continuous-integration provider for rendered pipelines.
type CICD struct {
	Type   string `yaml:"type"`
	Branch string `yaml:"branch,omitempty"`
}

// TerraformState selects where provisioning state is stored.
type TerraformState struct {
	Type string `yaml:"type"`
}

// Security holds identity and authentication settings.
type Security struct {
	Keycloak       Keycloak       `yaml:"keycloak"`
	Authentication Authentication `yaml:"authentication"`
}

// Keycloak holds identity-provider bootstrap settings.
type Keycloak struct {
	InitialRootPassword string `yaml:"initial_root_password"`
}

// Authentication selects the end-user authentication mechanism.
type Authentication struct {
	Type   string            `yaml:"type"`
	Config map[string]string `yaml:"config,omitempty"`
}

// Theme customizes the user-facing hub pages.
type Theme struct {
	JupyterHub JupyterHubTheme `yaml:"jupyterhub"`
}

// JupyterHubTheme holds hub branding text.
type JupyterHubTheme struct {
	HubTitle    string `yaml:"hub_title"`
	HubSubtitle string `yaml:"hub_subtitle"`
	Welcome     string `yaml:"welcome"`
}

// Certificate configures TLS for the platform ingress.
type Certificate struct {
	Type      string `yaml:"type"`
	ACMEEmail string `yaml:"acme_email,omitempty"`
}

// GoogleCloudPlatform holds GCP-specific settings.
type GoogleCloudPlatform struct {
	Project string `yaml:"project"`
	Region  string `yaml:"region,omitempty"`
}

// AmazonWebServices holds AWS-specific settings.
type AmazonWebServices struct {
	Region            string `yaml:"region,omitempty"`
	KubernetesVersion string `yaml:"kubernetes_version,omitempty"`
}
