package schema

import (
	"fmt"
	"regexp"
	"strings"
)

var validProviders = map[string]bool{
	ProviderLocal:    true,
	ProviderExisting: true,
	ProviderAWS:      true,
	ProviderGCP:      true,
	ProviderAzure:    true,
	ProviderDO:       true,
}

var validCIProviders = map[string]bool{
	CIProviderNone:          true,
	CIProviderGitHubActions: true,
	CIProviderGitLabCI:      true,
}

var validTerraformStateTypes = map[string]bool{
	TerraformStateRemote:   true,
	TerraformStateLocal:    true,
	TerraformStateExisting: true,
}

var validAuthTypes = map[string]bool{
	AuthPassword: true,
	AuthGitHub:   true,
	AuthAuth0:    true,
}

var validCertificateTypes = map[string]bool{
	CertificateSelfSigned:  true,
	CertificateLetsEncrypt: true,
	CertificateExisting:    true,
}

var projectNamePattern = regexp.MustCompile(`^[a-z][a-z0-9-]{1,30}[a-z0-9]$`)

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.ProjectName == "" {
		return fmt.Errorf("project_name is required")
	}
	if !projectNamePattern.MatchString(c.ProjectName) {
		return fmt.Errorf("project_name %q must be lowercase alphanumeric with dashes, 3-32 characters", c.ProjectName)
	}

	if !validProviders[c.Provider] {
		return fmt.Errorf("provider %q is not valid (valid: %s)", c.Provider, keysOf(validProviders))
	}

	if c.Provider != ProviderLocal && c.Provider != ProviderExisting && c.Domain == "" {
		return fmt.Errorf("domain is required for provider %q", c.Provider)
	}

	if c.Namespace == "" {
		return fmt.Errorf("namespace is required")
	}

	if c.CICD.Type != "" && !validCIProviders[c.CICD.Type] {
		return fmt.Errorf("ci_cd.type %q is not valid (valid: %s)", c.CICD.Type, keysOf(validCIProviders))
	}

	if c.TerraformState.Type != "" && !validTerraformStateTypes[c.TerraformState.Type] {
		return fmt.Errorf("terraform_state.type %q is not valid (valid: %s)", c.TerraformState.Type, keysOf(validTerraformStateTypes))
	}

	if c.Security.Authentication.Type != "" && !validAuthTypes[c.Security.Authentication.Type] {
		return fmt.Errorf("security.authentication.type %q is not valid (valid: %s)", c.Security.Authentication.Type, keysOf(validAuthTypes))
	}

	if c.Certificate != nil {
		if !validCertificateTypes[c.Certificate.Type] {
			return fmt.Errorf("certificate.type %q is not valid (valid: %s)", c.Certificate.Type, keysOf(validCertificateTypes))
		}
		if c.Certificate.Type == CertificateLetsEncrypt && c.Certificate.ACMEEmail == "" {
			return fmt.Errorf("certificate.acme_email is required when certificate.type is %q", CertificateLetsEncrypt)
		}
	}

	if c.Provider == ProviderGCP && (c.GoogleCloudPlatform == nil || c.GoogleCloudPlatform.Project == "") {
		return fmt.Errorf("google_cloud_platform.project is required for provider %q", ProviderGCP)
	}

	return nil
}

func keysOf(m map[string]bool) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return strings.Join(keys, ", ")
}
