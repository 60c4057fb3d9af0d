// Package github provisions the platform's source repository: it creates
// the repository if needed and pushes deployment credentials as Actions
// secrets.
package github

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"golang.org/x/crypto/nacl/box"
)

// ErrNotFound is returned when a repository does not exist.
var ErrNotFound = errors.New("repository not found")

// Client is a minimal GitHub REST API client scoped to repository
// auto-provisioning.
type Client struct {
	httpClient *http.Client
	apiURL     string
	token      string
	user       string
}

// NewClient creates a GitHub client authenticating with token. user is
// the authenticated account, used to decide between the user and org
// repository-creation endpoints.
func NewClient(user, token string) (*Client, error) {
	if token == "" {
		return nil, fmt.Errorf("github client requires a token (set GITHUB_TOKEN)")
	}
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		apiURL:     "https://api.github.com",
		token:      token,
		user:       user,
	}, nil
}

// Repository is the subset of repository metadata the provisioning flow
// needs.
type Repository struct {
	Name          string `json:"name"`
	FullName      string `json:"full_name"`
	SSHURL        string `json:"ssh_url"`
	DefaultBranch string `json:"default_branch"`
	Private       bool   `json:"private"`
}

// GetRepository fetches repository metadata, returning ErrNotFound when
// it does not exist.
func (c *Client) GetRepository(ctx context.Context, owner, repo string) (*Repository, error) {
	req, err := c.newRequest(ctx, http.MethodGet, fmt.Sprintf("/repos/%s/%s", owner, repo), nil)
	if err != nil {
		return nil, err
	}

	var r Repository
	if err := c.doRequest(req, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// CreateRepository creates a private repository under owner. Personal
// accounts use the /user/repos endpoint, organizations /orgs/<owner>/repos.
func (c *Client) CreateRepository(ctx context.Context, owner, repo, description, homepage string) (*Repository, error) {
	endpoint := fmt.Sprintf("/orgs/%s/repos", owner)
	if strings.EqualFold(owner, c.user) {
		endpoint = "/user/repos"
	}

	payload := map[string]any{
		"name":        repo,
		"description": description,
		"homepage":    homepage,
		"private":     true,
	}

	req, err := c.newRequest(ctx, http.MethodPost, endpoint, payload)
	if err != nil {
		return nil, err
	}

	var r Repository
	if err := c.doRequest(req, &r); err != nil {
		return nil, fmt.Errorf("creating repository %s/%s: %w", owner, repo, err)
	}
	return &r, nil
}

type publicKey struct {
	KeyID string `json:"key_id"`
	Key   string `json:"key"`
}

// UpdateSecret creates or updates an Actions secret. The value is sealed
// against the repository's public key before upload.
func (c *Client) UpdateSecret(ctx context.Context, owner, repo, name, value string) error {
	req, err := c.newRequest(ctx, http.MethodGet, fmt.Sprintf("/repos/%s/%s/actions/secrets/public-key", owner, repo), nil)
	if err != nil {
		return err
	}

	var key publicKey
	if err := c.doRequest(req, &key); err != nil {
		return fmt.Errorf("fetching repository public key: %w", err)
	}

	sealed, err := sealSecret(key.Key, value)
	if err != nil {
		return fmt.Errorf("sealing secret %s: %w", name, err)
	}

	payload := map[string]any{
		"encrypted_value": sealed,
		"key_id":          key.KeyID,
	}
	req, err = c.newRequest(ctx, http.MethodPut, fmt.Sprintf("/repos/%s/%s/actions/secrets/%s", owner, repo, name), payload)
	if err != nil {
		return err
	}
	if err := c.doRequest(req, nil); err != nil {
		return fmt.Errorf("updating secret %s on %s/%s: %w", name, owner, repo, err)
	}
	return nil
}

// sealSecret performs anonymous NaCl box sealing of value against the
// base64-encoded recipient key, as required by the Actions secrets API.
func sealSecret(recipientKey, value string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(recipientKey)
	if err != nil {
		return "", fmt.Errorf("decoding public key: %w", err)
	}
	if len(raw) != 32 {
		return "", fmt.Errorf("public key has unexpected length %d", len(raw))
	}

	var recipient [32]byte
	copy(recipient[:], raw)

	sealed, err := box.SealAnonymous(nil, []byte(value), &recipient, rand.Reader)
	if err != nil {
		return "", fmt.Errorf("sealing value: %w", err)
	}
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, body any) (*http.Request, error) {
	u, err := url.Parse(c.apiURL)
	if err != nil {
		return nil, err
	}
	u.Path = path.Join(u.Path, endpoint)

	var req *http.Request
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		req, err = http.NewRequestWithContext(ctx, method, u.String(), strings.NewReader(string(jsonBody)))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
	} else {
		req, err = http.NewRequestWithContext(ctx, method, u.String(), nil)
		if err != nil {
			return nil, err
		}
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")

	return req, nil
}

func (c *Client) doRequest(req *http.Request, result any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("github API error: %s", resp.Status)
	}

	if result != nil && resp.StatusCode != http.StatusNoContent {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	return nil
}
