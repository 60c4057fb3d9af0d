// Package keycloak is a narrow admin client for the platform's identity
// provider, covering the user-administration commands only.
package keycloak

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/systemstart/nebari/pkg/schema"
)

// DefaultRealm is the realm platform users live in.
const DefaultRealm = "nebari"

// AnalystGroup is the group new users are added to.
const AnalystGroup = "analyst"

// Client is an authenticated Keycloak admin API client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// User is the subset of user attributes the admin commands expose.
type User struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Email    string   `json:"email,omitempty"`
	Enabled  bool     `json:"enabled"`
	Groups   []string `json:"groups,omitempty"`
}

// NewClientFromConfig connects to the platform's Keycloak instance using
// the root credentials from the deployment configuration.
func NewClientFromConfig(ctx context.Context, cfg *schema.Config) (*Client, error) {
	if cfg.Domain == "" {
		return nil, fmt.Errorf("config has no domain; cannot locate keycloak")
	}
	baseURL := fmt.Sprintf("https://%s/auth", cfg.Domain)
	return NewClient(ctx, baseURL, "root", cfg.Security.Keycloak.InitialRootPassword)
}

// NewClient authenticates against the master realm with a password grant
// and returns a ready client.
func NewClient(ctx context.Context, baseURL, username, password string) (*Client, error) {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
	}

	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("client_id", "admin-cli")
	form.Set("username", username)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/realms/master/protocol/openid-connect/token",
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("authenticating to keycloak: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("keycloak token request failed: %s", resp.Status)
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return nil, fmt.Errorf("decoding token response: %w", err)
	}
	c.token = tokenResp.AccessToken

	return c, nil
}

// CreateUser adds a user to the default realm and places it in the
// analyst group.
func (c *Client) CreateUser(ctx context.Context, username, password string) error {
	payload := map[string]any{
		"username": username,
		"enabled":  true,
		"credentials": []map[string]any{
			{"type": "password", "value": password, "temporary": false},
		},
		"groups": []string{AnalystGroup},
	}

	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/admin/realms/%s/users", DefaultRealm), payload, nil); err != nil {
		return fmt.Errorf("creating user %s: %w", username, err)
	}
	return nil
}

// ListUsers returns the users in the default realm.
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/admin/realms/%s/users", DefaultRealm), nil, &users); err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return users, nil
}

// ExportUsers returns the raw user representations of a realm for
// offline archival.
func (c *Client) ExportUsers(ctx context.Context, realm string) ([]map[string]any, error) {
	var users []map[string]any
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/admin/realms/%s/users", realm), nil, &users); err != nil {
		return nil, fmt.Errorf("exporting users from realm %s: %w", realm, err)
	}
	return users, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body, result any) error {
	var reqBody *strings.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = strings.NewReader(string(data))
	} else {
		reqBody = strings.NewReader("")
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("keycloak API error: %s", resp.Status)
	}

	if result != nil && resp.StatusCode != http.StatusNoContent {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	return nil
}
