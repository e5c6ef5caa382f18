package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// AdminClient talks to the Supabase Admin API. The seed command uses it to
// provision the demo QA staff; it is not part of request authentication.
type AdminClient struct {
	supabaseURL string
	serviceKey  string
	httpClient  *http.Client
}

// NewAdminClient creates a Supabase Admin API client.
// Requires the service role key for elevated permissions.
func NewAdminClient(supabaseURL, serviceKey string) *AdminClient {
	return &AdminClient{
		supabaseURL: supabaseURL,
		serviceKey:  serviceKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// StaffUser describes one QA account to provision
type StaffUser struct {
	Email    string
	Password string
	FullName string // Stored as user_metadata.full_name, shown on approvals
}

type createUserRequest struct {
	Email        string         `json:"email"`
	Password     string         `json:"password"`
	EmailConfirm bool           `json:"email_confirm"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
}

type adminUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type listUsersResponse struct {
	Users []adminUser `json:"users"`
}

// EnsureUser returns the id of the account with u.Email, creating a
// confirmed account when none exists.
func (c *AdminClient) EnsureUser(ctx context.Context, u StaffUser) (string, error) {
	users, err := c.listUsers(ctx)
	if err != nil {
		return "", err
	}
	for _, existing := range users {
		if existing.Email == u.Email {
			return existing.ID, nil
		}
	}

	payload := createUserRequest{
		Email:        u.Email,
		Password:     u.Password,
		EmailConfirm: true,
	}
	if u.FullName != "" {
		payload.UserMetadata = map[string]any{"full_name": u.FullName}
	}

	var created adminUser
	if err := c.do(ctx, http.MethodPost, "/auth/v1/admin/users", payload, &created); err != nil {
		return "", fmt.Errorf("create user %s: %w", u.Email, err)
	}
	return created.ID, nil
}

func (c *AdminClient) listUsers(ctx context.Context) ([]adminUser, error) {
	var resp listUsersResponse
	if err := c.do(ctx, http.MethodGet, "/auth/v1/admin/users", nil, &resp); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return resp.Users, nil
}

func (c *AdminClient) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.supabaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	req.Header.Set("apikey", c.serviceKey)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(data))
	}
	return json.Unmarshal(data, out)
}
