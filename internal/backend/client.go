package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spec-kit/storefront-gateway/internal/domain"
)

// StatusError reports a non-2xx backend response.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend returned status %d", e.Status)
}

// Client talks to the marketplace backend API. It is the sole source of
// truth for tokens and subscription state; this process keeps nothing.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a client for the given base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Profile is the backend's view of an account.
type Profile struct {
	ID                    string                    `json:"id"`
	Role                  domain.Role               `json:"role"`
	SubscriptionStatus    domain.SubscriptionStatus `json:"subscriptionStatus"`
	SubscriptionExpiresAt *time.Time                `json:"subscriptionExpiresAt"`
}

// LoginResult carries the token pair and profile minted at login.
type LoginResult struct {
	AccessToken  string  `json:"accessToken"`
	RefreshToken string  `json:"refreshToken"`
	ExpiresIn    int64   `json:"accessTokenExpiresAt"` // relative seconds
	User         Profile `json:"user"`
}

// RefreshResult is the outcome of rotating a refresh token.
type RefreshResult struct {
	AccessToken string `json:"accessToken"`
	ExpiresIn   int64  `json:"accessTokenExpiresAt"` // relative seconds
}

// ImpersonationGrant carries the scoped token and target profile for an
// impersonation session.
type ImpersonationGrant struct {
	ImpersonationToken string  `json:"impersonationToken"`
	User               Profile `json:"user"`
}

// Login authenticates credentials against the backend.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var out LoginResult
	err := c.doJSON(ctx, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Refresh exchanges a refresh token for a new access token.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*RefreshResult, error) {
	var out RefreshResult
	err := c.doJSON(ctx, http.MethodPost, "/auth/refresh", "", map[string]string{
		"refreshToken": refreshToken,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// FetchProfile loads the account profile for the bearer token.
func (c *Client) FetchProfile(ctx context.Context, accessToken string) (*Profile, error) {
	var out Profile
	if err := c.doJSON(ctx, http.MethodGet, "/account/profile", accessToken, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Impersonate obtains an impersonation-scoped token for the target user.
func (c *Client) Impersonate(ctx context.Context, adminAccessToken, targetUserID string) (*ImpersonationGrant, error) {
	var out ImpersonationGrant
	err := c.doJSON(ctx, http.MethodPost, "/admin/impersonate", adminAccessToken, map[string]string{
		"userId": targetUserID,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateSubscriptionFromAuthority asks the backend to apply a payment
// authority. The raw status code is returned for classification by the
// caller; a non-2xx response is not an error here. The body may be empty
// on success.
func (c *Client) CreateSubscriptionFromAuthority(ctx context.Context, accessToken, authority string) (int, string, error) {
	body, err := json.Marshal(map[string]string{"authority": authority})
	if err != nil {
		return 0, "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/subscriptions/from-authority", bytes.NewReader(body))
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	var payload struct {
		SubscriptionID string `json:"subscriptionId"`
	}
	// Best effort: 2xx responses may carry an empty body.
	if data, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20)); readErr == nil && len(data) > 0 {
		_ = json.Unmarshal(data, &payload)
	}
	return resp.StatusCode, payload.SubscriptionID, nil
}

// CurrentSubscription fetches the account's current subscription state.
func (c *Client) CurrentSubscription(ctx context.Context, accessToken string) (*domain.Subscription, error) {
	var out domain.Subscription
	if err := c.doJSON(ctx, http.MethodGet, "/subscriptions/current", accessToken, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Products lists the catalog products visible to the bearer token.
func (c *Client) Products(ctx context.Context, accessToken string) ([]domain.Product, error) {
	var out []domain.Product
	if err := c.doJSON(ctx, http.MethodGet, "/catalog/products", accessToken, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Categories lists the category tree.
func (c *Client) Categories(ctx context.Context, accessToken string) ([]domain.Category, error) {
	var out []domain.Category
	if err := c.doJSON(ctx, http.MethodGet, "/catalog/categories", accessToken, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) doJSON(ctx context.Context, method, path, bearer string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Status: resp.StatusCode, Body: string(data)}
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, out)
}
