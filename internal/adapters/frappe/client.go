package frappe

// Package frappe implements the IdentityProvider port against a Frappe-style
// user directory. The upstream is treated as an opaque credential oracle:
// login either succeeds or fails, and the user profile is fetched separately.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	domainauth "github.com/ledgerline/invoice-api/internal/domain/auth"
	"github.com/ledgerline/invoice-api/internal/ports"
)

const (
	loginPath  = "/api/method/login"
	logoutPath = "/api/method/logout"
	userPath   = "/api/resource/User/"

	// errorBodyLimit bounds how much of an upstream error body we keep for
	// diagnostics.
	errorBodyLimit = 2048
)

// Config holds configuration for the Frappe client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration // default 15s when zero
	HTTPClient *http.Client  // optional, overrides Timeout when set
}

// Client implements ports.IdentityProvider over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ ports.IdentityProvider = (*Client)(nil)

// NewClient constructs a Frappe client from Config.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("frappe: base URL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("frappe: parse base URL: %w", err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: httpClient,
	}, nil
}

// Login posts the credentials to the provider and classifies the outcome.
func (c *Client) Login(ctx context.Context, username, password string) error {
	form := url.Values{}
	form.Set("usr", username)
	form.Set("pwd", password)

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.baseURL+loginPath, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("frappe: build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ports.ErrUpstreamUnavailable, err)
	}
	defer drainAndClose(resp.Body)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: upstream status %d", ports.ErrInvalidCredentials, resp.StatusCode)
	default:
		return fmt.Errorf("%w: login status %d: %s", ports.ErrUpstream, resp.StatusCode, readErrorBody(resp.Body))
	}
}

// userDocument mirrors the provider's User resource envelope.
type userDocument struct {
	Data struct {
		Name  string `json:"name"`
		Email string `json:"email"`
		Roles []struct {
			Role string `json:"role"`
		} `json:"roles"`
	} `json:"data"`
}

// GetProfile fetches the user document and maps it into a domain Profile.
// It is only called after a successful Login, so every failure here is an
// upstream error for the login flow.
func (c *Client) GetProfile(ctx context.Context, username string) (domainauth.Profile, error) {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, c.baseURL+userPath+url.PathEscape(username), nil)
	if err != nil {
		return domainauth.Profile{}, fmt.Errorf("frappe: build profile request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domainauth.Profile{}, fmt.Errorf("%w: fetch profile: %w", ports.ErrUpstream, err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domainauth.Profile{}, fmt.Errorf(
			"%w: profile status %d: %s", ports.ErrUpstream, resp.StatusCode, readErrorBody(resp.Body))
	}

	var doc userDocument
	if decodeErr := json.NewDecoder(resp.Body).Decode(&doc); decodeErr != nil {
		return domainauth.Profile{}, fmt.Errorf("%w: decode profile: %w", ports.ErrUpstream, decodeErr)
	}

	profile := domainauth.Profile{
		Username: doc.Data.Name,
		Email:    doc.Data.Email,
		Roles:    make([]domainauth.Role, 0, len(doc.Data.Roles)),
	}
	if profile.Username == "" {
		profile.Username = username
	}
	for _, r := range doc.Data.Roles {
		if r.Role != "" {
			profile.Roles = append(profile.Roles, domainauth.Role(r.Role))
		}
	}

	return profile, nil
}

// Logout ends the upstream session. Callers treat failures as advisory.
func (c *Client) Logout(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+logoutPath, nil)
	if err != nil {
		return fmt.Errorf("frappe: build logout request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: logout: %w", ports.ErrUpstreamUnavailable, err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: logout status %d", ports.ErrUpstream, resp.StatusCode)
	}
	return nil
}

func readErrorBody(body io.Reader) string {
	b, err := io.ReadAll(io.LimitReader(body, errorBodyLimit))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}

// drainAndClose keeps the underlying connection reusable.
func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, errorBodyLimit))
	_ = body.Close()
}
