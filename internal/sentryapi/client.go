// Package sentryapi talks to the error-tracking service's REST API.
package sentryapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tinytelemetry/sentrycli/internal/model"
)

const (
	AuthBearer = "bearer"
	AuthBasic  = "basic"
)

// Config holds connection parameters for Client.
type Config struct {
	Host       string
	APIKey     string
	APIVersion int
	AuthScheme string
	Timeout    time.Duration
	HTTPClient *http.Client // optional
}

// Client issues authenticated GET requests against one host.
type Client struct {
	http       *http.Client
	base       *url.URL
	apiKey     string
	apiVersion int
	authScheme string
}

// New validates cfg and builds a Client.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.Host) == "" {
		return nil, model.UserErrorf("host not specified (--host)")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, model.UserErrorf("API key not specified (--api-key)")
	}
	base, err := url.Parse(strings.TrimSpace(cfg.Host))
	if err != nil {
		return nil, model.UserErrorf("invalid host %q: %w", cfg.Host, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, model.UserErrorf("invalid host %q: want http:// or https:// URL", cfg.Host)
	}

	scheme := strings.ToLower(strings.TrimSpace(cfg.AuthScheme))
	switch scheme {
	case "":
		scheme = AuthBearer
	case AuthBearer, AuthBasic:
	default:
		return nil, model.UserErrorf("invalid auth scheme %q: want bearer or basic", cfg.AuthScheme)
	}

	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = model.DefaultRequestTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}

	return &Client{
		http:       hc,
		base:       base,
		apiKey:     cfg.APIKey,
		apiVersion: cfg.APIVersion,
		authScheme: scheme,
	}, nil
}

// URL resolves an API path against the host.
func (c *Client) URL(path string) string {
	return c.base.ResolveReference(&url.URL{Path: path}).String()
}

// IssueEventsURL is the first page of an issue's events.
func (c *Client) IssueEventsURL(issue string) string {
	return c.URL(fmt.Sprintf("/api/%d/issues/%s/events/", c.apiVersion, url.PathEscape(issue)))
}

// CheckAPIKey reports whether the API root accepts the configured key.
// Rejections are logged with the server detail and reported as false.
func (c *Client) CheckAPIKey(ctx context.Context) (bool, error) {
	resp, err := c.get(ctx, c.URL(fmt.Sprintf("/api/%d/", c.apiVersion)))
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		log.Printf("sentryapi: something is not right with API key: %s", errorDetail(resp))
		return false, nil
	}
	io.Copy(io.Discard, resp.Body)
	log.Printf("sentryapi: API key is fine")
	return true, nil
}

func (c *Client) get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("sentryapi: build request: %w", err)
	}
	switch c.authScheme {
	case AuthBasic:
		req.SetBasicAuth(c.apiKey, "")
	default:
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sentryapi: GET %s: %w", rawURL, err)
	}
	return resp, nil
}

func isSuccess(code int) bool {
	return code >= 200 && code < 300
}

// errorDetail extracts the "detail" field of an error body, falling back to
// the status text.
func errorDetail(resp *http.Response) string {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err == nil {
		var payload struct {
			Detail string `json:"detail"`
		}
		if json.Unmarshal(body, &payload) == nil && payload.Detail != "" {
			return payload.Detail
		}
	}
	return http.StatusText(resp.StatusCode)
}
