// Package github implements the GitHub Projection (§4.13): a plain
// net/http client against the GitHub REST API, and a projection that
// idempotently maps Akashic Record events onto Issues, comments, and
// labels.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/hiveforge/hiveforge/pkg/config"
)

// GitHubClientError wraps a failure from a GitHub REST API call, mirroring
// the teacher's LoadError/ValidationError style of a typed error with an
// Unwrap-able cause.
type GitHubClientError struct {
	Op  string
	Err error
}

func (e *GitHubClientError) Error() string {
	return fmt.Sprintf("github %s: %v", e.Op, e.Err)
}

func (e *GitHubClientError) Unwrap() error {
	return e.Err
}

// Client provides HTTP access to the GitHub Issues REST API on behalf of
// the projection. It carries no in-memory state beyond the owner/repo
// and token it was constructed with.
type Client struct {
	httpClient *http.Client
	baseURL    string
	owner      string
	repo       string
	token      string
}

// NewClient builds a Client from cfg, reading the access token from the
// environment variable cfg.TokenEnv names (GITHUB_TOKEN if unset). It
// returns a *GitHubClientError if that variable is unset or empty: per
// §4.13, the projection must never call the GitHub API unauthenticated.
func NewClient(cfg *config.GitHubConfig) (*Client, error) {
	tokenEnv := cfg.TokenEnv
	if tokenEnv == "" {
		tokenEnv = "GITHUB_TOKEN"
	}
	token := os.Getenv(tokenEnv)
	if token == "" {
		return nil, &GitHubClientError{Op: "init", Err: fmt.Errorf("environment variable %s (token) is not set", tokenEnv)}
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.github.com"
	}

	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
		owner:      cfg.Owner,
		repo:       cfg.Repo,
		token:      token,
	}, nil
}

// CreateIssue opens a new Issue with the given title, body, and labels.
func (c *Client) CreateIssue(ctx context.Context, title, body string, labels []string) (map[string]any, error) {
	return c.do(ctx, http.MethodPost, c.issuesURL(), map[string]any{
		"title":  title,
		"body":   body,
		"labels": labels,
	}, "create_issue")
}

// UpdateIssue patches an existing Issue's title and/or body.
func (c *Client) UpdateIssue(ctx context.Context, issueNumber int, title, body string) (map[string]any, error) {
	payload := map[string]any{}
	if title != "" {
		payload["title"] = title
	}
	if body != "" {
		payload["body"] = body
	}
	return c.do(ctx, http.MethodPatch, c.issueURL(issueNumber), payload, "update_issue")
}

// CloseIssue sets an Issue's state to closed.
func (c *Client) CloseIssue(ctx context.Context, issueNumber int) (map[string]any, error) {
	return c.do(ctx, http.MethodPatch, c.issueURL(issueNumber), map[string]any{"state": "closed"}, "close_issue")
}

// AddComment posts a comment on an Issue.
func (c *Client) AddComment(ctx context.Context, issueNumber int, body string) (map[string]any, error) {
	url := fmt.Sprintf("%s/comments", c.issueURL(issueNumber))
	return c.do(ctx, http.MethodPost, url, map[string]any{"body": body}, "add_comment")
}

// ApplyLabels adds labels to an Issue, returning the Issue's resulting
// label set.
func (c *Client) ApplyLabels(ctx context.Context, issueNumber int, labels []string) ([]any, error) {
	url := fmt.Sprintf("%s/labels", c.issueURL(issueNumber))
	result, err := c.do(ctx, http.MethodPost, url, map[string]any{"labels": labels}, "apply_labels")
	if err != nil {
		return nil, err
	}
	applied, _ := result["labels"].([]any)
	return applied, nil
}

func (c *Client) issuesURL() string {
	return fmt.Sprintf("%s/repos/%s/%s/issues", c.baseURL, c.owner, c.repo)
}

func (c *Client) issueURL(issueNumber int) string {
	return fmt.Sprintf("%s/%d", c.issuesURL(), issueNumber)
}

// do issues a JSON request and decodes a JSON object response. The
// GitHub labels endpoint responds with a bare array instead of an
// object; do wraps that case under the "labels" key so ApplyLabels can
// read it uniformly.
func (c *Client) do(ctx context.Context, method, url string, body map[string]any, op string) (map[string]any, error) {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, &GitHubClientError{Op: op, Err: err}
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, &GitHubClientError{Op: op, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &GitHubClientError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &GitHubClientError{Op: op, Err: err}
	}

	if resp.StatusCode >= 300 {
		return nil, &GitHubClientError{Op: op, Err: fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))}
	}

	if len(respBody) == 0 {
		return map[string]any{}, nil
	}

	if respBody[0] == '[' {
		var arr []any
		if err := json.Unmarshal(respBody, &arr); err != nil {
			return nil, &GitHubClientError{Op: op, Err: err}
		}
		return map[string]any{"labels": arr}, nil
	}

	var decoded map[string]any
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return nil, &GitHubClientError{Op: op, Err: err}
	}
	return decoded, nil
}
