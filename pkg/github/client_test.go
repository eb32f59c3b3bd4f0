package github

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hiveforge/hiveforge/pkg/config"
)

func testConfig(baseURL string) *config.GitHubConfig {
	return &config.GitHubConfig{
		Enabled:  true,
		Owner:    "test-owner",
		Repo:     "test-repo",
		BaseURL:  baseURL,
		TokenEnv: "HIVEFORGE_TEST_GH_TOKEN",
	}
}

func TestNewClientRequiresToken(t *testing.T) {
	_, err := NewClient(testConfig("http://example.invalid"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token")
}

func TestNewClientReadsCustomTokenEnv(t *testing.T) {
	t.Setenv("HIVEFORGE_TEST_GH_TOKEN", "ghp_test_token")
	client, err := NewClient(testConfig("http://example.invalid"))
	require.NoError(t, err)
	assert.Equal(t, "ghp_test_token", client.token)
}

func TestCreateIssueSendsAuthHeaderAndBody(t *testing.T) {
	var gotAuth, gotAccept string
	var gotBody map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"number": 42, "id": 12345})
	}))
	defer server.Close()

	t.Setenv("HIVEFORGE_TEST_GH_TOKEN", "ghp_test_token_1234567890")
	client, err := NewClient(testConfig(server.URL))
	require.NoError(t, err)

	result, err := client.CreateIssue(context.Background(), "Run started: 01HTEST", "Goal: test run", []string{"hiveforge:run"})
	require.NoError(t, err)

	assert.Equal(t, "Bearer ghp_test_token_1234567890", gotAuth)
	assert.Equal(t, "application/vnd.github+json", gotAccept)
	assert.Equal(t, "Run started: 01HTEST", gotBody["title"])
	assert.EqualValues(t, 42, result["number"])
}

func TestCloseIssueSendsClosedState(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]any{"number": 42, "state": "closed"})
	}))
	defer server.Close()

	t.Setenv("HIVEFORGE_TEST_GH_TOKEN", "tok")
	client, err := NewClient(testConfig(server.URL))
	require.NoError(t, err)

	result, err := client.CloseIssue(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, "closed", gotBody["state"])
	assert.Equal(t, "closed", result["state"])
}

func TestApplyLabelsDecodesArrayResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"name": "hiveforge:sentinel"},
			{"name": "hiveforge:run"},
		})
	}))
	defer server.Close()

	t.Setenv("HIVEFORGE_TEST_GH_TOKEN", "tok")
	client, err := NewClient(testConfig(server.URL))
	require.NoError(t, err)

	labels, err := client.ApplyLabels(context.Background(), 42, []string{"hiveforge:sentinel"})
	require.NoError(t, err)
	assert.Len(t, labels, 2)
}

func TestDoWrapsHTTPErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte("bad credentials"))
	}))
	defer server.Close()

	t.Setenv("HIVEFORGE_TEST_GH_TOKEN", "tok")
	client, err := NewClient(testConfig(server.URL))
	require.NoError(t, err)

	_, err = client.AddComment(context.Background(), 42, "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}
