package marketsync

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGitHubClient(srv *httptest.Server) *GitHubClient {
	return &GitHubClient{
		Token:      "test-token",
		APIBaseURL: srv.URL,
		HTTPClient: srv.Client(),
	}
}

func TestGitHubClientListPlansPaginates(t *testing.T) {
	// First page is full, second page is short; the client must stop after
	// the short page.
	fullPage := make([]RemotePlan, marketplacePageSize)
	for i := range fullPage {
		fullPage[i] = RemotePlan{ID: int64(i + 1), Name: fmt.Sprintf("plan-%d", i+1)}
	}
	lastPage := []RemotePlan{
		{ID: 1001, Name: "Team", Description: "Unlimited private repos"},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/marketplace_listing/plans", r.URL.Path)
		require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		require.Equal(t, fmt.Sprint(marketplacePageSize), r.URL.Query().Get("per_page"))

		switch r.URL.Query().Get("page") {
		case "1":
			_ = json.NewEncoder(w).Encode(fullPage)
		case "2":
			_ = json.NewEncoder(w).Encode(lastPage)
		default:
			t.Fatalf("unexpected page %q", r.URL.Query().Get("page"))
		}
	}))
	defer srv.Close()

	plans, err := newTestGitHubClient(srv).ListPlans(context.Background())
	require.NoError(t, err)
	assert.Len(t, plans, marketplacePageSize+1)
	assert.Equal(t, int64(1001), plans[marketplacePageSize].ID)
}

func TestGitHubClientListAccountsForPlan(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/marketplace_listing/plans/14/accounts", r.URL.Path)
		_ = json.NewEncoder(w).Encode([]RemoteAccount{
			{ID: 42, Login: "octocat"},
			{ID: 43, Login: "hubot"},
		})
	}))
	defer srv.Close()

	accounts, err := newTestGitHubClient(srv).ListAccountsForPlan(context.Background(), 14)
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "octocat", accounts[0].Login)
}

func TestGitHubClientErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Bad credentials"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newTestGitHubClient(srv).ListPlans(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "status=401")
}

func TestGitHubClientRejectsMalformedRecords(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Missing required login field.
		_ = json.NewEncoder(w).Encode([]RemoteAccount{{ID: 42}})
	}))
	defer srv.Close()

	_, err := newTestGitHubClient(srv).ListAccountsForPlan(context.Background(), 14)
	require.Error(t, err)
	assert.ErrorContains(t, err, "invalid account record")
}

func TestGitHubClientRequiresToken(t *testing.T) {
	c := &GitHubClient{APIBaseURL: "https://api.github.com", HTTPClient: http.DefaultClient}
	_, err := c.ListPlans(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "MARKETPLACE_TOKEN")
}
