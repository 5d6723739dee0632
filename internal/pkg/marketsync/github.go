package marketsync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ManuelReschke/PlanFox/internal/pkg/env"
	"github.com/go-playground/validator/v10"
)

const (
	defaultMarketplaceAPIBaseURL = "https://api.github.com"
	marketplacePageSize          = 100
)

var validate = validator.New()

// GitHubClient lists marketplace plans and their subscribed accounts from the
// GitHub Marketplace listing API.
type GitHubClient struct {
	Token      string
	APIBaseURL string

	HTTPClient *http.Client
}

func NewGitHubClientFromEnv() *GitHubClient {
	return &GitHubClient{
		Token:      strings.TrimSpace(env.GetEnv("MARKETPLACE_TOKEN", "")),
		APIBaseURL: strings.TrimSpace(env.GetEnv("MARKETPLACE_API_BASE_URL", defaultMarketplaceAPIBaseURL)),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// ListPlans fetches every page of the marketplace plan listing.
func (c *GitHubClient) ListPlans(ctx context.Context) ([]RemotePlan, error) {
	var plans []RemotePlan
	for page := 1; ; page++ {
		var batch []RemotePlan
		if err := c.getJSON(ctx, "/marketplace_listing/plans", page, &batch); err != nil {
			return nil, fmt.Errorf("list marketplace plans (page %d): %w", page, err)
		}
		for i := range batch {
			if err := validate.Struct(&batch[i]); err != nil {
				return nil, fmt.Errorf("invalid plan record on page %d: %w", page, err)
			}
		}
		plans = append(plans, batch...)
		if len(batch) < marketplacePageSize {
			return plans, nil
		}
	}
}

// ListAccountsForPlan fetches every page of accounts subscribed to a plan.
func (c *GitHubClient) ListAccountsForPlan(ctx context.Context, planID int64) ([]RemoteAccount, error) {
	path := fmt.Sprintf("/marketplace_listing/plans/%d/accounts", planID)
	var accounts []RemoteAccount
	for page := 1; ; page++ {
		var batch []RemoteAccount
		if err := c.getJSON(ctx, path, page, &batch); err != nil {
			return nil, fmt.Errorf("list accounts for plan %d (page %d): %w", planID, page, err)
		}
		for i := range batch {
			if err := validate.Struct(&batch[i]); err != nil {
				return nil, fmt.Errorf("invalid account record for plan %d on page %d: %w", planID, page, err)
			}
		}
		accounts = append(accounts, batch...)
		if len(batch) < marketplacePageSize {
			return accounts, nil
		}
	}
}

func (c *GitHubClient) getJSON(ctx context.Context, path string, page int, out interface{}) error {
	if strings.TrimSpace(c.Token) == "" {
		return errors.New("MARKETPLACE_TOKEN is not configured")
	}

	baseURL := strings.TrimRight(c.APIBaseURL, "/")
	u, err := url.Parse(baseURL + path)
	if err != nil {
		return err
	}
	q := u.Query()
	q.Set("per_page", strconv.Itoa(marketplacePageSize))
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("marketplace request failed: status=%d body=%s", resp.StatusCode, string(body))
	}

	return json.Unmarshal(body, out)
}
