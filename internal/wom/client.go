package wom

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/clanmetrics/wom-monitor/internal/pkg/httpretry"
)

// Client is a Wise Old Man v2 API client
type Client struct {
	baseURL    string
	apiKey     string
	userAgent  string
	httpClient httpretry.HTTPDoer
}

// ClientConfig holds the connection settings for a WOM API client.
// Keeping it local to this package leaves the client free of any
// dependency on the application config layer.
type ClientConfig struct {
	BaseURL   string
	APIKey    string
	UserAgent string
	Timeout   time.Duration
}

// NewClient creates a new WOM API client
func NewClient(cfg ClientConfig) *Client {
	return &Client{
		baseURL:   cfg.BaseURL,
		apiKey:    cfg.APIKey,
		userAgent: cfg.UserAgent,
		httpClient: httpretry.NewRetryClient(&http.Client{
			Timeout: cfg.Timeout,
		}, 3),
	}
}

// doRequest makes an HTTP request to the WOM API
func (c *Client) doRequest(ctx context.Context, method, path string, params url.Values) ([]byte, error) {
	fullURL := c.baseURL + path
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	return body, nil
}

func groupPath(groupID int64, suffix string) string {
	return "/groups/" + strconv.FormatInt(groupID, 10) + suffix
}

// GetGroupDetails fetches group metadata (name, description, member count)
func (c *Client) GetGroupDetails(ctx context.Context, groupID int64) (*GroupDetails, error) {
	body, err := c.doRequest(ctx, http.MethodGet, groupPath(groupID, ""), nil)
	if err != nil {
		return nil, fmt.Errorf("fetching group details: %w", err)
	}

	var details GroupDetails
	if err := json.Unmarshal(body, &details); err != nil {
		return nil, fmt.Errorf("parsing group details: %w", err)
	}

	return &details, nil
}

// GetGroupHiscores fetches group hiscores for a specific metric
func (c *Client) GetGroupHiscores(ctx context.Context, groupID int64, metric string) ([]RosterEntry, error) {
	params := url.Values{}
	params.Set("metric", metric)

	body, err := c.doRequest(ctx, http.MethodGet, groupPath(groupID, "/hiscores"), params)
	if err != nil {
		return nil, fmt.Errorf("fetching group hiscores: %w", err)
	}

	var entries []RosterEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("parsing group hiscores: %w", err)
	}

	return entries, nil
}

// GetGroupRoster fetches the full member roster with current stats.
// The hiscores endpoint (metric=overall) is the one WOM endpoint that
// returns every member with full player data in a single call; entries
// missing a role default to plain membership downstream.
func (c *Client) GetGroupRoster(ctx context.Context, groupID int64) ([]RosterEntry, error) {
	return c.GetGroupHiscores(ctx, groupID, "overall")
}

// GetGroupGains fetches XP/KC gains for group members over a time period
func (c *Client) GetGroupGains(ctx context.Context, groupID int64, metric, period string) ([]GainsEntry, error) {
	params := url.Values{}
	params.Set("metric", metric)
	params.Set("period", period)

	body, err := c.doRequest(ctx, http.MethodGet, groupPath(groupID, "/gained"), params)
	if err != nil {
		return nil, fmt.Errorf("fetching group gains: %w", err)
	}

	var entries []GainsEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("parsing group gains: %w", err)
	}

	return entries, nil
}

// GetGroupAchievements fetches recent group achievements
func (c *Client) GetGroupAchievements(ctx context.Context, groupID int64, limit int) ([]Achievement, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))

	body, err := c.doRequest(ctx, http.MethodGet, groupPath(groupID, "/achievements"), params)
	if err != nil {
		return nil, fmt.Errorf("fetching group achievements: %w", err)
	}

	var achievements []Achievement
	if err := json.Unmarshal(body, &achievements); err != nil {
		return nil, fmt.Errorf("parsing group achievements: %w", err)
	}

	return achievements, nil
}

// GetGroupCompetitions fetches group competitions, past and current
func (c *Client) GetGroupCompetitions(ctx context.Context, groupID int64) ([]Competition, error) {
	body, err := c.doRequest(ctx, http.MethodGet, groupPath(groupID, "/competitions"), nil)
	if err != nil {
		return nil, fmt.Errorf("fetching group competitions: %w", err)
	}

	var competitions []Competition
	if err := json.Unmarshal(body, &competitions); err != nil {
		return nil, fmt.Errorf("parsing group competitions: %w", err)
	}

	return competitions, nil
}

// GetGroupActivity fetches the group activity feed (joins, leaves, role changes)
func (c *Client) GetGroupActivity(ctx context.Context, groupID int64, limit int) ([]ActivityEvent, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))

	body, err := c.doRequest(ctx, http.MethodGet, groupPath(groupID, "/activity"), params)
	if err != nil {
		return nil, fmt.Errorf("fetching group activity: %w", err)
	}

	var events []ActivityEvent
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, fmt.Errorf("parsing group activity: %w", err)
	}

	return events, nil
}

// UpdatePlayer requests a fresh hiscores import for a player. This is
// the one write operation the dashboard performs; WOM rate-limits it
// more aggressively than reads.
func (c *Client) UpdatePlayer(ctx context.Context, username string) (*Player, error) {
	body, err := c.doRequest(ctx, http.MethodPost, "/players/"+url.PathEscape(username), nil)
	if err != nil {
		return nil, fmt.Errorf("updating player %s: %w", username, err)
	}

	var player Player
	if err := json.Unmarshal(body, &player); err != nil {
		return nil, fmt.Errorf("parsing player update: %w", err)
	}

	return &player, nil
}
