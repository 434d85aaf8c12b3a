package tms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"freight-dispatch/internal/config"

	"github.com/redis/go-redis/v9"
)

const tokenCacheKey = "motus:auth_token"

// tokenRefreshBuffer keeps us from using a token that expires mid-request.
const tokenRefreshBuffer = 5 * time.Minute

// Client talks to the transportation-management API. Access tokens are
// cached in Redis when available; without Redis every run fetches a fresh
// token, which the token endpoint tolerates.
type Client struct {
	baseURL  string
	apiKey   string
	username string
	password string

	http *http.Client
	rdb  *redis.Client
	log  *slog.Logger
	now  func() time.Time
}

func NewClient(cfg config.TMSConfig, rdb *redis.Client, log *slog.Logger) *Client {
	return &Client{
		baseURL:  cfg.BaseURL,
		apiKey:   cfg.APIKey,
		username: cfg.Username,
		password: cfg.Password,
		http:     &http.Client{Timeout: 30 * time.Second},
		rdb:      rdb,
		log:      log,
		now:      time.Now,
	}
}

type cachedToken struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func (c *Client) token(ctx context.Context) (string, error) {
	if c.rdb != nil {
		raw, err := c.rdb.Get(ctx, tokenCacheKey).Result()
		if err == nil {
			var tok cachedToken
			if json.Unmarshal([]byte(raw), &tok) == nil && c.now().Before(tok.ExpiresAt) {
				return tok.AccessToken, nil
			}
		} else if err != redis.Nil {
			c.log.Warn("token cache read failed, fetching fresh token", "err", err)
		}
	}

	body, err := json.Marshal(map[string]string{
		"grant_type":    "password",
		"username":      c.username,
		"password":      c.password,
		"client_id":     "publicapi",
		"client_secret": "secret",
		"scope":         "read+trust+write",
		"type":          "business",
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/oauth/token", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("tms: token request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("tms: token request returned %d", resp.StatusCode)
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", fmt.Errorf("tms: token response invalid: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return "", fmt.Errorf("tms: token response missing access_token")
	}

	if c.rdb != nil {
		expiresAt := c.now().Add(time.Duration(tokenResp.ExpiresIn)*time.Second - tokenRefreshBuffer)
		raw, _ := json.Marshal(cachedToken{AccessToken: tokenResp.AccessToken, ExpiresAt: expiresAt})
		ttl := time.Duration(tokenResp.ExpiresIn) * time.Second
		if err := c.rdb.Set(ctx, tokenCacheKey, raw, ttl).Err(); err != nil {
			c.log.Warn("token cache write failed", "err", err)
		}
	}
	return tokenResp.AccessToken, nil
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	tok, err := c.token(ctx)
	if err != nil {
		return err
	}

	u := c.baseURL + endpoint
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("tms: GET %s failed: %w", endpoint, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("tms: GET %s returned %d: %s", endpoint, resp.StatusCode, snippet)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

type Pagination struct {
	MoreAvailable bool `json:"moreAvailable"`
}

// ListShipments fetches one page of shipments filtered by status code.
func (c *Client) ListShipments(ctx context.Context, status string, pageSize, start int) ([]Shipment, Pagination, error) {
	params := url.Values{}
	params.Set("pageSize", strconv.Itoa(pageSize))
	if status != "" {
		params.Set("status[eq]", status)
	}
	if start > 0 {
		params.Set("start", strconv.Itoa(start))
	}

	var resp struct {
		Details struct {
			Shipments  []Shipment `json:"shipments"`
			Pagination Pagination `json:"pagination"`
		} `json:"details"`
	}
	if err := c.get(ctx, "/shipments/list", params, &resp); err != nil {
		return nil, Pagination{}, err
	}
	return resp.Details.Shipments, resp.Details.Pagination, nil
}

// ListAllShipments paginates until the API reports no more results or the
// round cap is hit. The cap bounds retrieval if the API keeps advertising
// more pages.
func (c *Client) ListAllShipments(ctx context.Context, status string, pageSize, maxPages int) ([]Shipment, error) {
	var all []Shipment
	start := 0
	for page := 0; page < maxPages; page++ {
		shipments, pagination, err := c.ListShipments(ctx, status, pageSize, start)
		if err != nil {
			return nil, err
		}
		all = append(all, shipments...)
		if !pagination.MoreAvailable || len(shipments) == 0 {
			break
		}
		start += len(shipments)
	}
	return all, nil
}

// GetShipmentDetail fetches the full shipment record.
func (c *Client) GetShipmentDetail(ctx context.Context, id int64) (Shipment, error) {
	var resp struct {
		Details Shipment `json:"details"`
	}
	if err := c.get(ctx, fmt.Sprintf("/shipments/%d", id), nil, &resp); err != nil {
		return Shipment{}, err
	}
	return resp.Details, nil
}

// GetUserDetail fetches an owner contact record.
func (c *Client) GetUserDetail(ctx context.Context, id int64) (User, error) {
	var resp struct {
		Details User `json:"details"`
	}
	if err := c.get(ctx, fmt.Sprintf("/users/%d", id), nil, &resp); err != nil {
		return User{}, err
	}
	return resp.Details, nil
}
