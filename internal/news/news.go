// Package news reads top headlines from NewsAPI.
package news

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

	"github.com/stellarlinkco/jarvis/internal/config"
)

const MaxHeadlines = 5

var (
	ErrNotConfigured = errors.New("news API key not configured")
	ErrNoHeadlines   = errors.New("no headlines returned")
)

type Headline struct {
	Title  string
	Source string
	URL    string
}

func (h Headline) String() string {
	if h.Source == "" {
		return h.Title
	}
	return h.Title + " - " + h.Source
}

type Client struct {
	apiKey     string
	baseURL    string
	country    string
	httpClient *http.Client
}

func NewClient(cfg config.NewsConfig) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = config.DefaultNewsBaseURL
	}
	country := strings.TrimSpace(cfg.Country)
	if country == "" {
		country = config.DefaultNewsCountry
	}
	return &Client{
		apiKey:     strings.TrimSpace(cfg.APIKey),
		baseURL:    baseURL,
		country:    country,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) Configured() bool { return c.apiKey != "" }

// Fetch returns at most MaxHeadlines headlines. An empty country uses the configured one.
func (c *Client) Fetch(ctx context.Context, category, country string) ([]Headline, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	if category == "" {
		category = "general"
	}
	if country == "" {
		country = c.country
	}

	q := url.Values{}
	q.Set("country", country)
	q.Set("category", category)
	q.Set("apiKey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/top-headlines?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, sendError(c.baseURL+"/top-headlines", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("news http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var decoded struct {
		Articles []struct {
			Title  string `json:"title"`
			URL    string `json:"url"`
			Source struct {
				Name string `json:"name"`
			} `json:"source"`
		} `json:"articles"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(decoded.Articles) == 0 {
		return nil, ErrNoHeadlines
	}

	out := make([]Headline, 0, MaxHeadlines)
	for _, a := range decoded.Articles {
		if len(out) == MaxHeadlines {
			break
		}
		out = append(out, Headline{Title: a.Title, Source: a.Source.Name, URL: a.URL})
	}
	return out, nil
}

// sendError drops the request URL from a transport error; its query carries the API key.
func sendError(endpoint string, err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return fmt.Errorf("send request: %s %s: %w", uerr.Op, endpoint, uerr.Err)
	}
	return fmt.Errorf("send request: %w", err)
}
