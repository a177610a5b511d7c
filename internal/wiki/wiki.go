// Package wiki looks up article summaries through the Wikipedia REST API.
package wiki

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

const DefaultSentences = 3

var (
	ErrNotFound   = errors.New("no wikipedia page found")
	ErrAmbiguous  = errors.New("multiple wikipedia pages match")
	ErrEmptyQuery = errors.New("empty wikipedia query")
)

type Client struct {
	baseURL    string
	sentences  int
	httpClient *http.Client
}

func NewClient(cfg config.WikipediaConfig) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = config.DefaultWikipediaBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		sentences:  DefaultSentences,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Summary returns the first few sentences of the page best matching query.
func (c *Client) Summary(ctx context.Context, query string) (string, error) {
	title := strings.TrimSpace(query)
	if title == "" {
		return "", ErrEmptyQuery
	}
	title = strings.ReplaceAll(title, " ", "_")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/page/summary/"+url.PathEscape(title), nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "jarvis-assistant/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return "", fmt.Errorf("%s: %w", query, ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("wikipedia http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var decoded struct {
		Type    string `json:"type"`
		Extract string `json:"extract"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if decoded.Type == "disambiguation" {
		return "", fmt.Errorf("%s: %w", query, ErrAmbiguous)
	}
	if strings.TrimSpace(decoded.Extract) == "" {
		return "", fmt.Errorf("%s: %w", query, ErrNotFound)
	}
	return FirstSentences(decoded.Extract, c.sentences), nil
}

// FirstSentences keeps the first n sentences of text, treating ". ", "! " and "? " as
// sentence ends.
func FirstSentences(text string, n int) string {
	text = strings.TrimSpace(text)
	if n <= 0 {
		return text
	}
	count := 0
	for i := 0; i < len(text)-1; i++ {
		switch text[i] {
		case '.', '!', '?':
			if text[i+1] == ' ' || text[i+1] == '\n' {
				count++
				if count == n {
					return text[:i+1]
				}
			}
		}
	}
	return text
}
