// Package weather fetches current conditions from the OpenWeatherMap API.
package weather

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

	"github.com/stellarlinkco/jarvis/internal/config"
)

var (
	ErrNotConfigured = errors.New("weather API key not configured")
	ErrCityNotFound  = errors.New("city not found")
)

type Report struct {
	City        string
	Description string
	TempC       float64
	FeelsLikeC  float64
	Humidity    int
}

func (r Report) String() string {
	return fmt.Sprintf("Weather in %s: %s. Temperature is %s°C, feels like %s°C. Humidity is %d%%",
		r.City, r.Description, formatTemp(r.TempC), formatTemp(r.FeelsLikeC), r.Humidity)
}

func formatTemp(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewClient(cfg config.WeatherConfig) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = config.DefaultWeatherBaseURL
	}
	return &Client{
		apiKey:     strings.TrimSpace(cfg.APIKey),
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) Configured() bool { return c.apiKey != "" }

// Fetch returns current conditions for city in metric units.
func (c *Client) Fetch(ctx context.Context, city string) (Report, error) {
	if !c.Configured() {
		return Report{}, ErrNotConfigured
	}

	q := url.Values{}
	q.Set("q", city)
	q.Set("appid", c.apiKey)
	q.Set("units", "metric")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/weather?"+q.Encode(), nil)
	if err != nil {
		return Report{}, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Report{}, sendError(c.baseURL+"/weather", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Report{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return Report{}, fmt.Errorf("%s: %w", city, ErrCityNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Report{}, fmt.Errorf("weather http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var decoded struct {
		Name string `json:"name"`
		Main struct {
			Temp      float64 `json:"temp"`
			FeelsLike float64 `json:"feels_like"`
			Humidity  int     `json:"humidity"`
		} `json:"main"`
		Weather []struct {
			Description string `json:"description"`
		} `json:"weather"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return Report{}, fmt.Errorf("decode response: %w", err)
	}

	r := Report{
		City:       city,
		TempC:      decoded.Main.Temp,
		FeelsLikeC: decoded.Main.FeelsLike,
		Humidity:   decoded.Main.Humidity,
	}
	if len(decoded.Weather) > 0 {
		r.Description = decoded.Weather[0].Description
	}
	return r, nil
}

// sendError drops the request URL from a transport error; its query carries the API key.
func sendError(endpoint string, err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return fmt.Errorf("send request: %s %s: %w", uerr.Op, endpoint, uerr.Err)
	}
	return fmt.Errorf("send request: %w", err)
}
