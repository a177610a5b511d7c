package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	DefaultAssistantName       = "Jarvis"
	DefaultModel               = "claude-sonnet-4-5-20250929"
	DefaultMaxTokens           = 1024
	DefaultDefaultCity         = "New York"
	DefaultNewsCountry         = "us"
	DefaultSMTPHost            = "smtp.gmail.com"
	DefaultSMTPPort            = 587
	DefaultVoiceRate           = 200
	DefaultVoiceVolume         = 0.9
	DefaultListenTimeout       = "5s"
	DefaultTickInterval        = "1s"
	DefaultResyncInterval      = "30s"
	DefaultRepetitionThreshold = 2
	DefaultBreakAfter          = "2h"
	DefaultLogLevel            = "warn"
	DefaultWeatherBaseURL      = "https://api.openweathermap.org/data/2.5"
	DefaultNewsBaseURL         = "https://newsapi.org/v2"
	DefaultWikipediaBaseURL    = "https://en.wikipedia.org/api/rest_v1"
)

type Config struct {
	Assistant AssistantConfig `json:"assistant"`
	Storage   StorageConfig   `json:"storage"`
	Provider  ProviderConfig  `json:"provider"`
	Weather   WeatherConfig   `json:"weather"`
	News      NewsConfig      `json:"news"`
	Wikipedia WikipediaConfig `json:"wikipedia"`
	Email     EmailConfig     `json:"email"`
	Voice     VoiceConfig     `json:"voice"`
	Scheduler SchedulerConfig `json:"scheduler"`
	Session   SessionConfig   `json:"session"`
	System    SystemConfig    `json:"system"`
	Telegram  TelegramConfig  `json:"telegram"`
	Log       LogConfig       `json:"log"`
}

type AssistantConfig struct {
	Name          string `json:"name"`
	Workspace     string `json:"workspace"`
	ListenTimeout string `json:"listenTimeout,omitempty"`
}

type StorageConfig struct {
	DBPath string `json:"dbPath,omitempty"`
}

type ProviderConfig struct {
	Type      string `json:"type,omitempty"` // "anthropic" (default) or "openai"
	APIKey    string `json:"apiKey"`
	BaseURL   string `json:"baseUrl,omitempty"`
	Model     string `json:"model"`
	MaxTokens int    `json:"maxTokens"`
}

type WeatherConfig struct {
	APIKey      string `json:"apiKey"`
	BaseURL     string `json:"baseUrl,omitempty"`
	DefaultCity string `json:"defaultCity"`
}

type NewsConfig struct {
	APIKey  string `json:"apiKey"`
	BaseURL string `json:"baseUrl,omitempty"`
	Country string `json:"country"`
}

type WikipediaConfig struct {
	BaseURL string `json:"baseUrl,omitempty"`
}

type EmailConfig struct {
	Address  string `json:"address"`
	Password string `json:"password"`
	SMTPHost string `json:"smtpHost"`
	SMTPPort int    `json:"smtpPort"`
}

type VoiceConfig struct {
	Rate   int     `json:"rate"`
	Volume float64 `json:"volume"`
}

type SchedulerConfig struct {
	TickInterval   string `json:"tickInterval,omitempty"`
	ResyncInterval string `json:"resyncInterval,omitempty"`
}

type SessionConfig struct {
	RepetitionThreshold int    `json:"repetitionThreshold"`
	BreakAfter          string `json:"breakAfter,omitempty"`
}

type SystemConfig struct {
	AllowPower    bool   `json:"allowPower"`
	DownloadsDir  string `json:"downloadsDir,omitempty"`
	ScreenshotCmd string `json:"screenshotCmd,omitempty"`
}

type TelegramConfig struct {
	Enabled bool   `json:"enabled"`
	Token   string `json:"token"`
	ChatID  int64  `json:"chatId"`
	Proxy   string `json:"proxy,omitempty"`
}

type LogConfig struct {
	Level string `json:"level"`
	File  string `json:"file,omitempty"`
}

func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Assistant: AssistantConfig{
			Name:          DefaultAssistantName,
			Workspace:     filepath.Join(home, ".jarvis", "workspace"),
			ListenTimeout: DefaultListenTimeout,
		},
		Provider: ProviderConfig{
			Model:     DefaultModel,
			MaxTokens: DefaultMaxTokens,
		},
		Weather: WeatherConfig{
			BaseURL:     DefaultWeatherBaseURL,
			DefaultCity: DefaultDefaultCity,
		},
		News: NewsConfig{
			BaseURL: DefaultNewsBaseURL,
			Country: DefaultNewsCountry,
		},
		Wikipedia: WikipediaConfig{
			BaseURL: DefaultWikipediaBaseURL,
		},
		Email: EmailConfig{
			SMTPHost: DefaultSMTPHost,
			SMTPPort: DefaultSMTPPort,
		},
		Voice: VoiceConfig{
			Rate:   DefaultVoiceRate,
			Volume: DefaultVoiceVolume,
		},
		Scheduler: SchedulerConfig{
			TickInterval:   DefaultTickInterval,
			ResyncInterval: DefaultResyncInterval,
		},
		Session: SessionConfig{
			RepetitionThreshold: DefaultRepetitionThreshold,
			BreakAfter:          DefaultBreakAfter,
		},
		System: SystemConfig{
			DownloadsDir: filepath.Join(home, "Downloads"),
		},
		Log: LogConfig{
			Level: DefaultLogLevel,
		},
	}
}

func ConfigDir() string {
	home := os.Getenv("HOME")
	if home == "" {
		home, _ = os.UserHomeDir()
	}
	return filepath.Join(home, ".jarvis")
}

func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.json")
}

// DBPath returns the configured store path or the default under ConfigDir.
func (c *Config) DBPath() string {
	if c.Storage.DBPath != "" {
		return c.Storage.DBPath
	}
	return filepath.Join(ConfigDir(), "data", "assistant.db")
}

func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)
	applyDefaults(cfg)

	return cfg, nil
}

// Environment variable overrides
func applyEnv(cfg *Config) {
	if name := os.Getenv("ASSISTANT_NAME"); name != "" {
		cfg.Assistant.Name = name
	}
	if dbPath := os.Getenv("JARVIS_DB_PATH"); dbPath != "" {
		cfg.Storage.DBPath = dbPath
	}
	if key := os.Getenv("JARVIS_API_KEY"); key != "" {
		cfg.Provider.APIKey = key
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" && cfg.Provider.APIKey == "" {
		cfg.Provider.APIKey = key
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" && cfg.Provider.APIKey == "" {
		cfg.Provider.APIKey = key
		if cfg.Provider.Type == "" {
			cfg.Provider.Type = "openai"
		}
	}
	if url := os.Getenv("JARVIS_BASE_URL"); url != "" {
		cfg.Provider.BaseURL = url
	}
	if model := os.Getenv("JARVIS_MODEL"); model != "" {
		cfg.Provider.Model = model
	}
	if key := os.Getenv("WEATHER_API_KEY"); key != "" {
		cfg.Weather.APIKey = key
	}
	if city := os.Getenv("JARVIS_DEFAULT_CITY"); city != "" {
		cfg.Weather.DefaultCity = city
	}
	if key := os.Getenv("NEWS_API_KEY"); key != "" {
		cfg.News.APIKey = key
	}
	if addr := os.Getenv("EMAIL_ADDRESS"); addr != "" {
		cfg.Email.Address = addr
	}
	if pw := os.Getenv("EMAIL_PASSWORD"); pw != "" {
		cfg.Email.Password = pw
	}
	if host := os.Getenv("JARVIS_SMTP_HOST"); host != "" {
		cfg.Email.SMTPHost = host
	}
	if port := os.Getenv("JARVIS_SMTP_PORT"); port != "" {
		if parsed, err := strconv.Atoi(port); err == nil {
			cfg.Email.SMTPPort = parsed
		}
	}
	if rate := os.Getenv("JARVIS_VOICE_RATE"); rate != "" {
		if parsed, err := strconv.Atoi(rate); err == nil {
			cfg.Voice.Rate = parsed
		}
	}
	if volume := os.Getenv("JARVIS_VOICE_VOLUME"); volume != "" {
		if parsed, err := strconv.ParseFloat(volume, 64); err == nil {
			cfg.Voice.Volume = parsed
		}
	}
	if token := os.Getenv("JARVIS_TELEGRAM_TOKEN"); token != "" {
		cfg.Telegram.Token = token
		cfg.Telegram.Enabled = true
	}
	if chatID := os.Getenv("JARVIS_TELEGRAM_CHAT_ID"); chatID != "" {
		if parsed, err := strconv.ParseInt(chatID, 10, 64); err == nil {
			cfg.Telegram.ChatID = parsed
		}
	}
	if level := os.Getenv("JARVIS_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if allow := os.Getenv("JARVIS_ALLOW_POWER"); allow != "" {
		if parsed, err := strconv.ParseBool(allow); err == nil {
			cfg.System.AllowPower = parsed
		}
	}
}

func applyDefaults(cfg *Config) {
	defaults := DefaultConfig()
	if cfg.Assistant.Name == "" {
		cfg.Assistant.Name = defaults.Assistant.Name
	}
	if cfg.Assistant.Workspace == "" {
		cfg.Assistant.Workspace = defaults.Assistant.Workspace
	}
	if cfg.Provider.Model == "" {
		cfg.Provider.Model = DefaultModel
	}
	if cfg.Provider.MaxTokens <= 0 {
		cfg.Provider.MaxTokens = DefaultMaxTokens
	}
	if cfg.Weather.BaseURL == "" {
		cfg.Weather.BaseURL = DefaultWeatherBaseURL
	}
	if cfg.Weather.DefaultCity == "" {
		cfg.Weather.DefaultCity = DefaultDefaultCity
	}
	if cfg.News.BaseURL == "" {
		cfg.News.BaseURL = DefaultNewsBaseURL
	}
	if cfg.News.Country == "" {
		cfg.News.Country = DefaultNewsCountry
	}
	if cfg.Wikipedia.BaseURL == "" {
		cfg.Wikipedia.BaseURL = DefaultWikipediaBaseURL
	}
	if cfg.Email.SMTPHost == "" {
		cfg.Email.SMTPHost = DefaultSMTPHost
	}
	if cfg.Email.SMTPPort <= 0 {
		cfg.Email.SMTPPort = DefaultSMTPPort
	}
	if cfg.Session.RepetitionThreshold <= 0 {
		cfg.Session.RepetitionThreshold = DefaultRepetitionThreshold
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.System.DownloadsDir == "" {
		cfg.System.DownloadsDir = defaults.System.DownloadsDir
	}
}

func (c *Config) TelegramEnabled() bool {
	return c.Telegram.Enabled && c.Telegram.Token != "" && c.Telegram.ChatID != 0
}

func (c *Config) ListenTimeout() time.Duration {
	return parseDuration(c.Assistant.ListenTimeout, DefaultListenTimeout)
}

func (c *Config) TickInterval() time.Duration {
	return parseDuration(c.Scheduler.TickInterval, DefaultTickInterval)
}

func (c *Config) ResyncInterval() time.Duration {
	return parseDuration(c.Scheduler.ResyncInterval, DefaultResyncInterval)
}

func (c *Config) BreakAfter() time.Duration {
	return parseDuration(c.Session.BreakAfter, DefaultBreakAfter)
}

func parseDuration(value, fallback string) time.Duration {
	if d, err := time.ParseDuration(value); err == nil && d > 0 {
		return d
	}
	d, _ := time.ParseDuration(fallback)
	return d
}

func SaveConfig(cfg *Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(ConfigPath(), data, 0644)
}
