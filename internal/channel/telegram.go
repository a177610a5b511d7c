package channel

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/stellarlinkco/jarvis/internal/config"
)

const telegramMaxLen = 4000

// TelegramBot is the part of tgbotapi.BotAPI the mirror uses.
type TelegramBot interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetSelf() tgbotapi.User
}

type tgBotWrapper struct {
	bot *tgbotapi.BotAPI
}

func (w *tgBotWrapper) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	return w.bot.Send(c)
}

func (w *tgBotWrapper) GetSelf() tgbotapi.User {
	return w.bot.Self
}

// BotFactory creates TelegramBot instances (allows mocking)
type BotFactory func(token, apiEndpoint string, client *http.Client) (TelegramBot, error)

var defaultBotFactory BotFactory = func(token, apiEndpoint string, client *http.Client) (TelegramBot, error) {
	bot, err := tgbotapi.NewBotAPIWithClient(token, apiEndpoint, client)
	if err != nil {
		return nil, err
	}
	return &tgBotWrapper{bot: bot}, nil
}

// TelegramMirror forwards urgent announcements (fired reminders) to one chat.
// Non-urgent speech stays on the console.
type TelegramMirror struct {
	mu         sync.Mutex
	token      string
	chatID     int64
	proxy      string
	bot        TelegramBot
	botFactory BotFactory
	log        zerolog.Logger
}

func NewTelegramMirror(cfg config.TelegramConfig, log zerolog.Logger) (*TelegramMirror, error) {
	return NewTelegramMirrorWithFactory(cfg, log, defaultBotFactory)
}

// NewTelegramMirrorWithFactory creates a TelegramMirror with custom bot factory (for testing)
func NewTelegramMirrorWithFactory(cfg config.TelegramConfig, log zerolog.Logger, factory BotFactory) (*TelegramMirror, error) {
	if cfg.Token == "" {
		return nil, errors.New("telegram token is required")
	}
	if cfg.ChatID == 0 {
		return nil, errors.New("telegram chat id is required")
	}
	return &TelegramMirror{
		token:      cfg.Token,
		chatID:     cfg.ChatID,
		proxy:      cfg.Proxy,
		botFactory: factory,
		log:        log,
	}, nil
}

func (t *TelegramMirror) httpClient() (*http.Client, error) {
	if t.proxy == "" {
		return http.DefaultClient, nil
	}
	proxyURL, err := url.Parse(t.proxy)
	if err != nil {
		return nil, fmt.Errorf("parse proxy url: %w", err)
	}
	return &http.Client{
		Transport: &http.Transport{Proxy: http.ProxyURL(proxyURL)},
	}, nil
}

// Connect authorizes the bot. Say connects lazily when this was not called.
func (t *TelegramMirror) Connect() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connectLocked()
}

func (t *TelegramMirror) connectLocked() error {
	if t.bot != nil {
		return nil
	}
	client, err := t.httpClient()
	if err != nil {
		return err
	}
	bot, err := t.botFactory(t.token, tgbotapi.APIEndpoint, client)
	if err != nil {
		return fmt.Errorf("create telegram bot: %w", err)
	}
	t.bot = bot
	t.log.Info().Str("bot", bot.GetSelf().UserName).Int64("chat_id", t.chatID).Msg("authorized")
	return nil
}

// SetBot sets the bot (for testing)
func (t *TelegramMirror) SetBot(bot TelegramBot) {
	t.mu.Lock()
	t.bot = bot
	t.mu.Unlock()
}

func (t *TelegramMirror) Say(ctx context.Context, text string, urgent bool) error {
	if !urgent {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.connectLocked(); err != nil {
		return err
	}

	for _, chunk := range splitMessage(text, telegramMaxLen) {
		if _, err := t.bot.Send(tgbotapi.NewMessage(t.chatID, chunk)); err != nil {
			return fmt.Errorf("send telegram message: %w", err)
		}
	}
	return nil
}

// splitMessage cuts text into pieces of at most max bytes, preferring newline breaks.
func splitMessage(text string, max int) []string {
	var chunks []string
	for len(text) > 0 {
		chunk := text
		if len(chunk) > max {
			if idx := strings.LastIndex(chunk[:max], "\n"); idx > 0 {
				chunk = chunk[:idx]
			} else {
				chunk = chunk[:max]
			}
		}
		text = strings.TrimPrefix(text[len(chunk):], "\n")
		chunks = append(chunks, chunk)
	}
	return chunks
}
