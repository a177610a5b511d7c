// Package chat answers free-form requests through an agentsdk-go runtime.
package chat

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cexll/agentsdk-go/pkg/api"
	"github.com/cexll/agentsdk-go/pkg/model"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/stellarlinkco/jarvis/internal/config"
)

const defaultTimeout = 30 * time.Second

var (
	ErrNotConfigured = errors.New("AI provider API key not configured")
	ErrEmptyReply    = errors.New("empty reply from AI provider")
)

// Runtime interface for agent runtime (allows mocking in tests)
type Runtime interface {
	Run(ctx context.Context, req api.Request) (*api.Response, error)
	Close()
}

type runtimeAdapter struct {
	rt *api.Runtime
}

func (r *runtimeAdapter) Run(ctx context.Context, req api.Request) (*api.Response, error) {
	return r.rt.Run(ctx, req)
}

func (r *runtimeAdapter) Close() {
	r.rt.Close()
}

// RuntimeFactory creates a Runtime instance
type RuntimeFactory func(cfg *config.Config, sysPrompt string) (Runtime, error)

// DefaultRuntimeFactory creates the default agentsdk-go runtime
func DefaultRuntimeFactory(cfg *config.Config, sysPrompt string) (Runtime, error) {
	return newRuntime(cfg, sysPrompt, zerolog.Nop())
}

func newRuntime(cfg *config.Config, sysPrompt string, log zerolog.Logger) (Runtime, error) {
	skillRegs, err := LoadSkills(SkillsDir(cfg), log)
	if err != nil {
		return nil, err
	}

	var provider api.ModelFactory
	switch cfg.Provider.Type {
	case "openai":
		provider = &model.OpenAIProvider{
			APIKey:    cfg.Provider.APIKey,
			BaseURL:   cfg.Provider.BaseURL,
			ModelName: cfg.Provider.Model,
			MaxTokens: cfg.Provider.MaxTokens,
		}
	default: // "anthropic" or empty
		provider = &model.AnthropicProvider{
			APIKey:    cfg.Provider.APIKey,
			BaseURL:   cfg.Provider.BaseURL,
			ModelName: cfg.Provider.Model,
			MaxTokens: cfg.Provider.MaxTokens,
		}
	}

	rt, err := api.New(context.Background(), api.Options{
		ProjectRoot:   cfg.Assistant.Workspace,
		ModelFactory:  provider,
		SystemPrompt:  sysPrompt,
		MaxIterations: 1,
		Timeout:       defaultTimeout,
		Skills:        skillRegs,
	})
	if err != nil {
		return nil, fmt.Errorf("create runtime: %w", err)
	}
	return &runtimeAdapter{rt: rt}, nil
}

// SystemPrompt is the persona every reply is generated under.
func SystemPrompt(name string) string {
	return fmt.Sprintf("You are %s, a helpful voice assistant. Keep replies short enough to be spoken aloud.", name)
}

// Client owns one runtime and one conversation session. The runtime is built on the
// first Respond so startup does not wait on the provider.
type Client struct {
	cfg       *config.Config
	factory   RuntimeFactory
	sessionID string
	log       zerolog.Logger

	mu sync.Mutex
	rt Runtime
}

func New(cfg *config.Config, factory RuntimeFactory, log zerolog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.Provider.APIKey) == "" {
		return nil, ErrNotConfigured
	}
	if factory == nil {
		factory = func(cfg *config.Config, sysPrompt string) (Runtime, error) {
			return newRuntime(cfg, sysPrompt, log)
		}
	}
	return &Client{
		cfg:       cfg,
		factory:   factory,
		sessionID: uuid.NewString(),
		log:       log,
	}, nil
}

func (c *Client) SessionID() string { return c.sessionID }

func (c *Client) runtime() (Runtime, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rt != nil {
		return c.rt, nil
	}
	rt, err := c.factory(c.cfg, SystemPrompt(c.cfg.Assistant.Name))
	if err != nil {
		return nil, err
	}
	c.rt = rt
	c.log.Debug().Str("session", c.sessionID).Str("provider", c.cfg.Provider.Type).Msg("runtime ready")
	return rt, nil
}

// Respond answers prompt. hints (user preferences) are prepended as context.
func (c *Client) Respond(ctx context.Context, prompt string, hints map[string]string) (string, error) {
	rt, err := c.runtime()
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	resp, err := rt.Run(ctx, api.Request{
		Prompt:    BuildPrompt(prompt, hints),
		SessionID: c.sessionID,
	})
	if err != nil {
		return "", fmt.Errorf("run agent: %w", err)
	}
	if resp == nil || resp.Result == nil {
		return "", ErrEmptyReply
	}
	out := strings.TrimSpace(resp.Result.Output)
	if out == "" {
		return "", ErrEmptyReply
	}
	return out, nil
}

// BuildPrompt renders hints in key order ahead of the request.
func BuildPrompt(prompt string, hints map[string]string) string {
	if len(hints) == 0 {
		return "Respond naturally: " + prompt
	}
	keys := make([]string, 0, len(hints))
	for k := range hints {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+hints[k])
	}
	return "User preferences: " + strings.Join(pairs, ", ") + ". Respond naturally: " + prompt
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rt != nil {
		c.rt.Close()
		c.rt = nil
	}
}
