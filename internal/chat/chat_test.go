package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cexll/agentsdk-go/pkg/api"
	"github.com/rs/zerolog"

	"github.com/stellarlinkco/jarvis/internal/config"
)

type mockRuntime struct {
	requests []api.Request
	output   string
	err      error
	closed   bool
}

func (m *mockRuntime) Run(ctx context.Context, req api.Request) (*api.Response, error) {
	m.requests = append(m.requests, req)
	if m.err != nil {
		return nil, m.err
	}
	return &api.Response{Result: &api.Result{Output: m.output}}, nil
}

func (m *mockRuntime) Close() { m.closed = true }

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Provider.APIKey = "test-key"
	cfg.Assistant.Name = "Jarvis"
	return cfg
}

func TestNew_RequiresAPIKey(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Provider.APIKey = ""
	if _, err := New(cfg, nil, zerolog.Nop()); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("err = %v, want ErrNotConfigured", err)
	}
}

func TestRespond_UsesSessionAndHints(t *testing.T) {
	rt := &mockRuntime{output: "  Forty-two.  "}
	var gotPrompt string
	factory := func(cfg *config.Config, sysPrompt string) (Runtime, error) {
		gotPrompt = sysPrompt
		return rt, nil
	}
	c, err := New(testConfig(), factory, zerolog.Nop())
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	reply, err := c.Respond(context.Background(), "what is the meaning of life", map[string]string{"default_city": "Paris", "assistant_name": "Jarvis"})
	if err != nil {
		t.Fatalf("Respond error: %v", err)
	}
	if reply != "Forty-two." {
		t.Errorf("reply = %q", reply)
	}
	if !strings.HasPrefix(gotPrompt, "You are Jarvis, a helpful voice assistant.") {
		t.Errorf("system prompt = %q", gotPrompt)
	}

	if _, err := c.Respond(context.Background(), "again", nil); err != nil {
		t.Fatalf("second Respond error: %v", err)
	}
	if len(rt.requests) != 2 {
		t.Fatalf("requests = %d, want 2", len(rt.requests))
	}
	req := rt.requests[0]
	if req.SessionID == "" || req.SessionID != rt.requests[1].SessionID || req.SessionID != c.SessionID() {
		t.Errorf("session ids = %q / %q", req.SessionID, rt.requests[1].SessionID)
	}
	want := "User preferences: assistant_name=Jarvis, default_city=Paris. Respond naturally: what is the meaning of life"
	if req.Prompt != want {
		t.Errorf("prompt = %q, want %q", req.Prompt, want)
	}

	c.Close()
	if !rt.closed {
		t.Error("runtime not closed")
	}
}

func TestRespond_Errors(t *testing.T) {
	failing := func(*config.Config, string) (Runtime, error) { return nil, errors.New("bad key") }
	c, _ := New(testConfig(), failing, zerolog.Nop())
	if _, err := c.Respond(context.Background(), "hi", nil); err == nil {
		t.Fatal("expected factory error")
	}

	rt := &mockRuntime{err: errors.New("rate limited")}
	c, _ = New(testConfig(), func(*config.Config, string) (Runtime, error) { return rt, nil }, zerolog.Nop())
	if _, err := c.Respond(context.Background(), "hi", nil); err == nil || !strings.Contains(err.Error(), "rate limited") {
		t.Fatalf("err = %v", err)
	}

	empty := &mockRuntime{output: "   "}
	c, _ = New(testConfig(), func(*config.Config, string) (Runtime, error) { return empty, nil }, zerolog.Nop())
	if _, err := c.Respond(context.Background(), "hi", nil); !errors.Is(err, ErrEmptyReply) {
		t.Fatalf("err = %v, want ErrEmptyReply", err)
	}
}

func TestBuildPrompt_NoHints(t *testing.T) {
	if got := BuildPrompt("hello", nil); got != "Respond naturally: hello" {
		t.Errorf("BuildPrompt = %q", got)
	}
}
