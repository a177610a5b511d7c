package channel

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/stellarlinkco/jarvis/internal/config"
)

func TestConsoleSpeaker_Say(t *testing.T) {
	var buf bytes.Buffer
	s := NewConsoleSpeaker(&buf, "Jarvis")
	if err := s.Say(context.Background(), "Hello", false); err != nil {
		t.Fatalf("Say error: %v", err)
	}
	if err := s.Say(context.Background(), "Reminder: Call mom", true); err != nil {
		t.Fatalf("Say error: %v", err)
	}
	want := "Jarvis: Hello\n[!] Jarvis: Reminder: Call mom\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

func TestConsoleSpeaker_CancelledContext(t *testing.T) {
	var buf bytes.Buffer
	s := NewConsoleSpeaker(&buf, "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Say(ctx, "x", false); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if buf.Len() != 0 {
		t.Errorf("wrote %q after cancel", buf.String())
	}
}

func TestConsoleListener_Lines(t *testing.T) {
	l := NewConsoleListener(strings.NewReader("what time is it\n\n  \nexit\n"))
	ctx := context.Background()

	got, err := l.Listen(ctx, time.Second)
	if err != nil || got != "what time is it" {
		t.Fatalf("Listen = %q, %v", got, err)
	}
	for i := 0; i < 2; i++ {
		if _, err := l.Listen(ctx, time.Second); !errors.Is(err, ErrUnrecognized) {
			t.Fatalf("blank line err = %v, want ErrUnrecognized", err)
		}
	}
	if got, _ := l.Listen(ctx, time.Second); got != "exit" {
		t.Fatalf("Listen = %q, want exit", got)
	}
	if _, err := l.Listen(ctx, time.Second); !errors.Is(err, io.EOF) {
		t.Fatalf("err = %v, want io.EOF", err)
	}
	if _, err := l.Listen(ctx, time.Second); !errors.Is(err, io.EOF) {
		t.Fatalf("repeated err = %v, want io.EOF", err)
	}
}

func TestConsoleListener_Timeout(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()
	l := NewConsoleListener(r)
	if _, err := l.Listen(context.Background(), 20*time.Millisecond); !errors.Is(err, ErrNoInput) {
		t.Fatalf("err = %v, want ErrNoInput", err)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("device gone") }

func TestConsoleListener_ReadError(t *testing.T) {
	l := NewConsoleListener(failingReader{})
	if _, err := l.Listen(context.Background(), time.Second); !errors.Is(err, ErrServiceError) {
		t.Fatalf("err = %v, want ErrServiceError", err)
	}
}

func TestConsolePrompter_Ask(t *testing.T) {
	var out bytes.Buffer
	in := NewConsoleListener(strings.NewReader("  Buy milk  \n\n"))
	p := NewConsolePrompter(&out, in, time.Second)

	got, err := p.Ask(context.Background(), "Reminder title")
	if err != nil || got != "Buy milk" {
		t.Fatalf("Ask = %q, %v", got, err)
	}
	got, err = p.Ask(context.Background(), "Description (optional)")
	if err != nil || got != "" {
		t.Fatalf("blank Ask = %q, %v", got, err)
	}
	if out.String() != "Reminder title: Description (optional): " {
		t.Errorf("prompts = %q", out.String())
	}
}

type recordingSpeaker struct {
	texts []string
	err   error
}

func (r *recordingSpeaker) Say(ctx context.Context, text string, urgent bool) error {
	r.texts = append(r.texts, text)
	return r.err
}

func TestFanout_DeliversToAllAndJoinsErrors(t *testing.T) {
	f := NewFanout(zerolog.Nop())
	ok := &recordingSpeaker{}
	bad := &recordingSpeaker{err: errors.New("offline")}
	f.Add("console", ok)
	f.Add("telegram", bad)

	err := f.Say(context.Background(), "hi", true)
	if err == nil || !strings.Contains(err.Error(), "telegram: offline") {
		t.Fatalf("err = %v, want telegram failure", err)
	}
	if len(ok.texts) != 1 || len(bad.texts) != 1 {
		t.Fatalf("deliveries = %d/%d, want 1/1", len(ok.texts), len(bad.texts))
	}
	if names := f.Names(); len(names) != 2 || names[0] != "console" {
		t.Errorf("names = %v", names)
	}
	if _, found := f.Get("telegram"); !found {
		t.Error("expected telegram speaker")
	}
}

type mockTelegramBot struct {
	sentMsgs []tgbotapi.Chattable
	sendErr  error
	self     tgbotapi.User
}

func (m *mockTelegramBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	m.sentMsgs = append(m.sentMsgs, c)
	if m.sendErr != nil {
		return tgbotapi.Message{}, m.sendErr
	}
	return tgbotapi.Message{MessageID: 1}, nil
}

func (m *mockTelegramBot) GetSelf() tgbotapi.User { return m.self }

func TestNewTelegramMirror_Validation(t *testing.T) {
	if _, err := NewTelegramMirror(config.TelegramConfig{ChatID: 1}, zerolog.Nop()); err == nil {
		t.Error("expected error for empty token")
	}
	if _, err := NewTelegramMirror(config.TelegramConfig{Token: "fake-token"}, zerolog.Nop()); err == nil {
		t.Error("expected error for missing chat id")
	}
}

func TestTelegramMirror_SaySendsOnlyUrgent(t *testing.T) {
	bot := &mockTelegramBot{self: tgbotapi.User{UserName: "jarvisbot"}}
	factoryCalls := 0
	factory := func(token, endpoint string, client *http.Client) (TelegramBot, error) {
		factoryCalls++
		if token != "fake-token" {
			t.Errorf("token = %q", token)
		}
		return bot, nil
	}
	m, err := NewTelegramMirrorWithFactory(config.TelegramConfig{Token: "fake-token", ChatID: 42}, zerolog.Nop(), factory)
	if err != nil {
		t.Fatalf("NewTelegramMirrorWithFactory error: %v", err)
	}

	if err := m.Say(context.Background(), "The current time is 09:00 AM", false); err != nil {
		t.Fatalf("Say error: %v", err)
	}
	if factoryCalls != 0 || len(bot.sentMsgs) != 0 {
		t.Fatal("non-urgent speech should not reach telegram")
	}

	if err := m.Say(context.Background(), "Reminder: Call mom", true); err != nil {
		t.Fatalf("Say error: %v", err)
	}
	if err := m.Say(context.Background(), "Reminder: Stretch", true); err != nil {
		t.Fatalf("Say error: %v", err)
	}
	if factoryCalls != 1 {
		t.Errorf("factory calls = %d, want 1", factoryCalls)
	}
	if len(bot.sentMsgs) != 2 {
		t.Fatalf("sent = %d, want 2", len(bot.sentMsgs))
	}
	msg, ok := bot.sentMsgs[0].(tgbotapi.MessageConfig)
	if !ok {
		t.Fatalf("sent %T, want MessageConfig", bot.sentMsgs[0])
	}
	if msg.ChatID != 42 || msg.Text != "Reminder: Call mom" {
		t.Errorf("message = {%d %q}", msg.ChatID, msg.Text)
	}
}

func TestTelegramMirror_SendError(t *testing.T) {
	m, _ := NewTelegramMirror(config.TelegramConfig{Token: "fake-token", ChatID: 42}, zerolog.Nop())
	m.SetBot(&mockTelegramBot{sendErr: errors.New("blocked")})
	if err := m.Say(context.Background(), "Reminder: x", true); err == nil {
		t.Fatal("expected send error")
	}
}

func TestTelegramMirror_FactoryError(t *testing.T) {
	factory := func(string, string, *http.Client) (TelegramBot, error) {
		return nil, errors.New("unauthorized")
	}
	m, _ := NewTelegramMirrorWithFactory(config.TelegramConfig{Token: "bad", ChatID: 1}, zerolog.Nop(), factory)
	if err := m.Connect(); err == nil || !strings.Contains(err.Error(), "unauthorized") {
		t.Fatalf("Connect err = %v", err)
	}
}

func TestTelegramMirror_InvalidProxy(t *testing.T) {
	m, _ := NewTelegramMirror(config.TelegramConfig{Token: "t", ChatID: 1, Proxy: "://bad"}, zerolog.Nop())
	if err := m.Connect(); err == nil {
		t.Fatal("expected proxy parse error")
	}
}

func TestSplitMessage(t *testing.T) {
	if got := splitMessage("short", 10); len(got) != 1 || got[0] != "short" {
		t.Errorf("split = %q", got)
	}
	got := splitMessage("aaaa\nbbbb\ncc", 6)
	want := []string{"aaaa", "bbbb", "cc"}
	if len(got) != len(want) {
		t.Fatalf("split = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("chunk %d = %q, want %q", i, got[i], want[i])
		}
	}
	if got := splitMessage("abcdefgh", 3); len(got) != 3 || got[2] != "gh" {
		t.Errorf("hard split = %q", got)
	}
}
