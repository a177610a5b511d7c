// Package gateway wires the stores, scheduler, channels and dispatcher together and
// runs the interactive session.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/stellarlinkco/jarvis/internal/channel"
	"github.com/stellarlinkco/jarvis/internal/chat"
	"github.com/stellarlinkco/jarvis/internal/clock"
	"github.com/stellarlinkco/jarvis/internal/config"
	"github.com/stellarlinkco/jarvis/internal/dispatch"
	"github.com/stellarlinkco/jarvis/internal/intent"
	"github.com/stellarlinkco/jarvis/internal/logging"
	"github.com/stellarlinkco/jarvis/internal/mail"
	"github.com/stellarlinkco/jarvis/internal/news"
	"github.com/stellarlinkco/jarvis/internal/qrcode"
	"github.com/stellarlinkco/jarvis/internal/scheduler"
	"github.com/stellarlinkco/jarvis/internal/sites"
	"github.com/stellarlinkco/jarvis/internal/store"
	"github.com/stellarlinkco/jarvis/internal/system"
	"github.com/stellarlinkco/jarvis/internal/weather"
	"github.com/stellarlinkco/jarvis/internal/wiki"
)

const (
	goodbye         = "Goodbye!"
	unexpectedError = "I encountered an unexpected error. Please try again."

	promptTimeout = time.Minute

	// maxServiceErrors consecutive input failures end the session.
	maxServiceErrors = 3
)

// Options for creating a Gateway. Zero values use stdin/stdout, the system clock and
// the real agentsdk-go and Telegram backends.
type Options struct {
	In             io.Reader
	Out            io.Writer
	Clock          clock.Clock
	Logger         zerolog.Logger
	RuntimeFactory chat.RuntimeFactory
	BotFactory     channel.BotFactory
	SignalChan     chan os.Signal // for testing signal handling
}

type Gateway struct {
	cfg        *config.Config
	log        zerolog.Logger
	clock      clock.Clock
	store      *store.Store
	scheduler  *scheduler.Scheduler
	dispatcher *dispatch.Dispatcher
	speaker    *channel.Fanout
	listener   channel.Listener
	chat       *chat.Client

	listenTimeout time.Duration
	signalChan    chan os.Signal

	shutdownOnce sync.Once
	shutdownErr  error
}

// New creates a Gateway with default options
func New(cfg *config.Config) (*Gateway, error) {
	return NewWithOptions(cfg, Options{})
}

// NewWithOptions creates a Gateway with custom options for testing. Failing to open the
// store is the only fatal error; every other collaborator degrades to "not configured".
func NewWithOptions(cfg *config.Config, opts Options) (*Gateway, error) {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Clock == nil {
		opts.Clock = clock.System()
	}
	log := logging.Component(opts.Logger, "gateway")

	st, err := store.Open(cfg.DBPath())
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	g := &Gateway{
		cfg:           cfg,
		log:           log,
		clock:         opts.Clock,
		store:         st,
		listenTimeout: cfg.ListenTimeout(),
		signalChan:    opts.SignalChan,
	}

	g.speaker = channel.NewFanout(logging.Component(opts.Logger, "channel"))
	g.speaker.Add("console", channel.NewConsoleSpeaker(opts.Out, cfg.Assistant.Name))
	if cfg.TelegramEnabled() {
		if mirror, err := newTelegramMirror(cfg, opts); err != nil {
			log.Warn().Err(err).Msg("telegram mirror disabled")
		} else {
			g.speaker.Add("telegram", mirror)
		}
	}

	listener := channel.NewConsoleListener(opts.In)
	g.listener = listener

	g.scheduler = scheduler.New(scheduler.Options{
		Store:          st,
		Speaker:        g.speaker,
		Clock:          opts.Clock,
		Logger:         logging.Component(opts.Logger, "scheduler"),
		TickInterval:   cfg.TickInterval(),
		ResyncInterval: cfg.ResyncInterval(),
	})

	sys := system.NewController(cfg.System, logging.Component(opts.Logger, "system"))
	dopts := dispatch.Options{
		Name:                cfg.Assistant.Name,
		Store:               st,
		Scheduler:           g.scheduler,
		Clock:               opts.Clock,
		Prompter:            channel.NewConsolePrompter(opts.Out, listener, promptTimeout),
		Logger:              logging.Component(opts.Logger, "dispatch"),
		Wiki:                wiki.NewClient(cfg.Wikipedia),
		System:              sys,
		QR:                  qrcode.NewEncoder(sys.DownloadsDir(), opts.Out),
		Sites:               loadSites(log),
		DefaultCity:         cfg.Weather.DefaultCity,
		NewsCountry:         cfg.News.Country,
		RepetitionThreshold: cfg.Session.RepetitionThreshold,
		BreakAfter:          cfg.BreakAfter(),
	}
	// Unconfigured clients stay nil so their handlers report themselves disabled.
	if w := weather.NewClient(cfg.Weather); w.Configured() {
		dopts.Weather = w
	}
	if n := news.NewClient(cfg.News); n.Configured() {
		dopts.News = n
	}
	if m := mail.NewSender(cfg.Email); m.Configured() {
		dopts.Mail = m
	}
	c, err := chat.New(cfg, opts.RuntimeFactory, logging.Component(opts.Logger, "chat"))
	switch {
	case err == nil:
		g.chat = c
		dopts.Chat = c
	case errors.Is(err, chat.ErrNotConfigured):
		log.Info().Msg("chat backend not configured")
	default:
		log.Warn().Err(err).Msg("chat backend disabled")
	}
	g.dispatcher = dispatch.New(dopts)

	return g, nil
}

func newTelegramMirror(cfg *config.Config, opts Options) (*channel.TelegramMirror, error) {
	log := logging.Component(opts.Logger, "telegram")
	if opts.BotFactory != nil {
		return channel.NewTelegramMirrorWithFactory(cfg.Telegram, log, opts.BotFactory)
	}
	return channel.NewTelegramMirror(cfg.Telegram, log)
}

func loadSites(log zerolog.Logger) *sites.Table {
	path := filepath.Join(config.ConfigDir(), sites.FileName)
	table, err := sites.Load(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("site overrides ignored")
		return sites.Default()
	}
	return table
}

// Greeting picks the salutation for the hour of t.
func Greeting(t time.Time) string {
	switch h := t.Hour(); {
	case h < 12:
		return "Good morning!"
	case h < 18:
		return "Good afternoon!"
	default:
		return "Good evening!"
	}
}

func (g *Gateway) welcome() string {
	return fmt.Sprintf("%s I'm %s. I can help you with weather, news, reminders, notes, and much more!",
		Greeting(g.clock.Now()), g.cfg.Assistant.Name)
}

// startupPreferences seeds the preference table from config on first run.
func (g *Gateway) startupPreferences() map[string]string {
	prefs := make(map[string]string, len(store.DefaultPreferences))
	for k, v := range store.DefaultPreferences {
		prefs[k] = v
	}
	prefs["assistant_name"] = g.cfg.Assistant.Name
	prefs["default_city"] = g.cfg.Weather.DefaultCity
	prefs["news_country"] = g.cfg.News.Country
	prefs["voice_rate"] = strconv.Itoa(g.cfg.Voice.Rate)
	prefs["voice_volume"] = strconv.FormatFloat(g.cfg.Voice.Volume, 'f', -1, 64)
	return prefs
}

// Run greets the user, starts the reminder scheduler and serves commands until an exit
// command, end of input, an interrupt signal or ctx cancellation. It always shuts down.
func (g *Gateway) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := g.store.EnsureDefaults(ctx, g.startupPreferences()); err != nil {
		g.log.Warn().Err(err).Msg("seed preferences failed")
	}
	if err := g.scheduler.Start(ctx); err != nil {
		g.log.Warn().Err(err).Msg("scheduler start failed")
	}

	g.say(ctx, g.welcome())

	// Use injected signal channel for testing, or create default
	sigCh := g.signalChan
	if sigCh == nil {
		sigCh = make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigCh)
	}

	done := make(chan error, 1)
	go func() { done <- g.loop(ctx) }()

	var err error
	select {
	case err = <-done:
	case sig := <-sigCh:
		g.log.Info().Str("signal", sig.String()).Msg("interrupted")
		cancel()
		<-done
		g.say(context.Background(), goodbye)
	case <-ctx.Done():
		err = <-done
	}

	if serr := g.Shutdown(); serr != nil && err == nil {
		err = serr
	}
	return err
}

func (g *Gateway) loop(ctx context.Context) error {
	serviceErrors := 0
	for {
		line, err := g.listener.Listen(ctx, g.listenTimeout)
		if err != nil {
			switch {
			case errors.Is(err, channel.ErrNoInput), errors.Is(err, channel.ErrUnrecognized):
				g.log.Debug().Err(err).Msg("nothing heard")
				continue
			case errors.Is(err, io.EOF):
				g.say(ctx, goodbye)
				return nil
			case ctx.Err() != nil:
				return nil
			case errors.Is(err, channel.ErrServiceError):
				serviceErrors++
				if serviceErrors >= maxServiceErrors {
					return fmt.Errorf("listen: %w", err)
				}
				g.log.Warn().Err(err).Int("attempt", serviceErrors).Msg("input failed, retrying")
				continue
			default:
				return fmt.Errorf("listen: %w", err)
			}
		}
		serviceErrors = 0

		switch intent.Normalize(line) {
		case "voice":
			g.log.Debug().Msg("continue listening")
			continue
		case "quit", "exit":
			g.say(ctx, goodbye)
			return nil
		}

		if resp := g.Handle(ctx, line); resp.Exit {
			return nil
		}
	}
}

// Handle processes one utterance and speaks the notices followed by the reply. A panic
// inside dispatch is reported to the user and swallowed.
func (g *Gateway) Handle(ctx context.Context, line string) (resp dispatch.Response) {
	defer func() {
		if r := recover(); r != nil {
			g.log.Error().Interface("panic", r).Str("command", line).Msg("command failed")
			g.say(ctx, unexpectedError)
			resp = dispatch.Response{}
		}
	}()

	resp = g.dispatcher.Process(ctx, line)
	for _, n := range resp.Notices {
		g.say(ctx, n)
	}
	if resp.Text != "" {
		g.say(ctx, resp.Text)
	}
	return resp
}

func (g *Gateway) say(ctx context.Context, text string) {
	if err := g.speaker.Say(ctx, text, false); err != nil {
		g.log.Warn().Err(err).Msg("speak failed")
	}
}

// Shutdown stops the scheduler before the store is closed. Safe to call more than once.
func (g *Gateway) Shutdown() error {
	g.shutdownOnce.Do(func() {
		g.scheduler.Stop()
		if g.chat != nil {
			g.chat.Close()
		}
		if err := g.store.Close(); err != nil {
			g.shutdownErr = fmt.Errorf("close store: %w", err)
		}
		g.log.Info().Msg("shutdown complete")
	})
	return g.shutdownErr
}

// Store exposes the open store for callers that share the gateway's database.
func (g *Gateway) Store() *store.Store { return g.store }

// Speakers lists the active output channels.
func (g *Gateway) Speakers() []string { return g.speaker.Names() }
