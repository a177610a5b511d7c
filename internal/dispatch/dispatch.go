// Package dispatch turns a classified command into an action and a spoken reply.
//
// Every collaborator sits behind a small interface. A nil collaborator means the
// feature is not configured and its handler says so instead of calling out. Failures
// never escape Dispatch: each becomes a fixed apology.
package dispatch

import (
	"context"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/stellarlinkco/jarvis/internal/clock"
	"github.com/stellarlinkco/jarvis/internal/intent"
	"github.com/stellarlinkco/jarvis/internal/news"
	"github.com/stellarlinkco/jarvis/internal/session"
	"github.com/stellarlinkco/jarvis/internal/store"
	"github.com/stellarlinkco/jarvis/internal/system"
	"github.com/stellarlinkco/jarvis/internal/weather"
)

const (
	DefaultRepetitionThreshold = 2
	DefaultBreakAfter          = 2 * time.Hour

	RoutineNotice = "You've requested this several times. Would you like to set this as a routine?"
	BreakNotice   = "You've been interacting for over 2 hours. Consider taking a break."
)

type Store interface {
	CreateReminder(ctx context.Context, title, description string, fireTime time.Time) (int64, error)
	ListActive(ctx context.Context) ([]store.Reminder, error)
	CreateNote(ctx context.Context, title, content string, at time.Time) (int64, error)
	ListNotes(ctx context.Context, limit int) ([]store.Note, error)
	SetPreference(ctx context.Context, key, value string) error
	GetPreference(ctx context.Context, key, fallback string) (string, bool, error)
	Preferences(ctx context.Context) (map[string]string, error)
}

// Scheduler receives reminders as soon as they are stored.
type Scheduler interface {
	Schedule(r store.Reminder)
}

type Prompter interface {
	Ask(ctx context.Context, question string) (string, error)
}

type WeatherClient interface {
	Fetch(ctx context.Context, city string) (weather.Report, error)
}

type NewsClient interface {
	Fetch(ctx context.Context, category, country string) ([]news.Headline, error)
}

type WikiClient interface {
	Summary(ctx context.Context, query string) (string, error)
}

type ChatClient interface {
	Respond(ctx context.Context, prompt string, hints map[string]string) (string, error)
}

type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

type SystemController interface {
	Screenshot(ctx context.Context) (string, error)
	Info(ctx context.Context) (system.Info, error)
	Shutdown(delay time.Duration) error
	Restart(delay time.Duration) error
	OpenURL(ctx context.Context, url string) error
}

type QREncoder interface {
	Encode(text string) (string, error)
}

type SiteTable interface {
	Resolve(name string) (string, bool)
	SearchURL(query string) string
	VideoSearchURL(query string) string
}

type Options struct {
	Name      string
	Store     Store
	Scheduler Scheduler
	Session   *session.Tracker
	Clock     clock.Clock
	Prompter  Prompter
	Logger    zerolog.Logger

	Weather WeatherClient
	News    NewsClient
	Wiki    WikiClient
	Chat    ChatClient
	Mail    Mailer
	System  SystemController
	QR      QREncoder
	Sites   SiteTable

	DefaultCity         string
	NewsCountry         string
	RepetitionThreshold int
	BreakAfter          time.Duration
	Rand                *rand.Rand
}

// Response is everything the loop should say for one command. Notices come first.
type Response struct {
	Text    string
	Notices []string
	Intent  intent.Intent
	Exit    bool
}

type Dispatcher struct {
	name      string
	store     Store
	scheduler Scheduler
	session   *session.Tracker
	clock     clock.Clock
	prompter  Prompter
	log       zerolog.Logger

	weather WeatherClient
	news    NewsClient
	wiki    WikiClient
	chat    ChatClient
	mail    Mailer
	system  SystemController
	qr      QREncoder
	sites   SiteTable

	defaultCity string
	newsCountry string
	repetition  int
	breakAfter  time.Duration
	rand        *rand.Rand
}

func New(opts Options) *Dispatcher {
	d := &Dispatcher{
		name:        opts.Name,
		store:       opts.Store,
		scheduler:   opts.Scheduler,
		session:     opts.Session,
		clock:       opts.Clock,
		prompter:    opts.Prompter,
		log:         opts.Logger,
		weather:     opts.Weather,
		news:        opts.News,
		wiki:        opts.Wiki,
		chat:        opts.Chat,
		mail:        opts.Mail,
		system:      opts.System,
		qr:          opts.QR,
		sites:       opts.Sites,
		defaultCity: opts.DefaultCity,
		newsCountry: opts.NewsCountry,
		repetition:  opts.RepetitionThreshold,
		breakAfter:  opts.BreakAfter,
		rand:        opts.Rand,
	}
	if d.clock == nil {
		d.clock = clock.System()
	}
	if d.session == nil {
		d.session = session.NewTracker(d.clock)
	}
	if d.repetition <= 0 {
		d.repetition = DefaultRepetitionThreshold
	}
	if d.breakAfter <= 0 {
		d.breakAfter = DefaultBreakAfter
	}
	if d.rand == nil {
		d.rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if d.name == "" {
		d.name = "Jarvis"
	}
	return d
}

// Process runs one utterance end to end: normalize, record, notices, classify, dispatch.
// A blank utterance yields an empty Response and is not recorded.
func (d *Dispatcher) Process(ctx context.Context, raw string) Response {
	cmd := intent.NewCommand(raw, d.clock.Now())
	if cmd.Normalized == "" {
		return Response{}
	}

	d.session.Record(cmd.Normalized)
	notices := d.notices(cmd.Normalized)

	in := intent.Classify(cmd.Normalized)
	d.log.Debug().
		Str("command", cmd.Normalized).
		Str("intent", in.Kind.String()).
		Str("rule", intent.RuleFor(cmd.Normalized)).
		Msg("classified")

	return Response{
		Text:    d.Dispatch(ctx, in),
		Notices: notices,
		Intent:  in,
		Exit:    in.Kind == intent.Exit,
	}
}

// notices are re-emitted on every qualifying command.
func (d *Dispatcher) notices(cmd string) []string {
	var out []string
	if d.session.RepetitionCount(cmd) > d.repetition {
		out = append(out, RoutineNotice)
	}
	if d.session.Elapsed() > d.breakAfter {
		out = append(out, BreakNotice)
	}
	return out
}

// Dispatch performs in and returns the reply text.
func (d *Dispatcher) Dispatch(ctx context.Context, in intent.Intent) string {
	switch in.Kind {
	case intent.Exit:
		return "Goodbye! Have a great day!"
	case intent.GetTime:
		return "The current time is " + d.clock.Now().Format("03:04 PM")
	case intent.GetDate:
		return "Today is " + d.clock.Now().Format("January 02, 2006")
	case intent.OpenSite:
		return d.openSite(ctx, in.Site)
	case intent.Search:
		return d.search(ctx, in.Query, in.IsVideo)
	case intent.Wikipedia:
		return d.wikipedia(ctx, in.Query)
	case intent.Screenshot:
		return d.screenshot(ctx)
	case intent.SystemInfo:
		return d.systemInfo(ctx)
	case intent.Shutdown, intent.Restart:
		return d.power(in.Kind, in.Delay)
	case intent.Weather:
		return d.weatherReport(ctx, in.City)
	case intent.News:
		return d.headlines(ctx, in.Category)
	case intent.ReminderList:
		return d.listReminders(ctx)
	case intent.ReminderCreate:
		return d.createReminder(ctx)
	case intent.NoteList:
		return d.listNotes(ctx)
	case intent.NoteCreate:
		return d.createNote(ctx)
	case intent.Joke:
		return d.joke()
	case intent.QrCode:
		return d.qrCode(ctx)
	case intent.Email:
		return d.email(ctx)
	case intent.SetPreference:
		return d.setPreference(ctx)
	default:
		return d.fallback(ctx, in.Text)
	}
}

func storageApology(action string) string {
	return "Sorry, I couldn't " + action + " right now."
}
