package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/stellarlinkco/jarvis/internal/intent"
	"github.com/stellarlinkco/jarvis/internal/mail"
	"github.com/stellarlinkco/jarvis/internal/system"
	"github.com/stellarlinkco/jarvis/internal/weather"
	"github.com/stellarlinkco/jarvis/internal/wiki"
)

func (d *Dispatcher) openSite(ctx context.Context, name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "Please specify a website to open."
	}
	if d.system == nil || d.sites == nil {
		return "Browser control is not available."
	}
	u, known := d.sites.Resolve(name)
	if err := d.system.OpenURL(ctx, u); err != nil {
		d.log.Warn().Err(err).Str("site", name).Msg("open site failed")
		return fmt.Sprintf("Sorry, I couldn't open %s", name)
	}
	d.log.Debug().Str("site", name).Str("url", u).Bool("alias", known).Msg("opened site")
	return "Opening " + name
}

func (d *Dispatcher) search(ctx context.Context, query string, video bool) string {
	if query == "" {
		return "What would you like me to search for?"
	}
	if d.system == nil || d.sites == nil {
		return "Browser control is not available."
	}
	if video {
		if err := d.system.OpenURL(ctx, d.sites.VideoSearchURL(query)); err != nil {
			d.log.Warn().Err(err).Msg("video search failed")
			return "I couldn't search YouTube right now"
		}
		return fmt.Sprintf("Playing %s on YouTube", query)
	}
	if err := d.system.OpenURL(ctx, d.sites.SearchURL(query)); err != nil {
		d.log.Warn().Err(err).Msg("web search failed")
		return "I couldn't search the web right now"
	}
	return "Searching for " + query
}

func (d *Dispatcher) wikipedia(ctx context.Context, query string) string {
	if query == "" {
		return "What would you like me to look up on Wikipedia?"
	}
	if d.wiki == nil {
		return "Wikipedia lookups are not available."
	}
	summary, err := d.wiki.Summary(ctx, query)
	switch {
	case err == nil:
		return "According to Wikipedia: " + summary
	case errors.Is(err, wiki.ErrNotFound):
		return "No Wikipedia page found for " + query
	case errors.Is(err, wiki.ErrAmbiguous):
		return fmt.Sprintf("Multiple results found for %s. Please be more specific.", query)
	default:
		d.log.Warn().Err(err).Str("query", query).Msg("wikipedia lookup failed")
		return "I couldn't get Wikipedia information right now"
	}
}

func (d *Dispatcher) screenshot(ctx context.Context) string {
	if d.system == nil {
		return "Screenshots are not available."
	}
	path, err := d.system.Screenshot(ctx)
	if err != nil {
		d.log.Warn().Err(err).Msg("screenshot failed")
		return "I couldn't take a screenshot right now"
	}
	return "Screenshot taken and saved to " + path
}

func (d *Dispatcher) systemInfo(ctx context.Context) string {
	if d.system == nil {
		return "System information is not available."
	}
	info, err := d.system.Info(ctx)
	if err != nil {
		d.log.Warn().Err(err).Msg("system info failed")
		return "I couldn't get system information right now"
	}
	return info.String()
}

func (d *Dispatcher) power(kind intent.Kind, delay time.Duration) string {
	if d.system == nil {
		return "System power control is disabled."
	}
	if delay <= 0 {
		delay = intent.DefaultPowerDelay
	}
	seconds := strconv.Itoa(int(delay / time.Second))

	var err error
	verb, failure := "Shutting down", "I couldn't shut down the system"
	if kind == intent.Restart {
		verb, failure = "Restarting", "I couldn't restart the system"
		err = d.system.Restart(delay)
	} else {
		err = d.system.Shutdown(delay)
	}
	if errors.Is(err, system.ErrPowerDisabled) {
		return "System power control is disabled."
	}
	if err != nil {
		d.log.Error().Err(err).Str("action", kind.String()).Msg("power action failed")
		return failure
	}
	return fmt.Sprintf("%s the system in %s seconds", verb, seconds)
}

func (d *Dispatcher) weatherReport(ctx context.Context, city string) string {
	if d.weather == nil {
		return "Weather API key not configured. Please set WEATHER_API_KEY in your environment."
	}
	if city == "" {
		city = d.preference(ctx, "default_city", d.defaultCity)
	}
	report, err := d.weather.Fetch(ctx, city)
	switch {
	case err == nil:
		return report.String()
	case errors.Is(err, weather.ErrNotConfigured):
		return "Weather API key not configured. Please set WEATHER_API_KEY in your environment."
	case errors.Is(err, weather.ErrCityNotFound):
		return "Sorry, I couldn't get weather information for " + city
	default:
		d.log.Warn().Err(err).Str("city", city).Msg("weather fetch failed")
		return "Sorry, I couldn't get the weather information right now"
	}
}

func (d *Dispatcher) headlines(ctx context.Context, category string) string {
	if d.news == nil {
		return "News API key not configured. Please set NEWS_API_KEY in your environment."
	}
	country := d.preference(ctx, "news_country", d.newsCountry)
	list, err := d.news.Fetch(ctx, category, country)
	if err != nil || len(list) == 0 {
		d.log.Warn().Err(err).Str("category", category).Msg("news fetch failed")
		return "Sorry, I couldn't get the news right now"
	}
	lines := make([]string, 0, len(list)+1)
	lines = append(lines, "Here are the latest news headlines:")
	for i, h := range list {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, h.String()))
	}
	return strings.Join(lines, "\n")
}

func (d *Dispatcher) qrCode(ctx context.Context) string {
	if d.qr == nil {
		return "QR code generation is not available."
	}
	text, ok := d.ask(ctx, "QR code text")
	if !ok {
		return noAnswer
	}
	if text == "" {
		return "There's nothing to encode."
	}
	path, err := d.qr.Encode(text)
	if err != nil {
		d.log.Warn().Err(err).Msg("qr encode failed")
		return "Sorry, I couldn't generate the QR code"
	}
	return "QR code generated and saved as " + path
}

func (d *Dispatcher) email(ctx context.Context) string {
	if d.mail == nil {
		return "Email credentials not configured. Please set EMAIL_ADDRESS and EMAIL_PASSWORD in your environment."
	}
	to, ok := d.ask(ctx, "To")
	if !ok {
		return noAnswer
	}
	subject, ok := d.ask(ctx, "Subject")
	if !ok {
		return noAnswer
	}
	body, ok := d.ask(ctx, "Message")
	if !ok {
		return noAnswer
	}

	err := d.mail.Send(ctx, to, subject, body)
	switch {
	case err == nil:
		return "Email sent to " + to
	case errors.Is(err, mail.ErrNotConfigured):
		return "Email credentials not configured. Please set EMAIL_ADDRESS and EMAIL_PASSWORD in your environment."
	case errors.Is(err, mail.ErrInvalidAddress):
		return "That doesn't look like a valid email address."
	default:
		d.log.Warn().Err(err).Msg("send email failed")
		return "Sorry, I couldn't send the email"
	}
}

func (d *Dispatcher) setPreference(ctx context.Context) string {
	key, ok := d.ask(ctx, "Preference key")
	if !ok {
		return noAnswer
	}
	if key == "" {
		return "A preference needs a key."
	}
	value, ok := d.ask(ctx, "Value")
	if !ok {
		return noAnswer
	}
	if err := d.store.SetPreference(ctx, key, value); err != nil {
		d.log.Error().Err(err).Str("key", key).Msg("save preference failed")
		return storageApology("save that preference")
	}
	return fmt.Sprintf("Saved preference: %s = %s", key, value)
}

func (d *Dispatcher) fallback(ctx context.Context, text string) string {
	if d.chat == nil {
		return "AI service is not available."
	}
	hints, err := d.store.Preferences(ctx)
	if err != nil {
		d.log.Warn().Err(err).Msg("load preferences for chat failed")
		hints = map[string]string{}
	}
	hints["assistant_name"] = d.name

	reply, err := d.chat.Respond(ctx, text, hints)
	if err != nil {
		d.log.Warn().Err(err).Msg("chat failed")
		return "I'm having trouble processing your request right now."
	}
	return reply
}

func (d *Dispatcher) joke() string {
	return jokes[d.rand.Intn(len(jokes))]
}

// preference reads key from the store, falling back on absence or failure.
func (d *Dispatcher) preference(ctx context.Context, key, fallback string) string {
	v, ok, err := d.store.GetPreference(ctx, key, fallback)
	if err != nil {
		d.log.Warn().Err(err).Str("key", key).Msg("read preference failed")
		return fallback
	}
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

const noAnswer = "I didn't catch that. Let's try again later."

// ask reports ok=false when no answer could be read at all. A blank answer is ok.
func (d *Dispatcher) ask(ctx context.Context, question string) (string, bool) {
	if d.prompter == nil {
		return "", false
	}
	answer, err := d.prompter.Ask(ctx, question)
	if err != nil {
		d.log.Debug().Err(err).Str("question", question).Msg("no answer")
		return "", false
	}
	return strings.TrimSpace(answer), true
}
