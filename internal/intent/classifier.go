package intent

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

type rule struct {
	name  string
	match func(cmd string) bool
	build func(cmd string) Intent
}

// rules is evaluated top to bottom and the first match wins. Order matters: a command
// such as "exit the weather app" must resolve to Exit.
var rules = []rule{
	{"exit", containsAny("exit", "quit", "goodbye", "bye"), kindOnly(Exit)},
	{"weather", containsAny("weather", "temperature", "forecast"), buildWeather},
	{"news", containsAny("news"), buildNews},
	{"reminder", containsAny("remind me", "reminder"), listOrCreate(ReminderList, ReminderCreate)},
	{"note", containsAny("note"), listOrCreate(NoteList, NoteCreate)},
	{"joke", containsAny("joke"), kindOnly(Joke)},
	{"qr_code", containsAny("qr code"), kindOnly(QrCode)},
	{"email", containsAny("email"), kindOnly(Email)},
	{"set_preference", containsAny("set preference", "configure"), kindOnly(SetPreference)},
	{"time", containsAny("time"), kindOnly(GetTime)},
	{"date", containsAny("date"), kindOnly(GetDate)},
	{"open", containsAny("open"), buildOpen},
	{"search", containsAny("search"), buildSearch},
	{"play", containsAny("play"), buildPlay},
	{"wikipedia", containsAny("wikipedia"), buildWikipedia},
	{"screenshot", containsAny("screenshot"), kindOnly(Screenshot)},
	{"system_info", containsAny("system info", "system status", "battery"), kindOnly(SystemInfo)},
	{"shutdown", containsAny("shutdown"), buildPower(Shutdown)},
	{"restart", containsAny("restart"), buildPower(Restart)},
}

// Classify maps a normalized command to exactly one Intent. It never fails: anything
// unmatched becomes Fallback carrying the command text.
func Classify(cmd string) Intent {
	for _, r := range rules {
		if r.match(cmd) {
			return r.build(cmd)
		}
	}
	return Intent{Kind: Fallback, Text: cmd}
}

// RuleFor reports the name of the rule that claims cmd, or "fallback".
func RuleFor(cmd string) string {
	for _, r := range rules {
		if r.match(cmd) {
			return r.name
		}
	}
	return "fallback"
}

func containsAny(words ...string) func(string) bool {
	return func(cmd string) bool {
		for _, w := range words {
			if strings.Contains(cmd, w) {
				return true
			}
		}
		return false
	}
}

func kindOnly(k Kind) func(string) Intent {
	return func(string) Intent { return Intent{Kind: k} }
}

func listOrCreate(list, create Kind) func(string) Intent {
	isList := containsAny("show", "list")
	return func(cmd string) Intent {
		if isList(cmd) {
			return Intent{Kind: list}
		}
		return Intent{Kind: create}
	}
}

func buildWeather(cmd string) Intent {
	return Intent{Kind: Weather, City: cityAfterIn(cmd)}
}

// cityAfterIn returns the words following the last standalone "in".
func cityAfterIn(cmd string) string {
	words := strings.Fields(cmd)
	for i := len(words) - 1; i >= 0; i-- {
		if words[i] == "in" {
			return strings.Join(words[i+1:], " ")
		}
	}
	return ""
}

var newsCategories = []struct {
	category string
	keywords []string
}{
	{"sports", []string{"sports"}},
	{"technology", []string{"technology", "tech"}},
	{"business", []string{"business"}},
	{"health", []string{"health"}},
	{"entertainment", []string{"entertainment"}},
}

func buildNews(cmd string) Intent {
	for _, c := range newsCategories {
		if containsAny(c.keywords...)(cmd) {
			return Intent{Kind: News, Category: c.category}
		}
	}
	return Intent{Kind: News, Category: "general"}
}

func buildOpen(cmd string) Intent {
	return Intent{Kind: OpenSite, Site: strip(cmd, "open")}
}

func buildSearch(cmd string) Intent {
	if strings.Contains(cmd, "youtube") {
		return Intent{Kind: Search, IsVideo: true, Query: strip(cmd, "search", "youtube", "on", "for")}
	}
	return Intent{Kind: Search, Query: strip(cmd, "search", "for")}
}

func buildPlay(cmd string) Intent {
	return Intent{Kind: Search, IsVideo: true, Query: strip(cmd, "play")}
}

func buildWikipedia(cmd string) Intent {
	return Intent{Kind: Wikipedia, Query: strip(cmd, "wikipedia")}
}

var firstNumber = regexp.MustCompile(`\d+`)

func buildPower(k Kind) func(string) Intent {
	return func(cmd string) Intent {
		return Intent{Kind: k, Delay: DelayFrom(cmd)}
	}
}

// DelayFrom reads the first integer in cmd as seconds, defaulting to DefaultPowerDelay.
func DelayFrom(cmd string) time.Duration {
	m := firstNumber.FindString(cmd)
	if m == "" {
		return DefaultPowerDelay
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return DefaultPowerDelay
	}
	return time.Duration(n) * time.Second
}

// strip removes every occurrence of each token, in order, then trims. This is plain
// substring surgery: "search london" loses the "on" inside "london" too.
func strip(cmd string, tokens ...string) string {
	for _, tok := range tokens {
		cmd = strings.ReplaceAll(cmd, tok, "")
	}
	return strings.TrimSpace(cmd)
}
