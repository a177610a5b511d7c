package intent

import (
	"strings"
	"time"
)

// Kind identifies which handler a command is routed to.
type Kind int

const (
	Fallback Kind = iota
	Exit
	GetTime
	GetDate
	OpenSite
	Search
	Wikipedia
	Screenshot
	SystemInfo
	Shutdown
	Restart
	Weather
	News
	ReminderList
	ReminderCreate
	NoteList
	NoteCreate
	Joke
	QrCode
	Email
	SetPreference
)

var kindNames = map[Kind]string{
	Fallback:       "fallback",
	Exit:           "exit",
	GetTime:        "get_time",
	GetDate:        "get_date",
	OpenSite:       "open_site",
	Search:         "search",
	Wikipedia:      "wikipedia",
	Screenshot:     "screenshot",
	SystemInfo:     "system_info",
	Shutdown:       "shutdown",
	Restart:        "restart",
	Weather:        "weather",
	News:           "news",
	ReminderList:   "reminder_list",
	ReminderCreate: "reminder_create",
	NoteList:       "note_list",
	NoteCreate:     "note_create",
	Joke:           "joke",
	QrCode:         "qr_code",
	Email:          "email",
	SetPreference:  "set_preference",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// DefaultPowerDelay applies to shutdown/restart commands without a number.
const DefaultPowerDelay = 10 * time.Second

// Intent is the classified action plus the slots its handler needs. Only the fields
// relevant to Kind are set.
type Intent struct {
	Kind Kind

	Site     string        // OpenSite
	Query    string        // Search, Wikipedia
	IsVideo  bool          // Search
	City     string        // Weather; empty means the default city
	Category string        // News
	Delay    time.Duration // Shutdown, Restart
	Text     string        // Fallback
}

// Command is one utterance as received by the main loop.
type Command struct {
	Raw        string
	Normalized string
	Timestamp  time.Time
}

func NewCommand(raw string, at time.Time) Command {
	return Command{Raw: raw, Normalized: Normalize(raw), Timestamp: at}
}

// Normalize lower-cases and trims an utterance.
func Normalize(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
