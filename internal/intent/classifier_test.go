package intent

import (
	"testing"
	"time"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"  What TIME is it  ", "what time is it"},
		{"\tExit\n", "exit"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Normalize(tt.input); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNewCommand(t *testing.T) {
	at := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	cmd := NewCommand("  Open GitHub ", at)
	if cmd.Raw != "  Open GitHub " {
		t.Errorf("raw = %q", cmd.Raw)
	}
	if cmd.Normalized != "open github" {
		t.Errorf("normalized = %q", cmd.Normalized)
	}
	if !cmd.Timestamp.Equal(at) {
		t.Errorf("timestamp = %v", cmd.Timestamp)
	}
}

func TestClassify_Kinds(t *testing.T) {
	tests := []struct {
		cmd  string
		want Kind
	}{
		{"exit", Exit},
		{"quit now", Exit},
		{"goodbye jarvis", Exit},
		{"ok bye", Exit},
		{"what's the weather", Weather},
		{"temperature outside", Weather},
		{"give me the forecast", Weather},
		{"latest news", News},
		{"remind me to call mom", ReminderCreate},
		{"set a reminder", ReminderCreate},
		{"show my reminders", ReminderList},
		{"list reminders", ReminderList},
		{"take a note", NoteCreate},
		{"show notes", NoteList},
		{"list my notes", NoteList},
		{"tell me a joke", Joke},
		{"make a qr code", QrCode},
		{"send an email", Email},
		{"set preference", SetPreference},
		{"configure the assistant", SetPreference},
		{"what time is it", GetTime},
		{"what is the date", GetDate},
		{"open youtube", OpenSite},
		{"search for golang", Search},
		{"play lofi beats", Search},
		{"wikipedia alan turing", Wikipedia},
		{"take a screenshot", Screenshot},
		{"system info", SystemInfo},
		{"system status please", SystemInfo},
		{"how is my battery", SystemInfo},
		{"shutdown", Shutdown},
		{"restart", Restart},
		{"how are you doing", Fallback},
		{"", Fallback},
	}
	for _, tt := range tests {
		if got := Classify(tt.cmd); got.Kind != tt.want {
			t.Errorf("Classify(%q).Kind = %v, want %v", tt.cmd, got.Kind, tt.want)
		}
	}
}

func TestClassify_PriorityOrdering(t *testing.T) {
	tests := []struct {
		cmd  string
		want Kind
	}{
		{"exit the weather app", Exit},
		{"weather news", Weather},
		{"news about reminders", News},
		{"remind me to write a note", ReminderCreate},
		{"note this joke", NoteCreate},
		{"email me a joke", Joke},
		{"configure email", Email},
		{"set preference for time", SetPreference},
		{"remind me at this time", ReminderCreate},
		{"what time is the weather update", Weather},
	}
	for _, tt := range tests {
		if got := Classify(tt.cmd); got.Kind != tt.want {
			t.Errorf("Classify(%q).Kind = %v, want %v", tt.cmd, got.Kind, tt.want)
		}
	}
}

func TestClassify_TimeWithoutHigherPriorityKeywords(t *testing.T) {
	for _, cmd := range []string{"time", "what time is it", "tell me the time", "time please"} {
		if got := Classify(cmd); got.Kind != GetTime {
			t.Errorf("Classify(%q).Kind = %v, want GetTime", cmd, got.Kind)
		}
	}
}

func TestClassify_WeatherCity(t *testing.T) {
	tests := []struct {
		cmd  string
		want string
	}{
		{"weather in london", "london"},
		{"what's the weather in new york", "new york"},
		{"weather in berlin", "berlin"},
		{"weather", ""},
		{"weather in", ""},
		{"temperature inside", ""},
		{"forecast in tokyo in japan", "japan"},
		{"weather berlin", ""},
		{"forecast for springfield", ""},
		{"raining weather in beijing", "beijing"},
	}
	for _, tt := range tests {
		got := Classify(tt.cmd)
		if got.Kind != Weather {
			t.Fatalf("Classify(%q).Kind = %v, want Weather", tt.cmd, got.Kind)
		}
		if got.City != tt.want {
			t.Errorf("Classify(%q).City = %q, want %q", tt.cmd, got.City, tt.want)
		}
	}
}

func TestClassify_NewsCategory(t *testing.T) {
	tests := []struct {
		cmd  string
		want string
	}{
		{"news", "general"},
		{"sports news", "sports"},
		{"technology news", "technology"},
		{"tech news", "technology"},
		{"business news", "business"},
		{"health news", "health"},
		{"entertainment news", "entertainment"},
		{"sports and tech news", "sports"},
	}
	for _, tt := range tests {
		got := Classify(tt.cmd)
		if got.Category != tt.want {
			t.Errorf("Classify(%q).Category = %q, want %q", tt.cmd, got.Category, tt.want)
		}
	}
}

func TestClassify_SearchSlots(t *testing.T) {
	tests := []struct {
		cmd     string
		query   string
		isVideo bool
	}{
		{"search for golang generics", "golang generics", false},
		{"search youtube for cats", "cats", true},
		{"play despacito", "despacito", true},
	}
	for _, tt := range tests {
		got := Classify(tt.cmd)
		if got.Kind != Search {
			t.Fatalf("Classify(%q).Kind = %v, want Search", tt.cmd, got.Kind)
		}
		if got.Query != tt.query || got.IsVideo != tt.isVideo {
			t.Errorf("Classify(%q) = {query %q video %v}, want {query %q video %v}", tt.cmd, got.Query, got.IsVideo, tt.query, tt.isVideo)
		}
	}
}

func TestClassify_LiteralSubstringRemoval(t *testing.T) {
	// "on" inside "london" is removed along with the keyword.
	got := Classify("search youtube for london")
	if got.Query != "ld" {
		t.Errorf("query = %q, want %q", got.Query, "ld")
	}
}

func TestClassify_OpenAndWikipediaSlots(t *testing.T) {
	if got := Classify("open github"); got.Site != "github" {
		t.Errorf("site = %q, want github", got.Site)
	}
	if got := Classify("open"); got.Kind != OpenSite || got.Site != "" {
		t.Errorf("bare open = %+v", got)
	}
	if got := Classify("wikipedia alan turing"); got.Query != "alan turing" {
		t.Errorf("query = %q, want alan turing", got.Query)
	}
}

func TestClassify_PowerDelay(t *testing.T) {
	tests := []struct {
		cmd  string
		kind Kind
		want time.Duration
	}{
		{"shutdown", Shutdown, 10 * time.Second},
		{"shutdown in 30 seconds", Shutdown, 30 * time.Second},
		{"restart after 5 or 7 seconds", Restart, 5 * time.Second},
		{"restart", Restart, DefaultPowerDelay},
	}
	for _, tt := range tests {
		got := Classify(tt.cmd)
		if got.Kind != tt.kind || got.Delay != tt.want {
			t.Errorf("Classify(%q) = {%v %v}, want {%v %v}", tt.cmd, got.Kind, got.Delay, tt.kind, tt.want)
		}
	}
}

func TestClassify_FallbackCarriesText(t *testing.T) {
	got := Classify("what is the meaning of life")
	if got.Kind != Fallback || got.Text != "what is the meaning of life" {
		t.Errorf("fallback = %+v", got)
	}
}

func TestRuleFor(t *testing.T) {
	if got := RuleFor("exit weather"); got != "exit" {
		t.Errorf("RuleFor = %q, want exit", got)
	}
	if got := RuleFor("hello there"); got != "fallback" {
		t.Errorf("RuleFor = %q, want fallback", got)
	}
}

func TestKindString(t *testing.T) {
	if Exit.String() != "exit" || ReminderCreate.String() != "reminder_create" {
		t.Errorf("unexpected names: %s %s", Exit, ReminderCreate)
	}
	if Kind(999).String() != "unknown" {
		t.Errorf("unknown kind name = %s", Kind(999))
	}
}
