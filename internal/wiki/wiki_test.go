package wiki

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stellarlinkco/jarvis/internal/config"
)

func TestSummary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/page/summary/alan_turing":
			_, _ = w.Write([]byte(`{"type":"standard","extract":"Alan Turing was a mathematician. He worked at Bletchley Park. He proposed the Turing test. He died in 1954."}`))
		case "/page/summary/mercury":
			_, _ = w.Write([]byte(`{"type":"disambiguation","extract":"Mercury may refer to:"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient(config.WikipediaConfig{BaseURL: srv.URL})
	got, err := c.Summary(context.Background(), "alan turing")
	if err != nil {
		t.Fatalf("Summary error: %v", err)
	}
	want := "Alan Turing was a mathematician. He worked at Bletchley Park. He proposed the Turing test."
	if got != want {
		t.Errorf("Summary = %q, want %q", got, want)
	}

	if _, err := c.Summary(context.Background(), "mercury"); !errors.Is(err, ErrAmbiguous) {
		t.Errorf("err = %v, want ErrAmbiguous", err)
	}
	if _, err := c.Summary(context.Background(), "zzqx"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if _, err := c.Summary(context.Background(), "  "); !errors.Is(err, ErrEmptyQuery) {
		t.Errorf("err = %v, want ErrEmptyQuery", err)
	}
}

func TestFirstSentences(t *testing.T) {
	tests := []struct {
		text string
		n    int
		want string
	}{
		{"One. Two. Three. Four.", 3, "One. Two. Three."},
		{"One. Two.", 3, "One. Two."},
		{"Is it? Yes! Done.", 2, "Is it? Yes!"},
		{"Version 1.5 is out. Next.", 1, "Version 1.5 is out."},
		{"  padded  ", 1, "padded"},
	}
	for _, tt := range tests {
		if got := FirstSentences(tt.text, tt.n); got != tt.want {
			t.Errorf("FirstSentences(%q, %d) = %q, want %q", tt.text, tt.n, got, tt.want)
		}
	}
}
