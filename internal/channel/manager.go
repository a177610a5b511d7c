package channel

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Fanout delivers every Say to all registered speakers. One failing speaker does not
// stop the others; their errors are joined.
type Fanout struct {
	mu       sync.RWMutex
	names    []string
	speakers map[string]Speaker
	log      zerolog.Logger
}

func NewFanout(log zerolog.Logger) *Fanout {
	return &Fanout{speakers: make(map[string]Speaker), log: log}
}

func (f *Fanout) Add(name string, s Speaker) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.speakers[name]; !ok {
		f.names = append(f.names, name)
	}
	f.speakers[name] = s
}

func (f *Fanout) Get(name string) (Speaker, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	s, ok := f.speakers[name]
	return s, ok
}

func (f *Fanout) Names() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]string, len(f.names))
	copy(out, f.names)
	return out
}

func (f *Fanout) Say(ctx context.Context, text string, urgent bool) error {
	f.mu.RLock()
	names := make([]string, len(f.names))
	copy(names, f.names)
	speakers := make([]Speaker, len(names))
	for i, n := range names {
		speakers[i] = f.speakers[n]
	}
	f.mu.RUnlock()

	var errs []error
	for i, s := range speakers {
		if err := s.Say(ctx, text, urgent); err != nil {
			f.log.Warn().Err(err).Str("speaker", names[i]).Msg("send failed")
			errs = append(errs, fmt.Errorf("%s: %w", names[i], err))
		}
	}
	return errors.Join(errs...)
}
