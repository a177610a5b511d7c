package channel

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// ConsoleSpeaker prints "<name>: <text>" lines. Urgent lines get a "[!] " prefix.
type ConsoleSpeaker struct {
	mu   sync.Mutex
	w    io.Writer
	name string
}

func NewConsoleSpeaker(w io.Writer, name string) *ConsoleSpeaker {
	if name == "" {
		name = "Assistant"
	}
	return &ConsoleSpeaker{w: w, name: name}
}

func (s *ConsoleSpeaker) Say(ctx context.Context, text string, urgent bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	prefix := ""
	if urgent {
		prefix = "[!] "
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintf(s.w, "%s%s: %s\n", prefix, s.name, text)
	return err
}

// ConsoleListener reads one line per Listen call. The reader is consumed on a
// background goroutine so Listen can honour its timeout.
type ConsoleListener struct {
	r     io.Reader
	once  sync.Once
	lines chan string
	err   error // set before lines is closed
}

func NewConsoleListener(r io.Reader) *ConsoleListener {
	return &ConsoleListener{r: r, lines: make(chan string)}
}

func (l *ConsoleListener) start() {
	go func() {
		scanner := bufio.NewScanner(l.r)
		for scanner.Scan() {
			l.lines <- scanner.Text()
		}
		if err := scanner.Err(); err != nil {
			l.err = fmt.Errorf("%w: %v", ErrServiceError, err)
		} else {
			l.err = io.EOF
		}
		close(l.lines)
	}()
}

// Listen returns the next line. A blank line is ErrUnrecognized; a closed reader is
// io.EOF.
func (l *ConsoleListener) Listen(ctx context.Context, timeout time.Duration) (string, error) {
	l.once.Do(l.start)

	var timeoutC <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		timeoutC = timer.C
	}

	select {
	case line, ok := <-l.lines:
		if !ok {
			return "", l.err
		}
		if strings.TrimSpace(line) == "" {
			return "", ErrUnrecognized
		}
		return line, nil
	case <-timeoutC:
		return "", ErrNoInput
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// ConsolePrompter writes the question to w and reads the answer from in. A blank
// answer is returned as "" with no error.
type ConsolePrompter struct {
	w       io.Writer
	in      Listener
	timeout time.Duration
}

func NewConsolePrompter(w io.Writer, in Listener, timeout time.Duration) *ConsolePrompter {
	return &ConsolePrompter{w: w, in: in, timeout: timeout}
}

func (p *ConsolePrompter) Ask(ctx context.Context, question string) (string, error) {
	if _, err := fmt.Fprintf(p.w, "%s: ", question); err != nil {
		return "", err
	}
	answer, err := p.in.Listen(ctx, p.timeout)
	if errors.Is(err, ErrUnrecognized) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(answer), nil
}
