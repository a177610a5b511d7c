// Package channel holds the assistant's input and output surfaces: the console used
// for the interactive session and the Telegram mirror for fired reminders.
package channel

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNoInput means nothing arrived before the listen timeout.
	ErrNoInput = errors.New("no input before timeout")
	// ErrUnrecognized means input arrived but held nothing usable.
	ErrUnrecognized = errors.New("input not recognized")
	// ErrServiceError means the input device itself failed.
	ErrServiceError = errors.New("input service error")
)

type Speaker interface {
	Say(ctx context.Context, text string, urgent bool) error
}

type Listener interface {
	Listen(ctx context.Context, timeout time.Duration) (string, error)
}

// Prompter asks a follow-up question and waits for the answer.
type Prompter interface {
	Ask(ctx context.Context, question string) (string, error)
}
