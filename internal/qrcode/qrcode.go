// Package qrcode renders text as a QR code PNG and, optionally, as terminal half blocks.
package qrcode

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mdp/qrterminal/v3"
	"rsc.io/qr"
)

var ErrEmptyText = errors.New("nothing to encode")

type Encoder struct {
	dir      string
	terminal io.Writer
	now      func() time.Time
}

// NewEncoder writes PNGs into dir. A non-nil terminal also receives a printable code.
func NewEncoder(dir string, terminal io.Writer) *Encoder {
	return &Encoder{dir: dir, terminal: terminal, now: time.Now}
}

// Encode writes qr_code_<timestamp>.png and returns its path.
func (e *Encoder) Encode(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyText
	}

	code, err := qr.Encode(text, qr.M)
	if err != nil {
		return "", fmt.Errorf("encode qr: %w", err)
	}
	if err := os.MkdirAll(e.dir, 0755); err != nil {
		return "", fmt.Errorf("create qr dir: %w", err)
	}
	path := filepath.Join(e.dir, "qr_code_"+e.now().Format("20060102_150405")+".png")
	if err := os.WriteFile(path, code.PNG(), 0644); err != nil {
		return "", fmt.Errorf("write qr png: %w", err)
	}

	if e.terminal != nil {
		qrterminal.GenerateHalfBlock(text, qrterminal.L, e.terminal)
	}
	return path, nil
}
