// Package mail sends plain-text email over authenticated SMTP.
package mail

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/stellarlinkco/jarvis/internal/config"
)

var (
	ErrNotConfigured  = errors.New("email credentials not configured")
	ErrInvalidAddress = errors.New("invalid email address")
)

// SendFunc matches smtp.SendMail so tests can capture messages.
type SendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type Sender struct {
	from     string
	password string
	host     string
	port     int
	send     SendFunc
	now      func() time.Time
}

func NewSender(cfg config.EmailConfig) *Sender {
	return NewSenderWithFunc(cfg, smtp.SendMail)
}

func NewSenderWithFunc(cfg config.EmailConfig, send SendFunc) *Sender {
	host := strings.TrimSpace(cfg.SMTPHost)
	if host == "" {
		host = config.DefaultSMTPHost
	}
	port := cfg.SMTPPort
	if port <= 0 {
		port = config.DefaultSMTPPort
	}
	return &Sender{
		from:     strings.TrimSpace(cfg.Address),
		password: cfg.Password,
		host:     host,
		port:     port,
		send:     send,
		now:      time.Now,
	}
}

func (s *Sender) Configured() bool {
	return s.from != "" && s.password != ""
}

func (s *Sender) Send(ctx context.Context, to, subject, body string) error {
	if !s.Configured() {
		return ErrNotConfigured
	}
	to = strings.TrimSpace(to)
	if _, err := mail.ParseAddress(to); err != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalidAddress, to, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	addr := net.JoinHostPort(s.host, strconv.Itoa(s.port))
	auth := smtp.PlainAuth("", s.from, s.password, s.host)

	done := make(chan error, 1)
	go func() {
		done <- s.send(addr, auth, s.from, []string{to}, s.message(to, subject, body))
	}()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("send mail: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Sender) message(to, subject, body string) []byte {
	var b strings.Builder
	b.WriteString("From: " + s.from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + sanitizeHeader(subject) + "\r\n")
	b.WriteString("Date: " + s.now().Format(time.RFC1123Z) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	b.WriteString("\r\n")
	return []byte(b.String())
}

func sanitizeHeader(v string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(v)
}
