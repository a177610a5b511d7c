// Package system performs the host actions the assistant can trigger: screenshots,
// resource summaries, delayed power actions and opening URLs in a browser.
package system

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/stellarlinkco/jarvis/internal/config"
)

var (
	ErrPowerDisabled = errors.New("system power control is disabled")
	ErrUnsupported   = errors.New("not supported on this platform")

	// ErrNoScreenshotCmd means the configured screenshot command is blank.
	ErrNoScreenshotCmd = errors.New("screenshot command is empty")
)

// Runner starts an external command. It is swapped out in tests.
type Runner func(ctx context.Context, name string, args ...string) error

func execRunner(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// startRunner launches without waiting, for browsers that outlive the call.
func startRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

type PowerAction string

const (
	PowerShutdown PowerAction = "shutdown"
	PowerRestart  PowerAction = "restart"
)

type Controller struct {
	allowPower    bool
	downloadsDir  string
	screenshotCmd string
	goos          string
	log           zerolog.Logger

	run      Runner
	start    Runner
	now      func() time.Time
	readFile func(string) ([]byte, error)

	mu      sync.Mutex
	pending *time.Timer
}

func NewController(cfg config.SystemConfig, log zerolog.Logger) *Controller {
	dir := cfg.DownloadsDir
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, "Downloads")
	}
	return &Controller{
		allowPower:    cfg.AllowPower,
		downloadsDir:  dir,
		screenshotCmd: cfg.ScreenshotCmd,
		goos:          runtime.GOOS,
		log:           log,
		run:           execRunner,
		start:         startRunner,
		now:           time.Now,
		readFile:      os.ReadFile,
	}
}

func (c *Controller) DownloadsDir() string { return c.downloadsDir }

// Screenshot captures the screen into the downloads directory and returns the file path.
// A configured command template may use {path} for the output file.
func (c *Controller) Screenshot(ctx context.Context) (string, error) {
	if err := os.MkdirAll(c.downloadsDir, 0755); err != nil {
		return "", fmt.Errorf("create downloads dir: %w", err)
	}
	path := filepath.Join(c.downloadsDir, "screenshot_"+c.now().Format("20060102_150405")+".png")

	tmpl := c.screenshotCmd
	if tmpl == "" {
		switch c.goos {
		case "darwin":
			tmpl = "screencapture -x {path}"
		case "linux":
			tmpl = "gnome-screenshot -f {path}"
		default:
			return "", fmt.Errorf("screenshot: %w", ErrUnsupported)
		}
	}
	fields := strings.Fields(tmpl)
	if len(fields) == 0 {
		return "", ErrNoScreenshotCmd
	}
	for i, f := range fields {
		fields[i] = strings.ReplaceAll(f, "{path}", path)
	}
	if err := c.run(ctx, fields[0], fields[1:]...); err != nil {
		return "", fmt.Errorf("screenshot: %w", err)
	}
	return path, nil
}

// Schedule runs a power action after delay. A newer request replaces a pending one.
func (c *Controller) Schedule(action PowerAction, delay time.Duration) error {
	if !c.allowPower {
		return ErrPowerDisabled
	}
	name, args, err := c.powerCommand(action)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending != nil {
		c.pending.Stop()
	}
	c.pending = time.AfterFunc(delay, func() {
		c.log.Warn().Str("action", string(action)).Msg("executing power action")
		if err := c.run(context.Background(), name, args...); err != nil {
			c.log.Error().Err(err).Str("action", string(action)).Msg("power action failed")
		}
	})
	c.log.Info().Str("action", string(action)).Dur("delay", delay).Msg("power action scheduled")
	return nil
}

func (c *Controller) Shutdown(delay time.Duration) error { return c.Schedule(PowerShutdown, delay) }

func (c *Controller) Restart(delay time.Duration) error { return c.Schedule(PowerRestart, delay) }

// CancelPower stops a scheduled power action. It reports whether one was pending.
func (c *Controller) CancelPower() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return false
	}
	stopped := c.pending.Stop()
	c.pending = nil
	return stopped
}

func (c *Controller) powerCommand(action PowerAction) (string, []string, error) {
	windows := c.goos == "windows"
	switch action {
	case PowerShutdown:
		if windows {
			return "shutdown", []string{"/s", "/t", "1"}, nil
		}
		return "shutdown", []string{"-h", "now"}, nil
	case PowerRestart:
		if windows {
			return "shutdown", []string{"/r", "/t", "1"}, nil
		}
		return "shutdown", []string{"-r", "now"}, nil
	}
	return "", nil, fmt.Errorf("unknown power action %q", action)
}

// OpenURL hands url to the desktop's default browser.
func (c *Controller) OpenURL(ctx context.Context, url string) error {
	switch c.goos {
	case "darwin":
		return c.start(ctx, "open", url)
	case "windows":
		return c.start(ctx, "rundll32", "url.dll,FileProtocolHandler", url)
	case "linux", "freebsd", "openbsd", "netbsd":
		return c.start(ctx, "xdg-open", url)
	}
	return fmt.Errorf("open url: %w", ErrUnsupported)
}
