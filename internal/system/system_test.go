package system

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/stellarlinkco/jarvis/internal/config"
)

type call struct {
	name string
	args []string
}

type recorder struct {
	mu    sync.Mutex
	calls []call
	err   error
	ran   chan struct{}
}

func newRecorder() *recorder { return &recorder{ran: make(chan struct{}, 10)} }

func (r *recorder) run(ctx context.Context, name string, args ...string) error {
	r.mu.Lock()
	r.calls = append(r.calls, call{name, args})
	r.mu.Unlock()
	r.ran <- struct{}{}
	return r.err
}

func (r *recorder) last() call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[len(r.calls)-1]
}

func newTestController(t *testing.T, cfg config.SystemConfig, goos string) (*Controller, *recorder) {
	t.Helper()
	if cfg.DownloadsDir == "" {
		cfg.DownloadsDir = filepath.Join(t.TempDir(), "Downloads")
	}
	c := NewController(cfg, zerolog.Nop())
	rec := newRecorder()
	c.goos = goos
	c.run = rec.run
	c.start = rec.run
	c.now = func() time.Time { return time.Date(2026, 10, 14, 15, 4, 5, 0, time.Local) }
	return c, rec
}

func TestScreenshot_DefaultCommand(t *testing.T) {
	c, rec := newTestController(t, config.SystemConfig{}, "linux")
	path, err := c.Screenshot(context.Background())
	if err != nil {
		t.Fatalf("Screenshot error: %v", err)
	}
	if filepath.Base(path) != "screenshot_20261014_150405.png" {
		t.Errorf("path = %q", path)
	}
	if _, err := os.Stat(c.DownloadsDir()); err != nil {
		t.Errorf("downloads dir not created: %v", err)
	}
	got := rec.last()
	if got.name != "gnome-screenshot" || len(got.args) != 2 || got.args[1] != path {
		t.Errorf("command = %+v", got)
	}
}

func TestScreenshot_CustomTemplateAndErrors(t *testing.T) {
	c, rec := newTestController(t, config.SystemConfig{ScreenshotCmd: "scrot --silent {path}"}, "windows")
	path, err := c.Screenshot(context.Background())
	if err != nil {
		t.Fatalf("Screenshot error: %v", err)
	}
	if got := rec.last(); got.name != "scrot" || got.args[1] != path {
		t.Errorf("command = %+v", got)
	}

	c2, _ := newTestController(t, config.SystemConfig{}, "windows")
	if _, err := c2.Screenshot(context.Background()); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("err = %v, want ErrUnsupported", err)
	}

	c3, rec3 := newTestController(t, config.SystemConfig{}, "darwin")
	rec3.err = errors.New("no display")
	if _, err := c3.Screenshot(context.Background()); err == nil {
		t.Fatal("expected runner error")
	}
}

func TestScreenshot_BlankTemplate(t *testing.T) {
	c, rec := newTestController(t, config.SystemConfig{ScreenshotCmd: "  \t "}, "linux")
	if _, err := c.Screenshot(context.Background()); !errors.Is(err, ErrNoScreenshotCmd) {
		t.Fatalf("err = %v, want ErrNoScreenshotCmd", err)
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.calls) != 0 {
		t.Errorf("runner called: %+v", rec.calls)
	}
}

func TestPower_DisabledByDefault(t *testing.T) {
	c, _ := newTestController(t, config.SystemConfig{}, "linux")
	if err := c.Shutdown(time.Second); !errors.Is(err, ErrPowerDisabled) {
		t.Fatalf("err = %v, want ErrPowerDisabled", err)
	}
	if err := c.Restart(time.Second); !errors.Is(err, ErrPowerDisabled) {
		t.Fatalf("err = %v, want ErrPowerDisabled", err)
	}
}

func TestPower_RunsAfterDelay(t *testing.T) {
	c, rec := newTestController(t, config.SystemConfig{AllowPower: true}, "linux")
	if err := c.Restart(10 * time.Millisecond); err != nil {
		t.Fatalf("Restart error: %v", err)
	}
	select {
	case <-rec.ran:
	case <-time.After(2 * time.Second):
		t.Fatal("power action never ran")
	}
	if got := rec.last(); got.name != "shutdown" || strings.Join(got.args, " ") != "-r now" {
		t.Errorf("command = %+v", got)
	}
}

func TestPower_Cancel(t *testing.T) {
	c, rec := newTestController(t, config.SystemConfig{AllowPower: true}, "windows")
	if c.CancelPower() {
		t.Fatal("nothing should be pending")
	}
	if err := c.Shutdown(time.Hour); err != nil {
		t.Fatalf("Shutdown error: %v", err)
	}
	if !c.CancelPower() {
		t.Fatal("expected pending action to be cancelled")
	}
	if len(rec.calls) != 0 {
		t.Fatalf("calls = %+v", rec.calls)
	}
	name, args, _ := c.powerCommand(PowerShutdown)
	if name != "shutdown" || strings.Join(args, " ") != "/s /t 1" {
		t.Errorf("windows shutdown = %s %v", name, args)
	}
}

func TestOpenURL(t *testing.T) {
	for goos, want := range map[string]string{"linux": "xdg-open", "darwin": "open", "windows": "rundll32"} {
		c, rec := newTestController(t, config.SystemConfig{}, goos)
		if err := c.OpenURL(context.Background(), "https://github.com"); err != nil {
			t.Fatalf("%s: OpenURL error: %v", goos, err)
		}
		got := rec.last()
		if got.name != want || got.args[len(got.args)-1] != "https://github.com" {
			t.Errorf("%s: command = %+v", goos, got)
		}
	}
	c, _ := newTestController(t, config.SystemConfig{}, "plan9")
	if err := c.OpenURL(context.Background(), "https://x"); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("err = %v, want ErrUnsupported", err)
	}
}

func TestInfo_Linux(t *testing.T) {
	c, _ := newTestController(t, config.SystemConfig{}, "linux")
	files := map[string]string{
		"/proc/loadavg":                         "0.52 0.40 0.31 1/234 5678\n",
		"/proc/meminfo":                         "MemTotal:       8000000 kB\nMemFree:  100 kB\nMemAvailable:   6000000 kB\n",
		"/sys/class/power_supply/BAT0/capacity": "81\n",
		"/sys/class/power_supply/BAT0/status":   "Discharging\n",
	}
	c.readFile = func(p string) ([]byte, error) {
		if v, ok := files[p]; ok {
			return []byte(v), nil
		}
		return nil, os.ErrNotExist
	}

	info, err := c.Info(context.Background())
	if err != nil {
		t.Fatalf("Info error: %v", err)
	}
	if !info.HasLoad || info.Load1 != 0.52 {
		t.Errorf("load = %v %v", info.HasLoad, info.Load1)
	}
	if !info.HasMemory || info.MemoryPercent != 25 {
		t.Errorf("memory = %v %v", info.HasMemory, info.MemoryPercent)
	}
	if !info.HasBattery || info.BatteryPercent != 81 || info.Charging {
		t.Errorf("battery = %+v", info)
	}
	s := info.String()
	if !strings.HasPrefix(s, "Battery is at 81% and not charging. Memory usage is at 25.0%. CPU load is 0.52") {
		t.Errorf("String() = %q", s)
	}
}

func TestInfo_NoProcFiles(t *testing.T) {
	c, _ := newTestController(t, config.SystemConfig{}, "darwin")
	info, err := c.Info(context.Background())
	if err != nil {
		t.Fatalf("Info error: %v", err)
	}
	if info.HasLoad || info.HasMemory || info.HasBattery {
		t.Errorf("unexpected fields on darwin: %+v", info)
	}
	if !strings.HasPrefix(info.String(), "This machine has ") {
		t.Errorf("String() = %q", info.String())
	}
}
