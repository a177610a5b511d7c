package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/stellarlinkco/jarvis/internal/chat"
	"github.com/stellarlinkco/jarvis/internal/clock"
	"github.com/stellarlinkco/jarvis/internal/config"
	"github.com/stellarlinkco/jarvis/internal/dispatch"
	"github.com/stellarlinkco/jarvis/internal/gateway"
	"github.com/stellarlinkco/jarvis/internal/logging"
	"github.com/stellarlinkco/jarvis/internal/sites"
	"github.com/stellarlinkco/jarvis/internal/store"
)

// SessionOptions for running the interactive session with custom dependencies
type SessionOptions struct {
	RuntimeFactory chat.RuntimeFactory
	Clock          clock.Clock
	Stdin          io.Reader
	Stdout         io.Writer
	Stderr         io.Writer
	SignalChan     chan os.Signal
}

var rootCmd = &cobra.Command{
	Use:          "jarvis",
	Short:        "jarvis - conversational command assistant",
	SilenceUsage: true,
	RunE:         runSession,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start an interactive session (the default)",
	RunE:  runSession,
}

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Initialize config, data directory and site aliases",
	RunE:  runOnboard,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show jarvis status",
	RunE:  runStatus,
}

var remindersCmd = &cobra.Command{
	Use:   "reminders",
	Short: "Manage reminders outside a session",
}

var remindersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List active reminders",
	RunE:  runRemindersList,
}

var remindersAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add a reminder for the next occurrence of --at",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRemindersAdd,
}

var (
	atFlag          string
	descriptionFlag string
)

func init() {
	remindersAddCmd.Flags().StringVar(&atFlag, "at", "", "Time of day, HH:MM (24-hour)")
	remindersAddCmd.Flags().StringVarP(&descriptionFlag, "description", "d", "", "Optional description")
	_ = remindersAddCmd.MarkFlagRequired("at")
	remindersCmd.AddCommand(remindersListCmd, remindersAddCmd)
	rootCmd.AddCommand(runCmd, onboardCmd, statusCmd, remindersCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// runSession is the command handler that uses default options
func runSession(cmd *cobra.Command, args []string) error {
	return runSessionWithOptions(commandContext(cmd), SessionOptions{})
}

// runSessionWithOptions runs the session with injectable dependencies for testing
func runSessionWithOptions(ctx context.Context, opts SessionOptions) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	log, closer, err := logging.New(stderr, cfg.Log.Level, cfg.Log.File)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer closer.Close()

	gw, err := gateway.NewWithOptions(cfg, gateway.Options{
		In:             opts.Stdin,
		Out:            opts.Stdout,
		Clock:          opts.Clock,
		Logger:         log,
		RuntimeFactory: opts.RuntimeFactory,
		SignalChan:     opts.SignalChan,
	})
	if err != nil {
		return fmt.Errorf("create gateway: %w", err)
	}
	return gw.Run(ctx)
}

func runOnboard(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	cfgDir := config.ConfigDir()
	cfgPath := config.ConfigPath()

	if err := os.MkdirAll(cfgDir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	if _, err := os.Stat(cfgPath); errors.Is(err, fs.ErrNotExist) {
		cfg := config.DefaultConfig()
		data, _ := json.MarshalIndent(cfg, "", "  ")
		if err := os.WriteFile(cfgPath, data, 0644); err != nil {
			return fmt.Errorf("write config: %w", err)
		}
		fmt.Fprintf(out, "Created config: %s\n", cfgPath)
	} else {
		fmt.Fprintf(out, "Config already exists: %s\n", cfgPath)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := os.MkdirAll(cfg.Assistant.Workspace, 0755); err != nil {
		return fmt.Errorf("create workspace: %w", err)
	}
	writeIfNotExists(out, filepath.Join(cfgDir, sites.FileName), defaultSitesYAML)

	st, err := store.Open(cfg.DBPath())
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()
	if err := st.EnsureDefaults(commandContext(cmd), store.DefaultPreferences); err != nil {
		return fmt.Errorf("seed preferences: %w", err)
	}

	fmt.Fprintf(out, "Data ready: %s\n", cfg.DBPath())
	fmt.Fprintln(out, "\nNext steps:")
	fmt.Fprintf(out, "  1. Edit %s to set your API keys\n", cfgPath)
	fmt.Fprintln(out, "  2. Or set WEATHER_API_KEY, NEWS_API_KEY, ANTHROPIC_API_KEY, EMAIL_ADDRESS/EMAIL_PASSWORD")
	fmt.Fprintln(out, "  3. Run 'jarvis' to start talking")

	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(out, "Config: error (%v)\n", err)
		return nil
	}

	fmt.Fprintf(out, "Config: %s\n", config.ConfigPath())
	fmt.Fprintf(out, "Assistant: %s\n", cfg.Assistant.Name)
	fmt.Fprintf(out, "Model: %s\n", cfg.Provider.Model)
	fmt.Fprintf(out, "Provider: %s\n", providerDisplay(cfg.Provider.Type))
	fmt.Fprintf(out, "API Key: %s\n", maskSecret(cfg.Provider.APIKey))
	fmt.Fprintf(out, "Weather: %s\n", configured(cfg.Weather.APIKey != ""))
	fmt.Fprintf(out, "News: %s\n", configured(cfg.News.APIKey != ""))
	fmt.Fprintf(out, "Email: %s\n", configured(cfg.Email.Address != "" && cfg.Email.Password != ""))
	fmt.Fprintf(out, "Telegram: enabled=%v\n", cfg.TelegramEnabled())
	fmt.Fprintf(out, "Power control: enabled=%v\n", cfg.System.AllowPower)

	if _, err := os.Stat(cfg.DBPath()); err != nil {
		fmt.Fprintln(out, "Data: not found (run 'jarvis onboard')")
		return nil
	}
	st, err := store.Open(cfg.DBPath())
	if err != nil {
		fmt.Fprintf(out, "Data: error (%v)\n", err)
		return nil
	}
	defer st.Close()

	ctx := commandContext(cmd)
	active, err := st.ListActive(ctx)
	if err != nil {
		fmt.Fprintf(out, "Reminders: error (%v)\n", err)
	} else {
		fmt.Fprintf(out, "Reminders: %d active\n", len(active))
	}
	notes, err := st.ListNotes(ctx, 0)
	if err != nil {
		fmt.Fprintf(out, "Notes: error (%v)\n", err)
	} else {
		fmt.Fprintf(out, "Notes: %d\n", len(notes))
	}
	return nil
}

func runRemindersList(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	active, err := st.ListActive(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("list reminders: %w", err)
	}
	out := cmd.OutOrStdout()
	if len(active) == 0 {
		fmt.Fprintln(out, "No active reminders")
		return nil
	}
	printReminders(out, active, time.Now())
	return nil
}

func runRemindersAdd(cmd *cobra.Command, args []string) error {
	hour, minute, err := dispatch.ParseClock(atFlag)
	if err != nil {
		return fmt.Errorf("--at %q: use HH:MM format", atFlag)
	}
	title := strings.TrimSpace(strings.Join(args, " "))

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	now := time.Now()
	fire := dispatch.NextFireTime(now, hour, minute)
	id, err := st.CreateReminder(commandContext(cmd), title, descriptionFlag, fire)
	if err != nil {
		return fmt.Errorf("create reminder: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Reminder #%d set for %s (%s): %s\n",
		id, fire.Format("January 02 at 03:04 PM"), humanize.RelTime(fire, now, "ago", "from now"), title)
	return nil
}

// commandContext is cmd's context, or Background when the command runs outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func openStore() (*store.Store, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	st, err := store.Open(cfg.DBPath())
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return st, nil
}

func printReminders(w io.Writer, reminders []store.Reminder, now time.Time) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tFIRES\tDESCRIPTION")
	for _, r := range reminders {
		when := r.FireTime.Format("Jan 02 15:04") + " (" + humanize.RelTime(r.FireTime, now, "ago", "from now") + ")"
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", r.ID, r.Title, when, r.Description)
	}
	_ = tw.Flush()
}

func providerDisplay(t string) string {
	if t == "" {
		return "anthropic (default)"
	}
	return t
}

func maskSecret(s string) string {
	switch {
	case s == "":
		return "not set"
	case len(s) > 8:
		return s[:4] + "..." + s[len(s)-4:]
	default:
		return "set"
	}
}

func configured(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}

func writeIfNotExists(w io.Writer, path, content string) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		_ = os.WriteFile(path, []byte(content), 0644)
		fmt.Fprintf(w, "  Created: %s\n", path)
	}
}

const defaultSitesYAML = `# Extra or overriding website aliases for "open <name>".
sites:
  # docs: https://go.dev/doc
# search: https://www.google.com/search?q=
# videoSearch: https://www.youtube.com/results?search_query=
`
