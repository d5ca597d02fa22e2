package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/terraincognita07/meditrack/internal/agentstore"
	"github.com/terraincognita07/meditrack/internal/cli"
	"github.com/terraincognita07/meditrack/internal/client"
	"github.com/terraincognita07/meditrack/internal/config"
	"github.com/terraincognita07/meditrack/internal/reminder"
	"go.uber.org/zap"
)

var errSessionExpired = errors.New("session expired; run meditrack remind again to sign in")

type remindOptions struct {
	configPath string
	apiURL     string
	email      string
	on         bool
	off        bool
	logout     bool
	initConfig bool
}

var remindFlags remindOptions

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Sign in and show medicine reminders while running",
	Long: `Runs the reminder agent in the foreground. It signs in to the API, arms
a timer for every dose still due today and re-syncs every refresh interval.

Reminders are best-effort: they only fire while this command runs, and a
reminder whose time passes while the agent is stopped is not replayed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRemind(cmd.Context(), cmd.OutOrStdout())
	},
}

func init() {
	flags := remindCmd.Flags()
	flags.StringVar(&remindFlags.configPath, "config", defaultAgentConfigPath(), "agent config file")
	flags.StringVar(&remindFlags.apiURL, "api-url", "", "API base URL, overrides api_url")
	flags.StringVar(&remindFlags.email, "email", "", "account email, overrides email")
	flags.BoolVar(&remindFlags.on, "on", false, "turn reminders on and exit")
	flags.BoolVar(&remindFlags.off, "off", false, "turn reminders off and exit")
	flags.BoolVar(&remindFlags.logout, "logout", false, "forget the stored credential and exit")
	flags.BoolVar(&remindFlags.initConfig, "init", false, "write a default config file and exit")
	remindCmd.MarkFlagsMutuallyExclusive("on", "off", "logout", "init")
}

func defaultAgentConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "reminder.toml"
	}
	return filepath.Join(dir, "meditrack", "reminder.toml")
}

func runRemind(ctx context.Context, out io.Writer) error {
	if remindFlags.initConfig {
		return writeDefaultAgentConfig(remindFlags.configPath, out)
	}

	agent, err := config.ReadAgentFile(remindFlags.configPath)
	if err != nil {
		return err
	}
	if remindFlags.apiURL != "" {
		agent.APIURL = remindFlags.apiURL
	}
	if remindFlags.email != "" {
		agent.Email = remindFlags.email
	}
	if err := agent.Validate(); err != nil {
		return err
	}

	store, err := agentstore.Open(agent.StateDir)
	if err != nil {
		return err
	}
	defer store.Close()

	switch {
	case remindFlags.on, remindFlags.off:
		if err := store.SetNotificationsEnabled(remindFlags.on); err != nil {
			return err
		}
		fmt.Fprintf(out, "Reminders turned %s\n", onOff(remindFlags.on))
		return nil
	case remindFlags.logout:
		if err := store.ClearCredential(); err != nil {
			return err
		}
		fmt.Fprintln(out, "Signed out")
		return nil
	}

	enabled, err := store.NotificationsEnabled()
	if err != nil {
		return err
	}
	if !enabled {
		fmt.Fprintln(out, "Reminders are turned off; run meditrack remind --on to turn them back on")
		return nil
	}

	runCtx, stopSignals := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()
	runCtx, cancel := context.WithCancel(runCtx)
	defer cancel()

	// Rejections during sign-in are handled there; once running, a 401 ends
	// the session.
	var running, expired atomic.Bool
	apiClient, err := client.New(client.Options{
		BaseURL: agent.APIURL,
		OnUnauthorized: func() {
			if err := store.ClearCredential(); err != nil {
				logger.Warn("clear stored credential failed", zap.Error(err))
			}
			if running.Load() && expired.CompareAndSwap(false, true) {
				cancel()
			}
		},
	})
	if err != nil {
		return err
	}

	user, err := signIn(runCtx, apiClient, store, agent, out)
	if err != nil {
		return err
	}
	running.Store(true)

	notifier, err := newNotifier(agent)
	if err != nil {
		return err
	}
	scheduler, err := reminder.NewScheduler(reminder.Options{
		Source:          apiClient,
		History:         apiClient,
		Notifier:        notifier,
		Toaster:         reminder.NewWriterToaster(out),
		Logger:          logger,
		RefreshInterval: agent.RefreshInterval.Duration,
	})
	if err != nil {
		return err
	}

	if err := scheduler.Start(runCtx); err != nil {
		return err
	}
	defer scheduler.Stop()

	fmt.Fprintf(out, "Reminders active for %s (%d due today). Press Ctrl+C to stop.\n", user.Email, len(scheduler.Armed()))
	<-runCtx.Done()

	if expired.Load() {
		return errSessionExpired
	}
	return nil
}

// signIn reuses a stored credential the API still accepts, and otherwise
// prompts for email and password.
func signIn(ctx context.Context, apiClient *client.Client, store *agentstore.Store, agent *config.Agent, out io.Writer) (client.User, error) {
	credential, ok, err := store.Credential()
	if err != nil {
		return client.User{}, err
	}
	if ok && credential.APIURL == agent.APIURL {
		apiClient.SetToken(credential.Token)
		user, err := apiClient.CurrentUser(ctx)
		if err == nil {
			return user, nil
		}
		if !client.IsUnauthorized(err) {
			return client.User{}, fmt.Errorf("verify stored credential: %w", err)
		}
		fmt.Fprintln(out, "Stored session expired, please sign in again")
	}

	email := strings.TrimSpace(agent.Email)
	if email == "" {
		email, err = cli.ReadLine(os.Stdin, out, "Email: ")
		if err != nil {
			return client.User{}, err
		}
	}
	password, err := cli.ReadPassword(os.Stdin, out, "Password: ")
	if err != nil {
		return client.User{}, err
	}

	result, err := apiClient.Login(ctx, email, password)
	if err != nil {
		if client.IsUnauthorized(err) {
			return client.User{}, errors.New("invalid email or password")
		}
		return client.User{}, fmt.Errorf("sign in: %w", err)
	}

	err = store.SaveCredential(agentstore.Credential{
		APIURL:   agent.APIURL,
		Email:    result.User.Email,
		Token:    result.Token,
		UserID:   result.User.ID,
		IssuedAt: time.Now(),
	})
	if err != nil {
		return client.User{}, err
	}
	return result.User, nil
}

func newNotifier(agent *config.Agent) (reminder.Notifier, error) {
	if !agent.PushoverEnabled() {
		return reminder.NopNotifier{}, nil
	}
	return reminder.NewPushoverNotifier(agent.PushoverToken, agent.PushoverUser)
}

func writeDefaultAgentConfig(path string, out io.Writer) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config %s already exists", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("create config: %w", err)
	}
	defer file.Close()

	if err := config.WriteAgent(file, config.DefaultAgent(filepath.Dir(path))); err != nil {
		return err
	}
	fmt.Fprintf(out, "Wrote %s\n", path)
	return nil
}

func onOff(enabled bool) string {
	if enabled {
		return "on"
	}
	return "off"
}
