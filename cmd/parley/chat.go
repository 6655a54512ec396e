package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/parleyhq/parley"
	"github.com/parleyhq/parley/backend"
	bt "github.com/parleyhq/parley/bubbletea"
	"github.com/parleyhq/parley/config"
	pjson "github.com/parleyhq/parley/json"
	"github.com/parleyhq/parley/retry"
	"github.com/parleyhq/parley/session"
)

// runChat wires the full client together and runs the TUI until exit.
func runChat(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log, closeLog, err := openLogger()
	if err != nil {
		return err
	}
	defer closeLog()

	authStore, err := newAuthStore()
	if err != nil {
		return err
	}

	client := backend.New(cfg.Backend.URL, authStore,
		backend.WithLogger(log),
		backend.WithHandshakeTimeouts(cfg.Backend.HealthTimeout(), cfg.Backend.InitTimeout()),
		backend.WithUnauthorizedHook(func(ctx context.Context) {
			// Drop the rejected credential so the next attempt prompts a
			// fresh login instead of replaying a stale token.
			if err := authStore.Logout(ctx); err != nil {
				log.Warn("drop rejected credential", "error", err)
			}
		}),
	)

	store := parley.NewStore(parley.NewState())
	mgr := session.New(store, client, authStore,
		session.WithLogger(log),
		session.WithPolicy(newPolicy(cfg.Retry)),
		session.WithStreamTimeout(cfg.Backend.StreamTimeout()),
	)
	defer mgr.Close()

	model := bt.New(store, mgr, themeFromConfig(cfg.UI.Theme))
	mgr.Connect(ctx)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return bt.Run(ctx, model)
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("TUI: %w", err)
	}

	return saveTranscript(cfg, store.State(), log)
}

// newPolicy maps the retry config onto the recovery policy, keeping policy
// defaults for unset values.
func newPolicy(rc config.RetryConfig) *retry.Policy {
	p := retry.NewPolicy()
	if rc.MaxAttempts > 0 {
		p.MaxAttempts = rc.MaxAttempts
	}
	if rc.BreakerThreshold > 0 {
		p.BreakerThreshold = rc.BreakerThreshold
	}
	if rc.BreakerCooldownSecs > 0 {
		p.BreakerCooldown = rc.BreakerCooldown()
	}
	if rc.InitialDelayMillis > 0 {
		p.InitialDelay = rc.InitialDelay()
	}
	if rc.MaxDelaySecs > 0 {
		p.MaxDelay = rc.MaxDelay()
	}
	return p
}

func themeFromConfig(tc config.ThemeConfig) parley.Theme {
	return parley.Theme{
		UserMsg:   tc.UserMsg,
		Streaming: tc.Streaming,
		Thinking:  tc.Thinking,
		Error:     tc.Error,
		Success:   tc.Success,
		Muted:     tc.Muted,
		CodeBg:    tc.CodeBg,
		Accent:    tc.Accent,
	}
}

// openLogger writes structured logs to ~/.parley/parley.log; stderr is
// owned by the TUI.
func openLogger() (*slog.Logger, func(), error) {
	dir, err := config.Dir()
	if err != nil {
		return nil, nil, err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, nil, fmt.Errorf("create state dir: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, "parley.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	log := slog.New(slog.NewTextHandler(f, nil))
	return log, func() { f.Close() }, nil
}

// saveTranscript persists the session's transcript on exit. An empty
// transcript is not saved.
func saveTranscript(cfg config.Config, s parley.State, log *slog.Logger) error {
	if len(s.Entries) == 0 {
		return nil
	}
	dir, err := transcriptDir(cfg)
	if err != nil {
		return err
	}

	now := time.Now()
	tr := parley.Transcript{
		ID:      uuid.NewString(),
		Mode:    s.Mode,
		SavedAt: now,
		Entries: s.Entries,
	}
	path := filepath.Join(dir, now.Format("20060102-150405")+".json")
	if err := pjson.Save(path, tr); err != nil {
		return fmt.Errorf("save transcript: %w", err)
	}
	log.Info("transcript saved", "path", path, "entries", len(tr.Entries))
	fmt.Fprintf(os.Stderr, "Transcript saved to %s\n", path)
	return nil
}
