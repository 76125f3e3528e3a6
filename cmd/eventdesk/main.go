package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/avasquez/eventdesk/internal/api"
	"github.com/avasquez/eventdesk/internal/app"
	"github.com/avasquez/eventdesk/internal/model"
	"github.com/avasquez/eventdesk/internal/notify"
	"github.com/avasquez/eventdesk/internal/session"
	"github.com/avasquez/eventdesk/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := model.LoadConfig(model.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, closeLog, err := newLogger()
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer closeLog()
	slog.SetDefault(logger)

	dbPath := model.DefaultDataPath()
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	cache, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return fmt.Errorf("opening local cache: %w", err)
	}
	defer cache.Close()

	sess := session.NewManager(logger)

	client := api.NewClient(
		cfg.API.BaseURL,
		sess.Token,
		time.Duration(cfg.API.TimeoutSec)*time.Second,
	)

	channel := notify.NewChannel(notify.ChannelConfig{
		HubURL:               notify.HubURL(cfg.API.BaseURL),
		Token:                sess.Token,
		MaxReconnectAttempts: cfg.Notifications.ReconnectMaxAttempts,
		Logger:               logger,
	})

	controller := notify.NewController(notify.ControllerConfig{
		Store:   cache,
		Channel: channel,
		History: func(ctx context.Context, userID string) ([]json.RawMessage, error) {
			return client.UserNotifications(ctx, userID)
		},
		DedupWindow:   time.Duration(cfg.Notifications.DedupWindowMS) * time.Millisecond,
		ToastThrottle: time.Duration(cfg.Notifications.ToastThrottleMS) * time.Millisecond,
		Logger:        logger,
	})
	defer controller.Close()

	// Identity changes (login, logout, account switch) re-point the
	// notification controller without any polling.
	unsubscribe := sess.Subscribe(func(id session.Identity) {
		controller.SetIdentity(context.Background(), id.UserID)
	})
	defer unsubscribe()

	program := tea.NewProgram(
		app.New(client, sess, controller),
		tea.WithAltScreen(),
	)
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("running ui: %w", err)
	}
	return nil
}

// newLogger opens a structured log writing to a file next to the local
// cache. The terminal itself belongs to the UI.
func newLogger() (*slog.Logger, func(), error) {
	logPath := filepath.Join(filepath.Dir(model.DefaultDataPath()), "eventdesk.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return nil, nil, err
	}

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}

	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	return logger, func() { f.Close() }, nil
}
