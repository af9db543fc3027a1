package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/udisondev/chessd/internal/config"
	"github.com/udisondev/chessd/internal/server"
	"github.com/udisondev/chessd/internal/store"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx, os.Args[1:]); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	// Configure slog
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: config.LogLevel(),
	})))

	slog.Info("chess server starting")

	// Load config, then let positional args override the bind address:
	// chessserver [host [port]]
	cfg, err := config.LoadServer(config.Path())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if len(args) > 0 {
		cfg.BindAddress = args[0]
	}
	if len(args) > 1 {
		port, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid port %q: %w", args[1], err)
		}
		cfg.Port = port
	}
	slog.Info("config loaded", "bind", cfg.BindAddress, "port", cfg.Port, "database", cfg.Database.Enabled)

	st, err := newStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	srv := server.NewServer(cfg, st)
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("chess server: %w", err)
	}
	return nil
}

// newStore picks the username backend: PostgreSQL when configured, the
// append-only file otherwise.
func newStore(ctx context.Context, cfg config.Server) (store.Store, error) {
	if cfg.Database.Enabled {
		if err := store.RunMigrations(ctx, cfg.Database.DSN()); err != nil {
			return nil, fmt.Errorf("running migrations: %w", err)
		}
		st, err := store.NewPostgresStore(ctx, cfg.Database.DSN())
		if err != nil {
			return nil, fmt.Errorf("connecting to database: %w", err)
		}
		slog.Info("database connected")
		return st, nil
	}

	st, err := store.NewFileStore(cfg.UserFile)
	if err != nil {
		return nil, fmt.Errorf("opening username file: %w", err)
	}
	slog.Info("username file opened", "path", cfg.UserFile)
	return st, nil
}
