package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/udisondev/chessd/internal/client"
	"github.com/udisondev/chessd/internal/config"
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
	// Logs go to stderr; stdout belongs to the board and the prompt.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: config.LogLevel(),
	})))

	// chessclient [host [port]], defaulting to the server's own defaults.
	cfg := config.DefaultServer()
	host := cfg.BindAddress
	port := cfg.Port
	if len(args) > 0 {
		host = args[0]
	}
	if len(args) > 1 {
		p, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid port %q: %w", args[1], err)
		}
		port = p
	}

	addr := net.JoinHostPort(host, strconv.Itoa(port))
	cl, err := client.Dial(ctx, addr, os.Stdin, os.Stdout)
	if err != nil {
		return err
	}
	return cl.Run(ctx)
}
