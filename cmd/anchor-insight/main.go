// Package main provides the entry point for the anchor-insight server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	insightserver "github.com/anchor-insight/anchor-insight/internal/server"
	"github.com/anchor-insight/anchor-insight/pkg/platform"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type serverOptions struct {
	configPath  string
	address     string
	showVersion bool
}

func parseFlags() serverOptions {
	opts := serverOptions{}
	flag.StringVar(&opts.configPath, "config", "", "Path to configuration file")
	flag.StringVar(&opts.address, "address", "", "Listen address, overrides config")
	flag.BoolVar(&opts.showVersion, "version", false, "Show version and exit")
	flag.Parse()
	return opts
}

func setupSignalHandler() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()
	return ctx
}

func loadConfig(opts serverOptions) (*platform.Config, error) {
	if opts.configPath == "" {
		cfg := platform.DefaultConfig()
		// Without a config file there is nothing to authenticate against.
		cfg.Auth.AllowAnonymous = true
		return cfg, nil
	}
	return platform.LoadConfig(opts.configPath)
}

func applyOverrides(cfg *platform.Config, opts serverOptions) {
	if opts.address != "" {
		cfg.Server.Address = opts.address
	}
}

func run() error {
	opts := parseFlags()

	if opts.showVersion {
		fmt.Printf("anchor-insight version %s (commit %s, built %s)\n",
			insightserver.Version, insightserver.Commit, insightserver.Date)
		return nil
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	applyOverrides(cfg, opts)

	srv, err := insightserver.New(cfg)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	defer func() {
		if err := srv.Close(); err != nil {
			slog.Error("main: closing server", "error", err)
		}
	}()

	ctx := setupSignalHandler()
	return srv.Run(ctx)
}
