package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/exemplar/internal/config"
	"github.com/felixgeelhaar/exemplar/internal/daemon"
	"github.com/felixgeelhaar/exemplar/internal/generator"
	mcpserver "github.com/felixgeelhaar/exemplar/internal/mcp"
)

// cmdMCP starts the MCP server on stdio. It opens the same store as the
// daemon so fixture sets are shared.
func cmdMCP() error {
	cfg, err := config.LoadLocalConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// stdout carries the protocol; keep logs off it
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	services, err := daemon.OpenServices(ctx, cfg, "")
	if err != nil {
		return err
	}
	defer services.Close()

	srv := mcpserver.NewServer(mcpserver.Config{
		Engine:    services.Engine,
		Fixtures:  services.Fixtures,
		Generator: generatorIfAny(services),
		Version:   Version,
	})

	if err := srv.ServeStdio(ctx); err != nil && ctx.Err() == nil {
		fmt.Fprintf(os.Stderr, "mcp server stopped: %v\n", err)
		return err
	}
	return nil
}

// generatorIfAny hides the generator when no provider is registered so
// the tools report that clearly instead of failing per request
func generatorIfAny(s *daemon.Services) generator.GeneratorService {
	if len(s.Registry.List()) == 0 {
		return nil
	}
	return s.Generator
}
