// Command neron-mcp serves the configured knowledge graph over MCP on stdio.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"neron/internal/config"
	"neron/internal/database"
	"neron/internal/database/rag"
	"neron/internal/logger"
	"neron/internal/logger/console"
	"neron/internal/mcpserver"
)

const version = "0.3.0"

func main() {
	cfg, _, err := config.Load("neron-mcp", os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "neron-mcp: %v\n", err)
		os.Exit(2)
	}

	// stdout carries the protocol
	log := logger.New(console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug:  cfg.Debug,
		Prefix: "neron-mcp",
		Output: os.Stderr,
	}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *logger.Logger) error {
	src, err := database.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer src.Close()
	log.Info("dataset source", "source", src.Name)

	deps := mcpserver.Deps{
		Loader:  src.Loader,
		GraphDB: src.Graph,
		Tables:  src.Tables,
		Logger:  log,
	}

	gemini, err := rag.NewClient(ctx, cfg.GeminiAPIKey)
	switch {
	case errors.Is(err, rag.ErrNoAPIKey):
		log.Warn("ask_graph disabled", "reason", err)
	case err != nil:
		return fmt.Errorf("failed to create gemini client: %w", err)
	default:
		defer gemini.Close()
		engine := rag.NewEngine(gemini, src.Graph, cfg.GeminiModel, log)
		log.Info("using Gemini model", "model", engine.Model())
		deps.Asker = engine
	}

	server, err := mcpserver.NewServer(mcpserver.Config{
		ServerName:    "neron",
		ServerVersion: version,
		Theme:         cfg.Theme,
	}, deps)
	if err != nil {
		return err
	}
	return server.Start(ctx)
}
