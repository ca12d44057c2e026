// Command neron explores a knowledge graph: an interactive TUI backed by a
// browser renderer, plus plain console commands for scripting.
//
//	neron [flags]                   interactive explorer (default)
//	neron print [name] [flags]      type summary, or one node's detail
//	neron check [flags]             dataset diagnostics
//	neron seed --to neo4j|duckdb [path] [flags]
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"neron/internal/bridge"
	"neron/internal/config"
	"neron/internal/database"
	"neron/internal/detail"
	"neron/internal/engine"
	"neron/internal/logger"
	"neron/internal/logger/console"
	"neron/internal/output"
	"neron/internal/theme"
	plain "neron/ui/console"
	"neron/ui/tui"
)

func main() {
	cfg, args, err := config.Load("neron", os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "neron: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := "tui"
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "tui":
		err = runTUI(ctx, cfg)
	case "print":
		err = runPrint(ctx, cfg, args, os.Stdout)
	case "check":
		err = runCheck(ctx, cfg, os.Stdout)
	case "seed":
		err = runSeed(ctx, cfg, args)
	default:
		err = fmt.Errorf("unknown command %q (want tui, print, check or seed)", cmd)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "neron: %v\n", err)
		os.Exit(1)
	}
}

func stderrLogger(cfg config.Config) *logger.Logger {
	return logger.New(console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug:  cfg.Debug,
		Prefix: "neron",
	}))
}

func runTUI(ctx context.Context, cfg config.Config) error {
	// the TUI owns the terminal, so logs go to a file and the console page
	logFile, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()

	ring := logger.NewRing(cfg.MaxConsoleLogs)
	log := logger.New(
		console.NewConsoleLogger(console.ConsoleLoggerParams{
			Debug:  cfg.Debug,
			Prefix: "neron",
			Output: logFile,
		}),
		ring,
	)

	src, err := database.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer src.Close()
	log.Info("dataset source", "source", src.Name)

	themes := theme.NewStore(cfg.Theme)
	host := bridge.NewHost(bridge.Options{
		Resolver: bridge.ExecResolver{Name: cfg.RendererPath},
		Launcher: bridge.ProcessLauncher{
			Args:   []string{"--addr", cfg.RendererAddr, "--debug=" + fmt.Sprint(cfg.Debug)},
			Stderr: logFile,
		},
		Themes:           themes,
		Logger:           log,
		AssetTimeout:     cfg.AssetTimeout,
		HandshakeTimeout: cfg.HandshakeTimeout,
	})

	return tui.Start(ctx, tui.Options{
		Loader: src.Loader,
		Source: src.Name,
		Host:   host,
		Themes: themes,
		Ring:   ring,
		Logger: log,
		Watch:  cfg.Watch,
	})
}

func loadPayload(ctx context.Context, cfg config.Config) (*output.PipelinePayload, string, error) {
	src, err := database.Open(ctx, cfg)
	if err != nil {
		return nil, "", fmt.Errorf("open source: %w", err)
	}
	defer src.Close()

	payload, err := output.RunPipeline(ctx, src.Loader, theme.MustGet(cfg.Theme))
	if err != nil {
		return nil, "", err
	}
	return payload, src.Name, nil
}

func runPrint(ctx context.Context, cfg config.Config, args []string, w io.Writer) error {
	payload, name, err := loadPayload(ctx, cfg)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		plain.Print(w, name, payload.Summary)
		return nil
	}

	node, ok := payload.Graph.Node(args[0])
	if !ok {
		return fmt.Errorf("no entity named %q", args[0])
	}
	plain.PrintDetail(w, detail.Compute(detail.NewIndex(payload.Dataset), node))
	return nil
}

func runCheck(ctx context.Context, cfg config.Config, w io.Writer) error {
	payload, _, err := loadPayload(ctx, cfg)
	if err != nil {
		return err
	}
	plain.PrintChecks(w, payload.Summary.Checks)
	if engine.Worst(payload.Checks) == engine.StatusCritical {
		return errors.New("dataset has critical findings")
	}
	return nil
}

func runSeed(ctx context.Context, cfg config.Config, args []string) error {
	log := stderrLogger(cfg)

	var from database.Loader
	if len(args) > 0 {
		from = database.FileLoader{Path: args[0]}
	} else {
		src, err := database.Open(ctx, cfg)
		if err != nil {
			return fmt.Errorf("open source: %w", err)
		}
		defer src.Close()
		from = src.Loader
	}

	var (
		dst *database.Source
		err error
	)
	switch cfg.SeedTarget {
	case config.SourceNeo4j:
		dst, err = database.OpenNeo4j(cfg)
	case config.SourceDuckDB:
		dst, err = database.OpenDuckDB(ctx, cfg.DuckDBPath)
	default:
		return errors.New("seed needs --to neo4j or --to duckdb")
	}
	if err != nil {
		return err
	}
	defer dst.Close()

	res, err := database.Seed(ctx, from, dst.Importer)
	if err != nil {
		return err
	}
	log.Info("seeded", "store", dst.Name, "entities", res.Entities, "relations", res.Relations, "skipped", res.Skipped)
	if res.Skipped > 0 {
		log.Warn("relations with unknown endpoints were not imported", "count", res.Skipped)
	}
	return nil
}
