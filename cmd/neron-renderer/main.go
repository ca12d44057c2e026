// Command neron-renderer is the render surface spawned by neron. It speaks the
// bridge protocol on stdin/stdout and serves the 3D viewer on localhost.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"neron/assets"
	"neron/internal/bridge"
	"neron/internal/logger"
	"neron/internal/logger/console"
	"neron/internal/renderer"
)

func main() {
	addr := pflag.String("addr", renderer.DefaultAddr, "listen address for the viewer page")
	debug := pflag.Bool("debug", false, "enable debug logging")
	pflag.Parse()

	// stdout carries the protocol, so logs go to stderr only
	log := logger.New(console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug:  *debug,
		Prefix: "renderer",
		Output: os.Stderr,
	}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn := bridge.NewStreamConn(os.Stdin, os.Stdout)
	defer conn.Close()

	srv := renderer.New(conn, renderer.Options{
		Addr:   *addr,
		Page:   assets.Viewer,
		Logger: log,
	})
	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("renderer stopped", "err", err)
		os.Exit(1)
	}
}
