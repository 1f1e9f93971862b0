package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Zeeeepa/graph-sitter-sub004/internal/bootstrap"
	"github.com/Zeeeepa/graph-sitter-sub004/internal/config"
	"github.com/Zeeeepa/graph-sitter-sub004/internal/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	path := config.DefaultPath
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	cfg, err := config.Load(path)
	if err != nil {
		logger.New(config.LoggerConfig{Level: "info"}, "api").Error("config load error", "error", err)
		return 1
	}
	log := logger.New(cfg.Logger, "api")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, log)
	if err != nil {
		log.Error("startup error", "error", err)
		return 1
	}
	defer app.Close()

	if err := app.Serve(ctx); err != nil {
		log.Error("server stopped", "error", err)
		return 1
	}
	return 0
}
