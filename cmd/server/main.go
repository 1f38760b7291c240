package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/agenthands/linkgraph/internal/app"
	"github.com/agenthands/linkgraph/internal/platform/logger"
	"github.com/agenthands/linkgraph/internal/server"
)

func main() {
	cfg, err := app.LoadConfig("")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zl, err := logger.New(cfg.Log.Mode)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zl.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	srv := server.NewServer(nil, zl)
	a, err := app.New(ctx, cfg, zl, srv)
	if err != nil {
		zl.Fatal("failed to initialize", "error", err)
	}
	defer a.Close(context.Background())
	srv.Runner = a.Pipeline
	srv.BaseContext = ctx
	if a.Store != nil {
		srv.Pages = a.Store
	}

	if err := server.ListenAndServe(ctx, srv.SetupRouter(), ":"+cfg.Server.Port, zl); err != nil {
		zl.Error("server stopped", "error", err)
	}
}
