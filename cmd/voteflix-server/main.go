// Copyright 2025 VoteFlix Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mauricegss/VoteFlix/config"
	"github.com/mauricegss/VoteFlix/protocol"
	"github.com/mauricegss/VoteFlix/server"
	"github.com/mauricegss/VoteFlix/store"
	"github.com/mauricegss/VoteFlix/token"
)

// activeUserLog is the console stand-in for the active-user display:
// an Observer writing connect/login/disconnect events to the log.
type activeUserLog struct {
	logger *slog.Logger
}

func (a *activeUserLog) ClientConnected(label string) {
	a.logger.Info("Active clients: connected", "client", label)
}

func (a *activeUserLog) UserAuthenticated(label string) {
	a.logger.Info("Active clients: authenticated", "client", label)
}

func (a *activeUserLog) ClientDisconnected(label string) {
	a.logger.Info("Active clients: disconnected", "client", label)
}

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.TokenSecret == config.Default().TokenSecret {
		logger.Warn("Using default token secret - change in production!")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := store.Connect(ctx, cfg.DatabaseURL, cfg.AppName)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	st, err := store.New(ctx, pool, logger)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}

	tokens := token.NewService(cfg.TokenSecret, cfg.TokenTTL.Std())
	engine := protocol.NewEngine(st, st, st, tokens, cfg, logger)
	srv := server.New(cfg, engine, logger, &activeUserLog{logger: logger})

	// Serve until SIGINT/SIGTERM, then close every connection and drain.
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Info("Shutting down server...")
		cancel()
	}()

	if err := srv.Serve(ctx); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
	logger.Info("Server exited")
}
