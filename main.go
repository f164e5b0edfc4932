package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/tomikazi/play9/config"
	"github.com/tomikazi/play9/httpapi"
	"github.com/tomikazi/play9/leaderboard"
	"github.com/tomikazi/play9/loghandler"
	"github.com/tomikazi/play9/registry"
	"github.com/tomikazi/play9/ws"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Print("No .env file found; using environment variables.")
	}

	cfg := config.Load()
	logger := slog.New(loghandler.NewCompactHandler(os.Stdout, slog.LevelInfo))

	logger.Info("configuration loaded", "tag", "main",
		"listen_addr", cfg.ListenAddr, "listen_port", cfg.ListenPort,
		"snapshot_dir", cfg.SnapshotDir, "idle_turn_timeout_sec", cfg.IdleTurnTimeoutSec,
		"restart_vote_timeout_sec", cfg.RestartVoteTimeoutSec, "spectator_idle_sec", cfg.SpectatorIdleSec)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	board, err := leaderboard.NewStore(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		log.Fatalf("failed to connect to leaderboard database: %v", err)
	}
	if board != nil {
		defer board.Close()
		logger.Info("leaderboard store connected", "tag", "main")
	} else {
		logger.Info("leaderboard store disabled (DATABASE_URL unset)", "tag", "main")
	}

	hub := ws.NewHub(logger)
	reg := registry.New(cfg, hub, board, logger)
	hub.SetRegistry(reg)

	reg.Restore(ctx)

	mux := http.NewServeMux()
	httpapi.NewServer(reg, hub, board, logger).Register(mux)

	addr := fmt.Sprintf("%s:%d", cfg.ListenAddr, cfg.ListenPort)
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		logger.Info("shutdown signal received", "tag", "main")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("play9 server listening", "tag", "main", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}
