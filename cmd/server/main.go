package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/lessonslice/internal/api"
	"github.com/dgallion1/lessonslice/internal/config"
	"github.com/dgallion1/lessonslice/internal/export"
	"github.com/dgallion1/lessonslice/internal/logging"
	"github.com/dgallion1/lessonslice/internal/pathstore"
	"github.com/dgallion1/lessonslice/internal/pipeline"
	"github.com/dgallion1/lessonslice/internal/session"
	"github.com/dgallion1/lessonslice/internal/stats"
)

func main() {
	cfg := config.Load()
	log := logging.New(os.Stdout, true, logging.ParseLevel(cfg.LogLevel))

	if err := cfg.ValidateServer(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize the export sink.
	var sink export.Sink = export.DirSink{Dir: cfg.OutputDir}
	var ps *pathstore.Client
	if cfg.ExportSink == config.SinkPathstore {
		ps = pathstore.NewClient(cfg.PathstoreURL, cfg.PathstoreAPIKey)
		sink = export.PathstoreSink{Client: ps, Prefix: cfg.PathstorePrefix}
	}

	// Initialize pipeline and sessions.
	st := stats.NewWindow(cfg.StatsWindow)
	orch := pipeline.NewOrchestrator(cfg, sink, st, log)
	orch.Start(ctx)

	sessions := session.NewStore(cfg.SessionTTL)
	go sessions.Run(ctx, 5*time.Minute)

	// Initialize HTTP server.
	srv := api.NewServer(orch, sessions, ps, st, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		orch.Stop()
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		if ps != nil {
			ps.Close()
		}
	}()

	log.Info("starting lessonslice", "port", cfg.Port, "sink", cfg.ExportSink)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
