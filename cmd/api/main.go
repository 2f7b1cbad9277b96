package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"resourcedesk/internal/actionlog"
	"resourcedesk/internal/httpapi"
	"resourcedesk/internal/metrics"
	"resourcedesk/internal/queue"
	"resourcedesk/pkg/backend"
	"resourcedesk/pkg/config"
	"resourcedesk/pkg/db"
	"resourcedesk/pkg/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("config")
	}
	log := logging.New(cfg.LogLevel, cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var actions actionlog.Recorder = actionlog.NewMemory()
	if cfg.HasDatabase() {
		conn, err := db.Open(ctx, cfg)
		if err != nil {
			log.WithError(err).Fatal("db open")
		}
		defer conn.Close()

		if cfg.MigrationsPath != "" {
			if err := db.MigrateConfig(cfg.MigrationsPath, cfg); err != nil {
				log.WithError(err).Fatal("migrate")
			}
		}
		actions = actionlog.NewRepository(conn)
	} else {
		log.Warn("no database configured, console action log kept in memory")
	}

	client := backend.New(cfg.Backend.URL, cfg.Backend.Token, cfg.Backend.Timeout)
	client.Observe = metrics.ObserveBackend

	var watcher *queue.Watcher
	if cfg.Queue.Enabled {
		watcher = queue.NewWatcher(client, cfg.Queue.PageSize, log)
		if err := watcher.Start(ctx, cfg.Queue.Schedule); err != nil {
			log.WithError(err).Fatal("queue watcher")
		}
	}

	router := httpapi.NewRouter(httpapi.Dependencies{
		Cfg:       cfg,
		Log:       log,
		Backend:   client,
		ActionLog: actions,
		Queue:     watcher,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithFields(logrus.Fields{"addr": cfg.HTTPAddr, "backend": cfg.Backend.URL}).Info("http listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("http serve")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if watcher != nil {
		watcher.Stop(shutdownCtx)
	}
	_ = srv.Shutdown(shutdownCtx)
	log.Info("shutdown complete")
}
