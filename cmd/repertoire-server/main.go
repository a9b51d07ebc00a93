// FILE: cmd/repertoire-server/main.go

// Package main runs the repertoire trainer API server. "db" subcommands
// administer its SQLite database.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"repertoire/cmd/repertoire-server/cli"
	"repertoire/internal/config"
	apphttp "repertoire/internal/http"
	"repertoire/internal/logging"
	"repertoire/internal/metrics"
	"repertoire/internal/processor"
	"repertoire/internal/service"

	"go.uber.org/zap"
)

const gracefulShutdownTimeout = 5 * time.Second

func main() {
	if len(os.Args) > 1 && os.Args[1] == "db" {
		if err := cli.Run(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "CLI error: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "repertoire-server: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}

	log, err := logging.New(cfg.Log.Level, cfg.Log.Development || cfg.Server.Dev)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if cfg.Server.PID != "" {
		cleanup, err := managePIDFile(cfg.Server.PID, cfg.Server.PIDLock)
		if err != nil {
			return fmt.Errorf("failed to manage PID file: %w", err)
		}
		defer cleanup()
		log.Info("pid file created", zap.String("path", cfg.Server.PID), zap.Bool("lock", cfg.Server.PIDLock))
	}

	m := metrics.New()
	svc, err := service.Open(cfg, m, log)
	if err != nil {
		return err
	}

	backupCtx, backupCancel := context.WithCancel(context.Background())
	defer backupCancel()
	if cfg.Backup.Dir != "" && cfg.Backup.Interval > 0 {
		go svc.RunBackups(backupCtx, cfg.Backup.Interval)
	}

	proc := processor.New(svc)
	app := apphttp.NewFiberApp(proc, svc, m, cfg.Server.Dev, log)

	addr := cfg.Server.Addr()
	listenErr := make(chan error, 1)
	go func() {
		log.Info("repertoire server starting",
			zap.String("addr", "http://"+addr),
			zap.Bool("dev", cfg.Server.Dev),
			zap.String("storage", storageLabel(cfg.Storage.Path)),
			zap.String("backups", storageLabel(cfg.Backup.Dir)),
			zap.Bool("auth", svc.AuthEnabled()))
		listenErr <- app.Listen(addr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	var runErr error
	select {
	case <-quit:
	case err := <-listenErr:
		runErr = fmt.Errorf("listen: %w", err)
	}

	log.Info("shutting down")
	backupCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer shutdownCancel()

	// Waiters are released first so long-polls do not hold the HTTP shutdown
	if err := svc.Shutdown(gracefulShutdownTimeout); err != nil {
		log.Error("service shutdown", zap.Error(err))
	}
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Warn("server forced to shutdown", zap.Error(err))
	}

	log.Info("server exited")
	return runErr
}

// loadConfig layers command-line flags over the config file and environment
func loadConfig(args []string) (config.Config, error) {
	fs := flag.NewFlagSet("repertoire-server", flag.ContinueOnError)
	var (
		configPath  = fs.String("config", "", "Path to YAML config file")
		apiHost     = fs.String("api-host", "", "API server host")
		apiPort     = fs.Int("api-port", 0, "API server port")
		dev         = fs.Bool("dev", false, "Development mode (relaxed rate limits, console logs)")
		storagePath = fs.String("storage-path", "", "Path to SQLite database file (disables persistence if empty)")
		backupDir   = fs.String("backup-dir", "", "Directory for dated compressed snapshots (disables backups if empty)")
		pidPath     = fs.String("pid", "", "Optional path to write PID file")
		pidLock     = fs.Bool("pid-lock", false, "Lock PID file to allow only one instance (requires -pid)")
		logLevel    = fs.String("log-level", "", "Log level: debug, info, warn, error")
	)
	if err := fs.Parse(args); err != nil {
		return config.Config{}, err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return config.Config{}, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "api-host":
			cfg.Server.Host = *apiHost
		case "api-port":
			cfg.Server.Port = *apiPort
		case "dev":
			cfg.Server.Dev = *dev
		case "storage-path":
			cfg.Storage.Path = *storagePath
		case "backup-dir":
			cfg.Backup.Dir = *backupDir
		case "pid":
			cfg.Server.PID = *pidPath
		case "pid-lock":
			cfg.Server.PIDLock = *pidLock
		case "log-level":
			cfg.Log.Level = *logLevel
		}
	})

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func storageLabel(path string) string {
	if path == "" {
		return "disabled"
	}
	return path
}
