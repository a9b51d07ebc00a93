// FILE: cmd/repctl/main.go

// Package main implements repctl, an offline tool that imports, exports,
// summarizes and backs up repertoires straight from the SQLite store.
// Run it while the server is stopped.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"repertoire/internal/config"
	"repertoire/internal/logging"
	"repertoire/internal/service"
)

const shutdownTimeout = 5 * time.Second

// options are shared by every subcommand
type options struct {
	configPath string
	dbPath     string
	backupDir  string
	logLevel   string
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "repctl",
		Short:         "Offline repertoire maintenance",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Path to YAML config file")
	flags.StringVar(&opts.dbPath, "db", "", "SQLite database, overrides storage.path")
	flags.StringVar(&opts.backupDir, "backup-dir", "", "Backup directory, overrides backup.dir")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "Log level: debug, info, warn, error")

	root.AddCommand(
		newImportCmd(opts),
		newExportCmd(opts),
		newRestoreCmd(opts),
		newStatsCmd(opts),
		newBackupCmd(opts),
	)
	return root
}

// open loads configuration, applies flag overrides and opens the service.
// Callers must Shutdown the result.
func (o *options) open(cmd *cobra.Command) (*service.Service, config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, config.Config{}, err
	}
	if cmd.Flags().Changed("db") {
		cfg.Storage.Path = o.dbPath
	}
	if cmd.Flags().Changed("backup-dir") {
		cfg.Backup.Dir = o.backupDir
	}
	if cfg.Storage.Path == "" && cfg.Backup.Dir == "" {
		return nil, config.Config{}, fmt.Errorf("no storage: set --db, --backup-dir or a config file")
	}

	log, err := logging.New(o.logLevel, true)
	if err != nil {
		return nil, config.Config{}, err
	}
	svc, err := service.Open(cfg, nil, log.Named("repctl"))
	if err != nil {
		return nil, config.Config{}, err
	}
	return svc, cfg, nil
}

// withService runs fn against an opened service and always shuts it down
func (o *options) withService(cmd *cobra.Command, fn func(*service.Service, config.Config) error) error {
	svc, cfg, err := o.open(cmd)
	if err != nil {
		return err
	}
	return errors.Join(fn(svc, cfg), svc.Shutdown(shutdownTimeout))
}
