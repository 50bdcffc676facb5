// Package cli команды операторской утилиты platformctl.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/magabrotheeeer/elearning-platform/internal/config"
	"github.com/magabrotheeeer/elearning-platform/internal/lib/logger"
	"github.com/magabrotheeeer/elearning-platform/internal/storage/repository"
)

type options struct {
	dsn            string
	migrationsPath string
	out            io.Writer
}

// NewRootCmd создаёт корневую команду platformctl.
func NewRootCmd() *cobra.Command {
	opts := &options{out: os.Stdout}

	root := &cobra.Command{
		Use:           "platformctl",
		Short:         "Operator tool for the e-learning platform",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.dsn, "dsn", "", "PostgreSQL connection string (defaults to DATABASE_URL from config)")
	root.PersistentFlags().StringVar(&opts.migrationsPath, "migrations", "", "path to migrations directory (defaults to MIGRATIONS_PATH from config)")

	root.AddCommand(newMigrateCmd(opts))
	root.AddCommand(newSeedCmd(opts))
	root.AddCommand(newCreateAdminCmd(opts))
	root.AddCommand(newHealthCmd(opts))

	return root
}

// resolve дополняет флаги значениями из конфига, если они не заданы.
func (o *options) resolve() error {
	if o.dsn != "" && o.migrationsPath != "" {
		return nil
	}
	if o.dsn == "" {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		o.dsn = cfg.StorageConnectionString
		if o.migrationsPath == "" {
			o.migrationsPath = cfg.MigrationsPath
		}
	}
	if o.migrationsPath == "" {
		o.migrationsPath = "./migrations"
	}
	return nil
}

func (o *options) open() (*repository.Storage, error) {
	if err := o.resolve(); err != nil {
		return nil, err
	}
	return repository.New(o.dsn)
}

func (o *options) logger() *slog.Logger {
	return logger.New("local", o.out)
}

func (o *options) printf(format string, args ...any) {
	fmt.Fprintf(o.out, format, args...)
}

func withStorage(o *options, fn func(ctx context.Context, db *repository.Storage) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		db, err := o.open()
		if err != nil {
			return err
		}
		defer db.Close()
		return fn(cmd.Context(), db)
	}
}
