package cli

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/magabrotheeeer/elearning-platform/internal/grpc/client"
	"github.com/magabrotheeeer/elearning-platform/internal/grpc/server"
	"github.com/magabrotheeeer/elearning-platform/internal/migrations"
	"github.com/magabrotheeeer/elearning-platform/internal/seed"
	"github.com/magabrotheeeer/elearning-platform/internal/storage/repository"
)

func newMigrateCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: withStorage(o, func(_ context.Context, db *repository.Storage) error {
			if err := migrations.Run(db.DB, o.migrationsPath); err != nil {
				return err
			}
			o.printf("migrations applied\n")
			return nil
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back all migrations",
		RunE: withStorage(o, func(_ context.Context, db *repository.Storage) error {
			if err := migrations.Down(db.DB, o.migrationsPath); err != nil {
				return err
			}
			o.printf("migrations rolled back\n")
			return nil
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print current schema version",
		RunE: withStorage(o, func(_ context.Context, db *repository.Storage) error {
			version, dirty, err := migrations.Version(db.DB, o.migrationsPath)
			if err != nil {
				return err
			}
			o.printf("version %d (dirty: %t)\n", version, dirty)
			return nil
		}),
	})

	return cmd
}

func newSeedCmd(o *options) *cobra.Command {
	var (
		email    string
		password string
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the default admin and demo catalog",
		RunE: withStorage(o, func(ctx context.Context, db *repository.Storage) error {
			s := seed.New(db, o.logger())
			if _, err := s.Admin(ctx, email, "Admin", password, false); err != nil {
				return err
			}
			if err := s.Demo(ctx); err != nil {
				return err
			}
			o.printf("database seeding complete\n")
			return nil
		}),
	}
	cmd.Flags().StringVar(&email, "admin-email", "admin@example.com", "admin email")
	cmd.Flags().StringVar(&password, "admin-password", "Admin123", "admin password for a newly created account")
	return cmd
}

func newCreateAdminCmd(o *options) *cobra.Command {
	var (
		email         string
		name          string
		password      string
		resetPassword bool
	)
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin or promote an existing user",
		RunE: withStorage(o, func(ctx context.Context, db *repository.Storage) error {
			if len(password) < 6 {
				return errors.New("password must be at least 6 characters")
			}
			u, err := seed.New(db, o.logger()).Admin(ctx, email, name, password, resetPassword)
			if err != nil {
				return err
			}
			o.printf("admin %s (%s)\n", u.Email, u.ID)
			return nil
		}),
	}
	cmd.Flags().StringVar(&email, "email", "", "admin email")
	cmd.Flags().StringVar(&name, "name", "Admin", "admin display name")
	cmd.Flags().StringVar(&password, "password", "", "admin password")
	cmd.Flags().BoolVar(&resetPassword, "reset-password", false, "overwrite the password of an existing user")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newHealthCmd(o *options) *cobra.Command {
	var (
		addr    string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Query the gRPC health endpoint of platform-api",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := client.NewHealthClient(addr)
			if err != nil {
				return err
			}
			defer c.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			status, err := c.Check(ctx, server.ServiceName)
			if err != nil {
				return err
			}
			o.printf("%s\n", status)
			if status != "SERVING" {
				return errors.New("service is not serving")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "localhost:50051", "gRPC health address")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "request timeout")
	return cmd
}
