package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kestiv/internal/config"
	"kestiv/internal/db"
	"kestiv/internal/email"
	"kestiv/internal/logger"
	"kestiv/internal/membership"
	"kestiv/internal/reminder"
	"kestiv/internal/server"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

// @title Kestiv API
// @version 1.0
// @description Membership, point-of-sale and ledger API for gyms, shops and freelancers.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfg *config.Config

	root := &cobra.Command{
		Use:          "kestiv",
		Short:        "Kestiv membership and point-of-sale API",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return err
			}
			logger.Init(cfg.LogLevel)
			return nil
		},
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run migrations and start the HTTP API",
			RunE: func(cmd *cobra.Command, args []string) error {
				return serve(cfg)
			},
		},
		newMigrateCmd(func() *config.Config { return cfg }),
		&cobra.Command{
			Use:   "remind",
			Short: "Queue expiry reminders once and exit",
			RunE: func(cmd *cobra.Command, args []string) error {
				return remindOnce(cmd.Context(), cfg)
			},
		},
	)
	return root
}

func newMigrateCmd(cfg func() *config.Config) *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cfg(), func(database *sqlx.DB) error {
				if err := db.RollbackMigrations(database, cfg().MigrationsPath, steps); err != nil {
					return err
				}
				logger.Info("Migrations rolled back", "steps", steps)
				return nil
			})
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	migrateCmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDB(cfg(), func(database *sqlx.DB) error {
					if err := db.RunMigrations(database, cfg().MigrationsPath); err != nil {
						return err
					}
					logger.Info("Migrations completed")
					return nil
				})
			},
		},
		down,
	)
	return migrateCmd
}

func withDB(cfg *config.Config, fn func(*sqlx.DB) error) error {
	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()
	return fn(database)
}

func newEmailService(cfg *config.Config) *email.Service {
	return email.New(email.Config{
		From:      cfg.EmailFrom,
		FromName:  cfg.EmailFromName,
		SMTPHost:  cfg.SMTPHost,
		SMTPPort:  cfg.SMTPPort,
		SMTPUser:  cfg.SMTPUser,
		SMTPPass:  cfg.SMTPPass,
		RedisAddr: cfg.RedisAddr,
	})
}

func remindOnce(ctx context.Context, cfg *config.Config) error {
	return withDB(cfg, func(database *sqlx.DB) error {
		emailService := newEmailService(cfg)
		defer emailService.Close()

		job, err := reminder.New(membership.NewRepository(database), emailService, cfg.ReminderSchedule)
		if err != nil {
			return err
		}
		_, err = job.Run(ctx)
		return err
	})
}

func serve(cfg *config.Config) error {
	logger.Info("Starting Kestiv")
	if cfg.UsesDefaultSecret() {
		logger.Warn("JWT_SECRET is not set, using the development default")
	}

	logger.Info("Connecting to database...")
	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()
	logger.Info("Database connected")

	if err := db.RunMigrations(database, cfg.MigrationsPath); err != nil {
		return err
	}
	logger.Info("Migrations completed")

	emailService := newEmailService(cfg)
	defer emailService.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go emailService.Start(ctx)
	logger.Info("Email service initialized")

	if cfg.ReminderEnabled {
		job, err := reminder.New(membership.NewRepository(database), emailService, cfg.ReminderSchedule)
		if err != nil {
			return err
		}
		if err := job.Start(ctx); err != nil {
			return err
		}
		defer job.Stop()
	}

	srv := server.New(database, cfg, emailService)

	serverErrChan := make(chan error, 1)
	go func() {
		logger.Infof("Server starting on port %s", cfg.Port)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-sigChan:
		logger.Infof("Received signal: %v", sig)
	case runErr = <-serverErrChan:
		logger.Error("Server error", "error", runErr)
	}

	logger.Info("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during server shutdown", "error", err)
	}

	logger.Info("Server stopped")
	return runErr
}
