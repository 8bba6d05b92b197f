// Command billingctl is the operator CLI for the billing service: it runs
// sweeps on demand, inspects document numbering and mints access tokens.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/invoicely/backend/internal/bootstrap"
	"github.com/invoicely/backend/internal/infrastructure/config"
	"github.com/invoicely/backend/internal/infrastructure/logger"
	"github.com/invoicely/backend/internal/infrastructure/persistence"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:           "billingctl",
	Short:         "Operate the billing service",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// env is what a command needs to reach the billing database
type env struct {
	cfg      *config.Config
	log      *zap.Logger
	db       *persistence.Database
	services *bootstrap.Services
}

func (e *env) close() {
	if e.db != nil {
		if err := e.db.Close(); err != nil {
			e.log.Warn("Error closing database", zap.Error(err))
		}
	}
	_ = logger.Sync(e.log)
}

func newLogger(cmd *cobra.Command) (*zap.Logger, error) {
	level, _ := cmd.Flags().GetString("log-level")
	return logger.New(&logger.Config{
		Level:      level,
		Format:     "console",
		Output:     "stderr",
		TimeFormat: "2006-01-02 15:04:05",
	})
}

// openEnv loads the configuration and connects to the database
func openEnv(cmd *cobra.Command) (*env, error) {
	log, err := newLogger(cmd)
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	db, err := persistence.Open(&cfg.Database, persistence.WithQueryLogger(log, "warn", cfg.Telemetry.DBSlowQueryThresh))
	if err != nil {
		return nil, err
	}
	services, err := bootstrap.NewServices(db.DB, cfg.Billing, cfg.Scheduler, log)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &env{cfg: cfg, log: log, db: db, services: services}, nil
}
