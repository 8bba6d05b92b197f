package main

import (
	"encoding/json"
	"fmt"

	"github.com/invoicely/backend/internal/infrastructure/cache"
	"github.com/invoicely/backend/internal/infrastructure/scheduler"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run background sweeps",
}

var sweepRunCmd = &cobra.Command{
	Use:   "run <recurring|overdue>",
	Short: "Run one sweep pass now and print its result",
	Long: `Run one pass of a background sweep synchronously.

When Redis is configured the pass takes the same distributed lock as the
server's scheduler, so it never overlaps a scheduled run.`,
	Example: `  billingctl sweep run overdue
  billingctl sweep run recurring --log-level debug`,
	Args: cobra.ExactArgs(1),
	RunE: runSweep,
}

func init() {
	sweepCmd.AddCommand(sweepRunCmd)
	rootCmd.AddCommand(sweepCmd)
}

func runSweep(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	factory := cache.NewFactory(e.cfg.Redis, cache.WithLogger(e.log))
	defer func() { _ = factory.Close() }()

	var locker scheduler.Locker
	redisLocker, err := factory.CreateLocker()
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	if redisLocker != nil {
		locker = redisLocker
	}

	manager, err := e.services.Schedulers(e.cfg.Scheduler, locker, e.log)
	if err != nil {
		return err
	}
	s, ok := manager.Get(args[0])
	if !ok {
		return fmt.Errorf("%w: %s", scheduler.ErrUnknownSweep, args[0])
	}

	result, err := s.RunOnce(cmd.Context())
	if err != nil {
		return fmt.Errorf("%s sweep: %w", args[0], err)
	}
	e.log.Info("Sweep finished",
		zap.String("sweep", result.Sweep),
		zap.Int("processed", result.Processed),
		zap.Int("failed", result.Failed),
	)

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
