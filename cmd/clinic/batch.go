package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"walletclinic/internal/batch"
	"walletclinic/internal/storage"
)

func runBatch(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	inputs := append([]string(nil), cfg.Addresses...)
	if cfg.Input != "" {
		fromFile, err := batch.ReadInputFile(cfg.Input)
		if err != nil {
			return err
		}
		inputs = append(inputs, fromFile...)
	}
	if len(inputs) == 0 {
		return fmt.Errorf("no inputs: pass --in or --address")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	diag, _ := cmd.Flags().GetBool("diag")
	runner := batch.NewRunner(batch.RunConfig{
		Inputs:            inputs,
		BatchSize:         cfg.BatchSize,
		CheckpointPath:    cfg.Checkpoint,
		CheckpointEnabled: cfg.CheckpointEnabled,
		MaxRetries:        cfg.MaxRetries,
		RetryBackoff:      cfg.RetryBackoff,
		Diagnostics:       diag,
	}, a.builder, storage.NewJsonlStorage(cfg.Out, cfg.ErrorsOut), logger.Named("batch"))

	logger.Info("batch start",
		zap.Int("inputs", len(inputs)),
		zap.Int("batch_size", cfg.BatchSize),
		zap.String("out", cfg.Out),
		zap.Bool("checkpoint_enabled", cfg.CheckpointEnabled),
		zap.String("checkpoint", cfg.Checkpoint),
	)

	stats, err := runner.Run(ctx)
	if err != nil {
		return err
	}
	logger.Info("batch done",
		zap.Int("skipped", stats.Skipped),
		zap.Int("reported", stats.Reported),
		zap.Int("failed", stats.Failed),
	)
	return nil
}
