package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"walletclinic/internal/report"
)

func runSummary(cmd *cobra.Command, args []string) error {
	return runOne(cmd, func(ctx context.Context, a *app, opts report.Options) (any, error) {
		return a.builder.Summary(ctx, args[0], opts)
	})
}

func runDetails(cmd *cobra.Command, args []string) error {
	return runOne(cmd, func(ctx context.Context, a *app, opts report.Options) (any, error) {
		return a.builder.Details(ctx, args[0], opts)
	})
}

func runOne(cmd *cobra.Command, build func(context.Context, *app, report.Options) (any, error)) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	diag, _ := cmd.Flags().GetBool("diag")
	result, err := build(ctx, a, report.Options{Diagnostics: diag})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
