package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"walletclinic/internal/httpapi"
	"walletclinic/internal/telemetry"
)

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.InitTracer(ctx, "walletclinic", cfg.OTLPEndpoint)
	if err != nil {
		logger.Warn("tracing disabled", zap.Error(err))
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracer(flushCtx)
	}()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	server, err := httpapi.NewServer(a.builder, a.chain, a.metrics, logger.Named("http"), httpapi.Options{
		RequestTimeout: cfg.RequestTimeout,
		BuildInfo:      httpapi.BuildInfo{Version: version, Commit: commit, BuildTime: buildTime},
		ChainID:        cfg.ChainID,
	})
	if err != nil {
		return err
	}

	logger.Info("clinic serve start",
		zap.String("addr", cfg.HTTPAddr),
		zap.Uint64("chain_id", cfg.ChainID),
		zap.Bool("reference_rpc", cfg.ReferenceRPCURL != ""),
		zap.Bool("tracing", cfg.OTLPEndpoint != ""),
	)
	return server.ListenAndServe(ctx, cfg.HTTPAddr)
}
