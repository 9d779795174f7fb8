package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"walletclinic/internal/catalog"
	"walletclinic/internal/chain"
	"walletclinic/internal/classify"
	"walletclinic/internal/config"
	"walletclinic/internal/deploy"
	"walletclinic/internal/explorer"
	"walletclinic/internal/fetch"
	"walletclinic/internal/names"
	"walletclinic/internal/prices"
	"walletclinic/internal/report"
	"walletclinic/internal/telemetry"
)

// app owns the long-lived clients shared by every command.
type app struct {
	cfg       config.Config
	logger    *zap.Logger
	chain     *chain.Client
	reference *chain.Client
	metrics   *telemetry.Metrics
	builder   *report.Builder
}

func loadConfig(cmd *cobra.Command) (config.Config, *zap.Logger, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return config.Config{}, nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return config.Config{}, nil, err
	}
	if err := cfg.Validate(); err != nil {
		_ = logger.Sync()
		return config.Config{}, nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, logger, nil
}

func newApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (*app, error) {
	cat := catalog.Default()
	if cfg.CatalogPath != "" {
		loaded, err := catalog.Load(cfg.CatalogPath)
		if err != nil {
			return nil, err
		}
		cat = loaded
	}

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL, cfg.RPCTimeout)
	if err != nil {
		return nil, fmt.Errorf("connect rpc: %w", err)
	}
	a := &app{cfg: cfg, logger: logger, chain: chainClient, metrics: telemetry.NewMetrics()}

	var reference names.Caller
	if cfg.ReferenceRPCURL != "" {
		a.reference, err = chain.NewClient(ctx, cfg.ReferenceRPCURL, cfg.RPCTimeout)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connect reference rpc: %w", err)
		}
		reference = a.reference
	}

	retry := fetch.RetryPolicy{Attempts: cfg.RetryAttempts, BaseDelay: cfg.RetryBase, MaxJitter: cfg.RetryJitter}
	httpClient := &http.Client{}

	explorerClient := explorer.NewClient(explorer.Config{
		BaseURL:   cfg.ExplorerURL,
		APIKey:    cfg.ExplorerAPIKey,
		ChainID:   cfg.ChainID,
		Timeout:   cfg.ExplorerTimeout,
		Retry:     retry,
		PageSize:  cfg.PageSize,
		PageDelay: cfg.PageDelay,
		MaxPages:  cfg.MaxPages,
	}, httpClient, logger.Named("explorer"))

	priceClient := prices.NewClient(prices.Config{
		URL:     cfg.PriceURL,
		APIKey:  cfg.PriceAPIKey,
		Timeout: cfg.PriceTimeout,
		Retry:   retry,
	}, httpClient, logger.Named("prices"))

	resolver := names.NewResolver(names.Config{
		ChainID:           cfg.ChainID,
		Suffix:            cat.NameSuffix,
		UniversalResolver: cat.UniversalResolver,
		Registry:          cat.Registry,
		APIURL:            cfg.NameAPIURL,
		Timeout:           cfg.NameTimeout,
		Retry:             fetch.RetryPolicy{Attempts: 1},
	}, reference, chainClient, httpClient, logger.Named("names"))

	a.builder, err = report.NewBuilder(report.Deps{
		Explorer: explorerClient,
		Chain:    chainClient,
		Names:    resolver,
		Prices:   priceClient,
		Catalog:  cat,
		Observer: a.metrics,
		Logger:   logger.Named("report"),
		Fast:     profile("fast", cfg.Fast),
		Thorough: profile("thorough", cfg.Thorough),
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func profile(name string, p config.ProfileConfig) report.Profile {
	return report.Profile{
		Name:         name,
		Deploy:       deploy.Limits{TraceCap: p.TraceCap, ReceiptCap: p.ReceiptCap, Workers: p.DeployWorkers},
		Interactions: classify.InteractionLimits{Cap: p.InteractionCap, Workers: p.InteractionWorkers},
	}
}

func (a *app) Close() {
	if a.chain != nil {
		a.chain.Close()
	}
	if a.reference != nil {
		a.reference.Close()
	}
}
