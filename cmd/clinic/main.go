package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

func main() {
	root := &cobra.Command{
		Use:          "clinic",
		Short:        "Wallet health reports for Base",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")
	addCommonFlags(root.PersistentFlags())

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve reports over HTTP",
		RunE:  runServe,
	}
	serveCmd.Flags().String("http-addr", ":8080", "listen address")
	serveCmd.Flags().Duration("request-timeout", 60*time.Second, "ceiling for one report request")
	serveCmd.Flags().String("otlp-endpoint", "", "OTLP/HTTP trace endpoint (empty disables tracing)")
	root.AddCommand(serveCmd)

	summaryCmd := &cobra.Command{
		Use:   "summary <address-or-name>",
		Short: "Print the summary report for one wallet",
		Args:  cobra.ExactArgs(1),
		RunE:  runSummary,
	}
	summaryCmd.Flags().Bool("diag", false, "include diagnostics")
	root.AddCommand(summaryCmd)

	detailsCmd := &cobra.Command{
		Use:   "details <address-or-name>",
		Short: "Print the thorough deployment and interaction counts for one wallet",
		Args:  cobra.ExactArgs(1),
		RunE:  runDetails,
	}
	detailsCmd.Flags().Bool("diag", false, "include diagnostics")
	root.AddCommand(detailsCmd)

	batchCmd := &cobra.Command{
		Use:   "batch",
		Short: "Export reports for many wallets to JSONL",
		RunE:  runBatch,
	}
	batchCmd.Flags().String("in", "", "input file with one address or name per line")
	batchCmd.Flags().StringSlice("address", nil, "addresses or names (comma-separated)")
	batchCmd.Flags().String("out", "./data/reports.jsonl", "output JSONL path")
	batchCmd.Flags().String("errors", "./data/report_errors.jsonl", "failed inputs JSONL path")
	batchCmd.Flags().Int("batch-size", 25, "inputs per checkpointed batch")
	batchCmd.Flags().String("checkpoint", "./data/checkpoint.json", "checkpoint file path")
	batchCmd.Flags().Bool("checkpoint-enabled", true, "enable checkpointing")
	batchCmd.Flags().Int("max-retries", 3, "retries per input after the first attempt")
	batchCmd.Flags().Duration("retry-backoff", 2*time.Second, "initial retry backoff")
	batchCmd.Flags().Bool("diag", false, "include diagnostics in each report")
	root.AddCommand(batchCmd)

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("%s (%s, %s)\n", version, commit, buildTime)
		},
	}
	root.AddCommand(versionCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addCommonFlags(fs *pflag.FlagSet) {
	fs.String("log-level", "info", "log level (debug, info, warn, error)")
	fs.String("explorer-api-key", "", "Etherscan v2 API key")
	fs.String("explorer-url", "", "explorer API base URL")
	fs.String("rpc", "", "Base RPC URL")
	fs.String("reference-rpc", "", "Ethereum L1 RPC URL for the universal resolver (empty disables it)")
	fs.String("price-api-key", "", "CoinGecko API key")
	fs.String("catalog", "", "override file for the protocol and bridge catalog")
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
