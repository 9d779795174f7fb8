// Package batch exports reports for a list of addresses or names to JSONL,
// resuming from a checkpoint.
package batch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"walletclinic/internal/model"
	"walletclinic/internal/report"
	"walletclinic/internal/storage"
)

// Summarizer builds one report.
type Summarizer interface {
	Summary(ctx context.Context, input string, opts report.Options) (model.SummaryReport, error)
}

// RunConfig holds runtime settings for the exporter.
type RunConfig struct {
	Inputs            []string
	BatchSize         int
	CheckpointPath    string
	CheckpointEnabled bool
	MaxRetries        int
	RetryBackoff      time.Duration
	Diagnostics       bool
}

// Runner walks the inputs in batches and writes reports to storage.
type Runner struct {
	cfg        RunConfig
	reports    Summarizer
	storage    storage.ReportSink
	logger     *zap.Logger
	checkpoint *CheckpointStore
	now        func() time.Time
}

// Stats summarizes one run.
type Stats struct {
	Skipped  int
	Reported int
	Failed   int
}

// NewRunner builds a Runner with its dependencies.
func NewRunner(cfg RunConfig, reports Summarizer, sink storage.ReportSink, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		cfg:        cfg,
		reports:    reports,
		storage:    sink,
		logger:     logger,
		checkpoint: NewCheckpointStore(cfg.CheckpointPath, cfg.CheckpointEnabled),
		now:        time.Now,
	}
}

// Run executes the export loop. Inputs that keep failing are written as
// failures and do not stop the run; storage errors do.
func (r *Runner) Run(ctx context.Context) (Stats, error) {
	var stats Stats
	if r.reports == nil {
		return stats, fmt.Errorf("report builder is nil")
	}
	if r.storage == nil {
		return stats, fmt.Errorf("storage is nil")
	}
	if r.cfg.BatchSize <= 0 {
		return stats, fmt.Errorf("batch size must be greater than zero")
	}
	if len(r.cfg.Inputs) == 0 {
		return stats, fmt.Errorf("at least one address is required")
	}

	inputHash := hashInputs(r.cfg.Inputs)
	from := 0
	cp, ok, err := r.checkpoint.Load()
	if err != nil {
		return stats, err
	}
	if ok {
		if cp.InputHash == inputHash {
			from = cp.NextIndex
			r.logger.Info("resume from checkpoint", zap.Int("next_index", from))
		} else {
			r.logger.Warn("checkpoint belongs to a different input list; starting over")
		}
	}
	stats.Skipped = from

	last := len(r.cfg.Inputs) - 1
	if from > last {
		r.logger.Info("nothing to export", zap.Int("inputs", len(r.cfg.Inputs)))
		return stats, nil
	}

	ranges, err := SplitRange(from, last, r.cfg.BatchSize)
	if err != nil {
		return stats, err
	}

	for _, chunk := range ranges {
		reports := make([]model.SummaryReport, 0, chunk.To-chunk.From+1)
		var failures []model.BatchFailure
		for i := chunk.From; i <= chunk.To; i++ {
			if err := ctx.Err(); err != nil {
				return stats, err
			}
			input := r.cfg.Inputs[i]
			var rep model.SummaryReport
			err := withRetry(ctx, r.cfg.MaxRetries, r.cfg.RetryBackoff, func(ctx context.Context) error {
				var err error
				rep, err = r.reports.Summary(ctx, input, report.Options{Diagnostics: r.cfg.Diagnostics})
				return err
			})
			if err != nil {
				if ctx.Err() != nil {
					return stats, ctx.Err()
				}
				r.logger.Warn("report failed", zap.Int("index", i), zap.String("input", input), zap.Error(err))
				failures = append(failures, model.BatchFailure{
					Index:   i,
					Input:   input,
					Invalid: errors.Is(err, report.ErrInvalidInput),
					Error:   err.Error(),
					At:      r.now().UTC().Format(time.RFC3339),
				})
				continue
			}
			reports = append(reports, rep)
		}

		if err := r.storage.PutReports(reports); err != nil {
			return stats, fmt.Errorf("store reports: %w", err)
		}
		if err := r.storage.PutFailures(failures); err != nil {
			return stats, fmt.Errorf("store failures: %w", err)
		}
		if err := r.checkpoint.Save(chunk.To+1, inputHash); err != nil {
			return stats, err
		}

		stats.Reported += len(reports)
		stats.Failed += len(failures)
		r.logger.Info("batch complete",
			zap.Int("from", chunk.From),
			zap.Int("to", chunk.To),
			zap.Int("reports", len(reports)),
			zap.Int("failures", len(failures)),
		)
	}

	return stats, nil
}

func hashInputs(inputs []string) string {
	return crypto.Keccak256Hash([]byte(strings.Join(inputs, "\n"))).Hex()
}
