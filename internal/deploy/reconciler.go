// Package deploy reconciles contract-creation signals into one deployed
// contract set.
package deploy

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"walletclinic/internal/model"
	"walletclinic/internal/workpool"
)

// TraceSource returns internal call traces of a transaction.
type TraceSource interface {
	InternalCalls(ctx context.Context, txHash string) ([]model.InternalCall, error)
}

// ReceiptSource returns the receipt of a transaction.
type ReceiptSource interface {
	ReceiptContract(ctx context.Context, txHash string) (model.Receipt, error)
}

// Limits bounds how many sent transactions are inspected per signal.
type Limits struct {
	TraceCap   int
	ReceiptCap int
	Workers    int
}

// FastLimits is used by the summary endpoint.
func FastLimits() Limits {
	return Limits{TraceCap: 150, ReceiptCap: 250, Workers: 6}
}

// ThoroughLimits is used by the details endpoint.
func ThoroughLimits() Limits {
	return Limits{TraceCap: 400, ReceiptCap: 600, Workers: 6}
}

// Result is the reconciled deployment set. Counts are lower bounds when
// Sampled is true.
type Result struct {
	Addresses    []string
	Direct       []string
	Internal     []string
	Receipt      []string
	TracedHashes int
	ReceiptsRead int
	TraceErrors  int
	ReceiptErrs  int
	Sampled      bool
}

// Count returns the number of distinct deployed contracts.
func (r Result) Count() int {
	return len(r.Addresses)
}

// Reconciler combines direct, internal and receipt signals.
type Reconciler struct {
	traces   TraceSource
	receipts ReceiptSource
	logger   *zap.Logger
}

// NewReconciler builds a Reconciler. A nil source disables its signal.
func NewReconciler(traces TraceSource, receipts ReceiptSource, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{traces: traces, receipts: receipts, logger: logger}
}

// Reconcile inspects transactions sent by address. Per-hash failures only
// drop that hash's signal.
func (r *Reconciler) Reconcile(ctx context.Context, address string, txs []model.Transaction, limits Limits) Result {
	address = model.NormalizeAddress(address)
	sent := SentHashes(address, txs)

	result := Result{Direct: DirectCreations(txs)}

	traceHashes := mostRecent(sent, limits.TraceCap)
	receiptHashes := mostRecent(sent, limits.ReceiptCap)
	result.Sampled = len(traceHashes) < len(sent) || len(receiptHashes) < len(sent)

	var g errgroup.Group
	if r.traces != nil && len(traceHashes) > 0 {
		g.Go(func() error {
			results := workpool.Map(ctx, limits.Workers, traceHashes, r.traces.InternalCalls)
			result.TracedHashes = len(traceHashes)
			result.TraceErrors = workpool.Failures(results)
			result.Internal = InternalCreations(flatten(workpool.Values(results)))
			return nil
		})
	}
	if r.receipts != nil && len(receiptHashes) > 0 {
		g.Go(func() error {
			results := workpool.Map(ctx, limits.Workers, receiptHashes, r.receipts.ReceiptContract)
			result.ReceiptsRead = len(receiptHashes)
			result.ReceiptErrs = workpool.Failures(results)
			result.Receipt = ReceiptCreations(workpool.Values(results))
			return nil
		})
	}
	_ = g.Wait()

	result.Addresses = Union(result.Direct, result.Internal, result.Receipt)

	if result.TraceErrors > 0 || result.ReceiptErrs > 0 {
		r.logger.Debug("deployment signals partially failed",
			zap.String("address", address),
			zap.Int("trace_errors", result.TraceErrors),
			zap.Int("receipt_errors", result.ReceiptErrs),
		)
	}
	return result
}

// SentHashes returns hashes of successful transactions sent by address, in
// input order.
func SentHashes(address string, txs []model.Transaction) []string {
	address = model.NormalizeAddress(address)
	out := make([]string, 0)
	seen := make(map[string]struct{})
	for _, tx := range txs {
		if !tx.OK() || tx.From != address || tx.Hash == "" {
			continue
		}
		if _, dup := seen[tx.Hash]; dup {
			continue
		}
		seen[tx.Hash] = struct{}{}
		out = append(out, tx.Hash)
	}
	return out
}

// DirectCreations returns contracts created by top-level transactions.
func DirectCreations(txs []model.Transaction) []string {
	var out []string
	for _, tx := range txs {
		if !tx.OK() || !model.IsZeroOrEmpty(tx.To) {
			continue
		}
		if model.IsAddress(tx.ContractAddress) && !model.IsZeroOrEmpty(tx.ContractAddress) {
			out = append(out, model.NormalizeAddress(tx.ContractAddress))
		}
	}
	return out
}

// InternalCreations returns contracts created by successful create/create2 traces.
func InternalCreations(calls []model.InternalCall) []string {
	var out []string
	for _, call := range calls {
		kind := strings.ToLower(call.Type)
		if call.IsError || (kind != "create" && kind != "create2") {
			continue
		}
		if model.IsAddress(call.ContractAddress) && !model.IsZeroOrEmpty(call.ContractAddress) {
			out = append(out, model.NormalizeAddress(call.ContractAddress))
		}
	}
	return out
}

// ReceiptCreations returns contract addresses named in receipts.
func ReceiptCreations(receipts []model.Receipt) []string {
	var out []string
	for _, receipt := range receipts {
		if model.IsAddress(receipt.ContractAddress) && !model.IsZeroOrEmpty(receipt.ContractAddress) {
			out = append(out, model.NormalizeAddress(receipt.ContractAddress))
		}
	}
	return out
}

// Union merges address lists into a sorted deduplicated list.
func Union(lists ...[]string) []string {
	set := model.NewAddressSet()
	for _, list := range lists {
		for _, addr := range list {
			set.Add(addr)
		}
	}
	out := make([]string, 0, len(set))
	for addr := range set {
		out = append(out, addr)
	}
	sort.Strings(out)
	return out
}

func mostRecent(hashes []string, limit int) []string {
	if limit <= 0 {
		return nil
	}
	if len(hashes) <= limit {
		return hashes
	}
	return hashes[len(hashes)-limit:]
}

func flatten(groups [][]model.InternalCall) []model.InternalCall {
	var out []model.InternalCall
	for _, group := range groups {
		out = append(out, group...)
	}
	return out
}
