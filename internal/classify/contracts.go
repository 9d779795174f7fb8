// Package classify applies address and keyword heuristics to a wallet's
// transactions and transfers.
package classify

import (
	"context"

	"walletclinic/internal/model"
	"walletclinic/internal/workpool"
)

// CodeChecker reports whether an address holds contract code.
type CodeChecker interface {
	IsContract(ctx context.Context, address string) (bool, error)
}

// InteractionLimits bounds contract-code lookups.
type InteractionLimits struct {
	Cap     int
	Workers int
}

// Interactions counts interactions with confirmed contracts. Lookups that
// fail count as non-contract, so both counts are lower bounds.
type Interactions struct {
	Unique    int
	Total     int
	Checked   int
	Failed    int
	Capped    bool
	Contracts model.AddressSet
}

// ClassifyInteractions checks the distinct recipients of successful
// transactions, in first-seen order, up to limits.Cap.
func ClassifyInteractions(ctx context.Context, checker CodeChecker, txs []model.Transaction, limits InteractionLimits) Interactions {
	out := Interactions{Contracts: model.NewAddressSet()}

	targets := distinctRecipients(txs)
	if limits.Cap > 0 && len(targets) > limits.Cap {
		targets = targets[:limits.Cap]
		out.Capped = true
	}
	if checker == nil || len(targets) == 0 {
		return out
	}

	results := workpool.Map(ctx, limits.Workers, targets, checker.IsContract)
	out.Checked = len(targets)
	for i, r := range results {
		if r.Err != nil {
			out.Failed++
			continue
		}
		if r.Value {
			out.Contracts.Add(targets[i])
		}
	}

	out.Unique = len(out.Contracts)
	for _, tx := range txs {
		if tx.OK() && out.Contracts.Has(tx.To) {
			out.Total++
		}
	}
	return out
}

func distinctRecipients(txs []model.Transaction) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, tx := range txs {
		if !tx.OK() || model.IsZeroOrEmpty(tx.To) {
			continue
		}
		to := model.NormalizeAddress(tx.To)
		if _, dup := seen[to]; dup {
			continue
		}
		seen[to] = struct{}{}
		out = append(out, to)
	}
	return out
}
