package classify

import (
	"math/big"

	"walletclinic/internal/catalog"
	"walletclinic/internal/model"
)

// Bridges summarizes native and third-party bridge usage.
type Bridges struct {
	NativeUsed     bool
	DepositedWei   *big.Int
	ThirdPartyUsed bool
	Counts         map[string]int
}

// DetectBridges tests transactions and ERC-20 transfers against the native
// bridge contracts and each third-party provider.
func DetectBridges(address string, txs []model.Transaction, transfers []model.Transfer, cat *catalog.Catalog) Bridges {
	address = model.NormalizeAddress(address)
	out := Bridges{DepositedWei: new(big.Int), Counts: make(map[string]int, len(cat.Bridges))}
	for _, b := range cat.Bridges {
		out.Counts[b.Name] = 0
	}

	for _, tx := range txs {
		if !tx.OK() {
			continue
		}
		if tx.To == address && cat.NativeSenders.Has(tx.From) {
			out.NativeUsed = true
			if tx.Value != nil {
				out.DepositedWei.Add(out.DepositedWei, tx.Value)
			}
		}
		if tx.From == address && cat.NativeOutbound.Has(tx.To) {
			out.NativeUsed = true
		}
		for _, b := range cat.Bridges {
			if b.Contracts.Has(tx.From) || b.Contracts.Has(tx.To) {
				out.Counts[b.Name]++
				out.ThirdPartyUsed = true
			}
		}
	}

	for _, tr := range transfers {
		if (tr.From == address && cat.NativeOutbound.Has(tr.To)) || (tr.To == address && cat.NativeOutbound.Has(tr.From)) {
			out.NativeUsed = true
		}
		for _, b := range cat.Bridges {
			if b.Contracts.Has(tr.From) || b.Contracts.Has(tr.To) || b.Contracts.Has(tr.ContractAddress) {
				out.Counts[b.Name]++
				out.ThirdPartyUsed = true
			}
		}
	}
	return out
}
