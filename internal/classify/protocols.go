package classify

import (
	"walletclinic/internal/catalog"
	"walletclinic/internal/model"
)

// Protocols holds per-protocol interaction counters.
type Protocols struct {
	Counts     map[string]int
	LendingAny bool
}

type touch struct {
	from, to, fn string
}

// CountProtocols counts successful transactions and all transfers whose
// counterparty is a protocol contract or whose function name carries one of
// the protocol's keywords.
func CountProtocols(txs []model.Transaction, transfers []model.Transfer, cat *catalog.Catalog) Protocols {
	touches := make([]touch, 0, len(txs)+len(transfers))
	lending := false
	for _, tx := range txs {
		if !tx.OK() {
			continue
		}
		touches = append(touches, touch{from: tx.From, to: tx.To, fn: tx.FunctionName})
		if containsAny(tx.FunctionName, cat.LendingKeywords) {
			lending = true
		}
	}
	for _, tr := range transfers {
		touches = append(touches, touch{from: tr.From, to: tr.To})
	}

	out := Protocols{Counts: make(map[string]int, len(cat.Protocols))}
	for _, p := range cat.Protocols {
		n := 0
		for _, t := range touches {
			if p.Addresses.Has(t.to) || p.Addresses.Has(t.from) || containsAny(t.fn, p.Keywords) {
				n++
			}
		}
		out.Counts[p.Name] = n
	}
	out.LendingAny = lending || out.Counts["aave"] > 0
	return out
}
